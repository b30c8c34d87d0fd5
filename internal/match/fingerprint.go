// Package match computes track correspondences between two versions of an album.
package match

import (
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/amx/internal/models"
)

// Fingerprint is a derived comparison key for one track.
//
// Fingerprints are recomputed per run and never persisted. They are compared
// only for equality on the axes the matcher defines, never for fuzzy scores.
type Fingerprint struct {
	Title       string   // normalized base title, "" when the track has no usable title
	Annotations []string // sorted bracketed qualifiers stripped from the title
	Duration    int      // whole seconds, 0 when unknown
	Disc        int
	Position    int
	Artist      string // case-folded primary artist credit
	ExternalID  string // ISRC-like identifier when the catalog supplies one
}

// smart punctuation the web catalog mixes into otherwise identical titles
var titleReplacer = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"“", `"`,
	"”", `"`,
	"‐", "-",
	"–", "-",
	"—", "-",
)

// Compute derives a fingerprint from track metadata.
//
// Missing fields degrade the fingerprint rather than failing: an empty title
// produces an empty base title that never matches on the title axis, and an
// unknown duration stays zero.
func Compute(track models.Track) Fingerprint {
	base, annotations := normalizeTitle(track.Title)
	return Fingerprint{
		Title:       base,
		Annotations: annotations,
		Duration:    max(track.Duration, 0),
		Disc:        track.DiscNumber,
		Position:    track.TrackNumber,
		Artist:      foldSpace(strings.ToLower(track.ArtistName)),
		ExternalID:  strings.TrimSpace(track.ISRC),
	}
}

// Key returns a stable string form of the full fingerprint, used to detect
// source entries that are copies of the same track.
func (f Fingerprint) Key() string {
	parts := []string{
		f.Title,
		strings.Join(f.Annotations, ","),
		strconv.Itoa(f.Duration),
		strconv.Itoa(f.Disc),
		strconv.Itoa(f.Position),
		f.Artist,
		f.ExternalID,
	}
	return strings.Join(parts, "|")
}

// SameAnnotations reports whether both fingerprints carry the same qualifier set.
func (f Fingerprint) SameAnnotations(other Fingerprint) bool {
	return slices.Equal(f.Annotations, other.Annotations)
}

// normalizeTitle lowercases and trims a title, stripping bracketed qualifiers
// like "(Remastered)" or "[feat. X]" into a sorted annotation list so releases
// that only rename tracks with such suffixes still compare equal on the base.
func normalizeTitle(title string) (string, []string) {
	lowered := strings.ToLower(titleReplacer.Replace(title))

	var base strings.Builder
	var annotations []string
	var current strings.Builder
	depth := 0

	for _, r := range lowered {
		switch r {
		case '(', '[':
			if depth == 0 {
				current.Reset()
			} else {
				current.WriteRune(r)
			}
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
				if depth == 0 {
					if a := foldSpace(current.String()); a != "" {
						annotations = append(annotations, a)
					}
					continue
				}
				current.WriteRune(r)
			} else {
				base.WriteRune(r)
			}
		default:
			if depth > 0 {
				current.WriteRune(r)
			} else {
				base.WriteRune(r)
			}
		}
	}

	// An unterminated bracket keeps its text as an annotation rather than
	// silently dropping it.
	if depth > 0 {
		if a := foldSpace(current.String()); a != "" {
			annotations = append(annotations, a)
		}
	}

	slices.Sort(annotations)
	return trimPunct(foldSpace(base.String())), annotations
}

// foldSpace collapses whitespace runs into single spaces and trims the ends.
func foldSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// trimPunct drops leading and trailing punctuation left behind after
// qualifier stripping, e.g. the dangling dash in "song a -".
func trimPunct(s string) string {
	return strings.Trim(s, " \t-–—.,;:!?'\"")
}
