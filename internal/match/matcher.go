package match

import (
	"fmt"
	"sort"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/desertthunder/amx/internal/models"
)

// DurationTolerance is the widest duration gap, in seconds, that the
// title-with-tolerance tier accepts. Inclusive on both ends.
const DurationTolerance = 2

// hintThreshold gates the advisory nearest-title hint on unmatched entries.
const hintThreshold = 0.85

// Tier identifies the evidence level behind a successful match.
type Tier int

const (
	TierNone Tier = iota
	TierExternalID
	TierTitleDuration
	TierTitleTolerance
)

func (t Tier) String() string {
	switch t {
	case TierExternalID:
		return "external-id"
	case TierTitleDuration:
		return "title+duration"
	case TierTitleTolerance:
		return "title+tolerance"
	default:
		return "none"
	}
}

// Reason explains why an entry was left unmatched or flagged.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNoCandidate
	ReasonAmbiguous
	ReasonDuplicateSource
)

func (r Reason) String() string {
	switch r {
	case ReasonNoCandidate:
		return "no-candidate"
	case ReasonAmbiguous:
		return "ambiguous"
	case ReasonDuplicateSource:
		return "duplicate-source"
	default:
		return "none"
	}
}

// Result relates one library entry to at most one destination track.
type Result struct {
	Entry   models.LibraryEntry
	Print   Fingerprint
	Track   *models.Track // nil when unmatched
	Tier    Tier
	Reason  Reason
	Primary string // library ID of the surviving copy, set on duplicate-source results
	Hint    string // advisory nearest-title text, never part of the decision
}

// Matched reports whether the entry was tied to exactly one destination track.
func (r Result) Matched() bool { return r.Track != nil }

// Outcome is the full correspondence for one album pair.
//
// Results holds one element per source entry, in stable source order.
// UnmatchedTracks lists destination tracks that received no match and have no
// library presence, i.e. content that is genuinely new to the user.
type Outcome struct {
	Results         []Result
	UnmatchedTracks []models.Track
}

// Match computes the correspondence between source library entries and the
// destination track pool.
//
// Entries are processed in stable order (disc, track, then library ID) and
// every successful match consumes its destination track before the next entry
// is considered, so repeated runs over the same snapshots produce identical
// results. An entry matches at the highest tier where exactly one candidate
// qualifies; ties reject the entry as ambiguous rather than guessing, and an
// external identifier shared by multiple tracks on either side is treated as
// corrupt rather than authoritative.
func Match(entries []models.LibraryEntry, pool []models.Track) Outcome {
	ordered := make([]models.LibraryEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Track.DiscNumber != b.Track.DiscNumber {
			return a.Track.DiscNumber < b.Track.DiscNumber
		}
		if a.Track.TrackNumber != b.Track.TrackNumber {
			return a.Track.TrackNumber < b.Track.TrackNumber
		}
		return a.LibraryID < b.LibraryID
	})

	prints := make([]Fingerprint, len(ordered))
	for i, entry := range ordered {
		prints[i] = Compute(entry.Track)
	}

	poolPrints := make([]Fingerprint, len(pool))
	for i, track := range pool {
		poolPrints[i] = Compute(track)
	}

	results := make([]Result, len(ordered))
	for i := range ordered {
		results[i] = Result{Entry: ordered[i], Print: prints[i]}
	}

	// Entries that fingerprint identically are copies of one track. The first
	// in stable order stays in the running; the rest are flagged and do not
	// compete for destination tracks.
	primaryAt := make(map[string]int)
	duplicate := make([]bool, len(ordered))
	for i, fp := range prints {
		key := fp.Key()
		if j, seen := primaryAt[key]; seen {
			duplicate[i] = true
			results[i].Reason = ReasonDuplicateSource
			results[i].Primary = ordered[j].LibraryID
			continue
		}
		primaryAt[key] = i
	}

	corrupt := corruptExternalIDs(prints, poolPrints)

	consumed := make([]bool, len(pool))
	available := func(keep func(int) bool) []int {
		var out []int
		for i := range pool {
			if !consumed[i] && keep(i) {
				out = append(out, i)
			}
		}
		return out
	}

	take := func(i, poolIdx int, tier Tier) {
		consumed[poolIdx] = true
		track := pool[poolIdx]
		results[i].Track = &track
		results[i].Tier = tier
	}

	jw := metrics.NewJaroWinkler()

	for i := range ordered {
		if duplicate[i] {
			continue
		}

		fp := prints[i]

		if fp.ExternalID != "" {
			if corrupt[fp.ExternalID] {
				results[i].Reason = ReasonAmbiguous
				continue
			}
			ids := available(func(p int) bool { return poolPrints[p].ExternalID == fp.ExternalID })
			if len(ids) == 1 {
				take(i, ids[0], TierExternalID)
				continue
			}
			if len(ids) > 1 {
				results[i].Reason = ReasonAmbiguous
				continue
			}
		}

		if fp.Title == "" {
			// No usable title and no identifier match: nothing left to compare.
			results[i].Reason = ReasonNoCandidate
			continue
		}

		cands := available(func(p int) bool {
			return poolPrints[p].Title == fp.Title && poolPrints[p].Duration == fp.Duration
		})
		if len(cands) > 0 {
			if idx, ok := resolve(fp, poolPrints, cands); ok {
				take(i, idx, TierTitleDuration)
			} else {
				results[i].Reason = ReasonAmbiguous
			}
			continue
		}

		if fp.Duration > 0 {
			cands = available(func(p int) bool {
				q := poolPrints[p]
				if q.Title != fp.Title || q.Duration <= 0 {
					return false
				}
				delta := q.Duration - fp.Duration
				return delta >= -DurationTolerance && delta <= DurationTolerance
			})
			if len(cands) > 0 {
				if idx, ok := resolve(fp, poolPrints, cands); ok {
					take(i, idx, TierTitleTolerance)
				} else {
					results[i].Reason = ReasonAmbiguous
				}
				continue
			}
		}

		results[i].Reason = ReasonNoCandidate
		results[i].Hint = nearestTitle(jw, fp, pool, poolPrints, consumed)
	}

	var unmatched []models.Track
	for i := range pool {
		if !consumed[i] && pool[i].LibraryID == "" {
			unmatched = append(unmatched, pool[i])
		}
	}

	return Outcome{Results: results, UnmatchedTracks: unmatched}
}

// resolve narrows a candidate set to a single index.
//
// With one candidate the answer is immediate, and a qualifier mismatch does
// not block it: a lone "song (remastered)" still matches a "song" entry when
// the duration tier already vouched for it. With several candidates the
// annotation sets are the only remaining evidence, so exactly one candidate
// with the entry's qualifier set wins and anything else stays ambiguous.
func resolve(fp Fingerprint, poolPrints []Fingerprint, cands []int) (int, bool) {
	if len(cands) == 1 {
		return cands[0], true
	}

	var exact []int
	for _, c := range cands {
		if poolPrints[c].SameAnnotations(fp) {
			exact = append(exact, c)
		}
	}
	if len(exact) == 1 {
		return exact[0], true
	}
	return 0, false
}

// corruptExternalIDs finds identifiers that cannot be trusted: those shared by
// multiple destination tracks, or claimed by source entries with differing
// fingerprints. Matching treats entries carrying them as ambiguous instead of
// letting the identifier tier guess.
func corruptExternalIDs(prints, poolPrints []Fingerprint) map[string]bool {
	corrupt := make(map[string]bool)

	seen := make(map[string]int)
	for _, p := range poolPrints {
		if p.ExternalID == "" {
			continue
		}
		seen[p.ExternalID]++
		if seen[p.ExternalID] > 1 {
			corrupt[p.ExternalID] = true
		}
	}

	keys := make(map[string]string)
	for _, p := range prints {
		if p.ExternalID == "" {
			continue
		}
		key := p.Key()
		if prev, ok := keys[p.ExternalID]; ok && prev != key {
			corrupt[p.ExternalID] = true
			continue
		}
		keys[p.ExternalID] = key
	}

	return corrupt
}

// nearestTitle returns advisory text naming the closest unconsumed destination
// title when it is similar enough to be worth showing. Purely informational.
func nearestTitle(jw *metrics.JaroWinkler, fp Fingerprint, pool []models.Track, poolPrints []Fingerprint, consumed []bool) string {
	best := -1
	var bestScore float64
	for i := range pool {
		if consumed[i] || poolPrints[i].Title == "" {
			continue
		}
		score := strutil.Similarity(fp.Title, poolPrints[i].Title, jw)
		if score > bestScore {
			bestScore = score
			best = i
		}
	}

	if best < 0 || bestScore < hintThreshold {
		return ""
	}
	return fmt.Sprintf("closest destination title is %q (%.0f%% similar)", pool[best].Title, bestScore*100)
}
