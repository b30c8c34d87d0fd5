// Package plan converts a track correspondence into an ordered, reviewable
// set of library operations.
package plan

import (
	"fmt"
	"sort"

	"github.com/desertthunder/amx/internal/match"
	"github.com/desertthunder/amx/internal/models"
)

// OpKind distinguishes the two library mutations a plan can request.
type OpKind string

const (
	OpAdd    OpKind = "add"
	OpRemove OpKind = "remove"
)

// Cause records why a Remove was emitted: it either covers a successful
// match or cleans up a duplicate source entry.
type Cause string

const (
	CauseMatch     Cause = "match"
	CauseDuplicate Cause = "duplicate"
)

// Operation is a single library mutation. Adds carry the destination track,
// Removes carry the source library entry.
type Operation struct {
	Kind  OpKind               `json:"kind"`
	Cause Cause                `json:"cause,omitempty"`
	Track *models.Track        `json:"track,omitempty"`
	Entry *models.LibraryEntry `json:"entry,omitempty"`
}

// String renders a short label for progress output and logs.
func (o Operation) String() string {
	switch {
	case o.Kind == OpAdd && o.Track != nil:
		return fmt.Sprintf("add %q", o.Track.Title)
	case o.Kind == OpRemove && o.Entry != nil && o.Cause == CauseDuplicate:
		return fmt.Sprintf("remove duplicate %q", o.Entry.Track.Title)
	case o.Kind == OpRemove && o.Entry != nil:
		return fmt.Sprintf("remove %q", o.Entry.Track.Title)
	}

	return string(o.Kind)
}

// WarningKind classifies the source-side conditions a plan surfaces without
// acting on.
type WarningKind string

const (
	WarnNoCandidate     WarningKind = "no-candidate"
	WarnAmbiguous       WarningKind = "ambiguous"
	WarnDuplicateSource WarningKind = "duplicate-source"
)

// Warning flags a library entry the user should review. A warned entry is
// left exactly as it is in the source version unless an accompanying
// duplicate-cleanup Remove says otherwise.
type Warning struct {
	Kind    WarningKind         `json:"kind"`
	Entry   models.LibraryEntry `json:"entry"`
	Primary string              `json:"primary,omitempty"`
	Hint    string              `json:"hint,omitempty"`
}

func (w Warning) String() string {
	pos := fmt.Sprintf("%q (%d-%d)", w.Entry.Track.Title, w.Entry.Track.DiscNumber, w.Entry.Track.TrackNumber)
	switch w.Kind {
	case WarnNoCandidate:
		return fmt.Sprintf("no destination candidate for %s", pos)
	case WarnAmbiguous:
		return fmt.Sprintf("multiple destination candidates for %s", pos)
	case WarnDuplicateSource:
		return fmt.Sprintf("%s duplicates library entry %s", pos, w.Primary)
	}

	return string(w.Kind)
}

// MigrationPlan is the ordered outcome of a source-to-destination
// comparison. Operations places every Add before every Remove, so applying
// the list front to back can never leave a song missing from both versions.
// NewTracks lists destination content not yet in the library; it is
// informational and produces no operation.
type MigrationPlan struct {
	SourceAlbumID string         `json:"source_album_id"`
	DestAlbumID   string         `json:"dest_album_id"`
	SourceName    string         `json:"source_name,omitempty"`
	DestName      string         `json:"dest_name,omitempty"`
	Operations    []Operation    `json:"operations"`
	Warnings      []Warning      `json:"warnings,omitempty"`
	NewTracks     []models.Track `json:"new_tracks,omitempty"`
}

// Adds returns the Add operations in destination order.
func (p *MigrationPlan) Adds() []Operation {
	var ops []Operation
	for _, op := range p.Operations {
		if op.Kind == OpAdd {
			ops = append(ops, op)
		}
	}

	return ops
}

// Removes returns the Remove operations in source order.
func (p *MigrationPlan) Removes() []Operation {
	var ops []Operation
	for _, op := range p.Operations {
		if op.Kind == OpRemove {
			ops = append(ops, op)
		}
	}

	return ops
}

// Counts reports how many Adds and Removes the plan holds.
func (p *MigrationPlan) Counts() (adds int, removes int) {
	for _, op := range p.Operations {
		if op.Kind == OpAdd {
			adds++
		} else {
			removes++
		}
	}

	return adds, removes
}

// Empty reports whether the plan holds no operations. An empty plan with no
// warnings means the library already reflects the destination version.
func (p *MigrationPlan) Empty() bool {
	return len(p.Operations) == 0
}

// Build converts a match outcome into a migration plan.
//
// Every successful match emits one Add and one Remove, except that a
// destination track already present in the library skips its Add (the work
// is committed, only the source entry remains to clean up). Duplicate
// source entries are removed only when their primary copy matched, and are
// always surfaced as warnings. Unmatched entries produce warnings and no
// operation. Rebuilding from fresh snapshots after a full apply therefore
// yields an empty plan.
func Build(source, dest *models.Album, outcome match.Outcome) *MigrationPlan {
	sourceID := source.LibraryID
	if sourceID == "" {
		sourceID = source.CatalogID
	}
	destID := dest.CatalogID
	if destID == "" {
		destID = dest.LibraryID
	}

	p := &MigrationPlan{
		SourceAlbumID: sourceID,
		DestAlbumID:   destID,
		SourceName:    source.Name,
		DestName:      dest.Name,
	}

	matched := make(map[string]bool, len(outcome.Results))
	for _, r := range outcome.Results {
		if r.Matched() {
			matched[r.Entry.LibraryID] = true
		}
	}

	var adds, removes []Operation
	for _, r := range outcome.Results {
		entry := r.Entry
		switch {
		case r.Matched():
			if r.Track.LibraryID == "" {
				adds = append(adds, Operation{Kind: OpAdd, Track: r.Track})
			}
			removes = append(removes, Operation{Kind: OpRemove, Cause: CauseMatch, Entry: &entry})
		case r.Reason == match.ReasonDuplicateSource:
			if matched[r.Primary] {
				removes = append(removes, Operation{Kind: OpRemove, Cause: CauseDuplicate, Entry: &entry})
			}
			p.Warnings = append(p.Warnings, Warning{Kind: WarnDuplicateSource, Entry: entry, Primary: r.Primary})
		case r.Reason == match.ReasonAmbiguous:
			p.Warnings = append(p.Warnings, Warning{Kind: WarnAmbiguous, Entry: entry, Hint: r.Hint})
		default:
			p.Warnings = append(p.Warnings, Warning{Kind: WarnNoCandidate, Entry: entry, Hint: r.Hint})
		}
	}

	p.NewTracks = append(p.NewTracks, outcome.UnmatchedTracks...)

	sort.SliceStable(adds, func(i, j int) bool {
		a, b := adds[i].Track, adds[j].Track
		if a.DiscNumber != b.DiscNumber {
			return a.DiscNumber < b.DiscNumber
		}

		return a.TrackNumber < b.TrackNumber
	})

	// Removes inherit the stable source order the results arrive in.
	p.Operations = make([]Operation, 0, len(adds)+len(removes))
	p.Operations = append(p.Operations, adds...)
	p.Operations = append(p.Operations, removes...)

	return p
}
