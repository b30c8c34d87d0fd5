package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/amx/internal/plan"
	"github.com/desertthunder/amx/internal/shared"
)

var (
	_ list.Item = opItem{}
	_ list.Item = warnItem{}
)

// opItem wraps [plan.Operation] to implement [list.Item].
type opItem struct {
	op plan.Operation
}

func (i opItem) FilterValue() string {
	switch {
	case i.op.Track != nil:
		return i.op.Track.Title
	case i.op.Entry != nil:
		return i.op.Entry.Track.Title
	}
	return string(i.op.Kind)
}

func (i opItem) Title() string {
	switch {
	case i.op.Kind == plan.OpAdd && i.op.Track != nil:
		return fmt.Sprintf("+ %s", i.op.Track.Title)
	case i.op.Kind == plan.OpRemove && i.op.Entry != nil:
		return fmt.Sprintf("- %s", i.op.Entry.Track.Title)
	}
	return string(i.op.Kind)
}

func (i opItem) Description() string {
	switch {
	case i.op.Kind == plan.OpAdd && i.op.Track != nil:
		t := i.op.Track
		return fmt.Sprintf("add • %d-%02d • %s", t.DiscNumber, t.TrackNumber, shared.FormatDuration(t.Duration))
	case i.op.Kind == plan.OpRemove && i.op.Entry != nil:
		desc := fmt.Sprintf("remove • entry %s", i.op.Entry.LibraryID)
		if i.op.Cause == plan.CauseDuplicate {
			desc = fmt.Sprintf("%s • duplicate", desc)
		}
		return desc
	}
	return string(i.op.Kind)
}

// warnItem wraps [plan.Warning] to implement [list.Item].
type warnItem struct {
	warning plan.Warning
}

func (i warnItem) FilterValue() string { return i.warning.Entry.Track.Title }
func (i warnItem) Title() string       { return fmt.Sprintf("! %s", i.warning.Entry.Track.Title) }
func (i warnItem) Description() string {
	switch i.warning.Kind {
	case plan.WarnNoCandidate:
		return "kept • no destination candidate"
	case plan.WarnAmbiguous:
		return "kept • multiple destination candidates"
	case plan.WarnDuplicateSource:
		return fmt.Sprintf("duplicate of entry %s", i.warning.Primary)
	}
	return string(i.warning.Kind)
}
