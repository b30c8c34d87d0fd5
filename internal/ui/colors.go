package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/amx/internal/models"
)

var styles = NewPalette("#FA2D48", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

// Status picks the style matching a recorded run status, so partial and
// failed runs stand out from clean ones.
func (p *Palette) Status(status string) lipgloss.Style {
	switch status {
	case models.RunStatusApplied:
		return p.ok
	case models.RunStatusPartial:
		return p.warn
	case models.RunStatusFailed:
		return p.err
	}

	return p.help
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
