package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/amx/internal/tasks"
)

var (
	_ tea.Msg = planBuiltMsg{}
	_ tea.Msg = progressUpdateMsg{}
	_ tea.Msg = applyCompleteMsg{}
)

// planBuiltMsg carries the plan computed for review, or the error that
// prevented it.
type planBuiltMsg struct {
	result *tasks.PlanResult
	err    error
}

// progressUpdateMsg forwards one engine progress update into the event loop.
type progressUpdateMsg tasks.ProgressUpdate

// applyCompleteMsg reports the finished apply once the progress channel
// drains.
type applyCompleteMsg struct {
	result *tasks.ApplyRunResult
	err    error
}
