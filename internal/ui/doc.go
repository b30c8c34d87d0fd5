// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for reviewing and applying an album version migration:
//  1. [PlanView] : Review the planned operations and warnings
//  2. [ConfirmView] : Approve or reject the migration
//  3. [ApplyView] : Monitor real-time progress updates
//  4. [ResultView] : Display applied counts, the recorded run, and kept entries
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving typed messages from engine commands.
// Progress updates flow through a channel from the [tasks.MigrationEngine], providing non-blocking status reporting while the plan is applied.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
