package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/amx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlanView ViewState = iota
	ConfirmView
	ApplyView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       tasks.MigrationEngine
	sourceID     string
	destID       string
	width        int
	height       int
	opList       list.Model
	planResult   *tasks.PlanResult
	progressChan chan tasks.ProgressUpdate
	doneChan     chan applyCompleteMsg
	progress     tasks.ProgressUpdate
	result       *tasks.ApplyRunResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine tasks.MigrationEngine, sourceID, destID string) *Model {
	return &Model{
		ctx:      ctx,
		view:     PlanView,
		engine:   engine,
		sourceID: sourceID,
		destID:   destID,
		opList:   list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Err reports the error that ended the session, if any.
func (m *Model) Err() error { return m.err }

// Init computes the migration plan for review.
func (m *Model) Init() tea.Cmd {
	return m.buildPlan()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.opList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlanView:
			return m.handlePlanKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		// Keys are ignored while the plan is being applied.
		return m, nil

	case planBuiltMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.setPlan(msg.result)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case applyCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		m.doneChan = nil
		return m, nil
	}

	if m.view == PlanView {
		var cmd tea.Cmd
		m.opList, cmd = m.opList.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlanView:
		return m.renderPlan()
	case ConfirmView:
		return m.renderConfirm()
	case ApplyView:
		return m.renderApply()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// setPlan stores the plan result and rebuilds the review list from its
// operations and warnings.
func (m *Model) setPlan(result *tasks.PlanResult) {
	m.planResult = result
	p := result.Plan

	items := make([]list.Item, 0, len(p.Operations)+len(p.Warnings))
	for _, op := range p.Operations {
		items = append(items, opItem{op: op})
	}
	for _, w := range p.Warnings {
		items = append(items, warnItem{warning: w})
	}

	adds, removes := p.Counts()
	title := fmt.Sprintf("%s to %s • %d adds • %d removes", p.SourceName, p.DestName, adds, removes)
	if len(p.Warnings) > 0 {
		title = fmt.Sprintf("%s • %d warnings", title, len(p.Warnings))
	}

	m.opList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.opList.Title = title
	m.opList.SetSize(m.width-4, m.height-8)
}

func (m *Model) handlePlanKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if m.planResult != nil {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.opList, cmd = m.opList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = PlanView
		return m, nil
	case "y":
		m.view = ApplyView
		return m, m.startApply()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PlanView
		m.planResult = nil
		m.result = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		return m, m.buildPlan()
	}
	return m, nil
}

func (m *Model) buildPlan() tea.Cmd {
	return func() tea.Msg {
		result, err := m.engine.Plan(m.ctx, nil, m.sourceID, m.destID)
		return planBuiltMsg{result: result, err: err}
	}
}

// startApply runs the migration in a goroutine that owns both channels.
// The outcome is parked on the buffered done channel before the progress
// channel closes, so the listener always finds it.
func (m *Model) startApply() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan applyCompleteMsg, 1)
	m.progressChan = progress
	m.doneChan = done

	go func() {
		result, err := m.engine.Apply(m.ctx, progress, m.sourceID, m.destID)
		done <- applyCompleteMsg{result: result, err: err}
		close(progress)
	}()

	return m.waitForProgress()
}

// waitForProgress re-arms the progress listener until the apply goroutine
// closes the channel.
func (m *Model) waitForProgress() tea.Cmd {
	progress := m.progressChan
	done := m.doneChan

	return func() tea.Msg {
		if progress == nil {
			return nil
		}

		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlan() string {
	if m.planResult == nil {
		title := styles.title.Render("Computing Migration Plan")
		return fmt.Sprintf("%s\n%s", title, styles.help.Render("Fetching album snapshots and matching tracks..."))
	}

	applyKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply"))
	helpKeys := []key.Binding{applyKey, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.opList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	p := m.planResult.Plan
	adds, removes := p.Counts()

	title := styles.title.Render(fmt.Sprintf("Apply migration to '%s'?", p.DestName))
	info := fmt.Sprintf("\nSource: %s\nDestination: %s\nOperations: %d adds, %d removes\n", p.SourceName, p.DestName, adds, removes)
	if len(p.NewTracks) > 0 {
		info += fmt.Sprintf("New on this version: %d tracks (not added automatically)\n", len(p.NewTracks))
	}
	if len(p.Warnings) > 0 {
		info += styles.warn.Render(fmt.Sprintf("%d entries stay in the library for review", len(p.Warnings))) + "\n"
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.back}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderApply() string {
	title := styles.title.Render("Applying Migration")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchSource:
		phase = "Fetching source album..."
	case tasks.FetchDest:
		phase = "Fetching destination album..."
	case tasks.BuildPlan:
		phase = "Matching library entries..."
	case tasks.RecordRun:
		phase = "Recording migration run..."
	case tasks.ApplyPlan:
		phase = fmt.Sprintf("Applying operations (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Working..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.err != nil {
		headline := styles.err.Render(fmt.Sprintf("✗ Migration failed: %v", m.err))
		var detail string
		if m.result != nil && m.result.Apply != nil {
			detail += fmt.Sprintf("\nCommitted before the failure: %d adds, %d removes", m.result.Apply.AddsApplied, m.result.Apply.RemovesApplied)
		}
		if m.result != nil && m.result.Run != nil {
			detail += m.renderRunLine(m.result.Run.ID(), m.result.Run.Status())
		}
		return fmt.Sprintf("%s\n%s\n\n%s", headline, detail, helpView)
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to replan, q to quit")
	}

	title := styles.ok.Render("✓ Migration Complete")
	info := fmt.Sprintf(
		"\nSource: %s\nDestination: %s\nAdded: %d tracks\nRemoved: %d entries",
		m.result.Plan.SourceName,
		m.result.Plan.DestName,
		m.result.Apply.AddsApplied,
		m.result.Apply.RemovesApplied,
	)
	if m.result.Run != nil {
		info += m.renderRunLine(m.result.Run.ID(), m.result.Run.Status())
	}

	var warned string
	if n := len(m.result.Plan.Warnings); n > 0 {
		warned = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d entries left in the library:", n)))
		for _, w := range m.result.Plan.Warnings {
			warned += fmt.Sprintf("\n  • %s", w)
		}
	}

	return fmt.Sprintf("%s%s%s\n\n%s", title, info, warned, helpView)
}

func (m *Model) renderRunLine(id, status string) string {
	return fmt.Sprintf("\nRun: %s %s", id, styles.Status(status).Render("["+status+"]"))
}
