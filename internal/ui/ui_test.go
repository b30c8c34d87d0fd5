package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/amx/internal/match"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/plan"
	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/desertthunder/amx/internal/tasks"
	th "github.com/desertthunder/amx/internal/testing"
)

var _ tasks.MigrationEngine = (*stubEngine)(nil)

// stubEngine feeds canned results into the model and replays scripted
// progress updates during Apply.
type stubEngine struct {
	planResult  *tasks.PlanResult
	planErr     error
	applyResult *tasks.ApplyRunResult
	applyErr    error
	updates     []tasks.ProgressUpdate
}

func (s *stubEngine) Plan(ctx context.Context, progress chan<- tasks.ProgressUpdate, sourceID, destID string) (*tasks.PlanResult, error) {
	return s.planResult, s.planErr
}

func (s *stubEngine) Apply(ctx context.Context, progress chan<- tasks.ProgressUpdate, sourceID, destID string) (*tasks.ApplyRunResult, error) {
	for _, u := range s.updates {
		progress <- u
	}
	return s.applyResult, s.applyErr
}

func (s *stubEngine) Export(ctx context.Context, progress chan<- tasks.ProgressUpdate, ids []string, opts tasks.SnapshotExportOpts) (*tasks.SnapshotExportResult, error) {
	return nil, nil
}

func fixturePlanResult() *tasks.PlanResult {
	source := th.SourceAlbum()
	dest := th.DeluxeAlbum()
	outcome := match.Match(source.Entries, dest.Tracks)

	return &tasks.PlanResult{
		Source:  source,
		Dest:    dest,
		Outcome: outcome,
		Plan:    plan.Build(source, dest, outcome),
	}
}

func newTestModel(t *testing.T, engine tasks.MigrationEngine) *Model {
	t.Helper()
	m := NewModel(context.Background(), engine, "l.source", "910000")
	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return model.(*Model)
}

// planModel runs Init against the stub and feeds the resulting message back
// so the model lands in the loaded plan view.
func planModel(t *testing.T, engine tasks.MigrationEngine) *Model {
	t.Helper()
	m := newTestModel(t, engine)
	model, _ := m.Update(m.Init()())
	return model.(*Model)
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel_PlanReview(t *testing.T) {
	t.Run("Renders Loading Before Plan Arrives", func(t *testing.T) {
		m := newTestModel(t, &stubEngine{planResult: fixturePlanResult()})

		view := m.View()
		if !strings.Contains(view, "Computing Migration Plan") {
			t.Errorf("expected loading screen, got %q", view)
		}
	})

	t.Run("Loads Plan Into List", func(t *testing.T) {
		m := newTestModel(t, &stubEngine{planResult: fixturePlanResult()})

		cmd := m.Init()
		if cmd == nil {
			t.Fatal("expected Init to return a command")
		}
		msg := cmd()
		if _, ok := msg.(planBuiltMsg); !ok {
			t.Fatalf("expected planBuiltMsg, got %T", msg)
		}

		model, _ := m.Update(msg)
		m = model.(*Model)

		if m.view != PlanView {
			t.Errorf("expected PlanView, got %v", m.view)
		}

		view := m.View()
		for _, want := range []string{"2 adds", "3 removes", "1 warnings", "+ Intro", "+ Song A", "- Song A", "! Song A"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected view to contain %q", want)
			}
		}
	})

	t.Run("Quits When Planning Fails", func(t *testing.T) {
		m := newTestModel(t, &stubEngine{planErr: errors.New("fetch failed")})

		model, cmd := m.Update(m.Init()())
		m = model.(*Model)

		if cmd == nil {
			t.Fatal("expected a quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if m.Err() == nil {
			t.Error("expected model to retain the planning error")
		}
		if !strings.Contains(m.View(), "fetch failed") {
			t.Error("expected error view to mention the failure")
		}
	})

	t.Run("Enter Opens Confirmation", func(t *testing.T) {
		m := planModel(t, &stubEngine{planResult: fixturePlanResult()})

		model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = model.(*Model)

		if m.view != ConfirmView {
			t.Fatalf("expected ConfirmView, got %v", m.view)
		}

		view := m.View()
		for _, want := range []string{
			"Apply migration to 'Greatest Songs (Deluxe)'?",
			"Source: Greatest Songs",
			"Operations: 2 adds, 3 removes",
			"New on this version: 1 tracks",
			"1 entries stay in the library for review",
		} {
			if !strings.Contains(view, want) {
				t.Errorf("expected confirm view to contain %q", want)
			}
		}
	})

	t.Run("Declining Returns To Plan", func(t *testing.T) {
		m := planModel(t, &stubEngine{planResult: fixturePlanResult()})

		model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = model.(*Model)
		model, _ = m.Update(keyPress('n'))
		m = model.(*Model)

		if m.view != PlanView {
			t.Errorf("expected PlanView after declining, got %v", m.view)
		}
	})
}

func TestModel_Apply(t *testing.T) {
	run := models.NewMigrationRun(0, "900000", "910000")
	run.SetID("run-1")
	run.SetStatus(models.RunStatusApplied)

	planResult := fixturePlanResult()
	applied := &tasks.ApplyRunResult{
		PlanResult: *planResult,
		Apply:      &services.ApplyResult{AddsApplied: 2, RemovesApplied: 3},
		Run:        run,
	}

	t.Run("Streams Progress Then Completes", func(t *testing.T) {
		engine := &stubEngine{
			planResult:  planResult,
			applyResult: applied,
			updates: []tasks.ProgressUpdate{
				{Phase: tasks.ApplyPlan, Step: 0, Total: 5, Message: "Applying migration plan (5 operations)..."},
				{Phase: tasks.ApplyPlan, Step: 1, Total: 5, Message: `[1/5] ✓ add "Intro"`},
			},
		}
		m := planModel(t, engine)

		model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = model.(*Model)
		model, cmd := m.Update(keyPress('y'))
		m = model.(*Model)

		if m.view != ApplyView {
			t.Fatalf("expected ApplyView, got %v", m.view)
		}
		if cmd == nil {
			t.Fatal("expected a progress command")
		}

		var sawProgress bool
		msg := cmd()
		for i := 0; i < 10; i++ {
			if _, done := msg.(applyCompleteMsg); done {
				break
			}
			update, ok := msg.(progressUpdateMsg)
			if !ok {
				t.Fatalf("unexpected message %T", msg)
			}
			sawProgress = true

			model, cmd = m.Update(update)
			m = model.(*Model)
			if !strings.Contains(m.View(), "Applying Migration") {
				t.Error("expected apply view while progress streams")
			}
			msg = cmd()
		}

		if !sawProgress {
			t.Error("expected at least one progress update")
		}

		complete, ok := msg.(applyCompleteMsg)
		if !ok {
			t.Fatalf("expected applyCompleteMsg, got %T", msg)
		}
		model, _ = m.Update(complete)
		m = model.(*Model)

		if m.view != ResultView {
			t.Fatalf("expected ResultView, got %v", m.view)
		}

		view := m.View()
		for _, want := range []string{
			"✓ Migration Complete",
			"Added: 2 tracks",
			"Removed: 3 entries",
			"Run: run-1",
			"[applied]",
			"1 entries left in the library:",
			"duplicates library entry i.2",
		} {
			if !strings.Contains(view, want) {
				t.Errorf("expected result view to contain %q", want)
			}
		}
	})

	t.Run("Failed Apply Shows Partial Counts", func(t *testing.T) {
		m := planModel(t, &stubEngine{planResult: planResult})

		partial := &tasks.ApplyRunResult{
			PlanResult: *planResult,
			Apply:      &services.ApplyResult{AddsApplied: 2, RemovesApplied: 1},
		}
		applyErr := fmt.Errorf("%w: remove rejected", shared.ErrMigrationFailed)

		model, _ := m.Update(applyCompleteMsg{result: partial, err: applyErr})
		m = model.(*Model)

		view := m.View()
		for _, want := range []string{"✗ Migration failed", "remove rejected", "Committed before the failure: 2 adds, 1 removes"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected failure view to contain %q", want)
			}
		}
	})

	t.Run("Keys Are Ignored While Applying", func(t *testing.T) {
		m := planModel(t, &stubEngine{planResult: planResult})
		m.view = ApplyView

		model, cmd := m.Update(keyPress('q'))
		m = model.(*Model)

		if m.view != ApplyView {
			t.Errorf("expected ApplyView to hold, got %v", m.view)
		}
		if cmd != nil {
			t.Error("expected no command for keys during apply")
		}
	})

	t.Run("Restart Replans", func(t *testing.T) {
		m := planModel(t, &stubEngine{planResult: planResult, applyResult: applied})
		model, _ := m.Update(applyCompleteMsg{result: applied})
		m = model.(*Model)

		model, cmd := m.Update(keyPress('r'))
		m = model.(*Model)

		if m.view != PlanView {
			t.Errorf("expected PlanView after restart, got %v", m.view)
		}
		if m.planResult != nil || m.result != nil {
			t.Error("expected restart to clear prior results")
		}
		if cmd == nil {
			t.Fatal("expected restart to replan")
		}
		if _, ok := cmd().(planBuiltMsg); !ok {
			t.Error("expected replan command to produce planBuiltMsg")
		}
	})
}

func TestListItems(t *testing.T) {
	p := fixturePlanResult().Plan
	adds := p.Adds()
	removes := p.Removes()

	if got := (opItem{op: adds[0]}).Title(); got != "+ Intro" {
		t.Errorf("expected '+ Intro', got %q", got)
	}
	if got := (opItem{op: adds[0]}).Description(); got != "add • 1-01 • 0:45" {
		t.Errorf("unexpected add description %q", got)
	}

	dup := removes[len(removes)-1]
	if got := (opItem{op: dup}).Description(); got != "remove • entry i.3 • duplicate" {
		t.Errorf("unexpected duplicate description %q", got)
	}

	w := warnItem{warning: p.Warnings[0]}
	if got := w.Title(); got != "! Song A" {
		t.Errorf("unexpected warning title %q", got)
	}
	if got := w.Description(); got != "duplicate of entry i.2" {
		t.Errorf("unexpected warning description %q", got)
	}
}
