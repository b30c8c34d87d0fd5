package services

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/amx/internal/match"
	"github.com/desertthunder/amx/internal/plan"
	"github.com/desertthunder/amx/internal/shared"
	th "github.com/desertthunder/amx/internal/testing"
)

// fixturePlan builds the plan for the standard-to-deluxe fixture pair:
// two adds, then three removes (the third one a duplicate).
func fixturePlan(t *testing.T) *plan.MigrationPlan {
	t.Helper()

	source := th.SourceAlbum()
	dest := th.DeluxeAlbum()
	return plan.Build(source, dest, match.Match(source.Entries, dest.Tracks))
}

func TestExecutorApply(t *testing.T) {
	t.Run("Full Apply", func(t *testing.T) {
		mock := &th.MockLibrary{}
		executor := NewExecutor(mock, nil)

		result, err := executor.Apply(context.Background(), fixturePlan(t), nil)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}

		if !result.Completed() {
			t.Error("expected a completed result")
		}
		if result.AddsApplied != 2 || result.RemovesApplied != 3 {
			t.Errorf("expected 2 adds and 3 removes, got %d/%d", result.AddsApplied, result.RemovesApplied)
		}

		wantAdded := []string{"910001", "910002"}
		if len(mock.Added) != len(wantAdded) {
			t.Fatalf("expected %d adds, got %v", len(wantAdded), mock.Added)
		}
		for i, id := range wantAdded {
			if mock.Added[i] != id {
				t.Errorf("add %d: expected %s, got %s", i, id, mock.Added[i])
			}
		}

		wantRemoved := []string{"i.1", "i.2", "i.3"}
		for i, id := range wantRemoved {
			if mock.Removed[i] != id {
				t.Errorf("remove %d: expected %s, got %s", i, id, mock.Removed[i])
			}
		}
	})

	t.Run("Adds Complete Before Any Remove", func(t *testing.T) {
		mock := &th.MockLibrary{}
		executor := NewExecutor(mock, nil)

		sawRemove := false
		onOp := func(res OperationResult) {
			if res.Operation.Kind == plan.OpRemove {
				sawRemove = true
			}
			if res.Operation.Kind == plan.OpAdd && sawRemove {
				t.Error("an add ran after a remove")
			}
		}

		if _, err := executor.Apply(context.Background(), fixturePlan(t), onOp); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if !sawRemove {
			t.Error("expected removes to run")
		}
	})

	t.Run("Stops At First Add Failure", func(t *testing.T) {
		mock := &th.MockLibrary{
			AddErr:    errors.New("add rejected"),
			FailAddOn: 2,
		}
		executor := NewExecutor(mock, nil)

		result, err := executor.Apply(context.Background(), fixturePlan(t), nil)
		if !errors.Is(err, shared.ErrMigrationFailed) {
			t.Fatalf("expected ErrMigrationFailed, got %v", err)
		}

		if result.AddsApplied != 1 || result.RemovesApplied != 0 {
			t.Errorf("expected 1 add and 0 removes committed, got %d/%d", result.AddsApplied, result.RemovesApplied)
		}
		if len(mock.Removed) != 0 {
			t.Errorf("no removes should run after a failed add, got %v", mock.Removed)
		}
		if len(result.Results) != 2 {
			t.Fatalf("expected 2 attempted operations, got %d", len(result.Results))
		}

		failed := result.Results[len(result.Results)-1]
		if failed.Err == nil {
			t.Error("expected the last result to carry the failure")
		}
		if failed.Operation.Track == nil || failed.Operation.Track.CatalogID != "910002" {
			t.Errorf("expected the failure attributed to the second add, got %+v", failed.Operation)
		}
	})

	t.Run("Stops At First Remove Failure", func(t *testing.T) {
		mock := &th.MockLibrary{
			RemoveErr:    errors.New("remove rejected"),
			FailRemoveOn: 2,
		}
		executor := NewExecutor(mock, nil)

		result, err := executor.Apply(context.Background(), fixturePlan(t), nil)
		if !errors.Is(err, shared.ErrMigrationFailed) {
			t.Fatalf("expected ErrMigrationFailed, got %v", err)
		}

		if result.AddsApplied != 2 {
			t.Errorf("all adds should have committed, got %d", result.AddsApplied)
		}
		if result.RemovesApplied != 1 {
			t.Errorf("expected 1 remove committed, got %d", result.RemovesApplied)
		}

		failed := result.Results[len(result.Results)-1]
		if failed.Operation.Entry == nil || failed.Operation.Entry.LibraryID != "i.2" {
			t.Errorf("expected the failure attributed to i.2, got %+v", failed.Operation)
		}
		if result.Completed() {
			t.Error("a failed run must not report completed")
		}
	})

	t.Run("Reports Every Attempt Through Callback", func(t *testing.T) {
		mock := &th.MockLibrary{}
		executor := NewExecutor(mock, nil)

		calls := 0
		result, err := executor.Apply(context.Background(), fixturePlan(t), func(OperationResult) { calls++ })
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if calls != len(result.Results) {
			t.Errorf("expected %d callback calls, got %d", len(result.Results), calls)
		}
	})

	t.Run("Rejects Misordered Plan", func(t *testing.T) {
		mock := &th.MockLibrary{}
		executor := NewExecutor(mock, nil)

		p := fixturePlan(t)
		ops := p.Operations
		reordered := make([]plan.Operation, 0, len(ops))
		reordered = append(reordered, ops[len(ops)-1])
		reordered = append(reordered, ops[:len(ops)-1]...)
		p.Operations = reordered

		_, err := executor.Apply(context.Background(), p, nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if len(mock.Added)+len(mock.Removed) != 0 {
			t.Error("no operations should run against a misordered plan")
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		mock := &th.MockLibrary{}
		executor := NewExecutor(mock, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := executor.Apply(ctx, fixturePlan(t), nil)
		if !errors.Is(err, shared.ErrMigrationFailed) {
			t.Fatalf("expected ErrMigrationFailed, got %v", err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected the cancellation to be wrapped, got %v", err)
		}
		if len(result.Results) != 0 {
			t.Errorf("no operations should run under a cancelled context, got %d", len(result.Results))
		}
	})

	t.Run("Malformed Operation", func(t *testing.T) {
		mock := &th.MockLibrary{}
		executor := NewExecutor(mock, nil)

		p := &plan.MigrationPlan{Operations: []plan.Operation{{Kind: plan.OpAdd}}}

		result, err := executor.Apply(context.Background(), p, nil)
		if !errors.Is(err, shared.ErrMigrationFailed) {
			t.Fatalf("expected ErrMigrationFailed, got %v", err)
		}
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected the cause to be ErrInvalidInput, got %v", err)
		}
		if result.AddsApplied != 0 {
			t.Errorf("nothing should commit, got %d adds", result.AddsApplied)
		}
	})

	t.Run("Empty Plan", func(t *testing.T) {
		mock := &th.MockLibrary{}
		executor := NewExecutor(mock, nil)

		result, err := executor.Apply(context.Background(), &plan.MigrationPlan{}, nil)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if len(result.Results) != 0 || !result.Completed() {
			t.Errorf("expected an empty completed result, got %+v", result)
		}
	})
}
