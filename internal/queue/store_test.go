package queue

import (
	"context"
	"path/filepath"
	"testing"

	"av1ify/internal/operation"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func addFile(t *testing.T, store *Store, path string) *Item {
	t.Helper()
	item, err := store.Add(context.Background(), path, false, operation.AnalyzeConvert, OutputSuffix, "_av1")
	if err != nil {
		t.Fatalf("Add(%s): %v", path, err)
	}
	return item
}

func TestAddAssignsPositionsInOrder(t *testing.T) {
	store := openTestStore(t)
	a := addFile(t, store, "/media/a.mkv")
	b := addFile(t, store, "/media/b.mkv")
	c := addFile(t, store, "/media/c.mkv")

	if a.Position != 1 || b.Position != 2 || c.Position != 3 {
		t.Fatalf("positions = %d,%d,%d", a.Position, b.Position, c.Position)
	}
	if a.Status != StatusPending {
		t.Fatalf("new item status = %s", a.Status)
	}
	if a.UUID == "" || a.UUID == b.UUID {
		t.Fatal("items missing distinct correlation ids")
	}
}

func TestAddRejectsBadEnums(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Add(context.Background(), "/a.mkv", false, operation.Choice("nope"), OutputSuffix, "_av1"); err == nil {
		t.Fatal("expected error for unknown operation")
	}
	if _, err := store.Add(context.Background(), "/a.mkv", false, operation.Convert, OutputMode("sideways"), ""); err == nil {
		t.Fatal("expected error for unknown output mode")
	}
}

func TestRoundTripFolderItem(t *testing.T) {
	store := openTestStore(t)
	item, err := store.Add(context.Background(), "/media/shows", true, operation.Convert, OutputSeparateFolder, "/mnt/av1")
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsFolder || got.OutputMode != OutputSeparateFolder || got.OutputParam != "/mnt/av1" {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if got.Operation != operation.Convert {
		t.Fatalf("operation = %s", got.Operation)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	store := openTestStore(t)
	got, err := store.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing item, got %+v", got)
	}
}

func TestListOrdersByPosition(t *testing.T) {
	store := openTestStore(t)
	addFile(t, store, "/media/a.mkv")
	b := addFile(t, store, "/media/b.mkv")
	addFile(t, store, "/media/c.mkv")

	if err := store.Move(context.Background(), b.ID, 1); err != nil {
		t.Fatalf("Move: %v", err)
	}

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d", len(items))
	}
	want := []string{"/media/b.mkv", "/media/a.mkv", "/media/c.mkv"}
	for i, item := range items {
		if item.SourcePath != want[i] {
			t.Fatalf("order = %v", []string{items[0].SourcePath, items[1].SourcePath, items[2].SourcePath})
		}
		if item.Position != i+1 {
			t.Fatalf("position gap after move: %+v", item)
		}
	}
}

func TestMoveDown(t *testing.T) {
	store := openTestStore(t)
	a := addFile(t, store, "/media/a.mkv")
	addFile(t, store, "/media/b.mkv")
	addFile(t, store, "/media/c.mkv")

	if err := store.Move(context.Background(), a.ID, 3); err != nil {
		t.Fatal(err)
	}

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if items[2].SourcePath != "/media/a.mkv" || items[0].SourcePath != "/media/b.mkv" {
		t.Fatalf("unexpected order after move down: %s, %s, %s",
			items[0].SourcePath, items[1].SourcePath, items[2].SourcePath)
	}
}

func TestTransitionLifecycle(t *testing.T) {
	store := openTestStore(t)
	item := addFile(t, store, "/media/a.mkv")

	running, err := store.Transition(context.Background(), item.ID, StatusRunning, "")
	if err != nil {
		t.Fatalf("pending -> running: %v", err)
	}
	if running.Status != StatusRunning {
		t.Fatalf("status = %s", running.Status)
	}

	done, err := store.Transition(context.Background(), item.ID, StatusDone, "")
	if err != nil {
		t.Fatalf("running -> done: %v", err)
	}
	if done.Status != StatusDone {
		t.Fatalf("status = %s", done.Status)
	}

	if _, err := store.Transition(context.Background(), item.ID, StatusRunning, ""); err == nil {
		t.Fatal("terminal item left done state")
	}
}

func TestTransitionRecordsErrorMessage(t *testing.T) {
	store := openTestStore(t)
	item := addFile(t, store, "/media/a.mkv")

	if _, err := store.Transition(context.Background(), item.ID, StatusRunning, ""); err != nil {
		t.Fatal(err)
	}
	failed, err := store.Transition(context.Background(), item.ID, StatusError, "encoder exited 1")
	if err != nil {
		t.Fatal(err)
	}
	if failed.ErrorMessage != "encoder exited 1" {
		t.Fatalf("error message = %q", failed.ErrorMessage)
	}
}

func TestTransitionRejectsPendingToTerminal(t *testing.T) {
	store := openTestStore(t)
	item := addFile(t, store, "/media/a.mkv")
	for _, to := range []Status{StatusDone, StatusSkipped, StatusError} {
		if _, err := store.Transition(context.Background(), item.ID, to, ""); err == nil {
			t.Fatalf("pending -> %s allowed", to)
		}
	}
}

func TestSetOperationOnlyWhilePending(t *testing.T) {
	store := openTestStore(t)
	item := addFile(t, store, "/media/a.mkv")

	updated, err := store.SetOperation(context.Background(), item.ID, operation.AnalyzeOnly)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Operation != operation.AnalyzeOnly {
		t.Fatalf("operation = %s", updated.Operation)
	}

	if _, err := store.Transition(context.Background(), item.ID, StatusRunning, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SetOperation(context.Background(), item.ID, operation.Convert); err == nil {
		t.Fatal("running item accepted operation change")
	}
}

func TestNextPendingSkipsTerminalItems(t *testing.T) {
	store := openTestStore(t)
	a := addFile(t, store, "/media/a.mkv")
	b := addFile(t, store, "/media/b.mkv")

	if _, err := store.Transition(context.Background(), a.ID, StatusRunning, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Transition(context.Background(), a.ID, StatusDone, ""); err != nil {
		t.Fatal(err)
	}

	next, err := store.NextPending(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if next == nil || next.ID != b.ID {
		t.Fatalf("next pending = %+v, want item %d", next, b.ID)
	}
}

func TestNextPendingEmptyQueue(t *testing.T) {
	store := openTestStore(t)
	next, err := store.NextPending(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if next != nil {
		t.Fatalf("expected nil, got %+v", next)
	}
}

func TestClearFinishedKeepsPending(t *testing.T) {
	store := openTestStore(t)
	a := addFile(t, store, "/media/a.mkv")
	addFile(t, store, "/media/b.mkv")

	if _, err := store.Transition(context.Background(), a.ID, StatusRunning, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Transition(context.Background(), a.ID, StatusSkipped, ""); err != nil {
		t.Fatal(err)
	}

	removed, err := store.ClearFinished(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	items, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].SourcePath != "/media/b.mkv" {
		t.Fatalf("pending item lost: %+v", items)
	}
}

func TestResetInterrupted(t *testing.T) {
	store := openTestStore(t)
	a := addFile(t, store, "/media/a.mkv")
	if _, err := store.Transition(context.Background(), a.ID, StatusRunning, ""); err != nil {
		t.Fatal(err)
	}

	reset, err := store.ResetInterrupted(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if reset != 1 {
		t.Fatalf("reset = %d, want 1", reset)
	}

	got, err := store.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusPending {
		t.Fatalf("status = %s, want pending", got.Status)
	}
	if got.ErrorMessage != InterruptedMessage {
		t.Fatalf("error message = %q", got.ErrorMessage)
	}
}

func TestSchemaSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	item, err := store.Add(context.Background(), "/media/a.mkv", false, operation.Convert, OutputReplace, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.SourcePath != "/media/a.mkv" {
		t.Fatalf("item lost across reopen: %+v", got)
	}
}

func TestCanTransitionTable(t *testing.T) {
	if !CanTransition(StatusPending, StatusRunning) {
		t.Fatal("pending -> running must be allowed")
	}
	if !CanTransition(StatusRunning, StatusPending) {
		t.Fatal("running -> pending (graceful stop) must be allowed")
	}
	for _, terminal := range []Status{StatusDone, StatusSkipped, StatusError} {
		if !CanTransition(StatusRunning, terminal) {
			t.Fatalf("running -> %s must be allowed", terminal)
		}
		if CanTransition(terminal, StatusRunning) {
			t.Fatalf("%s -> running must be rejected", terminal)
		}
	}
}
