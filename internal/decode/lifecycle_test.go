package decode

import (
	"context"
	"errors"
	"testing"
	"time"
)

func awaitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestLifecycle_InitialState(t *testing.T) {
	life := NewLifecycle(newFakeSurface())

	if life.State() != StateUninitialized {
		t.Errorf("initial state = %v, want uninitialized", life.State())
	}
	if err := life.AwaitReady(awaitCtx(t)); !errors.Is(err, ErrNoSource) {
		t.Errorf("AwaitReady without source = %v, want ErrNoSource", err)
	}
}

func TestLifecycle_LoadToReady(t *testing.T) {
	life := NewLifecycle(newFakeSurface())

	life.SetSource("a.mp4")
	if err := life.AwaitReady(awaitCtx(t)); err != nil {
		t.Fatalf("AwaitReady: %v", err)
	}
	if life.State() != StateReady {
		t.Errorf("state = %v, want ready", life.State())
	}
	if life.Source() != "a.mp4" {
		t.Errorf("source = %q", life.Source())
	}
}

func TestLifecycle_LoadFailure(t *testing.T) {
	fs := newFakeSurface()
	loadErr := &SourceError{Path: "a.mp4", Detail: "moov atom not found", Err: errors.New("exit status 1")}
	fs.loadErr = loadErr
	life := NewLifecycle(fs)

	life.SetSource("a.mp4")
	err := life.AwaitReady(awaitCtx(t))
	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("AwaitReady = %v, want SourceError", err)
	}
	if life.State() != StateError {
		t.Errorf("state = %v, want error", life.State())
	}
	if life.LastError() == nil {
		t.Error("LastError should be set")
	}

	// Future waiters keep failing until the source changes.
	if err := life.AwaitReady(awaitCtx(t)); !errors.As(err, &srcErr) {
		t.Errorf("second AwaitReady = %v, want SourceError", err)
	}
}

func TestLifecycle_SamePathSkipsReset(t *testing.T) {
	fs := newFakeSurface()
	life := NewLifecycle(fs)

	resets := 0
	life.OnReset(func(error) { resets++ })

	life.SetSource("a.mp4")
	if err := life.AwaitReady(awaitCtx(t)); err != nil {
		t.Fatalf("AwaitReady: %v", err)
	}
	if resets != 1 {
		t.Fatalf("resets after first load = %d, want 1", resets)
	}

	// Reassigning the already-loaded path must not flush anything.
	life.SetSource("a.mp4")
	if resets != 1 {
		t.Errorf("resets after same-path reassign = %d, want 1", resets)
	}
	if life.State() != StateReady {
		t.Errorf("state = %v, want ready", life.State())
	}
	if fs.loadCount != 1 {
		t.Errorf("surface loaded %d times, want 1", fs.loadCount)
	}
}

func TestLifecycle_FailedPathReassignRetriesLoad(t *testing.T) {
	fs := newFakeSurface()
	life := NewLifecycle(fs)

	life.SetSource("a.mp4")
	if err := life.AwaitReady(awaitCtx(t)); err != nil {
		t.Fatalf("AwaitReady: %v", err)
	}

	fs.mu.Lock()
	fs.loadErr = errors.New("moov atom not found")
	fs.mu.Unlock()
	life.SetSource("b.mp4")
	if err := life.AwaitReady(awaitCtx(t)); err == nil {
		t.Fatal("load of b.mp4 should fail")
	}

	// The surface still holds a.mp4 from the earlier success. Reassigning
	// the failed path must retry the load, not report ready off the stale
	// source.
	life.SetSource("b.mp4")
	if err := life.AwaitReady(awaitCtx(t)); err == nil {
		t.Fatal("retry with the source still broken should fail")
	}
	if life.State() != StateError {
		t.Errorf("state = %v, want error", life.State())
	}

	fs.mu.Lock()
	fs.loadErr = nil
	fs.mu.Unlock()
	life.SetSource("b.mp4")
	if err := life.AwaitReady(awaitCtx(t)); err != nil {
		t.Fatalf("retry after repair: %v", err)
	}
	if life.State() != StateReady {
		t.Errorf("state = %v, want ready", life.State())
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.loadCount != 4 {
		t.Errorf("surface loaded %d times, want 4", fs.loadCount)
	}
}

func TestLifecycle_PathChangeRejectsWaiters(t *testing.T) {
	fs := newFakeSurface()
	life := NewLifecycle(fs)

	life.SetSource("a.mp4")
	if err := life.AwaitReady(awaitCtx(t)); err != nil {
		t.Fatalf("AwaitReady: %v", err)
	}

	var resetCause error
	life.OnReset(func(err error) { resetCause = err })

	life.SetSource("b.mp4")
	if !errors.Is(resetCause, ErrReset) {
		t.Errorf("reset cause = %v, want ErrReset", resetCause)
	}
	if err := life.AwaitReady(awaitCtx(t)); err != nil {
		t.Fatalf("AwaitReady after change: %v", err)
	}
	if life.Source() != "b.mp4" {
		t.Errorf("source = %q, want b.mp4", life.Source())
	}
}

func TestLifecycle_ClearSource(t *testing.T) {
	life := NewLifecycle(newFakeSurface())

	life.SetSource("a.mp4")
	if err := life.AwaitReady(awaitCtx(t)); err != nil {
		t.Fatalf("AwaitReady: %v", err)
	}

	life.SetSource("")
	if life.State() != StateUninitialized {
		t.Errorf("state after clear = %v, want uninitialized", life.State())
	}
	if err := life.AwaitReady(awaitCtx(t)); !errors.Is(err, ErrNoSource) {
		t.Errorf("AwaitReady after clear = %v, want ErrNoSource", err)
	}
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateUninitialized: "uninitialized",
		StateLoading:       "loading",
		StateReady:         "ready",
		StateError:         "error",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
