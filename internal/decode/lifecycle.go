package decode

import (
	"context"
	"log"
	"sync"
	"time"
)

// State is the decoding surface's readiness.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// loadTimeout bounds a single source probe.
const loadTimeout = 30 * time.Second

// Lifecycle owns the decoding surface's readiness state. Transitions are
// driven only by the surface's own load/error outcomes and by source path
// changes; consumers observe state, await readiness, and subscribe to reset
// and ready notifications.
type Lifecycle struct {
	mu      sync.Mutex
	surface Surface
	state   State
	source  string
	lastErr error
	waiters []chan error
	onReset []func(error)
	onReady []func()
	loadSeq int
}

// NewLifecycle creates a lifecycle around a surface. The initial state is
// StateUninitialized until a source is assigned.
func NewLifecycle(surface Surface) *Lifecycle {
	return &Lifecycle{surface: surface}
}

// OnReset registers a callback fired whenever pending work must be
// invalidated: a source path change (cause ErrReset) or a load failure
// (cause describes the failure).
func (l *Lifecycle) OnReset(fn func(error)) {
	l.mu.Lock()
	l.onReset = append(l.onReset, fn)
	l.mu.Unlock()
}

// OnReady registers a callback fired on each transition into StateReady.
func (l *Lifecycle) OnReady(fn func()) {
	l.mu.Lock()
	l.onReady = append(l.onReady, fn)
	l.mu.Unlock()
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// LastError returns the failure that put the lifecycle into StateError.
func (l *Lifecycle) LastError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// Source returns the current source path.
func (l *Lifecycle) Source() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.source
}

// SetSource assigns the decoding source. An empty path clears the surface.
// Reassigning a path that is ready or loading is a no-op, so decoded
// thumbnails survive incidental reconfiguration; any other assignment,
// including a retry of a path whose load failed, flushes pending work and
// loads the source in the background.
func (l *Lifecycle) SetSource(path string) {
	if path == "" {
		l.clear()
		return
	}

	l.mu.Lock()
	if path == l.source {
		switch l.state {
		case StateReady:
			// Only StateReady proves the surface holds this source; the
			// surface keeps its previous source when a later load fails.
			l.mu.Unlock()
			return
		case StateLoading:
			// Load already underway for this path.
			l.mu.Unlock()
			return
		}
		// StateError: fall through and retry the load.
	}

	l.source = path
	l.state = StateLoading
	l.lastErr = nil
	l.loadSeq++
	seq := l.loadSeq
	waiters := l.takeWaitersLocked()
	resets := append([]func(error){}, l.onReset...)
	l.mu.Unlock()

	for _, ch := range waiters {
		ch <- ErrReset
	}
	for _, fn := range resets {
		fn(ErrReset)
	}

	go l.load(seq, path)
}

func (l *Lifecycle) load(seq int, path string) {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	info, err := l.surface.Load(ctx, path)

	l.mu.Lock()
	if seq != l.loadSeq || path != l.source {
		// Superseded by another source change while probing.
		l.mu.Unlock()
		return
	}

	if err != nil {
		l.state = StateError
		l.lastErr = err
		waiters := l.takeWaitersLocked()
		resets := append([]func(error){}, l.onReset...)
		l.mu.Unlock()

		log.Printf("[DECODE] source load failed: %v", err)
		for _, ch := range waiters {
			ch <- err
		}
		for _, fn := range resets {
			fn(err)
		}
		return
	}

	l.state = StateReady
	waiters := l.takeWaitersLocked()
	ready := append([]func(){}, l.onReady...)
	l.mu.Unlock()

	log.Printf("[DECODE] source ready: %s (%.2fs, %dx%d)", path, info.Duration, info.Width, info.Height)
	for _, ch := range waiters {
		ch <- nil
	}
	for _, fn := range ready {
		fn()
	}
}

func (l *Lifecycle) clear() {
	l.mu.Lock()
	l.source = ""
	l.state = StateUninitialized
	l.lastErr = nil
	l.loadSeq++
	waiters := l.takeWaitersLocked()
	resets := append([]func(error){}, l.onReset...)
	l.mu.Unlock()

	for _, ch := range waiters {
		ch <- ErrReset
	}
	for _, fn := range resets {
		fn(ErrReset)
	}
}

// AwaitReady blocks until the surface is ready, the lifecycle fails or
// resets, or ctx is cancelled. With no source assigned it fails fast.
func (l *Lifecycle) AwaitReady(ctx context.Context) error {
	l.mu.Lock()
	switch l.state {
	case StateReady:
		l.mu.Unlock()
		return nil
	case StateError:
		err := l.lastErr
		l.mu.Unlock()
		return err
	case StateUninitialized:
		l.mu.Unlock()
		return ErrNoSource
	}

	ch := make(chan error, 1)
	l.waiters = append(l.waiters, ch)
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-ch:
		return err
	}
}

func (l *Lifecycle) takeWaitersLocked() []chan error {
	waiters := l.waiters
	l.waiters = nil
	return waiters
}
