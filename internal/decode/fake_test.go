package decode

import (
	"context"
	"sync"
)

// fakeSurface is an in-memory Surface for pipeline and lifecycle tests.
type fakeSurface struct {
	mu        sync.Mutex
	loadErr   error
	loadCount int
	info      MediaInfo
	position  float64
	seekErr   error
	captures  int
	captureFn func(ctx context.Context, pos float64) ([]byte, error)
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{info: MediaInfo{Duration: 100, Width: 1280, Height: 720}}
}

func (f *fakeSurface) Load(_ context.Context, path string) (MediaInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCount++
	if f.loadErr != nil {
		return MediaInfo{}, f.loadErr
	}
	f.position = 0
	return f.info, nil
}

func (f *fakeSurface) Duration() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.info.Duration
}

func (f *fakeSurface) Position() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

func (f *fakeSurface) Seek(_ context.Context, seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seekErr != nil {
		return f.seekErr
	}
	f.position = seconds
	return nil
}

func (f *fakeSurface) Capture(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	f.captures++
	pos := f.position
	fn := f.captureFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, pos)
	}
	return []byte("frame"), nil
}

func (f *fakeSurface) Close() error { return nil }

func (f *fakeSurface) captureCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.captures
}
