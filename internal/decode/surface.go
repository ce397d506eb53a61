package decode

import "context"

// MediaInfo describes a loaded video source.
type MediaInfo struct {
	Duration  float64
	Width     int
	Height    int
	FrameRate float64
}

// Surface is the single exclusive decoding resource: one video decode
// source with one mutable position and one rendered frame. Only the
// pipeline may move its position or read back its pixels; concurrent use
// from more than one decode operation would corrupt results, which is why
// the pipeline serializes all access.
type Surface interface {
	// Load probes the source at path and prepares it for decoding. On
	// failure the surface keeps whatever source it held before, so a
	// failed load must not be taken as evidence about the new path.
	Load(ctx context.Context, path string) (MediaInfo, error)
	// Duration returns the loaded source's duration, 0 when unknown.
	Duration() float64
	// Position returns the surface's current decode position.
	Position() float64
	// Seek moves the decode position.
	Seek(ctx context.Context, seconds float64) error
	// Capture rasterizes the frame at the current position into a
	// compressed still image.
	Capture(ctx context.Context) ([]byte, error)
	// Close releases resources held by the surface.
	Close() error
}
