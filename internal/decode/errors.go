package decode

import (
	"errors"
	"fmt"
)

var (
	// ErrReset invalidates pending work when the decoding source changes.
	// It unblocks waiters cleanly and is not a real failure.
	ErrReset = errors.New("decode: pipeline reset by source change")

	// ErrNoSource is returned when decoding is attempted before any video
	// source has been assigned.
	ErrNoSource = errors.New("decode: no video source")
)

// SourceError reports that the decoding surface failed to load its source.
// It is fatal for the pipeline until the source is reassigned. Detail holds
// the tail of the decoder's own diagnostic output.
type SourceError struct {
	Path   string
	Detail string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("decode: source %q unavailable: %v: %s", e.Path, e.Err, e.Detail)
	}
	return fmt.Sprintf("decode: source %q unavailable: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SeekError reports that a single seek-and-rasterize operation failed. It
// rejects only the request it belongs to; the queue keeps going.
type SeekError struct {
	Instant float64
	Detail  string
	Err     error
}

func (e *SeekError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("decode: seeking to %.3fs: %v: %s", e.Instant, e.Err, e.Detail)
	}
	return fmt.Sprintf("decode: seeking to %.3fs: %v", e.Instant, e.Err)
}

func (e *SeekError) Unwrap() error { return e.Err }

// ExportError reports that a rasterized frame could not be exported as a
// still image. This is a configuration problem with the media file rather
// than a transient decode failure.
type ExportError struct {
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("decode: exporting frame image: %v (check that the media file is fully readable and not still being written)", e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
