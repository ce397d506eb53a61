package align

import "sync"

// Offsets holds the audio/video offset pair for one recording selection: a
// base offset derived from capture metadata and a manual user correction.
// The aligner reads the combined value on every sync tick, so access is
// lock-protected; writes only happen on explicit user action or metadata
// reload.
type Offsets struct {
	mu     sync.RWMutex
	base   float64
	manual float64
}

// NewOffsets creates an offset pair with the given metadata-derived base.
func NewOffsets(base float64) *Offsets {
	return &Offsets{base: base}
}

// SetBaseOffset replaces the metadata-derived base offset.
func (o *Offsets) SetBaseOffset(seconds float64) {
	o.mu.Lock()
	o.base = seconds
	o.mu.Unlock()
}

// SetManualOffset replaces the user correction.
func (o *Offsets) SetManualOffset(seconds float64) {
	o.mu.Lock()
	o.manual = seconds
	o.mu.Unlock()
}

// ManualOffset returns the current user correction.
func (o *Offsets) ManualOffset() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.manual
}

// Combined returns base + manual, the offset applied to every mapping
// between the timeline and the secondary clock.
func (o *Offsets) Combined() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.base + o.manual
}
