// Package align keeps two independently controlled playback clocks in
// lockstep through the capture timeline. The primary clock (the screen
// recording) is authoritative during explicit seeks; the secondary clock
// (the audio track) is authoritative during steady playback, because
// continuous media report their position far more often and with less
// quantization. Corrections in the steady-playback direction are gated by a
// drift threshold so the two sides never end up correcting each other on
// every tick.
package align

import (
	"log"
	"math"
	"sync"

	"github.com/rewatch/rewatch/internal/timeline"
)

// DefaultDriftThreshold is the position discrepancy, in seconds, above which
// a steady-playback tick corrects the primary clock. Below it the clocks are
// considered in sync and left alone.
const DefaultDriftThreshold = 0.05

// boundarySlack is how close to 0 or to its duration the secondary clock
// must be to count as pinned at a boundary.
const boundarySlack = 0.05

// Media is one externally controlled playback clock. Implementations are
// expected to reject out-of-range assignments; the aligner treats every set
// operation as best-effort, since a missed single-tick correction self-heals
// on the next tick.
type Media interface {
	Position() (float64, error)
	SetPosition(seconds float64) error
	Duration() (float64, error)
	SetRate(rate float64) error
	Play() error
	Pause() error
}

// Config carries the per-selection alignment inputs. Frames and
// VideoDuration are an immutable snapshot; Offsets may be adjusted by the
// user while the aligner runs.
type Config struct {
	Frames         []timeline.FrameSample
	VideoDuration  float64
	Offsets        *Offsets
	DriftThreshold float64
}

// Aligner drives the secondary clock toward
// secondary = timeline(primary) + combined offset.
type Aligner struct {
	mu        sync.Mutex
	primary   Media
	secondary Media

	frames           []timeline.FrameSample
	videoDuration    float64
	timelineDuration float64
	offsets          *Offsets
	driftThreshold   float64

	// lastTimeline is the most recent valid timeline position. It keeps
	// reporting sane values while the secondary clock is pinned at one of
	// its boundaries by a clamped target.
	lastTimeline     float64
	secondaryClamped bool
}

// NewAligner creates an aligner for one primary/secondary clock pair.
func NewAligner(primary, secondary Media, cfg Config) *Aligner {
	if cfg.DriftThreshold == 0 {
		cfg.DriftThreshold = DefaultDriftThreshold
	}
	if cfg.Offsets == nil {
		cfg.Offsets = NewOffsets(0)
	}
	tlDuration, _ := timeline.Duration(cfg.Frames)
	return &Aligner{
		primary:          primary,
		secondary:        secondary,
		frames:           cfg.Frames,
		videoDuration:    cfg.VideoDuration,
		timelineDuration: tlDuration,
		offsets:          cfg.Offsets,
		driftThreshold:   cfg.DriftThreshold,
	}
}

// Offsets returns the live offset pair.
func (a *Aligner) Offsets() *Offsets {
	return a.offsets
}

// OnPrimaryPlay matches the secondary playback rate to the primary and
// starts it. The rate compensates for the container and the timeline not
// having the same length: over the primary's full duration the secondary
// must transit the full timeline duration.
func (a *Aligner) OnPrimaryPlay() {
	a.mu.Lock()
	defer a.mu.Unlock()

	rate := 1.0
	if a.videoDuration > 0 && a.timelineDuration > 0 {
		rate = a.timelineDuration / a.videoDuration
	}
	if err := a.secondary.SetRate(rate); err != nil {
		log.Printf("[ALIGN] set secondary rate %.4f: %v", rate, err)
	}
	if err := a.secondary.Play(); err != nil {
		log.Printf("[ALIGN] start secondary: %v", err)
	}
}

// OnPrimaryPause suspends the secondary clock. The displayed timeline
// position freezes at its last value.
func (a *Aligner) OnPrimaryPause() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.secondary.Pause(); err != nil {
		log.Printf("[ALIGN] pause secondary: %v", err)
	}
}

// OnPrimarySeeked hard-syncs the secondary clock to the primary's new
// position. Seeks are discrete user actions, so the correction applies
// immediately with no drift gating.
func (a *Aligner) OnPrimarySeeked() {
	a.mu.Lock()
	defer a.mu.Unlock()

	pos, err := a.primary.Position()
	if err != nil {
		log.Printf("[ALIGN] read primary position: %v", err)
		return
	}
	a.syncSecondaryLocked(pos)
}

// OnSecondaryTick processes a position report from the secondary clock
// during steady playback and returns the current timeline position. The
// secondary is the higher-resolution clock here: the primary is corrected
// from it, but only when the discrepancy exceeds the drift threshold.
func (a *Aligner) OnSecondaryTick() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	secPos, err := a.secondary.Position()
	if err != nil {
		return a.lastTimeline
	}

	// A clamped target pinned the secondary at a boundary; its position is
	// not a valid timeline reading until a later sync moves it back in
	// range.
	if a.secondaryClamped && a.pinnedAtBoundary(secPos) {
		return a.lastTimeline
	}
	a.secondaryClamped = false

	tl := secPos - a.offsets.Combined()
	a.lastTimeline = tl

	want := timeline.TimelineToVideo(tl, a.videoDuration, a.frames)
	got, err := a.primary.Position()
	if err != nil {
		return tl
	}
	if math.Abs(got-want) > a.driftThreshold {
		if err := a.primary.SetPosition(want); err != nil {
			log.Printf("[ALIGN] correct primary to %.3f: %v", want, err)
		}
	}
	return tl
}

// Restart rewinds both clocks to position zero of the timeline, not of each
// raw clock, and starts playback.
func (a *Aligner) Restart() {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := 0.0
	if len(a.frames) > 0 {
		start = a.frames[0].SecondsFromStart
	}

	videoPos := timeline.TimelineToVideo(start, a.videoDuration, a.frames)
	if err := a.primary.SetPosition(videoPos); err != nil {
		log.Printf("[ALIGN] rewind primary: %v", err)
	}
	a.applySecondaryTargetLocked(start)

	rate := 1.0
	if a.videoDuration > 0 && a.timelineDuration > 0 {
		rate = a.timelineDuration / a.videoDuration
	}
	if err := a.secondary.SetRate(rate); err != nil {
		log.Printf("[ALIGN] set secondary rate %.4f: %v", rate, err)
	}
	if err := a.primary.Play(); err != nil {
		log.Printf("[ALIGN] start primary: %v", err)
	}
	if err := a.secondary.Play(); err != nil {
		log.Printf("[ALIGN] start secondary: %v", err)
	}
}

// TimelinePosition returns the last valid timeline position.
func (a *Aligner) TimelinePosition() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastTimeline
}

func (a *Aligner) syncSecondaryLocked(videoPos float64) {
	tl := timeline.VideoToTimeline(videoPos, a.videoDuration, a.frames)
	a.applySecondaryTargetLocked(tl)
}

// applySecondaryTargetLocked moves the secondary clock to the given timeline
// position plus the combined offset, clamping into the secondary's own valid
// range and latching the clamped state for OnSecondaryTick.
func (a *Aligner) applySecondaryTargetLocked(tl float64) {
	a.lastTimeline = tl

	target := tl + a.offsets.Combined()
	clamped := target
	if clamped < 0 {
		clamped = 0
	}
	if dur, err := a.secondary.Duration(); err == nil && dur > 0 && clamped > dur {
		clamped = dur
	}
	a.secondaryClamped = clamped != target

	if err := a.secondary.SetPosition(clamped); err != nil {
		log.Printf("[ALIGN] sync secondary to %.3f: %v", clamped, err)
	}
}

func (a *Aligner) pinnedAtBoundary(secPos float64) bool {
	if secPos <= boundarySlack {
		return true
	}
	if dur, err := a.secondary.Duration(); err == nil && dur > 0 && secPos >= dur-boundarySlack {
		return true
	}
	return false
}
