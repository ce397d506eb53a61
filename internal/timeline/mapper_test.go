package timeline

import (
	"math"
	"testing"
)

func sampleSet() []FrameSample {
	return []FrameSample{
		{OffsetIndex: 0, Timestamp: "t0", SecondsFromStart: 0},
		{OffsetIndex: 1, Timestamp: "t1", SecondsFromStart: 2},
		{OffsetIndex: 2, Timestamp: "t2", SecondsFromStart: 10},
	}
}

func irregularSet() []FrameSample {
	return []FrameSample{
		{OffsetIndex: 0, Timestamp: "a", SecondsFromStart: 0},
		{OffsetIndex: 1, Timestamp: "b", SecondsFromStart: 0.4},
		{OffsetIndex: 2, Timestamp: "c", SecondsFromStart: 0.5},
		{OffsetIndex: 3, Timestamp: "d", SecondsFromStart: 7.25},
		{OffsetIndex: 4, Timestamp: "e", SecondsFromStart: 7.3},
		{OffsetIndex: 5, Timestamp: "f", SecondsFromStart: 31.0},
	}
}

func TestVideoToTimeline_KnownPoints(t *testing.T) {
	frames := sampleSet()
	const d = 20.0

	// Halfway through the video is exactly the middle sample.
	if got := VideoToTimeline(10, d, frames); got != 2 {
		t.Errorf("VideoToTimeline(10) = %v, want 2", got)
	}
	if got := VideoToTimeline(0, d, frames); got != 0 {
		t.Errorf("VideoToTimeline(0) = %v, want 0", got)
	}
	if got := VideoToTimeline(20, d, frames); got != 10 {
		t.Errorf("VideoToTimeline(20) = %v, want 10", got)
	}
	// Quarter point interpolates within the first bracket.
	if got := VideoToTimeline(5, d, frames); got != 1 {
		t.Errorf("VideoToTimeline(5) = %v, want 1", got)
	}
}

func TestTimelineToVideo_KnownPoints(t *testing.T) {
	frames := sampleSet()
	const d = 20.0

	// 6s lies halfway between samples 1 (2s) and 2 (10s); their video-time
	// equivalents are 10 and 20.
	if got := TimelineToVideo(6, d, frames); got != 15 {
		t.Errorf("TimelineToVideo(6) = %v, want 15", got)
	}
	// Exact sample match resolves via its proportional index.
	if got := TimelineToVideo(2, d, frames); got != 10 {
		t.Errorf("TimelineToVideo(2) = %v, want 10", got)
	}
}

func TestTimelineToVideo_BoundaryClamp(t *testing.T) {
	frames := sampleSet()
	const d = 20.0

	for _, x := range []float64{-5, -0.001, 0} {
		if got := TimelineToVideo(x, d, frames); got != 0 {
			t.Errorf("TimelineToVideo(%v) = %v, want 0", x, got)
		}
	}
	for _, x := range []float64{10, 10.5, 999} {
		if got := TimelineToVideo(x, d, frames); got != d {
			t.Errorf("TimelineToVideo(%v) = %v, want %v", x, got, d)
		}
	}
}

func TestMapping_RoundTrip(t *testing.T) {
	const d = 20.0
	for _, frames := range [][]FrameSample{sampleSet(), irregularSet()} {
		for i := 0; i <= 200; i++ {
			vt := d * float64(i) / 200
			tl := VideoToTimeline(vt, d, frames)
			back := TimelineToVideo(tl, d, frames)
			if math.Abs(back-vt) > 1e-6*d {
				t.Fatalf("round trip: %v -> %v -> %v (frames=%d)", vt, tl, back, len(frames))
			}
		}
	}
}

func TestMapping_Monotonic(t *testing.T) {
	frames := irregularSet()
	const d = 17.5

	prevTL := math.Inf(-1)
	prevVT := math.Inf(-1)
	for i := 0; i <= 500; i++ {
		vt := d * float64(i) / 500
		tl := VideoToTimeline(vt, d, frames)
		if tl < prevTL {
			t.Fatalf("VideoToTimeline not monotonic at %v: %v < %v", vt, tl, prevTL)
		}
		prevTL = tl

		ts := 31.0 * float64(i) / 500
		back := TimelineToVideo(ts, d, frames)
		if back < prevVT {
			t.Fatalf("TimelineToVideo not monotonic at %v: %v < %v", ts, back, prevVT)
		}
		prevVT = back
	}
}

func TestMapping_Degenerate(t *testing.T) {
	// No samples: identity, clamped at zero.
	if got := VideoToTimeline(3.5, 10, nil); got != 3.5 {
		t.Errorf("empty VideoToTimeline = %v, want 3.5", got)
	}
	if got := VideoToTimeline(-2, 10, nil); got != 0 {
		t.Errorf("empty VideoToTimeline(-2) = %v, want 0", got)
	}
	if got := TimelineToVideo(3.5, 10, nil); got != 3.5 {
		t.Errorf("empty TimelineToVideo = %v, want 3.5", got)
	}
	if got := TimelineToVideo(-1, 10, nil); got != 0 {
		t.Errorf("empty TimelineToVideo(-1) = %v, want 0", got)
	}

	// Single sample: both collapse to a constant.
	one := []FrameSample{{OffsetIndex: 0, Timestamp: "t", SecondsFromStart: 4.2}}
	for _, vt := range []float64{0, 1, 100} {
		if got := VideoToTimeline(vt, 10, one); got != 4.2 {
			t.Errorf("singleton VideoToTimeline(%v) = %v, want 4.2", vt, got)
		}
		if got := TimelineToVideo(vt, 10, one); got != 0 {
			t.Errorf("singleton TimelineToVideo(%v) = %v, want 0", vt, got)
		}
	}

	// Unknown duration never panics and stays non-negative.
	if got := VideoToTimeline(5, 0, sampleSet()); got != 0 {
		t.Errorf("zero-duration VideoToTimeline = %v, want 0", got)
	}
	if got := TimelineToVideo(5, 0, sampleSet()); got != 5 {
		t.Errorf("zero-duration TimelineToVideo = %v, want 5", got)
	}

	// Out-of-range video times clamp to the timeline bounds.
	if got := VideoToTimeline(-3, 20, sampleSet()); got != 0 {
		t.Errorf("VideoToTimeline(-3) = %v, want 0", got)
	}
	if got := VideoToTimeline(25, 20, sampleSet()); got != 10 {
		t.Errorf("VideoToTimeline(25) = %v, want 10", got)
	}
}
