package timeline

import (
	"math"
	"sort"
)

// The capture timeline and the video container measure time differently:
// frames are grabbed at a variable rate, so a frame's position in the
// container (its index divided by the frame count) and its position on the
// wall-clock timeline drift apart. Both mappings below therefore interpolate
// over the frame index, which is the only quantity shared by both domains.
//
// Both functions are total. With no samples they degrade to identity
// (clamped at zero), with a single sample they collapse to a point, and out
// of range inputs clamp to the nearest bound. Pages may call them before any
// metadata has loaded.

// VideoToTimeline converts a position in the video container's own clock to
// seconds on the capture timeline.
func VideoToTimeline(videoTime, videoDuration float64, frames []FrameSample) float64 {
	switch len(frames) {
	case 0:
		return math.Max(0, videoTime)
	case 1:
		return frames[0].SecondsFromStart
	}

	var frac float64
	if videoDuration > 0 {
		frac = videoTime / videoDuration
	}
	frac = clamp01(frac)

	pos := frac * float64(len(frames)-1)
	lower := int(math.Floor(pos))
	upper := lower + 1
	if upper > len(frames)-1 {
		upper = len(frames) - 1
	}

	lo := frames[lower].SecondsFromStart
	hi := frames[upper].SecondsFromStart
	return lo + (pos-float64(lower))*(hi-lo)
}

// TimelineToVideo converts seconds on the capture timeline back to a
// position in the video container's own clock. It is the inverse of
// VideoToTimeline: round-tripping a video time through both returns the
// original value up to floating point error.
func TimelineToVideo(timelineSeconds, videoDuration float64, frames []FrameSample) float64 {
	switch len(frames) {
	case 0:
		return math.Max(0, timelineSeconds)
	case 1:
		return 0
	}
	if videoDuration <= 0 {
		return math.Max(0, timelineSeconds)
	}

	n := len(frames)
	if timelineSeconds <= frames[0].SecondsFromStart {
		return 0
	}
	if timelineSeconds >= frames[n-1].SecondsFromStart {
		return videoDuration
	}

	// First sample at or past the target; the target lies in
	// (frames[idx-1], frames[idx]].
	idx := sort.Search(n, func(i int) bool {
		return frames[i].SecondsFromStart >= timelineSeconds
	})
	if frames[idx].SecondsFromStart == timelineSeconds {
		return float64(idx) / float64(n-1) * videoDuration
	}

	lower := idx - 1
	lo := frames[lower].SecondsFromStart
	hi := frames[idx].SecondsFromStart
	frac := 0.0
	if hi > lo {
		frac = (timelineSeconds - lo) / (hi - lo)
	}

	videoLo := float64(lower) / float64(n-1) * videoDuration
	videoHi := float64(idx) / float64(n-1) * videoDuration
	return videoLo + frac*(videoHi-videoLo)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
