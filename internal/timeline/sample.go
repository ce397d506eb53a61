package timeline

import "sort"

// FrameSample is one captured-frame record from the capture manifest: a dense
// frame ordinal, the wall-clock timestamp the frame was grabbed at (may be
// empty when the capture source did not record one), and its position on the
// capture timeline in seconds.
type FrameSample struct {
	OffsetIndex      int     `json:"offset_index"`
	Timestamp        string  `json:"timestamp"`
	SecondsFromStart float64 `json:"seconds_from_video_start"`
}

// Sort orders samples ascending by SecondsFromStart, keeping the original
// order of equal entries.
func Sort(frames []FrameSample) {
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].SecondsFromStart < frames[j].SecondsFromStart
	})
}

// Dedupe removes samples whose timestamp equals the previous sample's
// timestamp. Capture databases occasionally record the same grab twice;
// consecutive duplicates would produce zero-width brackets in the mapping.
func Dedupe(frames []FrameSample) []FrameSample {
	if len(frames) < 2 {
		return frames
	}
	out := frames[:1]
	for _, f := range frames[1:] {
		if f.Timestamp != "" && f.Timestamp == out[len(out)-1].Timestamp {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Duration returns the timeline duration, defined as the last sample's
// SecondsFromStart. The second return is false when there are no samples.
func Duration(frames []FrameSample) (float64, bool) {
	if len(frames) == 0 {
		return 0, false
	}
	return frames[len(frames)-1].SecondsFromStart, true
}
