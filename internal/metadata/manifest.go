package metadata

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rewatch/rewatch/internal/timeline"
)

// Manifest is the alignment payload produced by the capture tooling for one
// recording selection: the video chunk, the separately captured audio track,
// their relative timing, and the per-frame timestamp samples. It is treated
// as an immutable snapshot for the lifetime of the selection.
type Manifest struct {
	Video     VideoMeta              `json:"video"`
	Audio     *AudioMeta             `json:"audio,omitempty"`
	Alignment *AlignmentMeta         `json:"alignment,omitempty"`
	Frames    []timeline.FrameSample `json:"frames"`
}

type VideoMeta struct {
	Path            string  `json:"path"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	FrameCount      int     `json:"frame_count"`
	FirstTimestamp  string  `json:"first_timestamp,omitempty"`
	LastTimestamp   string  `json:"last_timestamp,omitempty"`
}

type AudioMeta struct {
	Path            string  `json:"path"`
	SessionID       *string `json:"session_id"`
	StartTimestamp  string  `json:"start_timestamp,omitempty"`
	EndTimestamp    string  `json:"end_timestamp,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

type AlignmentMeta struct {
	OriginTimestamp      string  `json:"origin_timestamp,omitempty"`
	TimelineEndTimestamp string  `json:"timeline_end_timestamp,omitempty"`
	AudioOffsetSeconds   float64 `json:"audio_offset_seconds"`
	AudioLeadSeconds     float64 `json:"audio_lead_seconds"`
	AudioDelaySeconds    float64 `json:"audio_delay_seconds"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes a manifest, sorts its frame samples by timeline position and
// drops consecutive duplicate timestamps. The mapping functions require both.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	timeline.Sort(m.Frames)
	m.Frames = timeline.Dedupe(m.Frames)

	for _, f := range m.Frames {
		if f.SecondsFromStart < 0 {
			return nil, fmt.Errorf("parsing manifest: frame %d has negative timeline position %v",
				f.OffsetIndex, f.SecondsFromStart)
		}
	}
	return &m, nil
}

// BaseOffset returns the signed audio/video base offset in seconds. The
// lead/delay fields in the manifest are the non-negative split of this same
// value, so only the signed form is consulted.
func (m *Manifest) BaseOffset() float64 {
	if m.Alignment == nil {
		return 0
	}
	return m.Alignment.AudioOffsetSeconds
}

// TimelineDuration returns the duration of the capture timeline, false when
// the manifest has no frame samples.
func (m *Manifest) TimelineDuration() (float64, bool) {
	return timeline.Duration(m.Frames)
}
