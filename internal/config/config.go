// Package config loads the optional TOML tuning file for the rewatch CLI.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	FFmpeg FFmpeg `toml:"ffmpeg"`
	Decode Decode `toml:"decode"`
	Sync   Sync   `toml:"sync"`
}

type FFmpeg struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
}

type Decode struct {
	SeekToleranceSeconds float64 `toml:"seek_tolerance_seconds"`
	TimeoutSeconds       float64 `toml:"timeout_seconds"`
	ThumbnailSize        int     `toml:"thumbnail_size"`
	JPEGQuality          int     `toml:"jpeg_quality"`
}

type Sync struct {
	DriftThresholdSeconds float64 `toml:"drift_threshold_seconds"`
	TickIntervalMillis    int     `toml:"tick_interval_ms"`
	VideoSocket           string  `toml:"video_socket"`
	AudioSocket           string  `toml:"audio_socket"`
}

// Default returns the built-in tuning values.
func Default() Config {
	return Config{
		Decode: Decode{
			SeekToleranceSeconds: 0.01,
			TimeoutSeconds:       10,
			ThumbnailSize:        512,
			JPEGQuality:          85,
		},
		Sync: Sync{
			DriftThresholdSeconds: 0.05,
			TickIntervalMillis:    100,
			VideoSocket:           "/tmp/rewatch-video.sock",
			AudioSocket:           "/tmp/rewatch-audio.sock",
		},
	}
}

// Load reads a TOML tuning file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
