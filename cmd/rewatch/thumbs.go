package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rewatch/rewatch/internal/decode"
	"github.com/rewatch/rewatch/internal/metadata"
	"github.com/rewatch/rewatch/internal/timeline"
)

var (
	thumbsManifest string
	thumbsVideo    string
	thumbsOut      string
	thumbsFrames   string
	thumbsCount    int
	thumbsSize     int
)

var thumbsCmd = &cobra.Command{
	Use:   "thumbs",
	Short: "Extract frame thumbnails from a recording selection",
	Long: `Extract JPEG thumbnails for frames of a selection. Frames are decoded
through a serialized queue, so requests are served in order against the
single decode position.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := metadata.Load(thumbsManifest)
		if err != nil {
			return err
		}
		if len(m.Frames) == 0 {
			return fmt.Errorf("manifest has no frame samples")
		}

		videoPath := thumbsVideo
		if videoPath == "" {
			videoPath = m.Video.Path
		}
		if videoPath == "" {
			return fmt.Errorf("video path unknown: set video.path in the manifest or pass --video")
		}

		size := thumbsSize
		if size == 0 {
			size = cfg.Decode.ThumbnailSize
		}
		surface, err := decode.NewFFmpegSurface(decode.FFmpegOptions{
			FFmpegPath:  cfg.FFmpeg.FFmpegPath,
			FFprobePath: cfg.FFmpeg.FFprobePath,
			MaxSize:     size,
			Quality:     cfg.Decode.JPEGQuality,
		})
		if err != nil {
			return err
		}
		defer surface.Close()

		life := decode.NewLifecycle(surface)
		pipe := decode.NewPipeline(life, surface, decode.Config{
			SeekTolerance: cfg.Decode.SeekToleranceSeconds,
			DecodeTimeout: time.Duration(cfg.Decode.TimeoutSeconds * float64(time.Second)),
		})

		life.SetSource(videoPath)
		if err := life.AwaitReady(cmd.Context()); err != nil {
			return err
		}

		duration := m.Video.DurationSeconds
		if duration == 0 {
			duration = surface.Duration()
		}

		samples, err := selectSamples(m.Frames)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(thumbsOut, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		// Request everything up front; duplicate frame ids share one decode.
		tickets := make([]*decode.Ticket, len(samples))
		for i, sample := range samples {
			instant := timeline.TimelineToVideo(sample.SecondsFromStart, duration, m.Frames)
			tickets[i] = pipe.RequestFrame(sample.OffsetIndex, instant)
		}

		written := 0
		for i, ticket := range tickets {
			img, err := ticket.Wait(cmd.Context())
			if err != nil {
				fmt.Printf("✗ frame %d: %v\n", samples[i].OffsetIndex, err)
				continue
			}
			out := filepath.Join(thumbsOut, fmt.Sprintf("frame_%04d.jpg", samples[i].OffsetIndex))
			if err := os.WriteFile(out, img, 0644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			written++
		}

		fmt.Printf("✓ wrote %d/%d thumbnails to %s\n", written, len(samples), thumbsOut)
		return nil
	},
}

// selectSamples resolves the --frames / --count flags against the manifest's
// frame samples. With neither flag, every sample is selected.
func selectSamples(frames []timeline.FrameSample) ([]timeline.FrameSample, error) {
	if thumbsFrames != "" {
		byIndex := make(map[int]timeline.FrameSample, len(frames))
		for _, f := range frames {
			byIndex[f.OffsetIndex] = f
		}
		var out []timeline.FrameSample
		for _, field := range strings.Split(thumbsFrames, ",") {
			idx, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("invalid frame index %q", field)
			}
			sample, ok := byIndex[idx]
			if !ok {
				return nil, fmt.Errorf("frame index %d not in manifest", idx)
			}
			out = append(out, sample)
		}
		return out, nil
	}

	if thumbsCount == 1 {
		return frames[:1], nil
	}
	if thumbsCount > 1 && thumbsCount < len(frames) {
		out := make([]timeline.FrameSample, 0, thumbsCount)
		for i := 0; i < thumbsCount; i++ {
			out = append(out, frames[i*(len(frames)-1)/(thumbsCount-1)])
		}
		return out, nil
	}
	return frames, nil
}

func init() {
	thumbsCmd.Flags().StringVarP(&thumbsManifest, "manifest", "m", "", "Path to the selection manifest (required)")
	thumbsCmd.Flags().StringVar(&thumbsVideo, "video", "", "Video file (overrides the manifest's video.path)")
	thumbsCmd.Flags().StringVarP(&thumbsOut, "out", "o", "thumbs", "Output directory")
	thumbsCmd.Flags().StringVar(&thumbsFrames, "frames", "", "Comma-separated frame indexes to extract")
	thumbsCmd.Flags().IntVarP(&thumbsCount, "count", "n", 0, "Extract N evenly spaced frames")
	thumbsCmd.Flags().IntVar(&thumbsSize, "size", 0, "Max thumbnail dimension in pixels")
	thumbsCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(thumbsCmd)
}
