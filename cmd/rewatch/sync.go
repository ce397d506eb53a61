package main

import (
	"fmt"
	"math"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rewatch/rewatch/internal/align"
	"github.com/rewatch/rewatch/internal/clock"
	"github.com/rewatch/rewatch/internal/metadata"
)

// seekJumpThreshold is how far the video position must move between two
// ticks, beyond normal playback advance, to count as a user seek.
const seekJumpThreshold = 1.0

var (
	syncManifest     string
	syncVideoSocket  string
	syncAudioSocket  string
	syncManualOffset float64
	syncDuration     float64
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Keep a video and an audio mpv player aligned",
	Long: `Keep two running mpv instances aligned through the capture timeline
of a selection. Start both players with --input-ipc-server sockets, e.g.

  mpv --input-ipc-server=/tmp/rewatch-video.sock --pause chunk.mp4
  mpv --input-ipc-server=/tmp/rewatch-audio.sock --pause track.mp4

then run 'rewatch sync' against the same sockets. Video seeks hard-sync the
audio; during playback the audio clock is authoritative and the video is
nudged only when it drifts past the threshold.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := metadata.Load(syncManifest)
		if err != nil {
			return err
		}
		if len(m.Frames) == 0 {
			return fmt.Errorf("manifest has no frame samples")
		}

		if syncVideoSocket == "" {
			syncVideoSocket = cfg.Sync.VideoSocket
		}
		if syncAudioSocket == "" {
			syncAudioSocket = cfg.Sync.AudioSocket
		}

		video := clock.NewMPV(syncVideoSocket)
		if err := video.ConnectWithRetry(5 * time.Second); err != nil {
			return fmt.Errorf("connecting to video player: %w\n(Is mpv running with --input-ipc-server=%s?)", err, syncVideoSocket)
		}
		defer video.Close()

		audio := clock.NewMPV(syncAudioSocket)
		if err := audio.ConnectWithRetry(5 * time.Second); err != nil {
			return fmt.Errorf("connecting to audio player: %w\n(Is mpv running with --input-ipc-server=%s?)", err, syncAudioSocket)
		}
		defer audio.Close()

		duration := syncDuration
		if duration == 0 {
			duration = m.Video.DurationSeconds
		}
		if duration == 0 {
			if duration, err = video.Duration(); err != nil {
				return fmt.Errorf("reading video duration: %w", err)
			}
		}

		offsets := align.NewOffsets(m.BaseOffset())
		offsets.SetManualOffset(syncManualOffset)

		aligner := align.NewAligner(video, audio, align.Config{
			Frames:         m.Frames,
			VideoDuration:  duration,
			Offsets:        offsets,
			DriftThreshold: cfg.Sync.DriftThresholdSeconds,
		})

		fmt.Printf("Syncing %s and %s (base offset %.3fs, manual %.3fs)\n",
			syncVideoSocket, syncAudioSocket, m.BaseOffset(), syncManualOffset)
		fmt.Println("Press Ctrl-C to stop.")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Establish the initial lock from wherever the video currently is.
		aligner.OnPrimarySeeked()
		if paused, err := video.Paused(); err == nil && !paused {
			aligner.OnPrimaryPlay()
		}

		interval := time.Duration(cfg.Sync.TickIntervalMillis) * time.Millisecond
		if interval <= 0 {
			interval = 100 * time.Millisecond
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		paused := true
		if p, err := video.Paused(); err == nil {
			paused = p
		}
		lastVideoPos := math.NaN()

		for {
			select {
			case <-ctx.Done():
				fmt.Println("\nStopped.")
				return nil
			case <-ticker.C:
			}

			if p, err := video.Paused(); err == nil && p != paused {
				paused = p
				if paused {
					aligner.OnPrimaryPause()
				} else {
					aligner.OnPrimaryPlay()
				}
			}

			pos, err := video.Position()
			if err != nil {
				continue
			}

			// A jump larger than playback could produce means the user
			// seeked the video; resync the audio immediately.
			if !math.IsNaN(lastVideoPos) && math.Abs(pos-lastVideoPos) > seekJumpThreshold {
				aligner.OnPrimarySeeked()
			} else if !paused {
				tl := aligner.OnSecondaryTick()
				fmt.Printf("\rtimeline %8.3fs  video %8.3fs", tl, pos)
			}
			lastVideoPos = pos
		}
	},
}

func init() {
	syncCmd.Flags().StringVarP(&syncManifest, "manifest", "m", "", "Path to the selection manifest (required)")
	syncCmd.Flags().StringVar(&syncVideoSocket, "video-socket", "", "mpv IPC socket of the video player")
	syncCmd.Flags().StringVar(&syncAudioSocket, "audio-socket", "", "mpv IPC socket of the audio player")
	syncCmd.Flags().Float64Var(&syncManualOffset, "offset", 0, "Manual audio offset in seconds, added to the manifest's base offset")
	syncCmd.Flags().Float64Var(&syncDuration, "duration", 0, "Video duration in seconds (overrides manifest and player)")
	syncCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(syncCmd)
}
