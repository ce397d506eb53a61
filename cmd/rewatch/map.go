package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rewatch/rewatch/internal/metadata"
	"github.com/rewatch/rewatch/internal/timeline"
)

var (
	mapManifest  string
	mapDuration  float64
	mapVideoTime float64
	mapTimeline  float64
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Convert between video time and capture-timeline time",
	Long: `Convert a position in the video container to its position on the
capture timeline, or the reverse, using the frame samples of a manifest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := metadata.Load(mapManifest)
		if err != nil {
			return err
		}

		duration := mapDuration
		if duration == 0 {
			duration = m.Video.DurationSeconds
		}
		if duration <= 0 {
			return fmt.Errorf("video duration unknown: set video.duration_seconds in the manifest or pass --duration")
		}

		hasVideo := cmd.Flags().Changed("video-time")
		hasTimeline := cmd.Flags().Changed("timeline")
		switch {
		case hasVideo == hasTimeline:
			return fmt.Errorf("pass exactly one of --video-time or --timeline")
		case hasVideo:
			tl := timeline.VideoToTimeline(mapVideoTime, duration, m.Frames)
			fmt.Printf("%.6f\n", tl)
		default:
			vt := timeline.TimelineToVideo(mapTimeline, duration, m.Frames)
			fmt.Printf("%.6f\n", vt)
		}
		return nil
	},
}

func init() {
	mapCmd.Flags().StringVarP(&mapManifest, "manifest", "m", "", "Path to the selection manifest (required)")
	mapCmd.Flags().Float64Var(&mapDuration, "duration", 0, "Video duration in seconds (overrides the manifest)")
	mapCmd.Flags().Float64Var(&mapVideoTime, "video-time", 0, "Video position to convert to timeline seconds")
	mapCmd.Flags().Float64Var(&mapTimeline, "timeline", 0, "Timeline position to convert to video seconds")
	mapCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(mapCmd)
}
