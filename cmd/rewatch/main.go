package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rewatch/rewatch/internal/config"
)

var Version = "0.1.0"

var (
	cfgPath string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rewatch",
	Short: "Review screen recordings with aligned audio",
	Long: `rewatch replays screen-recording selections: a video chunk, the
separately captured audio track, and the per-frame timestamp samples that
tie them to a shared capture timeline.

Features:
  - Probe recording chunks for duration, size and frame rate
  - Convert between video time and capture-timeline time
  - Extract frame thumbnails through a serialized decode queue
  - Keep two mpv players (video and audio) in sync during playback`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rewatch version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to a TOML tuning file")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
