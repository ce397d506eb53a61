package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rewatch/rewatch/internal/decode"
)

var probeCmd = &cobra.Command{
	Use:   "probe <video-file>",
	Short: "Print duration, size and frame rate of a recording chunk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		absPath, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve path: %w", err)
		}
		if info, err := os.Stat(absPath); err != nil {
			return fmt.Errorf("failed to access video file: %w", err)
		} else if info.IsDir() {
			return fmt.Errorf("path is a directory, not a video file: %s", absPath)
		}

		surface, err := decode.NewFFmpegSurface(decode.FFmpegOptions{
			FFmpegPath:  cfg.FFmpeg.FFmpegPath,
			FFprobePath: cfg.FFmpeg.FFprobePath,
		})
		if err != nil {
			return err
		}
		defer surface.Close()

		info, err := surface.Load(cmd.Context(), absPath)
		if err != nil {
			return err
		}

		fmt.Printf("File:       %s\n", filepath.Base(absPath))
		fmt.Printf("Duration:   %.3fs\n", info.Duration)
		if info.Width > 0 && info.Height > 0 {
			fmt.Printf("Size:       %dx%d\n", info.Width, info.Height)
		}
		if info.FrameRate > 0 {
			fmt.Printf("Frame rate: %.3f fps\n", info.FrameRate)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
