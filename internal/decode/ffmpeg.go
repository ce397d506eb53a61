package decode

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// renderTolerance is how close the last rendered frame's position must be to
// the current position for Capture to reuse it instead of re-extracting.
const renderTolerance = 0.01

// FFmpegOptions configures an FFmpegSurface. Zero values select defaults:
// binaries resolved from PATH, native frame size, JPEG quality 85.
type FFmpegOptions struct {
	FFmpegPath  string
	FFprobePath string
	MaxSize     int
	Quality     int
}

// FFmpegSurface rasterizes video instants by running ffmpeg for single-frame
// extraction. It holds one decode position and one rendered frame; callers
// must serialize access (the pipeline does).
type FFmpegSurface struct {
	ffmpegPath  string
	ffprobePath string
	tempDir     string
	maxSize     int
	quality     int

	mu         sync.Mutex
	path       string
	info       MediaInfo
	loaded     bool
	position   float64
	rendered   []byte
	renderedAt float64
	hasRender  bool
}

// NewFFmpegSurface locates the ffmpeg/ffprobe binaries and prepares a temp
// working directory.
func NewFFmpegSurface(opts FFmpegOptions) (*FFmpegSurface, error) {
	ffmpegPath := opts.FFmpegPath
	if ffmpegPath == "" {
		var err error
		ffmpegPath, err = exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
		}
	}
	ffprobePath := opts.FFprobePath
	if ffprobePath == "" {
		// Optional; duration probing falls back to parsing ffmpeg output.
		ffprobePath, _ = exec.LookPath("ffprobe")
	}

	tempDir, err := os.MkdirTemp("", "rewatch-frames-")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}

	quality := opts.Quality
	if quality == 0 {
		quality = 85
	}

	return &FFmpegSurface{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		tempDir:     tempDir,
		maxSize:     opts.MaxSize,
		quality:     quality,
	}, nil
}

// Load probes the source and resets the surface position to zero.
func (s *FFmpegSurface) Load(ctx context.Context, path string) (MediaInfo, error) {
	if path == "" {
		return MediaInfo{}, ErrNoSource
	}
	if _, err := os.Stat(path); err != nil {
		return MediaInfo{}, &SourceError{Path: path, Err: err}
	}

	info, err := s.probe(ctx, path)
	if err != nil {
		return MediaInfo{}, err
	}

	s.mu.Lock()
	s.path = path
	s.info = info
	s.loaded = true
	s.position = 0
	s.rendered = nil
	s.hasRender = false
	s.mu.Unlock()

	log.Printf("[DECODE] probed %s: %.2fs %dx%d @ %.2ffps", path, info.Duration, info.Width, info.Height, info.FrameRate)
	return info, nil
}

func (s *FFmpegSurface) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info.Duration
}

func (s *FFmpegSurface) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Seek moves the decode position. The actual extraction happens in Capture.
func (s *FFmpegSurface) Seek(_ context.Context, seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNoSource
	}
	if seconds < 0 {
		seconds = 0
	}
	s.position = seconds
	return nil
}

// Capture extracts the frame at the current position as a JPEG. A render at
// (effectively) the same position is reused.
func (s *FFmpegSurface) Capture(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil, ErrNoSource
	}
	path := s.path
	pos := s.position
	if s.hasRender && math.Abs(s.renderedAt-pos) <= renderTolerance {
		img := s.rendered
		s.mu.Unlock()
		return img, nil
	}
	s.mu.Unlock()

	img, err := s.extract(ctx, path, pos)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.rendered = img
	s.renderedAt = pos
	s.hasRender = true
	s.mu.Unlock()
	return img, nil
}

// Close removes the temp working directory.
func (s *FFmpegSurface) Close() error {
	return os.RemoveAll(s.tempDir)
}

func (s *FFmpegSurface) extract(ctx context.Context, path string, instant float64) ([]byte, error) {
	tempFile := filepath.Join(s.tempDir, fmt.Sprintf("frame_%.3f.jpg", instant))
	defer os.Remove(tempFile)

	args := []string{
		"-hide_banner",
		"-ss", fmt.Sprintf("%.3f", instant),
		"-i", path,
		"-vframes", "1",
	}
	if s.maxSize > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", s.maxSize, s.maxSize))
	}
	args = append(args, "-q:v", "2", "-f", "mjpeg", "-y", tempFile)

	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &SeekError{Instant: instant, Detail: stderrTail(stderr.String()), Err: err}
	}

	file, err := os.Open(tempFile)
	if err != nil {
		return nil, &SeekError{Instant: instant, Detail: stderrTail(stderr.String()), Err: err}
	}
	defer file.Close()

	decoded, _, err := image.Decode(file)
	if err != nil {
		return nil, &ExportError{Err: err}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, decoded, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, &ExportError{Err: err}
	}
	return buf.Bytes(), nil
}

// probe reads stream and container metadata, preferring ffprobe and falling
// back to parsing ffmpeg's own banner output.
func (s *FFmpegSurface) probe(ctx context.Context, path string) (MediaInfo, error) {
	var info MediaInfo

	if s.ffprobePath != "" {
		cmd := exec.CommandContext(ctx, s.ffprobePath,
			"-v", "error",
			"-select_streams", "v:0",
			"-show_entries", "stream=width,height,r_frame_rate",
			"-of", "csv=p=0",
			path)
		if out, err := cmd.Output(); err == nil {
			fields := strings.Split(strings.TrimSpace(string(out)), ",")
			if len(fields) >= 3 {
				info.Width, _ = strconv.Atoi(fields[0])
				info.Height, _ = strconv.Atoi(fields[1])
				info.FrameRate = parseRational(fields[2])
			}
		}

		cmd = exec.CommandContext(ctx, s.ffprobePath,
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			path)
		if out, err := cmd.Output(); err == nil {
			if d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64); err == nil && d > 0 {
				info.Duration = d
			}
		}
	}

	if info.Duration > 0 {
		return info, nil
	}

	// ffprobe unavailable or inconclusive; scrape ffmpeg's banner.
	cmd := exec.CommandContext(ctx, s.ffmpegPath, "-hide_banner", "-i", path, "-f", "null", "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run() // exits non-zero without an output file; only the banner matters

	d, err := parseBannerDuration(stderr.String())
	if err != nil {
		return MediaInfo{}, &SourceError{Path: path, Detail: stderrTail(stderr.String()), Err: err}
	}
	info.Duration = d
	return info, nil
}

// parseRational parses an ffprobe rational such as "30000/1001".
func parseRational(v string) float64 {
	parts := strings.Split(strings.TrimSpace(v), "/")
	if len(parts) != 2 {
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// parseBannerDuration extracts "Duration: HH:MM:SS.cc" from ffmpeg output.
func parseBannerDuration(output string) (float64, error) {
	const prefix = "Duration: "
	start := strings.Index(output, prefix)
	if start == -1 {
		return 0, fmt.Errorf("duration not found in ffmpeg output")
	}
	start += len(prefix)
	end := strings.Index(output[start:], ",")
	if end == -1 {
		return 0, fmt.Errorf("malformed duration in ffmpeg output")
	}

	parts := strings.Split(output[start:start+end], ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed duration %q", output[start:start+end])
	}
	hours, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}
	return hours*3600 + minutes*60 + seconds, nil
}

func stderrTail(output string) string {
	output = strings.TrimSpace(output)
	if len(output) <= 300 {
		return output
	}
	return "..." + output[len(output)-300:]
}
