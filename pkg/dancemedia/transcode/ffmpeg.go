// Package transcode runs ffmpeg to produce web-playable media and thumbnails.
package transcode

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tendant/folklorico-media/pkg/dancemedia"
)

const maxStderr = 2048

// Config holds ffmpeg settings. Zero values take the defaults below.
type Config struct {
	FFmpegPath      string        // default "ffmpeg"
	ThumbnailOffset time.Duration // default 1s
	ThumbnailWidth  int           // default 480, height follows the aspect ratio
	VideoCRF        int           // default 23
	VideoPreset     string        // default "veryfast"
	VideoAudioRate  string        // default "128k"
	AudioBitrate    string        // default "192k"
}

func (c Config) withDefaults() Config {
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.ThumbnailOffset <= 0 {
		c.ThumbnailOffset = time.Second
	}
	if c.ThumbnailWidth <= 0 {
		c.ThumbnailWidth = 480
	}
	if c.VideoCRF <= 0 {
		c.VideoCRF = 23
	}
	if c.VideoPreset == "" {
		c.VideoPreset = "veryfast"
	}
	if c.VideoAudioRate == "" {
		c.VideoAudioRate = "128k"
	}
	if c.AudioBitrate == "" {
		c.AudioBitrate = "192k"
	}
	return c
}

// FFmpeg implements dancemedia.Transcoder with the ffmpeg command line tool.
type FFmpeg struct {
	config Config
	logger *slog.Logger
}

func New(config Config, logger *slog.Logger) *FFmpeg {
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpeg{config: config.withDefaults(), logger: logger}
}

// Thumbnail grabs one frame at the configured offset into <stem>_thumb.jpg.
func (f *FFmpeg) Thumbnail(ctx context.Context, inputPath string) (string, error) {
	out := OutputPath(inputPath, "_thumb.jpg")
	args := []string{
		"-y",
		"-ss", formatOffset(f.config.ThumbnailOffset),
		"-i", inputPath,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", f.config.ThumbnailWidth),
		out,
	}
	if err := f.run(ctx, args, out); err != nil {
		return "", err
	}
	return out, nil
}

// Transcode re-encodes video to 8-bit 4:2:0 H.264 (High profile) with AAC
// audio in an MP4 with the moov atom up front, and audio to MP3. It returns
// the output path and its content type.
func (f *FFmpeg) Transcode(ctx context.Context, inputPath string, category dancemedia.Category) (string, string, error) {
	var out, contentType string
	var args []string

	switch category {
	case dancemedia.CategoryVideo:
		out, contentType = OutputPath(inputPath, ".mp4"), "video/mp4"
		args = []string{
			"-y", "-i", inputPath,
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			"-profile:v", "high",
			"-preset", f.config.VideoPreset,
			"-crf", strconv.Itoa(f.config.VideoCRF),
			"-c:a", "aac",
			"-b:a", f.config.VideoAudioRate,
			"-movflags", "+faststart",
			out,
		}
	case dancemedia.CategoryAudio:
		out, contentType = OutputPath(inputPath, ".mp3"), "audio/mpeg"
		args = []string{
			"-y", "-i", inputPath,
			"-vn",
			"-c:a", "libmp3lame",
			"-b:a", f.config.AudioBitrate,
			out,
		}
	default:
		return "", "", fmt.Errorf("cannot transcode category %q", category)
	}

	if err := f.run(ctx, args, out); err != nil {
		return "", "", err
	}
	return out, contentType, nil
}

func (f *FFmpeg) run(ctx context.Context, args []string, out string) error {
	cmd := exec.CommandContext(ctx, f.config.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		os.Remove(out)
		msg := truncate(stderr.String())
		f.logger.Error("ffmpeg failed", "output", filepath.Base(out), "error", err, "stderr", msg)
		return fmt.Errorf("ffmpeg failed: %w", err)
	}

	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		os.Remove(out)
		return fmt.Errorf("ffmpeg produced no output for %s", filepath.Base(out))
	}

	f.logger.Debug("ffmpeg finished", "output", filepath.Base(out), "bytes", info.Size(), "elapsed", time.Since(start))
	return nil
}

// OutputPath places an output next to input as <stem><suffix>. When that
// would be the input itself, <stem>_web<suffix> is used instead.
func OutputPath(input, suffix string) string {
	stem := strings.TrimSuffix(input, filepath.Ext(input))
	out := stem + suffix
	if out == input {
		out = stem + "_web" + suffix
	}
	return out
}

func formatOffset(d time.Duration) string {
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := float64(d%time.Minute) / float64(time.Second)
	if s == float64(int(s)) {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, int(s))
	}
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxStderr {
		return s
	}
	return "..." + s[len(s)-maxStderr:]
}

var _ dancemedia.Transcoder = (*FFmpeg)(nil)
