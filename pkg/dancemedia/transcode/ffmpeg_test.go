package transcode

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
)

// fakeFFmpeg writes a shell script standing in for ffmpeg. The script's last
// argument is the output path.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg needs a POSIX shell")
	}
	p := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nfor last; do :; done\n" + body + "\n"
	require.NoError(t, os.WriteFile(p, []byte(script), 0o755))
	return p
}

const okBody = `printf '%s\n' "$*" > "$last"`

const failBody = `printf partial > "$last"
echo "Invalid data found when processing input" >&2
exit 1`

func input(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("source"), 0o644))
	return p
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "/tmp/x/original.mp4", OutputPath("/tmp/x/original.mov", ".mp4"))
	assert.Equal(t, "/tmp/x/original_web.mp4", OutputPath("/tmp/x/original.mp4", ".mp4"))
	assert.Equal(t, "/tmp/x/original_web.mp3", OutputPath("/tmp/x/original.mp3", ".mp3"))
	assert.Equal(t, "/tmp/x/original_thumb.jpg", OutputPath("/tmp/x/original.mp4", "_thumb.jpg"))
	assert.Equal(t, "/tmp/x/original.mp3", OutputPath("/tmp/x/original", ".mp3"))
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "00:00:01", formatOffset(time.Second))
	assert.Equal(t, "00:01:05", formatOffset(65*time.Second))
	assert.Equal(t, "01:00:00", formatOffset(time.Hour))
	assert.Equal(t, "00:00:01.500", formatOffset(1500*time.Millisecond))
}

func TestTranscodeVideo(t *testing.T) {
	f := New(Config{FFmpegPath: fakeFFmpeg(t, okBody)}, nil)
	in := input(t, "original.mp4")

	out, ct, err := f.Transcode(context.Background(), in, dancemedia.CategoryVideo)
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", ct)
	assert.Equal(t, filepath.Join(filepath.Dir(in), "original_web.mp4"), out)

	args, err := os.ReadFile(out)
	require.NoError(t, err)
	for _, want := range []string{"-c:v libx264", "-pix_fmt yuv420p", "-profile:v high", "-preset veryfast", "-crf 23", "-c:a aac", "-b:a 128k", "-movflags +faststart"} {
		assert.Contains(t, string(args), want)
	}

	src, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, "source", string(src), "input must not be overwritten")
}

func TestTranscodeAudio(t *testing.T) {
	f := New(Config{FFmpegPath: fakeFFmpeg(t, okBody), AudioBitrate: "160k"}, nil)
	in := input(t, "original.wav")

	out, ct, err := f.Transcode(context.Background(), in, dancemedia.CategoryAudio)
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", ct)
	assert.True(t, strings.HasSuffix(out, "original.mp3"))

	args, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(args), "-c:a libmp3lame")
	assert.Contains(t, string(args), "-b:a 160k")
}

func TestTranscodeOtherCategory(t *testing.T) {
	f := New(Config{FFmpegPath: fakeFFmpeg(t, okBody)}, nil)
	_, _, err := f.Transcode(context.Background(), input(t, "a.bin"), dancemedia.CategoryOther)
	assert.Error(t, err)
}

func TestTranscodeFailureRemovesPartialOutput(t *testing.T) {
	f := New(Config{FFmpegPath: fakeFFmpeg(t, failBody)}, nil)
	in := input(t, "original.mov")

	_, _, err := f.Transcode(context.Background(), in, dancemedia.CategoryVideo)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(in), "original.mp4"))
	assert.FileExists(t, in)
}

func TestTranscodeEmptyOutputIsFailure(t *testing.T) {
	f := New(Config{FFmpegPath: fakeFFmpeg(t, `: > "$last"`)}, nil)
	in := input(t, "original.mov")

	_, _, err := f.Transcode(context.Background(), in, dancemedia.CategoryVideo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no output")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(in), "original.mp4"))
}

func TestMissingBinary(t *testing.T) {
	f := New(Config{FFmpegPath: filepath.Join(t.TempDir(), "no-ffmpeg")}, nil)
	_, err := f.Thumbnail(context.Background(), input(t, "original.mp4"))
	assert.Error(t, err)
}

func TestThumbnail(t *testing.T) {
	f := New(Config{FFmpegPath: fakeFFmpeg(t, okBody), ThumbnailWidth: 320}, nil)
	in := input(t, "original.mp4")

	out, err := f.Thumbnail(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(in), "original_thumb.jpg"), out)

	args, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(args), "-ss 00:00:01")
	assert.Contains(t, string(args), "-vframes 1")
	assert.Contains(t, string(args), "scale=320:-2")
}

func TestThumbnailFailure(t *testing.T) {
	f := New(Config{FFmpegPath: fakeFFmpeg(t, failBody)}, nil)
	in := input(t, "original.mp4")

	out, err := f.Thumbnail(context.Background(), in)
	require.Error(t, err)
	assert.Empty(t, out)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(in), "original_thumb.jpg"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("  short \n"))
	long := strings.Repeat("a", maxStderr+10)
	assert.Len(t, truncate(long), maxStderr+3)
}
