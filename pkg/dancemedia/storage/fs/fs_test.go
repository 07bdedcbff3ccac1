package fs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
)

func newBackend(t *testing.T) (*Backend, string) {
	t.Helper()
	dir := t.TempDir()
	b, err := New(Config{BaseDir: dir, PublicURL: "http://localhost:8080/files"})
	require.NoError(t, err)
	return b, dir
}

func sourceFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{PublicURL: "http://localhost/files"})
	assert.Error(t, err)

	_, err = New(Config{BaseDir: t.TempDir()})
	assert.Error(t, err)
}

func TestUploadAndServe(t *testing.T) {
	b, dir := newBackend(t)
	ctx := context.Background()

	url, err := b.Upload(ctx, dancemedia.UploadParams{
		LocalPath:   sourceFile(t, "hello video"),
		Key:         "videos/abc.mp4",
		ContentType: "video/mp4",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/videos/abc.mp4", url)
	assert.FileExists(t, filepath.Join(dir, "videos", "abc.mp4"))

	srv := httptest.NewServer(http.StripPrefix("/files", b.Handler()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/files/videos/abc.mp4")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
	assert.Equal(t, "hello video", string(body))

	resp2, err := http.Get(srv.URL + "/files/videos/.abc.mp4.ctype")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestUploadRejectsEscapingKeys(t *testing.T) {
	b, _ := newBackend(t)
	for _, key := range []string{"../x.mp4", "/etc/passwd", "videos/../../x"} {
		_, err := b.Upload(context.Background(), dancemedia.UploadParams{
			LocalPath: sourceFile(t, "x"),
			Key:       key,
		})
		assert.Error(t, err, key)
	}
}

func TestDelete(t *testing.T) {
	b, dir := newBackend(t)
	ctx := context.Background()

	_, err := b.Upload(ctx, dancemedia.UploadParams{
		LocalPath:   sourceFile(t, "a"),
		Key:         "audio/a.mp3",
		ContentType: "audio/mpeg",
	})
	require.NoError(t, err)

	require.NoError(t, b.Delete(ctx, "audio/a.mp3"))
	assert.NoFileExists(t, filepath.Join(dir, "audio", "a.mp3"))
	assert.NoDirExists(t, filepath.Join(dir, "audio"))

	assert.NoError(t, b.Delete(ctx, "audio/a.mp3"))
}

func TestKeyFromURL(t *testing.T) {
	b, _ := newBackend(t)
	key, ok := b.KeyFromURL(b.PublicURL("thumbnails/t.jpg"))
	assert.True(t, ok)
	assert.Equal(t, "thumbnails/t.jpg", key)
}
