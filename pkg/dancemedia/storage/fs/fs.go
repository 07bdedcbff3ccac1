// Package fs keeps media in a local directory. It is meant for development:
// the API server mounts Handler so the returned public URLs resolve.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tendant/folklorico-media/pkg/dancemedia"
	"github.com/tendant/folklorico-media/pkg/dancemedia/publicurl"
)

// content types are kept next to each object in a hidden sidecar file
const typeSuffix = ".ctype"

// Backend is a filesystem implementation of dancemedia.ObjectStore
type Backend struct {
	mu      sync.RWMutex
	baseDir string
	urls    *publicurl.Mapper
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	PublicURL string // URL the directory is served under, e.g. http://localhost:8080/files
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	urls, err := publicurl.New(config.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("invalid public url: %w", err)
	}
	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir: config.BaseDir,
		urls:    urls,
	}, nil
}

func (b *Backend) objectPath(key string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(key)) || strings.HasSuffix(key, typeSuffix) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(b.baseDir, filepath.FromSlash(key)), nil
}

func typePath(p string) string {
	return filepath.Join(filepath.Dir(p), "."+filepath.Base(p)+typeSuffix)
}

// Upload copies the local file into the base directory
func (b *Backend) Upload(ctx context.Context, params dancemedia.UploadParams) (string, error) {
	dst, err := b.objectPath(params.Key)
	if err != nil {
		return "", err
	}

	src, err := os.Open(params.LocalPath)
	if err != nil {
		return "", fmt.Errorf("open upload source: %w", err)
	}
	defer src.Close()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(file, src); err != nil {
		file.Close()
		os.Remove(dst)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.WriteFile(typePath(dst), []byte(params.ContentType), 0644); err != nil {
		return "", fmt.Errorf("failed to write content type: %w", err)
	}

	return b.urls.URL(params.Key), nil
}

// Delete deletes an object. A missing object is not an error.
func (b *Backend) Delete(ctx context.Context, key string) error {
	p, err := b.objectPath(key)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	os.Remove(typePath(p))
	b.cleanupEmptyDirectories(filepath.Dir(p))
	return nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == filepath.Clean(b.baseDir) {
		return
	}
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}

func (b *Backend) PublicURL(key string) string {
	return b.urls.URL(key)
}

func (b *Backend) KeyFromURL(url string) (string, bool) {
	return b.urls.Key(url)
}

// Handler serves stored objects with the content type recorded at upload.
// Mount it with the public URL's path prefix stripped.
func (b *Backend) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		p, err := b.objectPath(key)
		if err != nil || strings.HasPrefix(path.Base(key), ".") {
			http.NotFound(w, r)
			return
		}

		b.mu.RLock()
		f, err := os.Open(p)
		contentType, _ := os.ReadFile(typePath(p))
		b.mu.RUnlock()
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		if len(contentType) > 0 {
			w.Header().Set("Content-Type", string(contentType))
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

var _ dancemedia.ObjectStore = (*Backend)(nil)
