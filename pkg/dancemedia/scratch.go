package dancemedia

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	scratchPrefix = "upload-"
	copyBufSize   = 1 << 20
)

// scratch is the set of local files owned by one request.
type scratch struct {
	dir    string
	paths  []string
	logger *slog.Logger
}

func newScratch(root string, logger *slog.Logger) (*scratch, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}
	dir, err := os.MkdirTemp(root, scratchPrefix)
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &scratch{dir: dir, logger: logger}, nil
}

// track records a path for removal. Empty paths are ignored.
func (s *scratch) track(path string) {
	if path != "" {
		s.paths = append(s.paths, path)
	}
}

// save streams r into the scratch directory. max of zero means unlimited.
func (s *scratch) save(name string, r io.Reader, max int64) (string, int64, error) {
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create scratch file: %w", err)
	}
	s.track(path)

	src := r
	if max > 0 {
		src = io.LimitReader(r, max+1)
	}
	n, err := io.CopyBuffer(f, src, make([]byte, copyBufSize))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", n, fmt.Errorf("write scratch file: %w", err)
	}
	if max > 0 && n > max {
		return "", n, ErrUploadTooLarge
	}
	return path, n, nil
}

// cleanup removes every tracked path, then the directory. A failed removal
// is logged and does not stop the others.
func (s *scratch) cleanup() {
	for _, p := range s.paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to remove scratch file", "path", p, "error", err)
		}
	}
	if err := os.RemoveAll(s.dir); err != nil {
		s.logger.Warn("failed to remove scratch dir", "path", s.dir, "error", err)
	}
}

// SweepScratch removes scratch directories older than maxAge. They are only
// left behind when a previous process died mid-request.
func (s *Service) SweepScratch(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.scratchRoot)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read scratch root: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), scratchPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.scratchRoot, e.Name())
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn("failed to sweep scratch dir", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
