// Package memory is an in-memory object store for tests and zero-config runs.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/tendant/folklorico-media/pkg/dancemedia"
	"github.com/tendant/folklorico-media/pkg/dancemedia/publicurl"
)

type object struct {
	data        []byte
	contentType string
	modTime     time.Time
}

// Backend is an in-memory implementation of dancemedia.ObjectStore
type Backend struct {
	mu        sync.RWMutex
	objects   map[string]object
	urls      *publicurl.Mapper
	uploadErr map[string]error
	deleteErr error
}

// New creates a new in-memory storage backend serving under publicBase
func New(publicBase string) (*Backend, error) {
	urls, err := publicurl.New(publicBase)
	if err != nil {
		return nil, err
	}
	return &Backend{
		objects:   make(map[string]object),
		urls:      urls,
		uploadErr: make(map[string]error),
	}, nil
}

// FailUploads makes every upload into folder fail with err. A nil err clears it.
func (b *Backend) FailUploads(folder string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.uploadErr, folder)
		return
	}
	b.uploadErr[folder] = err
}

// FailDeletes makes every delete fail with err. A nil err clears it.
func (b *Backend) FailDeletes(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteErr = err
}

func (b *Backend) Upload(ctx context.Context, params dancemedia.UploadParams) (string, error) {
	folder, _, _ := strings.Cut(params.Key, "/")

	b.mu.RLock()
	err := b.uploadErr[folder]
	b.mu.RUnlock()
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(params.LocalPath)
	if err != nil {
		return "", fmt.Errorf("read upload source: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[params.Key] = object{data: data, contentType: params.ContentType, modTime: time.Now()}
	return b.urls.URL(params.Key), nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.objects, key)
	return nil
}

func (b *Backend) PublicURL(key string) string {
	return b.urls.URL(key)
}

func (b *Backend) KeyFromURL(url string) (string, bool) {
	return b.urls.Key(url)
}

// Get returns a stored object and its content type
func (b *Backend) Get(key string) ([]byte, string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[key]
	return obj.data, obj.contentType, ok
}

// Len returns the number of stored objects
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

// Handler serves stored objects by key with their recorded content type.
func (b *Backend) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		b.mu.RLock()
		obj, ok := b.objects[key]
		b.mu.RUnlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", obj.contentType)
		http.ServeContent(w, r, path.Base(key), obj.modTime, bytes.NewReader(obj.data))
	})
}

var _ dancemedia.ObjectStore = (*Backend)(nil)
