package dancemedia

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tendant/folklorico-media/pkg/dancemedia/objectkey"
)

// Service runs the upload and delete pipelines.
type Service struct {
	repository     Repository
	store          ObjectStore
	transcoder     Transcoder
	users          UserAdmin
	keys           KeyGenerator
	eventSink      EventSink
	logger         *slog.Logger
	scratchRoot    string
	maxUploadBytes int64
}

// Option represents a functional option for configuring the service
type Option func(*Service)

// WithRepository sets the metadata store
func WithRepository(repo Repository) Option {
	return func(s *Service) {
		s.repository = repo
	}
}

// WithObjectStore sets the object store that receives uploaded artifacts
func WithObjectStore(store ObjectStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithTranscoder sets the transcoder. Without one every file is uploaded as received.
func WithTranscoder(t Transcoder) Option {
	return func(s *Service) {
		s.transcoder = t
	}
}

// WithUserAdmin sets the identity provider admin client used by DeleteUser
func WithUserAdmin(users UserAdmin) Option {
	return func(s *Service) {
		s.users = users
	}
}

// WithKeyGenerator overrides the object key generator
func WithKeyGenerator(keys KeyGenerator) Option {
	return func(s *Service) {
		s.keys = keys
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *Service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithScratchDir sets the root under which per-request scratch directories are created
func WithScratchDir(dir string) Option {
	return func(s *Service) {
		s.scratchRoot = dir
	}
}

// WithMaxUploadBytes limits the size of an inbound file. Zero means unlimited.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		s.maxUploadBytes = n
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (*Service, error) {
	s := &Service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if s.keys == nil {
		s.keys = objectkey.New()
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.scratchRoot == "" {
		s.scratchRoot = filepath.Join(os.TempDir(), "folklorico-media")
	}
	if s.maxUploadBytes < 0 {
		return nil, fmt.Errorf("max upload bytes must not be negative")
	}

	return s, nil
}

// Ping checks the metadata store.
func (s *Service) Ping(ctx context.Context) error {
	return s.repository.Ping(ctx)
}

// ScratchRoot returns the directory that holds per-request scratch directories.
func (s *Service) ScratchRoot() string {
	return s.scratchRoot
}

// MaxUploadBytes returns the per-file upload limit. Zero means unlimited.
func (s *Service) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}
