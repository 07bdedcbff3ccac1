package dancemedia

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return NoopEventSink{}
}

func (NoopEventSink) MediaUploaded(ctx context.Context, item *MediaItem, transcoded bool) {}

func (NoopEventSink) UploadFailed(ctx context.Context, mediaType MediaType, err error) {}

func (NoopEventSink) TranscodeFinished(ctx context.Context, op string, elapsed time.Duration, err error) {
}

func (NoopEventSink) MediaDeleted(ctx context.Context, id uuid.UUID) {}

func (NoopEventSink) ObjectDeleteFailed(ctx context.Context, key string, err error) {}
