package dancemedia

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the metadata store for media items.
type Repository interface {
	// CreateMedia inserts item and fills in the store-assigned ID and CreatedAt.
	CreateMedia(ctx context.Context, item *MediaItem) error

	// GetMedia returns ErrMediaNotFound when no row has the id.
	GetMedia(ctx context.Context, id uuid.UUID) (*MediaItem, error)

	// DeleteMedia returns ErrMediaNotFound when no row has the id.
	DeleteMedia(ctx context.Context, id uuid.UUID) error

	// Ping checks connectivity for readiness probes.
	Ping(ctx context.Context) error
}

// ProfileStore resolves a user's platform role.
type ProfileStore interface {
	// GetProfileRole returns ErrProfileNotFound when the user has no profile.
	GetProfileRole(ctx context.Context, userID uuid.UUID) (Role, error)
}

// ObjectStore pushes local files to a bucket and maps object keys to public URLs.
type ObjectStore interface {
	// Upload stores the file under params.Key and returns its public URL.
	Upload(ctx context.Context, params UploadParams) (string, error)

	// Delete removes the object. A missing object is not an error.
	Delete(ctx context.Context, key string) error

	// PublicURL returns the public URL for key.
	PublicURL(key string) string

	// KeyFromURL reverses PublicURL. ok is false for URLs outside the store's public domain.
	KeyFromURL(url string) (key string, ok bool)
}

// Transcoder produces derived artifacts with an external media tool.
type Transcoder interface {
	// Thumbnail extracts a single still frame from a video.
	Thumbnail(ctx context.Context, inputPath string) (string, error)

	// Transcode re-encodes a video or audio file and returns the output path
	// and its content type. The output never overwrites the input.
	Transcode(ctx context.Context, inputPath string, category Category) (string, string, error)
}

// KeyGenerator computes object keys for uploaded artifacts.
type KeyGenerator interface {
	GenerateKey(folder, fileName string) string
}

// UserAdmin manages identity provider accounts.
type UserAdmin interface {
	// DeleteUser returns ErrUserNotFound when the provider has no such account.
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// EventSink observes pipeline outcomes. Implementations must not block.
type EventSink interface {
	MediaUploaded(ctx context.Context, item *MediaItem, transcoded bool)
	UploadFailed(ctx context.Context, mediaType MediaType, err error)
	TranscodeFinished(ctx context.Context, op string, elapsed time.Duration, err error)
	MediaDeleted(ctx context.Context, id uuid.UUID)
	ObjectDeleteFailed(ctx context.Context, key string, err error)
}
