package dancemedia

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// MediaType is the persisted media category.
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
)

// IsValid reports whether t is a persisted media type.
func (t MediaType) IsValid() bool {
	return t == MediaTypeVideo || t == MediaTypeAudio
}

// Category is the declared content category of an inbound file. It decides
// which transcoding steps run.
type Category string

const (
	CategoryVideo Category = "video"
	CategoryAudio Category = "audio"
	CategoryOther Category = "other"
)

// Role is the platform role stored on a user's profile.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleDancer  Role = "dancer"
)

// ParseRole normalizes a stored role. Anything unknown is a dancer.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleTeacher:
		return Role(s)
	default:
		return RoleDancer
	}
}

// Principal is an authenticated caller and its resolved role.
type Principal struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

// HasRole reports whether the principal holds one of roles.
func (p Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// MediaItem is a persisted media record.
//
// UploaderID and UserID both hold the uploading principal; older clients
// read one and newer clients the other.
type MediaItem struct {
	ID           uuid.UUID `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Title        string    `json:"title"`
	FilePath     string    `json:"file_path"`
	MediaType    MediaType `json:"media_type"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	UploaderID   uuid.UUID `json:"uploader_id"`
	UserID       uuid.UUID `json:"user_id"`
	Region       *string   `json:"region"`
}

// MediaDetails is the caller-supplied metadata of an upload.
type MediaDetails struct {
	Title  string
	Region string
	// MediaTypeHint is used when neither the content type nor the file
	// extension identifies the file as audio or video.
	MediaTypeHint MediaType
	Uploader      Principal
}

// UploadRequest carries one inbound file through the upload pipeline.
type UploadRequest struct {
	MediaDetails
	FileName    string
	ContentType string
	Body        io.Reader
}

// UploadResult is returned by a successful upload.
type UploadResult struct {
	Item         *MediaItem
	PublicURL    string
	ThumbnailURL *string
	// Transcoded is false when the original file was uploaded, for files
	// outside audio and video or after a failed transcode.
	Transcoded bool
}

// UploadParams describes one local file to push to the object store.
type UploadParams struct {
	LocalPath   string
	Key         string
	ContentType string
}
