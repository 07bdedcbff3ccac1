package dancemedia

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated indicates the request carried no bearer credential
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrInvalidCredential indicates the credential was rejected or could not be verified
	ErrInvalidCredential = errors.New("invalid or expired token")

	// ErrProfileNotFound indicates the identity has no profile row
	ErrProfileNotFound = errors.New("user profile not found")

	// ErrForbidden indicates the principal's role is not allowed to perform the operation
	ErrForbidden = errors.New("insufficient permissions")

	// ErrMediaNotFound indicates a media item was not found
	ErrMediaNotFound = errors.New("media not found")

	// ErrUserNotFound indicates the identity provider has no such user
	ErrUserNotFound = errors.New("user not found")

	// ErrTitleRequired indicates an upload without a title
	ErrTitleRequired = errors.New("title is required")

	// ErrFileRequired indicates an upload without a file part
	ErrFileRequired = errors.New("file is required")

	// ErrUnsupportedMedia indicates the file could not be classified as audio or video
	ErrUnsupportedMedia = errors.New("unsupported media type")

	// ErrUploadTooLarge indicates the inbound file exceeded the configured limit
	ErrUploadTooLarge = errors.New("upload too large")

	// ErrForeignObjectURL indicates a stored URL that does not map back to an object key
	ErrForeignObjectURL = errors.New("object url outside the public domain")
)

// ProcessingError is a transcode or thumbnail failure. It never fails an
// upload; it is logged and reported to the event sink.
type ProcessingError struct {
	Op    string
	Input string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing operation %s failed for %s: %v", e.Op, e.Input, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// StorageError represents a failed object store operation
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PersistenceError represents a failed metadata store operation
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("metadata operation %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
