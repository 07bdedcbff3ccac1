// Package dancemedia implements the media upload backend for the dance
// instruction platform: an authenticated caller posts an audio or video file,
// the service transcodes it to a web friendly format, pushes the artifacts to
// object storage and records a media item row pointing at them.
//
// The Service depends only on the interfaces declared in interfaces.go.
// Concrete collaborators live in subpackages: auth (identity provider and
// profile role lookup), transcode (ffmpeg), storage/s3, storage/fs and
// storage/memory (object stores), repo/postgres and repo/memory (metadata
// store), api (HTTP surface) and config (wiring from the environment).
//
// # Scratch files
//
// Every upload owns a private scratch directory. All files created while
// processing the request are tracked there and removed before UploadMedia
// returns, on success and on every failure path.
package dancemedia
