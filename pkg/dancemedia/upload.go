package dancemedia

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/tendant/folklorico-media/pkg/dancemedia/objectkey"
)

// StagedFile is an inbound file saved to a per-request scratch directory.
// It is removed by Discard or by the UploadStaged call that consumes it.
type StagedFile struct {
	work        *scratch
	path        string
	fileName    string
	contentType string
	size        int64
}

// FileName returns the client-supplied file name.
func (f *StagedFile) FileName() string { return f.fileName }

// Size returns the number of bytes saved.
func (f *StagedFile) Size() int64 { return f.size }

// Discard removes the scratch directory. It is safe to call more than once.
func (f *StagedFile) Discard() {
	if f == nil || f.work == nil {
		return
	}
	f.work.cleanup()
	f.work = nil
}

// StageFile streams body into a new scratch directory. Nothing is left on
// disk when it fails.
func (s *Service) StageFile(fileName, contentType string, body io.Reader) (*StagedFile, error) {
	if body == nil {
		return nil, ErrFileRequired
	}
	work, err := newScratch(s.scratchRoot, s.logger)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(fileName)))
	path, size, err := work.save("original"+ext, body, s.maxUploadBytes)
	if err != nil {
		work.cleanup()
		return nil, err
	}
	return &StagedFile{
		work:        work,
		path:        path,
		fileName:    fileName,
		contentType: contentType,
		size:        size,
	}, nil
}

// UploadMedia validates the request, stages the body and runs UploadStaged.
func (s *Service) UploadMedia(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}
	if _, _, err := Classify(req.ContentType, req.FileName, req.MediaTypeHint); err != nil {
		return nil, err
	}
	f, err := s.StageFile(req.FileName, req.ContentType, req.Body)
	if err != nil {
		return nil, err
	}
	return s.UploadStaged(ctx, f, req.MediaDetails)
}

// UploadStaged transcodes the staged file when a transcoder is configured,
// uploads the artifacts and inserts the metadata row. The staged file is
// discarded before it returns, whatever the outcome.
//
// A failed thumbnail or transcode never fails the upload: the original file
// is uploaded instead and the item has no thumbnail. If the row insert fails
// the uploaded objects are left in the store.
func (s *Service) UploadStaged(ctx context.Context, f *StagedFile, details MediaDetails) (*UploadResult, error) {
	defer f.Discard()

	title := strings.TrimSpace(details.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	category, mediaType, err := Classify(f.contentType, f.fileName, details.MediaTypeHint)
	if err != nil {
		return nil, err
	}

	result, err := s.process(ctx, f, details, title, category, mediaType)
	if err != nil {
		s.eventSink.UploadFailed(ctx, mediaType, err)
		return nil, err
	}
	s.eventSink.MediaUploaded(ctx, result.Item, result.Transcoded)
	return result, nil
}

func (s *Service) process(ctx context.Context, f *StagedFile, details MediaDetails, title string, category Category, mediaType MediaType) (*UploadResult, error) {
	s.logger.Debug("processing upload", "title", title, "category", category, "bytes", f.size)

	primaryPath := f.path
	primaryType := contentTypeFor(f.contentType, f.fileName)
	transcoded := false
	var thumbPath string

	if s.transcoder != nil && category != CategoryOther {
		if category == CategoryVideo {
			thumbPath = s.thumbnail(ctx, f.path)
			f.work.track(thumbPath)
		}
		if out, ct, ok := s.transcode(ctx, f.path, category); ok {
			f.work.track(out)
			primaryPath, primaryType, transcoded = out, ct, true
		}
	}

	primaryKey := s.keys.GenerateKey(folderFor(category), filepath.Base(primaryPath))
	publicURL, err := s.store.Upload(ctx, UploadParams{
		LocalPath:   primaryPath,
		Key:         primaryKey,
		ContentType: primaryType,
	})
	if err != nil {
		return nil, &StorageError{Op: "upload", Key: primaryKey, Err: err}
	}

	var thumbnailURL *string
	if thumbPath != "" {
		thumbKey := s.keys.GenerateKey(objectkey.FolderThumbnails, filepath.Base(thumbPath))
		u, err := s.store.Upload(ctx, UploadParams{
			LocalPath:   thumbPath,
			Key:         thumbKey,
			ContentType: "image/jpeg",
		})
		if err != nil {
			s.logger.Warn("thumbnail upload failed", "key", thumbKey, "error", err)
		} else {
			thumbnailURL = &u
		}
	}

	item := &MediaItem{
		Title:        title,
		FilePath:     publicURL,
		MediaType:    mediaType,
		ThumbnailURL: thumbnailURL,
		UploaderID:   details.Uploader.UserID,
		UserID:       details.Uploader.UserID,
	}
	if region := strings.TrimSpace(details.Region); region != "" {
		item.Region = &region
	}

	if err := s.repository.CreateMedia(ctx, item); err != nil {
		s.logger.Error("media insert failed, uploaded objects are orphaned",
			"file_path", publicURL, "thumbnail_url", thumbnailURL, "error", err)
		return nil, &PersistenceError{Op: "create media", Err: err}
	}

	return &UploadResult{
		Item:         item,
		PublicURL:    publicURL,
		ThumbnailURL: thumbnailURL,
		Transcoded:   transcoded,
	}, nil
}

// thumbnail returns the thumbnail path, or "" when extraction failed.
func (s *Service) thumbnail(ctx context.Context, input string) string {
	start := time.Now()
	out, err := s.transcoder.Thumbnail(ctx, input)
	s.eventSink.TranscodeFinished(ctx, "thumbnail", time.Since(start), err)
	if err != nil {
		s.logger.Warn("thumbnail extraction failed", "error", &ProcessingError{Op: "thumbnail", Input: filepath.Base(input), Err: err})
		return ""
	}
	return out
}

// transcode reports ok=false when the original should be uploaded instead.
func (s *Service) transcode(ctx context.Context, input string, category Category) (string, string, bool) {
	start := time.Now()
	out, contentType, err := s.transcoder.Transcode(ctx, input, category)
	s.eventSink.TranscodeFinished(ctx, "transcode_"+string(category), time.Since(start), err)
	if err != nil {
		s.logger.Warn("transcode failed, uploading original", "error", &ProcessingError{Op: "transcode", Input: filepath.Base(input), Err: err})
		return "", "", false
	}
	return out, contentType, true
}

func folderFor(c Category) string {
	switch c {
	case CategoryVideo:
		return objectkey.FolderVideos
	case CategoryAudio:
		return objectkey.FolderAudio
	default:
		return objectkey.FolderFiles
	}
}
