package dancemedia

import (
	"mime"
	"path/filepath"
	"strings"
)

var extensionCategories = map[string]Category{
	".mp4":  CategoryVideo,
	".mov":  CategoryVideo,
	".m4v":  CategoryVideo,
	".webm": CategoryVideo,
	".mkv":  CategoryVideo,
	".avi":  CategoryVideo,
	".mp3":  CategoryAudio,
	".wav":  CategoryAudio,
	".m4a":  CategoryAudio,
	".aac":  CategoryAudio,
	".ogg":  CategoryAudio,
	".flac": CategoryAudio,
}

// Classify decides the processing category and the persisted media type of
// an inbound file. The content type wins over the file extension; hint is
// only consulted when neither identifies the file, and then decides the
// processing category as well.
func Classify(contentType, fileName string, hint MediaType) (Category, MediaType, error) {
	category := categoryFromContentType(contentType)
	if category == CategoryOther {
		if c, ok := extensionCategories[strings.ToLower(filepath.Ext(fileName))]; ok {
			category = c
		}
	}

	switch category {
	case CategoryVideo:
		return category, MediaTypeVideo, nil
	case CategoryAudio:
		return category, MediaTypeAudio, nil
	}
	switch hint {
	case MediaTypeVideo:
		return CategoryVideo, hint, nil
	case MediaTypeAudio:
		return CategoryAudio, hint, nil
	}
	return CategoryOther, "", ErrUnsupportedMedia
}

func categoryFromContentType(contentType string) Category {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return CategoryOther
	}
	switch {
	case strings.HasPrefix(mt, "video/"):
		return CategoryVideo
	case strings.HasPrefix(mt, "audio/"):
		return CategoryAudio
	default:
		return CategoryOther
	}
}

// contentTypeFor returns declared when it parses, else a type guessed from
// the file extension.
func contentTypeFor(declared, fileName string) string {
	if _, _, err := mime.ParseMediaType(declared); err == nil && declared != "" {
		return declared
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
