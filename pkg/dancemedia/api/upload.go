package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
)

const (
	maxFieldBytes = 4 << 10
	// multipartSlack covers part headers and text fields on top of the file limit.
	multipartSlack = 1 << 20
)

// UploadConvert handles POST /upload/convert. Parts are streamed in the
// order the client sends them, so the file may arrive before the title.
func (h *Handler) UploadConvert(w http.ResponseWriter, r *http.Request) {
	if limit := h.service.MaxUploadBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartSlack)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		h.writeError(w, r, badRequest("Expected a multipart/form-data body"))
		return
	}

	var (
		staged  *dancemedia.StagedFile
		details = dancemedia.MediaDetails{Uploader: principalFrom(r.Context())}
		fields  = make(map[string]string)
	)
	defer func() {
		if staged != nil {
			staged.Discard()
		}
	}()

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.writeError(w, r, multipartError(err))
			return
		}

		switch name := part.FormName(); name {
		case "file":
			if staged != nil {
				part.Close()
				h.writeError(w, r, badRequest("Only one file may be uploaded"))
				return
			}
			staged, err = h.service.StageFile(part.FileName(), part.Header.Get("Content-Type"), part)
			if err != nil {
				part.Close()
				h.writeError(w, r, partError(err))
				return
			}
		case "title", "region", "region_id", "media_type":
			value, err := readField(part)
			if err != nil {
				part.Close()
				h.writeError(w, r, partError(err))
				return
			}
			fields[name] = value
		}
		part.Close()
	}

	if staged == nil {
		h.writeError(w, r, dancemedia.ErrFileRequired)
		return
	}

	details.Title = fields["title"]
	details.Region = fields["region"]
	if regionID := strings.TrimSpace(fields["region_id"]); regionID != "" {
		details.Region = regionID
	}
	if hint := strings.ToLower(strings.TrimSpace(fields["media_type"])); hint != "" {
		details.MediaTypeHint = dancemedia.MediaType(hint)
		if !details.MediaTypeHint.IsValid() {
			h.writeError(w, r, badRequest("media_type must be video or audio"))
			return
		}
	}

	f := staged
	staged = nil
	result, err := h.service.UploadStaged(r.Context(), f, details)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("media uploaded",
		"media_id", result.Item.ID,
		"media_type", result.Item.MediaType,
		"transcoded", result.Transcoded,
		"uploader", details.Uploader.UserID,
	)
	render.JSON(w, r, UploadResponse{
		Status:       "success",
		PublicURL:    result.PublicURL,
		ThumbnailURL: result.ThumbnailURL,
		Data:         result.Item,
	})
}

func readField(part io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxFieldBytes {
		return "", badRequest("Form field too long")
	}
	return string(data), nil
}

// multipartError maps a failure to advance to the next part.
func multipartError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return dancemedia.ErrUploadTooLarge
	}
	return badRequest(fmt.Sprintf("Malformed multipart body: %v", err))
}

// partError maps a failure while reading a part's content. Errors that
// are not caused by the client pass through and become 500s.
func partError(err error) error {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return dancemedia.ErrUploadTooLarge
	case errors.Is(err, io.ErrUnexpectedEOF):
		return badRequest("Upload body ended early")
	default:
		return err
	}
}
