package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// badRequest is a malformed request the handler rejects before calling the service.
type badRequest string

func (e badRequest) Error() string { return string(e) }

// statusFor maps an error to its HTTP status and the detail shown to the client.
func statusFor(err error) (int, string) {
	var bad badRequest
	var storageErr *dancemedia.StorageError
	var persistErr *dancemedia.PersistenceError

	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, bad.Error()
	case errors.Is(err, dancemedia.ErrUnauthenticated):
		return http.StatusUnauthorized, "Not authenticated"
	case errors.Is(err, dancemedia.ErrInvalidCredential):
		return http.StatusUnauthorized, "Invalid or expired credential"
	case errors.Is(err, dancemedia.ErrProfileNotFound):
		return http.StatusForbidden, "User profile not found"
	case errors.Is(err, dancemedia.ErrForbidden):
		return http.StatusForbidden, "Insufficient permissions"
	case errors.Is(err, dancemedia.ErrMediaNotFound):
		return http.StatusNotFound, "Media not found"
	case errors.Is(err, dancemedia.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, dancemedia.ErrTitleRequired):
		return http.StatusBadRequest, "Title is required"
	case errors.Is(err, dancemedia.ErrFileRequired):
		return http.StatusBadRequest, "File is required"
	case errors.Is(err, dancemedia.ErrUnsupportedMedia):
		return http.StatusBadRequest, "Unsupported media type"
	case errors.Is(err, dancemedia.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge, "Upload too large"
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError, "Failed to store media"
	case errors.As(err, &persistErr):
		return http.StatusInternalServerError, "Failed to save media record"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeError logs server-side failures with their cause and writes a
// client-safe JSON body.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Detail: detail})
}
