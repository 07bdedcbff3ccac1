// Package api exposes the media service over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
	"github.com/tendant/folklorico-media/pkg/dancemedia/auth"
)

// Verifier resolves a bearer token to a principal.
type Verifier interface {
	Verify(ctx context.Context, bearer string) (*dancemedia.Principal, error)
}

// Handler serves the media upload API
type Handler struct {
	service  *dancemedia.Service
	verifier Verifier

	logger         *slog.Logger
	metrics        Instrumentation
	files          http.Handler
	allowedOrigins []string
	requestTimeout time.Duration
}

// Instrumentation is the HTTP-facing side of the metrics package.
type Instrumentation interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMetrics instruments every route and serves /metrics.
func WithMetrics(m Instrumentation) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithFiles mounts a handler under /files for backends that serve their own objects.
func WithFiles(files http.Handler) Option {
	return func(h *Handler) {
		h.files = files
	}
}

func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) {
		h.allowedOrigins = origins
	}
}

// WithRequestTimeout bounds every request except uploads, which are limited
// by the upload size and the client connection instead. Zero disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.requestTimeout = d
	}
}

func New(service *dancemedia.Service, verifier Verifier, options ...Option) *Handler {
	h := &Handler{
		service:        service,
		verifier:       verifier,
		logger:         slog.Default(),
		allowedOrigins: []string{"*"},
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

// Routes returns the router for the whole API
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if h.files != nil {
		r.Mount("/files", http.StripPrefix("/files", h.files))
	}

	// Uploads run outside the request timeout: ffmpeg and the fallback
	// upload share the request context.
	r.With(h.requireRole(dancemedia.RoleAdmin, dancemedia.RoleTeacher)).
		Post("/upload/convert", h.UploadConvert)

	r.Group(func(r chi.Router) {
		if h.requestTimeout > 0 {
			r.Use(middleware.Timeout(h.requestTimeout))
		}

		r.Get("/", h.Root)
		r.Get("/healthz", h.Healthz)
		if h.metrics != nil {
			r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
		}

		r.With(h.requireRole(dancemedia.RoleAdmin, dancemedia.RoleTeacher)).
			Delete("/media/{media_id}", h.DeleteMedia)
		r.With(h.requireRole(dancemedia.RoleAdmin)).
			Delete("/admin/users/{user_id}", h.DeleteUser)
	})

	return r
}

type MessageResponse struct {
	Message string `json:"message"`
}

// UploadResponse is the body of a successful POST /upload/convert
type UploadResponse struct {
	Status       string                `json:"status"`
	PublicURL    string                `json:"public_url"`
	ThumbnailURL *string               `json:"thumbnail_url"`
	Data         *dancemedia.MediaItem `json:"data"`
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, MessageResponse{Message: "Folklorico media backend is running"})
}

// Healthz reports whether the metadata store is reachable.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, ErrorResponse{Detail: "metadata store unavailable"})
		return
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "media_id"))
	if err != nil {
		h.writeError(w, r, dancemedia.ErrMediaNotFound)
		return
	}

	if err := h.service.DeleteMedia(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("media deleted", "media_id", id, "by", principalFrom(r.Context()).UserID)
	render.JSON(w, r, MessageResponse{Message: "Media deleted successfully"})
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		h.writeError(w, r, dancemedia.ErrUserNotFound)
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("user deleted", "user_id", id, "by", principalFrom(r.Context()).UserID)
	render.JSON(w, r, MessageResponse{Message: "User deleted successfully"})
}

// requireRole verifies the bearer credential before the body is read and
// stores the principal in the request context.
func (h *Handler) requireRole(roles ...dancemedia.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := h.verifier.Verify(r.Context(), jwtauth.TokenFromHeader(r))
			if err == nil {
				err = auth.Authorize(p, roles...)
			}
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
		})
	}
}

type principalKey struct{}

// principalFrom returns the authenticated principal, or the zero principal
// on unprotected routes.
func principalFrom(ctx context.Context) dancemedia.Principal {
	if p, ok := ctx.Value(principalKey{}).(*dancemedia.Principal); ok && p != nil {
		return *p
	}
	return dancemedia.Principal{}
}

// requestLogger writes one access log line per request.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			h.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
