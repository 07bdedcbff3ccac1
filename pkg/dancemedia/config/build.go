package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
	"github.com/tendant/folklorico-media/pkg/dancemedia/api"
	"github.com/tendant/folklorico-media/pkg/dancemedia/auth"
	"github.com/tendant/folklorico-media/pkg/dancemedia/metrics"
	"github.com/tendant/folklorico-media/pkg/dancemedia/repo/memory"
	repopg "github.com/tendant/folklorico-media/pkg/dancemedia/repo/postgres"
	fsstorage "github.com/tendant/folklorico-media/pkg/dancemedia/storage/fs"
	memorystorage "github.com/tendant/folklorico-media/pkg/dancemedia/storage/memory"
	s3storage "github.com/tendant/folklorico-media/pkg/dancemedia/storage/s3"
	"github.com/tendant/folklorico-media/pkg/dancemedia/transcode"
)

// App is the assembled server: the service, its HTTP routes and the
// resources that must be released on shutdown.
type App struct {
	Service *dancemedia.Service
	Handler http.Handler
	Metrics *metrics.Metrics

	pool *pgxpool.Pool
}

// Close releases the database pool.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

type metadataStore interface {
	dancemedia.Repository
	dancemedia.ProfileStore
}

// Build creates every dependency from the configuration and wires them into the service and router.
func (c *ServerConfig) Build(ctx context.Context, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Metrics: metrics.New()}

	repo, err := c.buildRepository(ctx, app, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, files, err := c.buildObjectStore(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to build object store: %w", err)
	}

	provider, users, err := c.buildIdentity()
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to build identity provider: %w", err)
	}

	options := []dancemedia.Option{
		dancemedia.WithRepository(repo),
		dancemedia.WithObjectStore(store),
		dancemedia.WithEventSink(app.Metrics),
		dancemedia.WithLogger(logger),
		dancemedia.WithMaxUploadBytes(c.Media.MaxUploadBytes),
	}
	if c.Media.ScratchDir != "" {
		options = append(options, dancemedia.WithScratchDir(c.Media.ScratchDir))
	}
	if c.Media.TranscodeEnabled {
		ffmpeg := transcode.New(c.transcodeConfig(), logger)
		pool := transcode.NewPool(ffmpeg, c.Media.TranscodeWorkers)
		logger.Info("transcoding enabled", "ffmpeg", c.Media.FFmpegPath, "workers", pool.Size())
		options = append(options, dancemedia.WithTranscoder(pool))
	}
	if users != nil {
		options = append(options, dancemedia.WithUserAdmin(users))
	}

	app.Service, err = dancemedia.New(options...)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to build service: %w", err)
	}

	handlerOpts := []api.Option{
		api.WithLogger(logger),
		api.WithMetrics(app.Metrics),
		api.WithAllowedOrigins(c.AllowedOrigins...),
		api.WithRequestTimeout(c.RequestTimeout),
	}
	if files != nil {
		handlerOpts = append(handlerOpts, api.WithFiles(files))
	}
	verifier := auth.NewVerifier(provider, repo, logger)
	app.Handler = api.New(app.Service, verifier, handlerOpts...).Routes()

	return app, nil
}

func (c *ServerConfig) transcodeConfig() transcode.Config {
	return transcode.Config{
		FFmpegPath:      c.Media.FFmpegPath,
		ThumbnailOffset: c.Media.ThumbnailOffset,
		ThumbnailWidth:  c.Media.ThumbnailWidth,
		VideoCRF:        c.Media.VideoCRF,
		VideoPreset:     c.Media.VideoPreset,
		VideoAudioRate:  c.Media.VideoAudioRate,
		AudioBitrate:    c.Media.AudioBitrate,
	}
}

func (c *ServerConfig) buildRepository(ctx context.Context, app *App, logger *slog.Logger) (metadataStore, error) {
	if c.Database.URL == "" {
		logger.Warn("DATABASE_URL is not set, using the in-memory metadata store")
		return memory.New(), nil
	}

	cfg, err := pgxpool.ParseConfig(c.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema := c.Database.Schema; schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if c.Database.RunMigrations {
		if err := repopg.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("database migrations applied")
	}

	app.pool = pool
	return repopg.NewWithPool(pool), nil
}

// buildObjectStore returns the configured store and, for backends this
// process serves itself, the handler to mount under /files.
func (c *ServerConfig) buildObjectStore(ctx context.Context) (dancemedia.ObjectStore, http.Handler, error) {
	s := c.Storage
	switch s.Backend {
	case StorageR2, StorageS3:
		cfg := s3storage.Config{
			Bucket:          s.Bucket,
			Region:          s.Region,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
			Endpoint:        s.Endpoint,
			UsePathStyle:    s.UsePathStyle,
			PublicDomain:    s.PublicDomain,
			MaxAttempts:     s.MaxAttempts,
			ConnectTimeout:  s.ConnectTimeout,
			Timeout:         s.Timeout,
			SkipACL:         s.SkipACL,
		}
		if s.Backend == StorageR2 {
			cfg.AccountID = s.AccountID
		}
		store, err := s3storage.New(ctx, cfg)
		return store, nil, err

	case StorageFS:
		store, err := fsstorage.New(fsstorage.Config{
			BaseDir:   s.FSBaseDir,
			PublicURL: c.localFilesURL(),
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Handler(), nil

	case StorageMemory:
		store, err := memorystorage.New(c.localFilesURL())
		if err != nil {
			return nil, nil, err
		}
		return store, store.Handler(), nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", s.Backend)
	}
}

// buildIdentity returns the token verifier and, when the service role key
// is configured, the account administrator.
func (c *ServerConfig) buildIdentity() (auth.IdentityProvider, dancemedia.UserAdmin, error) {
	var supabase *auth.Supabase
	if c.Auth.SupabaseURL != "" && c.Auth.SupabaseKey != "" {
		var err error
		supabase, err = auth.NewSupabase(auth.SupabaseConfig{
			URL:            c.Auth.SupabaseURL,
			AnonKey:        c.Auth.SupabaseKey,
			ServiceRoleKey: c.Auth.ServiceRoleKey,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	var users dancemedia.UserAdmin
	if supabase != nil && c.Auth.ServiceRoleKey != "" {
		users = supabase
	}

	switch c.Auth.Mode {
	case AuthModeJWT:
		provider, err := auth.NewJWT(c.Auth.JWTSecret)
		if err != nil {
			return nil, nil, err
		}
		return provider, users, nil
	case AuthModeSupabase:
		if supabase == nil {
			return nil, nil, errors.New("supabase is not configured")
		}
		return supabase, users, nil
	default:
		return nil, nil, fmt.Errorf("unsupported auth mode: %s", c.Auth.Mode)
	}
}
