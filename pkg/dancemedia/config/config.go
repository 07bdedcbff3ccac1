// Package config reads the server configuration from the environment and
// assembles the service from it.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	AuthModeSupabase = "supabase"
	AuthModeJWT      = "jwt"

	StorageR2     = "r2"
	StorageS3     = "s3"
	StorageFS     = "fs"
	StorageMemory = "memory"
)

// ServerConfig represents server configuration for the media backend
type ServerConfig struct {
	Port           string        `env:"PORT" env-default:"8000"`
	Environment    string        `env:"ENVIRONMENT" env-default:"development"`
	LogLevel       string        `env:"LOG_LEVEL" env-default:"info"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" env-default:"*"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" env-default:"15m"`

	Auth     AuthConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Media    MediaConfig
}

type AuthConfig struct {
	Mode           string `env:"AUTH_MODE" env-default:"supabase"` // supabase, jwt
	SupabaseURL    string `env:"SUPABASE_URL"`
	SupabaseKey    string `env:"SUPABASE_KEY"`
	ServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`
	JWTSecret      string `env:"SUPABASE_JWT_SECRET"`
}

// DatabaseConfig selects Postgres when URL is set and the in-memory store otherwise.
type DatabaseConfig struct {
	URL           string `env:"DATABASE_URL"`
	Schema        string `env:"DB_SCHEMA" env-default:"public"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" env-default:"false"`
}

type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND" env-default:"r2"` // r2, s3, fs, memory

	AccountID       string `env:"R2_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	Bucket          string `env:"R2_BUCKET_NAME"`
	PublicDomain    string `env:"R2_PUBLIC_DOMAIN"`
	Endpoint        string `env:"S3_ENDPOINT"`
	Region          string `env:"S3_REGION" env-default:"auto"`
	UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	SkipACL         bool   `env:"S3_SKIP_ACL" env-default:"false"`

	MaxAttempts    int           `env:"STORE_MAX_ATTEMPTS" env-default:"3"`
	ConnectTimeout time.Duration `env:"STORE_CONNECT_TIMEOUT" env-default:"60s"`
	Timeout        time.Duration `env:"STORE_TIMEOUT" env-default:"300s"`

	FSBaseDir   string `env:"FS_BASE_DIR" env-default:"./data/media"`
	FSPublicURL string `env:"FS_PUBLIC_URL"`
}

type MediaConfig struct {
	ScratchDir       string        `env:"SCRATCH_DIR"`
	ScratchMaxAge    time.Duration `env:"SCRATCH_MAX_AGE" env-default:"6h"`
	MaxUploadBytes   int64         `env:"MAX_UPLOAD_BYTES" env-default:"2147483648"`
	TranscodeEnabled bool          `env:"TRANSCODE_ENABLED" env-default:"true"`
	FFmpegPath       string        `env:"FFMPEG_PATH" env-default:"ffmpeg"`
	TranscodeWorkers int           `env:"TRANSCODE_WORKERS" env-default:"0"`
	ThumbnailOffset  time.Duration `env:"THUMBNAIL_OFFSET" env-default:"1s"`
	ThumbnailWidth   int           `env:"THUMBNAIL_WIDTH" env-default:"480"`
	VideoCRF         int           `env:"VIDEO_CRF" env-default:"23"`
	VideoPreset      string        `env:"VIDEO_PRESET" env-default:"veryfast"`
	VideoAudioRate   string        `env:"VIDEO_AUDIO_BITRATE" env-default:"128k"`
	AudioBitrate     string        `env:"AUDIO_BITRATE" env-default:"192k"`
}

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load reads the environment, applies opts on top and validates the result.
func Load(opts ...Option) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Usage describes every recognized environment variable.
func Usage() string {
	var cfg ServerConfig
	desc, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return desc
}

func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		c.Port = port
		return nil
	}
}

func WithStorageBackend(backend string) Option {
	return func(c *ServerConfig) error {
		c.Storage.Backend = backend
		return nil
	}
}

func WithDatabaseURL(databaseURL string) Option {
	return func(c *ServerConfig) error {
		c.Database.URL = databaseURL
		return nil
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}

	switch c.Auth.Mode {
	case AuthModeSupabase:
		if c.Auth.SupabaseURL == "" || c.Auth.SupabaseKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_KEY are required when AUTH_MODE=supabase")
		}
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return errors.New("SUPABASE_JWT_SECRET is required when AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeSupabase, AuthModeJWT, c.Auth.Mode)
	}

	if c.Database.Schema != "" && !isIdentifier(c.Database.Schema) {
		return fmt.Errorf("DB_SCHEMA %q is not a valid identifier", c.Database.Schema)
	}

	s := c.Storage
	switch s.Backend {
	case StorageR2:
		if s.AccountID == "" {
			return errors.New("R2_ACCOUNT_ID is required when STORAGE_BACKEND=r2")
		}
		fallthrough
	case StorageS3:
		if s.Bucket == "" {
			return errors.New("R2_BUCKET_NAME is required")
		}
		if s.PublicDomain == "" {
			return errors.New("R2_PUBLIC_DOMAIN is required")
		}
		if s.MaxAttempts < 1 {
			return errors.New("STORE_MAX_ATTEMPTS must be at least 1")
		}
	case StorageFS:
		if s.FSBaseDir == "" {
			return errors.New("FS_BASE_DIR is required when STORAGE_BACKEND=fs")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", s.Backend)
	}
	if s.FSPublicURL != "" {
		if _, err := url.Parse(s.FSPublicURL); err != nil {
			return fmt.Errorf("FS_PUBLIC_URL: %w", err)
		}
	}

	if c.Media.MaxUploadBytes < 0 {
		return errors.New("MAX_UPLOAD_BYTES must not be negative")
	}
	if c.Media.TranscodeWorkers < 0 {
		return errors.New("TRANSCODE_WORKERS must not be negative")
	}
	return nil
}

// IsDevelopment reports whether the server runs in a local environment.
func (c *ServerConfig) IsDevelopment() bool {
	switch strings.ToLower(c.Environment) {
	case "", "dev", "development", "local":
		return true
	}
	return false
}

// localFilesURL is where fs and memory objects are served by this process.
func (c *ServerConfig) localFilesURL() string {
	if c.Storage.FSPublicURL != "" {
		return c.Storage.FSPublicURL
	}
	return "http://localhost:" + c.Port + "/files"
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
