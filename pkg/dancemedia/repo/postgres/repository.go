package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements dancemedia.Repository and dancemedia.ProfileStore using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate entry in %s: %w", operation, err)
		case "23514": // check_violation
			return fmt.Errorf("invalid value in %s (constraint %s): %w", operation, pgErr.ConstraintName, err)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing: %w", pgErr.ColumnName, err)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required: %w", err)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

const mediaColumns = `id, created_at, title, file_path, media_type, thumbnail_url, uploader_id, user_id, region`

func (r *Repository) CreateMedia(ctx context.Context, item *dancemedia.MediaItem) error {
	query := `
		INSERT INTO media_items (
			title, file_path, media_type, thumbnail_url, uploader_id, user_id, region
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		item.Title, item.FilePath, string(item.MediaType), item.ThumbnailURL,
		item.UploaderID, item.UserID, item.Region,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return r.handlePostgresError("create media", err)
	}
	return nil
}

func (r *Repository) GetMedia(ctx context.Context, id uuid.UUID) (*dancemedia.MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_items WHERE id = $1`

	var item dancemedia.MediaItem
	var mediaType string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.CreatedAt, &item.Title, &item.FilePath, &mediaType,
		&item.ThumbnailURL, &item.UploaderID, &item.UserID, &item.Region)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dancemedia.ErrMediaNotFound
		}
		return nil, r.handlePostgresError("get media", err)
	}
	item.MediaType = dancemedia.MediaType(mediaType)
	return &item, nil
}

func (r *Repository) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM media_items WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete media", err)
	}
	if tag.RowsAffected() == 0 {
		return dancemedia.ErrMediaNotFound
	}
	return nil
}

func (r *Repository) GetProfileRole(ctx context.Context, userID uuid.UUID) (dancemedia.Role, error) {
	var role *string
	err := r.db.QueryRow(ctx, `SELECT role FROM profiles WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", dancemedia.ErrProfileNotFound
		}
		return "", r.handlePostgresError("get profile", err)
	}
	if role == nil {
		return dancemedia.RoleDancer, nil
	}
	return dancemedia.ParseRole(*role), nil
}

// Ping checks the connection when the underlying DBTX supports it
func (r *Repository) Ping(ctx context.Context) error {
	if p, ok := r.db.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	_, err := r.db.Exec(ctx, `SELECT 1`)
	return err
}

var (
	_ dancemedia.Repository   = (*Repository)(nil)
	_ dancemedia.ProfileStore = (*Repository)(nil)
)
