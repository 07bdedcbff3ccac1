package dancemedia

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DeleteMedia removes the item's objects and then its row. Object deletes are
// best effort; only a failure to read or delete the row fails the call.
func (s *Service) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	item, err := s.repository.GetMedia(ctx, id)
	if err != nil {
		if errors.Is(err, ErrMediaNotFound) {
			return ErrMediaNotFound
		}
		return &PersistenceError{Op: "get media", Err: err}
	}

	s.deleteObject(ctx, item, item.FilePath)
	if item.ThumbnailURL != nil {
		s.deleteObject(ctx, item, *item.ThumbnailURL)
	}

	if err := s.repository.DeleteMedia(ctx, id); err != nil {
		if errors.Is(err, ErrMediaNotFound) {
			return ErrMediaNotFound
		}
		return &PersistenceError{Op: "delete media", Err: err}
	}

	s.eventSink.MediaDeleted(ctx, id)
	s.logger.Info("media deleted", "media_id", id)
	return nil
}

// deleteObject removes one object owned by item. Objects that cannot be
// deleted are logged with the whole row so they can be reconciled later.
func (s *Service) deleteObject(ctx context.Context, item *MediaItem, url string) {
	if url == "" {
		return
	}
	key, ok := s.store.KeyFromURL(url)
	if !ok {
		s.logger.Error("object url outside the public domain, object left in place",
			"media_id", item.ID,
			"url", url,
			"file_path", item.FilePath,
			"thumbnail_url", item.ThumbnailURL,
		)
		s.eventSink.ObjectDeleteFailed(ctx, url, ErrForeignObjectURL)
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		err = &StorageError{Op: "delete", Key: key, Err: err}
		s.logger.Warn("object delete failed, row will still be removed", "error", err)
		s.eventSink.ObjectDeleteFailed(ctx, key, err)
	}
}

// DeleteUser removes an identity provider account.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if s.users == nil {
		return fmt.Errorf("user administration is not configured")
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("delete user %s: %w", userID, err)
	}
	s.logger.Info("user deleted", "user_id", userID)
	return nil
}
