package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
)

// Repository implements dancemedia.Repository and dancemedia.ProfileStore
// using in-memory storage
type Repository struct {
	mu       sync.RWMutex
	media    map[uuid.UUID]*dancemedia.MediaItem
	profiles map[uuid.UUID]dancemedia.Role

	createErr error
	deleteErr error
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		media:    make(map[uuid.UUID]*dancemedia.MediaItem),
		profiles: make(map[uuid.UUID]dancemedia.Role),
	}
}

// SetProfile creates or replaces a user's profile role
func (r *Repository) SetProfile(userID uuid.UUID, role dancemedia.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[userID] = role
}

// FailCreates makes CreateMedia return err until cleared with nil
func (r *Repository) FailCreates(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createErr = err
}

// FailDeletes makes DeleteMedia return err until cleared with nil
func (r *Repository) FailDeletes(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteErr = err
}

func (r *Repository) CreateMedia(ctx context.Context, item *dancemedia.MediaItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	// Create a copy to avoid external modifications
	itemCopy := *item
	r.media[item.ID] = &itemCopy
	return nil
}

func (r *Repository) GetMedia(ctx context.Context, id uuid.UUID) (*dancemedia.MediaItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.media[id]
	if !exists {
		return nil, dancemedia.ErrMediaNotFound
	}
	itemCopy := *item
	return &itemCopy, nil
}

func (r *Repository) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, exists := r.media[id]; !exists {
		return dancemedia.ErrMediaNotFound
	}
	delete(r.media, id)
	return nil
}

// ListMedia returns all items, newest first
func (r *Repository) ListMedia(ctx context.Context) []*dancemedia.MediaItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*dancemedia.MediaItem, 0, len(r.media))
	for _, item := range r.media {
		itemCopy := *item
		items = append(items, &itemCopy)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

func (r *Repository) GetProfileRole(ctx context.Context, userID uuid.UUID) (dancemedia.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, exists := r.profiles[userID]
	if !exists {
		return "", dancemedia.ErrProfileNotFound
	}
	return dancemedia.ParseRole(string(role)), nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return nil
}

var (
	_ dancemedia.Repository   = (*Repository)(nil)
	_ dancemedia.ProfileStore = (*Repository)(nil)
)
