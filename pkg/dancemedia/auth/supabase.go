package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
)

// SupabaseConfig configures the GoTrue client
type SupabaseConfig struct {
	URL            string // Project URL, e.g. https://xyz.supabase.co
	AnonKey        string // Public API key sent with user requests
	ServiceRoleKey string // Required for admin calls
	Timeout        time.Duration
}

// Supabase talks to the Supabase auth (GoTrue) HTTP API. It implements
// IdentityProvider and dancemedia.UserAdmin.
type Supabase struct {
	baseURL    string
	anonKey    string
	serviceKey string
	client     *http.Client
}

func NewSupabase(config SupabaseConfig) (*Supabase, error) {
	if config.URL == "" {
		return nil, errors.New("supabase url is required")
	}
	if config.AnonKey == "" {
		return nil, errors.New("supabase key is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Supabase{
		baseURL:    strings.TrimRight(config.URL, "/") + "/auth/v1",
		anonKey:    config.AnonKey,
		serviceKey: config.ServiceRoleKey,
		client:     &http.Client{Timeout: config.Timeout},
	}, nil
}

type gotrueUser struct {
	ID string `json:"id"`
}

// Authenticate asks GoTrue who the token belongs to.
func (s *Supabase) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/user", nil)
	if err != nil {
		return uuid.Nil, err
	}
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("get user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return uuid.Nil, fmt.Errorf("get user: status %d", resp.StatusCode)
	}

	var user gotrueUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&user); err != nil {
		return uuid.Nil, fmt.Errorf("decode user: %w", err)
	}
	id, err := uuid.Parse(user.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user id %q: %w", user.ID, err)
	}
	return id, nil
}

// DeleteUser removes the account with the service role key.
func (s *Supabase) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if s.serviceKey == "" {
		return errors.New("supabase service role key is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/admin/users/"+userID.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return dancemedia.ErrUserNotFound
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("delete user: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

var (
	_ IdentityProvider     = (*Supabase)(nil)
	_ dancemedia.UserAdmin = (*Supabase)(nil)
)
