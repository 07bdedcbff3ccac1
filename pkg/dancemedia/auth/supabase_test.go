package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
)

func newGoTrue(t *testing.T, user uuid.UUID, deleted *[]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "anon" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": user.String(), "email": "maestra@example.com"})
		case "Bearer weird":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "not-a-uuid"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
		}
	})
	mux.HandleFunc("/auth/v1/admin/users/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.Header.Get("Authorization") != "Bearer service" || r.Header.Get("apikey") != "service" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		id := r.URL.Path[len("/auth/v1/admin/users/"):]
		if id != user.String() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		*deleted = append(*deleted, id)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSupabaseAuthenticate(t *testing.T) {
	user := uuid.New()
	var deleted []string
	srv := newGoTrue(t, user, &deleted)

	s, err := NewSupabase(SupabaseConfig{URL: srv.URL + "/", AnonKey: "anon", ServiceRoleKey: "service"})
	require.NoError(t, err)
	ctx := context.Background()

	id, err := s.Authenticate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, user, id)

	_, err = s.Authenticate(ctx, "expired")
	assert.Error(t, err)

	_, err = s.Authenticate(ctx, "weird")
	assert.Error(t, err)
}

func TestSupabaseUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s, err := NewSupabase(SupabaseConfig{URL: url, AnonKey: "anon"})
	require.NoError(t, err)
	_, err = s.Authenticate(context.Background(), "good")
	assert.Error(t, err)
}

func TestSupabaseDeleteUser(t *testing.T) {
	user := uuid.New()
	var deleted []string
	srv := newGoTrue(t, user, &deleted)
	ctx := context.Background()

	s, err := NewSupabase(SupabaseConfig{URL: srv.URL, AnonKey: "anon", ServiceRoleKey: "service"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, user))
	assert.Equal(t, []string{user.String()}, deleted)

	assert.ErrorIs(t, s.DeleteUser(ctx, uuid.New()), dancemedia.ErrUserNotFound)

	noAdmin, err := NewSupabase(SupabaseConfig{URL: srv.URL, AnonKey: "anon"})
	require.NoError(t, err)
	assert.Error(t, noAdmin.DeleteUser(ctx, user))

	wrongKey, err := NewSupabase(SupabaseConfig{URL: srv.URL, AnonKey: "anon", ServiceRoleKey: "nope"})
	require.NoError(t, err)
	err = wrongKey.DeleteUser(ctx, user)
	require.Error(t, err)
	assert.NotErrorIs(t, err, dancemedia.ErrUserNotFound)
}

func TestNewSupabaseValidation(t *testing.T) {
	_, err := NewSupabase(SupabaseConfig{AnonKey: "anon"})
	assert.Error(t, err)
	_, err = NewSupabase(SupabaseConfig{URL: "https://x.supabase.co"})
	assert.Error(t, err)
}
