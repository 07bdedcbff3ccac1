package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func mint(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWTAuthenticate(t *testing.T) {
	p, err := NewJWT(testSecret)
	require.NoError(t, err)
	ctx := context.Background()
	user := uuid.New()

	token := mint(t, testSecret, jwt.MapClaims{
		"sub":  user.String(),
		"role": "authenticated",
		"aud":  "authenticated",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	id, err := p.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user, id)
}

func TestJWTRejects(t *testing.T) {
	p, err := NewJWT(testSecret)
	require.NoError(t, err)
	ctx := context.Background()
	user := uuid.New().String()

	tests := []struct {
		name  string
		token string
	}{
		{"expired", mint(t, testSecret, jwt.MapClaims{"sub": user, "exp": time.Now().Add(-time.Hour).Unix()})},
		{"wrong secret", mint(t, "another-secret-another-secret-another", jwt.MapClaims{"sub": user, "exp": time.Now().Add(time.Hour).Unix()})},
		{"bad subject", mint(t, testSecret, jwt.MapClaims{"sub": "service", "exp": time.Now().Add(time.Hour).Unix()})},
		{"malformed", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Authenticate(ctx, tt.token)
			assert.Error(t, err)
		})
	}
}

func TestNewJWTRequiresSecret(t *testing.T) {
	_, err := NewJWT("")
	assert.Error(t, err)
}
