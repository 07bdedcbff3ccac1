// Package auth turns bearer credentials into principals.
//
// A credential is exchanged with an IdentityProvider for a user ID and the
// user's role is read from the profile store. Every failure along the way is
// an authentication failure; nothing is cached between requests.
package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
)

// IdentityProvider validates an access token and returns the user it belongs to.
type IdentityProvider interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// Verifier resolves bearer credentials to principals
type Verifier struct {
	provider IdentityProvider
	profiles dancemedia.ProfileStore
	logger   *slog.Logger
}

func NewVerifier(provider IdentityProvider, profiles dancemedia.ProfileStore, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{provider: provider, profiles: profiles, logger: logger}
}

// Verify returns ErrUnauthenticated for an empty credential,
// ErrInvalidCredential when the provider or profile lookup fails, and
// ErrProfileNotFound when the user has no profile.
func (v *Verifier) Verify(ctx context.Context, bearer string) (*dancemedia.Principal, error) {
	if bearer == "" {
		return nil, dancemedia.ErrUnauthenticated
	}

	userID, err := v.provider.Authenticate(ctx, bearer)
	if err != nil {
		v.logger.Info("credential rejected", "error", err)
		return nil, dancemedia.ErrInvalidCredential
	}

	role, err := v.profiles.GetProfileRole(ctx, userID)
	if err != nil {
		if errors.Is(err, dancemedia.ErrProfileNotFound) {
			return nil, dancemedia.ErrProfileNotFound
		}
		v.logger.Error("profile lookup failed", "user_id", userID, "error", err)
		return nil, dancemedia.ErrInvalidCredential
	}

	return &dancemedia.Principal{UserID: userID, Role: role}, nil
}

// Authorize returns ErrForbidden unless the principal holds one of allowed.
func Authorize(p *dancemedia.Principal, allowed ...dancemedia.Role) error {
	if p == nil {
		return dancemedia.ErrUnauthenticated
	}
	if !p.HasRole(allowed...) {
		return dancemedia.ErrForbidden
	}
	return nil
}
