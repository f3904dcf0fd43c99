// Package authenticator verifies bearer tokens issued by the configured identity provider
// and turns them into a user.Identity.
package authenticator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/curaious/projecthub/internal/config"
	"github.com/curaious/projecthub/internal/services/user"
)

var (
	ErrMissingToken = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Verifier checks a raw bearer token and returns the principal it was issued to.
type Verifier interface {
	Verify(ctx context.Context, token string) (*user.Identity, error)
}

// New returns the verifier selected by AUTH_PROVIDER.
func New(ctx context.Context, conf *config.Config) (Verifier, error) {
	switch conf.AUTH_PROVIDER {
	case config.AuthProviderFirebase:
		if conf.FIREBASE_PROJECT_ID == "" {
			return nil, errors.New("FIREBASE_PROJECT_ID is required for the firebase auth provider")
		}
		return NewFirebaseVerifier(ctx, conf.FIREBASE_PROJECT_ID), nil
	case config.AuthProviderOIDC:
		if conf.AUTH_ISSUER == "" {
			return nil, errors.New("AUTH_ISSUER is required for the oidc auth provider")
		}
		return NewOIDCVerifier(ctx, conf.AUTH_ISSUER, conf.AUTH_AUDIENCE)
	case config.AuthProviderJWKS:
		if conf.AUTH_ISSUER == "" || conf.AUTH_AUDIENCE == "" {
			return nil, errors.New("AUTH_ISSUER and AUTH_AUDIENCE are required for the jwks auth provider")
		}
		return NewJWKSVerifier(conf.AUTH_ISSUER, conf.AUTH_AUDIENCE)
	case "", config.AuthProviderHMAC:
		if conf.AUTH_HMAC_SECRET == "" {
			return nil, errors.New("AUTH_HMAC_SECRET is required for the hmac auth provider")
		}
		return NewHMACVerifier(conf.AUTH_HMAC_SECRET), nil
	default:
		return nil, fmt.Errorf("unsupported auth provider: %s", conf.AUTH_PROVIDER)
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidToken, err)
}
