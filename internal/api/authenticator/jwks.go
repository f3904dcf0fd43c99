package authenticator

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/curaious/projecthub/internal/services/user"
)

// JWKSVerifier validates RS256 access tokens against the issuer's published key set.
type JWKSVerifier struct {
	validator *validator.Validator
}

type accessClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (c *accessClaims) Validate(context.Context) error {
	return nil
}

func NewJWKSVerifier(issuer, audience string) (*JWKSVerifier, error) {
	issuerURL, err := url.Parse(issuer)
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
	v, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims { return &accessClaims{} }),
		validator.WithAllowedClockSkew(30*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &JWKSVerifier{validator: v}, nil
}

func (v *JWKSVerifier) Verify(ctx context.Context, token string) (*user.Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	payload, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, invalid(err)
	}

	claims, ok := payload.(*validator.ValidatedClaims)
	if !ok || claims.RegisteredClaims.Subject == "" {
		return nil, invalid(errors.New("token has no subject"))
	}

	id := &user.Identity{Subject: claims.RegisteredClaims.Subject}
	if custom, ok := claims.CustomClaims.(*accessClaims); ok {
		id.Email = custom.Email
		id.Name = custom.Name
	}
	return id, nil
}
