package authenticator

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/curaious/projecthub/internal/services/user"
)

const hmacIssuer = "projecthub"

// HMACVerifier verifies HS256 tokens signed with a shared secret. It is meant for local
// development and tests, and can mint tokens with Issue.
type HMACVerifier struct {
	secret []byte
	now    func() time.Time
}

type hmacClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for id that expires after ttl.
func (v *HMACVerifier) Issue(id user.Identity, ttl time.Duration) (string, error) {
	if id.Subject == "" {
		return "", errors.New("subject is required")
	}
	now := v.now()
	claims := hmacClaims{
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    hmacIssuer,
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *HMACVerifier) Verify(_ context.Context, token string) (*user.Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	var claims hmacClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(hmacIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, invalid(err)
	}
	if claims.Subject == "" {
		return nil, invalid(errors.New("token has no subject"))
	}

	return &user.Identity{Subject: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}
