package authenticator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/projecthub/internal/config"
	"github.com/curaious/projecthub/internal/services/user"
)

func TestHMACVerifier_RoundTrip(t *testing.T) {
	v := NewHMACVerifier("s3cret")

	token, err := v.Issue(user.Identity{Subject: "firebase-uid-1", Email: "ana@example.com", Name: "Ana"}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid-1", id.Subject)
	assert.Equal(t, "ana@example.com", id.Email)
	assert.Equal(t, "Ana", id.Name)
}

func TestHMACVerifier_Expired(t *testing.T) {
	v := NewHMACVerifier("s3cret")
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return issued }

	token, err := v.Issue(user.Identity{Subject: "u1"}, time.Minute)
	require.NoError(t, err)

	v.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHMACVerifier_WrongSecret(t *testing.T) {
	token, err := NewHMACVerifier("one").Issue(user.Identity{Subject: "u1"}, time.Hour)
	require.NoError(t, err)

	_, err = NewHMACVerifier("two").Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHMACVerifier_Garbage(t *testing.T) {
	v := NewHMACVerifier("s3cret")

	_, err := v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = v.Verify(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Issue(user.Identity{}, time.Hour)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer   abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken("Bearer"))
	assert.Equal(t, "", BearerToken(""))
}

func TestNew_SelectsProvider(t *testing.T) {
	ctx := context.Background()

	v, err := New(ctx, &config.Config{AUTH_PROVIDER: config.AuthProviderHMAC, AUTH_HMAC_SECRET: "x"})
	require.NoError(t, err)
	assert.IsType(t, &HMACVerifier{}, v)

	v, err = New(ctx, &config.Config{AUTH_PROVIDER: config.AuthProviderFirebase, FIREBASE_PROJECT_ID: "demo"})
	require.NoError(t, err)
	assert.IsType(t, &OIDCVerifier{}, v)

	v, err = New(ctx, &config.Config{AUTH_PROVIDER: config.AuthProviderJWKS, AUTH_ISSUER: "https://issuer.example.com/", AUTH_AUDIENCE: "api"})
	require.NoError(t, err)
	assert.IsType(t, &JWKSVerifier{}, v)

	_, err = New(ctx, &config.Config{AUTH_PROVIDER: config.AuthProviderHMAC})
	assert.Error(t, err)

	_, err = New(ctx, &config.Config{AUTH_PROVIDER: "saml"})
	assert.Error(t, err)
}
