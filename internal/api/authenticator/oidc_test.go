package authenticator

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://securetoken.google.com/demo-project"

func signRS256(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestOIDCVerifier_AcceptsSignedIDToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := newOIDCVerifierWithKeys(testIssuer, "demo-project", &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}})

	token := signRS256(t, key, jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   "demo-project",
		"sub":   "uid-42",
		"email": "bo@example.com",
		"name":  "Bo",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "uid-42", id.Subject)
	assert.Equal(t, "bo@example.com", id.Email)
	assert.Equal(t, "Bo", id.Name)
}

func TestOIDCVerifier_RejectsForeignAudienceAndKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := newOIDCVerifierWithKeys(testIssuer, "demo-project", &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}})
	exp := time.Now().Add(time.Hour).Unix()

	wrongAud := signRS256(t, key, jwt.MapClaims{"iss": testIssuer, "aud": "other-project", "sub": "u", "exp": exp})
	_, err = v.Verify(context.Background(), wrongAud)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongKey := signRS256(t, other, jwt.MapClaims{"iss": testIssuer, "aud": "demo-project", "sub": "u", "exp": exp})
	_, err = v.Verify(context.Background(), wrongKey)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}
