package authenticator

import (
	"context"
	"errors"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/curaious/projecthub/internal/services/user"
)

const (
	firebaseIssuerPrefix = "https://securetoken.google.com/"
	firebaseKeysURL      = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

// OIDCVerifier verifies OpenID Connect ID tokens, including Firebase ID tokens.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

type profileClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewFirebaseVerifier verifies Firebase ID tokens for projectID against Google's signing keys.
func NewFirebaseVerifier(ctx context.Context, projectID string) *OIDCVerifier {
	keySet := oidc.NewRemoteKeySet(ctx, firebaseKeysURL)
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(firebaseIssuerPrefix+projectID, keySet, &oidc.Config{ClientID: projectID}),
	}
}

// NewOIDCVerifier discovers issuer's configuration. An empty audience skips the client id check.
func NewOIDCVerifier(ctx context.Context, issuer, audience string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: audience, SkipClientIDCheck: audience == ""}),
	}, nil
}

func newOIDCVerifierWithKeys(issuer, audience string, keySet oidc.KeySet) *OIDCVerifier {
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{ClientID: audience}),
	}
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (*user.Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, invalid(err)
	}

	var claims profileClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, invalid(err)
	}
	if idToken.Subject == "" {
		return nil, invalid(errors.New("token has no subject"))
	}

	return &user.Identity{Subject: idToken.Subject, Email: claims.Email, Name: claims.Name}, nil
}
