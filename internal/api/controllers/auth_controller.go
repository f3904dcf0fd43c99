package controllers

import (
	"errors"

	json "github.com/bytedance/sonic"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/projecthub/internal/api/authenticator"
	"github.com/curaious/projecthub/internal/perrors"
	"github.com/curaious/projecthub/internal/services"
	"github.com/curaious/projecthub/internal/services/user"
)

type tokenRequest struct {
	Token string `json:"token"`
}

type LoginResponse struct {
	User      *user.User `json:"user"`
	IsNewUser bool       `json:"is_new_user"`
}

type VerifyResponse struct {
	Subject    string     `json:"subject"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Registered bool       `json:"registered"`
	User       *user.User `json:"user,omitempty"`
}

// RegisterAuthRoutes mounts the token exchange routes. login and verify are public and read
// the token themselves, so clients that cannot set headers may post it in the body.
func RegisterAuthRoutes(r *router.Router, svc *services.Services, verifier authenticator.Verifier) {
	// Login: verify the token and register the user on first sight
	r.POST("/api/auth/login", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := verifyRequestToken(ctx, verifier)
		if err != nil {
			writeError(ctx, stdCtx, "Login failed", err)
			return
		}

		u, created, err := svc.User.Login(stdCtx, *id)
		if err != nil {
			writeError(ctx, stdCtx, "Login failed", err)
			return
		}

		writeOK(ctx, stdCtx, "Login successful", LoginResponse{User: u, IsNewUser: created})
	})

	// Verify: check the token and report whether its subject is registered
	r.POST("/api/auth/verify", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := verifyRequestToken(ctx, verifier)
		if err != nil {
			writeError(ctx, stdCtx, "Token verification failed", err)
			return
		}

		out := VerifyResponse{Subject: id.Subject, Email: id.Email, Name: id.DisplayName()}
		u, err := svc.User.Resolve(stdCtx, id.Subject)
		switch {
		case err == nil:
			out.Registered = true
			out.User = u
		case perrors.HasCode(err, perrors.ErrCodeNotFound):
		default:
			writeError(ctx, stdCtx, "Token verification failed", err)
			return
		}

		writeOK(ctx, stdCtx, "Token is valid", out)
	})

	// Current user
	r.GET("/api/auth/me", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		u, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to load profile", err)
			return
		}

		writeOK(ctx, stdCtx, "Profile retrieved successfully", u)
	})
}

func verifyRequestToken(ctx *fasthttp.RequestCtx, verifier authenticator.Verifier) (*user.Identity, error) {
	token := authenticator.BearerToken(string(ctx.Request.Header.Peek("Authorization")))
	if token == "" && len(ctx.PostBody()) > 0 {
		var body tokenRequest
		if err := json.Unmarshal(ctx.PostBody(), &body); err == nil {
			token = body.Token
		}
	}
	if token == "" {
		return nil, perrors.NewErrUnauthorized("Access denied. No token provided.", nil)
	}

	id, err := verifier.Verify(requestContext(ctx), token)
	if err != nil {
		if errors.Is(err, authenticator.ErrMissingToken) {
			return nil, perrors.NewErrUnauthorized("Access denied. No token provided.", err)
		}
		return nil, perrors.NewErrUnauthorized("Invalid or expired token", err)
	}
	return id, nil
}
