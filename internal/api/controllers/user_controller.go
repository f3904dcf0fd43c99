package controllers

import (
	"strings"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/projecthub/internal/perrors"
	"github.com/curaious/projecthub/internal/services"
	"github.com/curaious/projecthub/internal/services/user"
)

type SyncUserResponse struct {
	User     *user.User `json:"user"`
	Inserted bool       `json:"inserted"`
}

func RegisterUserRoutes(r *router.Router, svc *services.Services) {
	// List users, optionally filtered by role
	r.GET("/api/users", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		if _, err := currentUser(ctx, stdCtx, svc); err != nil {
			writeError(ctx, stdCtx, "Failed to list users", err)
			return
		}

		users, err := svc.User.List(stdCtx, user.UserRole(queryString(ctx, "role")))
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list users", err)
			return
		}

		writeOK(ctx, stdCtx, "Users retrieved successfully", users)
	})

	// Admin creation
	r.POST("/api/users", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		actor, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create user", err)
			return
		}

		var body user.CreateUserRequest
		if err := parseBody(ctx, &body, nil); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		created, err := svc.User.Create(stdCtx, actor, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create user", err)
			return
		}

		writeCreated(ctx, stdCtx, "User created successfully", created)
	})

	// Sync the caller's identity. Subject and email always come from the verified token;
	// a body email naming a different account is refused.
	r.POST("/api/users/sync", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id := IdentityFrom(ctx)
		if id == nil {
			writeError(ctx, stdCtx, "Failed to sync user", perrors.NewErrUnauthorized("Access denied. No token provided.", nil))
			return
		}

		var body user.SyncUserRequest
		if len(ctx.PostBody()) > 0 {
			if err := parseBody(ctx, &body, nil); err != nil {
				writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
				return
			}
		}
		if claimed := strings.TrimSpace(body.Email); claimed != "" && !strings.EqualFold(claimed, id.Email) {
			writeError(ctx, stdCtx, "Failed to sync user", perrors.NewErrForbidden("Email does not match the signed-in account", nil,
				map[string]interface{}{"subject": id.Subject}))
			return
		}
		body.Subject = id.Subject
		body.Email = id.Email
		if body.Name == "" {
			body.Name = id.DisplayName()
		}

		u, inserted, err := svc.User.Sync(stdCtx, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to sync user", err)
			return
		}

		writeOK(ctx, stdCtx, "User synced successfully", SyncUserResponse{User: u, Inserted: inserted})
	})

	// Get user by id
	r.GET("/api/users/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", err)
			return
		}
		if _, err := currentUser(ctx, stdCtx, svc); err != nil {
			writeError(ctx, stdCtx, "Failed to get user", err)
			return
		}

		u, err := svc.User.GetByID(stdCtx, id)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to get user", err)
			return
		}

		writeOK(ctx, stdCtx, "User retrieved successfully", u)
	})

	// Update own profile
	r.PUT("/api/users/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", err)
			return
		}
		actor, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to update user", err)
			return
		}

		var body user.UpdateUserRequest
		if err := parseBody(ctx, &body, nil); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		u, err := svc.User.UpdateName(stdCtx, actor, id, body.Name)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to update user", err)
			return
		}

		writeOK(ctx, stdCtx, "User updated successfully", u)
	})
}
