package controllers

import (
	"time"

	json "github.com/bytedance/sonic"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/projecthub/internal/db"
	"github.com/curaious/projecthub/internal/perrors"
	"github.com/curaious/projecthub/internal/services"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

var debugTables = []string{"users", "projects", "tasks", "payments", "notifications"}

func RegisterHealthRoutes(r *router.Router) {
	r.GET("/api/health", func(ctx *fasthttp.RequestCtx) {
		body, _ := json.Marshal(HealthResponse{Status: "OK", Message: "Server is running", Timestamp: time.Now().UTC()})
		ctx.Response.Header.Set("content-type", "application/json")
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBody(body)
	})
}

// RegisterDebugRoutes mounts unauthenticated inspection routes. Only enabled through
// DEBUG_ROUTES_ENABLED.
func RegisterDebugRoutes(r *router.Router, svc *services.Services) {
	r.GET("/api/debug/database", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		counts, err := db.TableCounts(stdCtx, svc.Conn, debugTables...)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to inspect database", err)
			return
		}

		writeOK(ctx, stdCtx, "Database inspected successfully", counts)
	})

	r.GET("/api/debug/users/{subject}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		subject, err := pathParam(ctx, "subject")
		if err != nil {
			writeError(ctx, stdCtx, "Subject is required", perrors.NewErrInvalidRequest("Subject is required", err))
			return
		}

		u, err := svc.User.Resolve(stdCtx, subject)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to look up user", err)
			return
		}

		writeOK(ctx, stdCtx, "User retrieved successfully", u)
	})

	r.GET("/api/debug/boards", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		if svc.Boards == nil {
			writeOK(ctx, stdCtx, "Board sync is disabled", []any{})
			return
		}

		boards, err := svc.Boards.Boards(stdCtx)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list boards", err)
			return
		}

		writeOK(ctx, stdCtx, "Boards retrieved successfully", boards)
	})
}
