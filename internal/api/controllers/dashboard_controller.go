package controllers

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/projecthub/internal/services"
)

func RegisterDashboardRoutes(r *router.Router, svc *services.Services) {
	r.GET("/api/dashboard/manager", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		actor, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to load dashboard", err)
			return
		}

		dash, err := svc.Dashboard.Manager(stdCtx, actor)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to load dashboard", err)
			return
		}

		writeOK(ctx, stdCtx, "Dashboard retrieved successfully", dash)
	})

	r.GET("/api/dashboard/manager/stats", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		actor, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to load dashboard stats", err)
			return
		}

		stats, err := svc.Dashboard.ManagerStats(stdCtx, actor)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to load dashboard stats", err)
			return
		}

		writeOK(ctx, stdCtx, "Dashboard stats retrieved successfully", stats)
	})

	r.GET("/api/dashboard/client", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		actor, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to load dashboard", err)
			return
		}

		dash, err := svc.Dashboard.Client(stdCtx, actor)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to load dashboard", err)
			return
		}

		writeOK(ctx, stdCtx, "Dashboard retrieved successfully", dash)
	})
}
