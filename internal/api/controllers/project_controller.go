package controllers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/projecthub/internal/perrors"
	"github.com/curaious/projecthub/internal/services"
	"github.com/curaious/projecthub/internal/services/project"
	"github.com/curaious/projecthub/internal/services/user"
)

const (
	scopeManager  = "manager"
	scopeClient   = "client"
	scopeArchived = "archived"
	scopeOverdue  = "overdue"
)

// CreateProjectResponse echoes the generated id next to the stored row.
type CreateProjectResponse struct {
	ProjectID int64            `json:"projectId"`
	Project   *project.Project `json:"project"`
}

func RegisterProjectRoutes(r *router.Router, svc *services.Services) {
	// Create project
	r.POST("/api/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		actor, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create project", err)
			return
		}

		var body project.CreateProjectRequest
		if err := parseBody(ctx, &body, project.CreateAliases); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		created, err := svc.Project.Create(stdCtx, actor, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create project", err)
			return
		}

		writeOK(ctx, stdCtx, "Project created successfully", CreateProjectResponse{ProjectID: created.ID, Project: created})
	})

	// List projects. scope defaults to the caller's role.
	r.GET("/api/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		actor, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list projects", err)
			return
		}

		scope := queryString(ctx, "scope")
		if scope == "" {
			scope = scopeClient
			if actor.IsManager() {
				scope = scopeManager
			}
		}

		var projects []*project.ProjectView
		switch scope {
		case scopeManager:
			projects, err = svc.Project.ListForManager(stdCtx, actor)
		case scopeClient:
			projects, err = svc.Project.ListForClient(stdCtx, actor)
		case scopeArchived:
			projects, err = svc.Project.ListArchived(stdCtx, actor)
		default:
			err = perrors.NewErrBadRequest("scope must be manager, client or archived", nil)
		}
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list projects", err)
			return
		}

		writeOK(ctx, stdCtx, "Projects retrieved successfully", projects)
	})

	// Stats for the caller's role
	r.GET("/api/projects/stats", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		actor, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to get project stats", err)
			return
		}

		var stats any
		if actor.IsManager() {
			stats, err = svc.Project.Stats(stdCtx, actor)
		} else {
			stats, err = svc.Project.ClientStats(stdCtx, actor)
		}
		if err != nil {
			writeError(ctx, stdCtx, "Failed to get project stats", err)
			return
		}

		writeOK(ctx, stdCtx, "Project stats retrieved successfully", stats)
	})

	// Get project by id
	r.GET("/api/projects/{id}", idRoute(svc, "Failed to get project", "Project retrieved successfully",
		func(stdCtx context.Context, ctx *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			return svc.Project.Get(stdCtx, actor, id)
		}))

	// Update details, manager only
	r.PATCH("/api/projects/{id}", idRoute(svc, "Failed to update project", "Project updated successfully",
		func(stdCtx context.Context, ctx *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			var body project.UpdateProjectRequest
			if err := parseBody(ctx, &body, project.UpdateAliases); err != nil {
				return nil, invalidBody(err)
			}
			return svc.Project.Update(stdCtx, actor, id, &body)
		}))

	// Update progress, client only
	r.PATCH("/api/projects/{id}/progress", idRoute(svc, "Failed to update project progress", "Project progress updated successfully",
		func(stdCtx context.Context, ctx *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			var body project.UpdateProgressRequest
			if err := parseBody(ctx, &body, project.ProgressAliases); err != nil {
				return nil, invalidBody(err)
			}
			return svc.Project.UpdateProgress(stdCtx, actor, id, &body)
		}))

	r.PATCH("/api/projects/{id}/archive", idRoute(svc, "Failed to archive project", "Project archived successfully",
		func(stdCtx context.Context, _ *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			return svc.Project.Archive(stdCtx, actor, id)
		}))

	r.PATCH("/api/projects/{id}/unarchive", idRoute(svc, "Failed to unarchive project", "Project unarchived successfully",
		func(stdCtx context.Context, _ *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			return svc.Project.Unarchive(stdCtx, actor, id)
		}))

	// Pull completion from the project board
	r.POST("/api/projects/{id}/board-sync", idRoute(svc, "Failed to sync project board", "Project board synced successfully",
		func(stdCtx context.Context, _ *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			return svc.Project.SyncBoard(stdCtx, actor, id)
		}))

	// Hard delete, manager only
	r.DELETE("/api/projects/{id}", idRoute(svc, "Failed to delete project", "Project deleted successfully",
		func(stdCtx context.Context, _ *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			if err := svc.Project.Delete(stdCtx, actor, id); err != nil {
				return nil, err
			}
			return map[string]int64{"id": id}, nil
		}))
}
