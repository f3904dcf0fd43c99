package controllers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/projecthub/internal/perrors"
	"github.com/curaious/projecthub/internal/services"
	"github.com/curaious/projecthub/internal/services/task"
	"github.com/curaious/projecthub/internal/services/user"
)

func RegisterTaskRoutes(r *router.Router, svc *services.Services) {
	// Create task
	r.POST("/api/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		actor, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create task", err)
			return
		}

		var body task.CreateTaskRequest
		if err := parseBody(ctx, &body, task.RequestAliases); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		created, err := svc.Task.Create(stdCtx, actor, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create task", err)
			return
		}

		writeCreated(ctx, stdCtx, "Task created successfully", created)
	})

	// List tasks across the manager's projects, or overdue tasks
	r.GET("/api/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		actor, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list tasks", err)
			return
		}

		var tasks []*task.TaskView
		switch queryString(ctx, "scope") {
		case "", scopeManager:
			tasks, err = svc.Task.ListForManager(stdCtx, actor)
		case scopeOverdue:
			tasks, err = svc.Task.ListOverdue(stdCtx, actor)
		default:
			err = perrors.NewErrBadRequest("scope must be manager or overdue", nil)
		}
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list tasks", err)
			return
		}

		writeOK(ctx, stdCtx, "Tasks retrieved successfully", tasks)
	})

	// Tasks of a project, by due date or by priority
	r.GET("/api/projects/{id}/tasks", idRoute(svc, "Failed to list tasks", "Tasks retrieved successfully",
		func(stdCtx context.Context, ctx *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			byPriority := false
			switch queryString(ctx, "order") {
			case "", "due_date":
			case "priority":
				byPriority = true
			default:
				return nil, perrors.NewErrBadRequest("order must be due_date or priority", nil)
			}
			return svc.Task.ListByProject(stdCtx, actor, id, byPriority)
		}))

	r.GET("/api/tasks/{id}", idRoute(svc, "Failed to get task", "Task retrieved successfully",
		func(stdCtx context.Context, _ *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			return svc.Task.Get(stdCtx, actor, id)
		}))

	// Full update
	r.PUT("/api/tasks/{id}", idRoute(svc, "Failed to update task", "Task updated successfully",
		func(stdCtx context.Context, ctx *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			var body task.UpdateTaskRequest
			if err := parseBody(ctx, &body, task.RequestAliases); err != nil {
				return nil, invalidBody(err)
			}
			return svc.Task.Update(stdCtx, actor, id, &body)
		}))

	r.PATCH("/api/tasks/{id}/status", idRoute(svc, "Failed to update task status", "Task status updated successfully",
		func(stdCtx context.Context, ctx *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			var body task.StatusUpdateRequest
			if err := parseBody(ctx, &body, nil); err != nil {
				return nil, invalidBody(err)
			}
			return svc.Task.UpdateStatus(stdCtx, actor, id, &body)
		}))

	// Status plus notes
	r.PATCH("/api/tasks/{id}/client-update", idRoute(svc, "Failed to update task", "Task updated successfully",
		func(stdCtx context.Context, ctx *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			var body task.ClientUpdateRequest
			if err := parseBody(ctx, &body, nil); err != nil {
				return nil, invalidBody(err)
			}
			return svc.Task.ClientUpdate(stdCtx, actor, id, &body)
		}))

	r.DELETE("/api/tasks/{id}", idRoute(svc, "Failed to delete task", "Task deleted successfully",
		func(stdCtx context.Context, _ *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			if err := svc.Task.Delete(stdCtx, actor, id); err != nil {
				return nil, err
			}
			return map[string]int64{"id": id}, nil
		}))
}
