// Package dashboard composes read-only aggregate views over projects and tasks.
package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/curaious/projecthub/internal/perrors"
	"github.com/curaious/projecthub/internal/services/project"
	"github.com/curaious/projecthub/internal/services/task"
	"github.com/curaious/projecthub/internal/services/user"
)

// RecentProjectLimit is how many projects the manager dashboard lists.
const RecentProjectLimit = 5

type ProjectReader interface {
	Stats(ctx context.Context, actor *user.User) (*project.Stats, error)
	ListForManager(ctx context.Context, actor *user.User) ([]*project.ProjectView, error)
	ClientStats(ctx context.Context, actor *user.User) (*project.ClientStats, error)
	UpcomingDeadlines(ctx context.Context, actor *user.User) ([]*project.ProjectView, error)
}

type TaskReader interface {
	ListOverdue(ctx context.Context, actor *user.User) ([]*task.TaskView, error)
}

type ManagerDashboard struct {
	Stats          *project.Stats         `json:"stats"`
	OverdueTasks   int                    `json:"overdue_tasks"`
	RecentProjects []*project.ProjectView `json:"recent_projects"`
	TotalTasks     int64                  `json:"total_tasks"`
	CompletedTasks int64                  `json:"completed_tasks"`
}

type ClientDashboard struct {
	Stats             *project.ClientStats   `json:"stats"`
	UpcomingDeadlines []*project.ProjectView `json:"upcoming_deadlines"`
}

type DashboardService struct {
	projects ProjectReader
	tasks    TaskReader
}

func NewDashboardService(projects ProjectReader, tasks TaskReader) *DashboardService {
	return &DashboardService{projects: projects, tasks: tasks}
}

// Manager reads stats, overdue tasks and projects concurrently, then folds task totals
// over every non-archived project.
func (s *DashboardService) Manager(ctx context.Context, actor *user.User) (*ManagerDashboard, error) {
	if !actor.IsManager() {
		return nil, perrors.NewErrForbidden("Only managers can view the manager dashboard", nil)
	}

	var (
		stats    *project.Stats
		overdue  []*task.TaskView
		projects []*project.ProjectView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.projects.Stats(gctx, actor)
		return err
	})
	g.Go(func() (err error) {
		overdue, err = s.tasks.ListOverdue(gctx, actor)
		return err
	})
	g.Go(func() (err error) {
		projects, err = s.projects.ListForManager(gctx, actor)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &ManagerDashboard{
		Stats:          stats,
		OverdueTasks:   len(overdue),
		RecentProjects: projects[:min(len(projects), RecentProjectLimit)],
	}
	for _, p := range projects {
		d.TotalTasks += p.TotalTasks
		d.CompletedTasks += p.CompletedTasks
	}
	return d, nil
}

func (s *DashboardService) ManagerStats(ctx context.Context, actor *user.User) (*project.Stats, error) {
	if !actor.IsManager() {
		return nil, perrors.NewErrForbidden("Only managers can view the manager dashboard", nil)
	}
	return s.projects.Stats(ctx, actor)
}

func (s *DashboardService) Client(ctx context.Context, actor *user.User) (*ClientDashboard, error) {
	var d ClientDashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Stats, err = s.projects.ClientStats(gctx, actor)
		return err
	})
	g.Go(func() (err error) {
		d.UpcomingDeadlines, err = s.projects.UpcomingDeadlines(gctx, actor)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}
