package task

import (
	"context"
	"sort"
	"time"

	"github.com/curaious/projecthub/internal/services/notification"
	"github.com/curaious/projecthub/internal/services/project"
	"github.com/curaious/projecthub/internal/services/user"
)

type fakeStore struct {
	tasks  map[int64]*Task
	nextID int64
	titles map[int64]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{tasks: map[int64]*Task{}, nextID: 1, titles: map[int64]string{}}
}

func (f *fakeStore) view(t *Task) *TaskView {
	title := f.titles[t.ProjectID]
	return &TaskView{Task: *t, ProjectTitle: &title}
}

func (f *fakeStore) Create(_ context.Context, req *CreateTaskRequest) (*Task, error) {
	t := &Task{
		ID:          f.nextID,
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo.Ptr(),
		CreatedAt:   time.Now(),
	}
	f.nextID++
	f.tasks[t.ID] = t
	cp := *t
	return &cp, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*TaskView, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return f.view(t), nil
}

func (f *fakeStore) ListByProject(_ context.Context, projectID int64, _ bool) ([]*TaskView, error) {
	out := []*TaskView{}
	for _, t := range f.tasks {
		if t.ProjectID == projectID {
			out = append(out, f.view(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListByManager(context.Context, int64) ([]*TaskView, error) {
	return []*TaskView{}, nil
}

func (f *fakeStore) ListOverdue(_ context.Context, _ int64) ([]*TaskView, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	out := []*TaskView{}
	for id := int64(1); id < f.nextID; id++ {
		t, ok := f.tasks[id]
		if ok && t.DueDate != nil && t.DueDate.Before(today) && t.Status != StatusCompleted {
			out = append(out, f.view(t))
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id int64, status string, description *string) (*Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	t.Status = status
	if description != nil {
		d := *description
		t.Description = &d
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, req *UpdateTaskRequest) (*Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if req.Title.Set {
		t.Title = req.Title.Value
	}
	if req.Description.Set {
		t.Description = req.Description.Ptr()
	}
	if req.Status.Set {
		t.Status = req.Status.Value
	}
	if req.Priority.Set {
		t.Priority = req.Priority.Value
	}
	if req.DueDate.Set {
		t.DueDate = req.DueDate.Ptr()
	}
	if req.AssignedTo.Set {
		t.AssignedTo = req.AssignedTo.Value.Ptr()
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) SetBoardCardID(_ context.Context, id int64, cardID string) error {
	f.tasks[id].BoardCardID = &cardID
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

type fakeProjects map[int64]*project.ProjectView

func (f fakeProjects) GetByID(_ context.Context, id int64) (*project.ProjectView, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, project.ErrProjectNotFound
}

type fakeUsers map[int64]*user.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

type fakeNotifier struct {
	assigned []notification.TaskAssigned
	overdue  []notification.TaskOverdue
}

func (f *fakeNotifier) NotifyTaskAssigned(_ context.Context, ev notification.TaskAssigned) error {
	f.assigned = append(f.assigned, ev)
	return nil
}

func (f *fakeNotifier) NotifyTaskOverdue(_ context.Context, ev notification.TaskOverdue) error {
	f.overdue = append(f.overdue, ev)
	return nil
}

var (
	manager  = &user.User{ID: 1, Name: "Maya", Role: user.RoleManager}
	client   = &user.User{ID: 3, Name: "Ana", Role: user.RoleClient}
	outsider = &user.User{ID: 4, Name: "Otto", Role: user.RoleClient}
	users    = fakeUsers{1: manager, 3: client, 4: outsider}
)
