package project

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/curaious/projecthub/internal/db"
	"github.com/curaious/projecthub/internal/services/notification"
	"github.com/curaious/projecthub/internal/services/user"
)

type fakeStore struct {
	projects map[int64]*Project
	nextID   int64
	inTx     int

	setBoardErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{projects: map[int64]*Project{}, nextID: 1}
}

func (f *fakeStore) InTx(_ context.Context, fn func(Store) error) error {
	f.inTx++
	snapshot := map[int64]Project{}
	for id, p := range f.projects {
		snapshot[id] = *p
	}
	if err := fn(f); err != nil {
		f.projects = map[int64]*Project{}
		for id, p := range snapshot {
			p := p
			f.projects[id] = &p
		}
		return err
	}
	return nil
}

func (f *fakeStore) Create(_ context.Context, req *CreateProjectRequest) (*Project, error) {
	p := &Project{
		ID:          f.nextID,
		Title:       req.Title,
		Description: req.Description,
		ManagerID:   req.ManagerID,
		ClientID:    req.ClientID,
		Budget:      req.Budget,
		Status:      req.Status,
		StartDate:   req.StartDate,
		Deadline:    req.Deadline,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.nextID++
	f.projects[p.ID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*ProjectView, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return &ProjectView{Project: *p}, nil
}

func (f *fakeStore) list(match func(*Project) bool) []*ProjectView {
	out := []*ProjectView{}
	for id := int64(1); id < f.nextID; id++ {
		if p, ok := f.projects[id]; ok && match(p) {
			out = append(out, &ProjectView{Project: *p})
		}
	}
	return out
}

func (f *fakeStore) ListByManager(_ context.Context, managerID int64, archived bool) ([]*ProjectView, error) {
	return f.list(func(p *Project) bool { return p.ManagerID == managerID && p.IsArchived == archived }), nil
}

func (f *fakeStore) ListByClient(_ context.Context, clientID int64) ([]*ProjectView, error) {
	return f.list(func(p *Project) bool { return p.ClientID == clientID && !p.IsArchived }), nil
}

func (f *fakeStore) UpcomingDeadlines(_ context.Context, clientID int64, limit int) ([]*ProjectView, error) {
	out := f.list(func(p *Project) bool { return p.ClientID == clientID && p.Deadline != nil })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, req *UpdateProjectRequest) (*Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	if req.Title.HasValue() {
		p.Title = req.Title.Value
	}
	if req.Description.Set {
		p.Description = req.Description.Value
	}
	if req.Budget.HasValue() {
		p.Budget = req.Budget.Value
	}
	if req.Status.HasValue() {
		p.Status = req.Status.Value
	}
	if req.StartDate.Set {
		p.StartDate = req.StartDate.Ptr()
	}
	if req.Deadline.Set {
		p.Deadline = req.Deadline.Ptr()
	}
	if req.CompletionPercentage.HasValue() {
		p.CompletionPercentage = req.CompletionPercentage.Value
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) UpdateProgress(_ context.Context, id int64, percentage int) (*Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	p.CompletionPercentage = percentage
	cp := *p
	return &cp, nil
}

func (f *fakeStore) SetArchived(_ context.Context, id int64, archived bool) (*Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	p.IsArchived = archived
	cp := *p
	return &cp, nil
}

func (f *fakeStore) SetBoardID(_ context.Context, id int64, boardID string) error {
	if f.setBoardErr != nil {
		return f.setBoardErr
	}
	p, ok := f.projects[id]
	if !ok {
		return ErrProjectNotFound
	}
	p.BoardID = &boardID
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.projects[id]; !ok {
		return ErrProjectNotFound
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeStore) Stats(_ context.Context, managerID int64) (*Stats, error) {
	stats := &Stats{}
	for _, p := range f.list(func(p *Project) bool { return p.ManagerID == managerID && !p.IsArchived }) {
		stats.TotalProjects++
		stats.TotalBudget = stats.TotalBudget.Add(p.Budget)
	}
	return stats, nil
}

func (f *fakeStore) ClientStats(_ context.Context, clientID int64) (*ClientStats, error) {
	stats := &ClientStats{}
	for _, p := range f.list(func(p *Project) bool { return p.ClientID == clientID && !p.IsArchived }) {
		stats.TotalProjects++
		stats.TotalInvestment = stats.TotalInvestment.Add(p.Budget)
	}
	return stats, nil
}

type fakeUsers map[int64]*user.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

type fakeNotifier struct {
	completed []notification.ProjectCompleted
}

func (f *fakeNotifier) NotifyProjectCompleted(_ context.Context, ev notification.ProjectCompleted) error {
	f.completed = append(f.completed, ev)
	return nil
}

var (
	manager   = &user.User{ID: 1, Name: "Maya", Email: "maya.manager@example.com", Role: user.RoleManager}
	client    = &user.User{ID: 3, Name: "Ana", Email: "ana@example.com", Role: user.RoleClient}
	outsider  = &user.User{ID: 4, Name: "Otto", Email: "otto@example.com", Role: user.RoleClient}
	otherMgr  = &user.User{ID: 5, Name: "Nils", Email: "nils.manager@example.com", Role: user.RoleManager}
	allUsers  = fakeUsers{1: manager, 3: client, 4: outsider, 5: otherMgr}
	startDate = db.NewDate(2024, time.January, 1)
	deadline  = db.NewDate(2024, time.June, 1)
)

func redesignRequest() *CreateProjectRequest {
	return &CreateProjectRequest{
		Title:     "Redesign",
		ClientID:  3,
		Budget:    decimal.NewFromInt(5000),
		StartDate: &startDate,
		Deadline:  &deadline,
	}
}
