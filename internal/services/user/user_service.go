package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/curaious/projecthub/internal/perrors"
)

// Store is the persistence contract of UserService, implemented by UserRepo.
type Store interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetBySubject(ctx context.Context, subject string) (*User, error)
	List(ctx context.Context, role UserRole) ([]*User, error)
	Create(ctx context.Context, req *CreateUserRequest) (*User, error)
	LinkLegacy(ctx context.Context, subject, email, name string) (*User, error)
	Upsert(ctx context.Context, req *SyncUserRequest) (*User, bool, error)
	UpdateName(ctx context.Context, id int64, name string) (*User, error)
}

type UserService struct {
	repo Store
}

func NewUserService(repo Store) *UserService {
	return &UserService{repo: repo}
}

// Resolve maps a verified external subject to its registered user.
func (s *UserService) Resolve(ctx context.Context, subject string) (*User, error) {
	u, err := s.repo.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, perrors.NewErrNotFound("User not registered", err, map[string]interface{}{"subject": subject})
		}
		return nil, err
	}
	return u, nil
}

// Login returns the user for a verified identity, registering it on first sight.
// The bool reports whether the user was created by this call.
func (s *UserService) Login(ctx context.Context, id Identity) (*User, bool, error) {
	u, err := s.repo.GetBySubject(ctx, id.Subject)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	return s.Sync(ctx, &SyncUserRequest{
		Subject: id.Subject,
		Email:   id.Email,
		Name:    id.DisplayName(),
	})
}

// Sync registers or refreshes the user owning req.Subject. A legacy row with the same
// email and no subject is claimed instead of inserting a duplicate, so req.Email must be
// the email of the verified identity.
func (s *UserService) Sync(ctx context.Context, req *SyncUserRequest) (*User, bool, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Subject == "" || req.Email == "" {
		return nil, false, perrors.NewErrBadRequest("subject and email are required", nil)
	}
	if req.Name == "" {
		req.Name = Identity{Email: req.Email}.DisplayName()
	}
	if req.Role == "" {
		req.Role = RoleForEmail(req.Email)
	}
	if !req.Role.Valid() {
		return nil, false, perrors.NewErrBadRequest("role must be manager or client", fmt.Errorf("invalid role %q", req.Role))
	}

	linked, err := s.repo.LinkLegacy(ctx, req.Subject, req.Email, req.Name)
	if err == nil {
		return linked, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	u, inserted, err := s.repo.Upsert(ctx, req)
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			return nil, false, perrors.NewErrConflict("Email is already registered to another account", err)
		}
		return nil, false, err
	}
	return u, inserted, nil
}

// Create is the admin creation path, restricted to managers.
func (s *UserService) Create(ctx context.Context, actor *User, req *CreateUserRequest) (*User, error) {
	if !actor.IsManager() {
		return nil, perrors.NewErrForbidden("Only managers can create users", nil)
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Name == "" {
		return nil, perrors.NewErrBadRequest("email and name are required", nil)
	}
	if !req.Role.Valid() {
		return nil, perrors.NewErrBadRequest("role must be manager or client", fmt.Errorf("invalid role %q", req.Role))
	}
	if req.ExternalSubject != nil && *req.ExternalSubject == "" {
		req.ExternalSubject = nil
	}

	u, err := s.repo.Create(ctx, req)
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			return nil, perrors.NewErrConflict("User already exists", err)
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, role UserRole) ([]*User, error) {
	if role != "" && !role.Valid() {
		return nil, perrors.NewErrBadRequest("role must be manager or client", fmt.Errorf("invalid role %q", role))
	}
	return s.repo.List(ctx, role)
}

// UpdateName changes the display name. Users may only rename themselves.
func (s *UserService) UpdateName(ctx context.Context, actor *User, id int64, name string) (*User, error) {
	if actor.ID != id {
		return nil, perrors.NewErrForbidden("You can only update your own profile", nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, perrors.NewErrBadRequest("name is required", nil)
	}
	return s.repo.UpdateName(ctx, id, name)
}

// RoleForEmail picks the role for a self-registered user.
func RoleForEmail(email string) UserRole {
	if strings.Contains(strings.ToLower(email), "manager") {
		return RoleManager
	}
	return RoleClient
}
