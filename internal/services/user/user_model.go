package user

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleManager UserRole = "manager"
	RoleClient  UserRole = "client"
)

func (r UserRole) Valid() bool {
	return r == RoleManager || r == RoleClient
}

type User struct {
	ID              int64     `db:"id" json:"id"`
	ExternalSubject *string   `db:"external_subject" json:"external_subject,omitempty"`
	Email           string    `db:"email" json:"email"`
	Name            string    `db:"name" json:"name"`
	Role            UserRole  `db:"role" json:"role"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

// Identity is a principal verified by the identity provider.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// DisplayName falls back to the local part of the email when the provider has no name.
func (i Identity) DisplayName() string {
	if strings.TrimSpace(i.Name) != "" {
		return i.Name
	}
	if at := strings.Index(i.Email, "@"); at > 0 {
		return i.Email[:at]
	}
	return i.Email
}

// CreateUserRequest captures payload for the admin creation path
type CreateUserRequest struct {
	ExternalSubject *string  `json:"external_subject,omitempty"`
	Email           string   `json:"email"`
	Name            string   `json:"name"`
	Role            UserRole `json:"role"`
}

// SyncUserRequest registers or refreshes a user keyed by its external subject
type SyncUserRequest struct {
	Subject string   `json:"subject"`
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Role    UserRole `json:"role"`
}

// UpdateUserRequest captures payload for updating a profile
type UpdateUserRequest struct {
	Name string `json:"name"`
}
