package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/edflow/edflow/internal/platform/apperr"
	"github.com/edflow/edflow/internal/platform/auth"
)

type Service struct {
	users Repository
}

func NewService(users Repository) *Service {
	return &Service{users: users}
}

// CreateUser registers a staff member. Email is stored lowercased and
// must be unique.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return nil, apperr.New(apperr.Validation, "name and email are required")
	}
	if !auth.ValidRole(in.Role) {
		return nil, apperr.New(apperr.Validation, "unknown role %q", in.Role)
	}

	u := &User{
		Name:   name,
		Email:  email,
		Role:   in.Role,
		Cedula: trimmedOrNil(in.Cedula),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUser merges a partial update into the directory record.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.New(apperr.Validation, "name must not be empty")
		}
		u.Name = name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return nil, apperr.New(apperr.Validation, "email must not be empty")
		}
		u.Email = email
	}
	if in.Role != nil {
		if !auth.ValidRole(*in.Role) {
			return nil, apperr.New(apperr.Validation, "unknown role %q", *in.Role)
		}
		u.Role = *in.Role
	}
	if in.Cedula != nil {
		u.Cedula = trimmedOrNil(in.Cedula)
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, f ListFilter, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, f, limit, offset)
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
