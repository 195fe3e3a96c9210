package repository

import (
	"context"
	"errors"

	"github.com/appforge/appforge-go/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrDuplicateSlug  = errors.New("slug already exists")
)

// ListFilter narrows and pages an admin user listing. Search matches
// email, first name, last name and slug, case-insensitively.
type ListFilter struct {
	Search string
	Offset int
	Limit  int
}

// UserRepository is the persistence boundary for accounts. The store owns
// the uniqueness of email and slug; Create and Update report violations as
// ErrDuplicateEmail / ErrDuplicateSlug so callers can retry or surface a
// conflict.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetBySlug(ctx context.Context, slug string) (*model.User, error)
	SlugsWithPrefix(ctx context.Context, prefix string) ([]string, error)
	List(ctx context.Context, filter ListFilter) ([]model.User, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}
