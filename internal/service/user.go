package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/appforge/appforge-go/internal/crypto"
	"github.com/appforge/appforge-go/internal/model"
	"github.com/appforge/appforge-go/internal/repository"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrSelfRoleChange    = errors.New("cannot change your own role")
	ErrSelfDelete        = errors.New("cannot delete your own account")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrNewPasswordNeeded = errors.New("new password is required")
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// UserService handles profile and admin user management.
type UserService struct {
	repo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// GetProfile returns the caller's own account.
func (s *UserService) GetProfile(ctx context.Context, userID string) (model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, s.mapNotFound(err)
	}
	return model.NewUserResponse(user), nil
}

// UpdateProfile applies a self-service update. A changed email must not
// belong to another account.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, s.mapNotFound(err)
	}

	if req.FirstName != nil {
		user.FirstName = req.FirstName
	}
	if req.LastName != nil {
		user.LastName = req.LastName
	}
	if req.Email != nil && *req.Email != "" {
		user.Email = *req.Email
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.UserResponse{}, ErrEmailTaken
		}
		return model.UserResponse{}, err
	}

	updated, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}
	return model.NewUserResponse(updated), nil
}

// ListQuery pages and filters the admin user listing.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
}

// ListUsers returns one page of users plus pagination totals. Page and
// count queries run concurrently.
func (s *UserService) ListUsers(ctx context.Context, q ListQuery) (model.UserListResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}

	filter := repository.ListFilter{
		Search: q.Search,
		Offset: (q.Page - 1) * q.Limit,
		Limit:  q.Limit,
	}

	var (
		users []model.User
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.repo.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.UserListResponse{}, err
	}

	responses := make([]model.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, model.NewUserResponse(&users[i]))
	}

	totalPages := (total + q.Limit - 1) / q.Limit

	return model.UserListResponse{
		Users: responses,
		Pagination: model.Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// GetBySlug returns the account behind a slug.
func (s *UserService) GetBySlug(ctx context.Context, slug string) (model.UserResponse, error) {
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return model.UserResponse{}, s.mapNotFound(err)
	}
	return model.NewUserResponse(user), nil
}

// UpdateUser applies an admin update to the account behind slug. Admins
// may not change their own role; actorID identifies the caller.
func (s *UserService) UpdateUser(ctx context.Context, actorID, slug string, req model.AdminUpdateUserRequest) (model.UserResponse, error) {
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return model.UserResponse{}, s.mapNotFound(err)
	}

	if req.Role != nil {
		if !req.Role.Valid() {
			return model.UserResponse{}, ErrInvalidRole
		}
		if user.ID == actorID && *req.Role != user.Role {
			return model.UserResponse{}, ErrSelfRoleChange
		}
		user.Role = *req.Role
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return model.UserResponse{}, ErrInvalidStatus
		}
		user.Status = *req.Status
	}
	if req.FirstName != nil {
		user.FirstName = req.FirstName
	}
	if req.LastName != nil {
		user.LastName = req.LastName
	}
	if req.Email != nil && *req.Email != "" {
		user.Email = *req.Email
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.UserResponse{}, ErrEmailTaken
		}
		return model.UserResponse{}, err
	}

	updated, err := s.repo.GetByID(ctx, user.ID)
	if err != nil {
		return model.UserResponse{}, err
	}
	return model.NewUserResponse(updated), nil
}

// ResetPassword replaces the password of the account behind slug with a
// fresh hash of newPassword.
func (s *UserService) ResetPassword(ctx context.Context, slug, newPassword string) error {
	if newPassword == "" {
		return ErrNewPasswordNeeded
	}

	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return s.mapNotFound(err)
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.repo.UpdatePasswordHash(ctx, user.ID, hash)
}

// DeleteUser removes the account behind slug. Admins may not delete
// themselves.
func (s *UserService) DeleteUser(ctx context.Context, actorID, slug string) error {
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return s.mapNotFound(err)
	}

	if user.ID == actorID {
		return ErrSelfDelete
	}

	return s.repo.Delete(ctx, user.ID)
}

func (s *UserService) mapNotFound(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}
