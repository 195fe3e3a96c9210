package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/appforge/appforge-go/internal/crypto"
	"github.com/appforge/appforge-go/internal/model"
	"github.com/appforge/appforge-go/internal/repository"
	"github.com/appforge/appforge-go/internal/slug"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrSlugAssignment     = errors.New("could not assign a unique slug")
)

// slugRetries bounds how often a registration re-probes after the store
// rejects a duplicate slug. Two concurrent registrations can compute the
// same "next free" candidate; the unique index catches that and the loser
// re-reads the slug set and tries again.
const slugRetries = 3

// AuthService handles registration, login and identity resolution.
type AuthService struct {
	repo      repository.UserRepository
	jwtSecret string
	jwtExpiry time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo repository.UserRepository, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		repo:      repo,
		jwtSecret: secret,
		jwtExpiry: expiry,
	}
}

// Register creates a new account with a freshly assigned slug and returns
// an auth token. New accounts are always USER and ACTIVE.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	if req.Email == "" {
		return model.AuthResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.AuthResponse{}, ErrPasswordRequired
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         model.RoleUser,
		Status:       model.StatusActive,
	}

	if err := s.createWithSlug(ctx, user); err != nil {
		return model.AuthResponse{}, err
	}

	return s.authResponse("User registered successfully", user)
}

// createWithSlug probes the existing slug set for a free candidate and
// inserts. The probe is only an optimistic hint; the unique index decides,
// and a duplicate-slug rejection triggers a re-probe, bounded by
// slugRetries.
func (s *AuthService) createWithSlug(ctx context.Context, user *model.User) error {
	base := slug.FromEmail(user.Email)

	backoff := retry.WithMaxRetries(slugRetries, retry.NewConstant(25*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		existing, err := s.repo.SlugsWithPrefix(ctx, base)
		if err != nil {
			return err
		}
		user.Slug = slug.MakeUnique(base, existing)

		err = s.repo.Create(ctx, user)
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return ErrSlugAssignment
		}
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// Login authenticates an email/password pair and returns an auth token.
// Unknown email and wrong password are indistinguishable to the caller;
// an INACTIVE account is reported as such only after those checks.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	if req.Email == "" {
		return model.AuthResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.AuthResponse{}, ErrPasswordRequired
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	if user.Status != model.StatusActive {
		return model.AuthResponse{}, ErrAccountInactive
	}

	if !crypto.VerifyPassword(req.Password, user.PasswordHash) {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	return s.authResponse("Login successful", user)
}

// CurrentUser resolves the account behind an authenticated user ID.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}
	return model.NewUserResponse(user), nil
}

func (s *AuthService) authResponse(message string, user *model.User) (model.AuthResponse, error) {
	token, err := crypto.GenerateToken(user.ID, user.Email, user.Role, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		Message: message,
		Token:   token,
		User:    model.NewUserResponse(user),
	}, nil
}
