package model

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Status is the closed set of account statuses. INACTIVE blocks login.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// User represents an account in the database. PasswordHash never leaves the
// server; API responses go through UserResponse.
type User struct {
	ID           string
	Slug         string
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
	Role         Role
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest represents a self-service profile update. Nil fields
// are left unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

// AdminUpdateUserRequest represents an admin update of another account.
// Slug and password are deliberately not accepted here; the slug is
// immutable and passwords go through the reset endpoint.
type AdminUpdateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Role      *Role   `json:"role"`
	Status    *Status `json:"status"`
}

// ResetPasswordRequest represents an admin password reset.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// AuthResponse represents an authentication response with a JWT token and
// user info.
type AuthResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

// UserResponse represents account data safe for API responses. There is no
// password hash field here on purpose.
type UserResponse struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Email     string    `json:"email"`
	FirstName *string   `json:"first_name"`
	LastName  *string   `json:"last_name"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserResponse converts a stored user into its outward representation.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Slug:      u.Slug,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Pagination describes one page of an admin list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// UserListResponse is the admin user list envelope.
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination Pagination     `json:"pagination"`
}
