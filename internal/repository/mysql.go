package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/appforge/appforge-go/internal/model"
)

const userColumns = `id, slug, email, password_hash, first_name, last_name, role, status, created_at, updated_at`

// MySQLUserRepository implements UserRepository on a MySQL users table.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new MySQLUserRepository.
func NewUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// Create inserts a new user. The unique indexes on email and slug are the
// authoritative uniqueness check; violations come back as
// ErrDuplicateEmail or ErrDuplicateSlug.
func (r *MySQLUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, slug, email, password_hash, first_name, last_name, role, status)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Slug, user.Email, user.PasswordHash,
		user.FirstName, user.LastName, user.Role, user.Status,
	)
	if err != nil {
		if dup := duplicateKeyError(err); dup != nil {
			return dup
		}
		return err
	}

	created, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	user.CreatedAt = created.CreatedAt
	user.UpdatedAt = created.UpdatedAt
	return nil
}

// GetByID retrieves a user by their ID.
func (r *MySQLUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by their email address.
func (r *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetBySlug retrieves a user by their slug.
func (r *MySQLUserRepository) GetBySlug(ctx context.Context, slug string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE slug = ?`, slug)
}

func (r *MySQLUserRepository) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Slug, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.Role, &user.Status,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// SlugsWithPrefix returns every slug starting with prefix, for uniqueness
// probing at registration time. An empty prefix matches all slugs.
func (r *MySQLUserRepository) SlugsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	query := `SELECT slug FROM users WHERE slug LIKE CONCAT(?, '%')`

	rows, err := r.db.QueryContext(ctx, query, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slugs = append(slugs, s)
	}
	return slugs, rows.Err()
}

// List returns one page of users matching the filter, newest first.
func (r *MySQLUserRepository) List(ctx context.Context, filter ListFilter) ([]model.User, error) {
	where, args := searchClause(filter)
	query := `SELECT ` + userColumns + ` FROM users` + where +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(
			&user.ID, &user.Slug, &user.Email, &user.PasswordHash,
			&user.FirstName, &user.LastName, &user.Role, &user.Status,
			&user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Count returns the total number of users matching the filter.
func (r *MySQLUserRepository) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := searchClause(filter)
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total)
	return total, err
}

func searchClause(filter ListFilter) (string, []any) {
	if filter.Search == "" {
		return "", nil
	}
	pattern := "%" + filter.Search + "%"
	where := ` WHERE email LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR slug LIKE ?`
	return where, []any{pattern, pattern, pattern, pattern}
}

// Update persists the mutable fields of a user. The slug is immutable and
// never part of the update.
func (r *MySQLUserRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET email = ?, first_name = ?, last_name = ?, role = ?, status = ? WHERE id = ?`

	// No affected-rows check here: MySQL reports zero affected rows for a
	// no-op update, and callers have already resolved the user.
	_, err := r.db.ExecContext(ctx, query,
		user.Email, user.FirstName, user.LastName, user.Role, user.Status, user.ID,
	)
	if err != nil {
		if dup := duplicateKeyError(err); dup != nil {
			return dup
		}
		return err
	}
	return nil
}

// UpdatePasswordHash replaces a user's password hash.
func (r *MySQLUserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return err
	}
	return requireRowAffected(result)
}

// Delete removes a user permanently.
func (r *MySQLUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(result)
}

func requireRowAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// duplicateKeyError classifies a MySQL duplicate entry error (code 1062) by
// the violated index. MySQL reports the key as "users.uq_users_email" or
// "uq_users_email" depending on version, so a substring match covers both.
func duplicateKeyError(err error) error {
	if err == nil || !strings.Contains(err.Error(), "Duplicate entry") {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "uq_users_email"):
		return ErrDuplicateEmail
	case strings.Contains(msg, "uq_users_slug"):
		return ErrDuplicateSlug
	default:
		return err
	}
}
