package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/models"
)

const userColumns = `id, full_name, email, password_hash, avatar_url, role, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

const insertUserQuery = `
	INSERT INTO users (id, full_name, email, password_hash, avatar_url, role, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

func newUser(fullName, email, passwordHash string, role models.UserRole, avatarURL string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           uuid.New(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		AvatarURL:    models.NewNullString(avatarURL),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func insertUserArgs(u *models.User) []interface{} {
	return []interface{}{u.ID, u.FullName, u.Email, u.PasswordHash, u.AvatarURL, u.Role, u.CreatedAt, u.UpdatedAt}
}

// CreateUser inserts a verified account. A taken email returns ErrDuplicate.
func (r *UserRepository) CreateUser(fullName, email, passwordHash string, role models.UserRole, avatarURL string) (*models.User, error) {
	user := newUser(fullName, email, passwordHash, role, avatarURL)

	if _, err := r.db.Exec(insertUserQuery, insertUserArgs(user)...); err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// CreateFromSignup consumes the pending signup and inserts its account in one
// transaction, then drops the remaining pending rows of that email. Nothing
// is written when any step fails. A row consumed concurrently returns
// ErrSignupConsumed; a taken email returns ErrDuplicate.
func (r *UserRepository) CreateFromSignup(ctx context.Context, p *models.PendingSignup) (*models.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE otps_temp SET is_used = true WHERE id = $1 AND is_used = false`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark OTP as used: %w", err)
	}
	consumed, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if consumed == 0 {
		return nil, ErrSignupConsumed
	}

	user := newUser(p.FullName, p.Email, p.PasswordHash, p.Role, p.AvatarURL.String)
	if _, err := tx.ExecContext(ctx, insertUserQuery, insertUserArgs(user)...); err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM otps_temp WHERE email = $1`, p.Email); err != nil {
		return nil, fmt.Errorf("failed to delete pending signups: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	p.IsUsed = true
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	err := r.db.Get(&user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	var user models.User
	err := r.db.Get(&user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// EmailExists reports whether an account already uses email
func (r *UserRepository) EmailExists(email string) (bool, error) {
	var exists bool
	err := r.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// ListUsersByRole returns all users with the given role, newest first
func (r *UserRepository) ListUsersByRole(role models.UserRole) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at DESC`

	users := []models.User{}
	if err := r.db.Select(&users, query, role); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ListUsersWithActivity returns every user with booking and ownership counters
func (r *UserRepository) ListUsersWithActivity() ([]models.UserWithActivity, error) {
	query := `
		SELECT u.id, u.full_name, u.email, u.password_hash, u.avatar_url, u.role, u.created_at, u.updated_at,
		       COALESCE(b.total_bookings, 0) AS total_bookings,
		       COALESCE(b.total_spent, 0) AS total_spent,
		       COALESCE(f.facilities_owned, 0) AS facilities_owned
		FROM users u
		LEFT JOIN (
			SELECT user_id, COUNT(*) AS total_bookings, SUM(total_amount) AS total_spent
			FROM bookings
			GROUP BY user_id
		) b ON b.user_id = u.id
		LEFT JOIN (
			SELECT owner_id, COUNT(*) AS facilities_owned
			FROM facilities
			GROUP BY owner_id
		) f ON f.owner_id = u.id
		ORDER BY u.created_at DESC
	`

	users := []models.UserWithActivity{}
	if err := r.db.Select(&users, query); err != nil {
		return nil, fmt.Errorf("failed to list users with activity: %w", err)
	}
	return users, nil
}

// UpdateProfile updates name, email, avatar and, when passwordHash is not
// empty, the password in one statement. A taken email returns ErrDuplicate.
func (r *UserRepository) UpdateProfile(id uuid.UUID, fullName, email, avatarURL, passwordHash string) error {
	query := `
		UPDATE users
		SET full_name = $1, email = $2, avatar_url = $3,
		    password_hash = COALESCE($4, password_hash), updated_at = NOW()
		WHERE id = $5
	`

	result, err := r.db.Exec(query, fullName, email, models.NewNullString(avatarURL), models.NewNullString(passwordHash), id)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(id uuid.UUID, passwordHash string) error {
	result, err := r.db.Exec(`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
