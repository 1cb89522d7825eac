package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quickcourt/booking-backend/internal/models"
)

// PendingSignupRepository stores signups awaiting OTP verification (otps_temp)
type PendingSignupRepository struct {
	db DB
}

// NewPendingSignupRepository creates a new pending signup repository
func NewPendingSignupRepository(db DB) *PendingSignupRepository {
	return &PendingSignupRepository{db: db}
}

// Create stores a pending signup together with its OTP
func (r *PendingSignupRepository) Create(p *models.PendingSignup) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO otps_temp (id, email, full_name, password_hash, role, avatar_url, otp_code, expires_at, attempts, is_used, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, false, $9, $10)
	`

	_, err := r.db.Exec(query,
		p.ID,
		p.Email,
		p.FullName,
		p.PasswordHash,
		p.Role,
		p.AvatarURL,
		p.OTPCode,
		p.ExpiresAt,
		p.IPAddress,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store pending signup: %w", err)
	}
	return nil
}

// GetLatestUnused returns the newest unused pending signup for email
func (r *PendingSignupRepository) GetLatestUnused(email string) (*models.PendingSignup, error) {
	query := `
		SELECT id, email, full_name, password_hash, role, avatar_url, otp_code, expires_at, attempts, is_used, ip_address, created_at
		FROM otps_temp
		WHERE email = $1 AND is_used = false
		ORDER BY created_at DESC
		LIMIT 1
	`

	var p models.PendingSignup
	if err := r.db.Get(&p, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending signup: %w", err)
	}
	return &p, nil
}

// IncrementAttempts records a failed verification attempt
func (r *PendingSignupRepository) IncrementAttempts(id uuid.UUID) error {
	if _, err := r.db.Exec(`UPDATE otps_temp SET attempts = attempts + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to increment attempts: %w", err)
	}
	return nil
}

// InvalidateAll marks every unused code of email as used
func (r *PendingSignupRepository) InvalidateAll(email string) error {
	if _, err := r.db.Exec(`UPDATE otps_temp SET is_used = true WHERE email = $1 AND is_used = false`, email); err != nil {
		return fmt.Errorf("failed to invalidate pending signups: %w", err)
	}
	return nil
}

// DeleteExpired removes rows whose code expired before now
func (r *PendingSignupRepository) DeleteExpired(now time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM otps_temp WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired OTPs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// CountRecent counts rows whose column (email or ip_address) equals value and
// that were created after since, along with the newest creation time.
func (r *PendingSignupRepository) CountRecent(column, value string, since time.Time) (int, time.Time, error) {
	if column != "email" && column != "ip_address" {
		return 0, time.Time{}, fmt.Errorf("unsupported rate limit key: %s", column)
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*), COALESCE(MAX(created_at), $2)
		FROM otps_temp
		WHERE %s = $1 AND created_at > $2
	`, column)

	var count int
	var last time.Time
	if err := r.db.QueryRow(query, value, since).Scan(&count, &last); err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to count signup requests: %w", err)
	}
	return count, last, nil
}
