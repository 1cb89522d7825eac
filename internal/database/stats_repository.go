package database

import (
	"fmt"

	"github.com/quickcourt/booking-backend/internal/models"
)

// StatsRepository aggregates the admin dashboard figures
type StatsRepository struct {
	db DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// KPIs returns the headline counters
func (r *StatsRepository) KPIs() (*models.KPIData, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'user') AS total_users,
			(SELECT COUNT(*) FROM users WHERE role = 'facility_owner') AS total_facility_owners,
			(SELECT COUNT(*) FROM facilities) AS total_facilities,
			(SELECT COUNT(*) FROM bookings) AS total_bookings,
			(SELECT COUNT(*) FROM courts) AS total_courts,
			(SELECT COUNT(*) FROM facilities WHERE status = 'pending') AS pending_approvals
	`

	var kpi models.KPIData
	if err := r.db.Get(&kpi, query); err != nil {
		return nil, fmt.Errorf("failed to get KPI data: %w", err)
	}
	return &kpi, nil
}

// MonthlyRegistrations counts new users per month over the last six months, newest first
func (r *StatsRepository) MonthlyRegistrations() ([]models.MonthlyCount, error) {
	return r.monthly("users")
}

// MonthlyBookings counts bookings per month over the last six months, newest first
func (r *StatsRepository) MonthlyBookings() ([]models.MonthlyCount, error) {
	return r.monthly("bookings")
}

func (r *StatsRepository) monthly(table string) ([]models.MonthlyCount, error) {
	query := fmt.Sprintf(`
		SELECT TO_CHAR(created_at, 'YYYY-MM') AS month, COUNT(*) AS count
		FROM %s
		WHERE created_at >= date_trunc('month', NOW()) - INTERVAL '5 months'
		GROUP BY 1
		ORDER BY 1 DESC
	`, table)

	counts := []models.MonthlyCount{}
	if err := r.db.Select(&counts, query); err != nil {
		return nil, fmt.Errorf("failed to get monthly %s: %w", table, err)
	}
	return counts, nil
}

// MostActiveSports returns the five sports with the most bookings
func (r *StatsRepository) MostActiveSports() ([]models.SportActivity, error) {
	query := `
		SELECT c.sport_type AS sport, COUNT(*) AS bookings
		FROM bookings b
		JOIN courts c ON c.id = b.court_id
		GROUP BY c.sport_type
		ORDER BY bookings DESC, sport
		LIMIT 5
	`

	sports := []models.SportActivity{}
	if err := r.db.Select(&sports, query); err != nil {
		return nil, fmt.Errorf("failed to get sport activity: %w", err)
	}
	return sports, nil
}
