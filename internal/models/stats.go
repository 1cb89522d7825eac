package models

// KPIData are the headline counters of the admin dashboard
type KPIData struct {
	TotalUsers          int `json:"total_users" db:"total_users"`
	TotalFacilityOwners int `json:"total_facility_owners" db:"total_facility_owners"`
	TotalFacilities     int `json:"total_facilities" db:"total_facilities"`
	TotalBookings       int `json:"total_bookings" db:"total_bookings"`
	TotalCourts         int `json:"total_courts" db:"total_courts"`
	PendingApprovals    int `json:"pending_approvals" db:"pending_approvals"`
}

// MonthlyCount is a YYYY-MM bucket
type MonthlyCount struct {
	Month string `json:"month" db:"month"`
	Count int    `json:"count" db:"count"`
}

// SportActivity is the booking volume of one sport
type SportActivity struct {
	Sport    string `json:"sport" db:"sport"`
	Bookings int    `json:"bookings" db:"bookings"`
}

// AdminStats is the payload of GET /admin/stats
type AdminStats struct {
	KPIData              KPIData         `json:"kpi_data"`
	MonthlyRegistrations []MonthlyCount  `json:"monthly_registrations"`
	MonthlyBookings      []MonthlyCount  `json:"monthly_bookings"`
	MostActiveSports     []SportActivity `json:"most_active_sports"`
}
