package model

import "time"

// Lookup types used only to build template variables for automation
// triggers. Owned by the booking subsystem; read-only here.

type Appointment struct {
	ID          int64      `db:"id" json:"id"`
	ClientID    int64      `db:"client_id" json:"client_id"`
	ServiceID   int64      `db:"service_id" json:"service_id"`
	StaffID     int64      `db:"staff_id" json:"staff_id"`
	LocationID  *int64     `db:"location_id" json:"location_id,omitempty"`
	StartTime   time.Time  `db:"start_time" json:"start_time"`
	TotalAmount float64    `db:"total_amount" json:"total_amount"`
	BookedAt    time.Time  `db:"booked_at" json:"booked_at"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

type Service struct {
	ID              int64  `db:"id" json:"id"`
	Name            string `db:"name" json:"name"`
	DurationMinutes int    `db:"duration_minutes" json:"duration_minutes"`
}

type Staff struct {
	ID        int64  `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}

type Location struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	BusinessName string `db:"business_name" json:"business_name"`
	Phone        string `db:"phone" json:"phone"`
	Address      string `db:"address" json:"address"`
}

// AppointmentContext bundles the lookups needed to render automation
// templates for one appointment.
type AppointmentContext struct {
	Appointment *Appointment
	Client      *Client
	Service     *Service
	Staff       *Staff
	Location    *Location
}
