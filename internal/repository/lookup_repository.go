package repository

import (
	"database/sql"

	"github.com/glowdesk/outreach/internal/model"
)

// LookupRepository resolves appointment context for automation triggers.
// Read-only: the booking subsystem owns these tables.
type LookupRepository struct {
	DB *sql.DB
}

func (r *LookupRepository) AppointmentContext(appointmentID int64) (*model.AppointmentContext, error) {
	query := `
		SELECT id, client_id, service_id, staff_id, location_id, start_time, total_amount, booked_at, cancelled_at
		FROM appointments WHERE id=$1
	`
	appt := &model.Appointment{}
	err := r.DB.QueryRow(query, appointmentID).Scan(
		&appt.ID, &appt.ClientID, &appt.ServiceID, &appt.StaffID, &appt.LocationID,
		&appt.StartTime, &appt.TotalAmount, &appt.BookedAt, &appt.CancelledAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	ctx := &model.AppointmentContext{Appointment: appt}

	clientRepo := ClientRepository{DB: r.DB}
	if ctx.Client, err = clientRepo.GetByID(appt.ClientID); err != nil {
		return nil, err
	}

	svc := &model.Service{}
	err = r.DB.QueryRow(`SELECT id, name, duration_minutes FROM services WHERE id=$1`, appt.ServiceID).
		Scan(&svc.ID, &svc.Name, &svc.DurationMinutes)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil {
		ctx.Service = svc
	}

	staff := &model.Staff{}
	err = r.DB.QueryRow(`SELECT id, first_name, last_name FROM users WHERE id=$1`, appt.StaffID).
		Scan(&staff.ID, &staff.FirstName, &staff.LastName)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil {
		ctx.Staff = staff
	}

	if appt.LocationID != nil {
		if ctx.Location, err = r.LocationByID(*appt.LocationID); err != nil {
			return nil, err
		}
	}

	return ctx, nil
}

func (r *LookupRepository) LocationByID(id int64) (*model.Location, error) {
	loc := &model.Location{}
	err := r.DB.QueryRow(
		`SELECT id, name, business_name, phone, address FROM locations WHERE id=$1`, id,
	).Scan(&loc.ID, &loc.Name, &loc.BusinessName, &loc.Phone, &loc.Address)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return loc, nil
}

func (r *LookupRepository) LocationByName(name string) (*model.Location, error) {
	loc := &model.Location{}
	err := r.DB.QueryRow(
		`SELECT id, name, business_name, phone, address FROM locations WHERE LOWER(name)=LOWER($1)`, name,
	).Scan(&loc.ID, &loc.Name, &loc.BusinessName, &loc.Phone, &loc.Address)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return loc, nil
}

var _ LookupRepositoryInterface = (*LookupRepository)(nil)
