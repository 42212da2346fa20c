package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/glowdesk/outreach/internal/model"
)

type ClientRepository struct {
	DB *sql.DB
}

const clientColumns = `id, first_name, last_name, email, phone, role,
	email_promotions, email_appointments, email_account,
	sms_promotions, sms_appointments, sms_account, created_at`

func scanClient(row interface{ Scan(...any) error }) (*model.Client, error) {
	var c model.Client
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Role,
		&c.EmailPromotions, &c.EmailAppointments, &c.EmailAccount,
		&c.SMSPromotions, &c.SMSAppointments, &c.SMSAccount, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) GetByID(id int64) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM users WHERE id=$1`
	c, err := scanClient(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *ClientRepository) GetByIDs(ids []int64) ([]model.Client, error) {
	if len(ids) == 0 {
		return []model.Client{}, nil
	}
	query := `SELECT ` + clientColumns + ` FROM users WHERE id = ANY($1) ORDER BY id`
	return r.queryClients(query, pq.Array(ids))
}

func (r *ClientRepository) AllClients() ([]model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM users WHERE role=$1 ORDER BY id`
	return r.queryClients(query, model.RoleClient)
}

func (r *ClientRepository) RegularClients(since time.Time, minAppointments int) ([]model.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM users u
		WHERE u.role=$1 AND (
			SELECT COUNT(*) FROM appointments a
			WHERE a.client_id=u.id AND a.start_time >= $2
		) >= $3
		ORDER BY u.id
	`
	return r.queryClients(query, model.RoleClient, since, minAppointments)
}

func (r *ClientRepository) NewClients(since time.Time) ([]model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM users WHERE role=$1 AND created_at >= $2 ORDER BY id`
	return r.queryClients(query, model.RoleClient, since)
}

func (r *ClientRepository) InactiveClients(since time.Time) ([]model.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM users u
		WHERE u.role=$1 AND NOT EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.client_id=u.id AND a.start_time >= $2
		)
		ORDER BY u.id
	`
	return r.queryClients(query, model.RoleClient, since)
}

func (r *ClientRepository) queryClients(query string, args ...any) ([]model.Client, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

var _ ClientRepositoryInterface = (*ClientRepository)(nil)
