package model

import "time"

// Roles on the users table. Only clients are addressable by campaigns.
const (
	RoleClient = "client"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
)

// Client is a salon customer with contact methods and per-purpose,
// per-channel consent flags.
type Client struct {
	ID        int64  `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone"`
	Role      string `db:"role" json:"role"`

	EmailPromotions   bool `db:"email_promotions" json:"email_promotions"`
	EmailAppointments bool `db:"email_appointments" json:"email_appointments"`
	EmailAccount      bool `db:"email_account" json:"email_account"`
	SMSPromotions     bool `db:"sms_promotions" json:"sms_promotions"`
	SMSAppointments   bool `db:"sms_appointments" json:"sms_appointments"`
	SMSAccount        bool `db:"sms_account" json:"sms_account"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FullName joins first and last name, tolerating either being empty.
func (c *Client) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// ContactFor returns the raw contact value for the given channel.
func (c *Client) ContactFor(channel string) string {
	if channel == ChannelSMS {
		return c.Phone
	}
	return c.Email
}
