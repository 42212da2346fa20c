package model

import "time"

// Recipient statuses. A row only moves forward:
// pending -> claimed -> sent | failed.
const (
	RecipientPending = "pending"
	RecipientClaimed = "claimed"
	RecipientSent    = "sent"
	RecipientFailed  = "failed"
)

// Failure reason codes recorded on a recipient row. A raw channel error
// string may also appear in ErrorMessage when the channel reports one.
const (
	ReasonNoContactOrPreference = "no_contact_or_preference"
	ReasonDuplicateSuppressed   = "duplicate_suppressed"
	ReasonSendFailed            = "send_failed"
)

// CampaignRecipient is one tracked delivery target within a campaign.
// Contact holds the normalized destination (lowercased email or the last
// ten digits of the phone number) used for dedup.
type CampaignRecipient struct {
	ID           int64      `db:"id" json:"id"`
	CampaignID   int64      `db:"campaign_id" json:"campaign_id"`
	ClientID     int64      `db:"client_id" json:"client_id"`
	Contact      string     `db:"contact" json:"contact"`
	Status       string     `db:"status" json:"status"`
	SentAt       *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	ErrorMessage string     `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
