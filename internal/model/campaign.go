package model

import "time"

// Campaign channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Campaign statuses. Transitions only move forward:
// draft -> scheduled -> sending -> sent | failed.
const (
	CampaignDraft     = "draft"
	CampaignScheduled = "scheduled"
	CampaignSending   = "sending"
	CampaignSent      = "sent"
	CampaignFailed    = "failed"
)

// Audience selectors.
const (
	AudienceAll      = "all_clients"
	AudienceRegular  = "regular_clients"
	AudienceNew      = "new_clients"
	AudienceInactive = "inactive_clients"
	AudienceSpecific = "specific_clients"
)

type Campaign struct {
	ID           int64      `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Channel      string     `db:"channel" json:"channel"`
	Audience     string     `db:"audience" json:"audience"`
	RecipientIDs string     `db:"recipient_ids" json:"recipient_ids,omitempty"`
	Subject      string     `db:"subject" json:"subject,omitempty"`
	Body         string     `db:"body" json:"body"`
	Status       string     `db:"status" json:"status"`
	SendDate     *time.Time `db:"send_date" json:"send_date,omitempty"`

	SentCount         int `db:"sent_count" json:"sent_count"`
	DeliveredCount    int `db:"delivered_count" json:"delivered_count"`
	FailedCount       int `db:"failed_count" json:"failed_count"`
	OpenedCount       int `db:"opened_count" json:"opened_count"`
	ClickedCount      int `db:"clicked_count" json:"clicked_count"`
	UnsubscribedCount int `db:"unsubscribed_count" json:"unsubscribed_count"`

	SentAt    *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// IsSMS reports whether the campaign sends over the SMS channel.
func (c *Campaign) IsSMS() bool { return c.Channel == ChannelSMS }
