package model

import (
	"regexp"
	"strconv"
	"time"
)

// Lifecycle trigger vocabulary.
const (
	TriggerBookingConfirmation  = "booking_confirmation"
	TriggerAppointmentReminder  = "appointment_reminder"
	TriggerAppointmentCancelled = "appointment_cancelled"
	TriggerNoShow               = "no_show"
	TriggerFollowUp             = "follow_up"
	TriggerAfterPayment         = "after_payment"
	TriggerCustom               = "custom"
)

// AutomationRule is a standing trigger -> template mapping fired by
// lifecycle events, independent of campaigns. LocationID is the
// first-class scope field; nil means the rule is global. Older rules
// authored before the field existed carry a [location:X] or @location:X
// token inside Name or Subject instead, see LocationToken.
type AutomationRule struct {
	ID                int64      `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	TriggerType       string     `db:"trigger_type" json:"trigger_type"`
	CustomTriggerName string     `db:"custom_trigger_name" json:"custom_trigger_name,omitempty"`
	Channel           string     `db:"channel" json:"channel"`
	Subject           string     `db:"subject" json:"subject,omitempty"`
	Body              string     `db:"body" json:"body"`
	Active            bool       `db:"active" json:"active"`
	LocationID        *int64     `db:"location_id" json:"location_id,omitempty"`
	SentCount         int        `db:"sent_count" json:"sent_count"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

var locationTokenRe = regexp.MustCompile(`(?i)(?:\[location:([^\]]+)\]|@location:([^\s\]]+))`)

// LocationToken extracts the legacy location tag embedded in the rule's
// name or subject. It returns the raw token value (a numeric id or a
// location name) and whether one was present. The LocationID field, when
// set, takes precedence over the token.
func (r *AutomationRule) LocationToken() (string, bool) {
	for _, s := range []string{r.Name, r.Subject} {
		m := locationTokenRe.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if m[1] != "" {
			return m[1], true
		}
		return m[2], true
	}
	return "", false
}

// HasLocationScope reports whether the rule is scoped to a location,
// either via the LocationID field or a legacy token.
func (r *AutomationRule) HasLocationScope() bool {
	if r.LocationID != nil {
		return true
	}
	_, ok := r.LocationToken()
	return ok
}

// TokenLocationID parses the legacy token as a numeric location id.
// Returns false when the token is absent or not numeric (a name token
// must be resolved against the location table instead).
func (r *AutomationRule) TokenLocationID() (int64, bool) {
	tok, ok := r.LocationToken()
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
