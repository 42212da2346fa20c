package repository

import (
	"time"

	"github.com/glowdesk/outreach/internal/model"
)

// CampaignRepositoryInterface defines the campaign operations the drip
// scheduler and HTTP layer need.
type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id int64) (*model.Campaign, error)
	Update(c *model.Campaign) error
	UpdateStatus(campaignID int64, status string) error
	MarkSent(campaignID int64, at time.Time) error

	// ListDue returns campaigns a scheduler tick should advance:
	// scheduled ones whose send date has arrived plus any still sending.
	ListDue(now time.Time) ([]*model.Campaign, error)

	// AddCounters applies additive deltas to the aggregate counters.
	// Deltas, never overwrites, so interleaved batches cannot lose counts.
	AddCounters(campaignID int64, sentDelta, failedDelta int) error

	ListCampaigns(offset, limit int, channel, status string) ([]*model.Campaign, int, error)
}

// RecipientRepositoryInterface is the per-campaign delivery ledger.
type RecipientRepositoryInterface interface {
	CountForCampaign(campaignID int64) (int, error)
	BulkInsert(recipients []*model.CampaignRecipient) error
	ListPending(campaignID int64, limit int) ([]*model.CampaignRecipient, error)

	// Claim transitions a row from pending to claimed. Returns false when
	// the row was no longer pending (claimed by a concurrent run).
	Claim(id int64) (bool, error)

	MarkSent(id int64, at time.Time) error
	MarkFailed(id int64, reason string) error
	CountPending(campaignID int64) (int, error)
	CountByStatus(campaignID int64) (map[string]int, error)
}

// ClientRepositoryInterface resolves audiences and individual clients.
type ClientRepositoryInterface interface {
	GetByID(id int64) (*model.Client, error)
	GetByIDs(ids []int64) ([]model.Client, error)
	AllClients() ([]model.Client, error)

	// RegularClients returns clients with at least minAppointments
	// appointments starting after since.
	RegularClients(since time.Time, minAppointments int) ([]model.Client, error)

	// NewClients returns clients created after since.
	NewClients(since time.Time) ([]model.Client, error)

	// InactiveClients returns clients with zero appointments after since.
	InactiveClients(since time.Time) ([]model.Client, error)
}

// RuleRepositoryInterface serves the automation trigger dispatcher.
type RuleRepositoryInterface interface {
	// ActiveByTrigger returns active rules matching the trigger key; for
	// the custom trigger, customName must also match.
	ActiveByTrigger(trigger, customName string) ([]*model.AutomationRule, error)
	IncrementSentCount(id int64) error
}

// LookupRepositoryInterface resolves event context into the data needed
// for template variables. Read-only.
type LookupRepositoryInterface interface {
	AppointmentContext(appointmentID int64) (*model.AppointmentContext, error)
	LocationByID(id int64) (*model.Location, error)
	LocationByName(name string) (*model.Location, error)
}
