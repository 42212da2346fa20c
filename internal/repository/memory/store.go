// Package memory provides an in-memory implementation of the repository
// interfaces. It backs service-level tests and single-process demos; the
// Postgres implementations are the production path.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	appErrors "github.com/glowdesk/outreach/internal/errors"
	"github.com/glowdesk/outreach/internal/model"
	"github.com/glowdesk/outreach/internal/repository"
)

// Store holds all tables behind one mutex. Each repository interface is
// served by a facet view (Campaigns, Recipients, ...) over the same data.
type Store struct {
	mu sync.Mutex

	campaigns    map[int64]*model.Campaign
	recipients   map[int64]*model.CampaignRecipient
	clients      map[int64]*model.Client
	rules        map[int64]*model.AutomationRule
	appointments map[int64]*model.Appointment
	services     map[int64]*model.Service
	staff        map[int64]*model.Staff
	locations    map[int64]*model.Location

	nextCampaignID    int64
	nextRecipientID   int64
	nextAppointmentID int64
}

func NewStore() *Store {
	return &Store{
		campaigns:    make(map[int64]*model.Campaign),
		recipients:   make(map[int64]*model.CampaignRecipient),
		clients:      make(map[int64]*model.Client),
		rules:        make(map[int64]*model.AutomationRule),
		appointments: make(map[int64]*model.Appointment),
		services:     make(map[int64]*model.Service),
		staff:        make(map[int64]*model.Staff),
		locations:    make(map[int64]*model.Location),
	}
}

func (s *Store) Campaigns() *Campaigns   { return &Campaigns{s: s} }
func (s *Store) Recipients() *Recipients { return &Recipients{s: s} }
func (s *Store) Clients() *Clients       { return &Clients{s: s} }
func (s *Store) Rules() *Rules           { return &Rules{s: s} }
func (s *Store) Lookups() *Lookups       { return &Lookups{s: s} }

// ---- fixtures ----

func (s *Store) AddClient(c model.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := c
	s.clients[c.ID] = &cp
}

func (s *Store) AddRule(r model.AutomationRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := r
	s.rules[r.ID] = &cp
}

func (s *Store) AddAppointment(a model.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := a
	s.appointments[a.ID] = &cp
}

func (s *Store) AddService(svc model.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := svc
	s.services[svc.ID] = &cp
}

func (s *Store) AddStaff(st model.Staff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := st
	s.staff[st.ID] = &cp
}

func (s *Store) AddLocation(l model.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := l
	s.locations[l.ID] = &cp
}

// SetAppointments gives a client synthetic appointment history, for
// shaping the regular/inactive audiences in tests.
func (s *Store) SetAppointments(clientID int64, startTimes []time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, at := range startTimes {
		s.nextAppointmentID++
		id := 100000 + s.nextAppointmentID
		s.appointments[id] = &model.Appointment{ID: id, ClientID: clientID, StartTime: at}
	}
}

// RuleByID returns a copy of the stored rule, for assertions on SentCount.
func (s *Store) RuleByID(id int64) model.AutomationRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.rules[id]
}

// RecipientRows returns copies of all ledger rows for a campaign, id order.
func (s *Store) RecipientRows(campaignID int64) []model.CampaignRecipient {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.CampaignRecipient{}
	for _, r := range s.recipients {
		if r.CampaignID == campaignID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---- CampaignRepositoryInterface ----

type Campaigns struct{ s *Store }

func (v *Campaigns) Create(c *model.Campaign) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.nextCampaignID++
	c.ID = v.s.nextCampaignID
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	c.CreatedAt = time.Now()
	cp := *c
	v.s.campaigns[c.ID] = &cp
	return nil
}

func (v *Campaigns) GetByID(id int64) (*model.Campaign, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	c, ok := v.s.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (v *Campaigns) Update(c *model.Campaign) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	stored, ok := v.s.campaigns[c.ID]
	if !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	stored.Name = c.Name
	stored.Subject = c.Subject
	stored.Body = c.Body
	stored.Audience = c.Audience
	stored.RecipientIDs = c.RecipientIDs
	stored.Status = c.Status
	stored.SendDate = c.SendDate
	now := time.Now()
	stored.UpdatedAt = &now
	return nil
}

func (v *Campaigns) UpdateStatus(campaignID int64, status string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	c, ok := v.s.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	c.Status = status
	return nil
}

func (v *Campaigns) MarkSent(campaignID int64, at time.Time) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	c, ok := v.s.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	c.Status = model.CampaignSent
	c.SentAt = &at
	return nil
}

func (v *Campaigns) ListDue(now time.Time) ([]*model.Campaign, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	due := []*model.Campaign{}
	for _, c := range v.s.campaigns {
		scheduled := c.Status == model.CampaignScheduled && c.SendDate != nil && !c.SendDate.After(now)
		if scheduled || c.Status == model.CampaignSending {
			cp := *c
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

func (v *Campaigns) AddCounters(campaignID int64, sentDelta, failedDelta int) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	c, ok := v.s.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	c.SentCount += sentDelta
	c.DeliveredCount += sentDelta
	c.FailedCount += failedDelta
	return nil
}

func (v *Campaigns) ListCampaigns(offset, limit int, channel, status string) ([]*model.Campaign, int, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	all := []*model.Campaign{}
	for _, c := range v.s.campaigns {
		if channel != "" && c.Channel != channel {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := len(all)
	if offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// ---- RecipientRepositoryInterface ----

type Recipients struct{ s *Store }

func (v *Recipients) CountForCampaign(campaignID int64) (int, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	count := 0
	for _, r := range v.s.recipients {
		if r.CampaignID == campaignID {
			count++
		}
	}
	return count, nil
}

func (v *Recipients) BulkInsert(recipients []*model.CampaignRecipient) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	now := time.Now()
	for _, rec := range recipients {
		v.s.nextRecipientID++
		rec.ID = v.s.nextRecipientID
		if rec.Status == "" {
			rec.Status = model.RecipientPending
		}
		rec.CreatedAt = now
		rec.UpdatedAt = now
		cp := *rec
		v.s.recipients[rec.ID] = &cp
	}
	return nil
}

func (v *Recipients) ListPending(campaignID int64, limit int) ([]*model.CampaignRecipient, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	pending := []*model.CampaignRecipient{}
	for _, r := range v.s.recipients {
		if r.CampaignID == campaignID && r.Status == model.RecipientPending {
			cp := *r
			pending = append(pending, &cp)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (v *Recipients) Claim(id int64) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	r, ok := v.s.recipients[id]
	if !ok || r.Status != model.RecipientPending {
		return false, nil
	}
	r.Status = model.RecipientClaimed
	r.UpdatedAt = time.Now()
	return true, nil
}

func (v *Recipients) MarkSent(id int64, at time.Time) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if r, ok := v.s.recipients[id]; ok {
		r.Status = model.RecipientSent
		r.SentAt = &at
		r.ErrorMessage = ""
		r.UpdatedAt = at
	}
	return nil
}

func (v *Recipients) MarkFailed(id int64, reason string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if r, ok := v.s.recipients[id]; ok {
		r.Status = model.RecipientFailed
		r.ErrorMessage = reason
		r.UpdatedAt = time.Now()
	}
	return nil
}

func (v *Recipients) CountPending(campaignID int64) (int, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	count := 0
	for _, r := range v.s.recipients {
		if r.CampaignID == campaignID && r.Status == model.RecipientPending {
			count++
		}
	}
	return count, nil
}

func (v *Recipients) CountByStatus(campaignID int64) (map[string]int, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	stats := map[string]int{
		model.RecipientPending: 0,
		model.RecipientClaimed: 0,
		model.RecipientSent:    0,
		model.RecipientFailed:  0,
	}
	for _, r := range v.s.recipients {
		if r.CampaignID == campaignID {
			stats[r.Status]++
		}
	}
	return stats, nil
}

// ---- ClientRepositoryInterface ----

type Clients struct{ s *Store }

func (v *Clients) GetByID(id int64) (*model.Client, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	c, ok := v.s.clients[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (v *Clients) GetByIDs(ids []int64) ([]model.Client, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := []model.Client{}
	for _, id := range ids {
		if c, ok := v.s.clients[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (v *Clients) AllClients() ([]model.Client, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := []model.Client{}
	for _, c := range v.s.clients {
		if c.Role == model.RoleClient {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *Clients) RegularClients(since time.Time, minAppointments int) ([]model.Client, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	counts := map[int64]int{}
	for _, a := range v.s.appointments {
		if !a.StartTime.Before(since) {
			counts[a.ClientID]++
		}
	}
	out := []model.Client{}
	for _, c := range v.s.clients {
		if c.Role == model.RoleClient && counts[c.ID] >= minAppointments {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *Clients) NewClients(since time.Time) ([]model.Client, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := []model.Client{}
	for _, c := range v.s.clients {
		if c.Role == model.RoleClient && !c.CreatedAt.Before(since) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *Clients) InactiveClients(since time.Time) ([]model.Client, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	active := map[int64]bool{}
	for _, a := range v.s.appointments {
		if !a.StartTime.Before(since) {
			active[a.ClientID] = true
		}
	}
	out := []model.Client{}
	for _, c := range v.s.clients {
		if c.Role == model.RoleClient && !active[c.ID] {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- RuleRepositoryInterface ----

type Rules struct{ s *Store }

func (v *Rules) ActiveByTrigger(trigger, customName string) ([]*model.AutomationRule, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := []*model.AutomationRule{}
	for _, r := range v.s.rules {
		if !r.Active || r.TriggerType != trigger {
			continue
		}
		if trigger == model.TriggerCustom && r.CustomTriggerName != customName {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *Rules) IncrementSentCount(id int64) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if r, ok := v.s.rules[id]; ok {
		r.SentCount++
	}
	return nil
}

// ---- LookupRepositoryInterface ----

type Lookups struct{ s *Store }

func (v *Lookups) AppointmentContext(appointmentID int64) (*model.AppointmentContext, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	appt, ok := v.s.appointments[appointmentID]
	if !ok {
		return nil, nil
	}
	a := *appt
	ctx := &model.AppointmentContext{Appointment: &a}
	if c, ok := v.s.clients[a.ClientID]; ok {
		cp := *c
		ctx.Client = &cp
	}
	if svc, ok := v.s.services[a.ServiceID]; ok {
		cp := *svc
		ctx.Service = &cp
	}
	if st, ok := v.s.staff[a.StaffID]; ok {
		cp := *st
		ctx.Staff = &cp
	}
	if a.LocationID != nil {
		if loc, ok := v.s.locations[*a.LocationID]; ok {
			cp := *loc
			ctx.Location = &cp
		}
	}
	return ctx, nil
}

func (v *Lookups) LocationByID(id int64) (*model.Location, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	loc, ok := v.s.locations[id]
	if !ok {
		return nil, nil
	}
	cp := *loc
	return &cp, nil
}

func (v *Lookups) LocationByName(name string) (*model.Location, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, loc := range v.s.locations {
		if strings.EqualFold(loc.Name, name) {
			cp := *loc
			return &cp, nil
		}
	}
	return nil, nil
}

var (
	_ repository.CampaignRepositoryInterface  = (*Campaigns)(nil)
	_ repository.RecipientRepositoryInterface = (*Recipients)(nil)
	_ repository.ClientRepositoryInterface    = (*Clients)(nil)
	_ repository.RuleRepositoryInterface      = (*Rules)(nil)
	_ repository.LookupRepositoryInterface    = (*Lookups)(nil)
)
