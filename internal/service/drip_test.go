package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/glowdesk/outreach/internal/audience"
	"github.com/glowdesk/outreach/internal/channel"
	"github.com/glowdesk/outreach/internal/config"
	"github.com/glowdesk/outreach/internal/model"
	"github.com/glowdesk/outreach/internal/repository/memory"
)

type fakeEmailSender struct {
	mu          sync.Mutex
	sent        []channel.EmailMessage
	err         error
	failSubject string
}

func (f *fakeEmailSender) Send(ctx context.Context, msg channel.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.failSubject != "" && msg.Subject == f.failSubject {
		return errors.New("provider rejected message")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeEmailSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeSMSSender struct {
	mu   sync.Mutex
	sent []channel.SMSMessage
	err  error
}

func (f *fakeSMSSender) Send(ctx context.Context, msg channel.SMSMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSMSSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var testNow = time.Date(2025, 5, 1, 15, 0, 0, 0, time.UTC)

type dripFixture struct {
	store *memory.Store
	email *fakeEmailSender
	sms   *fakeSMSSender
	drip  *DripService
}

func newDripFixture() *dripFixture {
	store := memory.NewStore()
	resolver := audience.NewResolver(store.Clients())
	resolver.Now = func() time.Time { return testNow }

	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}

	cfg := &config.Config{
		EmailBatchSize: 50,
		SMSBatchSize:   100,
	}

	drip := &DripService{
		Campaigns:  store.Campaigns(),
		Recipients: store.Recipients(),
		Clients:    store.Clients(),
		Resolver:   resolver,
		Email:      email,
		SMS:        sms,
		Window:     &Window{Zone: time.UTC, StartHour: 0, EndHour: 24},
		Cfg:        cfg,
		FromEmail:  "salon@example.com",
		Logger:     zap.NewNop(),
		Sleep:      func(context.Context, time.Duration) {},
		Now:        func() time.Time { return testNow },
	}
	return &dripFixture{store: store, email: email, sms: sms, drip: drip}
}

func (f *dripFixture) addEmailClient(id int64, email string, promos bool) {
	f.store.AddClient(model.Client{
		ID: id, FirstName: "Client", Role: model.RoleClient,
		Email: email, EmailPromotions: promos,
	})
}

func (f *dripFixture) newCampaign(c model.Campaign) *model.Campaign {
	if c.Status == "" {
		c.Status = model.CampaignSending
	}
	if c.Channel == "" {
		c.Channel = model.ChannelEmail
	}
	if c.Audience == "" {
		c.Audience = model.AudienceAll
	}
	_ = f.store.Campaigns().Create(&c)
	return &c
}

func TestSeedRecipientsIdempotent(t *testing.T) {
	f := newDripFixture()
	f.addEmailClient(1, "a@example.com", true)
	f.addEmailClient(2, "b@example.com", true)
	c := f.newCampaign(model.Campaign{Name: "Spring promo", Body: "Hi"})

	require.NoError(t, f.drip.SeedRecipients(c))
	require.NoError(t, f.drip.SeedRecipients(c))

	assert.Len(t, f.store.RecipientRows(c.ID), 2)
}

func TestSeedRecipientsDedupesByNormalizedContact(t *testing.T) {
	f := newDripFixture()
	// Two accounts, one mailbox spelled differently.
	f.addEmailClient(1, "Shared@Example.com", true)
	f.addEmailClient(2, "  shared@example.COM ", true)
	c := f.newCampaign(model.Campaign{Name: "Dedup", Body: "Hi"})

	require.NoError(t, f.drip.SeedRecipients(c))

	rows := f.store.RecipientRows(c.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, "shared@example.com", rows[0].Contact)
}

func TestSeedRecipientsPhoneDedup(t *testing.T) {
	f := newDripFixture()
	f.store.AddClient(model.Client{ID: 1, Role: model.RoleClient, Phone: "+1 (555) 123-4567", SMSPromotions: true})
	f.store.AddClient(model.Client{ID: 2, Role: model.RoleClient, Phone: "5551234567", SMSPromotions: true})
	c := f.newCampaign(model.Campaign{Name: "SMS dedup", Channel: model.ChannelSMS, Body: "Hi"})

	require.NoError(t, f.drip.SeedRecipients(c))
	assert.Len(t, f.store.RecipientRows(c.ID), 1)
}

func TestSeedRecipientsConsentGating(t *testing.T) {
	f := newDripFixture()
	f.store.AddClient(model.Client{ID: 1, Role: model.RoleClient, Phone: "5551234567", SMSPromotions: false})

	broad := f.newCampaign(model.Campaign{Name: "Broad", Channel: model.ChannelSMS, Body: "Hi"})
	require.NoError(t, f.drip.SeedRecipients(broad))
	assert.Empty(t, f.store.RecipientRows(broad.ID), "opted-out client must not be seeded by all_clients")

	// Direct selection overrides the blanket promotional-SMS flag.
	direct := f.newCampaign(model.Campaign{
		Name: "Direct", Channel: model.ChannelSMS, Body: "Hi",
		Audience: model.AudienceSpecific, RecipientIDs: "[1]",
	})
	require.NoError(t, f.drip.SeedRecipients(direct))
	assert.Len(t, f.store.RecipientRows(direct.ID), 1)
}

func TestSeedRecipientsSkipsEmptyContact(t *testing.T) {
	f := newDripFixture()
	f.addEmailClient(1, "", true)
	f.addEmailClient(2, "ok@example.com", true)
	c := f.newCampaign(model.Campaign{Name: "Contacts", Body: "Hi"})

	require.NoError(t, f.drip.SeedRecipients(c))

	rows := f.store.RecipientRows(c.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].ClientID)
}

func TestProcessCampaignCompletesInOneBatch(t *testing.T) {
	f := newDripFixture()
	f.addEmailClient(1, "a@example.com", true)
	f.addEmailClient(2, "b@example.com", true)
	sendDate := testNow.Add(-time.Hour)
	c := f.newCampaign(model.Campaign{
		Name: "Promo", Status: model.CampaignScheduled, SendDate: &sendDate,
		Subject: "Hello {first_name}", Body: "Hi {client_name}",
	})

	require.NoError(t, f.drip.ProcessCampaign(context.Background(), c))

	assert.Equal(t, 2, f.email.count())
	stored, err := f.store.Campaigns().GetByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignSent, stored.Status)
	require.NotNil(t, stored.SentAt)
	assert.Equal(t, 2, stored.SentCount)
	assert.Equal(t, 0, stored.FailedCount)

	for _, row := range f.store.RecipientRows(c.ID) {
		assert.Equal(t, model.RecipientSent, row.Status)
		assert.NotNil(t, row.SentAt)
	}
}

func TestProcessCampaignDripsAcrossBatches(t *testing.T) {
	f := newDripFixture()
	f.drip.Cfg.EmailBatchSize = 1
	for i := int64(1); i <= 3; i++ {
		f.addEmailClient(i, string(rune('a'+i))+"@example.com", true)
	}
	c := f.newCampaign(model.Campaign{Name: "Drip", Body: "Hi"})

	for i := 0; i < 2; i++ {
		require.NoError(t, f.drip.ProcessCampaign(context.Background(), c))
		stored, _ := f.store.Campaigns().GetByID(c.ID)
		assert.Equal(t, model.CampaignSending, stored.Status)
	}

	require.NoError(t, f.drip.ProcessCampaign(context.Background(), c))
	stored, _ := f.store.Campaigns().GetByID(c.ID)
	assert.Equal(t, model.CampaignSent, stored.Status)
	assert.Equal(t, 3, stored.SentCount)
}

func TestProcessCampaignMonotonicCounters(t *testing.T) {
	f := newDripFixture()
	f.drip.Cfg.EmailBatchSize = 2
	f.addEmailClient(1, "a@example.com", true)
	f.addEmailClient(2, "b@example.com", true)
	f.addEmailClient(3, "c@example.com", true)
	c := f.newCampaign(model.Campaign{Name: "Counters", Body: "Hi"})

	for {
		require.NoError(t, f.drip.ProcessCampaign(context.Background(), c))
		stored, _ := f.store.Campaigns().GetByID(c.ID)
		if stored.Status == model.CampaignSent {
			break
		}
	}

	stored, _ := f.store.Campaigns().GetByID(c.ID)
	notPending := 0
	for _, row := range f.store.RecipientRows(c.ID) {
		if row.Status != model.RecipientPending {
			notPending++
		}
	}
	assert.Equal(t, notPending, stored.SentCount+stored.FailedCount)
}

func TestProcessCampaignWindowGating(t *testing.T) {
	f := newDripFixture()
	f.drip.Window = &Window{Zone: time.UTC, StartHour: 8, EndHour: 20}
	f.drip.Now = func() time.Time {
		return time.Date(2025, 5, 1, 23, 0, 0, 0, time.UTC)
	}
	f.store.AddClient(model.Client{ID: 1, Role: model.RoleClient, Phone: "5551234567", SMSPromotions: true})
	sendDate := testNow.Add(-time.Hour)
	c := f.newCampaign(model.Campaign{
		Name: "Night", Channel: model.ChannelSMS,
		Status: model.CampaignScheduled, SendDate: &sendDate, Body: "Hi",
	})
	require.NoError(t, f.drip.SeedRecipients(c))

	require.NoError(t, f.drip.ProcessCampaign(context.Background(), c))

	assert.Zero(t, f.sms.count())
	stored, _ := f.store.Campaigns().GetByID(c.ID)
	assert.Equal(t, model.CampaignScheduled, stored.Status, "window no-op must not change status")
	for _, row := range f.store.RecipientRows(c.ID) {
		assert.Equal(t, model.RecipientPending, row.Status)
	}
}

func TestProcessCampaignRecordsSendFailures(t *testing.T) {
	f := newDripFixture()
	f.email.err = errors.New("smtp: connection refused")
	f.addEmailClient(1, "a@example.com", true)
	c := f.newCampaign(model.Campaign{Name: "Failing", Body: "Hi"})

	require.NoError(t, f.drip.ProcessCampaign(context.Background(), c))

	rows := f.store.RecipientRows(c.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, model.RecipientFailed, rows[0].Status)
	assert.Equal(t, "smtp: connection refused", rows[0].ErrorMessage)

	stored, _ := f.store.Campaigns().GetByID(c.ID)
	assert.Equal(t, 0, stored.SentCount)
	assert.Equal(t, 1, stored.FailedCount)
	// All rows are resolved, so the campaign still completes.
	assert.Equal(t, model.CampaignSent, stored.Status)
}

func TestProcessCampaignSuppressesSameRunDuplicates(t *testing.T) {
	f := newDripFixture()
	f.addEmailClient(1, "dup@example.com", true)
	c := f.newCampaign(model.Campaign{Name: "Dup run", Body: "Hi"})

	// Ledger built by hand with a duplicate contact, as if seeded by an
	// older version without contact-level dedup.
	require.NoError(t, f.store.Recipients().BulkInsert([]*model.CampaignRecipient{
		{CampaignID: c.ID, ClientID: 1, Contact: "dup@example.com"},
		{CampaignID: c.ID, ClientID: 2, Contact: "dup@example.com"},
	}))
	f.store.AddClient(model.Client{
		ID: 2, Role: model.RoleClient, Email: "dup@example.com", EmailPromotions: true,
	})

	require.NoError(t, f.drip.ProcessCampaign(context.Background(), c))

	rows := f.store.RecipientRows(c.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, model.RecipientSent, rows[0].Status)
	assert.Equal(t, model.RecipientFailed, rows[1].Status)
	assert.Equal(t, model.ReasonDuplicateSuppressed, rows[1].ErrorMessage)
	assert.Equal(t, 1, f.email.count())
}

func TestProcessCampaignSkipsClaimedRows(t *testing.T) {
	f := newDripFixture()
	f.addEmailClient(1, "a@example.com", true)
	c := f.newCampaign(model.Campaign{Name: "Claimed", Body: "Hi"})
	require.NoError(t, f.drip.SeedRecipients(c))

	// A concurrent run claimed the row between our query and our claim.
	rows := f.store.RecipientRows(c.ID)
	require.Len(t, rows, 1)
	pendingList, err := f.store.Recipients().ListPending(c.ID, 10)
	require.NoError(t, err)
	require.Len(t, pendingList, 1)
	claimed, err := f.store.Recipients().Claim(rows[0].ID)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, f.drip.ProcessCampaign(context.Background(), c))
	assert.Zero(t, f.email.count())
}

func TestClaimExclusivity(t *testing.T) {
	f := newDripFixture()
	require.NoError(t, f.store.Recipients().BulkInsert([]*model.CampaignRecipient{
		{CampaignID: 1, ClientID: 1, Contact: "a@example.com"},
	}))
	rows := f.store.RecipientRows(1)
	require.Len(t, rows, 1)

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := f.store.Recipients().Claim(rows[0].ID)
			if err == nil && ok {
				wins <- true
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	assert.Equal(t, 1, won, "exactly one concurrent claim must succeed")
}

func TestProcessCampaignRendersTemplates(t *testing.T) {
	f := newDripFixture()
	f.store.AddClient(model.Client{
		ID: 1, FirstName: "Sam", LastName: "Lee", Role: model.RoleClient,
		Email: "sam@example.com", EmailPromotions: true,
	})
	c := f.newCampaign(model.Campaign{
		Name:    "Tpl",
		Subject: "For {first_name}",
		Body:    "Hi {client_name}, see you soon. {unused}",
	})

	require.NoError(t, f.drip.ProcessCampaign(context.Background(), c))

	require.Equal(t, 1, f.email.count())
	msg := f.email.sent[0]
	assert.Equal(t, "For Sam", msg.Subject)
	assert.Equal(t, "Hi Sam Lee, see you soon. {unused}", msg.Text)
	assert.Equal(t, "salon@example.com", msg.From)
}
