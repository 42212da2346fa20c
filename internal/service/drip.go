package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/glowdesk/outreach/internal/audience"
	"github.com/glowdesk/outreach/internal/channel"
	"github.com/glowdesk/outreach/internal/config"
	"github.com/glowdesk/outreach/internal/contact"
	appErrors "github.com/glowdesk/outreach/internal/errors"
	"github.com/glowdesk/outreach/internal/metrics"
	"github.com/glowdesk/outreach/internal/model"
	"github.com/glowdesk/outreach/internal/repository"
	"github.com/glowdesk/outreach/internal/template"
)

// DripService advances campaigns one bounded batch at a time. Multiple
// ticks or process instances may race on the same campaign; the ledger's
// Claim compare-and-swap is what keeps that safe, not any locking here.
type DripService struct {
	Campaigns  repository.CampaignRepositoryInterface
	Recipients repository.RecipientRepositoryInterface
	Clients    repository.ClientRepositoryInterface
	Resolver   *audience.Resolver
	Email      channel.EmailSender
	SMS        channel.SMSSender
	Window     *Window
	Cfg        *config.Config
	FromEmail  string
	Logger     *zap.Logger

	// Sleep and Now are swappable in tests. Nil means the real thing.
	Sleep func(ctx context.Context, d time.Duration)
	Now   func() time.Time
}

// batchRun carries per-run dedup state. It is created fresh for every
// batch and passed down explicitly, so concurrent runs and tests never
// share suppression state.
type batchRun struct {
	id   string
	seen map[string]bool
}

func newBatchRun() *batchRun {
	return &batchRun{id: uuid.NewString(), seen: make(map[string]bool)}
}

// SeedRecipients populates the ledger for a campaign. Idempotent: if any
// rows already exist the call is a no-op, so a partially processed
// campaign survives restarts without re-seeding.
func (s *DripService) SeedRecipients(c *model.Campaign) error {
	count, err := s.Recipients.CountForCampaign(c.ID)
	if err != nil {
		return appErrors.NewStorage("count recipients", err)
	}
	if count > 0 {
		return nil
	}

	aud, err := s.Resolver.Resolve(c)
	if err != nil {
		return err
	}

	rows := []*model.CampaignRecipient{}
	seen := make(map[string]bool)
	for i := range aud.Clients {
		cl := &aud.Clients[i]
		raw := cl.ContactFor(c.Channel)
		key := contact.Normalize(c.Channel, raw)
		if key == "" || !campaignConsent(c, cl, aud.ImplicitConsent) {
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, &model.CampaignRecipient{
			CampaignID: c.ID,
			ClientID:   cl.ID,
			Contact:    key,
			Status:     model.RecipientPending,
		})
	}

	if err := s.Recipients.BulkInsert(rows); err != nil {
		return appErrors.NewStorage("seed recipients", err)
	}
	s.Logger.Info("seeded campaign recipients",
		zap.Int64("campaign_id", c.ID),
		zap.Int("recipients", len(rows)),
	)
	return nil
}

// campaignConsent checks the promotional consent flag for the campaign's
// channel. Direct selection (the explicit selector) implies SMS consent
// even when the blanket flag is off; email has no such override.
func campaignConsent(c *model.Campaign, cl *model.Client, implicit bool) bool {
	if c.IsSMS() {
		return implicit || cl.SMSPromotions
	}
	return cl.EmailPromotions
}

// ProcessCampaign advances one campaign by a single batch: seed if
// needed, honor the SMS send window, then claim-render-send up to
// batch-size pending rows and roll the results into the campaign.
func (s *DripService) ProcessCampaign(ctx context.Context, c *model.Campaign) error {
	if err := s.SeedRecipients(c); err != nil {
		return err
	}

	now := s.now()
	if c.IsSMS() && !s.Window.Open(now) {
		// No status change, no counters; the campaign simply waits for
		// the next in-window tick.
		s.Logger.Info("sms send window closed, skipping tick",
			zap.Int64("campaign_id", c.ID),
		)
		return nil
	}

	if c.Status == model.CampaignScheduled {
		if err := s.Campaigns.UpdateStatus(c.ID, model.CampaignSending); err != nil {
			return appErrors.NewStorage("update campaign status", err)
		}
		c.Status = model.CampaignSending
	}

	tp := ThroughputFor(s.Cfg, c.Channel)
	pending, err := s.Recipients.ListPending(c.ID, tp.BatchSize)
	if err != nil {
		return appErrors.NewStorage("list pending recipients", err)
	}

	run := newBatchRun()
	implicit := c.Audience == model.AudienceSpecific
	sentDelta, failedDelta := 0, 0

	for _, rec := range pending {
		cl, err := s.Clients.GetByID(rec.ClientID)
		if err != nil {
			return appErrors.NewStorage("load client", err)
		}

		dest, key, reason := "", "", ""
		if cl == nil {
			reason = model.ReasonNoContactOrPreference
		} else {
			dest = cl.ContactFor(c.Channel)
			key = contact.Normalize(c.Channel, dest)
			switch {
			case dest == "" || !campaignConsent(c, cl, implicit):
				reason = model.ReasonNoContactOrPreference
			case run.seen[key]:
				reason = model.ReasonDuplicateSuppressed
			}
		}

		claimed, err := s.Recipients.Claim(rec.ID)
		if err != nil {
			return appErrors.NewStorage("claim recipient", err)
		}
		if !claimed {
			// A concurrent run owns this row; skip, don't retry.
			continue
		}

		if reason != "" {
			if err := s.Recipients.MarkFailed(rec.ID, reason); err != nil {
				return appErrors.NewStorage("mark recipient failed", err)
			}
			failedDelta++
			continue
		}
		run.seen[key] = true

		vars := campaignVars(cl)
		sendErr := s.send(ctx, c, dest, template.Render(c.Subject, vars), template.Render(c.Body, vars))
		if sendErr != nil {
			reason := sendErr.Error()
			if reason == "" {
				reason = model.ReasonSendFailed
			}
			if err := s.Recipients.MarkFailed(rec.ID, reason); err != nil {
				return appErrors.NewStorage("mark recipient failed", err)
			}
			failedDelta++
			metrics.MessagesFailed.WithLabelValues(c.Channel, "campaign").Inc()
			s.Logger.Warn("campaign send failed",
				zap.Int64("campaign_id", c.ID),
				zap.Int64("recipient_id", rec.ID),
				zap.String("run_id", run.id),
				zap.Error(sendErr),
			)
		} else {
			if err := s.Recipients.MarkSent(rec.ID, s.now()); err != nil {
				return appErrors.NewStorage("mark recipient sent", err)
			}
			sentDelta++
			metrics.MessagesSent.WithLabelValues(c.Channel, "campaign").Inc()
		}

		s.sleep(ctx, tp.Delay)
	}

	if err := s.Campaigns.AddCounters(c.ID, sentDelta, failedDelta); err != nil {
		return appErrors.NewStorage("update campaign counters", err)
	}

	left, err := s.Recipients.CountPending(c.ID)
	if err != nil {
		return appErrors.NewStorage("count pending recipients", err)
	}
	if left == 0 {
		if err := s.Campaigns.MarkSent(c.ID, s.now()); err != nil {
			return appErrors.NewStorage("mark campaign sent", err)
		}
		s.Logger.Info("campaign fully sent",
			zap.Int64("campaign_id", c.ID),
			zap.Int("sent", sentDelta),
			zap.Int("failed", failedDelta),
		)
	}
	return nil
}

func (s *DripService) send(ctx context.Context, c *model.Campaign, dest, subject, body string) error {
	if c.IsSMS() {
		return s.SMS.Send(ctx, channel.SMSMessage{To: dest, Body: body})
	}
	return s.Email.Send(ctx, channel.EmailMessage{
		To:      dest,
		From:    s.FromEmail,
		Subject: subject,
		Text:    body,
	})
}

// campaignVars are the placeholders available in campaign bodies and
// subjects.
func campaignVars(cl *model.Client) map[string]string {
	return map[string]string{
		"first_name":   cl.FirstName,
		"last_name":    cl.LastName,
		"client_name":  cl.FullName(),
		"client_email": cl.Email,
		"client_phone": cl.Phone,
	}
}

func (s *DripService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DripService) sleep(ctx context.Context, d time.Duration) {
	if s.Sleep != nil {
		s.Sleep(ctx, d)
		return
	}
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
