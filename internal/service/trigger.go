package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/glowdesk/outreach/internal/channel"
	appErrors "github.com/glowdesk/outreach/internal/errors"
	"github.com/glowdesk/outreach/internal/metrics"
	"github.com/glowdesk/outreach/internal/model"
	"github.com/glowdesk/outreach/internal/repository"
	"github.com/glowdesk/outreach/internal/template"
)

// TriggerEvent is one lifecycle event raised by the booking, payment or
// checkout code paths.
type TriggerEvent struct {
	Trigger       string
	CustomName    string
	AppointmentID int64

	// TestRecipient switches the dispatcher into preview mode: every
	// matching email rule's rendered content goes to this address,
	// bypassing consent and location scoping, and no client data or
	// rule counters are touched.
	TestRecipient string
}

// TriggerDispatcher fires automation rules synchronously on lifecycle
// events. It shares the consent and channel discipline of the drip path
// but sends immediately instead of through the ledger.
type TriggerDispatcher struct {
	Rules     repository.RuleRepositoryInterface
	Lookups   repository.LookupRepositoryInterface
	Email     channel.EmailSender
	SMS       channel.SMSSender
	FromEmail string

	// DefaultBusiness fills the business_* template variables when the
	// event's appointment has no location.
	DefaultBusiness model.Location

	// Zone is used to format appointment times in templates.
	Zone   *time.Location
	Logger *zap.Logger
}

// HandleTrigger selects matching rules for the event and sends each one.
// A single rule's failure is logged and never blocks its siblings.
func (d *TriggerDispatcher) HandleTrigger(ctx context.Context, ev TriggerEvent) error {
	metrics.TriggerEvents.WithLabelValues(ev.Trigger).Inc()

	rules, err := d.Rules.ActiveByTrigger(ev.Trigger, ev.CustomName)
	if err != nil {
		return appErrors.NewStorage("load automation rules", err)
	}
	if len(rules) == 0 {
		return nil
	}

	actx, err := d.Lookups.AppointmentContext(ev.AppointmentID)
	if err != nil {
		return appErrors.NewStorage("load appointment context", err)
	}

	if ev.TestRecipient != "" {
		d.sendPreviews(ctx, ev, rules, actx)
		return nil
	}

	if actx == nil || actx.Client == nil {
		d.Logger.Warn("trigger event without resolvable client",
			zap.String("trigger", ev.Trigger),
			zap.Int64("appointment_id", ev.AppointmentID),
		)
		return nil
	}

	rules = d.scopeRules(rules, actx.Location)
	vars := d.eventVars(actx)

	for _, rule := range rules {
		check, permitted := consentFor(ev.Trigger, rule.Channel)
		if !permitted {
			// e.g. booking_confirmation over SMS: the booking code path
			// already sends a direct confirmation, never double-send.
			continue
		}
		if check != nil && !check(actx.Client) {
			continue
		}

		dest := actx.Client.ContactFor(rule.Channel)
		if dest == "" {
			continue
		}

		if err := d.sendRule(ctx, rule, dest, vars); err != nil {
			metrics.MessagesFailed.WithLabelValues(rule.Channel, "trigger").Inc()
			d.Logger.Error("automation rule send failed",
				zap.Int64("rule_id", rule.ID),
				zap.String("trigger", ev.Trigger),
				zap.Error(err),
			)
			continue
		}

		metrics.MessagesSent.WithLabelValues(rule.Channel, "trigger").Inc()
		if err := d.Rules.IncrementSentCount(rule.ID); err != nil {
			d.Logger.Error("failed to increment rule sent count",
				zap.Int64("rule_id", rule.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// sendPreviews is the authoring/test path: every matching email rule is
// rendered and sent to the override destination as-is.
func (d *TriggerDispatcher) sendPreviews(ctx context.Context, ev TriggerEvent, rules []*model.AutomationRule, actx *model.AppointmentContext) {
	vars := d.eventVars(actx)
	for _, rule := range rules {
		if rule.Channel != model.ChannelEmail {
			continue
		}
		err := d.Email.Send(ctx, channel.EmailMessage{
			To:      ev.TestRecipient,
			From:    d.FromEmail,
			Subject: template.Render(rule.Subject, vars),
			Text:    template.Render(rule.Body, vars),
		})
		if err != nil {
			d.Logger.Error("rule preview send failed",
				zap.Int64("rule_id", rule.ID),
				zap.Error(err),
			)
		}
	}
}

// scopeRules narrows candidates by the event's location. Rules scoped to
// the event's location fully replace the global set when any match;
// otherwise only rules carrying no scope at all remain.
func (d *TriggerDispatcher) scopeRules(rules []*model.AutomationRule, loc *model.Location) []*model.AutomationRule {
	global := []*model.AutomationRule{}
	matched := []*model.AutomationRule{}

	for _, rule := range rules {
		if !rule.HasLocationScope() {
			global = append(global, rule)
			continue
		}
		if loc != nil && d.ruleMatchesLocation(rule, loc) {
			matched = append(matched, rule)
		}
	}

	if loc != nil && len(matched) > 0 {
		return matched
	}
	return global
}

func (d *TriggerDispatcher) ruleMatchesLocation(rule *model.AutomationRule, loc *model.Location) bool {
	if rule.LocationID != nil {
		return *rule.LocationID == loc.ID
	}
	if id, ok := rule.TokenLocationID(); ok {
		return id == loc.ID
	}
	tok, ok := rule.LocationToken()
	if !ok {
		return false
	}
	if strings.EqualFold(tok, loc.Name) {
		return true
	}
	// The token may name a location under a different spelling; resolve
	// it against the location table.
	resolved, err := d.Lookups.LocationByName(tok)
	if err != nil {
		d.Logger.Warn("location token lookup failed",
			zap.Int64("rule_id", rule.ID),
			zap.String("token", tok),
			zap.Error(err),
		)
		return false
	}
	return resolved != nil && resolved.ID == loc.ID
}

func (d *TriggerDispatcher) sendRule(ctx context.Context, rule *model.AutomationRule, dest string, vars map[string]string) error {
	if rule.Channel == model.ChannelSMS {
		return d.SMS.Send(ctx, channel.SMSMessage{
			To:   dest,
			Body: template.Render(rule.Body, vars),
		})
	}
	return d.Email.Send(ctx, channel.EmailMessage{
		To:      dest,
		From:    d.FromEmail,
		Subject: template.Render(rule.Subject, vars),
		Text:    template.Render(rule.Body, vars),
	})
}

// eventVars builds the placeholder map for automation templates. Safe to
// call with a nil or partial context (preview mode): missing pieces just
// leave their placeholders unreplaced.
func (d *TriggerDispatcher) eventVars(actx *model.AppointmentContext) map[string]string {
	vars := map[string]string{
		"business_name":    d.DefaultBusiness.BusinessName,
		"business_phone":   d.DefaultBusiness.Phone,
		"business_address": d.DefaultBusiness.Address,
	}
	if actx == nil {
		return vars
	}

	zone := d.Zone
	if zone == nil {
		zone = time.UTC
	}

	if actx.Client != nil {
		vars["client_name"] = actx.Client.FullName()
		vars["client_first_name"] = actx.Client.FirstName
		vars["client_email"] = actx.Client.Email
		vars["client_phone"] = actx.Client.Phone
	}
	if actx.Service != nil {
		vars["service_name"] = actx.Service.Name
		vars["service_duration"] = fmt.Sprintf("%d min", actx.Service.DurationMinutes)
	}
	if actx.Staff != nil {
		staffName := actx.Staff.FirstName
		if actx.Staff.LastName != "" {
			staffName += " " + actx.Staff.LastName
		}
		vars["staff_name"] = strings.TrimSpace(staffName)
	}
	if actx.Appointment != nil {
		local := actx.Appointment.StartTime.In(zone)
		vars["appointment_date"] = fmt.Sprintf("%d/%d/%d", local.Month(), local.Day(), local.Year())
		vars["appointment_time"] = local.Format("3:04 PM")
		booked := actx.Appointment.BookedAt.In(zone)
		vars["booking_date"] = fmt.Sprintf("%d/%d/%d", booked.Month(), booked.Day(), booked.Year())
		vars["total_amount"] = fmt.Sprintf("%.2f", actx.Appointment.TotalAmount)
	}
	if actx.Location != nil {
		vars["business_name"] = actx.Location.BusinessName
		vars["business_phone"] = actx.Location.Phone
		vars["business_address"] = actx.Location.Address
	}
	return vars
}
