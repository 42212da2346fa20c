package service

import "github.com/glowdesk/outreach/internal/model"

// consentCheck reports whether a client has granted the consent a
// trigger/channel pair requires.
type consentCheck func(c *model.Client) bool

var (
	emailAppointments consentCheck = func(c *model.Client) bool { return c.EmailAppointments }
	emailAccount      consentCheck = func(c *model.Client) bool { return c.EmailAccount }
	emailPromotions   consentCheck = func(c *model.Client) bool { return c.EmailPromotions }
	smsAppointments   consentCheck = func(c *model.Client) bool { return c.SMSAppointments }
	smsAccount        consentCheck = func(c *model.Client) bool { return c.SMSAccount }
	smsPromotions     consentCheck = func(c *model.Client) bool { return c.SMSPromotions }
)

// triggerConsent is the declarative trigger -> channel -> consent table.
// A missing channel entry means the pair is suppressed outright.
// booking_confirmation has no SMS entry on purpose: the booking code path
// already sends a direct confirmation SMS, and a rule here would
// double-send.
var triggerConsent = map[string]map[string]consentCheck{
	model.TriggerBookingConfirmation: {
		model.ChannelEmail: emailAppointments,
	},
	model.TriggerAppointmentReminder: {
		model.ChannelEmail: emailAppointments,
		model.ChannelSMS:   smsAppointments,
	},
	model.TriggerAppointmentCancelled: {
		model.ChannelEmail: emailAccount,
		model.ChannelSMS:   smsAccount,
	},
	model.TriggerNoShow: {
		model.ChannelEmail: emailAccount,
		model.ChannelSMS:   smsAccount,
	},
	model.TriggerFollowUp: {
		model.ChannelEmail: emailPromotions,
		model.ChannelSMS:   smsPromotions,
	},
	model.TriggerAfterPayment: {
		model.ChannelEmail: emailAccount,
		model.ChannelSMS:   smsAccount,
	},
	model.TriggerCustom: {
		model.ChannelEmail: emailPromotions,
		model.ChannelSMS:   smsPromotions,
	},
}

// consentFor returns the consent check for a trigger/channel pair and
// whether sending on that pair is permitted at all.
func consentFor(trigger, channelName string) (consentCheck, bool) {
	byChannel, ok := triggerConsent[trigger]
	if !ok {
		return nil, false
	}
	check, ok := byChannel[channelName]
	return check, ok
}
