package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glowdesk/outreach/internal/model"
)

func TestConsentTable(t *testing.T) {
	client := &model.Client{
		EmailAppointments: true,
		EmailAccount:      false,
		EmailPromotions:   true,
		SMSAppointments:   false,
		SMSAccount:        true,
		SMSPromotions:     false,
	}

	cases := []struct {
		trigger   string
		channel   string
		permitted bool
		granted   bool
	}{
		{model.TriggerBookingConfirmation, model.ChannelEmail, true, true},
		{model.TriggerBookingConfirmation, model.ChannelSMS, false, false},
		{model.TriggerAppointmentReminder, model.ChannelEmail, true, true},
		{model.TriggerAppointmentReminder, model.ChannelSMS, true, false},
		{model.TriggerAppointmentCancelled, model.ChannelEmail, true, false},
		{model.TriggerAppointmentCancelled, model.ChannelSMS, true, true},
		{model.TriggerNoShow, model.ChannelSMS, true, true},
		{model.TriggerFollowUp, model.ChannelEmail, true, true},
		{model.TriggerFollowUp, model.ChannelSMS, true, false},
		{model.TriggerAfterPayment, model.ChannelEmail, true, false},
		{model.TriggerCustom, model.ChannelEmail, true, true},
		{"made_up_trigger", model.ChannelEmail, false, false},
	}

	for _, tc := range cases {
		check, permitted := consentFor(tc.trigger, tc.channel)
		assert.Equal(t, tc.permitted, permitted, "%s/%s permitted", tc.trigger, tc.channel)
		if permitted {
			assert.Equal(t, tc.granted, check(client), "%s/%s granted", tc.trigger, tc.channel)
		}
	}
}

func TestBookingConfirmationSMSAlwaysSuppressed(t *testing.T) {
	// Even a fully opted-in client never gets an automation SMS for
	// booking confirmations; the booking flow sends its own.
	_, permitted := consentFor(model.TriggerBookingConfirmation, model.ChannelSMS)
	assert.False(t, permitted)
}
