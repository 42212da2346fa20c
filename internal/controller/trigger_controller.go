package controller

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/glowdesk/outreach/internal/service"
)

// TriggerController exposes the lifecycle-event entry points over HTTP
// for subsystems that are not wired to the message queue, plus the
// rule-preview path for authoring.
type TriggerController struct {
	Dispatcher *service.TriggerDispatcher
	Logger     *zap.Logger
}

type triggerRequest struct {
	Trigger       string `json:"trigger"`
	CustomName    string `json:"custom_name,omitempty"`
	AppointmentID int64  `json:"appointment_id"`
	TestRecipient string `json:"test_recipient,omitempty"`
}

func (c *TriggerController) FireTrigger(w http.ResponseWriter, r *http.Request) {
	var body triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Trigger == "" {
		http.Error(w, "trigger is required", http.StatusBadRequest)
		return
	}

	err := c.Dispatcher.HandleTrigger(r.Context(), service.TriggerEvent{
		Trigger:       body.Trigger,
		CustomName:    body.CustomName,
		AppointmentID: body.AppointmentID,
	})
	if err != nil {
		// Fire-and-forget contract: the caller only learns that intake
		// failed, individual rule outcomes are in the logs.
		c.Logger.Error("trigger dispatch failed",
			zap.String("trigger", body.Trigger),
			zap.Error(err),
		)
		http.Error(w, "trigger dispatch failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "dispatched"})
}

// PreviewRules renders every matching email rule for the event and sends
// the output to the supplied test address, bypassing consent and
// location scoping. For rule authoring, never production delivery.
func (c *TriggerController) PreviewRules(w http.ResponseWriter, r *http.Request) {
	var body triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Trigger == "" || body.TestRecipient == "" {
		http.Error(w, "trigger and test_recipient are required", http.StatusBadRequest)
		return
	}

	err := c.Dispatcher.HandleTrigger(r.Context(), service.TriggerEvent{
		Trigger:       body.Trigger,
		CustomName:    body.CustomName,
		AppointmentID: body.AppointmentID,
		TestRecipient: body.TestRecipient,
	})
	if err != nil {
		c.Logger.Error("rule preview failed",
			zap.String("trigger", body.Trigger),
			zap.Error(err),
		)
		http.Error(w, "rule preview failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "previews_sent"})
}
