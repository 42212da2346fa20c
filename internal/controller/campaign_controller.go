package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/glowdesk/outreach/internal/errors"
	"github.com/glowdesk/outreach/internal/model"
	"github.com/glowdesk/outreach/internal/repository"
)

type CampaignController struct {
	Campaigns  repository.CampaignRepositoryInterface
	Recipients repository.RecipientRepositoryInterface
	Logger     *zap.Logger
}

type createCampaignRequest struct {
	Name         string          `json:"name"`
	Channel      string          `json:"channel"`
	Audience     string          `json:"audience"`
	RecipientIDs json.RawMessage `json:"recipient_ids,omitempty"`
	Subject      string          `json:"subject,omitempty"`
	Body         string          `json:"body"`
	SendDate     *time.Time      `json:"send_date,omitempty"`
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Channel != model.ChannelEmail && body.Channel != model.ChannelSMS {
		http.Error(w, "channel must be email or sms", http.StatusBadRequest)
		return
	}
	if body.Audience == "" {
		body.Audience = model.AudienceAll
	}

	campaign := &model.Campaign{
		Name:         body.Name,
		Channel:      body.Channel,
		Audience:     body.Audience,
		RecipientIDs: rawToString(body.RecipientIDs),
		Subject:      body.Subject,
		Body:         body.Body,
		Status:       model.CampaignDraft,
		SendDate:     body.SendDate,
	}
	if body.SendDate != nil {
		campaign.Status = model.CampaignScheduled
	}

	if err := c.Campaigns.Create(campaign); err != nil {
		c.Logger.Error("failed to create campaign", zap.Error(err))
		http.Error(w, "failed to create campaign", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	channel := r.URL.Query().Get("channel")
	status := r.URL.Query().Get("status")

	campaigns, total, err := c.Campaigns.ListCampaigns((page-1)*pageSize, pageSize, channel, status)
	if err != nil {
		c.Logger.Error("failed to list campaigns", zap.Error(err))
		http.Error(w, "failed to list campaigns", http.StatusInternalServerError)
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	writeJSON(w, http.StatusOK, map[string]any{
		"data": campaigns,
		"pagination": map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": totalPages,
		},
	})
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	campaign, err := c.Campaigns.GetByID(id)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		c.Logger.Error("failed to fetch campaign", zap.Int64("campaign_id", id), zap.Error(err))
		http.Error(w, "failed to fetch campaign", http.StatusInternalServerError)
		return
	}

	stats, err := c.Recipients.CountByStatus(id)
	if err != nil {
		c.Logger.Error("failed to fetch campaign stats", zap.Int64("campaign_id", id), zap.Error(err))
		http.Error(w, "failed to fetch campaign stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"campaign": campaign,
		"stats":    stats,
	})
}

// ScheduleCampaign moves a draft to scheduled with a send date. The
// state machine only moves forward, so anything past scheduled is
// rejected.
func (c *CampaignController) ScheduleCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var body struct {
		SendDate time.Time `json:"send_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SendDate.IsZero() {
		http.Error(w, "send_date is required", http.StatusBadRequest)
		return
	}

	campaign, err := c.Campaigns.GetByID(id)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		c.Logger.Error("failed to fetch campaign", zap.Int64("campaign_id", id), zap.Error(err))
		http.Error(w, "failed to fetch campaign", http.StatusInternalServerError)
		return
	}

	if campaign.Status != model.CampaignDraft && campaign.Status != model.CampaignScheduled {
		http.Error(w, "campaign cannot be scheduled in status: "+campaign.Status, http.StatusConflict)
		return
	}

	campaign.Status = model.CampaignScheduled
	campaign.SendDate = &body.SendDate
	if err := c.Campaigns.Update(campaign); err != nil {
		c.Logger.Error("failed to schedule campaign", zap.Int64("campaign_id", id), zap.Error(err))
		http.Error(w, "failed to schedule campaign", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, campaign)
}

// rawToString keeps recipient ids as the raw list text: callers may post
// a JSON array or a pre-serialized string and both parse the same way
// downstream.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
