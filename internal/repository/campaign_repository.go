package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/glowdesk/outreach/internal/errors"
	"github.com/glowdesk/outreach/internal/model"
)

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, channel, audience, recipient_ids, subject, body, status, send_date,
	sent_count, delivered_count, failed_count, opened_count, clicked_count, unsubscribed_count,
	sent_at, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.Name, &c.Channel, &c.Audience, &c.RecipientIDs, &c.Subject, &c.Body, &c.Status, &c.SendDate,
		&c.SentCount, &c.DeliveredCount, &c.FailedCount, &c.OpenedCount, &c.ClickedCount, &c.UnsubscribedCount,
		&c.SentAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	query := `
		INSERT INTO campaigns (name, channel, audience, recipient_ids, subject, body, status, send_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.DB.QueryRow(query,
		c.Name, c.Channel, c.Audience, c.RecipientIDs, c.Subject, c.Body, c.Status, c.SendDate, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(id int64) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	query := `
		UPDATE campaigns
		SET name=$1, subject=$2, body=$3, audience=$4, recipient_ids=$5, status=$6, send_date=$7, updated_at=NOW()
		WHERE id=$8
	`
	_, err := r.DB.Exec(query, c.Name, c.Subject, c.Body, c.Audience, c.RecipientIDs, c.Status, c.SendDate, c.ID)
	return err
}

func (r *CampaignRepository) UpdateStatus(campaignID int64, status string) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, status, time.Now(), campaignID)
	return err
}

func (r *CampaignRepository) MarkSent(campaignID int64, at time.Time) error {
	query := `UPDATE campaigns SET status=$1, sent_at=$2, updated_at=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, model.CampaignSent, at, campaignID)
	return err
}

// ListDue returns campaigns a scheduler tick should advance.
func (r *CampaignRepository) ListDue(now time.Time) ([]*model.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE (status=$1 AND send_date IS NOT NULL AND send_date <= $2) OR status=$3
		ORDER BY id
	`
	rows, err := r.DB.Query(query, model.CampaignScheduled, now, model.CampaignSending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// AddCounters applies additive deltas so interleaved batches never
// overwrite each other's progress.
func (r *CampaignRepository) AddCounters(campaignID int64, sentDelta, failedDelta int) error {
	query := `
		UPDATE campaigns
		SET sent_count = sent_count + $1,
		    delivered_count = delivered_count + $1,
		    failed_count = failed_count + $2,
		    updated_at = NOW()
		WHERE id=$3
	`
	_, err := r.DB.Exec(query, sentDelta, failedDelta, campaignID)
	return err
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, channel, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []any{}
	argPos := 1

	if channel != "" {
		query += fmt.Sprintf(" AND channel=$%d", argPos)
		args = append(args, channel)
		argPos++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	countArgs := []any{}
	countPos := 1
	if channel != "" {
		countQuery += fmt.Sprintf(" AND channel=$%d", countPos)
		countArgs = append(countArgs, channel)
		countPos++
	}
	if status != "" {
		countQuery += fmt.Sprintf(" AND status=$%d", countPos)
		countArgs = append(countArgs, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
