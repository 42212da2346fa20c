package repository

import (
	"database/sql"
	"time"

	"github.com/glowdesk/outreach/internal/model"
)

type RecipientRepository struct {
	DB *sql.DB
}

func (r *RecipientRepository) CountForCampaign(campaignID int64) (int, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM campaign_recipients WHERE campaign_id=$1`, campaignID,
	).Scan(&count)
	return count, err
}

func (r *RecipientRepository) BulkInsert(recipients []*model.CampaignRecipient) error {
	if len(recipients) == 0 {
		return nil
	}

	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO campaign_recipients (campaign_id, client_id, contact, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range recipients {
		if rec.Status == "" {
			rec.Status = model.RecipientPending
		}
		if err := stmt.QueryRow(rec.CampaignID, rec.ClientID, rec.Contact, rec.Status).Scan(&rec.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *RecipientRepository) ListPending(campaignID int64, limit int) ([]*model.CampaignRecipient, error) {
	query := `
		SELECT id, campaign_id, client_id, contact, status, sent_at, error_message, created_at, updated_at
		FROM campaign_recipients
		WHERE campaign_id=$1 AND status=$2
		ORDER BY id
		LIMIT $3
	`
	rows, err := r.DB.Query(query, campaignID, model.RecipientPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []*model.CampaignRecipient{}
	for rows.Next() {
		rec := &model.CampaignRecipient{}
		var errMsg sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.CampaignID, &rec.ClientID, &rec.Contact, &rec.Status,
			&rec.SentAt, &errMsg, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rec.ErrorMessage = errMsg.String
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

// Claim is a compare-and-swap on status: only a row still pending can be
// claimed, so exactly one of any set of concurrent callers wins.
func (r *RecipientRepository) Claim(id int64) (bool, error) {
	res, err := r.DB.Exec(
		`UPDATE campaign_recipients SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		model.RecipientClaimed, id, model.RecipientPending,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RecipientRepository) MarkSent(id int64, at time.Time) error {
	_, err := r.DB.Exec(
		`UPDATE campaign_recipients SET status=$1, sent_at=$2, error_message='', updated_at=$2 WHERE id=$3`,
		model.RecipientSent, at, id,
	)
	return err
}

func (r *RecipientRepository) MarkFailed(id int64, reason string) error {
	_, err := r.DB.Exec(
		`UPDATE campaign_recipients SET status=$1, error_message=$2, updated_at=NOW() WHERE id=$3`,
		model.RecipientFailed, reason, id,
	)
	return err
}

func (r *RecipientRepository) CountPending(campaignID int64) (int, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM campaign_recipients WHERE campaign_id=$1 AND status=$2`,
		campaignID, model.RecipientPending,
	).Scan(&count)
	return count, err
}

func (r *RecipientRepository) CountByStatus(campaignID int64) (map[string]int, error) {
	rows, err := r.DB.Query(
		`SELECT status, COUNT(*) FROM campaign_recipients WHERE campaign_id=$1 GROUP BY status`,
		campaignID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		model.RecipientPending: 0,
		model.RecipientClaimed: 0,
		model.RecipientSent:    0,
		model.RecipientFailed:  0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ RecipientRepositoryInterface = (*RecipientRepository)(nil)
