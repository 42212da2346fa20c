package repository

import (
	"database/sql"

	"github.com/glowdesk/outreach/internal/model"
)

type RuleRepository struct {
	DB *sql.DB
}

func (r *RuleRepository) ActiveByTrigger(trigger, customName string) ([]*model.AutomationRule, error) {
	query := `
		SELECT id, name, trigger_type, custom_trigger_name, channel, subject, body,
		       active, location_id, sent_count, created_at, updated_at
		FROM automation_rules
		WHERE active=TRUE AND trigger_type=$1
	`
	args := []any{trigger}
	if trigger == model.TriggerCustom {
		query += ` AND custom_trigger_name=$2`
		args = append(args, customName)
	}
	query += ` ORDER BY id`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []*model.AutomationRule{}
	for rows.Next() {
		rule := &model.AutomationRule{}
		var customTrigger, subject sql.NullString
		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.TriggerType, &customTrigger, &rule.Channel, &subject, &rule.Body,
			&rule.Active, &rule.LocationID, &rule.SentCount, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rule.CustomTriggerName = customTrigger.String
		rule.Subject = subject.String
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *RuleRepository) IncrementSentCount(id int64) error {
	_, err := r.DB.Exec(
		`UPDATE automation_rules SET sent_count = sent_count + 1, updated_at=NOW() WHERE id=$1`, id,
	)
	return err
}

var _ RuleRepositoryInterface = (*RuleRepository)(nil)
