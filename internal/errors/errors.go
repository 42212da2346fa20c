package appErrors

import "fmt"

// ErrCampaignNotFound is returned when a campaign id resolves to nothing.
type ErrCampaignNotFound struct {
	CampaignID int64
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func NewCampaignNotFound(id int64) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrStorage wraps a database failure so callers can tell persistent
// storage trouble apart from ordinary processing errors. The drip driver
// fail-stops after seeing these on consecutive ticks.
type ErrStorage struct {
	Op  string
	Err error
}

func (e *ErrStorage) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *ErrStorage) Unwrap() error { return e.Err }

func NewStorage(op string, err error) error {
	return &ErrStorage{Op: op, Err: err}
}
