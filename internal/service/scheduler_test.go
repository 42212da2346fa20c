package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/glowdesk/outreach/internal/errors"
	"github.com/glowdesk/outreach/internal/model"
	"github.com/glowdesk/outreach/internal/repository"
)

func newScheduler(f *dripFixture) *Scheduler {
	return &Scheduler{
		Drip:         f.drip,
		Interval:     time.Millisecond,
		FailureLimit: 3,
		Logger:       zap.NewNop(),
	}
}

func TestTickAdvancesDueCampaigns(t *testing.T) {
	f := newDripFixture()
	f.addEmailClient(1, "a@example.com", true)
	sendDate := testNow.Add(-time.Hour)
	c := f.newCampaign(model.Campaign{
		Name: "Due", Status: model.CampaignScheduled, SendDate: &sendDate, Body: "Hi",
	})

	// A second campaign whose send date is still in the future.
	futureDate := testNow.Add(time.Hour)
	later := f.newCampaign(model.Campaign{
		Name: "Later", Status: model.CampaignScheduled, SendDate: &futureDate, Body: "Hi",
	})

	require.NoError(t, newScheduler(f).Tick(context.Background()))

	assert.Equal(t, 1, f.email.count())
	stored, _ := f.store.Campaigns().GetByID(c.ID)
	assert.Equal(t, model.CampaignSent, stored.Status)
	untouched, _ := f.store.Campaigns().GetByID(later.ID)
	assert.Equal(t, model.CampaignScheduled, untouched.Status)
}

func TestTickMarksCampaignFailedOnProcessingError(t *testing.T) {
	f := newDripFixture()
	c := f.newCampaign(model.Campaign{
		Name: "Broken", Status: model.CampaignSending, Audience: "vip_clients", Body: "Hi",
	})

	// The unknown selector is a processing error, not a storage error:
	// the campaign fails terminally but the tick itself is fine.
	require.NoError(t, newScheduler(f).Tick(context.Background()))

	stored, _ := f.store.Campaigns().GetByID(c.ID)
	assert.Equal(t, model.CampaignFailed, stored.Status)
}

type failingCampaignRepo struct {
	repository.CampaignRepositoryInterface
}

func (r *failingCampaignRepo) ListDue(now time.Time) ([]*model.Campaign, error) {
	return nil, errors.New("connection reset by peer")
}

func TestTickPropagatesStorageFailure(t *testing.T) {
	f := newDripFixture()
	f.drip.Campaigns = &failingCampaignRepo{}

	err := newScheduler(f).Tick(context.Background())
	require.Error(t, err)

	var storageErr *appErrors.ErrStorage
	assert.True(t, errors.As(err, &storageErr))
}

func TestRunFailStopsOnPersistentStorageFailure(t *testing.T) {
	f := newDripFixture()
	f.drip.Campaigns = &failingCampaignRepo{}
	s := newScheduler(f)
	s.FailureLimit = 2

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not self-disable after persistent storage failures")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	f := newDripFixture()
	ctx, cancel := context.WithCancel(context.Background())
	s := newScheduler(f)

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}
}
