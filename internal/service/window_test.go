package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/outreach/internal/config"
	"github.com/glowdesk/outreach/internal/model"
)

func TestWindowBoundaries(t *testing.T) {
	w := &Window{Zone: time.UTC, StartHour: 8, EndHour: 20}

	at := func(h, m int) time.Time {
		return time.Date(2025, 5, 1, h, m, 0, 0, time.UTC)
	}

	assert.False(t, w.Open(at(7, 59)))
	assert.True(t, w.Open(at(8, 0)))
	assert.True(t, w.Open(at(13, 30)))
	assert.True(t, w.Open(at(20, 0)))
	assert.False(t, w.Open(at(20, 1)))
	assert.False(t, w.Open(at(23, 0)))
}

func TestWindowEvaluatesReferenceZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	w := &Window{Zone: ny, StartHour: 8, EndHour: 20}

	// 23:00 UTC in May is 19:00 in New York: still inside the window.
	assert.True(t, w.Open(time.Date(2025, 5, 1, 23, 0, 0, 0, time.UTC)))
	// 02:00 UTC is 22:00 the previous evening in New York: closed.
	assert.False(t, w.Open(time.Date(2025, 5, 2, 2, 0, 0, 0, time.UTC)))
}

func TestNewWindowFallsBackToUTC(t *testing.T) {
	w := NewWindow(&config.Config{WindowZone: "Not/AZone", WindowStartHour: 8, WindowEndHour: 20})
	assert.Equal(t, time.UTC, w.Zone)
}

func TestThroughputFor(t *testing.T) {
	cfg := &config.Config{
		EmailBatchSize: 50,
		EmailDelay:     250 * time.Millisecond,
		SMSBatchSize:   100,
		SMSDelay:       time.Second,
	}

	email := ThroughputFor(cfg, model.ChannelEmail)
	assert.Equal(t, 50, email.BatchSize)
	assert.Equal(t, 250*time.Millisecond, email.Delay)

	sms := ThroughputFor(cfg, model.ChannelSMS)
	assert.Equal(t, 100, sms.BatchSize)
	assert.Equal(t, time.Second, sms.Delay)
}
