package service

import (
	"time"

	"github.com/glowdesk/outreach/internal/config"
	"github.com/glowdesk/outreach/internal/model"
)

// Window decides whether SMS sending is currently permitted. The
// business window is evaluated in a fixed reference zone regardless of
// where the process runs.
type Window struct {
	Zone      *time.Location
	StartHour int
	EndHour   int
}

// NewWindow builds the governor from config. An unknown zone name falls
// back to UTC rather than failing startup.
func NewWindow(cfg *config.Config) *Window {
	zone, err := time.LoadLocation(cfg.WindowZone)
	if err != nil {
		zone = time.UTC
	}
	return &Window{Zone: zone, StartHour: cfg.WindowStartHour, EndHour: cfg.WindowEndHour}
}

// Open reports whether now falls inside the sending window, boundaries
// inclusive (08:00:00 and 20:00:00 both permitted by default).
func (w *Window) Open(now time.Time) bool {
	local := now.In(w.Zone)
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= w.StartHour*60 && minutes <= w.EndHour*60
}

// Throughput holds the batch-size and inter-message delay knobs for one
// channel. The delay keeps bursts under the provider's rate limits.
type Throughput struct {
	BatchSize int
	Delay     time.Duration
}

// ThroughputFor returns the channel's knobs from config.
func ThroughputFor(cfg *config.Config, channelName string) Throughput {
	if channelName == model.ChannelSMS {
		return Throughput{BatchSize: cfg.SMSBatchSize, Delay: cfg.SMSDelay}
	}
	return Throughput{BatchSize: cfg.EmailBatchSize, Delay: cfg.EmailDelay}
}
