package channel

import (
	"context"

	"go.uber.org/zap"
)

// DevSender logs outbound messages instead of delivering them. Used in
// development and as the default wiring until a real provider is
// configured.
type DevSender struct {
	Logger *zap.Logger
}

func (s *DevSender) Send(ctx context.Context, msg EmailMessage) error {
	s.Logger.Info("dev email send",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// DevSMSSender is the SMS counterpart of DevSender.
type DevSMSSender struct {
	Logger *zap.Logger
}

func (s *DevSMSSender) Send(ctx context.Context, msg SMSMessage) error {
	s.Logger.Info("dev sms send",
		zap.String("to", msg.To),
		zap.Int("body_len", len(msg.Body)),
	)
	return nil
}
