package otp

import (
	"context"
	"time"

	"github.com/dtroode/otptasks-server/internal/logger"
	"github.com/dtroode/otptasks-server/internal/model"
)

// LogSender writes codes to the service log instead of an email or SMS
// gateway.
type LogSender struct {
	logger *logger.Logger
}

var _ model.OTPSender = (*LogSender)(nil)

// NewLogSender creates a LogSender.
func NewLogSender(logger *logger.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the code for the user.
func (s *LogSender) Send(_ context.Context, user model.UserProfile, code string, expiresAt time.Time) error {
	s.logger.Info("OTP sender: one-time code issued",
		"user_id", user.ID,
		"email", user.Email,
		"code", code,
		"expires_at", expiresAt.Format(time.RFC3339))
	return nil
}
