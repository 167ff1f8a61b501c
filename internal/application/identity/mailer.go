package identity

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers account-related email. The production deployment plugs
// in a real provider; development and tests use LogMailer.
type Mailer interface {
	// SendVerificationEmail sends the email confirmation link for a new
	// or re-requested verification token.
	SendVerificationEmail(ctx context.Context, to, token string) error
}

// LogMailer writes outbound mail to the log instead of sending it.
// The verification link can be copied from the log during development.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerificationEmail(_ context.Context, to, token string) error {
	m.logger.Info("Verification email (log delivery)",
		zap.String("to", to),
		zap.String("token", token))
	return nil
}

var _ Mailer = (*LogMailer)(nil)
