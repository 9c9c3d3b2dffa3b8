package service

import (
	"context"

	"github.com/rs/zerolog"
)

// ActivationEmail carries everything needed to deliver an activation code to
// its recipient. Delivery is the only place the plain code leaves the
// process.
type ActivationEmail struct {
	To             string
	FullName       string
	Code           string
	ExpiresInHours int
	CustomMessage  string
}

// ActivationNotifier delivers activation emails. Implementations are
// best-effort: a failure is reported to the caller as a status flag and never
// aborts the issuance that triggered it.
type ActivationNotifier interface {
	SendActivationEmail(ctx context.Context, email ActivationEmail) error
}

// LogActivationNotifier is a delivery provider that only logs. It stands in
// for a real mail provider in development and tests. The code itself is never
// written to the log.
type LogActivationNotifier struct {
	logger zerolog.Logger
}

// NewLogActivationNotifier constructs a logging provider.
func NewLogActivationNotifier(logger zerolog.Logger) *LogActivationNotifier {
	return &LogActivationNotifier{logger: logger.With().Str("component", "activation_notifier").Logger()}
}

// SendActivationEmail logs the delivery and reports success.
func (n *LogActivationNotifier) SendActivationEmail(ctx context.Context, email ActivationEmail) error {
	n.logger.Info().
		Str("to", email.To).
		Int("expires_in_hours", email.ExpiresInHours).
		Msg("activation email delivered")
	return nil
}
