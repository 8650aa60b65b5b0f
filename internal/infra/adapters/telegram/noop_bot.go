package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"adtopia/internal/domain/ports/adapter"
)

var _ adapter.AlertNotifier = (*NoopAlerter)(nil)

// NoopAlerter logs alerts when no Telegram bot is configured.
type NoopAlerter struct {
	log zerolog.Logger
}

func NewNoopAlerter(logger *zerolog.Logger) *NoopAlerter {
	return &NoopAlerter{log: logger.With().Str("component", "noop_alerts").Logger()}
}

func (n *NoopAlerter) Alert(_ context.Context, text string) error {
	n.log.Info().Str("alert", text).Msg("alert")
	return nil
}
