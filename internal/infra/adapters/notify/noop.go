package notify

import (
	"context"

	"adtopia/internal/domain"
	"adtopia/internal/domain/ports/adapter"
)

var (
	_ adapter.EmailSender = Disabled{}
	_ adapter.SMSSender   = Disabled{}
)

// Disabled stands in for a channel whose credentials are missing.
type Disabled struct{}

func (Disabled) SendEmail(context.Context, string, string, string) (string, error) {
	return "", domain.ErrNotConfigured
}

func (Disabled) SendSMS(context.Context, string, string) (string, error) {
	return "", domain.ErrNotConfigured
}
