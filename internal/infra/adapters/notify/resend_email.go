package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"

	"adtopia/internal/domain/ports/adapter"
)

var _ adapter.EmailSender = (*ResendSender)(nil)

// ResendSender delivers rendered HTML email through Resend.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) (*ResendSender, error) {
	if apiKey == "" {
		return nil, errors.New("resend: empty api key")
	}
	return &ResendSender{client: resend.NewClient(apiKey), from: from}, nil
}

func (s *ResendSender) SendEmail(ctx context.Context, to, subject, html string) (string, error) {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	resp, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return resp.Id, nil
}
