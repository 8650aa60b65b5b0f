package adapter

import (
	"context"

	"adtopia/internal/domain/model"
)

// EmailSender delivers a rendered HTML email and returns the provider message id.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, html string) (string, error)
}

// SMSSender delivers a text message and returns the provider message sid.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

// AlertNotifier pushes short operational messages to the team.
type AlertNotifier interface {
	Alert(ctx context.Context, text string) error
}

// NotificationQueue hands a notification to a background consumer.
type NotificationQueue interface {
	Enqueue(ctx context.Context, n model.Notification) error
}
