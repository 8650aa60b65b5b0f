package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/adapter"
	"adtopia/internal/domain/ports/repository"
	"adtopia/internal/infra/logging"
	"adtopia/internal/infra/metrics"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

type NotificationUseCase interface {
	// SendEmail validates the recipient and queues a templated email.
	SendEmail(ctx context.Context, to, subject, template string, data map[string]string) error
	// SendSMS validates the E.164 number and queues a plain text message.
	SendSMS(ctx context.Context, to, body string) error
	// SendSMSTemplate queues a registered SMS template.
	SendSMSTemplate(ctx context.Context, to, template string, data map[string]string) error
	// Deliver renders and sends one notification now and records the outcome.
	Deliver(ctx context.Context, n model.Notification) error
	Recent(ctx context.Context, limit int) ([]*model.NotificationLog, error)
}

type notificationUC struct {
	queue    adapter.NotificationQueue
	email    adapter.EmailSender
	sms      adapter.SMSSender
	logs     repository.NotificationLogRepository
	validate *validator.Validate
	log      *zerolog.Logger
}

func NewNotificationUseCase(
	queue adapter.NotificationQueue,
	email adapter.EmailSender,
	sms adapter.SMSSender,
	logs repository.NotificationLogRepository,
	logger *zerolog.Logger,
) *notificationUC {
	return &notificationUC{
		queue:    queue,
		email:    email,
		sms:      sms,
		logs:     logs,
		validate: validator.New(),
		log:      logger,
	}
}

// SetQueue attaches the queue once its consumer (which calls Deliver) exists.
func (n *notificationUC) SetQueue(q adapter.NotificationQueue) { n.queue = q }

func (n *notificationUC) SendEmail(ctx context.Context, to, subject, template string, data map[string]string) error {
	to = strings.TrimSpace(to)
	if err := n.validate.Var(to, "required,email"); err != nil {
		return fmt.Errorf("%w: email recipient", domain.ErrInvalidArgument)
	}
	if _, ok := emailTemplates[template]; !ok {
		return fmt.Errorf("%w: unknown email template %q", domain.ErrInvalidArgument, template)
	}
	return n.enqueue(ctx, model.Notification{
		Channel:  model.ChannelEmail,
		To:       to,
		Subject:  subject,
		Template: template,
		Data:     data,
	})
}

func (n *notificationUC) SendSMS(ctx context.Context, to, body string) error {
	to = strings.TrimSpace(to)
	if err := n.validate.Var(to, "required,e164"); err != nil {
		return fmt.Errorf("%w: sms recipient must be E.164", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: empty sms body", domain.ErrInvalidArgument)
	}
	return n.SendSMSTemplate(ctx, to, model.TemplatePlain, map[string]string{"body": body})
}

func (n *notificationUC) SendSMSTemplate(ctx context.Context, to, template string, data map[string]string) error {
	to = strings.TrimSpace(to)
	if err := n.validate.Var(to, "required,e164"); err != nil {
		return fmt.Errorf("%w: sms recipient must be E.164", domain.ErrInvalidArgument)
	}
	if _, ok := smsTemplates[template]; !ok {
		return fmt.Errorf("%w: unknown sms template %q", domain.ErrInvalidArgument, template)
	}
	return n.enqueue(ctx, model.Notification{Channel: model.ChannelSMS, To: to, Template: template, Data: data})
}

func (n *notificationUC) enqueue(ctx context.Context, note model.Notification) error {
	if n.queue == nil {
		return fmt.Errorf("%w: notification queue", domain.ErrNotConfigured)
	}
	if err := n.queue.Enqueue(ctx, note); err != nil {
		metrics.IncNotification(string(note.Channel), "enqueue_failed")
		return fmt.Errorf("enqueue %s notification: %w", note.Channel, err)
	}
	metrics.IncNotification(string(note.Channel), "queued")
	return nil
}

func (n *notificationUC) Deliver(ctx context.Context, note model.Notification) error {
	var err error
	switch note.Channel {
	case model.ChannelEmail:
		err = n.deliverEmail(ctx, note)
	case model.ChannelSMS:
		err = n.deliverSMS(ctx, note)
	default:
		err = fmt.Errorf("%w: unknown channel %q", domain.ErrInvalidArgument, note.Channel)
	}

	entry := &model.NotificationLog{
		ID:        uuid.NewString(),
		Channel:   note.Channel,
		Recipient: logging.Redact(note.To),
		Template:  note.Template,
		Status:    model.NotificationSent,
		CreatedAt: time.Now().UTC(),
	}
	result := "sent"
	if err != nil {
		entry.Status = model.NotificationFailed
		entry.Error = err.Error()
		result = "failed"
		if errors.Is(err, domain.ErrNotConfigured) {
			result = "skipped"
		}
	}
	metrics.IncNotification(string(note.Channel), result)

	if logErr := n.logs.Save(ctx, repository.NoTX, entry); logErr != nil {
		n.log.Warn().Err(logErr).Str("channel", string(note.Channel)).Msg("failed to record notification log")
	}
	if err != nil {
		n.log.Warn().Err(err).
			Str("channel", string(note.Channel)).
			Str("template", note.Template).
			Str("to", logging.Redact(note.To)).
			Msg("notification delivery failed")
	}
	return err
}

func (n *notificationUC) deliverEmail(ctx context.Context, note model.Notification) error {
	if n.email == nil {
		return fmt.Errorf("%w: email", domain.ErrNotConfigured)
	}
	subject, html, err := renderEmail(note.Template, note.Subject, note.Data)
	if err != nil {
		return err
	}
	id, err := n.email.SendEmail(ctx, note.To, subject, html)
	if err != nil {
		return err
	}
	n.log.Debug().Str("provider_id", id).Str("template", note.Template).Msg("email sent")
	return nil
}

func (n *notificationUC) deliverSMS(ctx context.Context, note model.Notification) error {
	if n.sms == nil {
		return fmt.Errorf("%w: sms", domain.ErrNotConfigured)
	}
	body, err := renderSMS(note.Template, note.Data)
	if err != nil {
		return err
	}
	sid, err := n.sms.SendSMS(ctx, note.To, body)
	if err != nil {
		return err
	}
	n.log.Debug().Str("provider_id", sid).Str("template", note.Template).Msg("sms sent")
	return nil
}

func (n *notificationUC) Recent(ctx context.Context, limit int) ([]*model.NotificationLog, error) {
	return n.logs.ListRecent(ctx, repository.NoTX, clampLimit(limit))
}
