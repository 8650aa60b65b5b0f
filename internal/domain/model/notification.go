package model

import "time"

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Notification is a queued outbound message. Template names a registered
// body template; Data feeds it.
type Notification struct {
	Channel  Channel           `json:"channel"`
	To       string            `json:"to"`
	Subject  string            `json:"subject,omitempty"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data,omitempty"`
}

type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

type NotificationLog struct {
	ID        string
	Channel   Channel
	Recipient string
	Template  string
	Status    NotificationStatus
	Error     string
	CreatedAt time.Time
}

// Templates shipped with the service.
const (
	TemplatePurchaseReceipt   = "purchase_receipt"
	TemplatePurchaseSMS       = "purchase_sms"
	TemplateAgencyApplication = "agency_application"
	TemplateAgencyWelcome     = "agency_welcome"
	TemplatePlain             = "plain"
)
