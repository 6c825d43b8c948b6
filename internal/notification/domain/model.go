package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Event types a notification can be keyed to. The package lifecycle
// types share one template family; payment due and custom messages use
// their own templates.
const (
	EventPackageAnnounced = "PACKAGE_ANNOUNCED"
	EventPackageReceived  = "PACKAGE_RECEIVED"
	EventPackageDelivered = "PACKAGE_DELIVERED"
	EventPackageCancelled = "PACKAGE_CANCELLED"
	EventPaymentDue       = "PAYMENT_DUE"
	EventCustomMessage    = "CUSTOM_MESSAGE"
)

// NotificationRequest is one attempt to deliver one message through one
// channel. Rows are never deleted; failed sends keep their reason and
// cost history.
type NotificationRequest struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	PackageID         snowflake.ID `json:"package_id" gorm:"index:ix_notifications_package_id"`
	CustomerID        snowflake.ID `json:"customer_id"`
	Channel           Channel      `json:"channel" gorm:"type:text;not null;default:'sms'"`
	EventType         string       `json:"event_type" gorm:"type:text;not null;default:''"`
	Recipient         string       `json:"recipient" gorm:"type:text;not null"`
	TemplateName      string       `json:"template_name" gorm:"type:text;not null;default:''"`
	Body              string       `json:"body" gorm:"type:text;not null"`
	Priority          int          `json:"priority" gorm:"not null;default:0"`
	Status            Status       `json:"status" gorm:"type:text;not null;default:'pending';index:ix_notifications_status"`
	RetryCount        int          `json:"retry_count" gorm:"not null;default:0"`
	MaxRetries        int          `json:"max_retries" gorm:"not null;default:3"`
	NextRetryAt       *time.Time   `json:"next_retry_at" gorm:"index:ix_notifications_status"`
	SentAt            *time.Time   `json:"sent_at"`
	DeliveredAt       *time.Time   `json:"delivered_at"`
	FailedReason      string       `json:"failed_reason" gorm:"type:text;not null;default:''"`
	ProviderMessageID string       `json:"provider_message_id" gorm:"type:text;not null;default:''"`
	ProviderResponse  string       `json:"provider_response" gorm:"type:text;not null;default:''"`
	CostCents         int64        `json:"cost_cents" gorm:"not null;default:0"`
	IsTest            bool         `json:"is_test" gorm:"not null;default:false"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func (NotificationRequest) TableName() string { return "notifications" }

// Template is a stored message body with {variable} placeholders.
type Template struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null;uniqueIndex:ux_notification_templates_name"`
	Channel   Channel      `json:"channel" gorm:"type:text;not null;default:'sms'"`
	Body      string       `json:"body" gorm:"type:text;not null"`
	Active    bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Template) TableName() string { return "notification_templates" }

var (
	ErrNoRecipient          = errors.New("no_recipient")
	ErrTemplateNotFound     = errors.New("template_not_found")
	ErrNotificationNotFound = errors.New("notification_not_found")
	ErrInvalidRecipient     = errors.New("invalid_recipient")
	ErrRetriesExhausted     = errors.New("retries_exhausted")
)
