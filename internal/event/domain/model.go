package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// LifecycleEvent is an append-only audit record. Customer and package
// fields are denormalized on purpose so the history stays readable even
// if the package or customer row is later modified.
type LifecycleEvent struct {
	ID            snowflake.ID   `json:"id" gorm:"primaryKey"`
	PackageID     snowflake.ID   `json:"package_id" gorm:"not null;index:ix_package_events_package_id"`
	TrackingCode  string         `json:"tracking_code" gorm:"type:varchar(4);not null;index:ix_package_events_tracking_code"`
	GuideNumber   string         `json:"guide_number" gorm:"type:text;not null;default:''"`
	CustomerName  string         `json:"customer_name" gorm:"type:text;not null;default:''"`
	CustomerPhone string         `json:"customer_phone" gorm:"type:text;not null;default:''"`
	CustomerEmail string         `json:"customer_email" gorm:"type:text;not null;default:''"`
	EventType     string         `json:"event_type" gorm:"type:text;not null"`
	StatusBefore  string         `json:"status_before" gorm:"type:text;not null;default:''"`
	StatusAfter   string         `json:"status_after" gorm:"type:text;not null"`
	Actor         string         `json:"actor" gorm:"type:text;not null;default:''"`
	ActorRole     string         `json:"actor_role" gorm:"type:text;not null;default:''"`
	TotalFeeCents int64          `json:"total_fee_cents" gorm:"not null;default:0"`
	Notes         string         `json:"notes" gorm:"type:text;not null;default:''"`
	Attachments   datatypes.JSON `json:"attachments" gorm:"type:jsonb"`
	Extension     datatypes.JSON `json:"extension" gorm:"type:jsonb"`
	OccurredAt    time.Time      `json:"occurred_at" gorm:"not null"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (LifecycleEvent) TableName() string { return "package_events" }

const (
	EventTypeAnnounced = "announced"
	EventTypeReceived  = "received"
	EventTypeDelivered = "delivered"
	EventTypeCancelled = "cancelled"
)

var (
	ErrIncompleteEvent = errors.New("incomplete_event")
	ErrEventNotFound   = errors.New("event_not_found")
)
