package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusAnnounced Status = "ANNOUNCED"
	StatusReceived  Status = "RECEIVED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

type Category string

const (
	CategoryStandard  Category = "standard"
	CategoryOversized Category = "oversized"
)

type Condition string

const (
	ConditionGood    Condition = "good"
	ConditionOpened  Condition = "opened"
	ConditionDamaged Condition = "damaged"
)

// allowedTransitions is the full lifecycle graph. Terminal states have
// no outgoing edges.
var allowedTransitions = map[Status][]Status{
	StatusAnnounced: {StatusReceived, StatusCancelled},
	StatusReceived:  {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(status Status) bool {
	return len(allowedTransitions[status]) == 0
}

// Package is one physical parcel. TrackingCode is the short
// customer-facing identifier; GuideNumber is the carrier's.
type Package struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	TrackingCode    string       `json:"tracking_code" gorm:"type:varchar(4);not null;uniqueIndex:ux_packages_tracking_code"`
	GuideNumber     string       `json:"guide_number" gorm:"type:text;not null;uniqueIndex:ux_packages_guide_number"`
	CustomerID      snowflake.ID `json:"customer_id" gorm:"not null"`
	Status          Status       `json:"status" gorm:"type:text;not null;index:ix_packages_status"`
	Category        Category     `json:"category" gorm:"type:text;not null;default:'standard'"`
	Condition       Condition    `json:"condition" gorm:"type:text;not null;default:'good'"`
	SlotCode        *string      `json:"slot_code" gorm:"type:varchar(2)"`
	BaseFeeCents    int64        `json:"base_fee_cents" gorm:"not null;default:0"`
	StorageFeeCents int64        `json:"storage_fee_cents" gorm:"not null;default:0"`
	TotalFeeCents   int64        `json:"total_fee_cents" gorm:"not null;default:0"`
	Currency        string       `json:"currency" gorm:"type:varchar(3);not null;default:'COP'"`
	AnnouncedAt     *time.Time   `json:"announced_at"`
	ReceivedAt      *time.Time   `json:"received_at"`
	DeliveredAt     *time.Time   `json:"delivered_at"`
	CancelledAt     *time.Time   `json:"cancelled_at"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (Package) TableName() string { return "packages" }
