package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, pkg *Package) error
	Update(ctx context.Context, db *gorm.DB, pkg *Package) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Package, error)
	FindByTrackingCode(ctx context.Context, db *gorm.DB, code string) (*Package, error)
	FindByGuideNumber(ctx context.Context, db *gorm.DB, guide string) (*Package, error)
	TrackingCodeExists(ctx context.Context, db *gorm.DB, code string) (bool, error)
	// OccupiedSlots lists slot codes held by packages currently in
	// storage.
	OccupiedSlots(ctx context.Context, db *gorm.DB) ([]string, error)
}

// Operator identifies who performed an operation, for the audit trail.
type Operator struct {
	Name string
	Role string
}

type AnnounceInput struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	GuideNumber   string
	Category      Category
	Operator      Operator
}

// TransitionPayload carries the per-target-state fields. Which ones are
// required depends on the requested status.
type TransitionPayload struct {
	Category           Category
	Condition          Condition
	PaymentMethod      string
	PaymentAmountCents int64
	RecipientName      string
	SignatureRef       string
	Reason             string
	RefundAmountCents  int64
	Notes              string
	Attachments        []string
}

type Service interface {
	// Announce registers a parcel ahead of physical arrival and
	// assigns its customer-facing tracking code.
	Announce(ctx context.Context, in AnnounceInput) (*Package, error)

	// Transition validates and applies one status change. The package
	// mutation, audit event and notification enqueue commit or roll
	// back together.
	Transition(ctx context.Context, id snowflake.ID, target Status, operator Operator, payload TransitionPayload) (*Package, error)

	GetByID(ctx context.Context, id snowflake.ID) (*Package, error)
	GetByTrackingCode(ctx context.Context, code string) (*Package, error)
}
