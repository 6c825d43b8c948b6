package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, req *NotificationRequest) error
	Update(ctx context.Context, db *gorm.DB, req *NotificationRequest) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*NotificationRequest, error)
	FindByProviderMessageID(ctx context.Context, db *gorm.DB, providerMessageID string) (*NotificationRequest, error)
	// ClaimDue returns pending requests plus failed ones whose
	// next_retry_at has passed, oldest first.
	ClaimDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]NotificationRequest, error)
	CountByStatus(ctx context.Context, db *gorm.DB, from, to time.Time) (map[Status]int64, error)
	SumCost(ctx context.Context, db *gorm.DB, from, to time.Time) (int64, error)

	FindTemplate(ctx context.Context, db *gorm.DB, name string) (*Template, error)
	UpsertTemplate(ctx context.Context, db *gorm.DB, tpl *Template) error
}

// EnqueueInput captures everything needed to durably record a message
// before it is sent.
type EnqueueInput struct {
	PackageID  snowflake.ID
	CustomerID snowflake.ID
	Channel    Channel
	EventType  string
	Recipient  string
	Variables  map[string]string
	Priority   int
	IsTest     bool
}

// SendResult is the per-recipient outcome of a bulk send.
type SendResult struct {
	Recipient string `json:"recipient"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

// BulkResult aggregates a bulk send.
type BulkResult struct {
	Total   int          `json:"total"`
	Sent    int          `json:"sent"`
	Failed  int          `json:"failed"`
	Results []SendResult `json:"results"`
}

// Stats summarizes dispatch activity over a window.
type Stats struct {
	From           time.Time        `json:"from"`
	To             time.Time        `json:"to"`
	CountsByStatus map[Status]int64 `json:"counts_by_status"`
	TotalCostCents int64            `json:"total_cost_cents"`
}

type Service interface {
	// Enqueue records a request in the given transaction so it commits
	// or rolls back with its triggering state change. The send happens
	// later, off the request path.
	Enqueue(ctx context.Context, tx *gorm.DB, in EnqueueInput) (*NotificationRequest, error)

	// Dispatch performs one send attempt for a stored request and
	// persists the resulting state.
	Dispatch(ctx context.Context, id snowflake.ID) error

	// DispatchBulk renders and sends the same message to many
	// recipients. Per-recipient failures do not abort the batch.
	DispatchBulk(ctx context.Context, eventType string, recipients []string, variables map[string]string, isTest bool) (*BulkResult, error)

	Stats(ctx context.Context, from, to time.Time) (*Stats, error)

	// MarkDelivered records a channel delivery confirmation.
	MarkDelivered(ctx context.Context, providerMessageID string) error
}
