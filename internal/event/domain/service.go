package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *LifecycleEvent) error
	ListByPackage(ctx context.Context, db *gorm.DB, packageID snowflake.ID) ([]LifecycleEvent, error)
	ListByTrackingCode(ctx context.Context, db *gorm.DB, trackingCode string) ([]LifecycleEvent, error)
}

// TimelineEntry is the view the public tracking page renders.
type TimelineEntry struct {
	Status     string    `json:"status"`
	EventType  string    `json:"event_type"`
	Notes      string    `json:"notes,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Service interface {
	// Append writes an event inside the given transaction handle. Events
	// are never updated or deleted after this call.
	Append(ctx context.Context, tx *gorm.DB, event *LifecycleEvent) error
	HistoryFor(ctx context.Context, packageID snowflake.ID) ([]LifecycleEvent, error)
	Timeline(ctx context.Context, trackingCode string) ([]TimelineEntry, error)
}
