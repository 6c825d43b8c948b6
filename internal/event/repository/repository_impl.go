package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/elclub/paquetes/internal/event/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *domain.LifecycleEvent) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) ListByPackage(ctx context.Context, db *gorm.DB, packageID snowflake.ID) ([]domain.LifecycleEvent, error) {
	var events []domain.LifecycleEvent
	err := db.WithContext(ctx).
		Where("package_id = ?", packageID).
		Order("occurred_at asc, id asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) ListByTrackingCode(ctx context.Context, db *gorm.DB, trackingCode string) ([]domain.LifecycleEvent, error) {
	var events []domain.LifecycleEvent
	err := db.WithContext(ctx).
		Where("tracking_code = ?", trackingCode).
		Order("occurred_at asc, id asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
