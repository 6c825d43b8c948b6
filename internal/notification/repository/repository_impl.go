package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/elclub/paquetes/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, req *domain.NotificationRequest) error {
	return db.WithContext(ctx).Create(req).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, req *domain.NotificationRequest) error {
	return db.WithContext(ctx).Save(req).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.NotificationRequest, error) {
	var req domain.NotificationRequest
	err := db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repo) FindByProviderMessageID(ctx context.Context, db *gorm.DB, providerMessageID string) (*domain.NotificationRequest, error) {
	var req domain.NotificationRequest
	err := db.WithContext(ctx).
		Where("provider_message_id = ?", providerMessageID).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repo) ClaimDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.NotificationRequest, error) {
	var reqs []domain.NotificationRequest
	err := db.WithContext(ctx).
		Where("status = ?", domain.StatusPending).
		Or("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", domain.StatusFailed, now).
		Order("priority desc, created_at asc").
		Limit(limit).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *repo) CountByStatus(ctx context.Context, db *gorm.DB, from, to time.Time) (map[domain.Status]int64, error) {
	var rows []struct {
		Status domain.Status
		Count  int64
	}
	err := db.WithContext(ctx).
		Model(&domain.NotificationRequest{}).
		Select("status, count(*) as count").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *repo) SumCost(ctx context.Context, db *gorm.DB, from, to time.Time) (int64, error) {
	var total *int64
	err := db.WithContext(ctx).
		Model(&domain.NotificationRequest{}).
		Select("sum(cost_cents)").
		Where("created_at >= ? AND created_at < ?", from, to).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *repo) FindTemplate(ctx context.Context, db *gorm.DB, name string) (*domain.Template, error) {
	var tpl domain.Template
	err := db.WithContext(ctx).
		Where("name = ? AND active = ?", name, true).
		First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *repo) UpsertTemplate(ctx context.Context, db *gorm.DB, tpl *domain.Template) error {
	var existing domain.Template
	err := db.WithContext(ctx).Where("name = ?", tpl.Name).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.WithContext(ctx).Create(tpl).Error
	}
	if err != nil {
		return err
	}
	existing.Channel = tpl.Channel
	existing.Body = tpl.Body
	existing.Active = tpl.Active
	return db.WithContext(ctx).Save(&existing).Error
}
