package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/elclub/paquetes/internal/parcel/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, pkg *domain.Package) error {
	return db.WithContext(ctx).Create(pkg).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, pkg *domain.Package) error {
	return db.WithContext(ctx).Save(pkg).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Package, error) {
	return r.findOne(ctx, db, "id = ?", id)
}

func (r *repo) FindByTrackingCode(ctx context.Context, db *gorm.DB, code string) (*domain.Package, error) {
	return r.findOne(ctx, db, "tracking_code = ?", code)
}

func (r *repo) FindByGuideNumber(ctx context.Context, db *gorm.DB, guide string) (*domain.Package, error) {
	return r.findOne(ctx, db, "guide_number = ?", guide)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, arg any) (*domain.Package, error) {
	var pkg domain.Package
	err := db.WithContext(ctx).Where(query, arg).First(&pkg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *repo) TrackingCodeExists(ctx context.Context, db *gorm.DB, code string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Package{}).
		Where("tracking_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) OccupiedSlots(ctx context.Context, db *gorm.DB) ([]string, error) {
	var slots []string
	err := db.WithContext(ctx).
		Model(&domain.Package{}).
		Where("slot_code IS NOT NULL AND status = ?", domain.StatusReceived).
		Pluck("slot_code", &slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}
