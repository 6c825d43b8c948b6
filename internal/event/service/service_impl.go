package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/elclub/paquetes/internal/clock"
	eventdomain "github.com/elclub/paquetes/internal/event/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  eventdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  eventdomain.Repository
}

func NewService(p Params) eventdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("event.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Append(ctx context.Context, tx *gorm.DB, event *eventdomain.LifecycleEvent) error {
	if event == nil {
		return eventdomain.ErrIncompleteEvent
	}
	event.TrackingCode = strings.ToUpper(strings.TrimSpace(event.TrackingCode))
	event.EventType = strings.TrimSpace(event.EventType)
	event.StatusAfter = strings.TrimSpace(event.StatusAfter)
	if event.TrackingCode == "" || event.EventType == "" || event.StatusAfter == "" {
		return eventdomain.ErrIncompleteEvent
	}
	if event.PackageID == 0 {
		return eventdomain.ErrIncompleteEvent
	}

	if event.ID == 0 {
		event.ID = s.genID.Generate()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock.Now()
	}

	if tx == nil {
		tx = s.db
	}
	if err := s.repo.Insert(ctx, tx, event); err != nil {
		return err
	}

	s.log.Info("package event appended",
		zap.String("tracking_code", event.TrackingCode),
		zap.String("event_type", event.EventType),
		zap.String("status_after", event.StatusAfter),
	)
	return nil
}

func (s *Service) HistoryFor(ctx context.Context, packageID snowflake.ID) ([]eventdomain.LifecycleEvent, error) {
	return s.repo.ListByPackage(ctx, s.db, packageID)
}

func (s *Service) Timeline(ctx context.Context, trackingCode string) ([]eventdomain.TimelineEntry, error) {
	trackingCode = strings.ToUpper(strings.TrimSpace(trackingCode))
	if trackingCode == "" {
		return nil, eventdomain.ErrEventNotFound
	}

	events, err := s.repo.ListByTrackingCode(ctx, s.db, trackingCode)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, eventdomain.ErrEventNotFound
	}

	entries := make([]eventdomain.TimelineEntry, 0, len(events))
	for _, ev := range events {
		entries = append(entries, eventdomain.TimelineEntry{
			Status:     ev.StatusAfter,
			EventType:  ev.EventType,
			Notes:      ev.Notes,
			OccurredAt: ev.OccurredAt,
		})
	}
	return entries, nil
}
