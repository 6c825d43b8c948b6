package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/elclub/paquetes/internal/clock"
	"github.com/elclub/paquetes/internal/config"
	notifdomain "github.com/elclub/paquetes/internal/notification/domain"
	obsmetrics "github.com/elclub/paquetes/internal/observability/metrics"
	"github.com/elclub/paquetes/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sweepLockKey = "paquetes:dispatch:sweep"

var ErrInvalidConfig = errors.New("worker: missing dependency")

type Params struct {
	fx.In

	Cfg      config.Config
	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     notifdomain.Repository
	NotifSvc notifdomain.Service

	Locker     *ratelimit.Locker   `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// Worker sweeps the notification outbox and performs deliveries. Each
// sweep claims due requests in batches and dispatches them on a bounded
// pool, so a slow provider cannot stall the database transaction that
// enqueued the message.
type Worker struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	repo        notifdomain.Repository
	notifSvc    notifdomain.Service
	locker      *ratelimit.Locker
	obsMetrics  *obsmetrics.Metrics
	interval    time.Duration
	batchSize   int
	concurrency int
}

func New(p Params) (*Worker, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Repo == nil || p.NotifSvc == nil {
		return nil, ErrInvalidConfig
	}

	interval := p.Cfg.WorkerInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	batchSize := p.Cfg.WorkerBatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	concurrency := p.Cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	return &Worker{
		db:          p.DB,
		log:         p.Log.Named("dispatch.worker"),
		clock:       p.Clock,
		repo:        p.Repo,
		notifSvc:    p.NotifSvc,
		locker:      p.Locker,
		obsMetrics:  p.ObsMetrics,
		interval:    interval,
		batchSize:   batchSize,
		concurrency: concurrency,
	}, nil
}

// RunOnce performs a single sweep. When a distributed lock is
// configured, only the replica that wins the lock sweeps; the rest
// skip the round and retry on the next tick.
func (w *Worker) RunOnce(ctx context.Context) error {
	if w.locker != nil {
		token, ok, err := w.locker.TryLock(ctx, sweepLockKey, 2*w.interval)
		if err != nil {
			w.log.Warn("sweep lock unavailable, proceeding unguarded", zap.Error(err))
		} else if !ok {
			return nil
		} else {
			defer func() {
				if err := w.locker.Release(context.WithoutCancel(ctx), sweepLockKey, token); err != nil {
					w.log.Warn("sweep lock release failed", zap.Error(err))
				}
			}()
		}
	}

	var sweepErr error
	for {
		if ctx.Err() != nil {
			return errors.Join(sweepErr, ctx.Err())
		}

		due, err := w.repo.ClaimDue(ctx, w.db, w.clock.Now(), w.batchSize)
		if err != nil {
			return errors.Join(sweepErr, err)
		}
		if len(due) == 0 {
			return sweepErr
		}

		sweepErr = errors.Join(sweepErr, w.dispatchBatch(ctx, due))
	}
}

func (w *Worker) dispatchBatch(ctx context.Context, due []notifdomain.NotificationRequest) error {
	var (
		mu       sync.Mutex
		batchErr error
		failed   int
	)

	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup
	for _, req := range due {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return errors.Join(batchErr, ctx.Err())
		}

		wg.Add(1)
		go func(id snowflake.ID) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := w.notifSvc.Dispatch(ctx, id); err != nil {
				mu.Lock()
				batchErr = errors.Join(batchErr, err)
				failed++
				mu.Unlock()
				w.log.Warn("dispatch failed",
					zap.String("notification_id", id.String()),
					zap.Error(err),
				)
			}
		}(req.ID)
	}
	wg.Wait()

	w.obsMetrics.AddWorkerBatch("dispatched", len(due)-failed)
	w.obsMetrics.AddWorkerBatch("errored", failed)
	w.log.Debug("sweep batch done",
		zap.Int("claimed", len(due)),
		zap.Int("errored", failed),
	)
	return batchErr
}

// RunForever sweeps on a fixed interval until the context is cancelled.
func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.log.Warn("sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
