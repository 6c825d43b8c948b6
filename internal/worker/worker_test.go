package worker

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/elclub/paquetes/internal/clock"
	"github.com/elclub/paquetes/internal/config"
	notifdomain "github.com/elclub/paquetes/internal/notification/domain"
	notifrepo "github.com/elclub/paquetes/internal/notification/repository"
	notifservice "github.com/elclub/paquetes/internal/notification/service"
	"github.com/elclub/paquetes/internal/providers/email"
	"github.com/elclub/paquetes/internal/providers/sms"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newWorkerFixture(t *testing.T, dsn string) (*Worker, notifdomain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&notifdomain.NotificationRequest{}, &notifdomain.Template{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	repo := notifrepo.Provide()

	cfg := config.Config{
		CompanyName:       "PAQUETES EL CLUB",
		SMSMaxRetries:     3,
		SMSTokenTTL:       24 * time.Hour,
		WorkerInterval:    time.Second,
		WorkerBatchSize:   2,
		WorkerConcurrency: 2,
	}

	notifSvc := notifservice.NewService(notifservice.Params{
		Cfg:    cfg,
		DB:     db,
		Log:    log,
		GenID:  node,
		Clock:  clk,
		Repo:   repo,
		SMS:    nil,
		Tokens: sms.NewTokenCache(24*time.Hour, clk),
		Email:  &email.NoOpProvider{},
	})

	w, err := New(Params{
		Cfg:      cfg,
		DB:       db,
		Log:      log,
		Clock:    clk,
		Repo:     repo,
		NotifSvc: notifSvc,
	})
	assert.NoError(t, err)
	return w, notifSvc, db, clk
}

func TestRunOnce_DrainsPendingAcrossBatches(t *testing.T) {
	w, svc, db, _ := newWorkerFixture(t, "file:worker_drain?mode=memory&cache=shared")

	// Five pending rows against a batch size of two forces multiple
	// claim rounds in a single sweep. Test mode keeps the provider out.
	for i := 0; i < 5; i++ {
		_, err := svc.Enqueue(context.Background(), nil, notifdomain.EnqueueInput{
			EventType: notifdomain.EventCustomMessage,
			Recipient: "+573001234567",
			Variables: map[string]string{"message": "hola"},
			IsTest:    true,
		})
		assert.NoError(t, err)
	}

	assert.NoError(t, w.RunOnce(context.Background()))

	var sent int64
	assert.NoError(t, db.Model(&notifdomain.NotificationRequest{}).
		Where("status = ?", notifdomain.StatusSent).Count(&sent).Error)
	assert.EqualValues(t, 5, sent)
}

func TestRunOnce_PicksUpDueRetries(t *testing.T) {
	w, svc, db, clk := newWorkerFixture(t, "file:worker_retry?mode=memory&cache=shared")

	req, err := svc.Enqueue(context.Background(), nil, notifdomain.EnqueueInput{
		EventType: notifdomain.EventCustomMessage,
		Recipient: "+573001234567",
		Variables: map[string]string{"message": "hola"},
		IsTest:    true,
	})
	assert.NoError(t, err)

	// Simulate an earlier transient failure with a retry window.
	next := clk.Now().Add(5 * time.Minute)
	assert.NoError(t, db.Model(&notifdomain.NotificationRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]any{
			"status":        notifdomain.StatusFailed,
			"retry_count":   1,
			"next_retry_at": next,
		}).Error)

	// Before the window opens nothing is claimed.
	assert.NoError(t, w.RunOnce(context.Background()))
	var stored notifdomain.NotificationRequest
	assert.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	assert.Equal(t, notifdomain.StatusFailed, stored.Status)

	clk.Advance(6 * time.Minute)
	assert.NoError(t, w.RunOnce(context.Background()))
	assert.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	assert.Equal(t, notifdomain.StatusSent, stored.Status)
}

func TestRunOnce_LeavesExhaustedFailuresAlone(t *testing.T) {
	w, svc, db, _ := newWorkerFixture(t, "file:worker_exhausted?mode=memory&cache=shared")

	req, err := svc.Enqueue(context.Background(), nil, notifdomain.EnqueueInput{
		EventType: notifdomain.EventCustomMessage,
		Recipient: "+573001234567",
		Variables: map[string]string{"message": "hola"},
		IsTest:    true,
	})
	assert.NoError(t, err)

	// Terminal failure: no retry window.
	assert.NoError(t, db.Model(&notifdomain.NotificationRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]any{
			"status":        notifdomain.StatusFailed,
			"retry_count":   3,
			"next_retry_at": nil,
		}).Error)

	assert.NoError(t, w.RunOnce(context.Background()))

	var stored notifdomain.NotificationRequest
	assert.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	assert.Equal(t, notifdomain.StatusFailed, stored.Status)
}
