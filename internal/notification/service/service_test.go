package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/elclub/paquetes/internal/clock"
	"github.com/elclub/paquetes/internal/config"
	notifdomain "github.com/elclub/paquetes/internal/notification/domain"
	notifrepo "github.com/elclub/paquetes/internal/notification/repository"
	obsmetrics "github.com/elclub/paquetes/internal/observability/metrics"
	"github.com/elclub/paquetes/internal/providers/email"
	"github.com/elclub/paquetes/internal/providers/sms"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeSMS struct {
	mu        sync.Mutex
	authCalls int
	sendCalls int
	authErr   error
	sendErrs  []error
	receipt   sms.SendReceipt
}

func (f *fakeSMS) Authenticate(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls++
	if f.authErr != nil {
		return "", f.authErr
	}
	return "token", nil
}

func (f *fakeSMS) Send(_ context.Context, _, _, _ string) (*sms.SendReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	receipt := f.receipt
	return &receipt, nil
}

func newTestService(t *testing.T, dsn string, provider *fakeSMS) (notifdomain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&notifdomain.NotificationRequest{}, &notifdomain.Template{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		Cfg: config.Config{
			CompanyName:   "PAQUETES EL CLUB",
			SMSMaxRetries: 3,
			SMSTokenTTL:   24 * time.Hour,
		},
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clk,
		Repo:   notifrepo.Provide(),
		SMS:    provider,
		Tokens: sms.NewTokenCache(24*time.Hour, clk),
		Email:  &email.NoOpProvider{},
	})
	return svc, db, clk
}

func enqueueSMS(t *testing.T, svc notifdomain.Service, recipient string, isTest bool) *notifdomain.NotificationRequest {
	t.Helper()
	req, err := svc.Enqueue(context.Background(), nil, notifdomain.EnqueueInput{
		EventType: notifdomain.EventCustomMessage,
		Recipient: recipient,
		Variables: map[string]string{"message": "hola"},
		IsTest:    isTest,
	})
	assert.NoError(t, err)
	return req
}

func reload(t *testing.T, db *gorm.DB, id snowflake.ID) *notifdomain.NotificationRequest {
	t.Helper()
	var stored notifdomain.NotificationRequest
	assert.NoError(t, db.First(&stored, "id = ?", id).Error)
	return &stored
}

func TestEnqueue_RendersTemplateIntoBody(t *testing.T) {
	svc, db, _ := newTestService(t, "file:notif_enqueue?mode=memory&cache=shared", &fakeSMS{})

	req := enqueueSMS(t, svc, "+573001234567", false)
	assert.Equal(t, "hola", req.Body)
	assert.Equal(t, notifdomain.StatusPending, req.Status)
	assert.Equal(t, 3, req.MaxRetries)

	stored := reload(t, db, req.ID)
	assert.Equal(t, notifdomain.StatusPending, stored.Status)
}

func TestEnqueue_EmptyRecipientRejected(t *testing.T) {
	svc, _, _ := newTestService(t, "file:notif_norecipient?mode=memory&cache=shared", &fakeSMS{})

	_, err := svc.Enqueue(context.Background(), nil, notifdomain.EnqueueInput{
		EventType: notifdomain.EventCustomMessage,
		Recipient: "   ",
	})
	assert.ErrorIs(t, err, notifdomain.ErrNoRecipient)
}

func TestDispatch_TestModeSkipsProvider(t *testing.T) {
	provider := &fakeSMS{}
	svc, db, _ := newTestService(t, "file:notif_testmode?mode=memory&cache=shared", provider)

	req := enqueueSMS(t, svc, "+573001234567", true)
	assert.NoError(t, svc.Dispatch(context.Background(), req.ID))

	stored := reload(t, db, req.ID)
	assert.Equal(t, notifdomain.StatusSent, stored.Status)
	assert.EqualValues(t, 0, stored.CostCents)
	assert.True(t, strings.HasPrefix(stored.ProviderMessageID, "TEST-"))
	assert.Equal(t, 0, provider.authCalls)
	assert.Equal(t, 0, provider.sendCalls)
}

func TestDispatch_StaleTokenRetriesWithFreshLogin(t *testing.T) {
	provider := &fakeSMS{
		sendErrs: []error{
			&sms.ProviderError{Category: sms.CategoryAuth, Op: "send", Message: "token expired"},
			nil,
		},
		receipt: sms.SendReceipt{ProviderMessageID: "MSG-1", CostCents: 50},
	}
	svc, db, clk := newTestService(t, "file:notif_staletoken?mode=memory&cache=shared", provider)

	req := enqueueSMS(t, svc, "+573001234567", false)

	assert.NoError(t, svc.Dispatch(context.Background(), req.ID))
	stored := reload(t, db, req.ID)
	assert.Equal(t, notifdomain.StatusFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.NotNil(t, stored.NextRetryAt)
	assert.Equal(t, clk.Now().Add(5*time.Minute), stored.NextRetryAt.UTC())

	clk.Advance(6 * time.Minute)
	assert.NoError(t, svc.Dispatch(context.Background(), req.ID))
	stored = reload(t, db, req.ID)
	assert.Equal(t, notifdomain.StatusSent, stored.Status)
	assert.Equal(t, "MSG-1", stored.ProviderMessageID)
	assert.EqualValues(t, 50, stored.CostCents)

	// The invalidated token forced a second login.
	assert.Equal(t, 2, provider.authCalls)
}

func TestDispatch_PermanentErrorIsTerminal(t *testing.T) {
	provider := &fakeSMS{
		sendErrs: []error{
			&sms.ProviderError{Category: sms.CategoryPermanent, Op: "send", Message: "recipient rejected"},
		},
	}
	svc, db, clk := newTestService(t, "file:notif_permanent?mode=memory&cache=shared", provider)

	req := enqueueSMS(t, svc, "+573001234567", false)
	assert.NoError(t, svc.Dispatch(context.Background(), req.ID))

	stored := reload(t, db, req.ID)
	assert.Equal(t, notifdomain.StatusFailed, stored.Status)
	assert.Nil(t, stored.NextRetryAt)

	// No retry window means a later dispatch is a no-op.
	clk.Advance(24 * time.Hour)
	assert.NoError(t, svc.Dispatch(context.Background(), req.ID))
	assert.Equal(t, 1, provider.sendCalls)
}

func TestDispatch_InvalidRecipientFailsBeforeProvider(t *testing.T) {
	provider := &fakeSMS{}
	svc, db, _ := newTestService(t, "file:notif_badphone?mode=memory&cache=shared", provider)

	req := enqueueSMS(t, svc, "12345", false)
	assert.NoError(t, svc.Dispatch(context.Background(), req.ID))

	stored := reload(t, db, req.ID)
	assert.Equal(t, notifdomain.StatusFailed, stored.Status)
	assert.Nil(t, stored.NextRetryAt)
	assert.Equal(t, 0, provider.authCalls)
	assert.Equal(t, 0, provider.sendCalls)
}

func TestDispatch_BackoffScheduleAndExhaustion(t *testing.T) {
	transient := func() error {
		return &sms.ProviderError{Category: sms.CategoryTransient, Op: "send", Message: "gateway unavailable"}
	}
	provider := &fakeSMS{sendErrs: []error{transient(), transient(), transient()}}
	svc, db, clk := newTestService(t, "file:notif_backoff?mode=memory&cache=shared", provider)

	req := enqueueSMS(t, svc, "+573001234567", false)

	assert.NoError(t, svc.Dispatch(context.Background(), req.ID))
	stored := reload(t, db, req.ID)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Equal(t, clk.Now().Add(5*time.Minute), stored.NextRetryAt.UTC())

	clk.Advance(6 * time.Minute)
	assert.NoError(t, svc.Dispatch(context.Background(), req.ID))
	stored = reload(t, db, req.ID)
	assert.Equal(t, 2, stored.RetryCount)
	assert.Equal(t, clk.Now().Add(30*time.Minute), stored.NextRetryAt.UTC())

	clk.Advance(31 * time.Minute)
	assert.NoError(t, svc.Dispatch(context.Background(), req.ID))
	stored = reload(t, db, req.ID)
	assert.Equal(t, 3, stored.RetryCount)
	assert.Nil(t, stored.NextRetryAt)

	// Retries exhausted; the sweep must not pick it up again.
	clk.Advance(24 * time.Hour)
	assert.NoError(t, svc.Dispatch(context.Background(), req.ID))
	assert.Equal(t, 3, provider.sendCalls)
}

func TestDispatchBulk_PartialFailure(t *testing.T) {
	provider := &fakeSMS{receipt: sms.SendReceipt{ProviderMessageID: "MSG-B", CostCents: 50}}
	svc, _, _ := newTestService(t, "file:notif_bulk?mode=memory&cache=shared", provider)

	result, err := svc.DispatchBulk(
		context.Background(),
		notifdomain.EventCustomMessage,
		[]string{"+573001234567", "not-a-phone", "3007654321"},
		map[string]string{"message": "promo"},
		false,
	)
	assert.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Failed)

	assert.True(t, result.Results[0].Sent)
	assert.False(t, result.Results[1].Sent)
	assert.NotEmpty(t, result.Results[1].Error)
	assert.True(t, result.Results[2].Sent)
}

func TestStats_CountsAndCost(t *testing.T) {
	provider := &fakeSMS{receipt: sms.SendReceipt{ProviderMessageID: "MSG-S", CostCents: 50}}
	svc, _, clk := newTestService(t, "file:notif_stats?mode=memory&cache=shared", provider)

	sent := enqueueSMS(t, svc, "+573001234567", false)
	assert.NoError(t, svc.Dispatch(context.Background(), sent.ID))
	enqueueSMS(t, svc, "+573007654321", false)

	stats, err := svc.Stats(context.Background(), clk.Now().Add(-time.Hour), clk.Now().Add(time.Hour))
	assert.NoError(t, err)
	assert.EqualValues(t, 1, stats.CountsByStatus[notifdomain.StatusSent])
	assert.EqualValues(t, 1, stats.CountsByStatus[notifdomain.StatusPending])
	assert.EqualValues(t, 50, stats.TotalCostCents)
}

func TestMarkDelivered(t *testing.T) {
	provider := &fakeSMS{receipt: sms.SendReceipt{ProviderMessageID: "MSG-D", CostCents: 50}}
	svc, db, _ := newTestService(t, "file:notif_delivered?mode=memory&cache=shared", provider)

	req := enqueueSMS(t, svc, "+573001234567", false)
	assert.NoError(t, svc.Dispatch(context.Background(), req.ID))

	assert.NoError(t, svc.MarkDelivered(context.Background(), "MSG-D"))
	stored := reload(t, db, req.ID)
	assert.Equal(t, notifdomain.StatusDelivered, stored.Status)
	assert.NotNil(t, stored.DeliveredAt)

	assert.ErrorIs(t, svc.MarkDelivered(context.Background(), "unknown"), notifdomain.ErrNotificationNotFound)
}

// slowSMS advances the injected clock during Send, standing in for a
// provider round trip of known length.
type slowSMS struct {
	clk   *clock.FakeClock
	delay time.Duration
}

func (s slowSMS) Authenticate(context.Context) (string, error) { return "token", nil }

func (s slowSMS) Send(context.Context, string, string, string) (*sms.SendReceipt, error) {
	s.clk.Advance(s.delay)
	return &sms.SendReceipt{ProviderMessageID: "MSG-SLOW", CostCents: 50}, nil
}

func TestDispatch_LatencyMeasuredOnInjectedClock(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:notif_latency?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&notifdomain.NotificationRequest{}, &notifdomain.Template{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	reg := prometheus.NewRegistry()
	m := obsmetrics.WithRegisterer(reg, obsmetrics.Config{ServiceName: "test", Environment: "test"})

	svc := NewService(Params{
		Cfg: config.Config{
			CompanyName:   "PAQUETES EL CLUB",
			SMSMaxRetries: 3,
			SMSTokenTTL:   24 * time.Hour,
		},
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clk,
		Repo:       notifrepo.Provide(),
		SMS:        slowSMS{clk: clk, delay: 3 * time.Second},
		Tokens:     sms.NewTokenCache(24*time.Hour, clk),
		Email:      &email.NoOpProvider{},
		ObsMetrics: m,
	})

	req := enqueueSMS(t, svc, "+573001234567", false)
	assert.NoError(t, svc.Dispatch(context.Background(), req.ID))

	families, err := reg.Gather()
	assert.NoError(t, err)
	var sum float64
	var count uint64
	for _, fam := range families {
		if fam.GetName() != "paquetes_notification_send_seconds" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			sum += metric.GetHistogram().GetSampleSum()
			count += metric.GetHistogram().GetSampleCount()
		}
	}
	assert.EqualValues(t, 1, count)
	assert.InDelta(t, 3.0, sum, 0.001)
}
