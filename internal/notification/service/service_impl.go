package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/elclub/paquetes/internal/clock"
	"github.com/elclub/paquetes/internal/config"
	notifdomain "github.com/elclub/paquetes/internal/notification/domain"
	obsmetrics "github.com/elclub/paquetes/internal/observability/metrics"
	"github.com/elclub/paquetes/internal/providers/email"
	"github.com/elclub/paquetes/internal/providers/sms"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testModeDelay imitates gateway latency so test sends behave like the
// real thing without spending provider quota.
const testModeDelay = 100 * time.Millisecond

type Params struct {
	fx.In

	Cfg        config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       notifdomain.Repository
	SMS        sms.ChannelProvider
	Tokens     *sms.TokenCache
	Email      email.Provider
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       notifdomain.Repository
	sms        sms.ChannelProvider
	tokens     *sms.TokenCache
	email      email.Provider
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) notifdomain.Service {
	return &Service{
		cfg:        p.Cfg,
		db:         p.DB,
		log:        p.Log.Named("notification.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		sms:        p.SMS,
		tokens:     p.Tokens,
		email:      p.Email,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Enqueue(ctx context.Context, tx *gorm.DB, in notifdomain.EnqueueInput) (*notifdomain.NotificationRequest, error) {
	in.Recipient = strings.TrimSpace(in.Recipient)
	if in.Recipient == "" {
		return nil, notifdomain.ErrNoRecipient
	}
	if in.Channel == "" {
		in.Channel = notifdomain.ChannelSMS
	}
	if tx == nil {
		tx = s.db
	}

	templateName := templateNameFor(in.EventType)
	body, err := s.renderBody(ctx, tx, templateName, in.Variables)
	if err != nil {
		return nil, err
	}

	req := &notifdomain.NotificationRequest{
		ID:           s.genID.Generate(),
		PackageID:    in.PackageID,
		CustomerID:   in.CustomerID,
		Channel:      in.Channel,
		EventType:    in.EventType,
		Recipient:    in.Recipient,
		TemplateName: templateName,
		Body:         body,
		Priority:     in.Priority,
		Status:       notifdomain.StatusPending,
		MaxRetries:   s.cfg.SMSMaxRetries,
		IsTest:       in.IsTest,
	}
	if err := s.repo.Insert(ctx, tx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Service) renderBody(ctx context.Context, db *gorm.DB, templateName string, vars map[string]string) (string, error) {
	tpl, err := s.repo.FindTemplate(ctx, db, templateName)
	if err != nil {
		return "", err
	}
	body := defaultTemplateBodies[templateName]
	if tpl != nil {
		body = tpl.Body
	}
	if body == "" {
		return "", notifdomain.ErrTemplateNotFound
	}
	return renderTemplate(body, vars), nil
}

func (s *Service) Dispatch(ctx context.Context, id snowflake.ID) error {
	req, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if req == nil {
		return notifdomain.ErrNotificationNotFound
	}
	if !dispatchable(req, s.clock.Now()) {
		return nil
	}

	start := s.clock.Now()
	outcome := s.attempt(ctx, req)
	if s.obsMetrics != nil {
		s.obsMetrics.RecordDispatch(string(req.Channel), outcome, s.clock.Now().Sub(start))
		if req.Status == notifdomain.StatusSent {
			s.obsMetrics.AddDispatchCost(req.CostCents)
		}
	}

	return s.repo.Update(ctx, s.db, req)
}

// dispatchable filters requests that already reached a terminal state
// or whose retry window has not opened yet.
func dispatchable(req *notifdomain.NotificationRequest, now time.Time) bool {
	switch req.Status {
	case notifdomain.StatusPending:
		return true
	case notifdomain.StatusFailed:
		if req.RetryCount >= req.MaxRetries {
			return false
		}
		return req.NextRetryAt != nil && !req.NextRetryAt.After(now)
	default:
		return false
	}
}

// attempt performs one send and mutates req with the outcome. The
// caller persists.
func (s *Service) attempt(ctx context.Context, req *notifdomain.NotificationRequest) string {
	if req.IsTest {
		time.Sleep(testModeDelay)
		s.markSent(req, "TEST-"+uuid.NewString(), "test mode", 0)
		return "sent"
	}

	switch req.Channel {
	case notifdomain.ChannelEmail:
		return s.attemptEmail(ctx, req)
	default:
		return s.attemptSMS(ctx, req)
	}
}

func (s *Service) attemptSMS(ctx context.Context, req *notifdomain.NotificationRequest) string {
	recipient, ok := sms.NormalizePhone(req.Recipient)
	if !ok {
		s.markFailed(req, "invalid recipient number", false)
		return "rejected"
	}

	token, err := s.tokens.Get(ctx, s.sms.Authenticate)
	if err != nil {
		s.log.Warn("sms authentication failed", zap.Error(err))
		s.markFailed(req, err.Error(), !sms.IsPermanentError(err))
		return "auth_failed"
	}

	receipt, err := s.sms.Send(ctx, token, recipient, req.Body)
	if err != nil {
		switch {
		case sms.IsAuthError(err):
			// Stale token. Drop it so the retry logs in fresh.
			s.tokens.Invalidate()
			s.markFailed(req, err.Error(), true)
			return "auth_failed"
		case sms.IsPermanentError(err):
			s.markFailed(req, err.Error(), false)
			return "rejected"
		default:
			s.markFailed(req, err.Error(), true)
			return "failed"
		}
	}

	s.markSent(req, receipt.ProviderMessageID, receipt.RawResponse, receipt.CostCents)
	return "sent"
}

func (s *Service) attemptEmail(ctx context.Context, req *notifdomain.NotificationRequest) string {
	if !strings.Contains(req.Recipient, "@") {
		s.markFailed(req, "invalid recipient address", false)
		return "rejected"
	}

	subject := s.cfg.CompanyName
	if err := s.email.Send(ctx, []string{req.Recipient}, subject, req.Body); err != nil {
		s.markFailed(req, err.Error(), true)
		return "failed"
	}
	s.markSent(req, "", "", 0)
	return "sent"
}

func (s *Service) markSent(req *notifdomain.NotificationRequest, providerMessageID, rawResponse string, costCents int64) {
	now := s.clock.Now()
	req.Status = notifdomain.StatusSent
	req.SentAt = &now
	req.NextRetryAt = nil
	req.FailedReason = ""
	req.ProviderMessageID = providerMessageID
	req.ProviderResponse = rawResponse
	req.CostCents = costCents
	if req.IsTest {
		req.CostCents = 0
	}
}

func (s *Service) markFailed(req *notifdomain.NotificationRequest, reason string, retryable bool) {
	req.Status = notifdomain.StatusFailed
	req.FailedReason = reason
	if req.RetryCount < req.MaxRetries {
		req.RetryCount++
	}
	if retryable && req.RetryCount < req.MaxRetries {
		next := s.clock.Now().Add(notifdomain.NextBackoff(req.RetryCount))
		req.NextRetryAt = &next
		return
	}
	req.NextRetryAt = nil
}

func (s *Service) DispatchBulk(ctx context.Context, eventType string, recipients []string, variables map[string]string, isTest bool) (*notifdomain.BulkResult, error) {
	result := &notifdomain.BulkResult{Total: len(recipients)}

	for _, recipient := range recipients {
		entry := notifdomain.SendResult{Recipient: recipient}

		req, err := s.Enqueue(ctx, nil, notifdomain.EnqueueInput{
			Channel:   notifdomain.ChannelSMS,
			EventType: eventType,
			Recipient: recipient,
			Variables: variables,
			IsTest:    isTest,
		})
		if err == nil {
			err = s.Dispatch(ctx, req.ID)
		}
		if err == nil && req != nil {
			// Re-read the persisted outcome of this attempt.
			stored, ferr := s.repo.FindByID(ctx, s.db, req.ID)
			if ferr == nil && stored != nil && stored.Status == notifdomain.StatusSent {
				entry.Sent = true
			} else if ferr == nil && stored != nil {
				entry.Error = stored.FailedReason
			}
		}
		if err != nil {
			entry.Error = err.Error()
		}

		if entry.Sent {
			result.Sent++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, entry)
	}

	return result, nil
}

func (s *Service) Stats(ctx context.Context, from, to time.Time) (*notifdomain.Stats, error) {
	counts, err := s.repo.CountByStatus(ctx, s.db, from, to)
	if err != nil {
		return nil, err
	}
	cost, err := s.repo.SumCost(ctx, s.db, from, to)
	if err != nil {
		return nil, err
	}
	return &notifdomain.Stats{
		From:           from,
		To:             to,
		CountsByStatus: counts,
		TotalCostCents: cost,
	}, nil
}

func (s *Service) MarkDelivered(ctx context.Context, providerMessageID string) error {
	providerMessageID = strings.TrimSpace(providerMessageID)
	if providerMessageID == "" {
		return notifdomain.ErrNotificationNotFound
	}
	req, err := s.repo.FindByProviderMessageID(ctx, s.db, providerMessageID)
	if err != nil {
		return err
	}
	if req == nil {
		return notifdomain.ErrNotificationNotFound
	}
	if req.Status != notifdomain.StatusSent {
		return nil
	}
	now := s.clock.Now()
	req.Status = notifdomain.StatusDelivered
	req.DeliveredAt = &now
	return s.repo.Update(ctx, s.db, req)
}
