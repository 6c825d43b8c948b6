package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/elclub/paquetes/internal/clock"
	"github.com/elclub/paquetes/internal/config"
	customerdomain "github.com/elclub/paquetes/internal/customer/domain"
	eventdomain "github.com/elclub/paquetes/internal/event/domain"
	"github.com/elclub/paquetes/internal/fees"
	notifdomain "github.com/elclub/paquetes/internal/notification/domain"
	obsmetrics "github.com/elclub/paquetes/internal/observability/metrics"
	parceldomain "github.com/elclub/paquetes/internal/parcel/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg          config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Calculator   *fees.Calculator
	Repo         parceldomain.Repository
	CustomerRepo customerdomain.Repository
	EventSvc     eventdomain.Service
	NotifSvc     notifdomain.Service
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	calc         *fees.Calculator
	repo         parceldomain.Repository
	customerRepo customerdomain.Repository
	eventSvc     eventdomain.Service
	notifSvc     notifdomain.Service
	obsMetrics   *obsmetrics.Metrics
	locks        *keyedMutex
}

func NewService(p Params) parceldomain.Service {
	return &Service{
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log.Named("parcel.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		calc:         p.Calculator,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		eventSvc:     p.EventSvc,
		notifSvc:     p.NotifSvc,
		obsMetrics:   p.ObsMetrics,
		locks:        newKeyedMutex(),
	}
}

func (s *Service) Announce(ctx context.Context, in parceldomain.AnnounceInput) (*parceldomain.Package, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.GuideNumber = strings.TrimSpace(in.GuideNumber)
	if in.CustomerName == "" || in.CustomerPhone == "" || in.GuideNumber == "" {
		return nil, parceldomain.ErrMissingRequiredField
	}

	category := in.Category
	if category != parceldomain.CategoryOversized {
		category = parceldomain.CategoryStandard
	}

	now := s.clock.Now()
	var pkg *parceldomain.Package

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByGuideNumber(ctx, tx, in.GuideNumber)
		if err != nil {
			return err
		}
		if existing != nil {
			return parceldomain.ErrGuideNumberTaken
		}

		customer, err := s.findOrCreateCustomer(ctx, tx, in)
		if err != nil {
			return err
		}

		code, err := s.uniqueTrackingCode(ctx, tx)
		if err != nil {
			return err
		}

		pkg = &parceldomain.Package{
			ID:           s.genID.Generate(),
			TrackingCode: code,
			GuideNumber:  in.GuideNumber,
			CustomerID:   customer.ID,
			Status:       parceldomain.StatusAnnounced,
			Category:     category,
			Condition:    parceldomain.ConditionGood,
			Currency:     s.calc.Quote(string(category), now, now).Currency,
			AnnouncedAt:  &now,
		}
		if err := s.repo.Insert(ctx, tx, pkg); err != nil {
			return err
		}

		if err := s.appendEvent(ctx, tx, pkg, customer, eventdomain.EventTypeAnnounced, "", in.Operator, "", nil, nil); err != nil {
			return err
		}

		return s.enqueueNotification(ctx, tx, pkg, customer, notifdomain.EventPackageAnnounced)
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordTransition("new", string(parceldomain.StatusAnnounced))
	}
	s.log.Info("package announced",
		zap.String("tracking_code", pkg.TrackingCode),
		zap.String("guide_number", pkg.GuideNumber),
	)
	return pkg, nil
}

func (s *Service) Transition(
	ctx context.Context,
	id snowflake.ID,
	target parceldomain.Status,
	operator parceldomain.Operator,
	payload parceldomain.TransitionPayload,
) (*parceldomain.Package, error) {

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	pkg, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, parceldomain.ErrPackageNotFound
	}

	from := pkg.Status
	if !parceldomain.CanTransition(from, target) {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordTransitionError("invalid_transition")
		}
		return nil, parceldomain.ErrInvalidTransition
	}
	if err := validatePayload(target, payload); err != nil {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordTransitionError("missing_required_field")
		}
		return nil, err
	}

	now := s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch target {
		case parceldomain.StatusReceived:
			pkg.Category = payload.Category
			pkg.Condition = payload.Condition
			pkg.ReceivedAt = &now

			occupied, err := s.repo.OccupiedSlots(ctx, tx)
			if err != nil {
				return err
			}
			slot := firstFreeSlot(occupied)
			if slot == "" {
				return parceldomain.ErrNoFreeSlot
			}
			pkg.SlotCode = &slot

			quote := s.calc.Quote(string(pkg.Category), now, now)
			pkg.BaseFeeCents = quote.BaseFeeCents
			pkg.StorageFeeCents = quote.StorageFeeCents
			pkg.TotalFeeCents = quote.TotalCents
			pkg.Currency = quote.Currency

		case parceldomain.StatusDelivered:
			pkg.DeliveredAt = &now
			pkg.SlotCode = nil
			s.finalizeFees(pkg, now)

		case parceldomain.StatusCancelled:
			pkg.CancelledAt = &now
			pkg.SlotCode = nil
			s.finalizeFees(pkg, now)
		}
		pkg.Status = target

		if err := s.repo.Update(ctx, tx, pkg); err != nil {
			return err
		}

		customer, err := s.customerRepo.FindByID(ctx, tx, pkg.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return customerdomain.ErrCustomerNotFound
		}

		extension := transitionExtension(target, pkg, payload)
		if err := s.appendEvent(ctx, tx, pkg, customer, eventTypeFor(target), string(from), operator, payload.Notes, payload.Attachments, extension); err != nil {
			return err
		}

		return s.enqueueNotification(ctx, tx, pkg, customer, notificationEventFor(target))
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordTransition(string(from), string(target))
	}
	s.log.Info("package transitioned",
		zap.String("tracking_code", pkg.TrackingCode),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)
	return pkg, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*parceldomain.Package, error) {
	pkg, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, parceldomain.ErrPackageNotFound
	}
	return pkg, nil
}

func (s *Service) GetByTrackingCode(ctx context.Context, code string) (*parceldomain.Package, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	pkg, err := s.repo.FindByTrackingCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, parceldomain.ErrPackageNotFound
	}
	return pkg, nil
}

// finalizeFees closes the storage window for packages that were in
// storage. Packages cancelled before arrival keep zero fees.
func (s *Service) finalizeFees(pkg *parceldomain.Package, now time.Time) {
	if pkg.ReceivedAt == nil {
		return
	}
	quote := s.calc.Quote(string(pkg.Category), *pkg.ReceivedAt, now)
	pkg.BaseFeeCents = quote.BaseFeeCents
	pkg.StorageFeeCents = quote.StorageFeeCents
	pkg.TotalFeeCents = quote.TotalCents
	pkg.Currency = quote.Currency
}

func validatePayload(target parceldomain.Status, payload parceldomain.TransitionPayload) error {
	switch target {
	case parceldomain.StatusReceived:
		if payload.Category == "" || payload.Condition == "" {
			return parceldomain.ErrMissingRequiredField
		}
	case parceldomain.StatusDelivered:
		if strings.TrimSpace(payload.PaymentMethod) == "" || payload.PaymentAmountCents <= 0 {
			return parceldomain.ErrMissingRequiredField
		}
	case parceldomain.StatusCancelled:
		if strings.TrimSpace(payload.Reason) == "" {
			return parceldomain.ErrMissingRequiredField
		}
	default:
		return parceldomain.ErrInvalidTransition
	}
	return nil
}

func eventTypeFor(target parceldomain.Status) string {
	switch target {
	case parceldomain.StatusReceived:
		return eventdomain.EventTypeReceived
	case parceldomain.StatusDelivered:
		return eventdomain.EventTypeDelivered
	case parceldomain.StatusCancelled:
		return eventdomain.EventTypeCancelled
	default:
		return eventdomain.EventTypeAnnounced
	}
}

func notificationEventFor(target parceldomain.Status) string {
	switch target {
	case parceldomain.StatusReceived:
		return notifdomain.EventPackageReceived
	case parceldomain.StatusDelivered:
		return notifdomain.EventPackageDelivered
	case parceldomain.StatusCancelled:
		return notifdomain.EventPackageCancelled
	default:
		return notifdomain.EventPackageAnnounced
	}
}

func transitionExtension(target parceldomain.Status, pkg *parceldomain.Package, payload parceldomain.TransitionPayload) map[string]any {
	switch target {
	case parceldomain.StatusReceived:
		ext := map[string]any{
			"category":  string(payload.Category),
			"condition": string(payload.Condition),
		}
		if pkg.SlotCode != nil {
			ext["slot_code"] = *pkg.SlotCode
		}
		return ext
	case parceldomain.StatusDelivered:
		return map[string]any{
			"payment_method":       payload.PaymentMethod,
			"payment_amount_cents": payload.PaymentAmountCents,
			"recipient_name":       payload.RecipientName,
			"signature_ref":        payload.SignatureRef,
		}
	case parceldomain.StatusCancelled:
		return map[string]any{
			"reason":              payload.Reason,
			"refund_amount_cents": payload.RefundAmountCents,
		}
	default:
		return nil
	}
}

func (s *Service) findOrCreateCustomer(ctx context.Context, tx *gorm.DB, in parceldomain.AnnounceInput) (*customerdomain.Customer, error) {
	customer, err := s.customerRepo.FindByPhone(ctx, tx, in.CustomerPhone)
	if err != nil {
		return nil, err
	}
	if customer != nil {
		return customer, nil
	}

	customer = &customerdomain.Customer{
		ID:    s.genID.Generate(),
		Name:  in.CustomerName,
		Phone: in.CustomerPhone,
		Email: strings.TrimSpace(in.CustomerEmail),
	}
	if err := s.customerRepo.Insert(ctx, tx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *Service) uniqueTrackingCode(ctx context.Context, tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomTrackingCode()
		if err != nil {
			return "", err
		}
		exists, err := s.repo.TrackingCodeExists(ctx, tx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", parceldomain.ErrTrackingCodeExhausted
}

func (s *Service) appendEvent(
	ctx context.Context,
	tx *gorm.DB,
	pkg *parceldomain.Package,
	customer *customerdomain.Customer,
	eventType string,
	statusBefore string,
	operator parceldomain.Operator,
	notes string,
	attachments []string,
	extension map[string]any,
) error {

	event := &eventdomain.LifecycleEvent{
		PackageID:     pkg.ID,
		TrackingCode:  pkg.TrackingCode,
		GuideNumber:   pkg.GuideNumber,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		CustomerEmail: customer.Email,
		EventType:     eventType,
		StatusBefore:  statusBefore,
		StatusAfter:   string(pkg.Status),
		Actor:         operator.Name,
		ActorRole:     operator.Role,
		TotalFeeCents: pkg.TotalFeeCents,
		Notes:         notes,
	}
	if len(attachments) > 0 {
		raw, err := json.Marshal(attachments)
		if err != nil {
			return err
		}
		event.Attachments = datatypes.JSON(raw)
	}
	if len(extension) > 0 {
		raw, err := json.Marshal(extension)
		if err != nil {
			return err
		}
		event.Extension = datatypes.JSON(raw)
	}
	return s.eventSvc.Append(ctx, tx, event)
}

func (s *Service) enqueueNotification(
	ctx context.Context,
	tx *gorm.DB,
	pkg *parceldomain.Package,
	customer *customerdomain.Customer,
	eventType string,
) error {

	_, err := s.notifSvc.Enqueue(ctx, tx, notifdomain.EnqueueInput{
		PackageID:  pkg.ID,
		CustomerID: customer.ID,
		Channel:    notifdomain.ChannelSMS,
		EventType:  eventType,
		Recipient:  customer.Phone,
		Variables:  s.templateVariables(pkg, customer),
		IsTest:     s.cfg.SMSTestMode,
	})
	return err
}

func (s *Service) templateVariables(pkg *parceldomain.Package, customer *customerdomain.Customer) map[string]string {
	return map[string]string{
		"customer_name": customer.Name,
		"tracking_code": pkg.TrackingCode,
		"guide_number":  pkg.GuideNumber,
		"status":        statusPhrase(pkg.Status),
		"total":         formatPesos(pkg.TotalFeeCents),
		"currency":      pkg.Currency,
		"tracking_url":  s.cfg.PublicBaseURL + "/track/" + pkg.TrackingCode,
		"company":       s.cfg.CompanyName,
	}
}

// statusPhrase is the customer-facing wording substituted into the
// shared status-changed template.
func statusPhrase(status parceldomain.Status) string {
	switch status {
	case parceldomain.StatusAnnounced:
		return "anunciado"
	case parceldomain.StatusReceived:
		return "recibido en bodega"
	case parceldomain.StatusDelivered:
		return "entregado"
	case parceldomain.StatusCancelled:
		return "cancelado"
	default:
		return string(status)
	}
}

// formatPesos renders minor units as whole pesos for message bodies.
func formatPesos(cents int64) string {
	return strconv.FormatInt(cents/100, 10)
}
