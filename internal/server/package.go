package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/elclub/paquetes/internal/event/domain"
	parceldomain "github.com/elclub/paquetes/internal/parcel/domain"
	"github.com/gin-gonic/gin"
)

type operatorRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func (o operatorRequest) toDomain() parceldomain.Operator {
	return parceldomain.Operator{
		Name: strings.TrimSpace(o.Name),
		Role: strings.TrimSpace(o.Role),
	}
}

type announcePackageRequest struct {
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerEmail string          `json:"customer_email"`
	GuideNumber   string          `json:"guide_number"`
	Category      string          `json:"category"`
	Operator      operatorRequest `json:"operator"`
}

func (s *Server) AnnouncePackage(c *gin.Context) {
	var req announcePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	pkg, err := s.parcelSvc.Announce(c.Request.Context(), parceldomain.AnnounceInput{
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		GuideNumber:   strings.TrimSpace(req.GuideNumber),
		Category:      parceldomain.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		Operator:      req.Operator.toDomain(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": pkg})
}

func (s *Server) GetPackageByID(c *gin.Context) {
	id, err := parsePackageID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pkg, err := s.parcelSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pkg})
}

type receivePackageRequest struct {
	Category  string          `json:"category"`
	Condition string          `json:"condition"`
	Notes     string          `json:"notes"`
	Operator  operatorRequest `json:"operator"`
}

func (s *Server) ReceivePackage(c *gin.Context) {
	id, err := parsePackageID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req receivePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	pkg, err := s.parcelSvc.Transition(c.Request.Context(), id, parceldomain.StatusReceived, req.Operator.toDomain(), parceldomain.TransitionPayload{
		Category:  parceldomain.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		Condition: parceldomain.Condition(strings.ToLower(strings.TrimSpace(req.Condition))),
		Notes:     strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pkg})
}

type deliverPackageRequest struct {
	PaymentMethod      string          `json:"payment_method"`
	PaymentAmountCents int64           `json:"payment_amount_cents"`
	RecipientName      string          `json:"recipient_name"`
	SignatureRef       string          `json:"signature_ref"`
	Notes              string          `json:"notes"`
	Operator           operatorRequest `json:"operator"`
}

func (s *Server) DeliverPackage(c *gin.Context) {
	id, err := parsePackageID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req deliverPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	pkg, err := s.parcelSvc.Transition(c.Request.Context(), id, parceldomain.StatusDelivered, req.Operator.toDomain(), parceldomain.TransitionPayload{
		PaymentMethod:      strings.TrimSpace(req.PaymentMethod),
		PaymentAmountCents: req.PaymentAmountCents,
		RecipientName:      strings.TrimSpace(req.RecipientName),
		SignatureRef:       strings.TrimSpace(req.SignatureRef),
		Notes:              strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pkg})
}

type cancelPackageRequest struct {
	Reason            string          `json:"reason"`
	RefundAmountCents int64           `json:"refund_amount_cents"`
	Notes             string          `json:"notes"`
	Operator          operatorRequest `json:"operator"`
}

func (s *Server) CancelPackage(c *gin.Context) {
	id, err := parsePackageID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req cancelPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	pkg, err := s.parcelSvc.Transition(c.Request.Context(), id, parceldomain.StatusCancelled, req.Operator.toDomain(), parceldomain.TransitionPayload{
		Reason:            strings.TrimSpace(req.Reason),
		RefundAmountCents: req.RefundAmountCents,
		Notes:             strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pkg})
}

func (s *Server) GetPackageHistory(c *gin.Context) {
	id, err := parsePackageID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	events, err := s.eventSvc.HistoryFor(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}

// TrackPackage is the unauthenticated lookup behind the link customers
// receive by SMS.
func (s *Server) TrackPackage(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))

	pkg, err := s.parcelSvc.GetByTrackingCode(c.Request.Context(), code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	timeline, err := s.eventSvc.Timeline(c.Request.Context(), code)
	switch {
	case errors.Is(err, eventdomain.ErrEventNotFound):
		// Packages announced before event logging existed have no rows;
		// show the announcement itself instead of an empty history.
		entry := eventdomain.TimelineEntry{
			Status:    string(parceldomain.StatusAnnounced),
			EventType: eventdomain.EventTypeAnnounced,
		}
		if pkg.AnnouncedAt != nil {
			entry.OccurredAt = *pkg.AnnouncedAt
		}
		timeline = []eventdomain.TimelineEntry{entry}
	case err != nil:
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"tracking_code":     pkg.TrackingCode,
		"status":            pkg.Status,
		"category":          pkg.Category,
		"total_fee_cents":   pkg.TotalFeeCents,
		"storage_fee_cents": pkg.StorageFeeCents,
		"currency":          pkg.Currency,
		"announced_at":      pkg.AnnouncedAt,
		"received_at":       pkg.ReceivedAt,
		"timeline":          timeline,
	}})
}

func parsePackageID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return 0, errInvalidRequest
	}
	return id, nil
}
