package server

import (
	"net/http"
	"strings"
	"time"

	notifdomain "github.com/elclub/paquetes/internal/notification/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetNotificationStats(c *gin.Context) {
	var query struct {
		From string `form:"from"`
		To   string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -7)
	to := now

	if query.From != "" {
		parsed, err := time.Parse(time.RFC3339, query.From)
		if err != nil {
			AbortWithError(c, errInvalidRequest)
			return
		}
		from = parsed
	}
	if query.To != "" {
		parsed, err := time.Parse(time.RFC3339, query.To)
		if err != nil {
			AbortWithError(c, errInvalidRequest)
			return
		}
		to = parsed
	}

	stats, err := s.notifSvc.Stats(c.Request.Context(), from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

type bulkSendRequest struct {
	EventType  string            `json:"event_type"`
	Recipients []string          `json:"recipients"`
	Variables  map[string]string `json:"variables"`
}

func (s *Server) BulkSendNotification(c *gin.Context) {
	var req bulkSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}
	if len(req.Recipients) == 0 {
		AbortWithError(c, notifdomain.ErrNoRecipient)
		return
	}

	eventType := strings.TrimSpace(req.EventType)
	if eventType == "" {
		eventType = notifdomain.EventCustomMessage
	}

	result, err := s.notifSvc.DispatchBulk(c.Request.Context(), eventType, req.Recipients, req.Variables, s.cfg.SMSTestMode)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

type testSendRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

// TestSendNotification exercises the full render and dispatch path
// without touching the real provider or spending credit.
func (s *Server) TestSendNotification(c *gin.Context) {
	var req testSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	variables := map[string]string{
		"message": strings.TrimSpace(req.Message),
		"company": s.cfg.CompanyName,
	}
	if variables["message"] == "" {
		variables["message"] = "Mensaje de prueba"
	}

	result, err := s.notifSvc.DispatchBulk(c.Request.Context(), notifdomain.EventCustomMessage, []string{req.Recipient}, variables, true)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

type deliveryCallbackRequest struct {
	ProviderMessageID string `json:"message_id"`
	Status            string `json:"status"`
}

// NotificationDeliveryCallback receives provider delivery receipts.
// Only confirmed deliveries change state; other statuses are ignored.
func (s *Server) NotificationDeliveryCallback(c *gin.Context) {
	var req deliveryCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}
	if strings.TrimSpace(req.ProviderMessageID) == "" {
		AbortWithError(c, errInvalidRequest)
		return
	}

	if !strings.EqualFold(strings.TrimSpace(req.Status), "delivered") {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"updated": false}})
		return
	}

	if err := s.notifSvc.MarkDelivered(c.Request.Context(), strings.TrimSpace(req.ProviderMessageID)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"updated": true}})
}
