package server

import (
	"errors"
	"net/http"

	customerdomain "github.com/elclub/paquetes/internal/customer/domain"
	eventdomain "github.com/elclub/paquetes/internal/event/domain"
	notifdomain "github.com/elclub/paquetes/internal/notification/domain"
	parceldomain "github.com/elclub/paquetes/internal/parcel/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware translates domain sentinel errors into HTTP
// responses after the handler runs. Handlers attach errors with
// AbortWithError instead of writing statuses themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

var errInvalidRequest = errors.New("invalid_request")

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, parceldomain.ErrPackageNotFound),
		errors.Is(err, customerdomain.ErrCustomerNotFound),
		errors.Is(err, eventdomain.ErrEventNotFound),
		errors.Is(err, notifdomain.ErrNotificationNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: err.Error()}

	case errors.Is(err, parceldomain.ErrInvalidTransition),
		errors.Is(err, parceldomain.ErrGuideNumberTaken),
		errors.Is(err, parceldomain.ErrNoFreeSlot):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: err.Error()}

	case errors.Is(err, parceldomain.ErrMissingRequiredField),
		errors.Is(err, customerdomain.ErrInvalidPhone),
		errors.Is(err, notifdomain.ErrNoRecipient),
		errors.Is(err, notifdomain.ErrInvalidRecipient),
		errors.Is(err, notifdomain.ErrTemplateNotFound),
		errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest, errorPayload{Type: "validation_error", Message: err.Error()}

	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}
}
