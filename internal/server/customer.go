package server

import (
	"net/http"
	"strings"

	customerdomain "github.com/elclub/paquetes/internal/customer/domain"
	"github.com/gin-gonic/gin"
)

// GetCustomerByPhone looks up a customer record the way the front desk
// does, by the phone number the package was announced under.
func (s *Server) GetCustomerByPhone(c *gin.Context) {
	phone := strings.TrimSpace(c.Param("phone"))
	if phone == "" {
		AbortWithError(c, errInvalidRequest)
		return
	}

	customer, err := s.customerRepo.FindByPhone(c.Request.Context(), s.db, phone)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if customer == nil {
		AbortWithError(c, customerdomain.ErrCustomerNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customer})
}
