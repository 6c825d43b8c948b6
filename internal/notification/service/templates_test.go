package service

import (
	"testing"

	"github.com/elclub/paquetes/internal/notification/domain"
	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	body := "{company}: paquete {tracking_code} {status}"
	out := renderTemplate(body, map[string]string{
		"company":       "PAQUETES EL CLUB",
		"tracking_code": "AB2C",
		"status":        "recibido en bodega",
	})
	assert.Equal(t, "PAQUETES EL CLUB: paquete AB2C recibido en bodega", out)
}

func TestRenderTemplate_UnresolvedVariablesBecomeEmpty(t *testing.T) {
	out := renderTemplate("hola {customer_name}, saldo {total}", map[string]string{
		"customer_name": "Maria",
	})
	assert.Equal(t, "hola Maria, saldo ", out)
}

func TestRenderTemplate_LeavesMalformedBracesAlone(t *testing.T) {
	out := renderTemplate("literal {not closed and {x}", map[string]string{"x": "y"})
	assert.Equal(t, "literal {not closed and y", out)
}

func TestTemplateNameFor(t *testing.T) {
	assert.Equal(t, TemplateStatusChanged, templateNameFor(domain.EventPackageAnnounced))
	assert.Equal(t, TemplateStatusChanged, templateNameFor(domain.EventPackageReceived))
	assert.Equal(t, TemplateStatusChanged, templateNameFor(domain.EventPackageDelivered))
	assert.Equal(t, TemplateStatusChanged, templateNameFor(domain.EventPackageCancelled))
	assert.Equal(t, TemplatePaymentDue, templateNameFor(domain.EventPaymentDue))
	assert.Equal(t, TemplateCustomMessage, templateNameFor(domain.EventCustomMessage))
}
