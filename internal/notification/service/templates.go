package service

import (
	"regexp"

	"github.com/elclub/paquetes/internal/notification/domain"
)

const (
	TemplateStatusChanged = "package_status_changed"
	TemplatePaymentDue    = "payment_due"
	TemplateCustomMessage = "custom_message"
)

// defaultTemplateBodies back the template store so a fresh install can
// send messages before anyone has customized templates.
var defaultTemplateBodies = map[string]string{
	TemplateStatusChanged: "{company}: Hola {customer_name}, su paquete {tracking_code} (guia {guide_number}) ha sido {status}. Consulte {tracking_url}",
	TemplatePaymentDue:    "{company}: Hola {customer_name}, su paquete {tracking_code} tiene un saldo pendiente de {total} {currency}. Consulte {tracking_url}",
	TemplateCustomMessage: "{message}",
}

// DefaultTemplates exposes the stock bodies for seeding.
func DefaultTemplates() map[string]string {
	out := make(map[string]string, len(defaultTemplateBodies))
	for name, body := range defaultTemplateBodies {
		out[name] = body
	}
	return out
}

// templateNameFor maps lifecycle event types onto the shared
// status-changed template; payment due and custom messages keep their
// own.
func templateNameFor(eventType string) string {
	switch eventType {
	case domain.EventPaymentDue:
		return TemplatePaymentDue
	case domain.EventCustomMessage:
		return TemplateCustomMessage
	default:
		return TemplateStatusChanged
	}
}

var templateVarPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// renderTemplate substitutes {name} placeholders. Unresolved variables
// become empty strings so a cosmetic gap never blocks a delivery.
func renderTemplate(body string, vars map[string]string) string {
	return templateVarPattern.ReplaceAllStringFunc(body, func(match string) string {
		name := match[1 : len(match)-1]
		return vars[name]
	})
}
