package notify

import (
	"fmt"

	"github.com/babajiachar/storefront-api/internal/db"
)

// WhatsApp template names registered with the Business API.
const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplatePaymentOnline     = "payment_online"
	TemplatePaymentCOD        = "payment_cod"
	TemplateOrderDispatched   = "order_dispatched"
)

// TemplateParams builds the ordered body parameters for a template. The
// parameter order is fixed by the approved template definitions.
func TemplateParams(template string, o db.Order) ([]string, bool) {
	amount := fmt.Sprintf("%g", float64(o.TotalPaise)/100)
	switch template {
	case TemplateOrderConfirmation:
		return []string{o.CustomerName, o.ID, amount, o.Address}, true
	case TemplatePaymentOnline, TemplatePaymentCOD:
		return []string{o.ID, amount}, true
	case TemplateOrderDispatched:
		return []string{o.CustomerName, o.ID}, true
	}
	return nil, false
}

// FallbackText renders a plain-text message for channels without template
// support (SMS, email body).
func FallbackText(template string, o db.Order) string {
	amount := fmt.Sprintf("%g", float64(o.TotalPaise)/100)
	switch template {
	case TemplateOrderConfirmation:
		return fmt.Sprintf("Namaste %s! Your order %s of Rs %s is confirmed. Delivery to: %s",
			o.CustomerName, o.ID, amount, o.Address)
	case TemplatePaymentOnline:
		return fmt.Sprintf("Payment of Rs %s received for order %s. Dhanyavaad!", amount, o.ID)
	case TemplatePaymentCOD:
		return fmt.Sprintf("Order %s of Rs %s confirmed. Please keep cash ready on delivery.", o.ID, amount)
	case TemplateOrderDispatched:
		return fmt.Sprintf("Good news %s! Your order %s has been dispatched.", o.CustomerName, o.ID)
	}
	return ""
}

// Subject returns the email subject line for a template.
func Subject(template string, o db.Order) string {
	switch template {
	case TemplateOrderConfirmation:
		return "Order confirmed: " + o.ID
	case TemplatePaymentOnline:
		return "Payment received for " + o.ID
	case TemplatePaymentCOD:
		return "Order confirmed (COD): " + o.ID
	case TemplateOrderDispatched:
		return "Your order is on the way: " + o.ID
	}
	return "Update on your order " + o.ID
}
