package models

import "strings"

// CheckoutSession is what the payment provider hands back for an order.
type CheckoutSession struct {
	OrderID     string `json:"orderId"`
	CheckoutURL string `json:"checkoutUrl"`
}

// WebhookRequest carries a provider callback exactly as it was received.
type WebhookRequest struct {
	Headers map[string]string
	Payload []byte
}

// Header looks a header up case-insensitively.
func (r WebhookRequest) Header(name string) string {
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// PaymentResult is a webhook reduced to the order it concerns and its new status.
type PaymentResult struct {
	OrderID string
	Status  PaymentStatus
}
