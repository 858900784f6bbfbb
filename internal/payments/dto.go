package payments

import (
	"github.com/google/uuid"
)

// PaymentIntent is what the storefront needs to open the gateway widget.
type PaymentIntent struct {
	PaymentID      uuid.UUID `json:"payment_id"`
	GatewayOrderID string    `json:"gateway_order_id"`
	GatewayKeyID   string    `json:"gateway_key_id"`
	AmountCents    int64     `json:"amount_cents"`
	Currency       string    `json:"currency"`
}

// VerifyInput is the gateway callback payload after a successful payment.
type VerifyInput struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

// FailInput records an abandoned or declined payment attempt.
type FailInput struct {
	GatewayOrderID string  `json:"gateway_order_id" validate:"required"`
	Reason         *string `json:"reason" validate:"omitempty,max=500"`
}

// PaymentCapturedEvent is queued through the outbox once revenue is booked.
type PaymentCapturedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderNumber      string    `json:"order_number"`
	CatalogueID      uuid.UUID `json:"catalogue_id"`
	PaymentID        uuid.UUID `json:"payment_id"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	AmountCents      int64     `json:"amount_cents"`
	CustomerEmail    string    `json:"customer_email"`
}

// PaymentFailedEvent is queued when a payment attempt fails.
type PaymentFailedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CatalogueID uuid.UUID `json:"catalogue_id"`
	PaymentID   uuid.UUID `json:"payment_id"`
	Reason      string    `json:"reason,omitempty"`
}
