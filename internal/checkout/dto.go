package checkout

import (
	"github.com/google/uuid"

	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
	"github.com/itsriyaas/digitalcard-backend/pkg/types"
)

// Input carries everything needed to turn a cart into an order.
type Input struct {
	Customer        types.Customer      `json:"customer" validate:"required"`
	ShippingAddress types.Address       `json:"shipping_address" validate:"required"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method" validate:"required"`
	Notes           *string             `json:"notes" validate:"omitempty,max=500"`
}

// OrderPlacedEvent is queued through the outbox when checkout commits.
type OrderPlacedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	CatalogueID   uuid.UUID           `json:"catalogue_id"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail string              `json:"customer_email"`
	TotalCents    int64               `json:"total_cents"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
}
