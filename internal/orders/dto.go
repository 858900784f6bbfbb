package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
)

// Filters describe the inputs supported by the order list.
type Filters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	PaymentMethod *enums.PaymentMethod
	DateFrom      *time.Time
	DateTo        *time.Time
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// StatusChangedEvent is queued through the outbox on every transition.
type StatusChangedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	CatalogueID   uuid.UUID           `json:"catalogue_id"`
	CustomerEmail string              `json:"customer_email"`
	From          enums.OrderStatus   `json:"from"`
	To            enums.OrderStatus   `json:"to"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
}

// PaymentSettledEvent is queued when a merchant marks an order paid by hand.
type PaymentSettledEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	CatalogueID   uuid.UUID           `json:"catalogue_id"`
	CustomerEmail string              `json:"customer_email"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	AmountCents   int64               `json:"amount_cents"`
}
