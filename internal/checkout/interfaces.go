package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/internal/cart"
	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/outbox"
)

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// EventEmitter queues domain events inside the checkout transaction.
type EventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service converts a cart into an order atomically.
type Service interface {
	Checkout(ctx context.Context, catalogueID uuid.UUID, identity cart.Identity, input Input) (*models.Order, error)
}
