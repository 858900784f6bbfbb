package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/outbox"
)

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// EventEmitter queues domain events inside the payment transaction.
type EventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Repository defines persistence operations for payment attempts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CaptureOnce(ctx context.Context, id uuid.UUID, gatewayPaymentID string) (bool, error)
}

// Service exposes the online payment flow.
type Service interface {
	CreatePayment(ctx context.Context, catalogueID, orderID uuid.UUID) (*PaymentIntent, error)
	VerifyPayment(ctx context.Context, catalogueID uuid.UUID, input VerifyInput) (*models.Order, error)
	FailPayment(ctx context.Context, catalogueID uuid.UUID, input FailInput) error
}
