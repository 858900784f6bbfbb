package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/internal/cart"
	"github.com/itsriyaas/digitalcard-backend/internal/catalogues"
	"github.com/itsriyaas/digitalcard-backend/internal/products"
	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
	"github.com/itsriyaas/digitalcard-backend/pkg/outbox"
	"github.com/itsriyaas/digitalcard-backend/pkg/pagination"
)

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// EventEmitter queues domain events inside the transition transaction.
type EventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	tx         TxRunner
	repo       Repository
	products   products.Repository
	catalogues catalogues.Repository
	events     EventEmitter
	logg       *logger.Logger
	now        func() time.Time
}

// NewService wires the order management service with its dependencies.
func NewService(
	tx TxRunner,
	repo Repository,
	productRepo products.Repository,
	catalogueRepo catalogues.Repository,
	events EventEmitter,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if repo == nil {
		return nil, errors.New("order repository is required")
	}
	if productRepo == nil {
		return nil, errors.New("product repository is required")
	}
	if catalogueRepo == nil {
		return nil, errors.New("catalogue repository is required")
	}
	if events == nil {
		return nil, errors.New("event emitter is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{
		tx:         tx,
		repo:       repo,
		products:   productRepo,
		catalogues: catalogueRepo,
		events:     events,
		logg:       logg,
		now:        time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, catalogueID, orderID uuid.UUID) (*models.Order, error) {
	return s.findOwned(ctx, s.repo, catalogueID, orderID)
}

// GetForBuyer returns the order only when it belongs to the asking buyer.
// Unowned orders read as not found so nothing leaks about their existence.
func (s *service) GetForBuyer(ctx context.Context, catalogueID uuid.UUID, identity cart.Identity, orderID uuid.UUID) (*models.Order, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	order, err := s.findOwned(ctx, s.repo, catalogueID, orderID)
	if err != nil {
		return nil, err
	}
	if !buyerOwns(order, identity) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, catalogueID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error) {
	list, err := s.repo.List(ctx, catalogueID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return list, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing user orders")
	}
	return list, nil
}

// UpdateStatus moves the order through the fulfillment state machine.
// Delivery settles cash-on-delivery payments; cancellation restores stock.
func (s *service) UpdateStatus(ctx context.Context, catalogueID, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.findOwned(ctx, repo, catalogueID, orderID)
		if err != nil {
			return err
		}
		if !CanTransition(order.Status, next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
				WithDetails(map[string]any{
					"from": order.Status,
					"to":   next,
				})
		}

		now := s.now()
		updates := map[string]any{"status": next}
		switch next {
		case enums.OrderStatusDelivered:
			updates["delivered_at"] = now
		case enums.OrderStatusCancelled:
			updates["cancelled_at"] = now
		}
		if err := repo.UpdateFields(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
		}

		switch next {
		case enums.OrderStatusDelivered:
			if err := s.settleCashOnDelivery(ctx, tx, repo, order); err != nil {
				return err
			}
		case enums.OrderStatusCancelled:
			if err := s.restoreStock(ctx, tx, order); err != nil {
				return err
			}
		}

		eventType := enums.EventOrderStatusChanged
		if next == enums.OrderStatusCancelled {
			eventType = enums.EventOrderCancelled
		}
		event := outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: StatusChangedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				CatalogueID:   order.CatalogueID,
				CustomerEmail: order.Customer.Email,
				From:          order.Status,
				To:            next,
				PaymentStatus: order.PaymentStatus,
			},
			Version:    1,
			OccurredAt: now,
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing status event")
		}

		reloaded, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
		}
		updated = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":     updated.ID.String(),
		"order_number": updated.OrderNumber,
		"status":       updated.Status,
	})
	s.logg.Info(logCtx, "order status updated")
	return updated, nil
}

// UpdatePaymentStatus is the manual payment reconciliation path, used when a
// merchant records an offline settlement or a refund.
func (s *service) UpdatePaymentStatus(ctx context.Context, catalogueID, orderID uuid.UUID, next enums.PaymentStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.findOwned(ctx, repo, catalogueID, orderID)
		if err != nil {
			return err
		}
		if !CanTransitionPayment(order.PaymentStatus, next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment status transition not allowed").
				WithDetails(map[string]any{
					"from": order.PaymentStatus,
					"to":   next,
				})
		}

		if next == enums.PaymentStatusCompleted {
			flipped, err := repo.MarkPaidOnce(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settling payment")
			}
			if flipped {
				if err := s.catalogues.WithTx(tx).AddRevenue(ctx, order.CatalogueID, order.TotalCents); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "booking revenue")
				}
				event := outbox.DomainEvent{
					EventType:     enums.EventPaymentCaptured,
					AggregateType: enums.AggregatePayment,
					AggregateID:   order.ID,
					Data: PaymentSettledEvent{
						OrderID:       order.ID,
						OrderNumber:   order.OrderNumber,
						CatalogueID:   order.CatalogueID,
						CustomerEmail: order.Customer.Email,
						PaymentStatus: next,
						AmountCents:   order.TotalCents,
					},
					Version:    1,
					OccurredAt: s.now(),
				}
				if err := s.events.Emit(ctx, tx, event); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing payment event")
				}
			}
		} else {
			if err := repo.UpdateFields(ctx, order.ID, map[string]any{"payment_status": next}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating payment status")
			}
		}

		reloaded, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
		}
		updated = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":       updated.ID.String(),
		"payment_status": updated.PaymentStatus,
	})
	s.logg.Info(logCtx, "order payment status updated")
	return updated, nil
}

// settleCashOnDelivery books revenue when a COD order is handed over. The
// paid_at guard in MarkPaidOnce keeps a repeated delivery update from double
// counting.
func (s *service) settleCashOnDelivery(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order) error {
	if order.PaymentMethod != enums.PaymentMethodCOD {
		return nil
	}
	flipped, err := repo.MarkPaidOnce(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settling payment")
	}
	if !flipped {
		return nil
	}
	if err := s.catalogues.WithTx(tx).AddRevenue(ctx, order.CatalogueID, order.TotalCents); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "booking revenue")
	}
	return nil
}

// restoreStock puts cancelled quantities back on the shelf. Coupon usage
// counts only ever move forward and stay untouched here.
func (s *service) restoreStock(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	productRepo := s.products.WithTx(tx)
	for _, item := range order.Items {
		if err := productRepo.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restoring stock")
		}
	}
	return nil
}

func buyerOwns(order *models.Order, identity cart.Identity) bool {
	if identity.UserID != nil && *identity.UserID != uuid.Nil {
		return order.UserID != nil && *order.UserID == *identity.UserID
	}
	if identity.SessionID != nil {
		return order.SessionID != nil && *order.SessionID == *identity.SessionID
	}
	return false
}

func (s *service) findOwned(ctx context.Context, repo Repository, catalogueID, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.CatalogueID != catalogueID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}
