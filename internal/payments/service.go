package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/internal/catalogues"
	"github.com/itsriyaas/digitalcard-backend/internal/orders"
	"github.com/itsriyaas/digitalcard-backend/pkg/config"
	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
	"github.com/itsriyaas/digitalcard-backend/pkg/outbox"
	"github.com/itsriyaas/digitalcard-backend/pkg/redis"
)

const verifyIdempotencyTTL = 24 * time.Hour

type service struct {
	tx         TxRunner
	repo       Repository
	orders     orders.Repository
	catalogues catalogues.Repository
	gateway    Gateway
	idem       redis.IdempotencyStore
	events     EventEmitter
	cfg        config.GatewayConfig
	logg       *logger.Logger
	now        func() time.Time
}

// NewService wires the payment service with its dependencies.
func NewService(
	tx TxRunner,
	repo Repository,
	orderRepo orders.Repository,
	catalogueRepo catalogues.Repository,
	gateway Gateway,
	idem redis.IdempotencyStore,
	events EventEmitter,
	cfg config.GatewayConfig,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if repo == nil {
		return nil, errors.New("payment repository is required")
	}
	if orderRepo == nil {
		return nil, errors.New("order repository is required")
	}
	if catalogueRepo == nil {
		return nil, errors.New("catalogue repository is required")
	}
	if gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if idem == nil {
		return nil, errors.New("idempotency store is required")
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
		orders:     orderRepo,
		catalogues: catalogueRepo,
		gateway:    gateway,
		idem:       idem,
		events:     events,
		cfg:        cfg,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// CreatePayment opens a gateway order for an unpaid online order.
func (s *service) CreatePayment(ctx context.Context, catalogueID, orderID uuid.UUID) (*PaymentIntent, error) {
	order, err := s.loadOrder(ctx, s.orders, catalogueID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != enums.PaymentMethodOnline {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is not payable online")
	}
	if order.PaymentStatus != enums.PaymentStatusPending || order.PaidAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already settled")
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, GatewayOrderInput{
		AmountCents: order.TotalCents,
		Currency:    s.cfg.Currency,
		Receipt:     order.OrderNumber,
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrder.ID,
		AmountCents:    order.TotalCents,
		Currency:       s.cfg.Currency,
		Status:         enums.PaymentStatusPending,
	}
	if _, err := s.repo.Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating payment")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":         order.ID.String(),
		"payment_id":       payment.ID.String(),
		"gateway_order_id": gatewayOrder.ID,
	})
	s.logg.Info(logCtx, "payment order opened")

	return &PaymentIntent{
		PaymentID:      payment.ID,
		GatewayOrderID: gatewayOrder.ID,
		GatewayKeyID:   s.cfg.KeyID,
		AmountCents:    order.TotalCents,
		Currency:       s.cfg.Currency,
	}, nil
}

// VerifyPayment settles an online payment after the gateway callback. A
// duplicate callback for the same gateway payment is a no-op that returns the
// already settled order.
func (s *service) VerifyPayment(ctx context.Context, catalogueID uuid.UUID, input VerifyInput) (*models.Order, error) {
	payment, err := s.repo.FindByGatewayOrderID(ctx, input.GatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment")
	}

	if !VerifySignature(s.cfg.KeySecret, input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		// A forged or garbled callback marks only the attempt; the order
		// stays pending so a legitimate retry can still settle it.
		updates := map[string]any{
			"status":         enums.PaymentStatusFailed,
			"failure_reason": "Invalid signature",
		}
		if err := s.repo.UpdateFields(ctx, payment.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording payment failure")
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment signature")
	}

	key := s.idem.IdempotencyKey("payment_verify", input.GatewayPaymentID)
	fresh, err := s.idem.SetNX(ctx, key, s.now().Unix(), verifyIdempotencyTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency check")
	}
	if !fresh {
		return s.loadOrder(ctx, s.orders, catalogueID, payment.OrderID)
	}

	var settled *models.Order
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		order, err := s.loadOrder(ctx, orderRepo, catalogueID, payment.OrderID)
		if err != nil {
			return err
		}

		captured, err := repo.CaptureOnce(ctx, payment.ID, input.GatewayPaymentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "capturing payment")
		}
		if !captured {
			settled = order
			return nil
		}

		flipped, err := orderRepo.MarkPaidOnce(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settling order")
		}
		if flipped {
			if err := s.catalogues.WithTx(tx).AddRevenue(ctx, order.CatalogueID, order.TotalCents); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "booking revenue")
			}
		}
		if order.Status == enums.OrderStatusPending {
			if err := orderRepo.UpdateFields(ctx, order.ID, map[string]any{"status": enums.OrderStatusConfirmed}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirming order")
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentCaptured,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Data: PaymentCapturedEvent{
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				CatalogueID:      order.CatalogueID,
				PaymentID:        payment.ID,
				GatewayPaymentID: input.GatewayPaymentID,
				AmountCents:      payment.AmountCents,
				CustomerEmail:    order.Customer.Email,
			},
			Version:    1,
			OccurredAt: s.now(),
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing payment event")
		}

		reloaded, err := orderRepo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
		}
		settled = reloaded
		return nil
	})
	if txErr != nil {
		// Release the idempotency key so the gateway retry can settle.
		if delErr := s.idem.Del(ctx, key); delErr != nil {
			s.logg.Warn(ctx, "releasing idempotency key failed")
		}
		return nil, txErr
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":   settled.ID.String(),
		"payment_id": payment.ID.String(),
	})
	s.logg.Info(logCtx, "payment captured")
	return settled, nil
}

// FailPayment records a declined or abandoned attempt.
func (s *service) FailPayment(ctx context.Context, catalogueID uuid.UUID, input FailInput) error {
	payment, err := s.repo.FindByGatewayOrderID(ctx, input.GatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment")
	}
	if payment.Status == enums.PaymentStatusCompleted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payment already captured")
	}

	reason := "payment failed"
	if input.Reason != nil && *input.Reason != "" {
		reason = *input.Reason
	}
	return s.recordFailure(ctx, catalogueID, payment, reason)
}

func (s *service) recordFailure(ctx context.Context, catalogueID uuid.UUID, payment *models.Payment, reason string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		order, err := s.loadOrder(ctx, orderRepo, catalogueID, payment.OrderID)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"status":         enums.PaymentStatusFailed,
			"failure_reason": reason,
		}
		if err := repo.UpdateFields(ctx, payment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording payment failure")
		}
		if order.PaymentStatus == enums.PaymentStatusPending {
			if err := orderRepo.UpdateFields(ctx, order.ID, map[string]any{"payment_status": enums.PaymentStatusFailed}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flagging order payment")
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Data: PaymentFailedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CatalogueID: order.CatalogueID,
				PaymentID:   payment.ID,
				Reason:      reason,
			},
			Version:    1,
			OccurredAt: s.now(),
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing failure event")
		}
		return nil
	})
}

func (s *service) loadOrder(ctx context.Context, repo orders.Repository, catalogueID, orderID uuid.UUID) (*models.Order, error) {
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
