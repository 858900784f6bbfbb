package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itsriyaas/digitalcard-backend/internal/cart"
	"github.com/itsriyaas/digitalcard-backend/internal/catalogues"
	"github.com/itsriyaas/digitalcard-backend/internal/coupons"
	"github.com/itsriyaas/digitalcard-backend/internal/orders"
	"github.com/itsriyaas/digitalcard-backend/internal/products"
	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
	"github.com/itsriyaas/digitalcard-backend/pkg/outbox"
)

type service struct {
	tx         TxRunner
	carts      cart.Repository
	products   products.Repository
	coupons    coupons.Repository
	orders     orders.Repository
	catalogues catalogues.Repository
	events     EventEmitter
	logg       *logger.Logger
	now        func() time.Time
}

// NewService wires the checkout orchestrator with its dependencies.
func NewService(
	tx TxRunner,
	carts cart.Repository,
	productRepo products.Repository,
	couponRepo coupons.Repository,
	orderRepo orders.Repository,
	catalogueRepo catalogues.Repository,
	events EventEmitter,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if carts == nil {
		return nil, errors.New("cart repository is required")
	}
	if productRepo == nil {
		return nil, errors.New("product repository is required")
	}
	if couponRepo == nil {
		return nil, errors.New("coupon repository is required")
	}
	if orderRepo == nil {
		return nil, errors.New("order repository is required")
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
		carts:      carts,
		products:   productRepo,
		coupons:    couponRepo,
		orders:     orderRepo,
		catalogues: catalogueRepo,
		events:     events,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// Checkout turns the identified cart into an order. Stock decrements, coupon
// usage, order rows, cart cleanup, catalogue counters and the outbox event
// all commit or roll back as one transaction.
func (s *service) Checkout(ctx context.Context, catalogueID uuid.UUID, identity cart.Identity, input Input) (*models.Order, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		placed, err := s.placeOrder(ctx, tx, catalogueID, identity, input)
		if err != nil {
			return err
		}
		order = placed
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"catalogue_id": catalogueID.String(),
		"total_cents":  order.TotalCents,
	})
	s.logg.Info(logCtx, "order placed")
	return order, nil
}

func (s *service) placeOrder(ctx context.Context, tx *gorm.DB, catalogueID uuid.UUID, identity cart.Identity, input Input) (*models.Order, error) {
	carts := s.carts.WithTx(tx)

	current, err := carts.FindWithItems(ctx, catalogueID, identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if len(current.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	subtotal, err := s.reserveStock(ctx, tx, catalogueID, current.Items)
	if err != nil {
		return nil, err
	}

	discount, couponCode, err := s.consumeCoupon(ctx, tx, current, subtotal)
	if err != nil {
		return nil, err
	}

	total := subtotal - discount
	if total < 0 {
		total = 0
	}

	now := s.now()
	orderNumber, err := NextOrderNumber(tx, catalogueID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocating order number")
	}

	order := &models.Order{
		CatalogueID:     catalogueID,
		OrderNumber:     orderNumber,
		UserID:          identity.UserID,
		SessionID:       identity.SessionID,
		Customer:        input.Customer,
		ShippingAddress: input.ShippingAddress,
		SubtotalCents:   subtotal,
		DiscountCents:   discount,
		CouponCode:      couponCode,
		TotalCents:      total,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   enums.PaymentStatusPending,
		Status:          enums.OrderStatusPending,
		Notes:           input.Notes,
		Items:           snapshotItems(current.Items),
	}
	if _, err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}

	if err := carts.ClearItems(ctx, current.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	reset := map[string]any{
		"coupon_id":      nil,
		"coupon_code":    nil,
		"subtotal_cents": 0,
		"discount_cents": 0,
		"total_cents":    0,
	}
	if err := carts.UpdateCart(ctx, current.ID, reset); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resetting cart")
	}

	if err := s.catalogues.WithTx(tx).RecordOrder(ctx, catalogueID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording catalogue order")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actorFor(identity),
		Data: OrderPlacedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			CatalogueID:   catalogueID,
			CustomerName:  input.Customer.Name,
			CustomerEmail: input.Customer.Email,
			TotalCents:    total,
			PaymentMethod: input.PaymentMethod,
		},
		Version:    1,
		OccurredAt: now,
	}
	if err := s.events.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing order event")
	}

	return order, nil
}

// reserveStock decrements stock per line and returns the cart subtotal. Each
// decrement is a conditional update, so a concurrent checkout racing for the
// same units makes exactly one of them fail here and roll back.
func unavailable(item models.CartItem, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).
		WithDetails(map[string]any{"product_id": item.ProductID})
}

func (s *service) reserveStock(ctx context.Context, tx *gorm.DB, catalogueID uuid.UUID, items []models.CartItem) (int64, error) {
	productRepo := s.products.WithTx(tx)

	var subtotal int64
	for _, item := range items {
		product, err := productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, unavailable(item, "product no longer available")
			}
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
		}
		if product.CatalogueID != catalogueID || !product.IsActive {
			return 0, unavailable(item, "product no longer available")
		}

		ok, err := productRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserving stock")
		}
		if !ok {
			return 0, pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock").
				WithDetails(map[string]any{
					"product_id": item.ProductID,
					"product":    product.Name,
					"requested":  item.Quantity,
					"available":  product.Stock,
				})
		}
		if item.Priced() {
			subtotal += *item.UnitPriceCents * int64(item.Quantity)
		}
	}
	return subtotal, nil
}

// consumeCoupon re-validates the applied coupon against the final subtotal
// and burns one use. A coupon that became invalid since it was applied fails
// the checkout rather than silently charging full price.
func (s *service) consumeCoupon(ctx context.Context, tx *gorm.DB, current *models.Cart, subtotal int64) (int64, *string, error) {
	if current.CouponID == nil {
		return 0, nil, nil
	}

	couponRepo := s.coupons.WithTx(tx)
	coupon, err := couponRepo.FindByID(ctx, *current.CouponID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil, pkgerrors.New(pkgerrors.CodeValidation, "applied coupon no longer exists")
		}
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
	}

	discount, err := coupons.Evaluate(coupon, subtotal, s.now())
	if err != nil {
		return 0, nil, err
	}

	ok, err := couponRepo.IncrementUsage(ctx, coupon.ID)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consuming coupon")
	}
	if !ok {
		return 0, nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon usage limit reached").
			WithDetails(map[string]any{"code": coupon.Code})
	}

	code := coupon.Code
	return discount, &code, nil
}

func validateInput(input Input) error {
	if field := input.Customer.Validate(); field != "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required customer field").
			WithDetails(map[string]any{"field": field})
	}
	if field := input.ShippingAddress.Validate(); field != "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required shipping address field").
			WithDetails(map[string]any{"field": field})
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	return nil
}

func snapshotItems(items []models.CartItem) []models.OrderItem {
	snapshots := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		snapshots = append(snapshots, models.OrderItem{
			ProductID:         item.ProductID,
			ProductName:       item.ProductName,
			UnitPriceCents:    item.UnitPriceCents,
			Quantity:          item.Quantity,
			LineSubtotalCents: item.LineSubtotalCents,
		})
	}
	return snapshots
}

func actorFor(identity cart.Identity) *outbox.ActorRef {
	actor := &outbox.ActorRef{
		UserID:    identity.UserID,
		SessionID: identity.SessionID,
	}
	if identity.UserID != nil {
		actor.Role = "customer"
	} else {
		actor.Role = "guest"
	}
	return actor
}
