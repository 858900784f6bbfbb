package orders

import "github.com/itsriyaas/digitalcard-backend/pkg/enums"

// orderTransitions is the authoritative fulfillment state machine. Anything
// not listed is rejected with a state conflict. Cancellation stays open until
// the order reaches a terminal state.
var orderTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered:  {},
	enums.OrderStatusCancelled:  {},
}

// paymentTransitions mirrors the payment lifecycle. Refunds are representable
// even though no refund flow issues gateway calls yet.
var paymentTransitions = map[enums.PaymentStatus][]enums.PaymentStatus{
	enums.PaymentStatusPending:   {enums.PaymentStatusCompleted, enums.PaymentStatusFailed},
	enums.PaymentStatusCompleted: {enums.PaymentStatusRefunded},
	enums.PaymentStatusFailed:    {},
	enums.PaymentStatusRefunded:  {},
}

// CanTransition reports whether the fulfillment status may move from one
// state to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether the payment status may move from one
// state to another.
func CanTransitionPayment(from, to enums.PaymentStatus) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
