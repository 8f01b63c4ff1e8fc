package order

import (
	"context"
	"fmt"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pay settles an order: payment_status becomes paid, status becomes
// completed, and an immutable transaction with a receipt snapshot is
// recorded. The transaction amount is the order total at payment time.
func (s *Service) Pay(ctx context.Context, id string, method PaymentMethod) (*Transaction, error) {
	if !method.Valid() {
		return nil, &ValidationError{Field: "payment_method", Reason: fmt.Sprintf("unknown value %q", method)}
	}

	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.strict {
		if o.PaymentStatus == PaymentPaid {
			return nil, ErrAlreadyPaid
		}
		if !o.Status.CanTransition(StatusCompleted) {
			return nil, &TransitionError{From: o.Status, To: StatusCompleted}
		}
	}

	now := s.now().UTC()
	o.PaymentStatus = PaymentPaid
	o.PaymentMethod = method
	o.Status = StatusCompleted
	o.UpdatedAt = now

	t := &Transaction{
		ID:            uuid.New().String(),
		OrderID:       o.ID,
		Amount:        o.Total,
		PaymentMethod: method,
		Receipt: Receipt{
			OrderNumber:   o.OrderNumber,
			Items:         o.Items,
			Total:         o.Total,
			PaymentMethod: method,
			Timestamp:     now,
		},
		CreatedAt: now,
	}
	if err := s.orders.RecordPayment(ctx, o, t); err != nil {
		return nil, fmt.Errorf("record payment for %q: %w", id, err)
	}

	zctx.From(ctx).Info("Payment processed",
		zap.String("order_number", o.OrderNumber),
		zap.String("transaction_id", t.ID),
		zap.String("method", string(method)),
		zap.String("amount", t.Amount.String()),
	)
	return t, nil
}
