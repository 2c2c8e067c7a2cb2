package payment

import (
	"context"
	"errors"

	"github.com/example/homelyeats/pkg/errs"
	"github.com/example/homelyeats/pkg/models"
	"github.com/example/homelyeats/pkg/order"
	"go.uber.org/zap"
)

const (
	EventTypeIntentSucceeded = "payment_intent.succeeded"
	EventTypeIntentFailed    = "payment_intent.payment_failed"
)

// OrderStore is the slice of durable storage the coordinator needs. Every
// transition re-reads current status and writes compare-and-set; the order
// row is the single point of truth for payment state.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	GetOrderByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error)
	TransitionOrder(ctx context.Context, orderID string, from, to models.OrderStatus, updates map[string]interface{}) (bool, error)
}

// EventLog records payment activity for the back office; logging failures
// never fail the payment flow.
type EventLog interface {
	RecordPaymentEvent(ctx context.Context, orderID, intentID, kind string, detail map[string]interface{}) error
}

type Coordinator struct {
	store     OrderStore
	processor Processor
	events    EventLog
	logger    *zap.Logger
}

func NewCoordinator(store OrderStore, processor Processor, events EventLog, logger *zap.Logger) *Coordinator {
	return &Coordinator{store: store, processor: processor, events: events, logger: logger}
}

// CreateIntent requests a payment intent for the order's amount, links it to
// the order and advances the order to processing. If the processor call fails
// the order stays in pending so the customer can retry; no automatic retry.
func (c *Coordinator) CreateIntent(ctx context.Context, userID, orderID string, amount int64) (*Intent, error) {
	if amount <= 0 {
		return nil, errs.Validationf("amount must be positive")
	}

	ord, err := c.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.UserID != userID {
		return nil, errs.Unauthorizedf("order %s does not belong to requester", orderID)
	}
	if amount != ord.TotalAmount {
		return nil, errs.Validationf("amount %d does not match order total %d", amount, ord.TotalAmount)
	}
	if !order.CanTransition(ord.Status, models.OrderStatusProcessing, order.ActorSystem) {
		return nil, errs.InvalidStatef("order %s is %s, cannot start payment", orderID, ord.Status)
	}

	intent, err := c.processor.CreateIntent(ctx, amount, map[string]string{
		"orderId": orderID,
		"userId":  userID,
	})
	if err != nil {
		c.logger.Error("Payment intent creation failed",
			zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	ok, err := c.store.TransitionOrder(ctx, orderID, ord.Status, models.OrderStatusProcessing, map[string]interface{}{
		"payment_intent_id": intent.ID,
		"payment_method":    models.PaymentMethodCard,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.InvalidStatef("order %s changed concurrently, retry payment", orderID)
	}

	c.recordEvent(ctx, orderID, intent.ID, "intent_created", map[string]interface{}{
		"amount": amount,
	})

	c.logger.Info("Payment intent created",
		zap.String("order_id", orderID),
		zap.String("intent_id", intent.ID),
		zap.Int64("amount", amount))

	return intent, nil
}

// SelectCash confirms a cash-on-delivery order; no external intent exists and
// the full amount becomes due at the door.
func (c *Coordinator) SelectCash(ctx context.Context, userID, orderID string) (*models.Order, error) {
	ord, err := c.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.UserID != userID {
		return nil, errs.Unauthorizedf("order %s does not belong to requester", orderID)
	}
	if !order.CanTransition(ord.Status, models.OrderStatusConfirmed, order.ActorSystem) {
		return nil, errs.InvalidStatef("order %s is %s, cannot select cash payment", orderID, ord.Status)
	}

	ok, err := c.store.TransitionOrder(ctx, orderID, ord.Status, models.OrderStatusConfirmed, map[string]interface{}{
		"payment_method": models.PaymentMethodCash,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.InvalidStatef("order %s changed concurrently", orderID)
	}

	c.recordEvent(ctx, orderID, "", "cash_selected", nil)

	return c.store.GetOrder(ctx, orderID)
}

// VerifyEvent checks the webhook signature and parses the event. Callers must
// verify before acting on any payload.
func (c *Coordinator) VerifyEvent(payload []byte, sigHeader string) (*Event, error) {
	return c.processor.ConstructEvent(payload, sigHeader)
}

// HandleProcessorEvent reconciles order state from a verified webhook event.
// Delivery is at-least-once: replays of a success are no-ops, unknown event
// types are acknowledged and ignored, and an event referencing no known order
// is logged as an anomaly but still acknowledged so the processor does not
// retry forever. A non-nil return means the event genuinely could not be
// processed and the transport should report failure so delivery is retried.
func (c *Coordinator) HandleProcessorEvent(ctx context.Context, event *Event) error {
	switch event.Type {
	case EventTypeIntentSucceeded:
		return c.applyIntentResult(ctx, event, models.OrderStatusPaid)
	case EventTypeIntentFailed:
		return c.applyIntentResult(ctx, event, models.OrderStatusPaymentFailed)
	default:
		// Forward-compatible no-op.
		c.logger.Info("Ignoring unhandled processor event",
			zap.String("event_id", event.ID), zap.String("type", event.Type))
		return nil
	}
}

func (c *Coordinator) applyIntentResult(ctx context.Context, event *Event, to models.OrderStatus) error {
	ord, err := c.lookupOrder(ctx, event)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			c.logger.Error("Webhook references unknown order",
				zap.String("event_id", event.ID),
				zap.String("order_id", event.OrderID),
				zap.String("intent_id", event.IntentID))
			c.recordEvent(ctx, event.OrderID, event.IntentID, "webhook_unmatched", map[string]interface{}{
				"event_id": event.ID,
				"type":     event.Type,
			})
			return nil // acknowledge; retrying can never match
		}
		return err
	}

	if ord.Status == to {
		// Replay of an already applied event.
		c.recordEvent(ctx, ord.ID, event.IntentID, "webhook_duplicate", map[string]interface{}{
			"event_id": event.ID,
			"type":     event.Type,
		})
		return nil
	}

	if !order.CanTransition(ord.Status, to, order.ActorWebhook) {
		// E.g. a stale failure event arriving after a retry already paid the
		// order. Terminal states stay put; record and acknowledge.
		c.logger.Warn("Webhook event not applicable to current order status",
			zap.String("order_id", ord.ID),
			zap.String("status", ord.Status.String()),
			zap.String("type", event.Type))
		c.recordEvent(ctx, ord.ID, event.IntentID, "webhook_stale", map[string]interface{}{
			"event_id": event.ID,
			"type":     event.Type,
			"status":   ord.Status.String(),
		})
		return nil
	}

	updates := map[string]interface{}{}
	if to == models.OrderStatusPaid {
		updates["payment_method"] = models.PaymentMethodCard
	}
	ok, err := c.store.TransitionOrder(ctx, ord.ID, ord.Status, to, updates)
	if err != nil {
		return err
	}
	if !ok {
		// Lost a race; re-read and treat an identical outcome as success.
		cur, err := c.store.GetOrder(ctx, ord.ID)
		if err != nil {
			return err
		}
		if cur.Status != to {
			c.logger.Warn("Webhook transition lost race",
				zap.String("order_id", ord.ID),
				zap.String("status", cur.Status.String()),
				zap.String("wanted", to.String()))
			return nil
		}
	}

	c.recordEvent(ctx, ord.ID, event.IntentID, "webhook_applied", map[string]interface{}{
		"event_id": event.ID,
		"type":     event.Type,
		"status":   to.String(),
	})

	c.logger.Info("Order status reconciled from webhook",
		zap.String("order_id", ord.ID),
		zap.String("status", to.String()))
	return nil
}

func (c *Coordinator) lookupOrder(ctx context.Context, event *Event) (*models.Order, error) {
	if event.OrderID != "" {
		return c.store.GetOrder(ctx, event.OrderID)
	}
	if event.IntentID != "" {
		return c.store.GetOrderByPaymentIntent(ctx, event.IntentID)
	}
	return nil, errs.NotFoundf("event %s carries no order reference", event.ID)
}

func (c *Coordinator) recordEvent(ctx context.Context, orderID, intentID, kind string, detail map[string]interface{}) {
	if c.events == nil {
		return
	}
	if err := c.events.RecordPaymentEvent(ctx, orderID, intentID, kind, detail); err != nil {
		c.logger.Warn("Failed to record payment event",
			zap.String("order_id", orderID), zap.String("kind", kind), zap.Error(err))
	}
}
