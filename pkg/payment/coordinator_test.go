package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/example/homelyeats/pkg/errs"
	"github.com/example/homelyeats/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockOrderStore struct {
	orders        map[string]*models.Order
	transitions   []string
	transitionErr error
}

func newMockOrderStore(orders ...*models.Order) *mockOrderStore {
	m := &mockOrderStore{orders: make(map[string]*models.Order)}
	for _, o := range orders {
		cp := *o
		m.orders[o.ID] = &cp
	}
	return m
}

func (m *mockOrderStore) GetOrder(_ context.Context, orderID string) (*models.Order, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, errs.NotFoundf("order %s", orderID)
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderStore) GetOrderByPaymentIntent(_ context.Context, intentID string) (*models.Order, error) {
	for _, o := range m.orders {
		if o.PaymentIntentID == intentID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, errs.NotFoundf("order for payment intent %s", intentID)
}

func (m *mockOrderStore) TransitionOrder(_ context.Context, orderID string, from, to models.OrderStatus, updates map[string]interface{}) (bool, error) {
	if m.transitionErr != nil {
		return false, m.transitionErr
	}
	o, ok := m.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	if v, ok := updates["payment_intent_id"]; ok {
		o.PaymentIntentID = v.(string)
	}
	if v, ok := updates["payment_method"]; ok {
		o.PaymentMethod = v.(models.PaymentMethod)
	}
	m.transitions = append(m.transitions, orderID+":"+string(from)+"->"+string(to))
	return true, nil
}

type mockProcessor struct {
	intent      *Intent
	err         error
	gotAmount   int64
	gotMetadata map[string]string
	calls       int
}

func (m *mockProcessor) CreateIntent(_ context.Context, amount int64, metadata map[string]string) (*Intent, error) {
	m.calls++
	m.gotAmount = amount
	m.gotMetadata = metadata
	if m.err != nil {
		return nil, m.err
	}
	return m.intent, nil
}

func (m *mockProcessor) ConstructEvent([]byte, string) (*Event, error) {
	return nil, errors.New("not used in tests")
}

type mockEventLog struct {
	kinds []string
}

func (m *mockEventLog) RecordPaymentEvent(_ context.Context, _, _, kind string, _ map[string]interface{}) error {
	m.kinds = append(m.kinds, kind)
	return nil
}

func pendingOrder() *models.Order {
	return &models.Order{ID: "o1", UserID: "u1", Status: models.OrderStatusPending, TotalAmount: 3200}
}

func newCoordinator(store *mockOrderStore, proc *mockProcessor) (*Coordinator, *mockEventLog) {
	log := &mockEventLog{}
	return NewCoordinator(store, proc, log, zap.NewNop()), log
}

func TestCreateIntent_Succeeds(t *testing.T) {
	store := newMockOrderStore(pendingOrder())
	proc := &mockProcessor{intent: &Intent{ID: "pi_123", ClientSecret: "cs_123"}}
	coord, log := newCoordinator(store, proc)

	intent, err := coord.CreateIntent(context.Background(), "u1", "o1", 3200)

	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "cs_123", intent.ClientSecret)
	// Minor units pass through untouched.
	assert.Equal(t, int64(3200), proc.gotAmount)
	// The order id must round-trip through intent metadata.
	assert.Equal(t, "o1", proc.gotMetadata["orderId"])

	ord := store.orders["o1"]
	assert.Equal(t, models.OrderStatusProcessing, ord.Status)
	assert.Equal(t, "pi_123", ord.PaymentIntentID)
	assert.Equal(t, models.PaymentMethodCard, ord.PaymentMethod)
	assert.Contains(t, log.kinds, "intent_created")
}

func TestCreateIntent_ZeroAmount(t *testing.T) {
	store := newMockOrderStore(pendingOrder())
	proc := &mockProcessor{}
	coord, _ := newCoordinator(store, proc)

	_, err := coord.CreateIntent(context.Background(), "u1", "o1", 0)

	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, 0, proc.calls)
	assert.Equal(t, models.OrderStatusPending, store.orders["o1"].Status)
}

func TestCreateIntent_AmountMismatch(t *testing.T) {
	store := newMockOrderStore(pendingOrder())
	coord, _ := newCoordinator(store, &mockProcessor{})

	_, err := coord.CreateIntent(context.Background(), "u1", "o1", 9999)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestCreateIntent_OwnershipAndExistence(t *testing.T) {
	store := newMockOrderStore(pendingOrder())
	coord, _ := newCoordinator(store, &mockProcessor{})

	_, err := coord.CreateIntent(context.Background(), "intruder", "o1", 3200)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = coord.CreateIntent(context.Background(), "u1", "missing", 3200)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateIntent_WrongStatus(t *testing.T) {
	ord := pendingOrder()
	ord.Status = models.OrderStatusPaid
	store := newMockOrderStore(ord)
	coord, _ := newCoordinator(store, &mockProcessor{})

	_, err := coord.CreateIntent(context.Background(), "u1", "o1", 3200)
	assert.ErrorIs(t, err, errs.ErrInvalidState)
}

// A processor failure must leave the order in pending so the customer can
// pick a payment method again; no automatic retry.
func TestCreateIntent_ProcessorFailureLeavesPending(t *testing.T) {
	store := newMockOrderStore(pendingOrder())
	proc := &mockProcessor{err: errs.ExternalServicef("stripe timeout")}
	coord, _ := newCoordinator(store, proc)

	_, err := coord.CreateIntent(context.Background(), "u1", "o1", 3200)

	assert.ErrorIs(t, err, errs.ErrExternalService)
	assert.Equal(t, models.OrderStatusPending, store.orders["o1"].Status)
	assert.Empty(t, store.orders["o1"].PaymentIntentID)
	assert.Equal(t, 1, proc.calls)
}

// payment_failed loops back through processing on retry.
func TestCreateIntent_RetryAfterFailure(t *testing.T) {
	ord := pendingOrder()
	ord.Status = models.OrderStatusPaymentFailed
	ord.PaymentIntentID = "pi_old"
	store := newMockOrderStore(ord)
	proc := &mockProcessor{intent: &Intent{ID: "pi_new", ClientSecret: "cs_new"}}
	coord, _ := newCoordinator(store, proc)

	intent, err := coord.CreateIntent(context.Background(), "u1", "o1", 3200)

	require.NoError(t, err)
	assert.Equal(t, "pi_new", intent.ID)
	assert.Equal(t, models.OrderStatusProcessing, store.orders["o1"].Status)
	// The new intent supersedes the failed one.
	assert.Equal(t, "pi_new", store.orders["o1"].PaymentIntentID)
}

func TestSelectCash(t *testing.T) {
	store := newMockOrderStore(pendingOrder())
	coord, log := newCoordinator(store, &mockProcessor{})

	ord, err := coord.SelectCash(context.Background(), "u1", "o1")

	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, ord.Status)
	assert.Equal(t, models.PaymentMethodCash, ord.PaymentMethod)
	assert.Contains(t, log.kinds, "cash_selected")

	// No external intent was minted.
	_, err = coord.SelectCash(context.Background(), "u1", "o1")
	assert.ErrorIs(t, err, errs.ErrInvalidState)
}

func processingOrder() *models.Order {
	return &models.Order{
		ID: "o1", UserID: "u1", Status: models.OrderStatusProcessing,
		TotalAmount: 3200, PaymentIntentID: "pi_123",
		PaymentMethod: models.PaymentMethodCard,
	}
}

func succeededEvent() *Event {
	return &Event{ID: "evt_1", Type: EventTypeIntentSucceeded, IntentID: "pi_123", OrderID: "o1"}
}

func TestHandleProcessorEvent_Succeeded(t *testing.T) {
	store := newMockOrderStore(processingOrder())
	coord, log := newCoordinator(store, &mockProcessor{})

	err := coord.HandleProcessorEvent(context.Background(), succeededEvent())

	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, store.orders["o1"].Status)
	assert.Contains(t, log.kinds, "webhook_applied")
}

// At-least-once delivery: the second application of the same success event
// must be a no-op, not an error.
func TestHandleProcessorEvent_IdempotentReplay(t *testing.T) {
	store := newMockOrderStore(processingOrder())
	coord, log := newCoordinator(store, &mockProcessor{})

	require.NoError(t, coord.HandleProcessorEvent(context.Background(), succeededEvent()))
	require.NoError(t, coord.HandleProcessorEvent(context.Background(), succeededEvent()))

	assert.Equal(t, models.OrderStatusPaid, store.orders["o1"].Status)
	// Applied exactly once; the replay is recorded as a duplicate.
	assert.Len(t, store.transitions, 1)
	assert.Contains(t, log.kinds, "webhook_duplicate")
}

func TestHandleProcessorEvent_Failed(t *testing.T) {
	store := newMockOrderStore(processingOrder())
	coord, _ := newCoordinator(store, &mockProcessor{})

	err := coord.HandleProcessorEvent(context.Background(), &Event{
		ID: "evt_2", Type: EventTypeIntentFailed, IntentID: "pi_123", OrderID: "o1",
	})

	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaymentFailed, store.orders["o1"].Status)
}

func TestHandleProcessorEvent_UnknownTypeIgnored(t *testing.T) {
	store := newMockOrderStore(processingOrder())
	coord, _ := newCoordinator(store, &mockProcessor{})

	err := coord.HandleProcessorEvent(context.Background(), &Event{ID: "evt_3", Type: "charge.refunded"})

	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, store.orders["o1"].Status)
	assert.Empty(t, store.transitions)
}

// An event for an order we cannot match is acknowledged and logged; retrying
// it can never succeed, so it must not bounce.
func TestHandleProcessorEvent_UnmatchedOrderAcknowledged(t *testing.T) {
	store := newMockOrderStore()
	coord, log := newCoordinator(store, &mockProcessor{})

	err := coord.HandleProcessorEvent(context.Background(), succeededEvent())

	require.NoError(t, err)
	assert.Contains(t, log.kinds, "webhook_unmatched")
}

// A stale failure arriving after the order was already paid must not regress
// the order.
func TestHandleProcessorEvent_StaleFailureAfterPaid(t *testing.T) {
	ord := processingOrder()
	ord.Status = models.OrderStatusPaid
	store := newMockOrderStore(ord)
	coord, log := newCoordinator(store, &mockProcessor{})

	err := coord.HandleProcessorEvent(context.Background(), &Event{
		ID: "evt_4", Type: EventTypeIntentFailed, IntentID: "pi_123", OrderID: "o1",
	})

	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, store.orders["o1"].Status)
	assert.Contains(t, log.kinds, "webhook_stale")
}

func TestHandleProcessorEvent_LookupByIntentFallback(t *testing.T) {
	store := newMockOrderStore(processingOrder())
	coord, _ := newCoordinator(store, &mockProcessor{})

	err := coord.HandleProcessorEvent(context.Background(), &Event{
		ID: "evt_5", Type: EventTypeIntentSucceeded, IntentID: "pi_123",
	})

	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, store.orders["o1"].Status)
}

func TestHandleProcessorEvent_StoreFailureIsRetriable(t *testing.T) {
	store := newMockOrderStore(processingOrder())
	store.transitionErr = errors.New("mysql down")
	coord, _ := newCoordinator(store, &mockProcessor{})

	err := coord.HandleProcessorEvent(context.Background(), succeededEvent())
	assert.Error(t, err)
}
