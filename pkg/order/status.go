package order

import (
	"github.com/example/homelyeats/pkg/models"
)

// Actor identifies who is asking for a status transition. The table below is
// the single authority on the order lifecycle; nobody writes a status without
// going through it.
type Actor string

const (
	// ActorSystem is the coordinator acting inside a customer request
	// (intent creation, cash selection, payment retry).
	ActorSystem Actor = "system"
	// ActorWebhook is a signature-verified processor notification.
	ActorWebhook Actor = "webhook"
	// ActorAdmin is the back office.
	ActorAdmin Actor = "admin"
)

type transition struct {
	from models.OrderStatus
	to   models.OrderStatus
}

var allowed = map[Actor]map[transition]bool{
	ActorSystem: {
		{models.OrderStatusPending, models.OrderStatusProcessing}: true,
		{models.OrderStatusPending, models.OrderStatusConfirmed}:  true,
		// A failed payment may be retried with a fresh intent.
		{models.OrderStatusPaymentFailed, models.OrderStatusProcessing}: true,
	},
	ActorWebhook: {
		{models.OrderStatusProcessing, models.OrderStatusPaid}:          true,
		{models.OrderStatusProcessing, models.OrderStatusPaymentFailed}: true,
		// At-least-once delivery: replaying a success is a legal no-op.
		{models.OrderStatusPaid, models.OrderStatusPaid}:                   true,
		{models.OrderStatusPaymentFailed, models.OrderStatusPaymentFailed}: true,
	},
	ActorAdmin: {
		{models.OrderStatusConfirmed, models.OrderStatusPreparing}:      true,
		{models.OrderStatusPaid, models.OrderStatusPreparing}:           true,
		{models.OrderStatusPreparing, models.OrderStatusOutForDelivery}: true,
		{models.OrderStatusOutForDelivery, models.OrderStatusDelivered}: true,
	},
}

// cancellable lists where an admin may cancel from. A captured payment is
// never cancelled here; refunds are out of scope.
var cancellable = map[models.OrderStatus]bool{
	models.OrderStatusPending:        true,
	models.OrderStatusProcessing:     true,
	models.OrderStatusPaymentFailed:  true,
	models.OrderStatusConfirmed:      true,
	models.OrderStatusPreparing:      true,
	models.OrderStatusOutForDelivery: true,
}

func CanTransition(from, to models.OrderStatus, actor Actor) bool {
	if to == models.OrderStatusCancelled {
		return actor == ActorAdmin && cancellable[from]
	}
	return allowed[actor][transition{from, to}]
}
