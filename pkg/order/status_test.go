package order

import (
	"testing"

	"github.com/example/homelyeats/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  models.OrderStatus
		to    models.OrderStatus
		actor Actor
		want  bool
	}{
		{"system starts card payment", models.OrderStatusPending, models.OrderStatusProcessing, ActorSystem, true},
		{"system confirms cash order", models.OrderStatusPending, models.OrderStatusConfirmed, ActorSystem, true},
		{"system retries failed payment", models.OrderStatusPaymentFailed, models.OrderStatusProcessing, ActorSystem, true},
		{"system cannot mark paid", models.OrderStatusProcessing, models.OrderStatusPaid, ActorSystem, false},

		{"webhook marks paid", models.OrderStatusProcessing, models.OrderStatusPaid, ActorWebhook, true},
		{"webhook marks failed", models.OrderStatusProcessing, models.OrderStatusPaymentFailed, ActorWebhook, true},
		{"webhook replay of success", models.OrderStatusPaid, models.OrderStatusPaid, ActorWebhook, true},
		{"webhook cannot pay a pending order", models.OrderStatusPending, models.OrderStatusPaid, ActorWebhook, false},
		{"webhook cannot fail a paid order", models.OrderStatusPaid, models.OrderStatusPaymentFailed, ActorWebhook, false},

		{"admin fulfills cash order", models.OrderStatusConfirmed, models.OrderStatusPreparing, ActorAdmin, true},
		{"admin fulfills paid order", models.OrderStatusPaid, models.OrderStatusPreparing, ActorAdmin, true},
		{"admin dispatches", models.OrderStatusPreparing, models.OrderStatusOutForDelivery, ActorAdmin, true},
		{"admin delivers", models.OrderStatusOutForDelivery, models.OrderStatusDelivered, ActorAdmin, true},
		{"admin cancels processing order", models.OrderStatusProcessing, models.OrderStatusCancelled, ActorAdmin, true},
		{"admin cannot cancel paid order", models.OrderStatusPaid, models.OrderStatusCancelled, ActorAdmin, false},
		{"admin cannot cancel delivered order", models.OrderStatusDelivered, models.OrderStatusCancelled, ActorAdmin, false},
		{"customer-style cancel needs admin", models.OrderStatusPending, models.OrderStatusCancelled, ActorSystem, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to, tt.actor))
		})
	}
}

// Once an order is paid or delivered, nothing moves it back into the payment
// pipeline.
func TestTerminalStatesNeverRegress(t *testing.T) {
	actors := []Actor{ActorSystem, ActorWebhook, ActorAdmin}
	terminals := []models.OrderStatus{models.OrderStatusPaid, models.OrderStatusDelivered}
	regressions := []models.OrderStatus{models.OrderStatusPending, models.OrderStatusProcessing}

	for _, from := range terminals {
		for _, to := range regressions {
			for _, actor := range actors {
				assert.Falsef(t, CanTransition(from, to, actor),
					"%s must not move %s back to %s", actor, from, to)
			}
		}
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, models.OrderStatusDelivered.Terminal())
	assert.True(t, models.OrderStatusCancelled.Terminal())
	assert.False(t, models.OrderStatusPaid.Terminal())
	assert.False(t, models.OrderStatusPending.Terminal())
}
