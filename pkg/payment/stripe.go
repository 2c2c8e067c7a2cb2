package payment

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/example/homelyeats/pkg/config"
	"github.com/example/homelyeats/pkg/errs"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Intent is the processor's handle for an in-progress payment attempt. The
// client secret goes back to the browser; the id is persisted on the order.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Event is a verified processor notification. OrderID round-trips through the
// intent metadata from creation to webhook.
type Event struct {
	ID       string
	Type     string
	IntentID string
	OrderID  string
}

// Processor is the slice of the payment provider the coordinator depends on.
type Processor interface {
	CreateIntent(ctx context.Context, amount int64, metadata map[string]string) (*Intent, error)
	ConstructEvent(payload []byte, sigHeader string) (*Event, error)
}

type StripeClient struct {
	api           *client.API
	webhookSecret string
	currency      string
}

func NewStripeClient(cfg *config.StripeConfig) *StripeClient {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeClient{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
	}
}

// CreateIntent mints a payment intent for amount in minor units. The amount
// is passed through unchanged; this codebase never multiplies by 100.
func (c *StripeClient) CreateIntent(ctx context.Context, amount int64, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(c.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, errs.ExternalServicef("stripe create intent: %v", err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ConstructEvent verifies the webhook signature and extracts the fields the
// coordinator cares about. Nothing in the payload is trusted before the
// signature check passes.
func (c *StripeClient) ConstructEvent(payload []byte, sigHeader string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return nil, errs.Signaturef("stripe webhook: %v", err)
	}

	out := &Event{
		ID:   event.ID,
		Type: string(event.Type),
	}
	if strings.HasPrefix(out.Type, "payment_intent.") {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, errs.ExternalServicef("stripe webhook payload: %v", err)
		}
		out.IntentID = pi.ID
		out.OrderID = pi.Metadata["orderId"]
	}
	return out, nil
}
