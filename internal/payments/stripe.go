package payments

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProcessor creates card PaymentIntents through the Stripe API.
type StripeProcessor struct {
	sc *client.API
}

// NewStripeProcessor returns a processor using secretKey. backends may be nil
// to use the default Stripe endpoints.
func NewStripeProcessor(secretKey string, backends *stripe.Backends) *StripeProcessor {
	return &StripeProcessor{sc: client.New(secretKey, backends)}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	pi, err := p.sc.PaymentIntents.New(params)
	if err != nil {
		return "", err
	}
	return pi.ClientSecret, nil
}
