package service

import (
	"context"

	"github.com/spf13/viper"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"go.uber.org/zap"
)

// SessionCreator creates a checkout session with the payment provider and
// returns the redirect URL.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context) (string, error)
}

// StripeBilling is an opaque pass-through to Stripe checkout. The plan is
// implicit, configured server-side.
type StripeBilling struct{}

func NewStripeBilling() *StripeBilling {
	stripe.Key = viper.GetString("stripe.secret_key")
	return &StripeBilling{}
}

func (b *StripeBilling) CreateCheckoutSession(ctx context.Context) (string, error) {
	clientURL := viper.GetString("host.client_url")

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(viper.GetString("stripe.plan_name")),
					},
					UnitAmount: stripe.Int64(viper.GetInt64("stripe.plan_amount")),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(clientURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(clientURL),
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		zap.L().Error("Failed to create checkout session", zap.Error(err))
		return "", ErrBilling
	}

	return s.URL, nil
}
