package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/webhook"

	"racelog/internal/domain"
	"racelog/internal/service"
)

// StripeProvider implements service.PaymentProvider using the Stripe API.
type StripeProvider struct {
	webhookSecret string
	appURL        string
}

// NewStripeProvider wires the Stripe API key and returns a provider that
// sends checkout traffic back to appURL.
func NewStripeProvider(apiKey, webhookSecret, appURL string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{
		webhookSecret: webhookSecret,
		appURL:        strings.TrimRight(appURL, "/"),
	}
}

// CreateCustomer creates a Stripe customer for the given account email.
func (p *StripeProvider) CreateCustomer(_ context.Context, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create stripe customer: %w", err)
	}
	return c.ID, nil
}

// CreateCheckoutSession starts a subscription-mode checkout session for the
// customer on the given price and returns the hosted checkout URL.
func (p *StripeProvider) CreateCheckoutSession(_ context.Context, customerID, priceID, accountID string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.appURL + "/dashboard?success=true"),
		CancelURL:  stripe.String(p.appURL + "/pricing"),
		Metadata: map[string]string{
			"userId": accountID,
		},
	}
	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create checkout session: %w", err)
	}
	return sess.URL, nil
}

// VerifyWebhook validates the Stripe signature and normalizes the event into
// a ProviderEvent. Event types that do not change subscription state come
// back with an empty Status so the caller can acknowledge and ignore them.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (*service.ProviderEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("billing: webhook signature verification: %w", err)
	}

	ev := &service.ProviderEvent{Type: string(event.Type)}
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("billing: decode checkout session: %w", err)
		}
		if sess.Customer != nil {
			ev.CustomerID = sess.Customer.ID
		}
		ev.Status = domain.SubscriptionActive
	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("billing: decode subscription: %w", err)
		}
		if sub.Customer != nil {
			ev.CustomerID = sub.Customer.ID
		}
		ev.Status = mapSubscriptionStatus(sub.Status)
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("billing: decode subscription: %w", err)
		}
		if sub.Customer != nil {
			ev.CustomerID = sub.Customer.ID
		}
		ev.Status = domain.SubscriptionCanceled
	default:
		// Acknowledged but carries no entitlement change.
	}
	return ev, nil
}

func mapSubscriptionStatus(status stripe.SubscriptionStatus) domain.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return domain.SubscriptionActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return domain.SubscriptionPastDue
	default:
		return domain.SubscriptionCanceled
	}
}

var _ service.PaymentProvider = (*StripeProvider)(nil)
