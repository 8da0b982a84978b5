package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"racelog/internal/domain"
)

// ProviderEvent is a payment-provider callback normalized to the domain. A
// zero Status means the event carries no subscription-state change and is
// acknowledged without effect.
type ProviderEvent struct {
	Type       string
	CustomerID string
	Status     domain.SubscriptionStatus
}

// PaymentProvider abstracts the payment processor. The Stripe implementation
// lives in internal/billing.
type PaymentProvider interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID, priceID, accountID string) (string, error)
	VerifyWebhook(payload []byte, signature string) (*ProviderEvent, error)
}

// BillingService bridges accounts to the payment provider: it lazily assigns
// the external customer reference and starts checkout sessions. Subscription
// state flows back in through Reconcile, driven by the webhook handler.
type BillingService struct {
	accounts domain.AccountRepository
	provider PaymentProvider
	logger   zerolog.Logger
}

// NewBillingService creates a BillingService.
func NewBillingService(accounts domain.AccountRepository, provider PaymentProvider, logger zerolog.Logger) *BillingService {
	return &BillingService{accounts: accounts, provider: provider, logger: logger}
}

// EnsureCustomer returns the account's external customer reference, creating
// one on first use. The reference is persisted with a compare-and-set, so two
// concurrent calls persist exactly one id; the loser's freshly created
// customer is abandoned and the winning reference returned to both.
func (s *BillingService) EnsureCustomer(ctx context.Context, account *domain.Account) (string, error) {
	if account == nil {
		return "", domain.ErrUnauthenticated
	}
	if account.StripeCustomerID != nil && *account.StripeCustomerID != "" {
		return *account.StripeCustomerID, nil
	}

	name := ""
	if account.Name != nil {
		name = *account.Name
	}
	created, err := s.provider.CreateCustomer(ctx, account.Email, name)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}

	claimed, err := s.accounts.ClaimStripeCustomerID(ctx, account.ID, created)
	if err != nil {
		return "", fmt.Errorf("persist customer reference: %w", err)
	}
	if claimed != created {
		s.logger.Warn().
			Str("account_id", account.ID).
			Str("abandoned_customer", created).
			Msg("lost customer-reference race, reusing persisted reference")
	}
	account.StripeCustomerID = &claimed
	return claimed, nil
}

// StartUpgrade creates a checkout session for the given price and returns the
// redirect URL.
func (s *BillingService) StartUpgrade(ctx context.Context, account *domain.Account, priceID string) (string, error) {
	if account == nil {
		return "", domain.ErrUnauthenticated
	}
	if priceID == "" {
		return "", domain.NewValidationError("priceId", "Price ID is required")
	}

	customerID, err := s.EnsureCustomer(ctx, account)
	if err != nil {
		return "", err
	}
	redirect, err := s.provider.CreateCheckoutSession(ctx, customerID, priceID, account.ID)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return redirect, nil
}

// Reconcile applies a provider event to the owning account's subscription
// status. Events without a state change are ignored; an unknown customer is
// logged and acknowledged so the provider does not retry forever.
func (s *BillingService) Reconcile(ctx context.Context, ev *ProviderEvent) error {
	if ev == nil || ev.Status == "" {
		return nil
	}
	if ev.CustomerID == "" {
		return fmt.Errorf("provider event %s missing customer id", ev.Type)
	}
	err := s.accounts.SetSubscriptionStatusByCustomer(ctx, ev.CustomerID, ev.Status)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn().
			Str("event", ev.Type).
			Str("customer", ev.CustomerID).
			Msg("provider event for unknown customer")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconcile subscription status: %w", err)
	}
	s.logger.Info().
		Str("event", ev.Type).
		Str("customer", ev.CustomerID).
		Str("status", string(ev.Status)).
		Msg("subscription status reconciled")
	return nil
}
