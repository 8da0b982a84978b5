package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"racelog/internal/domain"
)

const maxWebhookBodyBytes = int64(65536)

type checkoutRequest struct {
	PriceID string `json:"priceId"`
}

// BillingCheckout handles POST /billing/checkout: it lazily provisions the
// payment-provider customer and returns the hosted checkout redirect URL.
func (a *App) BillingCheckout(w http.ResponseWriter, r *http.Request) {
	// A deleted account behind a still-valid token maps to 404 here, not
	// 401: there is no session problem, the checkout target is gone.
	caller, err := a.currentAccount(r)
	if errors.Is(err, domain.ErrUnauthenticated) {
		a.error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err != nil {
		a.serviceError(w, r, err, "User not found", "Failed to create checkout session")
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	redirect, err := a.Billing.StartUpgrade(r.Context(), caller, req.PriceID)
	if err != nil {
		a.serviceError(w, r, err, "User not found", "Failed to create checkout session")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"url": redirect})
}

// StripeWebhook handles POST /billing/webhook. The provider's signature is
// the only authentication on this route; subscription-state changes are
// reconciled onto the owning account.
func (a *App) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		a.error(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	event, err := a.Provider.VerifyWebhook(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		a.Logger.Warn().Err(err).Msg("stripe webhook rejected")
		a.error(w, http.StatusBadRequest, "Signature verification failed")
		return
	}
	if err := a.Billing.Reconcile(r.Context(), event); err != nil {
		a.serviceError(w, r, err, "User not found", "Failed to process event")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
