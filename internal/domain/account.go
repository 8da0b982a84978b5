package domain

import "time"

// SubscriptionStatus enumerates billing states reported by the payment provider.
type SubscriptionStatus string

const (
	SubscriptionNone     SubscriptionStatus = "none"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Account represents an authenticated user of the service.
type Account struct {
	ID                 string
	Email              string
	Name               *string
	StripeCustomerID   *string
	SubscriptionStatus SubscriptionStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
