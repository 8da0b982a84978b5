package domain

// Tier is the feature tier derived from an account's subscription status.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// ResolveTier maps subscription state to a feature tier. Only an active
// subscription grants Pro; none, past_due and canceled all resolve to Free.
func ResolveTier(a *Account) Tier {
	if a != nil && a.SubscriptionStatus == SubscriptionActive {
		return TierPro
	}
	return TierFree
}

// IsPro reports whether the account currently resolves to the Pro tier.
func (a *Account) IsPro() bool {
	return ResolveTier(a) == TierPro
}
