package domain

import "testing"

func TestResolveTier(t *testing.T) {
	cases := []struct {
		status SubscriptionStatus
		want   Tier
	}{
		{SubscriptionActive, TierPro},
		{SubscriptionNone, TierFree},
		{SubscriptionPastDue, TierFree},
		{SubscriptionCanceled, TierFree},
		{SubscriptionStatus("garbage"), TierFree},
	}
	for _, tc := range cases {
		got := ResolveTier(&Account{SubscriptionStatus: tc.status})
		if got != tc.want {
			t.Fatalf("ResolveTier(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestResolveTierNilAccount(t *testing.T) {
	if got := ResolveTier(nil); got != TierFree {
		t.Fatalf("ResolveTier(nil) = %q, want %q", got, TierFree)
	}
}
