package domain

import "context"

// AccountRepository defines access methods for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	// ClaimStripeCustomerID persists customerID onto the account unless a
	// reference already exists, and returns whichever reference won. The
	// compare-and-set must be atomic so concurrent upgrade attempts never
	// persist two references.
	ClaimStripeCustomerID(ctx context.Context, accountID, customerID string) (string, error)
	SetSubscriptionStatusByCustomer(ctx context.Context, stripeCustomerID string, status SubscriptionStatus) error
	SetSubscriptionStatus(ctx context.Context, accountID string, status SubscriptionStatus) error
}

// RaceRepository defines persistence for race entries. Every lookup is scoped
// to the owning account: an id that exists under another owner behaves
// exactly like an absent id.
type RaceRepository interface {
	Insert(ctx context.Context, race *Race) error
	GetByID(ctx context.Context, ownerID, id string) (*Race, error)
	List(ctx context.Context, ownerID string, filter RaceFilter) ([]Race, error)
	Update(ctx context.Context, race *Race) error
	Delete(ctx context.Context, ownerID, id string) error
}
