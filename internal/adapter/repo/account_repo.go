package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"racelog/internal/domain"
)

const accountColumns = `id, email, name, stripe_customer_id, subscription_status, created_at, updated_at`

// AccountRepositoryPG implements domain.AccountRepository backed by PostgreSQL.
type AccountRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepositoryPG.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepositoryPG {
	return &AccountRepositoryPG{pool: pool}
}

// GetByID fetches an account by UUID.
func (r *AccountRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// GetByEmail fetches an account by its unique email.
func (r *AccountRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// ClaimStripeCustomerID assigns customerID unless a reference already exists.
// COALESCE makes the write a compare-and-set inside a single statement, so
// two racing upgrade attempts persist exactly one reference; the caller gets
// back whichever value won.
func (r *AccountRepositoryPG) ClaimStripeCustomerID(ctx context.Context, accountID, customerID string) (string, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE accounts
SET stripe_customer_id = COALESCE(stripe_customer_id, $2),
    updated_at = NOW()
WHERE id = $1
RETURNING stripe_customer_id;
`, accountID, customerID)

	var claimed string
	if err := row.Scan(&claimed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return claimed, nil
}

// SetSubscriptionStatusByCustomer reconciles provider-side subscription state
// onto the account holding the given customer reference.
func (r *AccountRepositoryPG) SetSubscriptionStatusByCustomer(ctx context.Context, stripeCustomerID string, status domain.SubscriptionStatus) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE accounts
SET subscription_status = $2,
    updated_at = NOW()
WHERE stripe_customer_id = $1;
`, stripeCustomerID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no account for stripe customer %s: %w", stripeCustomerID, domain.ErrNotFound)
	}
	return nil
}

// SetSubscriptionStatus sets the status directly by account id. Used by the
// accountplan CLI, not by the request path.
func (r *AccountRepositoryPG) SetSubscriptionStatus(ctx context.Context, accountID string, status domain.SubscriptionStatus) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE accounts
SET subscription_status = $2,
    updated_at = NOW()
WHERE id = $1;
`, accountID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &a.StripeCustomerID, &a.SubscriptionStatus, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
