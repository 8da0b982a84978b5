package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"racelog/internal/adapter/repo"
	"racelog/internal/domain"
)

// accountplan sets an account's subscription status directly, bypassing the
// payment provider. Useful for support work and for local development where
// no Stripe webhook traffic arrives.
func main() {
	var (
		idFlag     string
		emailFlag  string
		statusFlag string
	)

	flag.StringVar(&idFlag, "id", "", "account ID to update (UUID)")
	flag.StringVar(&emailFlag, "email", "", "account email to update")
	flag.StringVar(&statusFlag, "status", "active", "subscription status to assign (none, active, past_due, canceled)")
	flag.Parse()

	accountID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	status := domain.SubscriptionStatus(strings.TrimSpace(strings.ToLower(statusFlag)))

	if accountID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	switch status {
	case domain.SubscriptionNone, domain.SubscriptionActive, domain.SubscriptionPastDue, domain.SubscriptionCanceled:
	default:
		exitWithError(fmt.Errorf("unsupported status %q", statusFlag))
	}

	_ = godotenv.Load()
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("connect database: %w", err))
	}
	defer pool.Close()

	accounts := repo.NewAccountRepository(pool)

	if accountID == "" {
		account, err := accounts.GetByEmail(ctx, email)
		if err != nil {
			exitWithError(fmt.Errorf("lookup account by email: %w", err))
		}
		accountID = account.ID
	}

	if err := accounts.SetSubscriptionStatus(ctx, accountID, status); err != nil {
		exitWithError(fmt.Errorf("set subscription status: %w", err))
	}

	fmt.Printf("account %s subscription status set to %s\n", accountID, status)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
