package repositories

import (
	"context"
	"time"

	"github.com/stonefin/ledger-engine/internal/core/domain"
)

// ListAccountsParams holds the filters and cursor for listing accounts.
// Filters are conjunctive; nil means "no filter".
type ListAccountsParams struct {
	TenantID    string
	AccountType *domain.AccountType
	Currency    *string
	Limit       int
	NextToken   *string
}

// AccountRepository persists the account registry.
type AccountRepository interface {
	// SaveAccount inserts a new account. Returns apperrors.ErrDuplicate when
	// (tenant_id, account_code) collides.
	SaveAccount(ctx context.Context, account domain.Account) error

	// FindAccountByID retrieves an account scoped to a tenant. A tenant
	// mismatch is reported as apperrors.ErrNotFound.
	FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts scoped to a tenant.
	// Missing IDs are simply absent from the map.
	FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts returns a page of accounts in creation order together
	// with the cursor for the next page (nil when exhausted).
	ListAccounts(ctx context.Context, params ListAccountsParams) ([]domain.Account, *string, error)

	// CloseAccount sets closed_at on an open account. Returns
	// apperrors.ErrNotFound for unknown accounts and
	// apperrors.ErrFailedPrecondition when the account is already closed.
	CloseAccount(ctx context.Context, tenantID, accountID string, closedAt time.Time) error
}
