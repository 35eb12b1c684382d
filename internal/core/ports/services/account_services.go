package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/stonefin/ledger-engine/internal/core/domain"
	"github.com/stonefin/ledger-engine/internal/dto"
)

// AccountService owns account identity, type, currency and lifecycle.
type AccountService interface {
	// CreateAccount registers a new account. Fails with
	// apperrors.ErrValidation for an unknown type or currency and
	// apperrors.ErrDuplicate when (tenant, account_code) collides.
	CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest) (*domain.Account, error)

	// GetAccount returns the account and its current derived balance.
	GetAccount(ctx context.Context, tenantID, accountID string) (*domain.Account, decimal.Decimal, error)

	// GetAccountsByIDs batch-fetches accounts for posting validation.
	GetAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts returns accounts in creation order, filtered
	// conjunctively by type and currency.
	ListAccounts(ctx context.Context, tenantID string, params dto.ListAccountsParams) (*dto.ListAccountsResponse, error)

	// CloseAccount soft-closes an account. Unless force is set, a nonzero
	// balance fails with apperrors.ErrFailedPrecondition.
	CloseAccount(ctx context.Context, tenantID, accountID string, force bool) (*domain.Account, error)
}
