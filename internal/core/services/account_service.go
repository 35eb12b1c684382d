package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stonefin/ledger-engine/internal/apperrors"
	"github.com/stonefin/ledger-engine/internal/core/domain"
	portsrepo "github.com/stonefin/ledger-engine/internal/core/ports/repositories"
	portssvc "github.com/stonefin/ledger-engine/internal/core/ports/services"
	"github.com/stonefin/ledger-engine/internal/dto"
	"github.com/stonefin/ledger-engine/internal/middleware"
	"github.com/stonefin/ledger-engine/internal/utils/accounting"
	"github.com/stonefin/ledger-engine/internal/utils/currency"
)

// accountService implements the account registry on top of the account and
// entry repositories. Balances surfaced here are always derived from posted
// entries, never cached.
type accountService struct {
	accountRepo portsrepo.AccountRepository
	entryRepo   portsrepo.EntryRepository
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepository, entryRepo portsrepo.EntryRepository) portssvc.AccountService {
	return &accountService{accountRepo: accountRepo, entryRepo: entryRepo}
}

var _ portssvc.AccountService = (*accountService)(nil)

// CreateAccount registers a new account after validating its type and
// currency.
func (s *accountService) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.AccountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, req.AccountType)
	}
	code := currency.Normalize(req.Currency)
	if !currency.IsValid(code) {
		return nil, fmt.Errorf("%w: %q is not a recognized ISO 4217 currency", apperrors.ErrValidation, req.Currency)
	}
	if req.AccountCode == "" {
		return nil, fmt.Errorf("%w: account code is required", apperrors.ErrValidation)
	}

	account := domain.Account{
		AccountID:     uuid.NewString(),
		TenantID:      tenantID,
		AccountType:   req.AccountType,
		AccountCode:   req.AccountCode,
		Currency:      code,
		AllowNegative: req.AllowNegative,
		Metadata:      req.Metadata,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Warn("Failed to save account",
			slog.String("tenant_id", tenantID),
			slog.String("account_code", req.AccountCode),
			slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Account created",
		slog.String("tenant_id", tenantID),
		slog.String("account_id", account.AccountID),
		slog.String("account_code", account.AccountCode))
	return &account, nil
}

// GetAccount returns the account and its current derived balance.
func (s *accountService) GetAccount(ctx context.Context, tenantID, accountID string) (*domain.Account, decimal.Decimal, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	totalDebit, totalCredit, err := s.entryRepo.SumAccountEntries(ctx, tenantID, accountID, nil)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to derive balance for account %s: %w", accountID, err)
	}

	return account, accounting.Balance(account.AccountType, totalDebit, totalCredit), nil
}

// GetAccountsByIDs batch-fetches accounts for posting validation.
func (s *accountService) GetAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	return s.accountRepo.FindAccountsByIDs(ctx, tenantID, accountIDs)
}

// ListAccounts returns a page of accounts in creation order.
func (s *accountService) ListAccounts(ctx context.Context, tenantID string, params dto.ListAccountsParams) (*dto.ListAccountsResponse, error) {
	accounts, nextToken, err := s.accountRepo.ListAccounts(ctx, portsrepo.ListAccountsParams{
		TenantID:    tenantID,
		AccountType: params.AccountType,
		Currency:    params.Currency,
		Limit:       params.Limit,
		NextToken:   params.NextToken,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = dto.ToAccountResponse(&accounts[i])
	}
	return &dto.ListAccountsResponse{Accounts: responses, NextToken: nextToken}, nil
}

// CloseAccount soft-closes an account so no further entries may reference
// it. Historical entries and balances are preserved.
func (s *accountService) CloseAccount(ctx context.Context, tenantID, accountID string, force bool) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, balance, err := s.GetAccount(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsOpen() {
		return nil, fmt.Errorf("%w: account %s is already closed", apperrors.ErrFailedPrecondition, accountID)
	}
	if !balance.IsZero() && !force {
		return nil, fmt.Errorf("%w: account %s carries a balance of %s; close with force to override",
			apperrors.ErrFailedPrecondition, accountID, balance.String())
	}

	closedAt := time.Now().UTC()
	if err := s.accountRepo.CloseAccount(ctx, tenantID, accountID, closedAt); err != nil {
		return nil, err
	}

	logger.Info("Account closed",
		slog.String("tenant_id", tenantID),
		slog.String("account_id", accountID),
		slog.Bool("forced", force))
	account.ClosedAt = &closedAt
	return account, nil
}
