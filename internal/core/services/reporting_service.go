package services

import (
	"context"
	"fmt"
	"time"

	"github.com/stonefin/ledger-engine/internal/apperrors"
	"github.com/stonefin/ledger-engine/internal/core/domain"
	portsrepo "github.com/stonefin/ledger-engine/internal/core/ports/repositories"
	portssvc "github.com/stonefin/ledger-engine/internal/core/ports/services"
	"github.com/stonefin/ledger-engine/internal/dto"
	"github.com/stonefin/ledger-engine/internal/utils/accounting"
)

// reportingService derives balances and statements from the entry store.
// Nothing here is cached; every answer is recomputed from committed entries.
type reportingService struct {
	accountRepo portsrepo.AccountRepository
	entryRepo   portsrepo.EntryRepository
}

// NewReportingService creates a new ReportingService.
func NewReportingService(accountRepo portsrepo.AccountRepository, entryRepo portsrepo.EntryRepository) portssvc.ReportingService {
	return &reportingService{accountRepo: accountRepo, entryRepo: entryRepo}
}

var _ portssvc.ReportingService = (*reportingService)(nil)

// GetBalance returns the account's balance under its normal-balance
// convention, optionally as of an effective date.
func (s *reportingService) GetBalance(ctx context.Context, tenantID, accountID string, asOf *time.Time) (*dto.BalanceResponse, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	totalDebit, totalCredit, err := s.entryRepo.SumAccountEntries(ctx, tenantID, accountID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to sum entries for account %s: %w", accountID, err)
	}

	resp := &dto.BalanceResponse{
		AccountID: account.AccountID,
		Currency:  account.Currency,
		Balance:   accounting.Balance(account.AccountType, totalDebit, totalCredit),
	}
	if asOf != nil {
		formatted := asOf.Format(dto.DateLayout)
		resp.AsOf = &formatted
	}
	return resp, nil
}

// GetStatement returns the account's entries inside the window with running
// balances. The opening balance covers everything strictly before the start
// date; the closing balance equals the last running balance, or the opening
// balance when the window is empty.
func (s *reportingService) GetStatement(ctx context.Context, tenantID, accountID string, start, end time.Time) (*domain.Statement, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: statement end date precedes start date", apperrors.ErrValidation)
	}

	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	// Effective dates are day-granular, so "strictly before start" is
	// "as of the previous day".
	dayBefore := start.AddDate(0, 0, -1)
	openingDebit, openingCredit, err := s.entryRepo.SumAccountEntries(ctx, tenantID, accountID, &dayBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to derive opening balance for account %s: %w", accountID, err)
	}
	opening := accounting.Balance(account.AccountType, openingDebit, openingCredit)

	entries, err := s.entryRepo.ListAccountEntriesInRange(ctx, tenantID, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for account %s: %w", accountID, err)
	}

	running := opening
	lines := make([]domain.StatementLine, len(entries))
	for i := range entries {
		signed, err := accounting.SignedAmount(entries[i].Amount, entries[i].Direction, account.AccountType)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", entries[i].EntryID, err)
		}
		running = running.Add(signed)
		lines[i] = domain.StatementLine{Entry: entries[i], RunningBalance: running}
	}

	return &domain.Statement{
		AccountID:      account.AccountID,
		StartDate:      start,
		EndDate:        end,
		OpeningBalance: opening,
		Lines:          lines,
		ClosingBalance: running,
	}, nil
}
