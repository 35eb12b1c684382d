package services

import (
	"context"
	"errors"
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

// reversesKey marks every entry of a reversal journal with the journal it
// reverses. Its presence also blocks reversing a reversal.
const reversesKey = "reversesJournalID"

var (
	ErrJournalMinEntries = errors.New("journal must have at least two entry lines")
	ErrJournalUnbalanced = errors.New("journal debit and credit totals are not equal")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountClosed     = errors.New("account is closed")
	ErrCurrencyMismatch  = errors.New("account currency does not match transaction currency")
)

// postingService implements the journal poster and the transaction query
// surface. It is the only writer of entries.
type postingService struct {
	accountSvc portssvc.AccountService
	entryRepo  portsrepo.EntryRepository
}

// NewPostingService creates a new PostingService.
func NewPostingService(entryRepo portsrepo.EntryRepository, accountSvc portssvc.AccountService) portssvc.PostingService {
	return &postingService{accountSvc: accountSvc, entryRepo: entryRepo}
}

var _ portssvc.PostingService = (*postingService)(nil)

// PostTransaction validates and atomically commits the request's lines as
// one balanced journal, replaying the original journal when the idempotency
// key was already used.
func (s *postingService) PostTransaction(ctx context.Context, tenantID string, req dto.PostTransactionRequest) (*domain.Journal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	effectiveDate, err := time.ParseInLocation(dto.DateLayout, req.EffectiveDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid effective date %q", apperrors.ErrValidation, req.EffectiveDate)
	}

	// A present key means the call may be a retry: return the prior result
	// unchanged without re-validating or re-applying.
	if req.IdempotencyKey != nil {
		journal, err := s.findByIdempotencyKey(ctx, tenantID, *req.IdempotencyKey)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		if journal != nil {
			logger.Info("Idempotent replay of existing journal",
				slog.String("tenant_id", tenantID),
				slog.String("journal_id", journal.JournalID))
			return journal, nil
		}
	}

	if len(req.Lines) < 2 {
		return nil, fmt.Errorf("%w: %w: got %d", apperrors.ErrValidation, ErrJournalMinEntries, len(req.Lines))
	}

	now := time.Now().UTC()
	journalID := uuid.NewString()
	entries := make([]domain.Entry, len(req.Lines))
	accountIDs := make([]string, 0, len(req.Lines))
	for i, line := range req.Lines {
		if line.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: entry amount must be strictly positive on line %d for account %s",
				apperrors.ErrValidation, i, line.AccountID)
		}
		if !line.Direction.IsValid() {
			return nil, fmt.Errorf("%w: unknown direction %q on line %d", apperrors.ErrValidation, line.Direction, i)
		}
		entries[i] = domain.Entry{
			EntryID:        uuid.NewString(),
			TenantID:       tenantID,
			JournalID:      journalID,
			LineNo:         i,
			AccountID:      line.AccountID,
			Amount:         line.Amount,
			Direction:      line.Direction,
			EffectiveDate:  effectiveDate,
			PostedAt:       now,
			IdempotencyKey: req.IdempotencyKey,
			Metadata:       line.Metadata,
		}
		accountIDs = append(accountIDs, line.AccountID)
	}

	if err := accounting.ValidateBalanced(entries); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", apperrors.ErrValidation, ErrJournalUnbalanced, err)
	}

	if err := s.validateAccounts(ctx, tenantID, accountIDs, currency.Normalize(req.Currency)); err != nil {
		return nil, err
	}

	return s.commit(ctx, tenantID, entries, req.IdempotencyKey)
}

// validateAccounts checks that every referenced account exists under the
// tenant, is open, and uses the transaction's currency.
func (s *postingService) validateAccounts(ctx context.Context, tenantID string, accountIDs []string, txnCurrency string) error {
	unique := uniqueStrings(accountIDs)
	accounts, err := s.accountSvc.GetAccountsByIDs(ctx, tenantID, unique)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts for posting: %w", err)
	}

	for _, id := range unique {
		acc, found := accounts[id]
		if !found {
			return fmt.Errorf("%w: %w: %s", apperrors.ErrNotFound, ErrAccountNotFound, id)
		}
		if !acc.IsOpen() {
			return fmt.Errorf("%w: %w: account %s", apperrors.ErrFailedPrecondition, ErrAccountClosed, id)
		}
		if acc.Currency != txnCurrency {
			return fmt.Errorf("%w: %w: account %s uses %s, transaction states %s",
				apperrors.ErrValidation, ErrCurrencyMismatch, id, acc.Currency, txnCurrency)
		}
	}
	return nil
}

// commit writes the journal atomically. When the write loses an
// idempotency-key race it re-reads and returns the winner's journal so
// concurrent duplicate submissions converge on one journal.
func (s *postingService) commit(ctx context.Context, tenantID string, entries []domain.Entry, idempotencyKey *string) (*domain.Journal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	err := s.entryRepo.SaveJournal(ctx, entries)
	if err != nil {
		if idempotencyKey != nil && errors.Is(err, apperrors.ErrDuplicate) {
			winner, lookupErr := s.findByIdempotencyKey(ctx, tenantID, *idempotencyKey)
			if lookupErr == nil && winner != nil {
				logger.Info("Lost idempotency-key race, returning winning journal",
					slog.String("tenant_id", tenantID),
					slog.String("journal_id", winner.JournalID))
				return winner, nil
			}
		}
		return nil, err
	}

	journal := domain.JournalFromEntries(entries)
	logger.Info("Journal committed",
		slog.String("tenant_id", tenantID),
		slog.String("journal_id", journal.JournalID),
		slog.Int("entry_count", len(entries)),
		slog.String("total_debit", journal.TotalDebit.String()))
	return &journal, nil
}

// findByIdempotencyKey returns the journal committed under the key, or
// (nil, apperrors.ErrNotFound).
func (s *postingService) findByIdempotencyKey(ctx context.Context, tenantID, key string) (*domain.Journal, error) {
	entries, err := s.entryRepo.FindJournalByIdempotencyKey(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}
	journal := domain.JournalFromEntries(entries)
	return &journal, nil
}

// ReverseTransaction posts a new journal that mirrors an existing one with
// flipped directions. History is never edited; the reversal is an ordinary
// append-only journal tagged with the original's ID.
func (s *postingService) ReverseTransaction(ctx context.Context, tenantID, journalID string, req dto.ReverseTransactionRequest) (*domain.Journal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.IdempotencyKey != nil {
		journal, err := s.findByIdempotencyKey(ctx, tenantID, *req.IdempotencyKey)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		if journal != nil {
			return journal, nil
		}
	}

	original, err := s.entryRepo.FindEntriesByJournalID(ctx, tenantID, journalID)
	if err != nil {
		return nil, err
	}

	for _, e := range original {
		if _, isReversal := e.Metadata[reversesKey]; isReversal {
			return nil, fmt.Errorf("%w: journal %s is itself a reversal", apperrors.ErrConflict, journalID)
		}
	}

	now := time.Now().UTC()
	newJournalID := uuid.NewString()
	reversing := make([]domain.Entry, len(original))
	accountIDs := make([]string, 0, len(original))
	for i, orig := range original {
		metadata := domain.Metadata{reversesKey: journalID}
		for k, v := range orig.Metadata {
			if k != reversesKey {
				metadata[k] = v
			}
		}
		reversing[i] = domain.Entry{
			EntryID:        uuid.NewString(),
			TenantID:       tenantID,
			JournalID:      newJournalID,
			LineNo:         i,
			AccountID:      orig.AccountID,
			Amount:         orig.Amount,
			Direction:      orig.Direction.Opposite(),
			EffectiveDate:  orig.EffectiveDate,
			PostedAt:       now,
			IdempotencyKey: req.IdempotencyKey,
			Metadata:       metadata,
		}
		accountIDs = append(accountIDs, orig.AccountID)
	}

	// The mirrored set balances by construction, but accounts may have been
	// closed since the original posting.
	unique := uniqueStrings(accountIDs)
	accounts, err := s.accountSvc.GetAccountsByIDs(ctx, tenantID, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts for reversal: %w", err)
	}
	for _, id := range unique {
		acc, found := accounts[id]
		if !found {
			return nil, fmt.Errorf("%w: %w: %s", apperrors.ErrNotFound, ErrAccountNotFound, id)
		}
		if !acc.IsOpen() {
			return nil, fmt.Errorf("%w: %w: account %s", apperrors.ErrFailedPrecondition, ErrAccountClosed, id)
		}
	}

	journal, err := s.commit(ctx, tenantID, reversing, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	logger.Info("Journal reversed",
		slog.String("tenant_id", tenantID),
		slog.String("original_journal_id", journalID),
		slog.String("reversing_journal_id", journal.JournalID))
	return journal, nil
}

// GetTransaction returns the journal holding all entries that share the
// given journal ID under the tenant.
func (s *postingService) GetTransaction(ctx context.Context, tenantID, journalID string) (*domain.Journal, error) {
	entries, err := s.entryRepo.FindEntriesByJournalID(ctx, tenantID, journalID)
	if err != nil {
		return nil, err
	}
	journal := domain.JournalFromEntries(entries)
	return &journal, nil
}

// ListTransactions returns a page of journals with their entries, ordered
// by effective date descending with a stable tiebreak.
func (s *postingService) ListTransactions(ctx context.Context, tenantID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	repoParams := portsrepo.ListJournalsParams{
		TenantID:  tenantID,
		AccountID: params.AccountID,
		Limit:     params.Limit,
		NextToken: params.NextToken,
	}
	if params.StartDate != nil {
		start, err := time.ParseInLocation(dto.DateLayout, *params.StartDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid start date %q", apperrors.ErrValidation, *params.StartDate)
		}
		repoParams.StartDate = &start
	}
	if params.EndDate != nil {
		end, err := time.ParseInLocation(dto.DateLayout, *params.EndDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid end date %q", apperrors.ErrValidation, *params.EndDate)
		}
		repoParams.EndDate = &end
	}

	journals, nextToken, err := s.entryRepo.ListJournals(ctx, repoParams)
	if err != nil {
		return nil, err
	}

	if len(journals) > 0 {
		journalIDs := make([]string, len(journals))
		for i, j := range journals {
			journalIDs[i] = j.JournalID
		}
		entriesByJournal, err := s.entryRepo.FindEntriesByJournalIDs(ctx, tenantID, journalIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch entries for journals: %w", err)
		}
		for i := range journals {
			journals[i] = domain.JournalFromEntries(entriesByJournal[journals[i].JournalID])
		}
	}

	responses := make([]dto.JournalResponse, len(journals))
	for i := range journals {
		responses[i] = dto.ToJournalResponse(&journals[i])
	}
	return &dto.ListTransactionsResponse{Journals: responses, NextToken: nextToken}, nil
}

// uniqueStrings returns the unique strings from the input, preserving order.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, s := range input {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			result = append(result, s)
		}
	}
	return result
}
