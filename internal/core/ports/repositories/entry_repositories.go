package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stonefin/ledger-engine/internal/core/domain"
)

// ListJournalsParams holds the filters and cursor for listing journals.
type ListJournalsParams struct {
	TenantID  string
	AccountID *string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	NextToken *string
}

// EntryRepository persists the append-only entry store. Entries are written
// once by SaveJournal and never mutated.
type EntryRepository interface {
	// SaveJournal atomically commits all entries of one journal. Inside a
	// single database transaction it locks the referenced accounts, verifies
	// they are still open, re-derives their balances, enforces the
	// negative-balance policy, and inserts every line. Either all entries
	// persist or none do.
	//
	// A uniqueness violation on the idempotency key is surfaced as
	// apperrors.ErrDuplicate so the poster can re-read and return the
	// winning journal instead of an error.
	SaveJournal(ctx context.Context, entries []domain.Entry) error

	// FindJournalByIdempotencyKey returns all entries of the journal
	// previously committed under the given key, or apperrors.ErrNotFound.
	FindJournalByIdempotencyKey(ctx context.Context, tenantID, key string) ([]domain.Entry, error)

	// FindEntriesByJournalID returns all entries sharing a journal ID under
	// the tenant, ordered by line number. apperrors.ErrNotFound when none.
	FindEntriesByJournalID(ctx context.Context, tenantID, journalID string) ([]domain.Entry, error)

	// FindEntriesByJournalIDs batch-fetches entries for several journals.
	FindEntriesByJournalIDs(ctx context.Context, tenantID string, journalIDs []string) (map[string][]domain.Entry, error)

	// ListJournals returns a page of journal summaries ordered by effective
	// date descending with a stable posted_at/journal_id tiebreak, plus the
	// cursor for the next page.
	ListJournals(ctx context.Context, params ListJournalsParams) ([]domain.Journal, *string, error)

	// SumAccountEntries returns the debit and credit totals for an account,
	// optionally restricted to entries with effective_date <= asOf.
	SumAccountEntries(ctx context.Context, tenantID, accountID string, asOf *time.Time) (totalDebit, totalCredit decimal.Decimal, err error)

	// ListAccountEntriesInRange returns an account's entries with
	// start <= effective_date <= end, ordered by effective date ascending
	// with a stable posted_at/line tiebreak.
	ListAccountEntriesInRange(ctx context.Context, tenantID, accountID string, start, end time.Time) ([]domain.Entry, error)
}
