package pgsql

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stonefin/ledger-engine/internal/apperrors"
	"github.com/stonefin/ledger-engine/internal/core/domain"
	portsrepo "github.com/stonefin/ledger-engine/internal/core/ports/repositories"
	"github.com/stonefin/ledger-engine/internal/utils/accounting"
	"github.com/stonefin/ledger-engine/internal/utils/pagination"
)

const entryColumns = `entry_id, tenant_id, journal_id, line_no, account_id, amount, direction, effective_date, posted_at, idempotency_key, metadata`

// PgxEntryRepository persists the append-only entry store in PostgreSQL.
type PgxEntryRepository struct {
	BaseRepository
}

// newPgxEntryRepository creates a new repository for journal entry data.
func newPgxEntryRepository(pool *pgxpool.Pool) portsrepo.EntryRepository {
	return &PgxEntryRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.EntryRepository = (*PgxEntryRepository)(nil)

// lockedAccount is the subset of account state needed inside the posting
// transaction.
type lockedAccount struct {
	accountType   domain.AccountType
	allowNegative bool
	closedAt      *time.Time
}

// SaveJournal atomically commits all entries of one journal. Accounts are
// locked in sorted ID order so concurrent journals touching the same accounts
// cannot deadlock.
func (r *PgxEntryRepository) SaveJournal(ctx context.Context, entries []domain.Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: journal has no entries", apperrors.ErrValidation)
	}
	tenantID := entries[0].TenantID
	journalID := entries[0].JournalID

	accountIDSet := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		accountIDSet[e.AccountID] = struct{}{}
	}
	accountIDs := make([]string, 0, len(accountIDSet))
	for id := range accountIDSet {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	locked, err := r.lockAccounts(ctx, tx, tenantID, accountIDs)
	if err != nil {
		return err
	}

	// State may have changed between the caller's validation and taking the
	// locks; the locked rows are authoritative.
	for _, id := range accountIDs {
		acc, found := locked[id]
		if !found {
			return apperrors.NewNotFoundError("account " + id + " not found")
		}
		if acc.closedAt != nil {
			return fmt.Errorf("%w: account %s is closed", apperrors.ErrFailedPrecondition, id)
		}
	}

	if err := r.checkNegativeBalances(ctx, tx, tenantID, accountIDs, locked, entries); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	insertQuery := `
		INSERT INTO entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	for _, e := range entries {
		metadata, err := marshalMetadata(e.Metadata)
		if err != nil {
			return err
		}
		batch.Queue(insertQuery,
			e.EntryID,
			e.TenantID,
			e.JournalID,
			e.LineNo,
			e.AccountID,
			e.Amount,
			e.Direction,
			e.EffectiveDate,
			e.PostedAt,
			e.IdempotencyKey,
			metadata,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// The only unique constraint the insert can hit is the
			// idempotency-key index; another journal won the key.
			return fmt.Errorf("%w: idempotency key already used", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to execute entry batch for journal "+journalID, err)
	}

	return r.Commit(ctx, tx)
}

// lockAccounts takes row locks on the referenced accounts in sorted ID order.
func (r *PgxEntryRepository) lockAccounts(ctx context.Context, tx pgx.Tx, tenantID string, accountIDs []string) (map[string]lockedAccount, error) {
	query := `
		SELECT account_id, account_type, allow_negative, closed_at
		FROM accounts
		WHERE tenant_id = $1 AND account_id = ANY($2)
		ORDER BY account_id
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, query, tenantID, accountIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock accounts for posting", err)
	}
	defer rows.Close()

	locked := make(map[string]lockedAccount, len(accountIDs))
	for rows.Next() {
		var id string
		var acc lockedAccount
		if err := rows.Scan(&id, &acc.accountType, &acc.allowNegative, &acc.closedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan locked account row", err)
		}
		locked[id] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating locked account rows", err)
	}
	return locked, nil
}

// checkNegativeBalances re-derives the balance of every non-negative account
// under the held locks and rejects the journal if applying it would drive any
// such balance below zero.
func (r *PgxEntryRepository) checkNegativeBalances(ctx context.Context, tx pgx.Tx, tenantID string, accountIDs []string, locked map[string]lockedAccount, entries []domain.Entry) error {
	restricted := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		if !locked[id].allowNegative {
			restricted = append(restricted, id)
		}
	}
	if len(restricted) == 0 {
		return nil
	}

	query := `
		SELECT account_id,
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'DEBIT'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'CREDIT'), 0)
		FROM entries
		WHERE tenant_id = $1 AND account_id = ANY($2)
		GROUP BY account_id;
	`
	rows, err := tx.Query(ctx, query, tenantID, restricted)
	if err != nil {
		return apperrors.NewAppError(500, "failed to derive balances for posting", err)
	}
	defer rows.Close()

	balances := make(map[string]decimal.Decimal, len(restricted))
	for rows.Next() {
		var id string
		var totalDebit, totalCredit decimal.Decimal
		if err := rows.Scan(&id, &totalDebit, &totalCredit); err != nil {
			return apperrors.NewAppError(500, "failed to scan balance row", err)
		}
		balances[id] = accounting.Balance(locked[id].accountType, totalDebit, totalCredit)
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewAppError(500, "error iterating balance rows", err)
	}

	// Accounts with no entries yet start at zero.
	for _, e := range entries {
		acc, found := locked[e.AccountID]
		if !found || acc.allowNegative {
			continue
		}
		signed, err := accounting.SignedAmount(e.Amount, e.Direction, acc.accountType)
		if err != nil {
			return apperrors.NewAppError(500, "failed to compute signed amount for entry "+e.EntryID, err)
		}
		balances[e.AccountID] = balances[e.AccountID].Add(signed)
	}

	for _, id := range restricted {
		if balances[id].IsNegative() {
			return fmt.Errorf("%w: posting would drive account %s to %s",
				apperrors.ErrFailedPrecondition, id, balances[id].String())
		}
	}
	return nil
}

// FindJournalByIdempotencyKey returns the entries of the journal previously
// committed under the key.
func (r *PgxEntryRepository) FindJournalByIdempotencyKey(ctx context.Context, tenantID, key string) ([]domain.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE tenant_id = $1 AND idempotency_key = $2
		ORDER BY line_no;
	`
	entries, err := r.queryEntries(ctx, query, tenantID, key)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperrors.NewNotFoundError("no journal found for idempotency key")
	}
	return entries, nil
}

// FindEntriesByJournalID returns all entries sharing a journal ID.
func (r *PgxEntryRepository) FindEntriesByJournalID(ctx context.Context, tenantID, journalID string) ([]domain.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE tenant_id = $1 AND journal_id = $2
		ORDER BY line_no;
	`
	entries, err := r.queryEntries(ctx, query, tenantID, journalID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperrors.NewNotFoundError("journal " + journalID + " not found")
	}
	return entries, nil
}

// FindEntriesByJournalIDs batch-fetches entries for several journals.
func (r *PgxEntryRepository) FindEntriesByJournalIDs(ctx context.Context, tenantID string, journalIDs []string) (map[string][]domain.Entry, error) {
	if len(journalIDs) == 0 {
		return map[string][]domain.Entry{}, nil
	}

	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE tenant_id = $1 AND journal_id = ANY($2)
		ORDER BY journal_id, line_no;
	`
	entries, err := r.queryEntries(ctx, query, tenantID, journalIDs)
	if err != nil {
		return nil, err
	}

	entriesMap := make(map[string][]domain.Entry, len(journalIDs))
	for _, e := range entries {
		entriesMap[e.JournalID] = append(entriesMap[e.JournalID], e)
	}
	return entriesMap, nil
}

// ListJournals returns a page of journal summaries aggregated from the entry
// store, newest effective date first.
func (r *PgxEntryRepository) ListJournals(ctx context.Context, params portsrepo.ListJournalsParams) ([]domain.Journal, *string, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	filterClause := `WHERE tenant_id = $1`
	args := []interface{}{params.TenantID}
	if params.AccountID != nil {
		args = append(args, *params.AccountID)
		// Whole journals that touch the account, not just its own lines.
		filterClause += ` AND journal_id IN (
			SELECT journal_id FROM entries WHERE tenant_id = $1 AND account_id = $` + strconv.Itoa(len(args)) + `)`
	}
	if params.StartDate != nil {
		args = append(args, *params.StartDate)
		filterClause += ` AND effective_date >= $` + strconv.Itoa(len(args))
	}
	if params.EndDate != nil {
		args = append(args, *params.EndDate)
		filterClause += ` AND effective_date <= $` + strconv.Itoa(len(args))
	}

	havingClause := ""
	if params.NextToken != nil && *params.NextToken != "" {
		fields, err := pagination.DecodeToken(*params.NextToken, 3)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		lastEffectiveDate, err := pagination.ParseTime(fields[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		lastPostedAt, err := pagination.ParseTime(fields[1])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		args = append(args, lastEffectiveDate, lastPostedAt, fields[2])
		havingClause = `HAVING (effective_date, MIN(posted_at), journal_id) < ($` +
			strconv.Itoa(len(args)-2) + `, $` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, fetchLimit)
	query := `
		SELECT journal_id,
		       effective_date,
		       MIN(posted_at) AS posted_at,
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'DEBIT'), 0) AS total_debit,
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'CREDIT'), 0) AS total_credit
		FROM entries
		` + filterClause + `
		GROUP BY journal_id, effective_date
		` + havingClause + `
		ORDER BY effective_date DESC, posted_at DESC, journal_id DESC
		LIMIT $` + strconv.Itoa(len(args)) + `;
	`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query journals for tenant "+params.TenantID, err)
	}
	defer rows.Close()

	journals := make([]domain.Journal, 0, fetchLimit)
	for rows.Next() {
		var j domain.Journal
		if err := rows.Scan(&j.JournalID, &j.EffectiveDate, &j.PostedAt, &j.TotalDebit, &j.TotalCredit); err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan journal summary row", err)
		}
		j.TenantID = params.TenantID
		journals = append(journals, j)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating journal summary rows", err)
	}

	var nextToken *string
	if len(journals) > limit {
		journals = journals[:limit]
		last := journals[limit-1]
		token := pagination.EncodeToken(
			pagination.FormatTime(last.EffectiveDate),
			pagination.FormatTime(last.PostedAt),
			last.JournalID,
		)
		nextToken = &token
	}
	return journals, nextToken, nil
}

// SumAccountEntries returns the debit and credit totals for an account,
// optionally restricted to effective_date <= asOf.
func (r *PgxEntryRepository) SumAccountEntries(ctx context.Context, tenantID, accountID string, asOf *time.Time) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount) FILTER (WHERE direction = 'DEBIT'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'CREDIT'), 0)
		FROM entries
		WHERE tenant_id = $1 AND account_id = $2
	`
	args := []interface{}{tenantID, accountID}
	if asOf != nil {
		args = append(args, *asOf)
		query += ` AND effective_date <= $3`
	}

	var totalDebit, totalCredit decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query+";", args...).Scan(&totalDebit, &totalCredit); err != nil {
		return decimal.Zero, decimal.Zero, apperrors.NewAppError(500, "failed to sum entries for account "+accountID, err)
	}
	return totalDebit, totalCredit, nil
}

// ListAccountEntriesInRange returns an account's entries inside the inclusive
// date window in statement order.
func (r *PgxEntryRepository) ListAccountEntriesInRange(ctx context.Context, tenantID, accountID string, start, end time.Time) ([]domain.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE tenant_id = $1 AND account_id = $2
		  AND effective_date >= $3 AND effective_date <= $4
		ORDER BY effective_date ASC, posted_at ASC, journal_id ASC, line_no ASC;
	`
	return r.queryEntries(ctx, query, tenantID, accountID, start, end)
}

// queryEntries runs a SELECT over entryColumns and scans all rows.
func (r *PgxEntryRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]domain.Entry, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entries", err)
	}
	defer rows.Close()

	entries := []domain.Entry{}
	for rows.Next() {
		var e domain.Entry
		var metadata []byte
		if err := rows.Scan(
			&e.EntryID,
			&e.TenantID,
			&e.JournalID,
			&e.LineNo,
			&e.AccountID,
			&e.Amount,
			&e.Direction,
			&e.EffectiveDate,
			&e.PostedAt,
			&e.IdempotencyKey,
			&metadata,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan entry row", err)
		}
		e.Metadata, err = unmarshalMetadata(metadata)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating entry rows", err)
	}
	return entries, nil
}
