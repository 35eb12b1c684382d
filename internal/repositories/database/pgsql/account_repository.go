package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stonefin/ledger-engine/internal/apperrors"
	"github.com/stonefin/ledger-engine/internal/core/domain"
	portsrepo "github.com/stonefin/ledger-engine/internal/core/ports/repositories"
	"github.com/stonefin/ledger-engine/internal/utils/pagination"
)

const pgUniqueViolation = "23505"

const accountColumns = `account_id, tenant_id, account_type, account_code, currency, allow_negative, metadata, created_at, closed_at`

// PgxAccountRepository persists accounts in PostgreSQL.
type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepository = (*PgxAccountRepository)(nil)

// SaveAccount inserts a new account row.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	metadata, err := marshalMetadata(account.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = r.Pool.Exec(ctx, query,
		account.AccountID,
		account.TenantID,
		account.AccountType,
		account.AccountCode,
		account.Currency,
		account.AllowNegative,
		metadata,
		account.CreatedAt,
		account.ClosedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: account code %q already exists", apperrors.ErrDuplicate, account.AccountCode)
		}
		return apperrors.NewAppError(500, "failed to insert account "+account.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account scoped to a tenant.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND account_id = $2;
	`
	account, err := scanAccount(r.Pool.QueryRow(ctx, query, tenantID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("account " + accountID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find account by ID "+accountID, err)
	}
	return account, nil
}

// FindAccountsByIDs retrieves multiple accounts scoped to a tenant. Missing
// IDs are absent from the returned map.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND account_id = ANY($2);
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, accountIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts by IDs", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts[account.AccountID] = *account
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}

// ListAccounts returns a page of accounts in creation order with a stable
// account_id tiebreak.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, params portsrepo.ListAccountsParams) ([]domain.Account, *string, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to detect whether a next page exists.
	fetchLimit := limit + 1

	filterClause := `WHERE tenant_id = $1`
	args := []interface{}{params.TenantID}
	if params.AccountType != nil {
		args = append(args, *params.AccountType)
		filterClause += ` AND account_type = $` + strconv.Itoa(len(args))
	}
	if params.Currency != nil {
		args = append(args, *params.Currency)
		filterClause += ` AND currency = $` + strconv.Itoa(len(args))
	}

	if params.NextToken != nil && *params.NextToken != "" {
		fields, err := pagination.DecodeToken(*params.NextToken, 2)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		lastCreatedAt, err := pagination.ParseTime(fields[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		args = append(args, lastCreatedAt, fields[1])
		filterClause += ` AND (created_at, account_id) > ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, fetchLimit)
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		` + filterClause + `
		ORDER BY created_at ASC, account_id ASC
		LIMIT $` + strconv.Itoa(len(args)) + `;
	`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query accounts for tenant "+params.TenantID, err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, fetchLimit)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}

	var nextToken *string
	if len(accounts) > limit {
		accounts = accounts[:limit]
		last := accounts[limit-1]
		token := pagination.EncodeToken(pagination.FormatTime(last.CreatedAt), last.AccountID)
		nextToken = &token
	}
	return accounts, nextToken, nil
}

// CloseAccount sets closed_at on an open account.
func (r *PgxAccountRepository) CloseAccount(ctx context.Context, tenantID, accountID string, closedAt time.Time) error {
	query := `
		UPDATE accounts
		SET closed_at = $3
		WHERE tenant_id = $1 AND account_id = $2 AND closed_at IS NULL;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, tenantID, accountID, closedAt)
	if err != nil {
		return apperrors.NewAppError(500, "failed to close account "+accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Distinguish "unknown account" from "already closed".
		if _, findErr := r.FindAccountByID(ctx, tenantID, accountID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: account %s is already closed", apperrors.ErrFailedPrecondition, accountID)
	}
	return nil
}

// scanAccount reads one account row in accountColumns order.
func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	var metadata []byte
	err := row.Scan(
		&account.AccountID,
		&account.TenantID,
		&account.AccountType,
		&account.AccountCode,
		&account.Currency,
		&account.AllowNegative,
		&metadata,
		&account.CreatedAt,
		&account.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	account.Metadata, err = unmarshalMetadata(metadata)
	if err != nil {
		return nil, err
	}
	return &account, nil
}
