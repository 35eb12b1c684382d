package pgsql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stonefin/ledger-engine/internal/apperrors"
	"github.com/stonefin/ledger-engine/internal/core/domain"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, sql.ErrTxDone) && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// marshalMetadata renders a metadata map for a jsonb column. Empty maps are
// stored as NULL.
func marshalMetadata(m domain.Metadata) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to marshal metadata", err)
	}
	return data, nil
}

// unmarshalMetadata parses a jsonb column back into a metadata map. NULL
// yields an empty map so callers never see nil.
func unmarshalMetadata(data []byte) (domain.Metadata, error) {
	if len(data) == 0 {
		return domain.Metadata{}, nil
	}
	var m domain.Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.NewAppError(500, "failed to unmarshal metadata", err)
	}
	return m, nil
}
