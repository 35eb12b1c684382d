package services

import (
	"context"

	"github.com/stonefin/ledger-engine/internal/core/domain"
	"github.com/stonefin/ledger-engine/internal/dto"
)

// PostingService validates and atomically commits balanced journals, and
// answers journal queries.
type PostingService interface {
	// PostTransaction commits the request's lines as one journal, or
	// returns the previously committed journal when the idempotency key was
	// already used (a pure replay, regardless of the new request's content).
	PostTransaction(ctx context.Context, tenantID string, req dto.PostTransactionRequest) (*domain.Journal, error)

	// ReverseTransaction posts a new journal mirroring an existing one with
	// flipped directions. The original is never mutated. A reversal journal
	// cannot itself be reversed.
	ReverseTransaction(ctx context.Context, tenantID, journalID string, req dto.ReverseTransactionRequest) (*domain.Journal, error)

	// GetTransaction returns the journal holding all entries that share the
	// given journal ID under the tenant.
	GetTransaction(ctx context.Context, tenantID, journalID string) (*domain.Journal, error)

	// ListTransactions returns journals ordered by effective date
	// descending with a stable tiebreak for deterministic pagination.
	ListTransactions(ctx context.Context, tenantID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}
