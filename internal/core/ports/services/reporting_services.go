package services

import (
	"context"
	"time"

	"github.com/stonefin/ledger-engine/internal/core/domain"
	"github.com/stonefin/ledger-engine/internal/dto"
)

// ReportingService derives balances and statements from committed entries.
// It never mutates the entry store.
type ReportingService interface {
	// GetBalance returns the account balance under the normal-balance
	// convention, optionally as of a date (effective_date <= asOf).
	GetBalance(ctx context.Context, tenantID, accountID string, asOf *time.Time) (*dto.BalanceResponse, error)

	// GetStatement returns the opening balance strictly before the window,
	// the entries inside it annotated with running balances, and the
	// closing balance.
	GetStatement(ctx context.Context, tenantID, accountID string, start, end time.Time) (*domain.Statement, error)
}
