package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/stonefin/ledger-engine/internal/core/ports/repositories"
)

// NewRepositoryProvider wires the PostgreSQL repositories.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo: newPgxAccountRepository(dbPool),
		EntryRepo:   newPgxEntryRepository(dbPool),
	}
}
