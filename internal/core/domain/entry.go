package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates whether an entry line is a debit or a credit.
// Sign is carried by the direction, never by the amount.
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// IsValid reports whether d is a recognized direction.
func (d Direction) IsValid() bool {
	return d == Debit || d == Credit
}

// Opposite returns the reversing direction.
func (d Direction) Opposite() Direction {
	if d == Debit {
		return Credit
	}
	return Debit
}

// Entry is a single immutable ledger line. Entries sharing a JournalID were
// committed together as one balanced journal. Once written an entry is never
// updated or deleted; corrections are posted as new reversing journals.
type Entry struct {
	EntryID        string          `json:"entryID"`
	TenantID       string          `json:"tenantID"`
	JournalID      string          `json:"journalID"`
	LineNo         int             `json:"lineNo"` // Position within the journal, starting at 0
	AccountID      string          `json:"accountID"`
	Amount         decimal.Decimal `json:"amount"` // Strictly positive
	Direction      Direction       `json:"direction"`
	EffectiveDate  time.Time       `json:"effectiveDate"` // Accounting date, distinct from PostedAt
	PostedAt       time.Time       `json:"postedAt"`      // Wall-clock commit time
	IdempotencyKey *string         `json:"idempotencyKey,omitempty"`
	Metadata       Metadata        `json:"metadata"`
}
