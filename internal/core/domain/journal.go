package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Journal is the logical grouping of the entries committed by one atomic
// posting. It is not stored separately; it is materialized from the entries
// sharing a journal ID.
type Journal struct {
	JournalID     string          `json:"journalID"`
	TenantID      string          `json:"tenantID"`
	EffectiveDate time.Time       `json:"effectiveDate"`
	PostedAt      time.Time       `json:"postedAt"`
	TotalDebit    decimal.Decimal `json:"totalDebit"`
	TotalCredit   decimal.Decimal `json:"totalCredit"`
	Entries       []Entry         `json:"entries,omitempty"`
}

// JournalFromEntries materializes a journal view from the entries that share
// one journal ID. The slice must be non-empty.
func JournalFromEntries(entries []Entry) Journal {
	j := Journal{
		JournalID:     entries[0].JournalID,
		TenantID:      entries[0].TenantID,
		EffectiveDate: entries[0].EffectiveDate,
		PostedAt:      entries[0].PostedAt,
		TotalDebit:    decimal.Zero,
		TotalCredit:   decimal.Zero,
		Entries:       entries,
	}
	for _, e := range entries {
		if e.Direction == Debit {
			j.TotalDebit = j.TotalDebit.Add(e.Amount)
		} else {
			j.TotalCredit = j.TotalCredit.Add(e.Amount)
		}
	}
	return j
}
