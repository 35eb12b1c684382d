package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementLine is one entry of a statement annotated with the balance of
// the account after applying the entry's signed effect.
type StatementLine struct {
	Entry          Entry           `json:"entry"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// Statement is the point-in-time view of an account over a date range.
// OpeningBalance is the balance strictly before the window; ClosingBalance
// equals OpeningBalance plus the net signed effect of all lines.
type Statement struct {
	AccountID      string          `json:"accountID"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        time.Time       `json:"endDate"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Lines          []StatementLine `json:"lines"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
}
