package dto

import (
	"github.com/shopspring/decimal"

	"github.com/stonefin/ledger-engine/internal/core/domain"
)

// BalanceParams defines query parameters for a balance lookup.
type BalanceParams struct {
	AsOf *string `form:"asOf" binding:"omitempty,datetime=2006-01-02"`
}

// BalanceResponse is the derived balance of one account.
type BalanceResponse struct {
	AccountID string          `json:"accountID"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	AsOf      *string         `json:"asOf,omitempty"`
}

// StatementParams defines query parameters for a statement request.
type StatementParams struct {
	StartDate string `form:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate   string `form:"endDate" binding:"required,datetime=2006-01-02"`
}

// StatementLineResponse is one statement entry with its running balance.
type StatementLineResponse struct {
	EntryResponse
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// StatementResponse is the running-balance view of an account over a range.
type StatementResponse struct {
	AccountID      string                  `json:"accountID"`
	StartDate      string                  `json:"startDate"`
	EndDate        string                  `json:"endDate"`
	OpeningBalance decimal.Decimal         `json:"openingBalance"`
	Lines          []StatementLineResponse `json:"lines"`
	ClosingBalance decimal.Decimal         `json:"closingBalance"`
}

// ToStatementResponse converts a domain.Statement to its response DTO.
func ToStatementResponse(s *domain.Statement) StatementResponse {
	lines := make([]StatementLineResponse, len(s.Lines))
	for i := range s.Lines {
		lines[i] = StatementLineResponse{
			EntryResponse:  ToEntryResponse(&s.Lines[i].Entry),
			RunningBalance: s.Lines[i].RunningBalance,
		}
	}
	return StatementResponse{
		AccountID:      s.AccountID,
		StartDate:      s.StartDate.Format(DateLayout),
		EndDate:        s.EndDate.Format(DateLayout),
		OpeningBalance: s.OpeningBalance,
		Lines:          lines,
		ClosingBalance: s.ClosingBalance,
	}
}
