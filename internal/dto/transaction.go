package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stonefin/ledger-engine/internal/core/domain"
)

// DateLayout is the wire format for accounting dates. The effective date is
// a calendar date, distinct from the wall-clock posting time.
const DateLayout = "2006-01-02"

// TransactionLine is one leg of a posting request. The sign is carried by
// Direction; Amount must be strictly positive.
type TransactionLine struct {
	AccountID string          `json:"accountID" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Direction domain.Direction `json:"direction" binding:"required,oneof=DEBIT CREDIT"`
	Metadata  domain.Metadata `json:"metadata"`
}

// PostTransactionRequest defines one journal to commit atomically.
type PostTransactionRequest struct {
	Lines          []TransactionLine `json:"lines" binding:"required,min=2,dive"`
	EffectiveDate  string            `json:"effectiveDate" binding:"required,datetime=2006-01-02"`
	Currency       string            `json:"currency" binding:"required,iso4217"`
	IdempotencyKey *string           `json:"idempotencyKey" binding:"omitempty,max=128"`
}

// ReverseTransactionRequest posts a mirror journal for an earlier one.
type ReverseTransactionRequest struct {
	IdempotencyKey *string `json:"idempotencyKey" binding:"omitempty,max=128"`
}

// EntryResponse mirrors domain.Entry for API consumers.
type EntryResponse struct {
	EntryID       string             `json:"entryID"`
	JournalID     string             `json:"journalID"`
	LineNo        int                `json:"lineNo"`
	AccountID     string             `json:"accountID"`
	Amount        decimal.Decimal    `json:"amount"`
	Direction     domain.Direction   `json:"direction"`
	EffectiveDate string             `json:"effectiveDate"`
	PostedAt      time.Time          `json:"postedAt"`
	Metadata      domain.Metadata    `json:"metadata,omitempty"`
}

// ToEntryResponse converts a domain.Entry to its response DTO.
func ToEntryResponse(e *domain.Entry) EntryResponse {
	return EntryResponse{
		EntryID:       e.EntryID,
		JournalID:     e.JournalID,
		LineNo:        e.LineNo,
		AccountID:     e.AccountID,
		Amount:        e.Amount,
		Direction:     e.Direction,
		EffectiveDate: e.EffectiveDate.Format(DateLayout),
		PostedAt:      e.PostedAt,
		Metadata:      e.Metadata,
	}
}

// ToEntryResponses converts a slice of entries.
func ToEntryResponses(entries []domain.Entry) []EntryResponse {
	responses := make([]EntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToEntryResponse(&entries[i])
	}
	return responses
}

// JournalResponse is the committed journal returned by posting and query
// operations.
type JournalResponse struct {
	JournalID     string          `json:"journalID"`
	EffectiveDate string          `json:"effectiveDate"`
	PostedAt      time.Time       `json:"postedAt"`
	TotalDebit    decimal.Decimal `json:"totalDebit"`
	TotalCredit   decimal.Decimal `json:"totalCredit"`
	Entries       []EntryResponse `json:"entries,omitempty"`
}

// ToJournalResponse converts a domain.Journal to its response DTO.
func ToJournalResponse(j *domain.Journal) JournalResponse {
	return JournalResponse{
		JournalID:     j.JournalID,
		EffectiveDate: j.EffectiveDate.Format(DateLayout),
		PostedAt:      j.PostedAt,
		TotalDebit:    j.TotalDebit,
		TotalCredit:   j.TotalCredit,
		Entries:       ToEntryResponses(j.Entries),
	}
}

// ListTransactionsParams defines query parameters for listing journals.
type ListTransactionsParams struct {
	AccountID *string `form:"accountID"`
	StartDate *string `form:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate   *string `form:"endDate" binding:"omitempty,datetime=2006-01-02"`
	Limit     int     `form:"limit,default=20" binding:"omitempty,min=1,max=200"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse wraps a page of journals.
type ListTransactionsResponse struct {
	Journals  []JournalResponse `json:"journals"`
	NextToken *string           `json:"nextToken,omitempty"`
}
