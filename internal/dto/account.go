package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stonefin/ledger-engine/internal/core/domain"
)

// CreateAccountRequest defines the data needed to register a new account.
type CreateAccountRequest struct {
	AccountType   domain.AccountType `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	AccountCode   string             `json:"accountCode" binding:"required,max=64"`
	Currency      string             `json:"currency" binding:"required,iso4217"`
	AllowNegative bool               `json:"allowNegative"`
	Metadata      domain.Metadata    `json:"metadata"`
}

// AccountResponse mirrors domain.Account for API consumers.
type AccountResponse struct {
	AccountID     string             `json:"accountID"`
	AccountType   domain.AccountType `json:"accountType"`
	AccountCode   string             `json:"accountCode"`
	Currency      string             `json:"currency"`
	AllowNegative bool               `json:"allowNegative"`
	Metadata      domain.Metadata    `json:"metadata,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	ClosedAt      *time.Time         `json:"closedAt,omitempty"`
	// Balance is populated only where the endpoint surfaces one.
	Balance *decimal.Decimal `json:"balance,omitempty"`
}

// ToAccountResponse converts a domain.Account to its response DTO.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:     acc.AccountID,
		AccountType:   acc.AccountType,
		AccountCode:   acc.AccountCode,
		Currency:      acc.Currency,
		AllowNegative: acc.AllowNegative,
		Metadata:      acc.Metadata,
		CreatedAt:     acc.CreatedAt,
		ClosedAt:      acc.ClosedAt,
	}
}

// ToAccountWithBalanceResponse converts an account plus its derived balance.
func ToAccountWithBalanceResponse(acc *domain.Account, balance decimal.Decimal) AccountResponse {
	resp := ToAccountResponse(acc)
	resp.Balance = &balance
	return resp
}

// ListAccountsParams defines query parameters for listing accounts.
// Filters are conjunctive.
type ListAccountsParams struct {
	AccountType *domain.AccountType `form:"accountType" binding:"omitempty,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Currency    *string             `form:"currency" binding:"omitempty,iso4217"`
	Limit       int                 `form:"limit,default=20" binding:"omitempty,min=1,max=200"`
	NextToken   *string             `form:"nextToken"`
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts  []AccountResponse `json:"accounts"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// CloseAccountRequest controls the close operation. Force permits closing an
// account that still carries a nonzero balance.
type CloseAccountRequest struct {
	Force bool `json:"force"`
}
