package domain

import "time"

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five enumerated account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// NormalBalanceIsDebit reports whether the account type increases on the
// debit side (asset/expense) as opposed to the credit side
// (liability/equity/revenue).
func (t AccountType) NormalBalanceIsDebit() bool {
	return t == Asset || t == Expense
}

// Metadata is an opaque caller-supplied key-value map stored alongside
// accounts and entries.
type Metadata map[string]string

// Account represents a financial account within the ledger.
// Accounts are never hard-deleted; ClosedAt marks a soft close that blocks
// any further postings while preserving historical balances.
type Account struct {
	AccountID     string      `json:"accountID"`
	TenantID      string      `json:"tenantID"`
	AccountType   AccountType `json:"accountType"`
	AccountCode   string      `json:"accountCode"` // Unique within a tenant
	Currency      string      `json:"currency"`    // ISO 4217
	AllowNegative bool        `json:"allowNegative"`
	Metadata      Metadata    `json:"metadata"`
	CreatedAt     time.Time   `json:"createdAt"`
	ClosedAt      *time.Time  `json:"closedAt"` // Nil while the account is open
}

// IsOpen reports whether the account still accepts postings.
func (a *Account) IsOpen() bool {
	return a.ClosedAt == nil
}
