package accounting

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stonefin/ledger-engine/internal/core/domain"
)

func TestSignedAmount(t *testing.T) {
	hundred := decimal.NewFromInt(100)

	tests := []struct {
		name        string
		direction   domain.Direction
		accountType domain.AccountType
		want        decimal.Decimal
	}{
		{"debit asset", domain.Debit, domain.Asset, hundred},
		{"credit asset", domain.Credit, domain.Asset, hundred.Neg()},
		{"debit expense", domain.Debit, domain.Expense, hundred},
		{"credit expense", domain.Credit, domain.Expense, hundred.Neg()},
		{"debit liability", domain.Debit, domain.Liability, hundred.Neg()},
		{"credit liability", domain.Credit, domain.Liability, hundred},
		{"debit equity", domain.Debit, domain.Equity, hundred.Neg()},
		{"credit equity", domain.Credit, domain.Equity, hundred},
		{"debit revenue", domain.Debit, domain.Revenue, hundred.Neg()},
		{"credit revenue", domain.Credit, domain.Revenue, hundred},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SignedAmount(hundred, tc.direction, tc.accountType)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestSignedAmountRejectsUnknownType(t *testing.T) {
	_, err := SignedAmount(decimal.NewFromInt(1), domain.Debit, domain.AccountType("GOODWILL"))
	assert.Error(t, err)

	_, err = SignedAmount(decimal.NewFromInt(1), domain.Direction("SIDEWAYS"), domain.Asset)
	assert.Error(t, err)
}

func TestBalance(t *testing.T) {
	debits := decimal.NewFromInt(150)
	credits := decimal.NewFromInt(100)

	assert.True(t, decimal.NewFromInt(50).Equal(Balance(domain.Asset, debits, credits)))
	assert.True(t, decimal.NewFromInt(50).Equal(Balance(domain.Expense, debits, credits)))
	assert.True(t, decimal.NewFromInt(-50).Equal(Balance(domain.Liability, debits, credits)))
	assert.True(t, decimal.NewFromInt(-50).Equal(Balance(domain.Equity, debits, credits)))
	assert.True(t, decimal.NewFromInt(-50).Equal(Balance(domain.Revenue, debits, credits)))
}

func TestValidateBalanced(t *testing.T) {
	line := func(amount int64, dir domain.Direction) domain.Entry {
		return domain.Entry{Amount: decimal.NewFromInt(amount), Direction: dir}
	}

	t.Run("balanced pair accepted", func(t *testing.T) {
		err := ValidateBalanced([]domain.Entry{line(100, domain.Debit), line(100, domain.Credit)})
		assert.NoError(t, err)
	})

	t.Run("balanced split accepted", func(t *testing.T) {
		err := ValidateBalanced([]domain.Entry{
			line(100, domain.Debit),
			line(60, domain.Credit),
			line(40, domain.Credit),
		})
		assert.NoError(t, err)
	})

	t.Run("single leg rejected", func(t *testing.T) {
		err := ValidateBalanced([]domain.Entry{line(100, domain.Debit)})
		assert.ErrorContains(t, err, "at least two")
	})

	t.Run("unbalanced rejected", func(t *testing.T) {
		err := ValidateBalanced([]domain.Entry{line(100, domain.Debit), line(90, domain.Credit)})
		assert.ErrorContains(t, err, "does not balance")
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		err := ValidateBalanced([]domain.Entry{line(0, domain.Debit), line(0, domain.Credit)})
		assert.ErrorContains(t, err, "strictly positive")
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		err := ValidateBalanced([]domain.Entry{line(-10, domain.Debit), line(-10, domain.Credit)})
		assert.ErrorContains(t, err, "strictly positive")
	})

	t.Run("exact decimal equality required", func(t *testing.T) {
		d, _ := decimal.NewFromString("10.001")
		c, _ := decimal.NewFromString("10.00")
		err := ValidateBalanced([]domain.Entry{
			{Amount: d, Direction: domain.Debit},
			{Amount: c, Direction: domain.Credit},
		})
		assert.ErrorContains(t, err, "does not balance")
	})
}
