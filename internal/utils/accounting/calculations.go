package accounting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stonefin/ledger-engine/internal/core/domain"
)

// SignedAmount applies the normal-balance sign convention to an entry amount.
// DEBIT to ASSET/EXPENSE -> positive, CREDIT to ASSET/EXPENSE -> negative;
// DEBIT to LIABILITY/EQUITY/REVENUE -> negative, CREDIT -> positive.
// The same convention is used everywhere a balance is surfaced, including
// the negative-balance check inside the posting transaction.
func SignedAmount(amount decimal.Decimal, direction domain.Direction, accountType domain.AccountType) (decimal.Decimal, error) {
	if !accountType.IsValid() {
		return decimal.Zero, fmt.Errorf("unknown account type %q", accountType)
	}
	if !direction.IsValid() {
		return decimal.Zero, fmt.Errorf("unknown direction %q", direction)
	}
	if (direction == domain.Debit) == accountType.NormalBalanceIsDebit() {
		return amount, nil
	}
	return amount.Neg(), nil
}

// Balance derives an account balance from debit and credit totals under the
// normal-balance convention.
func Balance(accountType domain.AccountType, totalDebit, totalCredit decimal.Decimal) decimal.Decimal {
	if accountType.NormalBalanceIsDebit() {
		return totalDebit.Sub(totalCredit)
	}
	return totalCredit.Sub(totalDebit)
}

// ValidateBalanced checks the double-entry invariant for a journal's lines:
// at least two lines, every amount strictly positive, and debit and credit
// totals exactly equal (decimal equality, no rounding tolerance).
func ValidateBalanced(lines []domain.Entry) error {
	if len(lines) < 2 {
		return fmt.Errorf("journal must have at least two entry lines, got %d", len(lines))
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i, line := range lines {
		if line.Amount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("entry amount must be strictly positive on line %d, got %s", i, line.Amount.String())
		}
		switch line.Direction {
		case domain.Debit:
			totalDebit = totalDebit.Add(line.Amount)
		case domain.Credit:
			totalCredit = totalCredit.Add(line.Amount)
		default:
			return fmt.Errorf("unknown direction %q on line %d", line.Direction, i)
		}
	}

	if !totalDebit.Equal(totalCredit) {
		return fmt.Errorf("journal does not balance: debits sum to %s, credits sum to %s",
			totalDebit.String(), totalCredit.String())
	}
	return nil
}
