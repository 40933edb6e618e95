package amortization

import (
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// MonthlyPayment calculates the level monthly installment for a loan.
// Formula: P * r / (1 - (1+r)^-n) with r = annualRate / 12.
// A zero-rate loan degenerates to simple division of the principal.
// Results are rounded to 2 decimal places, half up.
func MonthlyPayment(principal, annualRate decimal.Decimal, termMonths int) decimal.Decimal {
	months := decimal.NewFromInt(int64(termMonths))

	if annualRate.IsZero() {
		return principal.DivRound(months, 2)
	}

	monthlyRate := annualRate.Div(decimal.NewFromInt(12))
	growth := one.Add(monthlyRate).Pow(months)
	denominator := one.Sub(one.Div(growth))

	return principal.Mul(monthlyRate).DivRound(denominator, 2)
}

// TotalRepayment returns the sum of all installments over the loan term.
func TotalRepayment(principal, annualRate decimal.Decimal, termMonths int) decimal.Decimal {
	return MonthlyPayment(principal, annualRate, termMonths).Mul(decimal.NewFromInt(int64(termMonths)))
}
