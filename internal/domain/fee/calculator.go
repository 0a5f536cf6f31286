// Package fee splits a quoted amount between the platform and the professional.
package fee

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

// CurrencyPlaces is the minor-unit precision of every amount
const CurrencyPlaces = 2

// DefaultRate is the platform fee rate used when none is configured
var DefaultRate = decimal.RequireFromString("0.07")

// ComputeFee returns the platform fee and professional payout for quoted.
// The fee is rounded half-up to the cent and the payout is the remainder,
// so fee + payout == quoted exactly.
func ComputeFee(quoted, rate decimal.Decimal) (platformFee, payout decimal.Decimal, err error) {
	if err := ValidateRate(rate); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if err := ValidateAmount("quoted_amount", quoted); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	platformFee = quoted.Mul(rate).Round(CurrencyPlaces)
	payout = quoted.Sub(platformFee)
	return platformFee, payout, nil
}

// ValidateRate checks that rate lies in [0, 1]
func ValidateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return workflow.NewPayloadError("fee_rate", fmt.Sprintf("must be between 0 and 1, got %s", rate))
	}
	return nil
}

// ValidateAmount checks that amount is non-negative with at most two decimals
func ValidateAmount(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return workflow.NewPayloadError(field, "must not be negative")
	}
	if !amount.Equal(amount.Round(CurrencyPlaces)) {
		return workflow.NewPayloadError(field, "must have at most two decimal places")
	}
	return nil
}

// Calculator applies a configured rate
type Calculator struct {
	Rate decimal.Decimal
}

// NewCalculator creates a calculator, rejecting rates outside [0, 1]
func NewCalculator(rate decimal.Decimal) (*Calculator, error) {
	if err := ValidateRate(rate); err != nil {
		return nil, err
	}
	return &Calculator{Rate: rate}, nil
}

// Compute applies the configured rate to quoted
func (c *Calculator) Compute(quoted decimal.Decimal) (platformFee, payout decimal.Decimal, err error) {
	return ComputeFee(quoted, c.Rate)
}
