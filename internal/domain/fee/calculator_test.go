package fee

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeFee(t *testing.T) {
	tests := []struct {
		name           string
		quoted         string
		rate           string
		expectedFee    string
		expectedPayout string
	}{
		{name: "default rate on 107.00", quoted: "107.00", rate: "0.07", expectedFee: "7.49", expectedPayout: "99.51"},
		{name: "half rounds up", quoted: "10.50", rate: "0.07", expectedFee: "0.74", expectedPayout: "9.76"},
		{name: "below half rounds down", quoted: "10.20", rate: "0.07", expectedFee: "0.71", expectedPayout: "9.49"},
		{name: "zero amount", quoted: "0", rate: "0.07", expectedFee: "0", expectedPayout: "0"},
		{name: "zero rate", quoted: "250.00", rate: "0", expectedFee: "0", expectedPayout: "250.00"},
		{name: "full rate", quoted: "250.00", rate: "1", expectedFee: "250.00", expectedPayout: "0"},
		{name: "one cent", quoted: "0.01", rate: "0.5", expectedFee: "0.01", expectedPayout: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platformFee, payout, err := ComputeFee(dec(tt.quoted), dec(tt.rate))

			require.NoError(t, err)
			assert.True(t, dec(tt.expectedFee).Equal(platformFee), "fee = %s", platformFee)
			assert.True(t, dec(tt.expectedPayout).Equal(payout), "payout = %s", payout)
		})
	}
}

func TestComputeFee_Conservation(t *testing.T) {
	rates := []string{"0", "0.01", "0.05", "0.07", "0.125", "0.333", "0.5", "0.999", "1"}

	for cents := int64(0); cents <= 5000; cents += 7 {
		quoted := decimal.New(cents, -CurrencyPlaces)
		for _, r := range rates {
			platformFee, payout, err := ComputeFee(quoted, dec(r))
			require.NoError(t, err)
			assert.True(t, platformFee.Add(payout).Equal(quoted), "%s at %s: %s + %s", quoted, r, platformFee, payout)
			assert.True(t, platformFee.Equal(platformFee.Round(CurrencyPlaces)))
			assert.False(t, payout.IsNegative())
		}
	}
}

func TestComputeFee_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		quoted string
		rate   string
		field  string
	}{
		{name: "negative rate", quoted: "10", rate: "-0.01", field: "fee_rate"},
		{name: "rate above one", quoted: "10", rate: "1.01", field: "fee_rate"},
		{name: "negative amount", quoted: "-1", rate: "0.07", field: "quoted_amount"},
		{name: "sub-cent amount", quoted: "1.001", rate: "0.07", field: "quoted_amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ComputeFee(dec(tt.quoted), dec(tt.rate))

			require.Error(t, err)
			assert.True(t, errors.Is(err, workflow.ErrInvalidPayload))
			var payloadErr *workflow.PayloadError
			require.True(t, errors.As(err, &payloadErr))
			assert.Equal(t, tt.field, payloadErr.Field)
		})
	}
}

func TestCalculator(t *testing.T) {
	calc, err := NewCalculator(DefaultRate)
	require.NoError(t, err)

	platformFee, payout, err := calc.Compute(dec("107.00"))
	require.NoError(t, err)
	assert.Equal(t, "7.49", platformFee.StringFixed(2))
	assert.Equal(t, "99.51", payout.StringFixed(2))

	_, err = NewCalculator(dec("2"))
	assert.True(t, errors.Is(err, workflow.ErrInvalidPayload))
}
