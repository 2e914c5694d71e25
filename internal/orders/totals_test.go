package orders

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(price string, qty int) CartLine {
	return CartLine{UnitPrice: decimal.RequireFromString(price), Quantity: qty, Stock: qty}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name     string
		lines    []CartLine
		subtotal string
		tax      string
		total    string
	}{
		{
			name:     "two lines",
			lines:    []CartLine{line("10.00", 2), line("5.00", 1)},
			subtotal: "25.00",
			tax:      "3.00",
			total:    "78.00",
		},
		{
			name:     "tax rounded to cents",
			lines:    []CartLine{line("19.99", 3)},
			subtotal: "59.97",
			tax:      "7.20",
			total:    "117.17",
		},
		{
			name:     "single cent",
			lines:    []CartLine{line("0.01", 1)},
			subtotal: "0.01",
			tax:      "0.00",
			total:    "50.01",
		},
	}

	fee := decimal.RequireFromString("50.00")
	rate := decimal.RequireFromString("0.12")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.lines, fee, rate)

			assert.Equal(t, tt.subtotal, got.Subtotal.StringFixed(2))
			assert.Equal(t, tt.tax, got.Tax.StringFixed(2))
			assert.Equal(t, tt.total, got.Total.StringFixed(2))
			assert.True(t, got.Total.Equal(got.Subtotal.Add(got.ShippingFee).Add(got.Tax)))
		})
	}
}

func TestNewOrderNumber(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	number := NewOrderNumber(now)

	assert.Regexp(t, regexp.MustCompile(`^PM-[0-9A-Z]+-[0-9A-Z]{5}$`), number)
	parts := strings.Split(number, "-")
	require.Len(t, parts, 3)
	millis, err := strconv.ParseInt(strings.ToLower(parts[1]), 36, 64)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), millis)
}

func TestNewOrderNumber_RandomSuffix(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		seen[NewOrderNumber(now)] = struct{}{}
	}
	assert.Greater(t, len(seen), 45)
}
