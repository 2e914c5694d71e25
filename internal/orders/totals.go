package orders

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Totals são os valores monetários do pedido, todos com 2 casas
type Totals struct {
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
}

// ComputeTotals calcula subtotal = Σ(preço × quantidade), imposto = subtotal × taxa
// e total = subtotal + frete + imposto
func ComputeTotals(lines []CartLine, shippingFee, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(lineTotal(l))
	}
	subtotal = subtotal.Round(2)
	fee := shippingFee.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)

	return Totals{
		Subtotal:    subtotal,
		ShippingFee: fee,
		Tax:         tax,
		Total:       subtotal.Add(fee).Add(tax),
	}
}

func lineTotal(l CartLine) decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewOrderNumber gera "PM-<millis base36>-<5 aleatórios base36>" em maiúsculas.
// A unicidade é garantida pela constraint UNIQUE de orders.order_number.
func NewOrderNumber(now time.Time) string {
	var suffix [5]byte
	for i := range suffix {
		suffix[i] = base36[rand.Intn(len(base36))]
	}
	return strings.ToUpper("PM-" + strconv.FormatInt(now.UnixMilli(), 36) + "-" + string(suffix[:]))
}
