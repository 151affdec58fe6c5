// Package money holds the HT/TTC conversions and line arithmetic shared by the
// wizard and the invoice exporters. Amounts are euros as float64, like the rest
// of the app; rounding to cents goes through shopspring/decimal.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultVATRate is the French standard TVA rate, in percent.
const DefaultVATRate = 20.0

// DiscountKind tells how a line discount is interpreted.
type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

// ParseDiscountKind maps stored values to a kind. Anything unknown is a fixed amount.
func ParseDiscountKind(s string) DiscountKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percent", "percentage", "pourcentage", "%":
		return DiscountPercent
	default:
		return DiscountFixed
	}
}

// ToExcludingTax converts a TTC price to HT: price / (1 + rate/100).
// No rounding here; callers round for display.
func ToExcludingTax(priceTTC, ratePercent float64) float64 {
	return priceTTC / (1 + ratePercent/100)
}

// ToIncludingTax converts an HT price to TTC.
func ToIncludingTax(priceHT, ratePercent float64) float64 {
	return priceHT * (1 + ratePercent/100)
}

// TaxPart returns the TVA contained in a TTC amount.
func TaxPart(amountTTC, ratePercent float64) float64 {
	return amountTTC - ToExcludingTax(amountTTC, ratePercent)
}

// LineTotal applies the discount to quantity × unit price and floors the result at 0.
// Inputs are not validated beyond that.
func LineTotal(quantity int, unitPriceTTC, discount float64, kind DiscountKind) float64 {
	gross := float64(quantity) * unitPriceTTC
	var total float64
	if kind == DiscountPercent {
		total = gross * (1 - discount/100)
	} else {
		total = gross - discount
	}
	if total < 0 {
		return 0
	}
	return total
}

// Finite reports whether v is neither NaN nor an infinity.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Decimal converts v for exact arithmetic. NaN and infinities have no
// decimal form and become zero.
func Decimal(v float64) decimal.Decimal {
	if !Finite(v) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// Round2 rounds half away from zero to the cent.
func Round2(v float64) float64 {
	return Decimal(v).Round(2).InexactFloat64()
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Euros formats an amount with two decimals ("100.00").
func Euros(v float64) string {
	return Decimal(v).StringFixed(2)
}

// WholeOrCents drops the decimals of whole amounts ("163") and keeps two otherwise ("163.50").
func WholeOrCents(v float64) string {
	d := Decimal(v).Round(2)
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(0)
	}
	return d.StringFixed(2)
}
