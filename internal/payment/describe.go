package payment

import (
	"fmt"
	"strings"

	"github.com/diewo77/literie-pos/internal/money"
)

// Details is the structured payment data the description is projected from.
type Details struct {
	Method           Method
	DepositMethod    Method
	Deposit          float64
	Total            float64
	Cheques          int
	AlmaInstallments int
}

// Remaining is Total minus Deposit, never negative.
func (d Details) Remaining() float64 { return remainingAfter(d.Total, d.Deposit) }

// Describe renders the payment line printed on the invoice, e.g.
// "Chèque à venir (9 chèques de 163€ + acompte 100.00€)". It is recomputed
// on demand and never stored as the source of truth.
func Describe(d Details) string {
	if !d.Method.Valid() {
		return ""
	}
	remaining := d.Remaining()
	var deposit string
	if d.Deposit > 0 {
		deposit = " + acompte " + money.Euros(d.Deposit) + "€"
	}

	switch d.Method {
	case MethodFutureCheques:
		n := ClampCheques(d.Cheques)
		noun := "chèques"
		if n == 1 {
			noun = "chèque"
		}
		per := money.WholeOrCents(remaining / float64(n))
		return fmt.Sprintf("%s (%d %s de %s€%s)", d.Method.Label(), n, noun, per, deposit)
	case MethodAlma:
		n := ClampAlmaInstallments(d.AlmaInstallments)
		per := money.Euros(money.Round2(remaining / float64(n)))
		return fmt.Sprintf("%s (%dx %s€%s)", d.Method.Label(), n, per, deposit)
	}

	if d.Deposit <= 0 {
		return d.Method.Label()
	}
	var b strings.Builder
	b.WriteString(d.Method.Label())
	b.WriteString(" (acompte ")
	b.WriteString(money.Euros(d.Deposit))
	b.WriteString("€")
	if d.DepositMethod.Valid() {
		b.WriteString(" par ")
		b.WriteString(d.DepositMethod.Label())
	}
	b.WriteString(", reste ")
	b.WriteString(money.Euros(remaining))
	b.WriteString("€)")
	return b.String()
}
