// Package payment computes how a furniture sale is settled: the acompte,
// post-dated cheques, Alma installments and the description printed on the invoice.
package payment

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/diewo77/literie-pos/internal/money"
)

const (
	// DefaultMinDepositPercent is the acompte floor used when the caller gives none.
	DefaultMinDepositPercent = 10.0

	MinCheques = 1
	MaxCheques = 10

	MinAlmaInstallments = 2
	MaxAlmaInstallments = 4
)

// ClampCheques bounds a cheque count to [MinCheques, MaxCheques].
func ClampCheques(n int) int {
	return clampInt(n, MinCheques, MaxCheques)
}

// ClampAlmaInstallments bounds an installment count to [MinAlmaInstallments, MaxAlmaInstallments].
func ClampAlmaInstallments(n int) int {
	return clampInt(n, MinAlmaInstallments, MaxAlmaInstallments)
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// ChequePlan is the optimizer's answer: a deposit carrying every cent and
// Count cheques of PerCheque whole euros.
type ChequePlan struct {
	Deposit        float64 `json:"deposit"`
	PerCheque      float64 `json:"per_cheque"`
	Count          int     `json:"count"`
	DepositMinimum float64 `json:"deposit_minimum"`
}

// ChequesTotal is PerCheque × Count.
func (p ChequePlan) ChequesTotal() float64 {
	return money.Decimal(p.PerCheque).Mul(decimal.NewFromInt(int64(p.Count))).InexactFloat64()
}

// OptimizeCheques splits total into an acompte and count whole-euro cheques.
// The acompte is at least ceil(total × minDepositPct/100); minDepositPct <= 0 means
// DefaultMinDepositPercent, as does NaN. A non-positive or non-finite total,
// or a non-positive count, gives the zero plan.
func OptimizeCheques(total float64, count int, minDepositPct float64) ChequePlan {
	if !money.Finite(total) || total <= 0 || count <= 0 {
		return ChequePlan{}
	}
	if count > MaxCheques {
		count = MaxCheques
	}
	if math.IsNaN(minDepositPct) || minDepositPct <= 0 {
		minDepositPct = DefaultMinDepositPercent
	}
	if minDepositPct > 100 {
		minDepositPct = 100
	}

	t := money.Decimal(total)
	n := decimal.NewFromInt(int64(count))
	minimum := t.Mul(money.Decimal(minDepositPct)).Div(decimal.NewFromInt(100)).Ceil()
	if minimum.GreaterThan(t) {
		minimum = t
	}

	perCheque := t.Div(n).Floor()
	deposit := t.Sub(perCheque.Mul(n))
	if deposit.LessThan(minimum) {
		deposit = minimum
		perCheque = t.Sub(deposit).Div(n).Floor()
		if perCheque.IsNegative() {
			perCheque = decimal.Zero
		}
		// Whatever does not divide evenly goes on the deposit.
		deposit = deposit.Add(t.Sub(deposit).Sub(perCheque.Mul(n)))
	}

	return ChequePlan{
		Deposit:        deposit.Round(2).InexactFloat64(),
		PerCheque:      perCheque.InexactFloat64(),
		Count:          count,
		DepositMinimum: minimum.InexactFloat64(),
	}
}

// SuggestedDepositPercents are the acompte shares offered to the customer.
var SuggestedDepositPercents = []float64{20, 25, 30, 40, 50}

// DepositSuggestion is one candidate acompte for a given cheque count.
type DepositSuggestion struct {
	Percent   float64 `json:"percent"`
	Deposit   float64 `json:"deposit"`
	Remaining float64 `json:"remaining"`
	PerCheque float64 `json:"per_cheque"`
	// Remainder is Remaining modulo the cheque count: 0 means an even split.
	Remainder float64 `json:"remainder"`
}

// SuggestDeposits evaluates SuggestedDepositPercents and orders them by ascending
// remainder; equal remainders keep the percent order.
func SuggestDeposits(total float64, count int) []DepositSuggestion {
	if !money.Finite(total) || total <= 0 || count <= 0 {
		return nil
	}
	count = ClampCheques(count)
	t := money.Decimal(total)
	n := decimal.NewFromInt(int64(count))
	out := make([]DepositSuggestion, 0, len(SuggestedDepositPercents))
	for _, pct := range SuggestedDepositPercents {
		deposit := t.Mul(money.Decimal(pct)).Div(decimal.NewFromInt(100)).Round(2)
		remaining := t.Sub(deposit)
		out = append(out, DepositSuggestion{
			Percent:   pct,
			Deposit:   deposit.InexactFloat64(),
			Remaining: remaining.InexactFloat64(),
			PerCheque: remaining.Div(n).Round(2).InexactFloat64(),
			Remainder: remaining.Mod(n).Round(2).InexactFloat64(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Remainder < out[j].Remainder })
	return out
}

// AlmaPlan splits remaining into n installments rounded to the cent; the
// rounding difference lands on the first one so the sum is exact.
func AlmaPlan(remaining float64, n int) []float64 {
	if !money.Finite(remaining) || remaining <= 0 || n <= 0 {
		return nil
	}
	n = ClampAlmaInstallments(n)
	r := money.Decimal(remaining).Round(2)
	each := r.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	first := r.Sub(each.Mul(decimal.NewFromInt(int64(n - 1))))
	plan := make([]float64, n)
	plan[0] = first.InexactFloat64()
	for i := 1; i < n; i++ {
		plan[i] = each.InexactFloat64()
	}
	return plan
}

// remainingAfter returns max(0, total-deposit) rounded to the cent.
func remainingAfter(total, deposit float64) float64 {
	return math.Max(0, money.Decimal(total).Sub(money.Decimal(deposit)).Round(2).InexactFloat64())
}
