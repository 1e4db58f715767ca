package pipeline

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/carledger/internal/model"
)

var hundredthsOfPercent = decimal.NewFromInt(10_000)

// total accumulates amounts in decimal so long sums don't drift.
type total struct {
	d decimal.Decimal
}

// add ignores NaN and infinities, which decimal cannot represent.
func (t *total) add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	t.d = t.d.Add(decimal.NewFromFloat(v))
}

func (t total) float() float64 {
	return t.d.InexactFloat64()
}

// ledger sums amounts per key.
type ledger map[string]*total

func (l ledger) add(key string, v float64) {
	t, ok := l[key]
	if !ok {
		t = &total{}
		l[key] = t
	}
	t.add(v)
}

func (l ledger) sum() decimal.Decimal {
	var s decimal.Decimal
	for _, t := range l {
		s = s.Add(t.d)
	}
	return s
}

// shares converts per-key amounts into percentages of their sum. Rounding to
// two decimals happens last, with the largest remainder method, so the
// percentages add up to exactly 100 whenever the sum is positive. The result
// is sorted by amount descending, then key.
func (l ledger) shares() []model.CategoryShare {
	sum := l.sum()

	type part struct {
		key   string
		amt   decimal.Decimal
		units int64
		rem   decimal.Decimal
	}
	parts := make([]part, 0, len(l))
	var allotted int64
	for k, t := range l {
		p := part{key: k, amt: t.d}
		if sum.IsPositive() {
			raw := t.d.Mul(hundredthsOfPercent).Div(sum)
			fl := raw.Floor()
			p.units = fl.IntPart()
			p.rem = raw.Sub(fl)
			allotted += p.units
		}
		parts = append(parts, p)
	}

	if sum.IsPositive() {
		sort.Slice(parts, func(i, j int) bool {
			if c := parts[i].rem.Cmp(parts[j].rem); c != 0 {
				return c > 0
			}
			return parts[i].key < parts[j].key
		})
		for i := 0; allotted < hundredthsOfPercent.IntPart() && len(parts) > 0; i = (i + 1) % len(parts) {
			parts[i].units++
			allotted++
		}
	}

	out := make([]model.CategoryShare, 0, len(parts))
	for _, p := range parts {
		out = append(out, model.CategoryShare{
			Category: p.key,
			Amount:   p.amt.InexactFloat64(),
			Percent:  decimal.New(p.units, -2).InexactFloat64(),
		})
	}
	sortShares(out)
	return out
}

func sortShares(s []model.CategoryShare) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Amount != s[j].Amount {
			return s[i].Amount > s[j].Amount
		}
		return s[i].Category < s[j].Category
	})
}

// ratio divides with a zero-denominator-is-zero policy.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
