package billing

import "github.com/shopspring/decimal"

// AllocateOverride rescales extended child amounts so they sum to overrideCents. Every
// child but the last receives floor(ext * override / sum); the last absorbs the
// remainder. With a zero child sum the last child receives the whole override.
func AllocateOverride(extended []int64, overrideCents int64) []int64 {
	out := make([]int64, len(extended))
	if len(extended) == 0 {
		return out
	}

	var sum int64
	for _, ext := range extended {
		sum += ext
	}
	last := len(extended) - 1
	if sum == 0 {
		out[last] = overrideCents
		return out
	}

	override := decimal.NewFromInt(overrideCents)
	divisor := decimal.NewFromInt(sum)
	var allocated int64
	for i := 0; i < last; i++ {
		share := floorDiv(decimal.NewFromInt(extended[i]).Mul(override), divisor)
		out[i] = share
		allocated += share
	}
	out[last] = overrideCents - allocated
	return out
}

// floorDiv divides exactly and rounds toward negative infinity. Products beyond the
// int64 range are fine.
func floorDiv(num, den decimal.Decimal) int64 {
	q, r := num.QuoRem(den, 0)
	if !r.IsZero() && r.Sign() != den.Sign() {
		q = q.Sub(decimal.NewFromInt(1))
	}
	return q.IntPart()
}
