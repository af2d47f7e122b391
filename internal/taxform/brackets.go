package taxform

import (
	"github.com/shopspring/decimal"

	"taxline/internal/domain"
)

// Bracket is one rung of a progressive schedule. Brackets are contiguous
// and non-overlapping, covering [0, ∞); the top bracket has Unbounded set.
type Bracket struct {
	Lower     decimal.Decimal
	Upper     decimal.Decimal
	Rate      decimal.Decimal
	Unbounded bool
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func rate(pct string) decimal.Decimal { return decimal.RequireFromString(pct) }

func schedule(bounds []int64, rates []string) []Bracket {
	brackets := make([]Bracket, 0, len(rates))
	lower := decimal.Zero
	for i, r := range rates {
		b := Bracket{Lower: lower, Rate: rate(r)}
		if i < len(bounds) {
			b.Upper = d(bounds[i])
			lower = b.Upper
		} else {
			b.Unbounded = true
		}
		brackets = append(brackets, b)
	}
	return brackets
}

var rates2023 = []string{"0.10", "0.12", "0.22", "0.24", "0.32", "0.35", "0.37"}

// bracketSchedules holds the 2023 progressive schedules per filing status.
var bracketSchedules = map[domain.FilingStatus][]Bracket{
	domain.FilingSingle:          schedule([]int64{11_000, 44_725, 95_375, 182_100, 231_250, 578_125}, rates2023),
	domain.FilingMarriedJoint:    schedule([]int64{22_000, 89_450, 190_750, 364_200, 462_500, 693_750}, rates2023),
	domain.FilingMarriedSeparate: schedule([]int64{11_000, 44_725, 95_375, 182_100, 231_250, 346_875}, rates2023),
	domain.FilingHeadOfHousehold: schedule([]int64{15_700, 59_850, 95_350, 182_100, 231_250, 578_100}, rates2023),
}

// standardDeductions holds the 2023 standard deduction per filing status.
var standardDeductions = map[domain.FilingStatus]decimal.Decimal{
	domain.FilingSingle:          d(13_850),
	domain.FilingMarriedJoint:    d(27_700),
	domain.FilingMarriedSeparate: d(13_850),
	domain.FilingHeadOfHousehold: d(20_800),
}

// Brackets returns the schedule for a filing status, defaulting to single
// for an unrecognized status.
func Brackets(status domain.FilingStatus) []Bracket {
	if b, ok := bracketSchedules[status]; ok {
		return b
	}
	return bracketSchedules[domain.FilingSingle]
}

// StandardDeduction returns the standard deduction for a filing status.
func StandardDeduction(status domain.FilingStatus) decimal.Decimal {
	if v, ok := standardDeductions[status]; ok {
		return v
	}
	return standardDeductions[domain.FilingSingle]
}
