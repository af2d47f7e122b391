package taxform

import "github.com/shopspring/decimal"

// Line identifies a primitive accumulated line on the standardized income
// tax form. Derived lines (total income, AGI, taxable income, liability,
// refund/owed) are never stored: they are recomputed in full from these
// primitives on every Compute call.
type Line string

const (
	LineWages              Line = "wages"               // 1040 line 1a
	LineTaxExemptInterest  Line = "tax_exempt_interest" // 2a
	LineTaxableInterest    Line = "taxable_interest"    // 2b
	LineQualifiedDividends Line = "qualified_dividends" // 3a (informational)
	LineOrdinaryDividends  Line = "ordinary_dividends"  // 3b
	LineCapitalGain        Line = "capital_gain"        // 7
	LineOtherIncome        Line = "other_income"        // 8, via Schedule 1
	LineAdjustments        Line = "adjustments"         // 10
	LineQBIDeduction       Line = "qbi_deduction"       // 13
	LineOtherTaxes         Line = "other_taxes"         // 23
	LineWithholding        Line = "federal_withholding" // 25
	LineEstimatedPayments  Line = "estimated_payments"  // 26
)

// primaryIncomeLines sum into total income, in form order.
var primaryIncomeLines = []Line{
	LineWages,
	LineTaxableInterest,
	LineOrdinaryDividends,
	LineCapitalGain,
	LineOtherIncome,
}

// paymentLines sum into total payments.
var paymentLines = []Line{LineWithholding, LineEstimatedPayments}

// Schedule names a side ledger fed by route operations instead of a primary
// form line.
type Schedule string

const (
	ScheduleItemizedDeductions Schedule = "itemized_deductions"
	ScheduleForeignTaxCredit   Schedule = "foreign_tax_credit"
)

// FormState accumulates primitive line amounts for one filer. It is a plain
// accumulator with no internal locking; callers serialize access per filer
// (see service.returnLocks).
type FormState struct {
	lines     map[Line]decimal.Decimal
	schedules map[Schedule]decimal.Decimal
}

// NewFormState creates an empty accumulator.
func NewFormState() *FormState {
	return &FormState{
		lines:     make(map[Line]decimal.Decimal),
		schedules: make(map[Schedule]decimal.Decimal),
	}
}

// Line returns the accumulated amount for a line (zero when untouched).
func (s *FormState) Line(l Line) decimal.Decimal {
	return s.lines[l]
}

// Schedule returns the accumulated amount for a side schedule.
func (s *FormState) Schedule(sch Schedule) decimal.Decimal {
	return s.schedules[sch]
}

// Add accumulates into a line. Multiple documents of the same category sum;
// nothing ever overwrites.
func (s *FormState) Add(l Line, amt decimal.Decimal) {
	s.lines[l] = s.lines[l].Add(amt)
}

// Subtract reduces a line, floored at zero: a reduction field must never
// drive its target negative.
func (s *FormState) Subtract(l Line, amt decimal.Decimal) {
	v := s.lines[l].Sub(amt)
	if v.IsNegative() {
		v = decimal.Zero
	}
	s.lines[l] = v
}

// Set replaces a line's amount.
func (s *FormState) Set(l Line, amt decimal.Decimal) {
	s.lines[l] = amt
}

// Route accumulates into a side schedule.
func (s *FormState) Route(sch Schedule, amt decimal.Decimal) {
	s.schedules[sch] = s.schedules[sch].Add(amt)
}
