package taxform

import (
	"github.com/shopspring/decimal"

	"taxline/internal/domain"
)

// DerivedTotals is the bottom half of the return: everything computed from
// the accumulated line state. All values are rounded to cents.
type DerivedTotals struct {
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	AdjustedGross     decimal.Decimal `json:"adjustedGrossIncome"`
	Deduction         decimal.Decimal `json:"deduction"`
	DeductionKind     string          `json:"deductionKind"` // "standard" or "itemized"
	TaxableIncome     decimal.Decimal `json:"taxableIncome"`
	TaxBeforeOther    decimal.Decimal `json:"taxBeforeOther"`
	TotalTax          decimal.Decimal `json:"totalTax"`
	TotalPayments     decimal.Decimal `json:"totalPayments"`
	RefundAmount      decimal.Decimal `json:"refundAmount"`
	AmountOwed        decimal.Decimal `json:"amountOwed"`
	ForeignTaxCredit  decimal.Decimal `json:"foreignTaxCredit"`
	TaxExemptInterest decimal.Decimal `json:"taxExemptInterest"`
}

// Compute derives the return totals from the line state. It is a pure
// function of (state, status): recomputing from the same inputs always
// yields the same totals, and it never mutates the state.
func Compute(state *FormState, status domain.FilingStatus) DerivedTotals {
	var totals DerivedTotals

	totalIncome := decimal.Zero
	for _, line := range primaryIncomeLines {
		totalIncome = totalIncome.Add(state.Line(line))
	}
	totals.TotalIncome = totalIncome.Round(2)

	agi := totalIncome.Sub(state.Line(LineAdjustments))
	if agi.IsNegative() {
		agi = decimal.Zero
	}
	totals.AdjustedGross = agi.Round(2)

	standard := StandardDeduction(status)
	itemized := state.Schedule(ScheduleItemizedDeductions)
	deduction := standard
	totals.DeductionKind = "standard"
	if itemized.GreaterThan(standard) {
		deduction = itemized
		totals.DeductionKind = "itemized"
	}
	totals.Deduction = deduction.Round(2)

	taxable := agi.Sub(deduction).Sub(state.Line(LineQBIDeduction))
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	totals.TaxableIncome = taxable.Round(2)

	tax := bracketTax(taxable, status)
	totals.TaxBeforeOther = tax

	totalTax := tax.Add(state.Line(LineOtherTaxes)).Round(2)
	totals.TotalTax = totalTax

	payments := decimal.Zero
	for _, line := range paymentLines {
		payments = payments.Add(state.Line(line))
	}
	totals.TotalPayments = payments.Round(2)

	if payments.GreaterThanOrEqual(totalTax) {
		totals.RefundAmount = payments.Sub(totalTax).Round(2)
		totals.AmountOwed = decimal.Zero
	} else {
		totals.AmountOwed = totalTax.Sub(payments).Round(2)
		totals.RefundAmount = decimal.Zero
	}

	totals.ForeignTaxCredit = state.Schedule(ScheduleForeignTaxCredit).Round(2)
	totals.TaxExemptInterest = state.Line(LineTaxExemptInterest).Round(2)
	return totals
}

// bracketTax walks the progressive schedule: each bracket taxes the slice
// of income between its bounds at its rate. Result is rounded half-up to
// cents once, after summing slices.
func bracketTax(taxable decimal.Decimal, status domain.FilingStatus) decimal.Decimal {
	if taxable.IsZero() || taxable.IsNegative() {
		return decimal.Zero
	}
	tax := decimal.Zero
	for _, b := range Brackets(status) {
		if taxable.LessThanOrEqual(b.Lower) {
			break
		}
		upper := b.Upper
		if b.Unbounded || taxable.LessThan(upper) {
			upper = taxable
		}
		slice := upper.Sub(b.Lower)
		tax = tax.Add(slice.Mul(b.Rate))
	}
	return tax.Round(2)
}
