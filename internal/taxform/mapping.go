package taxform

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"taxline/internal/domain"
	"taxline/internal/extract"
)

// Operation is what a mapping rule does with its source value.
type Operation string

const (
	OpAdd      Operation = "add"
	OpSubtract Operation = "subtract"
	OpSet      Operation = "set"
	OpRoute    Operation = "route" // post to a side schedule instead of a line
)

// MappingRule declares how one canonical field lands on the form. Rules are
// data, not code branches: category tables share a single engine.
type MappingRule struct {
	SourceField string
	TargetLine  Line
	Op          Operation
	Schedule    Schedule // route target, when Op == OpRoute
	Description string
}

var mappingRules = map[domain.DocumentCategory][]MappingRule{
	domain.CategoryW2: {
		{SourceField: extract.FieldWages, TargetLine: LineWages, Op: OpAdd, Description: "Wages, tips, other compensation"},
		{SourceField: extract.FieldFederalTaxWithheld, TargetLine: LineWithholding, Op: OpAdd, Description: "Federal income tax withheld"},
	},
	domain.Category1099INT: {
		{SourceField: extract.FieldInterestIncome, TargetLine: LineTaxableInterest, Op: OpAdd, Description: "Interest income"},
		{SourceField: extract.FieldSavingsBondInterest, TargetLine: LineTaxableInterest, Op: OpAdd, Description: "US savings bond and Treasury interest"},
		// Bond premium reduces taxable interest but may never drive it negative.
		{SourceField: extract.FieldBondPremium, TargetLine: LineTaxableInterest, Op: OpSubtract, Description: "Bond premium adjustment"},
		{SourceField: extract.FieldTaxExemptInterest, TargetLine: LineTaxExemptInterest, Op: OpAdd, Description: "Tax-exempt interest"},
		{SourceField: extract.FieldEarlyWithdrawalPenalty, TargetLine: LineAdjustments, Op: OpAdd, Description: "Early withdrawal penalty adjustment"},
		{SourceField: extract.FieldFederalTaxWithheld, TargetLine: LineWithholding, Op: OpAdd, Description: "Federal income tax withheld"},
		{SourceField: extract.FieldForeignTaxPaid, Op: OpRoute, Schedule: ScheduleForeignTaxCredit, Description: "Foreign tax paid"},
	},
	domain.Category1099DIV: {
		{SourceField: extract.FieldOrdinaryDividends, TargetLine: LineOrdinaryDividends, Op: OpAdd, Description: "Total ordinary dividends"},
		{SourceField: extract.FieldQualifiedDividends, TargetLine: LineQualifiedDividends, Op: OpAdd, Description: "Qualified dividends"},
		{SourceField: extract.FieldCapitalGainDistributions, TargetLine: LineCapitalGain, Op: OpAdd, Description: "Total capital gain distributions"},
		{SourceField: extract.FieldFederalTaxWithheld, TargetLine: LineWithholding, Op: OpAdd, Description: "Federal income tax withheld"},
		{SourceField: extract.FieldForeignTaxPaid, Op: OpRoute, Schedule: ScheduleForeignTaxCredit, Description: "Foreign tax paid"},
	},
	domain.Category1099MISC: {
		{SourceField: extract.FieldRents, TargetLine: LineOtherIncome, Op: OpAdd, Description: "Rents"},
		{SourceField: extract.FieldRoyalties, TargetLine: LineOtherIncome, Op: OpAdd, Description: "Royalties"},
		{SourceField: extract.FieldOtherIncome, TargetLine: LineOtherIncome, Op: OpAdd, Description: "Other income"},
		{SourceField: extract.FieldFederalTaxWithheld, TargetLine: LineWithholding, Op: OpAdd, Description: "Federal income tax withheld"},
	},
	domain.Category1099NEC: {
		{SourceField: extract.FieldNonemployeeCompensation, TargetLine: LineOtherIncome, Op: OpAdd, Description: "Nonemployee compensation"},
		{SourceField: extract.FieldFederalTaxWithheld, TargetLine: LineWithholding, Op: OpAdd, Description: "Federal income tax withheld"},
	},
}

// Rules returns the mapping table for a category.
func Rules(cat domain.DocumentCategory) []MappingRule {
	return mappingRules[cat]
}

// MappingEntry is one applied rule, for audit/UI display.
type MappingEntry struct {
	Field       string          `json:"field"`
	Target      string          `json:"target"`
	Op          Operation       `json:"op"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// MappingSummary is the human-readable record of one document's mapping.
type MappingSummary struct {
	Category domain.DocumentCategory `json:"category"`
	Entries  []MappingEntry          `json:"entries"`
}

// ValidationError reports that a document carries no usable income data:
// none of its category's mapped numeric fields were present. It enumerates
// the fields that were expected, so a reviewer knows what to supply.
type ValidationError struct {
	Category domain.DocumentCategory
	Missing  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("no usable income data in %s document; missing fields: %s",
		e.Category, strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Unwrap() error { return domain.ErrNoUsableData }

// Apply maps one extracted document onto the form state. Deltas are
// resolved fully in memory before any mutation, so a failed or cancelled
// apply leaves the state untouched. Returns the mapping summary plus any
// document-level issues; a ValidationError means nothing was applied.
//
// The caller triggers a full recompute afterwards — mapping never patches
// derived totals incrementally.
func Apply(state *FormState, doc *domain.ExtractedDocument) (*MappingSummary, []domain.Issue, error) {
	rules := Rules(doc.Category)
	if rules == nil {
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, doc.Category)
	}

	type delta struct {
		rule   MappingRule
		amount decimal.Decimal
	}
	var deltas []delta
	var missing []string
	for _, rule := range rules {
		amt, ok := doc.AmountOf(rule.SourceField)
		if !ok {
			missing = append(missing, rule.SourceField)
			continue
		}
		deltas = append(deltas, delta{rule: rule, amount: amt})
	}

	if len(deltas) == 0 {
		return nil, nil, &ValidationError{Category: doc.Category, Missing: missing}
	}

	summary := &MappingSummary{Category: doc.Category}
	primaryTouched := false
	for _, dl := range deltas {
		target := string(dl.rule.TargetLine)
		switch dl.rule.Op {
		case OpAdd:
			state.Add(dl.rule.TargetLine, dl.amount)
		case OpSubtract:
			state.Subtract(dl.rule.TargetLine, dl.amount)
		case OpSet:
			state.Set(dl.rule.TargetLine, dl.amount)
		case OpRoute:
			state.Route(dl.rule.Schedule, dl.amount)
			target = string(dl.rule.Schedule)
		}
		if isPrimaryLine(dl.rule.TargetLine) && dl.rule.Op != OpRoute && !dl.amount.IsZero() {
			primaryTouched = true
		}
		summary.Entries = append(summary.Entries, MappingEntry{
			Field:       dl.rule.SourceField,
			Target:      target,
			Op:          dl.rule.Op,
			Amount:      dl.amount,
			Description: dl.rule.Description,
		})
	}

	var issues []domain.Issue
	if !primaryTouched {
		issues = append(issues, domain.Issue{
			Kind:    domain.IssueValidationFailed,
			Message: "no income data found: no primary income line changed",
		})
	}
	return summary, issues, nil
}

func isPrimaryLine(l Line) bool {
	for _, p := range primaryIncomeLines {
		if p == l {
			return true
		}
	}
	return false
}
