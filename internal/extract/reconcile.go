package extract

import (
	"github.com/shopspring/decimal"

	"taxline/internal/domain"
)

// Outcome tags the reconciliation result for one critical field. Keeping the
// rule table as a tagged variant instead of nested conditionals makes it
// exhaustive and testable in isolation.
type Outcome string

const (
	OutcomeMatch          Outcome = "match"           // both sources agree within threshold
	OutcomeStructuredOnly Outcome = "structured_only" // text pattern found nothing
	OutcomeTextOnly       Outcome = "text_only"       // structured reader found nothing
	OutcomeConflict       Outcome = "conflict"        // both present, differ beyond threshold
	OutcomeSwap           Outcome = "swap"            // adjacent-pair swap signature
)

// FieldOutcome is the per-field reconciliation decision.
type FieldOutcome struct {
	Field      string
	Outcome    Outcome
	Structured *decimal.Decimal
	Text       *decimal.Decimal
}

// Reconcile merges the structured reader's partial result with the
// text-pattern partial result. For every field, a value missing from the
// structured side is filled from the text side. For the category's critical
// numeric fields, a conflict beyond the absolute threshold is resolved in
// favor of the text-pattern value — it reads positionally from the document
// layout and is treated as ground truth. A second pass walks adjacent
// critical pairs in box order looking for the swap signature
// (structured[A]≈text[B] and structured[B]≈text[A]) and corrects both
// simultaneously. The threshold is an absolute currency amount, not a
// percentage: small-dollar boxes are as error-prone as large ones.
//
// Reconcile is commutative over which source produced a value first: the
// final map depends only on the pair of inputs.
func Reconcile(
	structured, textual map[string]domain.ExtractionField,
	cat domain.DocumentCategory,
	threshold decimal.Decimal,
) (map[string]domain.ExtractionField, []domain.Correction, []FieldOutcome) {
	final := make(map[string]domain.ExtractionField, len(structured)+len(textual))
	for name, f := range structured {
		final[name] = f
	}
	for name, f := range textual {
		if _, ok := final[name]; !ok {
			final[name] = f
		}
	}

	critical := CriticalAmountFields(cat)
	outcomes := make([]FieldOutcome, 0, len(critical))
	for _, name := range critical {
		outcomes = append(outcomes, classifyField(name, structured, textual, threshold))
	}

	markSwaps(outcomes, threshold)

	var corrections []domain.Correction
	for _, oc := range outcomes {
		switch oc.Outcome {
		case OutcomeConflict, OutcomeSwap:
			before := *oc.Structured
			after := *oc.Text
			final[oc.Field] = domain.AmountField(oc.Field, after, domain.SourceTextPattern, textPatternConfidence)
			corrections = append(corrections, domain.Correction{
				Field:  oc.Field,
				Before: before,
				After:  after,
				Reason: string(oc.Outcome),
			})
		}
	}

	return final, corrections, outcomes
}

func classifyField(name string, structured, textual map[string]domain.ExtractionField, threshold decimal.Decimal) FieldOutcome {
	oc := FieldOutcome{Field: name}
	if sf, ok := structured[name]; ok && sf.Amount != nil {
		oc.Structured = sf.Amount
	}
	if tf, ok := textual[name]; ok && tf.Amount != nil {
		oc.Text = tf.Amount
	}

	switch {
	case oc.Structured == nil && oc.Text == nil:
		oc.Outcome = OutcomeMatch // nothing to reconcile; absence stays absent
	case oc.Structured == nil:
		oc.Outcome = OutcomeTextOnly
	case oc.Text == nil:
		oc.Outcome = OutcomeStructuredOnly
	case withinThreshold(*oc.Structured, *oc.Text, threshold):
		oc.Outcome = OutcomeMatch
	default:
		oc.Outcome = OutcomeConflict
	}
	return oc
}

// markSwaps upgrades adjacent conflict pairs to swaps when each side's
// structured value matches the other side's text value within the threshold.
func markSwaps(outcomes []FieldOutcome, threshold decimal.Decimal) {
	for i := 0; i+1 < len(outcomes); i++ {
		a, b := &outcomes[i], &outcomes[i+1]
		if a.Outcome != OutcomeConflict || b.Outcome != OutcomeConflict {
			continue
		}
		if withinThreshold(*a.Structured, *b.Text, threshold) && withinThreshold(*b.Structured, *a.Text, threshold) {
			a.Outcome = OutcomeSwap
			b.Outcome = OutcomeSwap
		}
	}
}

func withinThreshold(a, b, threshold decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(threshold)
}
