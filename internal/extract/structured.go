package extract

import (
	"strings"

	"taxline/internal/domain"
	"taxline/internal/normalize"
)

// Confidence assigned per source. Structured values come with positional
// context from the provider's layout model; text-pattern values are
// recovered from the raw stream.
const (
	structuredConfidence  = 0.9
	textPatternConfidence = 0.7
)

// ReadStructured maps a provider's labeled field set onto the canonical
// fields of a category. For each canonical field the alias list is probed in
// priority order and the first alias holding a usable value wins. Absent
// fields stay absent so the fallback layer can act; no value is ever
// invented. An empty or nil labeled set yields an empty map — distinguishing
// "provider failed" from "provider succeeded with nothing" is the caller's
// concern.
func ReadStructured(labeled map[string]interface{}, cat domain.DocumentCategory) map[string]domain.ExtractionField {
	out := make(map[string]domain.ExtractionField)
	if len(labeled) == 0 {
		return out
	}

	// Provider key casing is unreliable; probe case-insensitively.
	lowered := make(map[string]interface{}, len(labeled))
	for k, v := range labeled {
		lowered[strings.ToLower(k)] = v
	}

	for _, spec := range Fields(cat) {
		for _, alias := range Aliases(cat, spec.Name) {
			raw, ok := lowered[strings.ToLower(alias)]
			if !ok || raw == nil {
				continue
			}
			field, ok := normalizeValue(spec, raw)
			if !ok {
				continue
			}
			out[spec.Name] = field
			break
		}
	}
	return out
}

func normalizeValue(spec FieldSpec, raw interface{}) (domain.ExtractionField, bool) {
	switch spec.Kind {
	case KindAmount:
		amt, ok := normalize.Amount(raw)
		if !ok {
			return domain.ExtractionField{}, false
		}
		return domain.AmountField(spec.Name, amt, domain.SourceStructured, structuredConfidence), true
	default:
		text, ok := normalize.Text(raw)
		if !ok {
			return domain.ExtractionField{}, false
		}
		return domain.TextField(spec.Name, text, domain.SourceStructured, structuredConfidence), true
	}
}
