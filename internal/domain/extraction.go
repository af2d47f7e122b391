package domain

import "github.com/shopspring/decimal"

// ExtractionField is one reconciled data point for a document. Exactly one
// of Amount and Text carries the value: Amount for numeric canonical fields,
// Text for identifiers, names, and addresses.
type ExtractionField struct {
	Name       string           `json:"name"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Text       string           `json:"text,omitempty"`
	Source     FieldSource      `json:"source"`
	Confidence float64          `json:"confidence"`
}

// AmountField builds a numeric ExtractionField.
func AmountField(name string, amount decimal.Decimal, source FieldSource, confidence float64) ExtractionField {
	return ExtractionField{Name: name, Amount: &amount, Source: source, Confidence: confidence}
}

// TextField builds a textual ExtractionField.
func TextField(name, text string, source FieldSource, confidence float64) ExtractionField {
	return ExtractionField{Name: name, Text: text, Source: source, Confidence: confidence}
}

// Address is a parsed postal address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// EntityRecord is one detected person block in a document that contains more
// than one person's data. Exactly one record is selected as primary.
type EntityRecord struct {
	Name       string  `json:"name"`
	Identifier string  `json:"identifier,omitempty"`
	Address    Address `json:"address"`
	Confidence float64 `json:"confidence"`
}

// ExtractedDocument is the final result of one extraction pass. It is
// replaced wholesale on reprocessing, never partially patched.
type ExtractedDocument struct {
	Category      DocumentCategory           `json:"category"`
	Fields        map[string]ExtractionField `json:"fields"`
	RawText       string                     `json:"-"`
	Entities      []EntityRecord             `json:"entities,omitempty"`
	PrimaryEntity int                        `json:"primary_entity"` // index into Entities, -1 when none
}

// Field returns the named field and whether it is present. A present field
// with a zero amount is distinct from an absent field.
func (d *ExtractedDocument) Field(name string) (ExtractionField, bool) {
	f, ok := d.Fields[name]
	return f, ok
}

// AmountOf returns the numeric value of a field, or false if the field is
// absent or textual.
func (d *ExtractedDocument) AmountOf(name string) (decimal.Decimal, bool) {
	f, ok := d.Fields[name]
	if !ok || f.Amount == nil {
		return decimal.Decimal{}, false
	}
	return *f.Amount, true
}

// Issue is a non-fatal condition observed during extraction or mapping.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

// Correction records a reconciliation override for observability.
type Correction struct {
	Field  string          `json:"field"`
	Before decimal.Decimal `json:"before"`
	After  decimal.Decimal `json:"after"`
	Reason string          `json:"reason"`
}
