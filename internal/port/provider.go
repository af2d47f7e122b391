package port

import (
	"context"

	"taxline/internal/domain"
)

// ExtractInput carries one document to the structured-extraction provider.
type ExtractInput struct {
	FileBytes    []byte
	ContentType  string
	CategoryHint domain.DocumentCategory
	// TextOnly requests the provider's lower-fidelity degraded mode:
	// raw recognized text without labeled fields.
	TextOnly bool
}

// ExtractOutput is the provider's result. LabeledFields values may be
// primitives or wrapper objects exposing "value" or "content"; the amount
// normalizer unwraps them.
type ExtractOutput struct {
	RawText       string
	LabeledFields map[string]interface{}
	ModelUsed     string
}

// DocumentProvider abstracts the external OCR / forms-understanding service.
type DocumentProvider interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
