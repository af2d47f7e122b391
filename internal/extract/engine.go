package extract

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"taxline/internal/classify"
	"taxline/internal/domain"
	"taxline/internal/port"
)

// Config holds the engine's tunables.
type Config struct {
	// ReconcileThreshold is the absolute currency difference beyond which
	// the text-pattern value overrides the structured value.
	ReconcileThreshold decimal.Decimal
	// ProviderTimeout bounds each provider call.
	ProviderTimeout time.Duration
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		ReconcileThreshold: decimal.NewFromInt(1),
		ProviderTimeout:    60 * time.Second,
	}
}

// Engine runs the full extraction pass for one document: provider call with
// text-only degradation, classification, structured read, text-pattern
// fallback, and reconciliation. Extraction is side-effect-free apart from
// the provider call; the result is built fully in memory, so a cancelled
// extraction leaves nothing behind.
type Engine struct {
	provider port.DocumentProvider
	cfg      Config
}

// NewEngine creates an extraction engine.
func NewEngine(provider port.DocumentProvider, cfg Config) *Engine {
	if cfg.ReconcileThreshold.IsZero() {
		cfg.ReconcileThreshold = DefaultConfig().ReconcileThreshold
	}
	if cfg.ProviderTimeout == 0 {
		cfg.ProviderTimeout = DefaultConfig().ProviderTimeout
	}
	return &Engine{provider: provider, cfg: cfg}
}

// Input is one document to extract.
type Input struct {
	FileBytes    []byte
	ContentType  string
	CategoryHint domain.DocumentCategory
	// TargetName steers multi-entity selection toward the filer.
	TargetName string
}

// Result is the outcome of one extraction pass. Issues are collected, not
// raised: the caller decides whether to accept partial data.
type Result struct {
	Document    *domain.ExtractedDocument
	Issues      []domain.Issue
	Corrections []domain.Correction
	// Degraded is set when the provider fell back to text-only mode.
	Degraded bool
	// StructuredEmpty distinguishes "provider succeeded but populated
	// nothing" from a degraded provider.
	StructuredEmpty bool
}

// Extract runs the pipeline. Only a provider failure that leaves no raw text
// at all is terminal; everything else degrades to a partial result.
func (e *Engine) Extract(ctx context.Context, input Input) (*Result, error) {
	res := &Result{}

	out, err := e.callProvider(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("extracting document: %w", err)
	}
	if out.degraded {
		res.Degraded = true
		res.Issues = append(res.Issues, domain.Issue{
			Kind:    domain.IssueProviderUnavailable,
			Message: "structured extraction unavailable; recovered via text-only mode",
		})
	}

	category := e.resolveCategory(out.output.RawText, input.CategoryHint, res)

	structured := ReadStructured(out.output.LabeledFields, category)
	if !out.degraded && len(structured) == 0 {
		res.StructuredEmpty = true
	}

	// The text-pattern pass runs whenever raw text is available, even when
	// structured extraction succeeded: reconciliation needs both readings.
	textual, entities, primary := ReadTextPatterns(out.output.RawText, category, input.TargetName)

	fields, corrections, _ := Reconcile(structured, textual, category, e.cfg.ReconcileThreshold)
	res.Corrections = corrections
	for _, c := range corrections {
		log.Printf("extract.Engine: corrected %s: %s -> %s (%s)", c.Field, c.Before, c.After, c.Reason)
	}

	for _, name := range CriticalAmountFields(category) {
		if _, ok := fields[name]; !ok {
			res.Issues = append(res.Issues, domain.Issue{
				Kind:    domain.IssueExtractionIncomplete,
				Field:   name,
				Message: fmt.Sprintf("critical field %s absent after structured and fallback extraction", name),
			})
		}
	}

	res.Document = &domain.ExtractedDocument{
		Category:      category,
		Fields:        fields,
		RawText:       out.output.RawText,
		Entities:      entities,
		PrimaryEntity: primary,
	}
	return res, nil
}

type providerResult struct {
	output   *port.ExtractOutput
	degraded bool
}

// callProvider invokes the provider with a bounded timeout, retrying once in
// text-only mode before surfacing failure.
func (e *Engine) callProvider(ctx context.Context, input Input) (*providerResult, error) {
	pctx, cancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
	defer cancel()

	out, err := e.provider.Extract(pctx, port.ExtractInput{
		FileBytes:    input.FileBytes,
		ContentType:  input.ContentType,
		CategoryHint: input.CategoryHint,
	})
	if err == nil {
		return &providerResult{output: out}, nil
	}
	log.Printf("extract.Engine: structured extraction failed (%v), retrying text-only", err)

	tctx, tcancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
	defer tcancel()

	out, terr := e.provider.Extract(tctx, port.ExtractInput{
		FileBytes:    input.FileBytes,
		ContentType:  input.ContentType,
		CategoryHint: input.CategoryHint,
		TextOnly:     true,
	})
	if terr != nil {
		return nil, fmt.Errorf("%w: structured: %v; text-only: %v", domain.ErrProviderUnavailable, err, terr)
	}
	return &providerResult{output: out, degraded: true}, nil
}

// resolveCategory confirms or overrides the caller's hint against the
// classifier. The classifier's verdict wins on disagreement; an unknown
// verdict defers to a valid hint.
func (e *Engine) resolveCategory(rawText string, hint domain.DocumentCategory, res *Result) domain.DocumentCategory {
	cls := classify.Classify(rawText)

	if cls.Category == domain.CategoryUnknown {
		if hint.Valid() && hint != domain.CategoryUnknown {
			return hint
		}
		return domain.CategoryUnknown
	}

	if hint.Valid() && hint != domain.CategoryUnknown && hint != cls.Category {
		res.Issues = append(res.Issues, domain.Issue{
			Kind: domain.IssueClassificationMismatch,
			Message: fmt.Sprintf("caller hint %q overridden by classified category %q (confidence %.2f)",
				hint, cls.Category, cls.Confidence),
		})
	}
	return cls.Category
}
