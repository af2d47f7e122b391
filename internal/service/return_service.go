package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"taxline/internal/domain"
	"taxline/internal/port"
	"taxline/internal/taxform"
)

// CreateReturnInput is the DTO for opening a new tax return.
type CreateReturnInput struct {
	FilerName    string
	FilingStatus domain.FilingStatus
	TaxYear      int
}

// ReturnService defines the tax return management contract.
type ReturnService interface {
	Create(ctx context.Context, input *CreateReturnInput) (*domain.TaxReturn, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TaxReturn, error)
	List(ctx context.Context, offset, limit int) ([]domain.TaxReturn, int, error)
	UpdateFilingStatus(ctx context.Context, id uuid.UUID, status domain.FilingStatus) (*domain.TaxReturn, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Recompute rebuilds the form state from every extracted document of
	// the return and stores the derived totals. Document mapping summaries
	// are refreshed as a side effect.
	Recompute(ctx context.Context, returnID uuid.UUID) (*domain.TaxReturn, error)
}

// returnLocks serializes mapping and recomputation per return. Applying a
// document and recomputing totals must be atomic with respect to concurrent
// submissions against the same return; different returns never contend.
type returnLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newReturnLocks() *returnLocks {
	return &returnLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *returnLocks) forReturn(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

type returnService struct {
	returnRepo port.TaxReturnRepository
	docRepo    port.DocumentRepository
	locks      *returnLocks
}

// NewReturnService creates a new ReturnService implementation.
func NewReturnService(returnRepo port.TaxReturnRepository, docRepo port.DocumentRepository) ReturnService {
	return &returnService{
		returnRepo: returnRepo,
		docRepo:    docRepo,
		locks:      newReturnLocks(),
	}
}

func (s *returnService) Create(ctx context.Context, input *CreateReturnInput) (*domain.TaxReturn, error) {
	if !input.FilingStatus.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFilingStatus, input.FilingStatus)
	}

	ret := &domain.TaxReturn{
		ID:           uuid.New(),
		FilerName:    input.FilerName,
		FilingStatus: input.FilingStatus,
		TaxYear:      input.TaxYear,
	}
	if err := s.returnRepo.Create(ctx, ret); err != nil {
		return nil, err
	}
	log.Printf("service.ReturnService: created return %s for %q (%s)", ret.ID, ret.FilerName, ret.FilingStatus)
	return ret, nil
}

func (s *returnService) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaxReturn, error) {
	return s.returnRepo.GetByID(ctx, id)
}

func (s *returnService) List(ctx context.Context, offset, limit int) ([]domain.TaxReturn, int, error) {
	return s.returnRepo.List(ctx, offset, limit)
}

// UpdateFilingStatus changes the filing status and recomputes: brackets and
// the standard deduction both depend on it.
func (s *returnService) UpdateFilingStatus(ctx context.Context, id uuid.UUID, status domain.FilingStatus) (*domain.TaxReturn, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFilingStatus, status)
	}

	ret, err := s.returnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ret.FilingStatus = status
	if err := s.returnRepo.UpdateFilingStatus(ctx, ret); err != nil {
		return nil, err
	}
	return s.Recompute(ctx, id)
}

func (s *returnService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.returnRepo.Delete(ctx, id)
}

func (s *returnService) Recompute(ctx context.Context, returnID uuid.UUID) (*domain.TaxReturn, error) {
	lock := s.locks.forReturn(returnID)
	lock.Lock()
	defer lock.Unlock()

	return s.recomputeLocked(ctx, returnID)
}

// recomputeLocked rebuilds the form state from scratch. Full recomputation
// rather than incremental patching makes reprocessing and edits idempotent:
// the stored totals depend only on the current document set.
func (s *returnService) recomputeLocked(ctx context.Context, returnID uuid.UUID) (*domain.TaxReturn, error) {
	ret, err := s.returnRepo.GetByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	docs, err := s.docRepo.ListByReturn(ctx, returnID)
	if err != nil {
		return nil, err
	}

	state := taxform.NewFormState()
	for i := range docs {
		doc := &docs[i]
		if doc.Status != domain.ExtractionExtracted {
			continue
		}
		extracted, err := decodeExtractedDocument(doc)
		if err != nil {
			log.Printf("service.ReturnService: skipping document %s: %v", doc.ID, err)
			continue
		}
		summary, _, err := taxform.Apply(state, extracted)
		if err != nil {
			// Documents with no usable data stay out of the totals;
			// their issues were recorded at extraction time.
			log.Printf("service.ReturnService: document %s not mapped: %v", doc.ID, err)
			continue
		}
		if raw, err := json.Marshal(summary); err == nil {
			doc.MappingSummary = raw
			if err := s.docRepo.UpdateExtraction(ctx, doc); err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
				log.Printf("service.ReturnService: updating mapping summary for %s: %v", doc.ID, err)
			}
		}
	}

	totals := taxform.Compute(state, ret.FilingStatus)
	raw, err := json.Marshal(totals)
	if err != nil {
		return nil, fmt.Errorf("marshaling derived totals: %w", err)
	}
	now := time.Now().UTC()
	ret.DerivedTotals = raw
	ret.ComputedAt = &now
	if err := s.returnRepo.UpdateDerivedTotals(ctx, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// decodeExtractedDocument rebuilds the in-memory extraction result from a
// persisted document record.
func decodeExtractedDocument(doc *domain.DocumentRecord) (*domain.ExtractedDocument, error) {
	if len(doc.Fields) == 0 {
		return nil, domain.ErrDocumentNotReady
	}
	var fields map[string]domain.ExtractionField
	if err := json.Unmarshal(doc.Fields, &fields); err != nil {
		return nil, fmt.Errorf("decoding fields: %w", err)
	}
	return &domain.ExtractedDocument{
		Category: doc.Category,
		Fields:   fields,
		RawText:  doc.RawText,
	}, nil
}
