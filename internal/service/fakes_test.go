package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"taxline/internal/domain"
	"taxline/internal/extract"
	"taxline/internal/port"
)

// fakeReturnRepo is an in-memory port.TaxReturnRepository.
type fakeReturnRepo struct {
	mu      sync.Mutex
	returns map[uuid.UUID]*domain.TaxReturn
}

func newFakeReturnRepo() *fakeReturnRepo {
	return &fakeReturnRepo{returns: make(map[uuid.UUID]*domain.TaxReturn)}
}

func (r *fakeReturnRepo) Create(ctx context.Context, ret *domain.TaxReturn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	ret.CreatedAt = now
	ret.UpdatedAt = now
	cp := *ret
	r.returns[ret.ID] = &cp
	return nil
}

func (r *fakeReturnRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaxReturn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret, ok := r.returns[id]
	if !ok {
		return nil, domain.ErrReturnNotFound
	}
	cp := *ret
	return &cp, nil
}

func (r *fakeReturnRepo) List(ctx context.Context, offset, limit int) ([]domain.TaxReturn, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]domain.TaxReturn, 0, len(r.returns))
	for _, ret := range r.returns {
		all = append(all, *ret)
	}
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *fakeReturnRepo) UpdateFilingStatus(ctx context.Context, ret *domain.TaxReturn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.returns[ret.ID]
	if !ok {
		return domain.ErrReturnNotFound
	}
	stored.FilingStatus = ret.FilingStatus
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeReturnRepo) UpdateDerivedTotals(ctx context.Context, ret *domain.TaxReturn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.returns[ret.ID]
	if !ok {
		return domain.ErrReturnNotFound
	}
	stored.DerivedTotals = ret.DerivedTotals
	stored.ComputedAt = ret.ComputedAt
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeReturnRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.returns[id]; !ok {
		return domain.ErrReturnNotFound
	}
	delete(r.returns, id)
	return nil
}

// fakeDocRepo is an in-memory port.DocumentRepository. Documents keep
// insertion order so ListByReturn is deterministic.
type fakeDocRepo struct {
	mu    sync.Mutex
	docs  []*domain.DocumentRecord
	order int
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{}
}

func (r *fakeDocRepo) find(returnID, docID uuid.UUID) *domain.DocumentRecord {
	for _, d := range r.docs {
		if d.ID == docID && d.ReturnID == returnID {
			return d
		}
	}
	return nil
}

func (r *fakeDocRepo) Create(ctx context.Context, doc *domain.DocumentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	cp := *doc
	r.docs = append(r.docs, &cp)
	return nil
}

func (r *fakeDocRepo) GetByID(ctx context.Context, returnID, docID uuid.UUID) (*domain.DocumentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.find(returnID, docID)
	if d == nil {
		return nil, domain.ErrDocumentNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDocRepo) ListByReturn(ctx context.Context, returnID uuid.UUID) ([]domain.DocumentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DocumentRecord
	for _, d := range r.docs {
		if d.ReturnID == returnID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDocRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.DocumentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DocumentRecord
	for _, d := range r.docs {
		if len(out) >= limit {
			break
		}
		if d.Status == domain.ExtractionQueued {
			d.Status = domain.ExtractionProcessing
			d.Attempts++
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDocRepo) Requeue(ctx context.Context, returnID, docID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.find(returnID, docID)
	if d == nil {
		return domain.ErrDocumentNotFound
	}
	d.Status = domain.ExtractionQueued
	d.ExtractionError = ""
	return nil
}

func (r *fakeDocRepo) UpdateExtraction(ctx context.Context, doc *domain.DocumentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.find(doc.ReturnID, doc.ID)
	if d == nil {
		return domain.ErrDocumentNotFound
	}
	d.Category = doc.Category
	d.RawText = doc.RawText
	d.Fields = doc.Fields
	d.Entities = doc.Entities
	d.Issues = doc.Issues
	d.MappingSummary = doc.MappingSummary
	d.Status = doc.Status
	d.ExtractionError = doc.ExtractionError
	d.ExtractedAt = doc.ExtractedAt
	d.ReviewStatus = doc.ReviewStatus
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeDocRepo) UpdateReview(ctx context.Context, doc *domain.DocumentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.find(doc.ReturnID, doc.ID)
	if d == nil {
		return domain.ErrDocumentNotFound
	}
	d.ReviewStatus = doc.ReviewStatus
	d.ReviewedAt = doc.ReviewedAt
	d.ReviewerNotes = doc.ReviewerNotes
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeDocRepo) Delete(ctx context.Context, returnID, docID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.docs {
		if d.ID == docID && d.ReturnID == returnID {
			r.docs = append(r.docs[:i], r.docs[i+1:]...)
			return nil
		}
	}
	return domain.ErrDocumentNotFound
}

// fakeStorage is an in-memory port.ObjectStorage.
type fakeStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	uploadErr   error
	downloadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) key(bucket, key string) string {
	return bucket + "/" + key
}

func (s *fakeStorage) Upload(ctx context.Context, input port.UploadInput) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	buf, err := io.ReadAll(input.Body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[s.key(input.Bucket, input.Key)] = buf
	return nil
}

func (s *fakeStorage) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[s.key(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("object %s/%s not found", bucket, key)
	}
	return b, nil
}

func (s *fakeStorage) Delete(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, s.key(bucket, key))
	return nil
}

// fakeExtractor returns a canned result or error.
type fakeExtractor struct {
	mu     sync.Mutex
	result *extract.Result
	err    error
	calls  int
	inputs []extract.Input
}

func (f *fakeExtractor) Extract(ctx context.Context, input extract.Input) (*extract.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}
