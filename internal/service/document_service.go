package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"taxline/internal/domain"
	"taxline/internal/extract"
	"taxline/internal/port"
	"taxline/internal/taxform"
)

// Extractor runs the extraction pipeline for one document.
type Extractor interface {
	Extract(ctx context.Context, input extract.Input) (*extract.Result, error)
}

// SubmitDocumentInput is the DTO for submitting a document to a return.
type SubmitDocumentInput struct {
	ReturnID     uuid.UUID
	FileName     string
	ContentType  string
	CategoryHint domain.DocumentCategory
	FileBytes    []byte
}

// EditFieldsInput is the DTO for a reviewer's manual field edit. Fields
// replaces the extracted field set wholesale.
type EditFieldsInput struct {
	ReturnID   uuid.UUID
	DocumentID uuid.UUID
	Fields     json.RawMessage
}

// UpdateReviewInput is the DTO for updating a document's review status.
type UpdateReviewInput struct {
	ReturnID   uuid.UUID
	DocumentID uuid.UUID
	Status     domain.ReviewStatus
	Notes      string
}

// DocumentService defines the document management contract.
type DocumentService interface {
	Submit(ctx context.Context, input *SubmitDocumentInput) (*domain.DocumentRecord, error)
	GetByID(ctx context.Context, returnID, docID uuid.UUID) (*domain.DocumentRecord, error)
	ListByReturn(ctx context.Context, returnID uuid.UUID) ([]domain.DocumentRecord, error)
	Reprocess(ctx context.Context, returnID, docID uuid.UUID) (*domain.DocumentRecord, error)
	EditFields(ctx context.Context, input *EditFieldsInput) (*domain.DocumentRecord, error)
	UpdateReview(ctx context.Context, input *UpdateReviewInput) (*domain.DocumentRecord, error)
	Delete(ctx context.Context, returnID, docID uuid.UUID) error
	// Process runs extraction and mapping for one claimed document. It is
	// called by the queue worker and never returns an error: failures are
	// recorded on the document record.
	Process(ctx context.Context, doc *domain.DocumentRecord, maxAttempts int)
}

type documentService struct {
	docRepo      port.DocumentRepository
	returnRepo   port.TaxReturnRepository
	returns      ReturnService
	storage      port.ObjectStorage
	extractor    Extractor
	bucket       string
	maxFileBytes int64
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(
	docRepo port.DocumentRepository,
	returnRepo port.TaxReturnRepository,
	returns ReturnService,
	storage port.ObjectStorage,
	extractor Extractor,
	bucket string,
	maxFileSizeMB int64,
) DocumentService {
	return &documentService{
		docRepo:      docRepo,
		returnRepo:   returnRepo,
		returns:      returns,
		storage:      storage,
		extractor:    extractor,
		bucket:       bucket,
		maxFileBytes: maxFileSizeMB * 1024 * 1024,
	}
}

func (s *documentService) Submit(ctx context.Context, input *SubmitDocumentInput) (*domain.DocumentRecord, error) {
	if _, ok := domain.AllowedContentTypes[input.ContentType]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, input.ContentType)
	}
	if s.maxFileBytes > 0 && int64(len(input.FileBytes)) > s.maxFileBytes {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, len(input.FileBytes))
	}
	if input.CategoryHint != "" && !input.CategoryHint.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, input.CategoryHint)
	}
	if _, err := s.returnRepo.GetByID(ctx, input.ReturnID); err != nil {
		return nil, err
	}

	docID := uuid.New()
	key := fmt.Sprintf("returns/%s/documents/%s/%s", input.ReturnID, docID, input.FileName)
	err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.bucket,
		Key:         key,
		Body:        bytes.NewReader(input.FileBytes),
		ContentType: input.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	hint := input.CategoryHint
	if hint == "" {
		hint = domain.CategoryUnknown
	}
	doc := &domain.DocumentRecord{
		ID:            docID,
		ReturnID:      input.ReturnID,
		CategoryHint:  hint,
		Category:      domain.CategoryUnknown,
		FileName:      input.FileName,
		ContentType:   input.ContentType,
		StorageBucket: s.bucket,
		StorageKey:    key,
		Status:        domain.ExtractionQueued,
		ReviewStatus:  domain.ReviewPending,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}
	log.Printf("service.DocumentService: queued document %s (%s) for return %s", doc.ID, doc.FileName, doc.ReturnID)
	return doc, nil
}

func (s *documentService) GetByID(ctx context.Context, returnID, docID uuid.UUID) (*domain.DocumentRecord, error) {
	return s.docRepo.GetByID(ctx, returnID, docID)
}

func (s *documentService) ListByReturn(ctx context.Context, returnID uuid.UUID) ([]domain.DocumentRecord, error) {
	return s.docRepo.ListByReturn(ctx, returnID)
}

// Reprocess queues the document for a fresh extraction pass. The extracted
// result is replaced wholesale when the worker picks it up.
func (s *documentService) Reprocess(ctx context.Context, returnID, docID uuid.UUID) (*domain.DocumentRecord, error) {
	if _, err := s.docRepo.GetByID(ctx, returnID, docID); err != nil {
		return nil, err
	}
	if err := s.docRepo.Requeue(ctx, returnID, docID); err != nil {
		return nil, err
	}
	return s.docRepo.GetByID(ctx, returnID, docID)
}

func (s *documentService) EditFields(ctx context.Context, input *EditFieldsInput) (*domain.DocumentRecord, error) {
	doc, err := s.docRepo.GetByID(ctx, input.ReturnID, input.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != domain.ExtractionExtracted {
		return nil, domain.ErrDocumentNotReady
	}

	var fields map[string]domain.ExtractionField
	if err := json.Unmarshal(input.Fields, &fields); err != nil {
		return nil, fmt.Errorf("decoding edited fields: %w", err)
	}

	doc.Fields = input.Fields
	doc.ReviewStatus = domain.ReviewPending
	summary, mapIssues := applyPreview(&domain.ExtractedDocument{
		Category: doc.Category,
		Fields:   fields,
	})
	doc.MappingSummary = summary
	doc.Issues = mustMarshal(mapIssues)
	if err := s.docRepo.UpdateExtraction(ctx, doc); err != nil {
		return nil, err
	}

	if _, err := s.returns.Recompute(ctx, input.ReturnID); err != nil {
		log.Printf("service.DocumentService: recompute after edit failed for return %s: %v", input.ReturnID, err)
	}
	return s.docRepo.GetByID(ctx, input.ReturnID, input.DocumentID)
}

func (s *documentService) UpdateReview(ctx context.Context, input *UpdateReviewInput) (*domain.DocumentRecord, error) {
	switch input.Status {
	case domain.ReviewPending, domain.ReviewApproved, domain.ReviewRejected:
	default:
		return nil, fmt.Errorf("invalid review status: %q", input.Status)
	}

	doc, err := s.docRepo.GetByID(ctx, input.ReturnID, input.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != domain.ExtractionExtracted {
		return nil, domain.ErrDocumentNotReady
	}

	now := time.Now().UTC()
	doc.ReviewStatus = input.Status
	doc.ReviewedAt = &now
	doc.ReviewerNotes = input.Notes
	if err := s.docRepo.UpdateReview(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, returnID, docID uuid.UUID) error {
	doc, err := s.docRepo.GetByID(ctx, returnID, docID)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, doc.StorageBucket, doc.StorageKey); err != nil {
		// Orphaned objects are cleaned up out of band; the record must go.
		log.Printf("service.DocumentService: deleting stored object %s/%s: %v", doc.StorageBucket, doc.StorageKey, err)
	}
	if err := s.docRepo.Delete(ctx, returnID, docID); err != nil {
		return err
	}
	if _, err := s.returns.Recompute(ctx, returnID); err != nil {
		log.Printf("service.DocumentService: recompute after delete failed for return %s: %v", returnID, err)
	}
	return nil
}

func (s *documentService) Process(ctx context.Context, doc *domain.DocumentRecord, maxAttempts int) {
	fileBytes, err := s.storage.Download(ctx, doc.StorageBucket, doc.StorageKey)
	if err != nil {
		s.markFailed(ctx, doc, maxAttempts, fmt.Errorf("downloading document: %w", err), true)
		return
	}

	targetName := ""
	if ret, err := s.returnRepo.GetByID(ctx, doc.ReturnID); err == nil {
		targetName = ret.FilerName
	}

	res, err := s.extractor.Extract(ctx, extract.Input{
		FileBytes:    fileBytes,
		ContentType:  doc.ContentType,
		CategoryHint: doc.CategoryHint,
		TargetName:   targetName,
	})
	if err != nil {
		recoverable := errors.Is(err, domain.ErrProviderUnavailable)
		s.markFailed(ctx, doc, maxAttempts, err, recoverable)
		return
	}

	issues := res.Issues
	now := time.Now().UTC()
	doc.Category = res.Document.Category
	doc.RawText = res.Document.RawText
	doc.Status = domain.ExtractionExtracted
	doc.ExtractionError = ""
	doc.ExtractedAt = &now
	doc.ReviewStatus = domain.ReviewPending
	doc.Fields = mustMarshal(res.Document.Fields)
	if len(res.Document.Entities) > 0 {
		doc.Entities = mustMarshal(res.Document.Entities)
	}

	summary, mapIssues := applyPreview(res.Document)
	doc.MappingSummary = summary
	issues = append(issues, mapIssues...)
	doc.Issues = mustMarshal(issues)

	if err := s.docRepo.UpdateExtraction(ctx, doc); err != nil {
		log.Printf("service.DocumentService: persisting extraction for %s: %v", doc.ID, err)
		return
	}
	log.Printf("service.DocumentService: extracted document %s as %s (%d issues, %d corrections)",
		doc.ID, doc.Category, len(issues), len(res.Corrections))

	if _, err := s.returns.Recompute(ctx, doc.ReturnID); err != nil {
		log.Printf("service.DocumentService: recompute failed for return %s: %v", doc.ReturnID, err)
	}
}

// applyPreview runs the document's mapping against a scratch form state to
// produce its mapping summary and any mapping-level issues. The return's
// real totals come from Recompute, which replays every document.
func applyPreview(extracted *domain.ExtractedDocument) (json.RawMessage, []domain.Issue) {
	summary, issues, err := taxform.Apply(taxform.NewFormState(), extracted)
	if err != nil {
		return nil, []domain.Issue{{
			Kind:    domain.IssueValidationFailed,
			Message: err.Error(),
		}}
	}
	return mustMarshal(summary), issues
}

// markFailed records an extraction failure. Recoverable failures requeue
// until the attempt budget is spent; everything else is terminal.
func (s *documentService) markFailed(ctx context.Context, doc *domain.DocumentRecord, maxAttempts int, cause error, recoverable bool) {
	doc.ExtractionError = cause.Error()
	if recoverable && doc.Attempts < maxAttempts {
		doc.Status = domain.ExtractionQueued
		log.Printf("service.DocumentService: document %s requeued (attempt %d/%d): %v",
			doc.ID, doc.Attempts, maxAttempts, cause)
	} else {
		doc.Status = domain.ExtractionFailed
		log.Printf("service.DocumentService: document %s failed permanently: %v", doc.ID, cause)
	}
	if err := s.docRepo.UpdateExtraction(ctx, doc); err != nil {
		log.Printf("service.DocumentService: persisting failure for %s: %v", doc.ID, err)
	}
}

func mustMarshal(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		// All marshaled types are plain structs and maps; this cannot
		// fail at runtime.
		log.Printf("service: marshaling %T: %v", v, err)
		return nil
	}
	return raw
}
