package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxline/internal/domain"
	"taxline/internal/extract"
)

type serviceFixture struct {
	returnRepo *fakeReturnRepo
	docRepo    *fakeDocRepo
	storage    *fakeStorage
	extractor  *fakeExtractor
	returns    ReturnService
	docs       DocumentService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		returnRepo: newFakeReturnRepo(),
		docRepo:    newFakeDocRepo(),
		storage:    newFakeStorage(),
		extractor:  &fakeExtractor{},
	}
	f.returns = NewReturnService(f.returnRepo, f.docRepo)
	f.docs = NewDocumentService(f.docRepo, f.returnRepo, f.returns, f.storage, f.extractor, "taxline-docs", 1)
	return f
}

func w2Extraction(wages, withheld string) *extract.Result {
	fields := map[string]domain.ExtractionField{
		extract.FieldWages: domain.AmountField(extract.FieldWages,
			decimal.RequireFromString(wages), domain.SourceStructured, 0.9),
		extract.FieldFederalTaxWithheld: domain.AmountField(extract.FieldFederalTaxWithheld,
			decimal.RequireFromString(withheld), domain.SourceStructured, 0.9),
	}
	return &extract.Result{
		Document: &domain.ExtractedDocument{
			Category:      domain.CategoryW2,
			Fields:        fields,
			RawText:       "Form W-2 Wage and Tax Statement",
			PrimaryEntity: -1,
		},
	}
}

func TestSubmitQueuesDocument(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)

	doc, err := f.docs.Submit(context.Background(), &SubmitDocumentInput{
		ReturnID:     ret.ID,
		FileName:     "w2.pdf",
		ContentType:  "application/pdf",
		CategoryHint: domain.CategoryW2,
		FileBytes:    []byte("%PDF-1.4 fake"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ExtractionQueued, doc.Status)
	assert.Equal(t, domain.ReviewPending, doc.ReviewStatus)
	assert.Equal(t, domain.CategoryW2, doc.CategoryHint)
	assert.Equal(t, domain.CategoryUnknown, doc.Category)
	assert.Contains(t, doc.StorageKey, ret.ID.String())
	assert.Contains(t, doc.StorageKey, "w2.pdf")

	stored, err := f.storage.Download(context.Background(), doc.StorageBucket, doc.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 fake"), stored)
}

func TestSubmitDefaultsHintToUnknown(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)

	doc, err := f.docs.Submit(context.Background(), &SubmitDocumentInput{
		ReturnID:    ret.ID,
		FileName:    "scan.png",
		ContentType: "image/png",
		FileBytes:   []byte{0x89, 0x50, 0x4e, 0x47},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryUnknown, doc.CategoryHint)
}

func TestSubmitValidation(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)

	_, err := f.docs.Submit(context.Background(), &SubmitDocumentInput{
		ReturnID:    ret.ID,
		FileName:    "notes.txt",
		ContentType: "text/plain",
		FileBytes:   []byte("hello"),
	})
	require.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	_, err = f.docs.Submit(context.Background(), &SubmitDocumentInput{
		ReturnID:    ret.ID,
		FileName:    "huge.pdf",
		ContentType: "application/pdf",
		FileBytes:   make([]byte, 2*1024*1024),
	})
	require.ErrorIs(t, err, domain.ErrFileTooLarge)

	_, err = f.docs.Submit(context.Background(), &SubmitDocumentInput{
		ReturnID:     ret.ID,
		FileName:     "w2.pdf",
		ContentType:  "application/pdf",
		CategoryHint: "k1",
		FileBytes:    []byte("x"),
	})
	require.ErrorIs(t, err, domain.ErrUnknownCategory)

	_, err = f.docs.Submit(context.Background(), &SubmitDocumentInput{
		ReturnID:    uuid.New(),
		FileName:    "w2.pdf",
		ContentType: "application/pdf",
		FileBytes:   []byte("x"),
	})
	require.ErrorIs(t, err, domain.ErrReturnNotFound)
}

func TestSubmitWrapsUploadFailure(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)
	f.storage.uploadErr = errors.New("connection reset")

	_, err := f.docs.Submit(context.Background(), &SubmitDocumentInput{
		ReturnID:    ret.ID,
		FileName:    "w2.pdf",
		ContentType: "application/pdf",
		FileBytes:   []byte("x"),
	})
	require.ErrorIs(t, err, domain.ErrUploadFailed)
}

// submitAndClaim submits a document and claims it the way the queue worker
// would, returning the claimed copy.
func submitAndClaim(t *testing.T, f *serviceFixture, returnID uuid.UUID, hint domain.DocumentCategory) *domain.DocumentRecord {
	t.Helper()
	doc, err := f.docs.Submit(context.Background(), &SubmitDocumentInput{
		ReturnID:     returnID,
		FileName:     "w2.pdf",
		ContentType:  "application/pdf",
		CategoryHint: hint,
		FileBytes:    []byte("%PDF-1.4 fake"),
	})
	require.NoError(t, err)

	claimed, err := f.docRepo.ClaimQueued(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, doc.ID, claimed[0].ID)
	return &claimed[0]
}

func TestProcessExtractsAndRecomputes(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)
	f.extractor.result = w2Extraction("50000", "6000")

	doc := submitAndClaim(t, f, ret.ID, domain.CategoryW2)
	f.docs.Process(context.Background(), doc, 3)

	require.Equal(t, 1, f.extractor.calls)
	input := f.extractor.inputs[0]
	assert.Equal(t, domain.CategoryW2, input.CategoryHint)
	assert.Equal(t, "Jordan Blake", input.TargetName)
	assert.Equal(t, []byte("%PDF-1.4 fake"), input.FileBytes)

	stored, err := f.docRepo.GetByID(context.Background(), ret.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionExtracted, stored.Status)
	assert.Equal(t, domain.CategoryW2, stored.Category)
	assert.Empty(t, stored.ExtractionError)
	require.NotNil(t, stored.ExtractedAt)
	assert.NotEmpty(t, stored.Fields)
	assert.NotEmpty(t, stored.MappingSummary)

	updated, err := f.returns.GetByID(context.Background(), ret.ID)
	require.NoError(t, err)
	totals := decodeTotals(t, updated)
	assert.True(t, totals.RefundAmount.Equal(decimal.RequireFromString("1882.00")), "refund %s", totals.RefundAmount)
}

func TestProcessRequeuesWhileProviderUnavailable(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)
	f.extractor.err = domain.ErrProviderUnavailable

	doc := submitAndClaim(t, f, ret.ID, domain.CategoryW2)
	f.docs.Process(context.Background(), doc, 3)

	stored, err := f.docRepo.GetByID(context.Background(), ret.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionQueued, stored.Status)
	assert.NotEmpty(t, stored.ExtractionError)
	assert.Equal(t, 1, stored.Attempts)
}

func TestProcessFailsPermanentlyAfterAttemptBudget(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)
	f.extractor.err = domain.ErrProviderUnavailable

	last := submitAndClaim(t, f, ret.ID, domain.CategoryW2)
	f.docs.Process(context.Background(), last, 3)

	// Each claim burns one attempt; the third claimed attempt is terminal.
	for attempt := 1; attempt < 3; attempt++ {
		claimed, err := f.docRepo.ClaimQueued(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		last = &claimed[0]
		f.docs.Process(context.Background(), last, 3)
	}

	stored, err := f.docRepo.GetByID(context.Background(), ret.ID, last.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionFailed, stored.Status)
	assert.Equal(t, 3, stored.Attempts)
}

func TestProcessNonRecoverableErrorFailsImmediately(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)
	f.extractor.err = errors.New("malformed response")

	doc := submitAndClaim(t, f, ret.ID, domain.CategoryW2)
	f.docs.Process(context.Background(), doc, 3)

	stored, err := f.docRepo.GetByID(context.Background(), ret.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionFailed, stored.Status)
}

func TestProcessRecordsValidationIssueForUnmappableDocument(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)
	f.extractor.result = &extract.Result{
		Document: &domain.ExtractedDocument{
			Category: domain.CategoryW2,
			Fields: map[string]domain.ExtractionField{
				extract.FieldEmployeeName: domain.TextField(extract.FieldEmployeeName, "Jordan Blake", domain.SourceTextPattern, 0.7),
			},
			RawText:       "Form W-2",
			PrimaryEntity: -1,
		},
	}

	doc := submitAndClaim(t, f, ret.ID, domain.CategoryW2)
	f.docs.Process(context.Background(), doc, 3)

	stored, err := f.docRepo.GetByID(context.Background(), ret.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionExtracted, stored.Status)

	var issues []domain.Issue
	require.NoError(t, json.Unmarshal(stored.Issues, &issues))
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueValidationFailed, issues[0].Kind)

	updated, err := f.returns.GetByID(context.Background(), ret.ID)
	require.NoError(t, err)
	totals := decodeTotals(t, updated)
	assert.True(t, totals.TotalIncome.IsZero())
}

func TestReprocessRequeuesExtractedDocument(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)
	f.extractor.result = w2Extraction("50000", "6000")

	doc := submitAndClaim(t, f, ret.ID, domain.CategoryW2)
	f.docs.Process(context.Background(), doc, 3)

	requeued, err := f.docs.Reprocess(context.Background(), ret.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionQueued, requeued.Status)
	assert.Empty(t, requeued.ExtractionError)

	_, err = f.docs.Reprocess(context.Background(), ret.ID, uuid.New())
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestEditFieldsReplacesWholesaleAndRecomputes(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)
	f.extractor.result = w2Extraction("50000", "6000")

	doc := submitAndClaim(t, f, ret.ID, domain.CategoryW2)
	f.docs.Process(context.Background(), doc, 3)

	edited, err := f.docs.EditFields(context.Background(), &EditFieldsInput{
		ReturnID:   ret.ID,
		DocumentID: doc.ID,
		Fields:     w2Fields(t, "60000", "7000"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewPending, edited.ReviewStatus)

	updated, err := f.returns.GetByID(context.Background(), ret.ID)
	require.NoError(t, err)
	totals := decodeTotals(t, updated)
	assert.True(t, totals.TotalIncome.Equal(decimal.RequireFromString("60000")), "total income %s", totals.TotalIncome)
	assert.True(t, totals.TotalPayments.Equal(decimal.RequireFromString("7000")), "payments %s", totals.TotalPayments)
}

func TestEditFieldsToUnmappableRecordsValidationIssue(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)
	f.extractor.result = w2Extraction("50000", "6000")

	doc := submitAndClaim(t, f, ret.ID, domain.CategoryW2)
	f.docs.Process(context.Background(), doc, 3)

	// Edit away every amount, leaving only identity text.
	textOnly := fieldsJSON(t, map[string]domain.ExtractionField{
		extract.FieldEmployeeName: domain.TextField(extract.FieldEmployeeName, "Jordan Blake", domain.SourceTextPattern, 0.7),
	})
	edited, err := f.docs.EditFields(context.Background(), &EditFieldsInput{
		ReturnID:   ret.ID,
		DocumentID: doc.ID,
		Fields:     textOnly,
	})
	require.NoError(t, err)

	var issues []domain.Issue
	require.NoError(t, json.Unmarshal(edited.Issues, &issues))
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueValidationFailed, issues[0].Kind)
	assert.Empty(t, edited.MappingSummary)

	// The document no longer contributes to the totals.
	updated, err := f.returns.GetByID(context.Background(), ret.ID)
	require.NoError(t, err)
	totals := decodeTotals(t, updated)
	assert.True(t, totals.TotalIncome.IsZero())

	// Editing the amounts back clears the issue.
	restored, err := f.docs.EditFields(context.Background(), &EditFieldsInput{
		ReturnID:   ret.ID,
		DocumentID: doc.ID,
		Fields:     w2Fields(t, "50000", "6000"),
	})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(restored.Issues, &issues))
	assert.Empty(t, issues)
	assert.NotEmpty(t, restored.MappingSummary)
}

func TestEditFieldsRejectsUnextractedDocument(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)

	doc, err := f.docs.Submit(context.Background(), &SubmitDocumentInput{
		ReturnID:    ret.ID,
		FileName:    "w2.pdf",
		ContentType: "application/pdf",
		FileBytes:   []byte("x"),
	})
	require.NoError(t, err)

	_, err = f.docs.EditFields(context.Background(), &EditFieldsInput{
		ReturnID:   ret.ID,
		DocumentID: doc.ID,
		Fields:     w2Fields(t, "60000", "7000"),
	})
	require.ErrorIs(t, err, domain.ErrDocumentNotReady)
}

func TestEditFieldsRejectsMalformedJSON(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)
	f.extractor.result = w2Extraction("50000", "6000")

	doc := submitAndClaim(t, f, ret.ID, domain.CategoryW2)
	f.docs.Process(context.Background(), doc, 3)

	_, err := f.docs.EditFields(context.Background(), &EditFieldsInput{
		ReturnID:   ret.ID,
		DocumentID: doc.ID,
		Fields:     json.RawMessage(`{"wages": "not a field"}`),
	})
	require.Error(t, err)
}

func TestUpdateReview(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)
	f.extractor.result = w2Extraction("50000", "6000")

	doc := submitAndClaim(t, f, ret.ID, domain.CategoryW2)
	f.docs.Process(context.Background(), doc, 3)

	reviewed, err := f.docs.UpdateReview(context.Background(), &UpdateReviewInput{
		ReturnID:   ret.ID,
		DocumentID: doc.ID,
		Status:     domain.ReviewApproved,
		Notes:      "amounts match the paper copy",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, reviewed.ReviewStatus)
	assert.Equal(t, "amounts match the paper copy", reviewed.ReviewerNotes)
	require.NotNil(t, reviewed.ReviewedAt)

	_, err = f.docs.UpdateReview(context.Background(), &UpdateReviewInput{
		ReturnID:   ret.ID,
		DocumentID: doc.ID,
		Status:     "escalated",
	})
	require.Error(t, err)
}

func TestUpdateReviewRequiresExtractedDocument(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)

	doc, err := f.docs.Submit(context.Background(), &SubmitDocumentInput{
		ReturnID:    ret.ID,
		FileName:    "w2.pdf",
		ContentType: "application/pdf",
		FileBytes:   []byte("x"),
	})
	require.NoError(t, err)

	_, err = f.docs.UpdateReview(context.Background(), &UpdateReviewInput{
		ReturnID:   ret.ID,
		DocumentID: doc.ID,
		Status:     domain.ReviewApproved,
	})
	require.ErrorIs(t, err, domain.ErrDocumentNotReady)
}

func TestDeleteRemovesObjectAndRecomputes(t *testing.T) {
	f := newServiceFixture(t)
	ret := seedReturn(t, f.returnRepo, domain.FilingSingle)
	f.extractor.result = w2Extraction("50000", "6000")

	doc := submitAndClaim(t, f, ret.ID, domain.CategoryW2)
	f.docs.Process(context.Background(), doc, 3)

	require.NoError(t, f.docs.Delete(context.Background(), ret.ID, doc.ID))

	_, err := f.docs.GetByID(context.Background(), ret.ID, doc.ID)
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)

	_, err = f.storage.Download(context.Background(), "taxline-docs", doc.StorageKey)
	require.Error(t, err)

	updated, err := f.returns.GetByID(context.Background(), ret.ID)
	require.NoError(t, err)
	totals := decodeTotals(t, updated)
	assert.True(t, totals.TotalIncome.IsZero())
}
