package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taxline/internal/domain"
	"taxline/internal/port"
)

type documentRepo struct {
	db *sqlx.DB
}

// NewDocumentRepo creates a new PostgreSQL-backed DocumentRepository.
func NewDocumentRepo(db *sqlx.DB) port.DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *domain.DocumentRecord) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	query := `INSERT INTO documents (
		id, return_id, category_hint, category, file_name, content_type,
		storage_bucket, storage_key, raw_text,
		fields, entities, issues, mapping_summary,
		status, extraction_error, attempts, extracted_at,
		review_status, reviewed_at, reviewer_notes,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9,
		$10, $11, $12, $13,
		$14, $15, $16, $17,
		$18, $19, $20,
		$21, $22
	)`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.ReturnID, doc.CategoryHint, doc.Category, doc.FileName, doc.ContentType,
		doc.StorageBucket, doc.StorageKey, doc.RawText,
		doc.Fields, doc.Entities, doc.Issues, doc.MappingSummary,
		doc.Status, doc.ExtractionError, doc.Attempts, doc.ExtractedAt,
		doc.ReviewStatus, doc.ReviewedAt, doc.ReviewerNotes,
		doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("documentRepo.Create: %w", err)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, returnID, docID uuid.UUID) (*domain.DocumentRecord, error) {
	var doc domain.DocumentRecord
	err := r.db.GetContext(ctx, &doc,
		"SELECT * FROM documents WHERE id = $1 AND return_id = $2", docID, returnID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("documentRepo.GetByID: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) ListByReturn(ctx context.Context, returnID uuid.UUID) ([]domain.DocumentRecord, error) {
	var docs []domain.DocumentRecord
	err := r.db.SelectContext(ctx, &docs,
		"SELECT * FROM documents WHERE return_id = $1 ORDER BY created_at ASC", returnID)
	if err != nil {
		return nil, fmt.Errorf("documentRepo.ListByReturn: %w", err)
	}
	return docs, nil
}

// ClaimQueued flips up to limit queued documents to processing inside a
// single statement. FOR UPDATE SKIP LOCKED keeps concurrent workers off the
// same rows.
func (r *documentRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.DocumentRecord, error) {
	query := `UPDATE documents SET
		status = $1, attempts = attempts + 1, updated_at = $2
	WHERE id IN (
		SELECT id FROM documents
		WHERE status = $3
		ORDER BY created_at ASC
		LIMIT $4
		FOR UPDATE SKIP LOCKED
	)
	RETURNING *`

	var docs []domain.DocumentRecord
	err := r.db.SelectContext(ctx, &docs, query,
		domain.ExtractionProcessing, time.Now().UTC(), domain.ExtractionQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("documentRepo.ClaimQueued: %w", err)
	}
	return docs, nil
}

func (r *documentRepo) Requeue(ctx context.Context, returnID, docID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = $1, extraction_error = '', updated_at = $2
		 WHERE id = $3 AND return_id = $4`,
		domain.ExtractionQueued, time.Now().UTC(), docID, returnID)
	if err != nil {
		return fmt.Errorf("documentRepo.Requeue: %w", err)
	}
	return checkAffected(result, domain.ErrDocumentNotFound)
}

func (r *documentRepo) UpdateExtraction(ctx context.Context, doc *domain.DocumentRecord) error {
	doc.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET
			category = $1, raw_text = $2,
			fields = $3, entities = $4, issues = $5, mapping_summary = $6,
			status = $7, extraction_error = $8, extracted_at = $9,
			review_status = $10, updated_at = $11
		 WHERE id = $12 AND return_id = $13`,
		doc.Category, doc.RawText,
		doc.Fields, doc.Entities, doc.Issues, doc.MappingSummary,
		doc.Status, doc.ExtractionError, doc.ExtractedAt,
		doc.ReviewStatus, doc.UpdatedAt,
		doc.ID, doc.ReturnID)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateExtraction: %w", err)
	}
	return checkAffected(result, domain.ErrDocumentNotFound)
}

func (r *documentRepo) UpdateReview(ctx context.Context, doc *domain.DocumentRecord) error {
	doc.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET
			fields = $1, mapping_summary = $2,
			review_status = $3, reviewed_at = $4, reviewer_notes = $5, updated_at = $6
		 WHERE id = $7 AND return_id = $8`,
		doc.Fields, doc.MappingSummary,
		doc.ReviewStatus, doc.ReviewedAt, doc.ReviewerNotes, doc.UpdatedAt,
		doc.ID, doc.ReturnID)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateReview: %w", err)
	}
	return checkAffected(result, domain.ErrDocumentNotFound)
}

func (r *documentRepo) Delete(ctx context.Context, returnID, docID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM documents WHERE id = $1 AND return_id = $2", docID, returnID)
	if err != nil {
		return fmt.Errorf("documentRepo.Delete: %w", err)
	}
	return checkAffected(result, domain.ErrDocumentNotFound)
}
