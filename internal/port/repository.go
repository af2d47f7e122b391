package port

import (
	"context"

	"github.com/google/uuid"

	"taxline/internal/domain"
)

// TaxReturnRepository defines the contract for tax return persistence.
type TaxReturnRepository interface {
	Create(ctx context.Context, ret *domain.TaxReturn) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TaxReturn, error)
	List(ctx context.Context, offset, limit int) ([]domain.TaxReturn, int, error)
	UpdateFilingStatus(ctx context.Context, ret *domain.TaxReturn) error
	UpdateDerivedTotals(ctx context.Context, ret *domain.TaxReturn) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DocumentRepository defines the contract for document persistence.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.DocumentRecord) error
	GetByID(ctx context.Context, returnID, docID uuid.UUID) (*domain.DocumentRecord, error)
	ListByReturn(ctx context.Context, returnID uuid.UUID) ([]domain.DocumentRecord, error)
	// ClaimQueued atomically flips up to limit queued documents to
	// processing and returns them, so concurrent workers never claim the
	// same document twice.
	ClaimQueued(ctx context.Context, limit int) ([]domain.DocumentRecord, error)
	Requeue(ctx context.Context, returnID, docID uuid.UUID) error
	UpdateExtraction(ctx context.Context, doc *domain.DocumentRecord) error
	UpdateReview(ctx context.Context, doc *domain.DocumentRecord) error
	Delete(ctx context.Context, returnID, docID uuid.UUID) error
}
