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

type returnRepo struct {
	db *sqlx.DB
}

// NewReturnRepo creates a new PostgreSQL-backed TaxReturnRepository.
func NewReturnRepo(db *sqlx.DB) port.TaxReturnRepository {
	return &returnRepo{db: db}
}

func (r *returnRepo) Create(ctx context.Context, ret *domain.TaxReturn) error {
	now := time.Now().UTC()
	ret.CreatedAt = now
	ret.UpdatedAt = now

	query := `INSERT INTO tax_returns (
		id, filer_name, filing_status, tax_year,
		derived_totals, computed_at, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		ret.ID, ret.FilerName, ret.FilingStatus, ret.TaxYear,
		ret.DerivedTotals, ret.ComputedAt, ret.CreatedAt, ret.UpdatedAt)
	if err != nil {
		return fmt.Errorf("returnRepo.Create: %w", err)
	}
	return nil
}

func (r *returnRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaxReturn, error) {
	var ret domain.TaxReturn
	err := r.db.GetContext(ctx, &ret, "SELECT * FROM tax_returns WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReturnNotFound
		}
		return nil, fmt.Errorf("returnRepo.GetByID: %w", err)
	}
	return &ret, nil
}

func (r *returnRepo) List(ctx context.Context, offset, limit int) ([]domain.TaxReturn, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM tax_returns")
	if err != nil {
		return nil, 0, fmt.Errorf("returnRepo.List count: %w", err)
	}

	var rets []domain.TaxReturn
	err = r.db.SelectContext(ctx, &rets,
		"SELECT * FROM tax_returns ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("returnRepo.List: %w", err)
	}
	return rets, total, nil
}

func (r *returnRepo) UpdateFilingStatus(ctx context.Context, ret *domain.TaxReturn) error {
	ret.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		"UPDATE tax_returns SET filing_status = $1, updated_at = $2 WHERE id = $3",
		ret.FilingStatus, ret.UpdatedAt, ret.ID)
	if err != nil {
		return fmt.Errorf("returnRepo.UpdateFilingStatus: %w", err)
	}
	return checkAffected(result, domain.ErrReturnNotFound)
}

func (r *returnRepo) UpdateDerivedTotals(ctx context.Context, ret *domain.TaxReturn) error {
	ret.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE tax_returns SET derived_totals = $1, computed_at = $2, updated_at = $3
		 WHERE id = $4`,
		ret.DerivedTotals, ret.ComputedAt, ret.UpdatedAt, ret.ID)
	if err != nil {
		return fmt.Errorf("returnRepo.UpdateDerivedTotals: %w", err)
	}
	return checkAffected(result, domain.ErrReturnNotFound)
}

func (r *returnRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tax_returns WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("returnRepo.Delete: %w", err)
	}
	return checkAffected(result, domain.ErrReturnNotFound)
}

func checkAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
