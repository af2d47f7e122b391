package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaxReturn represents one filer's in-progress return. It owns the document
// set whose mapped values accumulate into the form state.
type TaxReturn struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	FilerName     string          `db:"filer_name" json:"filer_name"`
	FilingStatus  FilingStatus    `db:"filing_status" json:"filing_status"`
	TaxYear       int             `db:"tax_year" json:"tax_year"`
	DerivedTotals json.RawMessage `db:"derived_totals" json:"derived_totals"`
	ComputedAt    *time.Time      `db:"computed_at" json:"computed_at"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// DocumentRecord is the persisted representation of one submitted document
// and, once extracted, its field map and mapping summary.
type DocumentRecord struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	ReturnID        uuid.UUID        `db:"return_id" json:"return_id"`
	CategoryHint    DocumentCategory `db:"category_hint" json:"category_hint"`
	Category        DocumentCategory `db:"category" json:"category"`
	FileName        string           `db:"file_name" json:"file_name"`
	ContentType     string           `db:"content_type" json:"content_type"`
	StorageBucket   string           `db:"storage_bucket" json:"-"`
	StorageKey      string           `db:"storage_key" json:"-"`
	RawText         string           `db:"raw_text" json:"-"`
	Fields          json.RawMessage  `db:"fields" json:"fields"`
	Entities        json.RawMessage  `db:"entities" json:"entities,omitempty"`
	Issues          json.RawMessage  `db:"issues" json:"issues"`
	MappingSummary  json.RawMessage  `db:"mapping_summary" json:"mapping_summary"`
	Status          ExtractionStatus `db:"status" json:"status"`
	ExtractionError string           `db:"extraction_error" json:"extraction_error,omitempty"`
	Attempts        int              `db:"attempts" json:"attempts"`
	ExtractedAt     *time.Time       `db:"extracted_at" json:"extracted_at"`
	ReviewStatus    ReviewStatus     `db:"review_status" json:"review_status"`
	ReviewedAt      *time.Time       `db:"reviewed_at" json:"reviewed_at"`
	ReviewerNotes   string           `db:"reviewer_notes" json:"reviewer_notes"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}
