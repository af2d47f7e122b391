package csvexport

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxline/internal/domain"
	"taxline/internal/extract"
)

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 23)
	assert.Equal(t, "File Name", row[0])
	assert.Equal(t, "Category", row[1])
	assert.Equal(t, "Wages", row[5])
	assert.Equal(t, "Created At", row[22])
}

func extractedRecord(t *testing.T, fields map[string]domain.ExtractionField) domain.DocumentRecord {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	issues, err := json.Marshal([]domain.Issue{
		{Kind: domain.IssueExtractionIncomplete, Field: extract.FieldSocialSecurityWages, Message: "missing"},
	})
	require.NoError(t, err)

	extractedAt := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	return domain.DocumentRecord{
		ID:           uuid.New(),
		ReturnID:     uuid.New(),
		Category:     domain.CategoryW2,
		FileName:     "w2-acme.pdf",
		Fields:       raw,
		Issues:       issues,
		Status:       domain.ExtractionExtracted,
		ExtractedAt:  &extractedAt,
		ReviewStatus: domain.ReviewApproved,
		CreatedAt:    time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC),
	}
}

func TestWriteDocuments_Extracted(t *testing.T) {
	wages := decimal.RequireFromString("50000")
	withheld := decimal.RequireFromString("6000")
	doc := extractedRecord(t, map[string]domain.ExtractionField{
		extract.FieldWages:              domain.AmountField(extract.FieldWages, wages, domain.SourceStructured, 0.9),
		extract.FieldFederalTaxWithheld: domain.AmountField(extract.FieldFederalTaxWithheld, withheld, domain.SourceStructured, 0.9),
		extract.FieldEmployerName:       domain.TextField(extract.FieldEmployerName, "Acme Corp", domain.SourceTextPattern, 0.7),
	})

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteDocuments([]domain.DocumentRecord{doc}))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "w2-acme.pdf", row[0])
	assert.Equal(t, "w2", row[1])
	assert.Equal(t, "extracted", row[2])
	assert.Equal(t, "approved", row[3])
	assert.Equal(t, "Acme Corp", row[4])
	assert.Equal(t, "50000.00", row[5])
	assert.Equal(t, "6000.00", row[6])
	assert.Equal(t, "", row[7], "absent fields stay empty")
	assert.Equal(t, "1", row[19])
	assert.Equal(t, "2026-03-10T09:30:00Z", row[21])
	assert.Equal(t, "2026-03-09T17:00:00Z", row[22])
}

func TestWriteDocuments_UnextractedLeavesAmountsEmpty(t *testing.T) {
	doc := domain.DocumentRecord{
		ID:           uuid.New(),
		Category:     domain.CategoryUnknown,
		FileName:     "pending.pdf",
		Status:       domain.ExtractionQueued,
		ReviewStatus: domain.ReviewPending,
		CreatedAt:    time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteDocuments([]domain.DocumentRecord{doc}))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "pending.pdf", row[0])
	assert.Equal(t, "queued", row[2])
	for i := 4; i <= 18; i++ {
		assert.Empty(t, row[i])
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Jordan Blake", "Jordan_Blake"},
		{"O'Brien & Sons, LLC", "O_Brien_Sons_LLC"},
		{"___weird___", "weird"},
		{"already-clean_name", "already-clean_name"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeFilename(tc.in), tc.in)
	}
}

func TestBuildFilename(t *testing.T) {
	name := BuildFilename("Jordan Blake")
	assert.Contains(t, name, "Jordan_Blake_")
	assert.Contains(t, name, ".csv")
}
