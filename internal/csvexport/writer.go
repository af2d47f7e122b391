package csvexport

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"taxline/internal/domain"
	"taxline/internal/extract"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// amountColumns lists the exported amount fields in form box order.
var amountColumns = []struct {
	header string
	field  string
}{
	{"Wages", extract.FieldWages},
	{"Federal Tax Withheld", extract.FieldFederalTaxWithheld},
	{"Social Security Wages", extract.FieldSocialSecurityWages},
	{"Medicare Wages", extract.FieldMedicareWages},
	{"Interest Income", extract.FieldInterestIncome},
	{"Tax-Exempt Interest", extract.FieldTaxExemptInterest},
	{"Ordinary Dividends", extract.FieldOrdinaryDividends},
	{"Qualified Dividends", extract.FieldQualifiedDividends},
	{"Capital Gain Distributions", extract.FieldCapitalGainDistributions},
	{"Nonemployee Compensation", extract.FieldNonemployeeCompensation},
	{"Rents", extract.FieldRents},
	{"Royalties", extract.FieldRoyalties},
	{"Other Income", extract.FieldOtherIncome},
	{"Foreign Tax Paid", extract.FieldForeignTaxPaid},
}

// columns defines the CSV header row.
var columns = buildColumns()

func buildColumns() []string {
	cols := []string{
		"File Name",
		"Category",
		"Extraction Status",
		"Review Status",
		"Payer",
	}
	for _, c := range amountColumns {
		cols = append(cols, c.header)
	}
	return append(cols,
		"Issue Count",
		"Reviewer Notes",
		"Extracted At",
		"Created At",
	)
}

// Writer wraps csv.Writer for exporting document records as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteDocuments converts a batch of document records to CSV rows and
// writes them.
func (w *Writer) WriteDocuments(docs []domain.DocumentRecord) error {
	for i := range docs {
		row := documentToRow(&docs[i])
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// documentToRow converts a single document record to a CSV row. Documents
// that have not been extracted keep their metadata columns and leave the
// amount columns empty.
func documentToRow(doc *domain.DocumentRecord) []string {
	row := make([]string, len(columns))

	row[0] = doc.FileName
	row[1] = string(doc.Category)
	row[2] = string(doc.Status)
	row[3] = string(doc.ReviewStatus)
	last := len(row) - 4
	row[last+1] = doc.ReviewerNotes
	row[last+2] = formatTime(doc.ExtractedAt)
	row[last+3] = doc.CreatedAt.Format(time.RFC3339)

	if doc.Status != domain.ExtractionExtracted || len(doc.Fields) == 0 {
		return row
	}

	var fields map[string]domain.ExtractionField
	if err := json.Unmarshal(doc.Fields, &fields); err != nil {
		return row
	}

	if f, ok := fields[extract.FieldEmployerName]; ok {
		row[4] = f.Text
	} else if f, ok := fields[extract.FieldPayerName]; ok {
		row[4] = f.Text
	}

	for i, c := range amountColumns {
		if f, ok := fields[c.field]; ok && f.Amount != nil {
			row[5+i] = f.Amount.StringFixed(2)
		}
	}

	var issues []domain.Issue
	if len(doc.Issues) > 0 {
		if err := json.Unmarshal(doc.Issues, &issues); err == nil {
			row[last] = strconv.Itoa(len(issues))
		}
	} else {
		row[last] = "0"
	}

	return row
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a filer name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_filer_name}_{YYYY-MM-DD}.csv
func BuildFilename(filerName string) string {
	sanitized := SanitizeFilename(filerName)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.csv", sanitized, date)
}
