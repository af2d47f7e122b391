package domain

// DocumentCategory identifies the kind of tax document. The set is closed and
// shared with the persistence layer; unknown values must be rejected before
// being written back.
type DocumentCategory string

const (
	CategoryW2       DocumentCategory = "w2"
	Category1099INT  DocumentCategory = "1099-int"
	Category1099DIV  DocumentCategory = "1099-div"
	Category1099MISC DocumentCategory = "1099-misc"
	Category1099NEC  DocumentCategory = "1099-nec"
	CategoryUnknown  DocumentCategory = "unknown"
)

// AllCategories lists every recognized category in declaration order.
// Declaration order also breaks classifier score ties.
var AllCategories = []DocumentCategory{
	CategoryW2,
	Category1099INT,
	Category1099DIV,
	Category1099MISC,
	Category1099NEC,
}

// Valid reports whether c is a member of the closed category enumeration.
func (c DocumentCategory) Valid() bool {
	switch c {
	case CategoryW2, Category1099INT, Category1099DIV, Category1099MISC, Category1099NEC, CategoryUnknown:
		return true
	}
	return false
}

// IsInformationReturn reports whether c belongs to the 1099 family.
func (c DocumentCategory) IsInformationReturn() bool {
	switch c {
	case Category1099INT, Category1099DIV, Category1099MISC, Category1099NEC:
		return true
	}
	return false
}

// FilingStatus selects the bracket schedule and standard deduction.
type FilingStatus string

const (
	FilingSingle          FilingStatus = "single"
	FilingMarriedJoint    FilingStatus = "married_joint"
	FilingMarriedSeparate FilingStatus = "married_separate"
	FilingHeadOfHousehold FilingStatus = "head_of_household"
)

// Valid reports whether f is a recognized filing status.
func (f FilingStatus) Valid() bool {
	switch f {
	case FilingSingle, FilingMarriedJoint, FilingMarriedSeparate, FilingHeadOfHousehold:
		return true
	}
	return false
}

// FieldSource records which extraction layer produced a field value.
type FieldSource string

const (
	SourceStructured  FieldSource = "structured"
	SourceTextPattern FieldSource = "text-pattern"
)

// ExtractionStatus represents the lifecycle of a submitted document.
type ExtractionStatus string

const (
	ExtractionQueued     ExtractionStatus = "queued"
	ExtractionProcessing ExtractionStatus = "processing"
	ExtractionExtracted  ExtractionStatus = "extracted"
	ExtractionFailed     ExtractionStatus = "failed"
)

// ReviewStatus represents the human review state of an extracted document.
// Low-confidence extractions stay editable until a reviewer approves them.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// IssueKind classifies non-fatal conditions collected during extraction and
// mapping. Issues travel with the result instead of being raised.
type IssueKind string

const (
	IssueProviderUnavailable    IssueKind = "provider_unavailable"
	IssueExtractionIncomplete   IssueKind = "extraction_incomplete"
	IssueValidationFailed       IssueKind = "validation_failed"
	IssueClassificationMismatch IssueKind = "classification_mismatch"
)

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}
