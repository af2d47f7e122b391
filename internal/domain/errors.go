package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrReturnNotFound      = errors.New("tax return not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrUnknownCategory     = errors.New("unrecognized document category")
	ErrUnknownFilingStatus = errors.New("unrecognized filing status")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrProviderUnavailable = errors.New("extraction provider unavailable")
	ErrNoUsableData        = errors.New("document carries no usable income data")
	ErrDocumentNotReady    = errors.New("document has not been extracted yet")
)
