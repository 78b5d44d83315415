package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrEmptyFile           = errors.New("file is empty")
	ErrFileTooLarge        = errors.New("file exceeds the 10 MB size limit")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrContentMismatch     = errors.New("file content does not match its declared type")
	ErrUploadFailed        = errors.New("file upload to storage failed")

	// ErrObjectNotFound means the staged object is gone from the quarantine
	// area, typically because a redelivered trigger raced an earlier run that
	// already moved it.
	ErrObjectNotFound = errors.New("staged object not found")
)

// ReviewStateError is returned when a review is submitted against a receipt
// whose status is anything other than NeedsReview. The record is not mutated.
type ReviewStateError struct {
	Current ReceiptStatus
}

func (e *ReviewStateError) Error() string {
	return fmt.Sprintf("Only receipts with status 'NeedsReview' can be reviewed. Current status: %s", e.Current)
}
