package port

import (
	"context"
	"io"
)

// ObjectStage abstracts the two-area blob store: a quarantine area for newly
// uploaded, not-yet-processed files and a processed area for files whose
// extraction has finished.
type ObjectStage interface {
	// StageToQuarantine uploads content under blobName
	// ("{userID}/{receiptID}{extension}") in the quarantine area. The content
	// type is stored with the object so browsers render downloads correctly.
	StageToQuarantine(ctx context.Context, content io.Reader, blobName, contentType string) error

	// Download fetches a staged object's bytes from the quarantine area.
	Download(ctx context.Context, blobName string) ([]byte, error)

	// MoveToProcessed copies a staged object from quarantine to the processed
	// area and deletes the original on success. Callers treat failure as
	// best-effort: a receipt's persisted status is authoritative even when
	// the file move fails.
	MoveToProcessed(ctx context.Context, blobName string) error

	// GetPresignedURL returns a time-limited download URL for the object.
	// processed selects the processed area; otherwise the quarantine area,
	// where the object still lives until the worker relocates it.
	GetPresignedURL(ctx context.Context, blobName string, processed bool, expirySeconds int64) (string, error)
}
