package port

import (
	"context"
	"time"
)

// ExtractionResult describes one extraction attempt's outcome. When Success is
// false ErrorMessage carries the reason and no field values are meaningful.
// Currency rides along with TotalAmount and has no confidence of its own.
type ExtractionResult struct {
	Success      bool
	ErrorMessage string

	MerchantName           *string
	MerchantNameConfidence float64

	TotalAmount           *float64
	TotalAmountConfidence float64
	Currency              *string

	TransactionDate           *time.Time
	TransactionDateConfidence float64

	// NeedsReview is true when any of the three tracked fields is absent or
	// its confidence is below the extraction threshold.
	NeedsReview bool
}

// ReceiptExtractor is the external document-understanding capability: given
// raw document bytes, return structured fields with confidences.
//
// A non-nil error means the service itself could not be reached or answered
// with a transport/API failure. A result with Success=false means the service
// answered but recognized no receipt in the document.
type ReceiptExtractor interface {
	Extract(ctx context.Context, content []byte) (*ExtractionResult, error)
}
