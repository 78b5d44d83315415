package domain

import (
	"time"

	"github.com/google/uuid"
)

// Receipt is the central entity: one uploaded receipt document and the
// structured fields extracted from it.
//
// ID and BlobName are immutable once created. BlobName always follows
// "{userID}/{receiptID}{extension}" so the processing worker can recover the
// owner and record ID purely from the staged object path.
type Receipt struct {
	ID uuid.UUID `db:"id" json:"id"`

	// UserID currently comes from the X-User-Id request header. It will be
	// replaced by the authenticated user's claim.
	UserID string `db:"user_id" json:"user_id"`

	OriginalFileName string `db:"original_file_name" json:"original_file_name"`
	BlobName         string `db:"blob_name" json:"blob_name"`

	Status ReceiptStatus `db:"status" json:"status"`

	// Fields extracted by the document-understanding service. Each of the
	// first three carries a confidence score in [0.0, 1.0]; a confidence is
	// only ever set together with its value, as a unit, during extraction.
	MerchantName    *string    `db:"merchant_name" json:"merchant_name"`
	TotalAmount     *float64   `db:"total_amount" json:"total_amount"`
	TransactionDate *time.Time `db:"transaction_date" json:"transaction_date"`
	Currency        *string    `db:"currency" json:"currency"`

	MerchantNameConfidence    *float64 `db:"merchant_name_confidence" json:"merchant_name_confidence"`
	TotalAmountConfidence     *float64 `db:"total_amount_confidence" json:"total_amount_confidence"`
	TransactionDateConfidence *float64 `db:"transaction_date_confidence" json:"transaction_date_confidence"`

	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time `db:"processed_at" json:"processed_at"`
	ErrorMessage *string    `db:"error_message" json:"error_message"`
}

// NeedsReview reports whether the receipt is waiting on user corrections.
func (r *Receipt) NeedsReview() bool {
	return r.Status == StatusNeedsReview
}

// ReviewPatch carries user-supplied corrections for a receipt in NeedsReview.
// Every field is optional; only non-empty fields override the extracted values.
type ReviewPatch struct {
	MerchantName    *string    `json:"merchantName"`
	TotalAmount     *float64   `json:"totalAmount"`
	TransactionDate *time.Time `json:"transactionDate"`
	Currency        *string    `json:"currency"`
}

// Apply overlays the patch onto the receipt. It mutates only the four
// reviewable fields; status and audit transitions are the caller's job.
func (p ReviewPatch) Apply(r *Receipt) {
	if p.MerchantName != nil && *p.MerchantName != "" {
		r.MerchantName = p.MerchantName
	}
	if p.TotalAmount != nil {
		r.TotalAmount = p.TotalAmount
	}
	if p.TransactionDate != nil {
		r.TransactionDate = p.TransactionDate
	}
	if p.Currency != nil && *p.Currency != "" {
		r.Currency = p.Currency
	}
}
