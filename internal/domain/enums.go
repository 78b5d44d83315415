package domain

// ReceiptStatus represents the lifecycle of a receipt record.
//
// Uploaded is the initial state. Processing is set by the worker before the
// extraction call. NeedsReview, Completed and Failed are terminal, except that
// NeedsReview has one further transition to Completed via review submission.
type ReceiptStatus string

const (
	StatusUploaded    ReceiptStatus = "Uploaded"
	StatusProcessing  ReceiptStatus = "Processing"
	StatusNeedsReview ReceiptStatus = "NeedsReview"
	StatusCompleted   ReceiptStatus = "Completed"
	StatusFailed      ReceiptStatus = "Failed"
)

// AnonymousUser is the owner recorded when the caller supplies no user header.
const AnonymousUser = "anonymous"
