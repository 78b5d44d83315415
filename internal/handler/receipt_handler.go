package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"receiptdesk/internal/domain"
	"receiptdesk/internal/export"
	"receiptdesk/internal/middleware"
	"receiptdesk/internal/service"
)

// ReceiptHandler handles receipt upload, polling and review endpoints.
type ReceiptHandler struct {
	receiptService service.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler.
func NewReceiptHandler(receiptService service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// ReceiptResponse is the client-facing receipt shape.
type ReceiptResponse struct {
	ID                        uuid.UUID  `json:"id"`
	Status                    string     `json:"status"`
	MerchantName              *string    `json:"merchantName"`
	TotalAmount               *float64   `json:"totalAmount"`
	TransactionDate           *time.Time `json:"transactionDate"`
	Currency                  *string    `json:"currency"`
	MerchantNameConfidence    *float64   `json:"merchantNameConfidence"`
	TotalAmountConfidence     *float64   `json:"totalAmountConfidence"`
	TransactionDateConfidence *float64   `json:"transactionDateConfidence"`
	CreatedAt                 time.Time  `json:"createdAt"`
	ProcessedAt               *time.Time `json:"processedAt"`
	NeedsReview               bool       `json:"needsReview"`
	ErrorMessage              *string    `json:"errorMessage"`
}

// ReceiptUploadResponse acknowledges an accepted upload. Extraction runs
// asynchronously; clients poll GET /receipts/{id}.
type ReceiptUploadResponse struct {
	ID      uuid.UUID `json:"id"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

// ReviewRequest carries partial field overrides for a NeedsReview receipt.
type ReviewRequest struct {
	MerchantName    *string    `json:"merchantName"`
	TotalAmount     *float64   `json:"totalAmount"`
	TransactionDate *time.Time `json:"transactionDate"`
	Currency        *string    `json:"currency"`
}

func toReceiptResponse(r *domain.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:                        r.ID,
		Status:                    string(r.Status),
		MerchantName:              r.MerchantName,
		TotalAmount:               r.TotalAmount,
		TransactionDate:           r.TransactionDate,
		Currency:                  r.Currency,
		MerchantNameConfidence:    r.MerchantNameConfidence,
		TotalAmountConfidence:     r.TotalAmountConfidence,
		TransactionDateConfidence: r.TransactionDateConfidence,
		CreatedAt:                 r.CreatedAt,
		ProcessedAt:               r.ProcessedAt,
		NeedsReview:               r.NeedsReview(),
		ErrorMessage:              r.ErrorMessage,
	}
}

// Upload handles POST /api/v1/receipts/upload
// Accepts a multipart "file" (JPEG, PNG or PDF, max 10 MB) and returns 202
// with the new receipt's ID.
func (h *ReceiptHandler) Upload(c *gin.Context) {
	userID := middleware.GetUserID(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	receipt, err := h.receiptService.Upload(c.Request.Context(), service.ReceiptUploadInput{
		UserID: userID,
		File:   file,
		Header: header,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, ReceiptUploadResponse{
		ID:      receipt.ID,
		Status:  string(receipt.Status),
		Message: "Receipt uploaded successfully.",
	})
}

// List handles GET /api/v1/receipts
// Returns all receipts owned by the caller, newest first.
func (h *ReceiptHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	receipts, err := h.receiptService.List(c.Request.Context(), userID)
	if err != nil {
		HandleError(c, err)
		return
	}

	responses := make([]ReceiptResponse, 0, len(receipts))
	for i := range receipts {
		responses = append(responses, toReceiptResponse(&receipts[i]))
	}
	RespondOK(c, responses)
}

// GetByID handles GET /api/v1/receipts/:id
// Returns one receipt with a presigned download URL. Used for status polling.
func (h *ReceiptHandler) GetByID(c *gin.Context) {
	userID := middleware.GetUserID(c)

	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid receipt ID")
		return
	}

	receipt, err := h.receiptService.GetByID(c.Request.Context(), receiptID, userID)
	if err != nil {
		HandleError(c, err)
		return
	}

	response := gin.H{"receipt": toReceiptResponse(receipt)}
	if downloadURL, err := h.receiptService.GetDownloadURL(c.Request.Context(), receipt); err == nil {
		response["downloadUrl"] = downloadURL
	}

	RespondOK(c, response)
}

// Export handles GET /api/v1/receipts/export
// Streams the caller's receipts as an XLSX attachment.
func (h *ReceiptHandler) Export(c *gin.Context) {
	userID := middleware.GetUserID(c)

	receipts, err := h.receiptService.List(c.Request.Context(), userID)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="receipts.xlsx"`)
	if err := export.WriteReceipts(c.Writer, receipts); err != nil {
		log.Printf("receiptHandler.Export: writing workbook: %v", err)
	}
}

// SubmitReview handles PATCH /api/v1/receipts/:id/review
// Applies caller corrections to a NeedsReview receipt and completes it.
func (h *ReceiptHandler) SubmitReview(c *gin.Context) {
	userID := middleware.GetUserID(c)

	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid receipt ID")
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}

	receipt, err := h.receiptService.SubmitReview(c.Request.Context(), receiptID, userID, domain.ReviewPatch{
		MerchantName:    req.MerchantName,
		TotalAmount:     req.TotalAmount,
		TransactionDate: req.TransactionDate,
		Currency:        req.Currency,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, toReceiptResponse(receipt))
}
