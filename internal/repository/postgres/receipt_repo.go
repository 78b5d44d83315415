package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"receiptdesk/internal/domain"
	"receiptdesk/internal/port"
)

type receiptRepo struct {
	db *sqlx.DB
}

// NewReceiptRepo creates a new PostgreSQL-backed ReceiptRepository.
func NewReceiptRepo(db *sqlx.DB) port.ReceiptRepository {
	return &receiptRepo{db: db}
}

func (r *receiptRepo) Create(ctx context.Context, receipt *domain.Receipt) error {
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO receipts
		(id, user_id, original_file_name, blob_name, status,
		 merchant_name, total_amount, transaction_date, currency,
		 merchant_name_confidence, total_amount_confidence, transaction_date_confidence,
		 created_at, processed_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.ExecContext(ctx, query,
		receipt.ID, receipt.UserID, receipt.OriginalFileName, receipt.BlobName, receipt.Status,
		receipt.MerchantName, receipt.TotalAmount, receipt.TransactionDate, receipt.Currency,
		receipt.MerchantNameConfidence, receipt.TotalAmountConfidence, receipt.TransactionDateConfidence,
		receipt.CreatedAt, receipt.ProcessedAt, receipt.ErrorMessage)
	if err != nil {
		return fmt.Errorf("receiptRepo.Create: %w", err)
	}
	return nil
}

func (r *receiptRepo) GetByID(ctx context.Context, id uuid.UUID, userID string) (*domain.Receipt, error) {
	var receipt domain.Receipt
	err := r.db.GetContext(ctx, &receipt,
		"SELECT * FROM receipts WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("receiptRepo.GetByID: %w", err)
	}
	return &receipt, nil
}

func (r *receiptRepo) ListByUser(ctx context.Context, userID string) ([]domain.Receipt, error) {
	var receipts []domain.Receipt
	err := r.db.SelectContext(ctx, &receipts,
		"SELECT * FROM receipts WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("receiptRepo.ListByUser: %w", err)
	}
	return receipts, nil
}

// Update persists the full mutable state of the receipt. Identity and
// provenance columns (user_id, original_file_name, blob_name, created_at) are
// deliberately not in the SET list: they are immutable once created.
func (r *receiptRepo) Update(ctx context.Context, receipt *domain.Receipt) error {
	query := `UPDATE receipts SET
		status = $1,
		merchant_name = $2, total_amount = $3, transaction_date = $4, currency = $5,
		merchant_name_confidence = $6, total_amount_confidence = $7, transaction_date_confidence = $8,
		processed_at = $9, error_message = $10
		WHERE id = $11 AND user_id = $12`

	result, err := r.db.ExecContext(ctx, query,
		receipt.Status,
		receipt.MerchantName, receipt.TotalAmount, receipt.TransactionDate, receipt.Currency,
		receipt.MerchantNameConfidence, receipt.TotalAmountConfidence, receipt.TransactionDateConfidence,
		receipt.ProcessedAt, receipt.ErrorMessage,
		receipt.ID, receipt.UserID)
	if err != nil {
		return fmt.Errorf("receiptRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
