package port

import (
	"context"

	"github.com/google/uuid"

	"receiptdesk/internal/domain"
)

// ReceiptRepository defines the contract for receipt persistence.
// All query methods include userID so owner isolation is enforced at the data
// layer: a record is only reachable as (id, owner).
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *domain.Receipt) error
	GetByID(ctx context.Context, id uuid.UUID, userID string) (*domain.Receipt, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Receipt, error)
	Update(ctx context.Context, receipt *domain.Receipt) error
}
