package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"time"

	"github.com/google/uuid"

	"receiptdesk/internal/config"
	"receiptdesk/internal/domain"
	"receiptdesk/internal/port"
	"receiptdesk/internal/validator"
)

// ReceiptUploadInput is the DTO for receipt upload requests.
type ReceiptUploadInput struct {
	UserID string
	File   multipart.File
	Header *multipart.FileHeader
}

// ReceiptService defines the upload, polling and review contract.
type ReceiptService interface {
	Upload(ctx context.Context, input ReceiptUploadInput) (*domain.Receipt, error)
	GetByID(ctx context.Context, id uuid.UUID, userID string) (*domain.Receipt, error)
	List(ctx context.Context, userID string) ([]domain.Receipt, error)
	SubmitReview(ctx context.Context, id uuid.UUID, userID string, patch domain.ReviewPatch) (*domain.Receipt, error)
	GetDownloadURL(ctx context.Context, receipt *domain.Receipt) (string, error)
}

type receiptService struct {
	receiptRepo port.ReceiptRepository
	stage       port.ObjectStage
	cfg         *config.S3Config
}

// NewReceiptService creates a new ReceiptService implementation.
func NewReceiptService(
	receiptRepo port.ReceiptRepository,
	stage port.ObjectStage,
	cfg *config.S3Config,
) ReceiptService {
	return &receiptService{
		receiptRepo: receiptRepo,
		stage:       stage,
		cfg:         cfg,
	}
}

// Upload validates the file (size, declared type, signature, in that order),
// stages it into quarantine and creates the record at Uploaded. Extraction
// happens asynchronously; callers poll GetByID.
func (s *receiptService) Upload(ctx context.Context, input ReceiptUploadInput) (*domain.Receipt, error) {
	if input.Header.Size == 0 {
		return nil, domain.ErrEmptyFile
	}
	if input.Header.Size > validator.MaxFileSizeBytes {
		return nil, domain.ErrFileTooLarge
	}

	contentType := input.Header.Header.Get("Content-Type")
	if !validator.IsContentTypeAllowed(contentType) {
		return nil, domain.ErrUnsupportedFileType
	}
	if !validator.HasValidMagicBytes(input.File, contentType) {
		return nil, domain.ErrContentMismatch
	}

	extension, err := validator.ExtensionForContentType(contentType)
	if err != nil {
		return nil, err
	}

	receiptID := uuid.New()
	blobName := fmt.Sprintf("%s/%s%s", input.UserID, receiptID, extension)

	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file: %w", err)
	}
	if err := s.stage.StageToQuarantine(ctx, input.File, blobName, contentType); err != nil {
		log.Printf("receiptService.Upload: staging failed for %s: %v", blobName, err)
		return nil, domain.ErrUploadFailed
	}

	receipt := &domain.Receipt{
		ID:               receiptID,
		UserID:           input.UserID,
		OriginalFileName: input.Header.Filename,
		BlobName:         blobName,
		Status:           domain.StatusUploaded,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		return nil, fmt.Errorf("creating receipt record: %w", err)
	}

	log.Printf("receiptService.Upload: receipt %s uploaded by user %s, blob %s",
		receipt.ID, input.UserID, blobName)

	return receipt, nil
}

func (s *receiptService) GetByID(ctx context.Context, id uuid.UUID, userID string) (*domain.Receipt, error) {
	return s.receiptRepo.GetByID(ctx, id, userID)
}

func (s *receiptService) List(ctx context.Context, userID string) ([]domain.Receipt, error) {
	return s.receiptRepo.ListByUser(ctx, userID)
}

// SubmitReview applies the caller's corrections and completes the receipt.
// Legal only while the current status is exactly NeedsReview; any other
// status is rejected without mutation.
func (s *receiptService) SubmitReview(ctx context.Context, id uuid.UUID, userID string, patch domain.ReviewPatch) (*domain.Receipt, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if receipt.Status != domain.StatusNeedsReview {
		return nil, &domain.ReviewStateError{Current: receipt.Status}
	}

	patch.Apply(receipt)
	receipt.Status = domain.StatusCompleted
	now := time.Now().UTC()
	receipt.ProcessedAt = &now

	if err := s.receiptRepo.Update(ctx, receipt); err != nil {
		return nil, err
	}

	log.Printf("receiptService.SubmitReview: receipt %s reviewed and completed by user %s", id, userID)
	return receipt, nil
}

// GetDownloadURL presigns the receipt's object. Until the worker relocates
// the file it still lives in quarantine; a Failed receipt's file stays there
// for good.
func (s *receiptService) GetDownloadURL(ctx context.Context, receipt *domain.Receipt) (string, error) {
	processed := receipt.Status == domain.StatusCompleted || receipt.Status == domain.StatusNeedsReview
	return s.stage.GetPresignedURL(ctx, receipt.BlobName, processed, s.cfg.PresignExpiry)
}
