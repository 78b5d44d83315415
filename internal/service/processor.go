package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"receiptdesk/internal/domain"
	"receiptdesk/internal/port"
)

// Processor drives a staged receipt through extraction:
// Uploaded → Processing → {NeedsReview, Completed, Failed}.
//
// Trigger delivery is at-least-once, so every stage is safe to re-run:
// re-marking Processing, re-persisting the same terminal fields and
// re-attempting relocation of an already-moved object are all harmless.
type Processor struct {
	receiptRepo port.ReceiptRepository
	extractor   port.ReceiptExtractor
	stage       port.ObjectStage
}

// NewProcessor creates a new Processor.
func NewProcessor(
	receiptRepo port.ReceiptRepository,
	extractor port.ReceiptExtractor,
	stage port.ObjectStage,
) *Processor {
	return &Processor{
		receiptRepo: receiptRepo,
		extractor:   extractor,
		stage:       stage,
	}
}

// Process handles one staged object. blobName must decompose as
// "{userID}/{receiptID}{extension}"; malformed names and staged objects with
// no matching record are logged and skipped, they indicate a corrupted
// trigger or an orphaned upload, not work for this worker.
//
// A returned error means a store or extraction-transport failure worth
// redelivering; handled extraction outcomes (including Failed) return nil.
func (p *Processor) Process(ctx context.Context, blobName string, content []byte) error {
	log.Printf("processor: triggered for blob %q", blobName)

	userID, receiptID, ok := parseBlobName(blobName)
	if !ok {
		return nil
	}

	receipt, err := p.receiptRepo.GetByID(ctx, receiptID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Printf("processor: no receipt record for ID %s and user %q; blob may have been staged without an API call", receiptID, userID)
			return nil
		}
		return fmt.Errorf("fetching receipt %s: %w", receiptID, err)
	}

	receipt.Status = domain.StatusProcessing
	if err := p.receiptRepo.Update(ctx, receipt); err != nil {
		return fmt.Errorf("marking receipt %s processing: %w", receiptID, err)
	}
	log.Printf("processor: receipt %s status set to Processing", receiptID)

	result, err := p.extractor.Extract(ctx, content)
	if err != nil {
		return p.failReceipt(ctx, receipt, fmt.Sprintf("extraction failed: %v", err))
	}
	if !result.Success {
		return p.failReceipt(ctx, receipt, result.ErrorMessage)
	}

	applyExtraction(receipt, result)

	if result.NeedsReview {
		receipt.Status = domain.StatusNeedsReview
	} else {
		receipt.Status = domain.StatusCompleted
	}
	now := time.Now().UTC()
	receipt.ProcessedAt = &now

	if err := p.receiptRepo.Update(ctx, receipt); err != nil {
		return fmt.Errorf("persisting extraction outcome for %s: %w", receiptID, err)
	}

	log.Printf("processor: receipt %s updated, status %s", receiptID, receipt.Status)

	// The persisted status is authoritative; relocation failure is an
	// operator concern and never rolls it back.
	if err := p.stage.MoveToProcessed(ctx, blobName); err != nil {
		log.Printf("processor: failed to move blob %q to processed area: %v", blobName, err)
	} else {
		log.Printf("processor: blob %q moved to processed area", blobName)
	}
	return nil
}

func (p *Processor) failReceipt(ctx context.Context, receipt *domain.Receipt, message string) error {
	receipt.Status = domain.StatusFailed
	receipt.ErrorMessage = &message
	now := time.Now().UTC()
	receipt.ProcessedAt = &now

	if err := p.receiptRepo.Update(ctx, receipt); err != nil {
		return fmt.Errorf("persisting failure for %s: %w", receipt.ID, err)
	}
	log.Printf("processor: receipt %s processing failed: %s", receipt.ID, message)
	return nil
}

// parseBlobName splits "{userID}/{receiptID}{extension}" into its parts.
// Anything else is logged and rejected.
func parseBlobName(blobName string) (userID string, receiptID uuid.UUID, ok bool) {
	segments := strings.Split(blobName, "/")
	if len(segments) != 2 {
		log.Printf("processor: unexpected blob name format %q, expected {userId}/{receiptId}{ext}", blobName)
		return "", uuid.Nil, false
	}

	stem := strings.TrimSuffix(segments[1], path.Ext(segments[1]))
	receiptID, err := uuid.Parse(stem)
	if err != nil {
		log.Printf("processor: could not parse receipt ID from blob filename %q", segments[1])
		return "", uuid.Nil, false
	}
	return segments[0], receiptID, true
}

// applyExtraction copies extracted values onto the record. A confidence is
// only set together with its value, as a unit.
func applyExtraction(receipt *domain.Receipt, result *port.ExtractionResult) {
	if result.MerchantName != nil {
		receipt.MerchantName = result.MerchantName
		confidence := result.MerchantNameConfidence
		receipt.MerchantNameConfidence = &confidence
	}
	if result.TotalAmount != nil {
		receipt.TotalAmount = result.TotalAmount
		confidence := result.TotalAmountConfidence
		receipt.TotalAmountConfidence = &confidence
	}
	if result.Currency != nil {
		receipt.Currency = result.Currency
	}
	if result.TransactionDate != nil {
		receipt.TransactionDate = result.TransactionDate
		confidence := result.TransactionDateConfidence
		receipt.TransactionDateConfidence = &confidence
	}
}
