package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"receiptdesk/internal/domain"
	"receiptdesk/internal/handler"
	"receiptdesk/internal/port"
	"receiptdesk/internal/service"
	"receiptdesk/mocks"
)

const quarantinePrefix = "receipts-quarantine"

func setupTriggerRouter(repo *mocks.MockReceiptRepo, extractor *mocks.MockExtractor, stage *mocks.MockObjectStage) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	processor := service.NewProcessor(repo, extractor, stage)
	h := handler.NewTriggerHandler(processor, stage, quarantinePrefix)
	r.POST("/internal/v1/storage-events", h.StorageEvent)
	return r
}

func storageEventBody(objectKey string) string {
	return fmt.Sprintf(`{"Records": [{"s3": {"object": {"key": "%s"}}}]}`, objectKey)
}

func postStorageEvent(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/internal/v1/storage-events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStorageEvent_ProcessesQuarantinedObject(t *testing.T) {
	receiptID := uuid.New()
	blobName := "alice/" + receiptID.String() + ".jpg"
	receipt := &domain.Receipt{
		ID:        receiptID,
		UserID:    "alice",
		BlobName:  blobName,
		Status:    domain.StatusUploaded,
		CreatedAt: time.Now().UTC(),
	}

	merchant := "Konzum d.d."
	total := 12.50
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	mockRepo := new(mocks.MockReceiptRepo)
	mockExtractor := new(mocks.MockExtractor)
	mockStage := new(mocks.MockObjectStage)

	mockStage.On("Download", mock.Anything, blobName).Return([]byte("jpeg-bytes"), nil)
	mockRepo.On("GetByID", mock.Anything, receiptID, "alice").Return(receipt, nil)
	mockRepo.On("Update", mock.Anything, receipt).Return(nil)
	mockExtractor.On("Extract", mock.Anything, []byte("jpeg-bytes")).Return(&port.ExtractionResult{
		Success:                   true,
		MerchantName:              &merchant,
		MerchantNameConfidence:    0.95,
		TotalAmount:               &total,
		TotalAmountConfidence:     0.97,
		TransactionDate:           &date,
		TransactionDateConfidence: 0.92,
	}, nil)
	mockStage.On("MoveToProcessed", mock.Anything, blobName).Return(nil)

	r := setupTriggerRouter(mockRepo, mockExtractor, mockStage)
	w := postStorageEvent(r, storageEventBody(quarantinePrefix+"/"+blobName))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusCompleted, receipt.Status)
	mockStage.AssertExpectations(t)
}

func TestStorageEvent_DecodesURLEncodedKeys(t *testing.T) {
	receiptID := uuid.New()
	blobName := "user a/" + receiptID.String() + ".jpg"
	receipt := &domain.Receipt{
		ID:       receiptID,
		UserID:   "user a",
		BlobName: blobName,
		Status:   domain.StatusUploaded,
	}

	mockRepo := new(mocks.MockReceiptRepo)
	mockExtractor := new(mocks.MockExtractor)
	mockStage := new(mocks.MockObjectStage)

	mockStage.On("Download", mock.Anything, blobName).Return([]byte("jpeg-bytes"), nil)
	mockRepo.On("GetByID", mock.Anything, receiptID, "user a").Return(receipt, nil)
	mockRepo.On("Update", mock.Anything, receipt).Return(nil)
	mockExtractor.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractionResult{
		Success:      false,
		ErrorMessage: "Document Intelligence could not identify a receipt in the uploaded image.",
	}, nil)

	encodedKey := quarantinePrefix + "/user+a/" + receiptID.String() + ".jpg"
	r := setupTriggerRouter(mockRepo, mockExtractor, mockStage)
	w := postStorageEvent(r, storageEventBody(encodedKey))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusFailed, receipt.Status)
	mockStage.AssertExpectations(t)
}

func TestStorageEvent_IgnoresObjectsOutsideQuarantine(t *testing.T) {
	mockRepo := new(mocks.MockReceiptRepo)
	mockExtractor := new(mocks.MockExtractor)
	mockStage := new(mocks.MockObjectStage)

	r := setupTriggerRouter(mockRepo, mockExtractor, mockStage)
	w := postStorageEvent(r, storageEventBody("receipts-processed/alice/"+uuid.NewString()+".jpg"))

	assert.Equal(t, http.StatusOK, w.Code)
	mockStage.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
}

func TestStorageEvent_UnparseableBodyAcknowledged(t *testing.T) {
	mockRepo := new(mocks.MockReceiptRepo)
	mockExtractor := new(mocks.MockExtractor)
	mockStage := new(mocks.MockObjectStage)

	r := setupTriggerRouter(mockRepo, mockExtractor, mockStage)
	w := postStorageEvent(r, "not an event")

	assert.Equal(t, http.StatusOK, w.Code)
	mockStage.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
}

func TestStorageEvent_AlreadyMovedObjectSkipped(t *testing.T) {
	receiptID := uuid.New()
	blobName := "alice/" + receiptID.String() + ".jpg"

	mockRepo := new(mocks.MockReceiptRepo)
	mockExtractor := new(mocks.MockExtractor)
	mockStage := new(mocks.MockObjectStage)
	mockStage.On("Download", mock.Anything, blobName).Return(nil, domain.ErrObjectNotFound)

	// A redelivered event for an object an earlier run already moved out of
	// quarantine is acknowledged, not retried.
	r := setupTriggerRouter(mockRepo, mockExtractor, mockStage)
	w := postStorageEvent(r, storageEventBody(quarantinePrefix+"/"+blobName))

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestStorageEvent_DownloadFailureRetried(t *testing.T) {
	receiptID := uuid.New()
	blobName := "alice/" + receiptID.String() + ".jpg"

	mockRepo := new(mocks.MockReceiptRepo)
	mockExtractor := new(mocks.MockExtractor)
	mockStage := new(mocks.MockObjectStage)
	mockStage.On("Download", mock.Anything, blobName).Return(nil, errors.New("object not found"))

	r := setupTriggerRouter(mockRepo, mockExtractor, mockStage)
	w := postStorageEvent(r, storageEventBody(quarantinePrefix+"/"+blobName))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}
