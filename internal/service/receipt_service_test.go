package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"receiptdesk/internal/config"
	"receiptdesk/internal/domain"
	"receiptdesk/internal/service"
	"receiptdesk/internal/validator"
	"receiptdesk/mocks"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}

// createMultipartFile builds a multipart file and header the way gin hands
// them to the upload handler.
func createMultipartFile(t *testing.T, filename, contentType string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	file, header, err := req.FormFile("file")
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })
	return file, header
}

func newUploadService(repo *mocks.MockReceiptRepo, stage *mocks.MockObjectStage) service.ReceiptService {
	return service.NewReceiptService(repo, stage, &config.S3Config{PresignExpiry: 900})
}

func TestUpload_Success(t *testing.T) {
	file, header := createMultipartFile(t, "lunch.jpg", "image/jpeg", jpegBytes)

	mockRepo := new(mocks.MockReceiptRepo)
	mockStage := new(mocks.MockObjectStage)

	isUserBlob := func(blobName string) bool {
		rest, found := strings.CutPrefix(blobName, "user-1/")
		if !found || !strings.HasSuffix(rest, ".jpg") {
			return false
		}
		_, err := uuid.Parse(strings.TrimSuffix(rest, ".jpg"))
		return err == nil
	}
	mockStage.On("StageToQuarantine", mock.Anything, mock.Anything, mock.MatchedBy(isUserBlob), "image/jpeg").
		Return(nil)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Receipt) bool {
		return r.UserID == "user-1" &&
			r.OriginalFileName == "lunch.jpg" &&
			r.Status == domain.StatusUploaded &&
			isUserBlob(r.BlobName)
	})).Return(nil)

	svc := newUploadService(mockRepo, mockStage)
	receipt, err := svc.Upload(context.Background(), service.ReceiptUploadInput{
		UserID: "user-1",
		File:   file,
		Header: header,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusUploaded, receipt.Status)
	assert.Equal(t, "user-1", receipt.UserID)
	assert.Nil(t, receipt.MerchantName)
	mockStage.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestUpload_EmptyFile(t *testing.T) {
	file, header := createMultipartFile(t, "empty.jpg", "image/jpeg", nil)

	mockRepo := new(mocks.MockReceiptRepo)
	mockStage := new(mocks.MockObjectStage)

	svc := newUploadService(mockRepo, mockStage)
	_, err := svc.Upload(context.Background(), service.ReceiptUploadInput{
		UserID: "user-1",
		File:   file,
		Header: header,
	})

	assert.ErrorIs(t, err, domain.ErrEmptyFile)
	mockStage.AssertNotCalled(t, "StageToQuarantine", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpload_FileTooLarge(t *testing.T) {
	oversized := make([]byte, validator.MaxFileSizeBytes+1)
	copy(oversized, jpegBytes)
	file, header := createMultipartFile(t, "huge.jpg", "image/jpeg", oversized)

	mockRepo := new(mocks.MockReceiptRepo)
	mockStage := new(mocks.MockObjectStage)

	svc := newUploadService(mockRepo, mockStage)
	_, err := svc.Upload(context.Background(), service.ReceiptUploadInput{
		UserID: "user-1",
		File:   file,
		Header: header,
	})

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	mockStage.AssertNotCalled(t, "StageToQuarantine", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpload_UnsupportedContentType(t *testing.T) {
	file, header := createMultipartFile(t, "notes.txt", "text/plain", []byte("hello"))

	mockRepo := new(mocks.MockReceiptRepo)
	mockStage := new(mocks.MockObjectStage)

	svc := newUploadService(mockRepo, mockStage)
	_, err := svc.Upload(context.Background(), service.ReceiptUploadInput{
		UserID: "user-1",
		File:   file,
		Header: header,
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	mockStage.AssertNotCalled(t, "StageToQuarantine", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpload_SignatureMismatch(t *testing.T) {
	// Declared PNG, actual bytes are JPEG.
	file, header := createMultipartFile(t, "fake.png", "image/png", jpegBytes)

	mockRepo := new(mocks.MockReceiptRepo)
	mockStage := new(mocks.MockObjectStage)

	svc := newUploadService(mockRepo, mockStage)
	_, err := svc.Upload(context.Background(), service.ReceiptUploadInput{
		UserID: "user-1",
		File:   file,
		Header: header,
	})

	assert.ErrorIs(t, err, domain.ErrContentMismatch)
	mockStage.AssertNotCalled(t, "StageToQuarantine", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpload_StagingFailure(t *testing.T) {
	file, header := createMultipartFile(t, "lunch.jpg", "image/jpeg", jpegBytes)

	mockRepo := new(mocks.MockReceiptRepo)
	mockStage := new(mocks.MockObjectStage)
	mockStage.On("StageToQuarantine", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("bucket unavailable"))

	svc := newUploadService(mockRepo, mockStage)
	_, err := svc.Upload(context.Background(), service.ReceiptUploadInput{
		UserID: "user-1",
		File:   file,
		Header: header,
	})

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	// No orphaned record when the object never landed.
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitReview_AppliesPartialPatch(t *testing.T) {
	receiptID := uuid.New()
	merchant := "Knozum"
	total := 12.50
	receipt := &domain.Receipt{
		ID:           receiptID,
		UserID:       "user-1",
		Status:       domain.StatusNeedsReview,
		MerchantName: &merchant,
		TotalAmount:  &total,
	}

	mockRepo := new(mocks.MockReceiptRepo)
	mockStage := new(mocks.MockObjectStage)
	mockRepo.On("GetByID", mock.Anything, receiptID, "user-1").Return(receipt, nil)
	mockRepo.On("Update", mock.Anything, receipt).Return(nil)

	corrected := "Konzum d.d."
	svc := newUploadService(mockRepo, mockStage)
	updated, err := svc.SubmitReview(context.Background(), receiptID, "user-1", domain.ReviewPatch{
		MerchantName: &corrected,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	require.NotNil(t, updated.MerchantName)
	assert.Equal(t, "Konzum d.d.", *updated.MerchantName)
	// Fields absent from the patch keep their extracted values.
	require.NotNil(t, updated.TotalAmount)
	assert.Equal(t, 12.50, *updated.TotalAmount)
	assert.NotNil(t, updated.ProcessedAt)
}

func TestSubmitReview_WrongStatus(t *testing.T) {
	tests := []domain.ReceiptStatus{
		domain.StatusUploaded,
		domain.StatusProcessing,
		domain.StatusCompleted,
		domain.StatusFailed,
	}

	for _, status := range tests {
		t.Run(string(status), func(t *testing.T) {
			receiptID := uuid.New()
			receipt := &domain.Receipt{ID: receiptID, UserID: "user-1", Status: status}

			mockRepo := new(mocks.MockReceiptRepo)
			mockRepo.On("GetByID", mock.Anything, receiptID, "user-1").Return(receipt, nil)

			svc := newUploadService(mockRepo, new(mocks.MockObjectStage))
			_, err := svc.SubmitReview(context.Background(), receiptID, "user-1", domain.ReviewPatch{})

			var stateErr *domain.ReviewStateError
			require.ErrorAs(t, err, &stateErr)
			assert.Equal(t, status, stateErr.Current)
			assert.Equal(t,
				fmt.Sprintf("Only receipts with status 'NeedsReview' can be reviewed. Current status: %s", status),
				err.Error())
			mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitReview_NotFound(t *testing.T) {
	receiptID := uuid.New()

	mockRepo := new(mocks.MockReceiptRepo)
	mockRepo.On("GetByID", mock.Anything, receiptID, "user-2").Return(nil, domain.ErrNotFound)

	svc := newUploadService(mockRepo, new(mocks.MockObjectStage))
	_, err := svc.SubmitReview(context.Background(), receiptID, "user-2", domain.ReviewPatch{})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetDownloadURL_SelectsAreaByStatus(t *testing.T) {
	tests := []struct {
		status    domain.ReceiptStatus
		processed bool
	}{
		{domain.StatusCompleted, true},
		{domain.StatusNeedsReview, true},
		{domain.StatusUploaded, false},
		{domain.StatusProcessing, false},
		{domain.StatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			receipt := &domain.Receipt{
				ID:       uuid.New(),
				UserID:   "user-1",
				BlobName: "user-1/abc.jpg",
				Status:   tt.status,
			}

			mockStage := new(mocks.MockObjectStage)
			mockStage.On("GetPresignedURL", mock.Anything, "user-1/abc.jpg", tt.processed, int64(900)).
				Return("https://example.com/signed", nil)

			svc := newUploadService(new(mocks.MockReceiptRepo), mockStage)
			url, err := svc.GetDownloadURL(context.Background(), receipt)

			require.NoError(t, err)
			assert.Equal(t, "https://example.com/signed", url)
			mockStage.AssertExpectations(t)
		})
	}
}

func TestList_PassesThrough(t *testing.T) {
	receipts := []domain.Receipt{
		{ID: uuid.New(), UserID: "user-1", Status: domain.StatusCompleted, CreatedAt: time.Now().UTC()},
		{ID: uuid.New(), UserID: "user-1", Status: domain.StatusUploaded, CreatedAt: time.Now().UTC()},
	}

	mockRepo := new(mocks.MockReceiptRepo)
	mockRepo.On("ListByUser", mock.Anything, "user-1").Return(receipts, nil)

	svc := newUploadService(mockRepo, new(mocks.MockObjectStage))
	got, err := svc.List(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Len(t, got, 2)
}
