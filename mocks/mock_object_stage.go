package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockObjectStage is a mock implementation of port.ObjectStage.
type MockObjectStage struct {
	mock.Mock
}

func (m *MockObjectStage) StageToQuarantine(ctx context.Context, content io.Reader, blobName, contentType string) error {
	args := m.Called(ctx, content, blobName, contentType)
	return args.Error(0)
}

func (m *MockObjectStage) Download(ctx context.Context, blobName string) ([]byte, error) {
	args := m.Called(ctx, blobName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockObjectStage) MoveToProcessed(ctx context.Context, blobName string) error {
	args := m.Called(ctx, blobName)
	return args.Error(0)
}

func (m *MockObjectStage) GetPresignedURL(ctx context.Context, blobName string, processed bool, expirySeconds int64) (string, error) {
	args := m.Called(ctx, blobName, processed, expirySeconds)
	return args.String(0), args.Error(1)
}
