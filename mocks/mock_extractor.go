package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"receiptdesk/internal/port"
)

// MockExtractor is a mock implementation of port.ReceiptExtractor.
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, content []byte) (*port.ExtractionResult, error) {
	args := m.Called(ctx, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ExtractionResult), args.Error(1)
}
