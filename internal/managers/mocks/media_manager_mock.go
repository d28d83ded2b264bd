package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"scribe-server/internal/schemas"
)

type MockMediaManager struct {
	mock.Mock
}

func (m *MockMediaManager) DeleteByURL(ctx context.Context, mediaURL string) error {
	args := m.Called(ctx, mediaURL)
	return args.Error(0)
}

func (m *MockMediaManager) UploadAuth(userId string) (*schemas.UploadAuthDTO, error) {
	args := m.Called(userId)
	if auth := args.Get(0); auth != nil {
		return auth.(*schemas.UploadAuthDTO), args.Error(1)
	}
	return nil, args.Error(1)
}
