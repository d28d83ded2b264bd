package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"scribe-server/internal/managers"
)

type MockSessionManager struct {
	mock.Mock
}

func (m *MockSessionManager) CreateAdminSession(ctx context.Context, userId uuid.UUID, email string) (string, error) {
	args := m.Called(ctx, userId, email)
	return args.String(0), args.Error(1)
}

func (m *MockSessionManager) GetAdminSession(ctx context.Context, token string) (*managers.AdminSession, error) {
	args := m.Called(ctx, token)
	if session := args.Get(0); session != nil {
		return session.(*managers.AdminSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionManager) DeleteAdminSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockSessionManager) RevokeRefreshToken(ctx context.Context, jti string, expiresAt time.Time) error {
	args := m.Called(ctx, jti, expiresAt)
	return args.Error(0)
}

func (m *MockSessionManager) IsRefreshTokenRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}
