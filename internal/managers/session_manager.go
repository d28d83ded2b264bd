package managers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	adminSessionLifetime  = 12 * time.Hour
	adminSessionKeyPrefix = "admin_session:"
	revokedTokenKeyPrefix = "revoked_refresh:"
)

var ErrSessionNotFound = errors.New("session not found")

// AdminSession is the server-side state referenced by an admin session cookie.
type AdminSession struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"user_email"`
}

// SessionMgr manages admin sessions and the refresh-token denylist in Redis.
type SessionMgr interface {
	CreateAdminSession(ctx context.Context, userId uuid.UUID, email string) (string, error)
	GetAdminSession(ctx context.Context, token string) (*AdminSession, error)
	DeleteAdminSession(ctx context.Context, token string) error
	RevokeRefreshToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsRefreshTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// SessionManager is a concrete implementation of the SessionMgr interface
// backed by a Redis client.
type SessionManager struct {
	client *redis.Client
}

// NewSessionManager creates a new SessionManager with the given Redis client.
func NewSessionManager(client *redis.Client) SessionMgr {
	log.Info("Initializing session manager")
	return &SessionManager{client: client}
}

// CreateAdminSession stores the session state in Redis under an opaque random
// token and returns the token.
func (sm *SessionManager) CreateAdminSession(ctx context.Context, userId uuid.UUID, email string) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	session, err := json.Marshal(AdminSession{UserID: userId, Email: email})
	if err != nil {
		return "", err
	}

	if err := sm.client.Set(ctx, adminSessionKeyPrefix+token, session, adminSessionLifetime).Err(); err != nil {
		return "", err
	}

	return token, nil
}

// GetAdminSession returns the session state behind the given token, or
// ErrSessionNotFound if the token is unknown or expired.
func (sm *SessionManager) GetAdminSession(ctx context.Context, token string) (*AdminSession, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	payload, err := sm.client.Get(ctx, adminSessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var session AdminSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, err
	}

	return &session, nil
}

// DeleteAdminSession removes the session behind the given token.
func (sm *SessionManager) DeleteAdminSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return sm.client.Del(ctx, adminSessionKeyPrefix+token).Err()
}

// RevokeRefreshToken denylists a refresh token id until the token would have
// expired anyway. Already expired tokens need no entry.
func (sm *SessionManager) RevokeRefreshToken(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return sm.client.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl).Err()
}

// IsRefreshTokenRevoked reports whether the refresh token id has been
// denylisted.
func (sm *SessionManager) IsRefreshTokenRevoked(ctx context.Context, jti string) (bool, error) {
	count, err := sm.client.Exists(ctx, revokedTokenKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
