package managers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAccessTokenClaims(t *testing.T) {
	jwtMgr := NewJWTManager(testSecret)

	token, err := jwtMgr.GenerateAccessToken("user-123")
	require.NoError(t, err)

	claims, err := jwtMgr.ValidateJWT(token)
	require.NoError(t, err)

	mapClaims := claims.(jwt.MapClaims)
	assert.Equal(t, "user-123", mapClaims["sub"])
	assert.Equal(t, "false", mapClaims["refresh"])

	exp, err := mapClaims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(accessTokenLifetime), exp.Time, 5*time.Second)
}

func TestRefreshTokenCarriesUniqueId(t *testing.T) {
	jwtMgr := NewJWTManager(testSecret)

	first, firstJti, firstExp, err := jwtMgr.GenerateRefreshToken("user-123")
	require.NoError(t, err)
	second, secondJti, _, err := jwtMgr.GenerateRefreshToken("user-123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, firstJti, secondJti)
	assert.WithinDuration(t, time.Now().Add(refreshTokenLifetime), firstExp, 5*time.Second)

	claims, err := jwtMgr.ValidateJWT(first)
	require.NoError(t, err)
	mapClaims := claims.(jwt.MapClaims)
	assert.Equal(t, "true", mapClaims["refresh"])
	assert.Equal(t, firstJti, mapClaims["jti"])
}

func TestVerificationTokenRoundTrip(t *testing.T) {
	jwtMgr := NewJWTManager(testSecret)

	token, err := jwtMgr.GenerateVerificationToken("user-123", "user@example.com")
	require.NoError(t, err)

	userId, email, err := jwtMgr.VerifyVerificationToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userId)
	assert.Equal(t, "user@example.com", email)
}

func TestBearerPathRejectsAudienceTokens(t *testing.T) {
	jwtMgr := NewJWTManager(testSecret)

	// Mail-delivered tokens carry an audience tag and must never pass the
	// bearer path
	verificationToken, err := jwtMgr.GenerateVerificationToken("user-123", "user@example.com")
	require.NoError(t, err)
	_, err = jwtMgr.ValidateJWT(verificationToken)
	assert.ErrorIs(t, err, ErrAudienceMismatch)

	resetToken, err := jwtMgr.GenerateResetToken("user-123", "user@example.com")
	require.NoError(t, err)
	_, err = jwtMgr.ValidateJWT(resetToken)
	assert.ErrorIs(t, err, ErrAudienceMismatch)
}

func TestResetTokenRoundTrip(t *testing.T) {
	jwtMgr := NewJWTManager(testSecret)

	token, err := jwtMgr.GenerateResetToken("user-123", "user@example.com")
	require.NoError(t, err)

	userId, email, err := jwtMgr.VerifyResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userId)
	assert.Equal(t, "user@example.com", email)
}

func TestResetAndVerificationTokensAreNotInterchangeable(t *testing.T) {
	jwtMgr := NewJWTManager(testSecret)

	verificationToken, err := jwtMgr.GenerateVerificationToken("user-123", "user@example.com")
	require.NoError(t, err)
	_, _, err = jwtMgr.VerifyResetToken(verificationToken)
	assert.ErrorIs(t, err, ErrAudienceMismatch)

	resetToken, err := jwtMgr.GenerateResetToken("user-123", "user@example.com")
	require.NoError(t, err)
	_, _, err = jwtMgr.VerifyVerificationToken(resetToken)
	assert.ErrorIs(t, err, ErrAudienceMismatch)
}

func TestVerificationTokenRejectsAccessToken(t *testing.T) {
	jwtMgr := NewJWTManager(testSecret)

	// An access token has no audience and must not redeem as verification
	token, err := jwtMgr.GenerateAccessToken("user-123")
	require.NoError(t, err)

	_, _, err = jwtMgr.VerifyVerificationToken(token)
	assert.ErrorIs(t, err, ErrAudienceMismatch)
}

func TestVerificationTokenExpiredIsDistinguishable(t *testing.T) {
	jwtMgr := NewJWTManager(testSecret)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":   issuer,
		"aud":   verificationAudience,
		"iat":   time.Now().Add(-48 * time.Hour).Unix(),
		"exp":   time.Now().Add(-24 * time.Hour).Unix(),
		"sub":   "user-123",
		"email": "user@example.com",
	})
	token, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, _, err = jwtMgr.VerifyVerificationToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerificationTokenMalformed(t *testing.T) {
	jwtMgr := NewJWTManager(testSecret)

	_, _, err := jwtMgr.VerifyVerificationToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	jwtMgr := NewJWTManager(testSecret)
	otherMgr := NewJWTManager("other-secret")

	token, err := otherMgr.GenerateAccessToken("user-123")
	require.NoError(t, err)

	_, err = jwtMgr.ValidateJWT(token)
	assert.Error(t, err)
}
