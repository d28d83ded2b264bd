package managers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"scribe-server/internal/schemas"
	"scribe-server/internal/utils"
)

const (
	accessTokenLifetime       = 15 * time.Minute
	refreshTokenLifetime      = 7 * 24 * time.Hour
	verificationTokenLifetime = 24 * time.Hour
	resetTokenLifetime        = time.Hour

	// Mail-delivered tokens carry an audience tag so they can never be
	// replayed against the bearer-token middleware, and vice versa.
	verificationAudience = "scribe:verify"
	resetAudience        = "scribe:reset"

	issuer = "scribe-server"
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrAudienceMismatch = errors.New("token audience mismatch")
	ErrTokenMalformed   = errors.New("token malformed")
)

// JWTMgr handles token generation, validation, and the bearer-token middleware.
type JWTMgr interface {
	GenerateAccessToken(userId string) (string, error)
	GenerateRefreshToken(userId string) (token, jti string, expiresAt time.Time, err error)
	GenerateVerificationToken(userId, email string) (string, error)
	GenerateResetToken(userId, email string) (string, error)
	ValidateJWT(tokenString string) (jwt.Claims, error)
	VerifyVerificationToken(tokenString string) (userId, email string, err error)
	VerifyResetToken(tokenString string) (userId, email string, err error)
	JWTMiddleware() gin.HandlerFunc
}

// JWTManager signs and validates HMAC-SHA256 tokens with a shared secret.
type JWTManager struct {
	secret []byte
}

// NewJWTManager creates a new JWTManager with the given signing secret.
func NewJWTManager(secret string) JWTMgr {
	log.Info("Initializing JWT manager")
	return &JWTManager{secret: []byte(secret)}
}

// GenerateAccessToken generates a short-lived bearer token for the given user.
func (jm *JWTManager) GenerateAccessToken(userId string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":     issuer,
		"iat":     now.Unix(),
		"exp":     now.Add(accessTokenLifetime).Unix(),
		"sub":     userId,
		"refresh": "false",
	}

	return jm.sign(claims)
}

// GenerateRefreshToken generates a long-lived refresh token carrying a unique
// token id. The id and expiry are returned so callers can revoke the token
// once it has been rotated.
func (jm *JWTManager) GenerateRefreshToken(userId string) (string, string, time.Time, error) {
	now := time.Now()
	jti := uuid.New().String()
	expiresAt := now.Add(refreshTokenLifetime)

	claims := jwt.MapClaims{
		"iss":     issuer,
		"iat":     now.Unix(),
		"exp":     expiresAt.Unix(),
		"sub":     userId,
		"jti":     jti,
		"refresh": "true",
	}

	token, err := jm.sign(claims)
	if err != nil {
		return "", "", time.Time{}, err
	}

	return token, jti, expiresAt, nil
}

// GenerateVerificationToken generates an email verification token. The token
// binds the user's current email address so a verification link becomes void
// if the address changes before it is used.
func (jm *JWTManager) GenerateVerificationToken(userId, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   issuer,
		"aud":   verificationAudience,
		"iat":   now.Unix(),
		"exp":   now.Add(verificationTokenLifetime).Unix(),
		"sub":   userId,
		"email": email,
	}

	return jm.sign(claims)
}

// GenerateResetToken generates a password reset token, bound to the user's
// current email address like the verification token.
func (jm *JWTManager) GenerateResetToken(userId, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   issuer,
		"aud":   resetAudience,
		"iat":   now.Unix(),
		"exp":   now.Add(resetTokenLifetime).Unix(),
		"sub":   userId,
		"email": email,
	}

	return jm.sign(claims)
}

func (jm *JWTManager) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jm.secret)
}

// ValidateJWT validates the given access or refresh token and returns the
// claims if valid. Audience-tagged tokens (verification, reset) are not
// bearer tokens and are rejected here.
func (jm *JWTManager) ValidateJWT(tokenString string) (jwt.Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("invalid signing method")
		}

		return jm.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	if mapClaims, ok := token.Claims.(jwt.MapClaims); ok {
		if _, hasAudience := mapClaims["aud"]; hasAudience {
			return nil, ErrAudienceMismatch
		}
	}

	return token.Claims, nil
}

// VerifyVerificationToken validates an email verification token and returns
// the subject and bound email address. Expiry and audience mismatches are
// reported as distinct errors so the caller can render the right outcome.
func (jm *JWTManager) VerifyVerificationToken(tokenString string) (string, string, error) {
	return jm.verifyMailToken(tokenString, verificationAudience)
}

// VerifyResetToken validates a password reset token and returns the subject
// and bound email address.
func (jm *JWTManager) VerifyResetToken(tokenString string) (string, string, error) {
	return jm.verifyMailToken(tokenString, resetAudience)
}

func (jm *JWTManager) verifyMailToken(tokenString, audience string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("invalid signing method")
		}

		return jm.secret, nil
	}, jwt.WithAudience(audience))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", "", ErrTokenExpired
		// A token without any aud claim fails the required-claim check
		// rather than the audience comparison
		case errors.Is(err, jwt.ErrTokenInvalidAudience), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
			return "", "", ErrAudienceMismatch
		default:
			return "", "", ErrTokenMalformed
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrTokenMalformed
	}

	userId, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if userId == "" || email == "" {
		return "", "", ErrTokenMalformed
	}

	return userId, email, nil
}

// JWTMiddleware returns a middleware that authenticates requests with a
// bearer access token and stores the claims in the request context. Refresh
// tokens are rejected here, they are only accepted by the refresh endpoint.
func (jm *JWTManager) JWTMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			utils.WriteAndLogError(ctx, schemas.Unauthorized, http.StatusUnauthorized, errors.New("missing authorization header"))
			return
		}

		claims, err := jm.ValidateJWT(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, err)
			return
		}

		if mapClaims, ok := claims.(jwt.MapClaims); ok {
			if isRefresh, _ := mapClaims["refresh"].(string); isRefresh == "true" {
				utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, errors.New("refresh token used as access token"))
				return
			}
		}

		ctx.Set(utils.ClaimsKey.String(), claims)
		ctx.Next()
	}
}
