// Package handlers implements the handlers for the different routes of the server to handle the incoming HTTP requests.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"scribe-server/internal/config"
	"scribe-server/internal/managers"
	"scribe-server/internal/schemas"
	"scribe-server/internal/utils"
)

// refreshCookieMaxAge keeps the cookie lifetime aligned with the refresh token TTL.
const refreshCookieMaxAge = 7 * 24 * 60 * 60

// AuthHdl defines the interface for handling authentication-related HTTP requests.
type AuthHdl interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Refresh(c *gin.Context)
	Logout(c *gin.Context)
	VerifyEmail(c *gin.Context)
	ResendVerification(c *gin.Context)
	ForgotPassword(c *gin.Context)
	ResetPassword(c *gin.Context)
}

// AuthHandler provides methods to handle authentication-related HTTP requests.
type AuthHandler struct {
	Config          *config.Config
	DatabaseManager managers.DatabaseMgr
	JWTManager      managers.JWTMgr
	MailManager     managers.MailMgr
	SessionManager  managers.SessionMgr
}

// NewAuthHandler returns a new AuthHandler with the provided managers.
func NewAuthHandler(cfg *config.Config, databaseManager *managers.DatabaseMgr, jwtManager *managers.JWTMgr,
	mailManager *managers.MailMgr, sessionManager *managers.SessionMgr) AuthHdl {
	return &AuthHandler{
		Config:          cfg,
		DatabaseManager: *databaseManager,
		JWTManager:      *jwtManager,
		MailManager:     *mailManager,
		SessionManager:  *sessionManager,
	}
}

// Register handles the creation of a new user account. The account starts out
// active but unverified; a verification mail is issued after the transaction
// commits. A failure to send the mail never fails the registration.
func (handler *AuthHandler) Register(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(ctx, tx)

	registrationRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.RegistrationRequest)

	if handler.Config.IsProduction() && !utils.GetValidator().VerifyEmail(registrationRequest.Email) {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, errors.New("email address failed deliverability check"))
		return
	}

	// Check for an existing account with the same email
	var count int
	queryString := "SELECT COUNT(*) FROM scribe_schema.users WHERE email = $1"
	if err := tx.QueryRow(ctx, queryString, registrationRequest.Email).Scan(&count); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if count > 0 {
		utils.WriteAndLogError(ctx, schemas.EmailTaken, http.StatusConflict, errors.New("email already registered"))
		return
	}

	passwordHash, err := utils.HashPassword(registrationRequest.Password)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	userId := uuid.New()
	createdAt := time.Now()

	queryString = "INSERT INTO scribe_schema.users (user_id, email, password, full_name, is_active, is_verified, is_superuser, created_at, updated_at) " +
		"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)"
	if _, err = tx.Exec(ctx, queryString, userId, registrationRequest.Email, passwordHash,
		registrationRequest.FullName, true, false, false, createdAt, createdAt); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	handler.sendVerificationMail(ctx, userId.String(), registrationRequest.Email, registrationRequest.FullName)

	userDto := &schemas.UserDTO{
		ID:         userId,
		Email:      registrationRequest.Email,
		FullName:   registrationRequest.FullName,
		IsActive:   true,
		IsVerified: false,
	}
	utils.WriteAndLogResponse(ctx, userDto, http.StatusCreated)
}

// Login authenticates a user with the OAuth2 password form fields and returns
// an access token plus a refresh cookie. Unknown email, wrong password, and
// deactivated account all produce the same response so account existence
// cannot be probed.
func (handler *AuthHandler) Login(ctx *gin.Context) {
	email := ctx.PostForm("username")
	password := ctx.PostForm("password")
	if email == "" || password == "" {
		utils.WriteAndLogError(ctx, schemas.InvalidCredentials, http.StatusBadRequest, errors.New("missing credentials"))
		return
	}

	user := schemas.User{}
	queryString := "SELECT user_id, email, password, full_name, is_active, is_verified, is_superuser, created_at, updated_at " +
		"FROM scribe_schema.users WHERE email = $1"
	row := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, email)
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.IsActive,
		&user.IsVerified, &user.IsSuperuser, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Burn a hash comparison so response timing matches the wrong-password path
			utils.BurnPasswordCheck(password)
			utils.WriteAndLogError(ctx, schemas.InvalidCredentials, http.StatusBadRequest, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if !utils.ComparePassword(user.PasswordHash, password) {
		utils.WriteAndLogError(ctx, schemas.InvalidCredentials, http.StatusBadRequest, errors.New("wrong password"))
		return
	}

	if !user.IsActive {
		utils.WriteAndLogError(ctx, schemas.InvalidCredentials, http.StatusBadRequest, errors.New("user is deactivated"))
		return
	}

	handler.issueTokenPair(ctx, user.ID.String())
}

// Refresh rotates the refresh token from the cookie into a new token pair.
// The old token is revoked, replaying it after rotation fails.
func (handler *AuthHandler) Refresh(ctx *gin.Context) {
	cookie, err := ctx.Cookie(utils.RefreshCookieName)
	if err != nil || cookie == "" {
		utils.WriteAndLogError(ctx, schemas.RefreshTokenMissing, http.StatusUnauthorized, errors.New("missing refresh cookie"))
		return
	}

	claims, err := handler.JWTManager.ValidateJWT(cookie)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, err)
		return
	}

	mapClaims, ok := claims.(jwt.MapClaims)
	if !ok {
		utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, errors.New("unexpected claims format"))
		return
	}

	isRefresh, _ := mapClaims["refresh"].(string)
	userId, _ := mapClaims["sub"].(string)
	jti, _ := mapClaims["jti"].(string)
	if isRefresh != "true" || userId == "" || jti == "" {
		utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, errors.New("not a refresh token"))
		return
	}

	revoked, err := handler.SessionManager.IsRefreshTokenRevoked(ctx, jti)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}
	if revoked {
		utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, errors.New("refresh token already used"))
		return
	}

	var isActive bool
	queryString := "SELECT is_active FROM scribe_schema.users WHERE user_id = $1"
	if err := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, userId).Scan(&isActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if !isActive {
		utils.WriteAndLogError(ctx, schemas.UserDeactivated, http.StatusUnauthorized, errors.New("user is deactivated"))
		return
	}

	// Revoke the old token before issuing the new pair, a rotation must never
	// leave two usable refresh tokens behind.
	expiresAt := time.Now()
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	if err := handler.SessionManager.RevokeRefreshToken(ctx, jti, expiresAt); err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	handler.issueTokenPair(ctx, userId)
}

// Logout clears the refresh cookie. Access tokens stay valid until expiry.
func (handler *AuthHandler) Logout(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(utils.RefreshCookieName, "", -1, "/", "", handler.Config.IsProduction(), true)
	utils.WriteAndLogResponse(ctx, nil, http.StatusNoContent)
}

// VerifyEmail redeems a verification token from the query string and renders
// an HTML outcome page. Redemption is idempotent, a second visit with the
// same token reports the address as already verified without a write.
func (handler *AuthHandler) VerifyEmail(ctx *gin.Context) {
	token := ctx.Query(utils.TokenParamKey)
	if token == "" {
		writeVerificationPage(ctx, http.StatusBadRequest, "Invalid link", "This verification link is invalid.")
		return
	}

	userId, email, err := handler.JWTManager.VerifyVerificationToken(token)
	if err != nil {
		if errors.Is(err, managers.ErrTokenExpired) {
			writeVerificationPage(ctx, http.StatusBadRequest, "Link expired",
				"This verification link has expired. Please request a new one.")
			return
		}

		writeVerificationPage(ctx, http.StatusBadRequest, "Invalid link", "This verification link is invalid.")
		return
	}

	// Not using the shared transaction helper here, failures on this route
	// must render HTML instead of the JSON error envelope.
	tx, err := handler.DatabaseManager.GetPool().Begin(ctx)
	if err != nil {
		utils.LogMessageWithFieldsAndError(ctx, "error", "Error beginning transaction", err)
		writeVerificationPage(ctx, http.StatusInternalServerError, "Something went wrong",
			"We could not verify your email right now. Please try again later.")
		return
	}
	defer utils.RollbackTransaction(ctx, tx)

	var storedEmail string
	var isVerified bool
	queryString := "SELECT email, is_verified FROM scribe_schema.users WHERE user_id = $1"
	if err := tx.QueryRow(ctx, queryString, userId).Scan(&storedEmail, &isVerified); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeVerificationPage(ctx, http.StatusBadRequest, "Invalid link", "This verification link is invalid.")
			return
		}

		utils.LogMessageWithFieldsAndError(ctx, "error", "Error loading user for verification", err)
		writeVerificationPage(ctx, http.StatusInternalServerError, "Something went wrong",
			"We could not verify your email right now. Please try again later.")
		return
	}

	// A link issued for a previous address is void
	if storedEmail != email {
		writeVerificationPage(ctx, http.StatusBadRequest, "Invalid link", "This verification link is invalid.")
		return
	}

	if isVerified {
		writeVerificationPage(ctx, http.StatusOK, "Already verified", "Your email address was already verified.")
		return
	}

	queryString = "UPDATE scribe_schema.users SET is_verified = TRUE, updated_at = $1 WHERE user_id = $2"
	if _, err := tx.Exec(ctx, queryString, time.Now(), userId); err != nil {
		utils.LogMessageWithFieldsAndError(ctx, "error", "Error marking user verified", err)
		writeVerificationPage(ctx, http.StatusInternalServerError, "Something went wrong",
			"We could not verify your email right now. Please try again later.")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		utils.LogMessageWithFieldsAndError(ctx, "error", "Error committing verification", err)
		writeVerificationPage(ctx, http.StatusInternalServerError, "Something went wrong",
			"We could not verify your email right now. Please try again later.")
		return
	}

	writeVerificationPage(ctx, http.StatusOK, "Email verified", "Your email address has been verified. You can close this page.")
}

// ResendVerification re-issues the verification mail for an authenticated but
// still unverified account.
func (handler *AuthHandler) ResendVerification(ctx *gin.Context) {
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.Claims)
	userId, err := claims.GetSubject()
	if err != nil || userId == "" {
		utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, errors.New("missing subject claim"))
		return
	}

	user := schemas.User{}
	queryString := "SELECT user_id, email, password, full_name, is_active, is_verified, is_superuser, created_at, updated_at " +
		"FROM scribe_schema.users WHERE user_id = $1"
	row := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, userId)
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.IsActive,
		&user.IsVerified, &user.IsSuperuser, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if !user.IsActive {
		utils.WriteAndLogError(ctx, schemas.UserDeactivated, http.StatusUnauthorized, errors.New("user is deactivated"))
		return
	}

	if user.IsVerified {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, errors.New("user is already verified"))
		return
	}

	handler.sendVerificationMail(ctx, user.ID.String(), user.Email, user.FullName)
	utils.WriteAndLogResponse(ctx, nil, http.StatusNoContent)
}

// ForgotPassword issues a password reset mail. The response is 202 whether or
// not the address belongs to an account, so account existence cannot be
// probed.
func (handler *AuthHandler) ForgotPassword(ctx *gin.Context) {
	forgotRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.ForgotPasswordRequest)

	user := schemas.User{}
	queryString := "SELECT user_id, email, full_name, is_active FROM scribe_schema.users WHERE email = $1"
	row := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, forgotRequest.Email)
	if err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.IsActive); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}

		utils.WriteAndLogResponse(ctx, nil, http.StatusAccepted)
		return
	}

	if user.IsActive {
		handler.sendPasswordResetMail(ctx, &user)
	}

	utils.WriteAndLogResponse(ctx, nil, http.StatusAccepted)
}

// ResetPassword redeems a reset token for a new password. A token minted
// before an email change is void, like a stale verification link.
func (handler *AuthHandler) ResetPassword(ctx *gin.Context) {
	resetRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.ResetPasswordRequest)

	userId, email, err := handler.JWTManager.VerifyResetToken(resetRequest.Token)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusBadRequest, err)
		return
	}

	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(ctx, tx)

	var storedEmail string
	var isActive bool
	queryString := "SELECT email, is_active FROM scribe_schema.users WHERE user_id = $1"
	if err := tx.QueryRow(ctx, queryString, userId).Scan(&storedEmail, &isActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusBadRequest, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if storedEmail != email || !isActive {
		utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusBadRequest, errors.New("reset token no longer valid"))
		return
	}

	passwordHash, err := utils.HashPassword(resetRequest.Password)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	queryString = "UPDATE scribe_schema.users SET password = $1, updated_at = $2 WHERE user_id = $3"
	if _, err := tx.Exec(ctx, queryString, passwordHash, time.Now(), userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	utils.WriteAndLogResponse(ctx, nil, http.StatusNoContent)
}

// issueTokenPair generates a fresh access/refresh pair, sets the refresh
// cookie, and writes the token response.
func (handler *AuthHandler) issueTokenPair(ctx *gin.Context, userId string) {
	accessToken, err := handler.JWTManager.GenerateAccessToken(userId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	refreshToken, _, _, err := handler.JWTManager.GenerateRefreshToken(userId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(utils.RefreshCookieName, refreshToken, refreshCookieMaxAge, "/", "", handler.Config.IsProduction(), true)

	tokenDto := &schemas.TokenDTO{
		AccessToken: accessToken,
		TokenType:   "bearer",
	}
	utils.WriteAndLogResponse(ctx, tokenDto, http.StatusOK)
}

// sendVerificationMail issues a fresh verification token and mails it.
// Failures are logged and swallowed.
func (handler *AuthHandler) sendVerificationMail(ctx *gin.Context, userId, email string, fullName *string) {
	verificationToken, err := handler.JWTManager.GenerateVerificationToken(userId, email)
	if err != nil {
		utils.LogMessageWithFieldsAndError(ctx, "warn", "Error generating verification token", err)
		return
	}

	name := ""
	if fullName != nil {
		name = *fullName
	}
	if err := handler.MailManager.SendVerificationMail(email, name, verificationToken); err != nil {
		utils.LogMessageWithFieldsAndError(ctx, "warn", "Error sending verification mail", err)
	}
}

// sendPasswordResetMail issues a fresh reset token and mails it. Failures are
// logged and swallowed so the uniform 202 holds.
func (handler *AuthHandler) sendPasswordResetMail(ctx *gin.Context, user *schemas.User) {
	resetToken, err := handler.JWTManager.GenerateResetToken(user.ID.String(), user.Email)
	if err != nil {
		utils.LogMessageWithFieldsAndError(ctx, "warn", "Error generating reset token", err)
		return
	}

	name := ""
	if user.FullName != nil {
		name = *user.FullName
	}
	if err := handler.MailManager.SendPasswordResetMail(user.Email, name, resetToken); err != nil {
		utils.LogMessageWithFieldsAndError(ctx, "warn", "Error sending password reset mail", err)
	}
}

func writeVerificationPage(ctx *gin.Context, statusCode int, title, message string) {
	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>%s</title></head>
<body><h1>%s</h1><p>%s</p></body>
</html>`, title, title, message)
	ctx.Data(statusCode, "text/html; charset=utf-8", []byte(page))
}
