package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"scribe-server/internal/config"
	"scribe-server/internal/managers"
	"scribe-server/internal/schemas"
	"scribe-server/internal/utils"
)

// adminSessionCookieMaxAge matches the server-side session lifetime in Redis.
const adminSessionCookieMaxAge = 12 * 60 * 60

// AdminHdl defines the interface for handling admin-related HTTP requests.
type AdminHdl interface {
	Login(c *gin.Context)
	Logout(c *gin.Context)
	ListUsers(c *gin.Context)
	UpdateUser(c *gin.Context)
	DeleteUser(c *gin.Context)
}

// AdminHandler provides methods to handle the privileged admin surface.
type AdminHandler struct {
	Config          *config.Config
	DatabaseManager managers.DatabaseMgr
	SessionManager  managers.SessionMgr
}

// NewAdminHandler returns a new AdminHandler with the provided managers.
func NewAdminHandler(cfg *config.Config, databaseManager *managers.DatabaseMgr, sessionManager *managers.SessionMgr) AdminHdl {
	return &AdminHandler{
		Config:          cfg,
		DatabaseManager: *databaseManager,
		SessionManager:  *sessionManager,
	}
}

// Login authenticates a superuser with the form credentials and establishes
// a server-side session referenced by an opaque cookie. The failure response
// is uniform across unknown email, wrong password, and missing privileges.
func (handler *AdminHandler) Login(ctx *gin.Context) {
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

	if !user.IsActive || !user.IsSuperuser {
		utils.WriteAndLogError(ctx, schemas.InvalidCredentials, http.StatusBadRequest, errors.New("user is not an active superuser"))
		return
	}

	token, err := handler.SessionManager.CreateAdminSession(ctx, user.ID, user.Email)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(utils.AdminSessionCookieName, token, adminSessionCookieMaxAge, "/", "", handler.Config.IsProduction(), true)

	utils.WriteAndLogResponse(ctx, adminUserToDTO(&user), http.StatusOK)
}

// Logout destroys the admin session and clears the cookie.
func (handler *AdminHandler) Logout(ctx *gin.Context) {
	if token, err := ctx.Cookie(utils.AdminSessionCookieName); err == nil && token != "" {
		if err := handler.SessionManager.DeleteAdminSession(ctx, token); err != nil {
			utils.LogMessageWithFieldsAndError(ctx, "warn", "Error deleting admin session", err)
		}
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(utils.AdminSessionCookieName, "", -1, "/", "", handler.Config.IsProduction(), true)
	utils.WriteAndLogResponse(ctx, nil, http.StatusNoContent)
}

// ListUsers returns a page of all accounts including their admin-only flags.
func (handler *AdminHandler) ListUsers(ctx *gin.Context) {
	offset, limit, err := utils.ParsePaginationParams(ctx)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	pool := handler.DatabaseManager.GetPool()

	var count int
	queryString := "SELECT COUNT(*) FROM scribe_schema.users"
	if err := pool.QueryRow(ctx, queryString).Scan(&count); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "SELECT user_id, email, full_name, is_active, is_verified, is_superuser " +
		"FROM scribe_schema.users ORDER BY created_at ASC LIMIT $1 OFFSET $2"
	rows, err := pool.Query(ctx, queryString, limit, offset)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	users := make([]*schemas.AdminUserDTO, 0)
	for rows.Next() {
		user := &schemas.AdminUserDTO{}
		if err := rows.Scan(&user.ID, &user.Email, &user.FullName, &user.IsActive,
			&user.IsVerified, &user.IsSuperuser); err != nil {
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		users = append(users, user)
	}

	response := &schemas.PaginatedResponse{
		Records: users,
		Pagination: schemas.Pagination{
			Offset:  offset,
			Limit:   limit,
			Records: count,
		},
	}
	utils.WriteAndLogResponse(ctx, response, http.StatusOK)
}

// UpdateUser toggles the is_active / is_superuser flags of an account.
func (handler *AdminHandler) UpdateUser(ctx *gin.Context) {
	userId, ok := parseUserId(ctx)
	if !ok {
		return
	}
	updateRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.AdminUpdateUserRequest)

	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(ctx, tx)

	user := schemas.User{}
	queryString := "SELECT user_id, email, full_name, is_active, is_verified, is_superuser " +
		"FROM scribe_schema.users WHERE user_id = $1"
	row := tx.QueryRow(ctx, queryString, userId)
	if err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.IsActive,
		&user.IsVerified, &user.IsSuperuser); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if updateRequest.IsActive != nil {
		user.IsActive = *updateRequest.IsActive
	}
	if updateRequest.IsSuperuser != nil {
		user.IsSuperuser = *updateRequest.IsSuperuser
	}

	queryString = "UPDATE scribe_schema.users SET is_active = $1, is_superuser = $2, updated_at = $3 WHERE user_id = $4"
	if _, err := tx.Exec(ctx, queryString, user.IsActive, user.IsSuperuser, time.Now(), userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	utils.WriteAndLogResponse(ctx, adminUserToDTO(&user), http.StatusOK)
}

// DeleteUser removes an account and everything it owns. The cascade runs
// explicitly inside one transaction: comments first, then posts, then the
// user row.
func (handler *AdminHandler) DeleteUser(ctx *gin.Context) {
	userId, ok := parseUserId(ctx)
	if !ok {
		return
	}

	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(ctx, tx)

	var count int
	queryString := "SELECT COUNT(*) FROM scribe_schema.users WHERE user_id = $1"
	if err := tx.QueryRow(ctx, queryString, userId).Scan(&count); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if count == 0 {
		utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, errors.New("user not found"))
		return
	}

	// Comments on the user's posts by other users go with the posts
	queryString = "DELETE FROM scribe_schema.comments WHERE owner_id = $1 " +
		"OR post_id IN (SELECT post_id FROM scribe_schema.posts WHERE owner_id = $1)"
	if _, err := tx.Exec(ctx, queryString, userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "DELETE FROM scribe_schema.posts WHERE owner_id = $1"
	if _, err := tx.Exec(ctx, queryString, userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "DELETE FROM scribe_schema.users WHERE user_id = $1"
	if _, err := tx.Exec(ctx, queryString, userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	utils.WriteAndLogResponse(ctx, nil, http.StatusNoContent)
}

// parseUserId rejects a malformed user id before it reaches a query, a bad
// id is indistinguishable from an unknown account.
func parseUserId(ctx *gin.Context) (uuid.UUID, bool) {
	userId, err := uuid.Parse(ctx.Param(utils.UserIdParamKey))
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, errors.New("invalid user id"))
		return uuid.Nil, false
	}
	return userId, true
}

func adminUserToDTO(user *schemas.User) *schemas.AdminUserDTO {
	return &schemas.AdminUserDTO{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		IsActive:    user.IsActive,
		IsVerified:  user.IsVerified,
		IsSuperuser: user.IsSuperuser,
	}
}
