package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"

	"scribe-server/internal/managers"
	"scribe-server/internal/schemas"
	"scribe-server/internal/utils"
)

// UserHdl defines the interface for handling user-related HTTP requests.
type UserHdl interface {
	GetMe(c *gin.Context)
	UpdateMe(c *gin.Context)
}

// UserHandler provides methods to handle user-related HTTP requests.
type UserHandler struct {
	DatabaseManager managers.DatabaseMgr
}

// NewUserHandler returns a new UserHandler with the provided managers.
func NewUserHandler(databaseManager *managers.DatabaseMgr) UserHdl {
	return &UserHandler{
		DatabaseManager: *databaseManager,
	}
}

// GetMe returns the profile of the authenticated user.
func (handler *UserHandler) GetMe(ctx *gin.Context) {
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.Claims)
	userId, err := claims.GetSubject()
	if err != nil || userId == "" {
		utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, errors.New("missing subject claim"))
		return
	}

	user := schemas.User{}
	queryString := "SELECT user_id, email, full_name, is_active, is_verified FROM scribe_schema.users WHERE user_id = $1"
	row := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, userId)
	if err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.IsActive, &user.IsVerified); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(ctx, userToDTO(&user), http.StatusOK)
}

// UpdateMe applies a partial profile update for the authenticated user.
// A password change is re-hashed before it is stored.
func (handler *UserHandler) UpdateMe(ctx *gin.Context) {
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.Claims)
	userId, err := claims.GetSubject()
	if err != nil || userId == "" {
		utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, errors.New("missing subject claim"))
		return
	}

	updateRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.UpdateProfileRequest)

	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(ctx, tx)

	user := schemas.User{}
	queryString := "SELECT user_id, email, full_name, is_active, is_verified FROM scribe_schema.users WHERE user_id = $1"
	row := tx.QueryRow(ctx, queryString, userId)
	if err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.IsActive, &user.IsVerified); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if updateRequest.FullName != nil {
		user.FullName = updateRequest.FullName
		queryString = "UPDATE scribe_schema.users SET full_name = $1, updated_at = $2 WHERE user_id = $3"
		if _, err := tx.Exec(ctx, queryString, updateRequest.FullName, time.Now(), userId); err != nil {
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
	}

	if updateRequest.Password != nil {
		passwordHash, err := utils.HashPassword(*updateRequest.Password)
		if err != nil {
			utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
			return
		}

		queryString = "UPDATE scribe_schema.users SET password = $1, updated_at = $2 WHERE user_id = $3"
		if _, err := tx.Exec(ctx, queryString, passwordHash, time.Now(), userId); err != nil {
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
	}

	if err := utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	utils.WriteAndLogResponse(ctx, userToDTO(&user), http.StatusOK)
}

func userToDTO(user *schemas.User) *schemas.UserDTO {
	return &schemas.UserDTO{
		ID:         user.ID,
		Email:      user.Email,
		FullName:   user.FullName,
		IsActive:   user.IsActive,
		IsVerified: user.IsVerified,
	}
}
