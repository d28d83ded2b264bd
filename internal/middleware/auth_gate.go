package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"

	"scribe-server/internal/managers"
	"scribe-server/internal/schemas"
	"scribe-server/internal/utils"
)

const selectUserQuery = "SELECT user_id, email, password, full_name, is_active, is_verified, is_superuser, created_at, updated_at " +
	"FROM scribe_schema.users WHERE user_id = $1"

// RequireVerified loads the authenticated user's row and gates the request on
// account state. Inactive accounts are treated as deauthenticated, unverified
// accounts as forbidden. The loaded user is stored in the context for the
// handler.
func RequireVerified(databaseMgr managers.DatabaseMgr) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := ctx.Value(utils.ClaimsKey.String()).(jwt.Claims)
		if !ok {
			utils.WriteAndLogError(ctx, schemas.Unauthorized, http.StatusUnauthorized, errors.New("missing claims in context"))
			return
		}

		userId, err := claims.GetSubject()
		if err != nil || userId == "" {
			utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, errors.New("missing subject claim"))
			return
		}

		user := schemas.User{}
		row := databaseMgr.GetPool().QueryRow(ctx, selectUserQuery, userId)
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

		if !user.IsVerified {
			utils.WriteAndLogError(ctx, schemas.UserNotVerified, http.StatusForbidden, errors.New("user is not verified"))
			return
		}

		ctx.Set(utils.CurrentUserKey.String(), &user)
		ctx.Next()
	}
}
