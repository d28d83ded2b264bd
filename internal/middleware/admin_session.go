package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"scribe-server/internal/config"
	"scribe-server/internal/managers"
	"scribe-server/internal/schemas"
	"scribe-server/internal/utils"
)

// AdminSession authenticates privileged requests with the admin session
// cookie. The referenced user is re-validated on every request: the account
// must still exist, be active, and be a superuser. Any failure destroys the
// session so a stale cookie cannot be replayed.
func AdminSession(cfg *config.Config, databaseMgr managers.DatabaseMgr, sessionMgr managers.SessionMgr) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(utils.AdminSessionCookieName)
		if err != nil || token == "" {
			utils.WriteAndLogError(ctx, schemas.Unauthorized, http.StatusUnauthorized, errors.New("missing admin session cookie"))
			return
		}

		session, err := sessionMgr.GetAdminSession(ctx, token)
		if err != nil {
			clearAdminCookie(ctx, cfg)
			utils.WriteAndLogError(ctx, schemas.Unauthorized, http.StatusUnauthorized, err)
			return
		}

		user := schemas.User{}
		row := databaseMgr.GetPool().QueryRow(ctx, selectUserQuery, session.UserID)
		if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.IsActive,
			&user.IsVerified, &user.IsSuperuser, &user.CreatedAt, &user.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				destroyAdminSession(ctx, cfg, sessionMgr, token)
				utils.WriteAndLogError(ctx, schemas.Unauthorized, http.StatusUnauthorized, err)
				return
			}

			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}

		if !user.IsActive || !user.IsSuperuser {
			destroyAdminSession(ctx, cfg, sessionMgr, token)
			utils.WriteAndLogError(ctx, schemas.Unauthorized, http.StatusUnauthorized, errors.New("user lost admin privileges"))
			return
		}

		ctx.Set(utils.AdminUserKey.String(), &user)
		ctx.Next()
	}
}

func destroyAdminSession(ctx *gin.Context, cfg *config.Config, sessionMgr managers.SessionMgr, token string) {
	if err := sessionMgr.DeleteAdminSession(ctx, token); err != nil {
		utils.LogMessageWithFieldsAndError(ctx, "warn", "Error deleting admin session", err)
	}
	clearAdminCookie(ctx, cfg)
}

func clearAdminCookie(ctx *gin.Context, cfg *config.Config) {
	ctx.SetCookie(utils.AdminSessionCookieName, "", -1, "/", "", cfg.IsProduction(), true)
}
