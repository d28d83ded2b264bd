package routing

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"scribe-server/internal/config"
	"scribe-server/internal/handlers"
	"scribe-server/internal/managers"
	"scribe-server/internal/middleware"
	"scribe-server/internal/schemas"
)

// InitRouter assembles the gin engine with the common middleware chain and
// all route groups.
func InitRouter(cfg *config.Config, databaseMgr managers.DatabaseMgr, jwtMgr managers.JWTMgr,
	mailMgr managers.MailMgr, mediaMgr managers.MediaMgr, sessionMgr managers.SessionMgr) *gin.Engine {
	router := gin.New()
	setupCommonMiddleware(router)
	setupRoutes(router, cfg, databaseMgr, jwtMgr, mailMgr, mediaMgr, sessionMgr)

	return router
}

func setupCommonMiddleware(router *gin.Engine) {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.InjectTrace())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "PATCH", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "X-Trace-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.SanitizePath())
	router.Use(middleware.LogRequest())
}

func setupRoutes(router *gin.Engine, cfg *config.Config, databaseMgr managers.DatabaseMgr, jwtMgr managers.JWTMgr,
	mailMgr managers.MailMgr, mediaMgr managers.MediaMgr, sessionMgr managers.SessionMgr) {
	// Set up health route
	router.GET("/health", func(c *gin.Context) {
		if err := databaseMgr.GetPool().Ping(c); err != nil {
			c.String(http.StatusInternalServerError, "Database not responding")
			return
		}
		c.Status(http.StatusOK)
	})

	authHdl := handlers.NewAuthHandler(cfg, &databaseMgr, &jwtMgr, &mailMgr, &sessionMgr)
	authRoutes(router.Group("/auth"), authHdl, jwtMgr)

	userHdl := handlers.NewUserHandler(&databaseMgr)
	userRoutes(router.Group("/users"), userHdl, jwtMgr)

	postHdl := handlers.NewPostHandler(&databaseMgr, &mediaMgr)
	commentHdl := handlers.NewCommentHandler(&databaseMgr)
	postRoutes(router.Group("/posts"), postHdl, commentHdl, jwtMgr, databaseMgr)
	commentRoutes(router.Group("/comments"), commentHdl, jwtMgr, databaseMgr)

	uploadHdl := handlers.NewUploadHandler(&mediaMgr)
	uploadRoutes(router.Group("/uploads"), uploadHdl, jwtMgr, databaseMgr)

	adminHdl := handlers.NewAdminHandler(cfg, &databaseMgr, &sessionMgr)
	adminRoutes(router.Group("/admin"), adminHdl, cfg, databaseMgr, sessionMgr)
}

func authRoutes(authRouter *gin.RouterGroup, authHdl handlers.AuthHdl, jwtMgr managers.JWTMgr) {
	authRouter.POST("/register", middleware.ValidateAndSanitizeStruct[schemas.RegistrationRequest](), authHdl.Register)
	authRouter.POST("/login", authHdl.Login)
	authRouter.POST("/refresh", authHdl.Refresh)
	authRouter.POST("/logout", authHdl.Logout)
	authRouter.GET("/verify", authHdl.VerifyEmail)
	// Resend only needs a valid access token, the caller is unverified by definition
	authRouter.POST("/resend", jwtMgr.JWTMiddleware(), authHdl.ResendVerification)
	authRouter.POST("/forgot-password", middleware.ValidateAndSanitizeStruct[schemas.ForgotPasswordRequest](), authHdl.ForgotPassword)
	authRouter.POST("/reset-password", middleware.ValidateAndSanitizeStruct[schemas.ResetPasswordRequest](), authHdl.ResetPassword)
}

func userRoutes(userRouter *gin.RouterGroup, userHdl handlers.UserHdl, jwtMgr managers.JWTMgr) {
	userRouter.Use(jwtMgr.JWTMiddleware())
	userRouter.GET("/me", userHdl.GetMe)
	userRouter.PATCH("/me", middleware.ValidateAndSanitizeStruct[schemas.UpdateProfileRequest](), userHdl.UpdateMe)
}

func postRoutes(postRouter *gin.RouterGroup, postHdl handlers.PostHdl, commentHdl handlers.CommentHdl,
	jwtMgr managers.JWTMgr, databaseMgr managers.DatabaseMgr) {
	// Public reads come first, before the auth middleware applies
	postRouter.GET("/", postHdl.ListPosts)
	postRouter.GET("/:postId", postHdl.GetPost)
	postRouter.GET("/:postId/comments", commentHdl.GetComments)

	postRouter.Use(jwtMgr.JWTMiddleware(), middleware.RequireVerified(databaseMgr))
	postRouter.POST("/", middleware.ValidateAndSanitizeStruct[schemas.CreatePostRequest](), postHdl.CreatePost)
	postRouter.PATCH("/:postId", middleware.ValidateAndSanitizeStruct[schemas.UpdatePostRequest](), postHdl.UpdatePost)
	postRouter.DELETE("/:postId", postHdl.DeletePost)
	postRouter.POST("/:postId/comments", middleware.ValidateAndSanitizeStruct[schemas.CreateCommentRequest](), commentHdl.CreateComment)
}

func commentRoutes(commentRouter *gin.RouterGroup, commentHdl handlers.CommentHdl,
	jwtMgr managers.JWTMgr, databaseMgr managers.DatabaseMgr) {
	commentRouter.Use(jwtMgr.JWTMiddleware(), middleware.RequireVerified(databaseMgr))
	commentRouter.PATCH("/:commentId", middleware.ValidateAndSanitizeStruct[schemas.UpdateCommentRequest](), commentHdl.UpdateComment)
	commentRouter.DELETE("/:commentId", commentHdl.DeleteComment)
}

func uploadRoutes(uploadRouter *gin.RouterGroup, uploadHdl handlers.UploadHdl,
	jwtMgr managers.JWTMgr, databaseMgr managers.DatabaseMgr) {
	uploadRouter.Use(jwtMgr.JWTMiddleware(), middleware.RequireVerified(databaseMgr))
	uploadRouter.GET("/auth", uploadHdl.GetUploadAuth)
}

func adminRoutes(adminRouter *gin.RouterGroup, adminHdl handlers.AdminHdl, cfg *config.Config,
	databaseMgr managers.DatabaseMgr, sessionMgr managers.SessionMgr) {
	adminRouter.POST("/login", adminHdl.Login)
	adminRouter.POST("/logout", adminHdl.Logout)

	adminRouter.Use(middleware.AdminSession(cfg, databaseMgr, sessionMgr))
	adminRouter.GET("/users", adminHdl.ListUsers)
	adminRouter.PATCH("/users/:userId", middleware.ValidateAndSanitizeStruct[schemas.AdminUpdateUserRequest](), adminHdl.UpdateUser)
	adminRouter.DELETE("/users/:userId", adminHdl.DeleteUser)
}
