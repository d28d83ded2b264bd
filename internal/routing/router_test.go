package routing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scribe-server/internal/config"
	"scribe-server/internal/managers"
	"scribe-server/internal/managers/mocks"
	"scribe-server/internal/schemas"
	"scribe-server/internal/utils"
)

const testSecret = "router-test-secret"

var userColumns = []string{"user_id", "email", "password", "full_name", "is_active", "is_verified", "is_superuser", "created_at", "updated_at"}
var postColumns = []string{"post_id", "owner_id", "title", "content", "image_url", "video_url", "created_at", "updated_at"}

type routerMocks struct {
	cfg         *config.Config
	databaseMgr *mocks.MockDatabaseManager
	jwtMgr      managers.JWTMgr
	mailMgr     *mocks.MockMailManager
	mediaMgr    *mocks.MockMediaManager
	sessionMgr  *mocks.MockSessionManager
	pool        pgxmock.PgxPoolIface
}

func setupMocks(t *testing.T) *routerMocks {
	gin.SetMode(gin.TestMode)

	poolMock, err := pgxmock.NewPool()
	require.NoError(t, err)

	databaseMgrMock := &mocks.MockDatabaseManager{}
	databaseMgrMock.On("GetPool").Return(poolMock)

	return &routerMocks{
		cfg:         &config.Config{Environment: "test", JWTSecret: testSecret, PublicURL: "http://localhost:8080"},
		databaseMgr: databaseMgrMock,
		jwtMgr:      managers.NewJWTManager(testSecret),
		mailMgr:     &mocks.MockMailManager{},
		mediaMgr:    &mocks.MockMediaManager{},
		sessionMgr:  &mocks.MockSessionManager{},
		pool:        poolMock,
	}
}

func (m *routerMocks) newExpect(t *testing.T) (*httpexpect.Expect, func()) {
	router := InitRouter(m.cfg, m.databaseMgr, m.jwtMgr, m.mailMgr, m.mediaMgr, m.sessionMgr)
	server := httptest.NewServer(router)
	return httpexpect.Default(t, server.URL), server.Close
}

// userRow builds a full user row in the column order of the user queries.
func userRow(userId uuid.UUID, email, passwordHash string, isActive, isVerified, isSuperuser bool) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(userColumns).
		AddRow(userId, email, passwordHash, (*string)(nil), isActive, isVerified, isSuperuser, &now, &now)
}

func TestRegistration(t *testing.T) {
	validBody := map[string]interface{}{
		"email":     "new@example.com",
		"password":  "test.Password123",
		"full_name": "Test User",
	}

	testCases := []struct {
		name      string
		body      map[string]interface{}
		mailErr   error
		duplicate bool
		status    int
		errCode   string
	}{
		{"ValidRegistration", validBody, nil, false, http.StatusCreated, ""},
		{"MailFailureStillSucceeds", validBody, errors.New("mailgun down"), false, http.StatusCreated, ""},
		{"DuplicateEmail", validBody, nil, true, http.StatusConflict, "ERR-002"},
		{
			"WeakPassword",
			map[string]interface{}{"email": "new@example.com", "password": "alllowercase1"},
			nil, false, http.StatusBadRequest, "ERR-001",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := setupMocks(t)
			m.mailMgr.On("SendVerificationMail", mock.Anything, mock.Anything, mock.Anything).Return(tc.mailErr)

			switch {
			case tc.errCode == "ERR-001":
				// Validation fails before any database call
			case tc.duplicate:
				m.pool.ExpectBegin()
				m.pool.ExpectQuery(`SELECT COUNT\(\*\) FROM scribe_schema\.users WHERE email`).
					WithArgs(tc.body["email"]).
					WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
				m.pool.ExpectRollback()
			default:
				m.pool.ExpectBegin()
				m.pool.ExpectQuery(`SELECT COUNT\(\*\) FROM scribe_schema\.users WHERE email`).
					WithArgs(tc.body["email"]).
					WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
				m.pool.ExpectExec(`INSERT INTO scribe_schema\.users`).
					WithArgs(pgxmock.AnyArg(), tc.body["email"], pgxmock.AnyArg(), pgxmock.AnyArg(),
						true, false, false, pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				m.pool.ExpectCommit()
			}

			expect, closeServer := m.newExpect(t)
			defer closeServer()

			response := expect.POST("/auth/register").WithJSON(tc.body).Expect().Status(tc.status)

			if tc.errCode != "" {
				response.JSON().Object().Value("error").Object().HasValue("code", tc.errCode)
			} else {
				response.JSON().Object().
					HasValue("email", "new@example.com").
					HasValue("is_active", true).
					HasValue("is_verified", false)
			}

			if err := m.pool.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestLoginIsUniformOnFailure(t *testing.T) {
	userId := uuid.New()
	passwordHash, _ := bcryptHash("test.Password123")

	testCases := []struct {
		name   string
		rows   *pgxmock.Rows
		pw     string
		status int
	}{
		{"ValidLogin", userRow(userId, "user@example.com", passwordHash, true, true, false), "test.Password123", http.StatusOK},
		{"UnknownEmail", pgxmock.NewRows(userColumns), "test.Password123", http.StatusBadRequest},
		{"WrongPassword", userRow(userId, "user@example.com", passwordHash, true, true, false), "wrong.Password123", http.StatusBadRequest},
		{"DeactivatedUser", userRow(userId, "user@example.com", passwordHash, false, true, false), "test.Password123", http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := setupMocks(t)
			m.pool.ExpectQuery(`FROM scribe_schema\.users WHERE email`).
				WithArgs("user@example.com").
				WillReturnRows(tc.rows)

			expect, closeServer := m.newExpect(t)
			defer closeServer()

			response := expect.POST("/auth/login").
				WithFormField("username", "user@example.com").
				WithFormField("password", tc.pw).
				Expect().Status(tc.status)

			if tc.status == http.StatusOK {
				response.JSON().Object().HasValue("token_type", "bearer").Value("access_token").String().NotEmpty()
				response.Cookie("refresh_token").Value().NotEmpty()
			} else {
				// All failure modes share one error so account existence cannot be probed
				response.JSON().Object().Value("error").Object().HasValue("code", "ERR-003")
			}

			if err := m.pool.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestRefreshRotation(t *testing.T) {
	userId := uuid.New()

	t.Run("MissingCookie", func(t *testing.T) {
		m := setupMocks(t)
		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.POST("/auth/refresh").Expect().Status(http.StatusUnauthorized).
			JSON().Object().Value("error").Object().HasValue("code", "ERR-011")
	})

	t.Run("ValidRotationRevokesOldToken", func(t *testing.T) {
		m := setupMocks(t)
		refreshToken, jti, _, err := m.jwtMgr.GenerateRefreshToken(userId.String())
		require.NoError(t, err)

		m.sessionMgr.On("IsRefreshTokenRevoked", mock.Anything, jti).Return(false, nil)
		m.sessionMgr.On("RevokeRefreshToken", mock.Anything, jti, mock.Anything).Return(nil)
		m.pool.ExpectQuery(`SELECT is_active FROM scribe_schema\.users WHERE user_id`).
			WithArgs(userId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"is_active"}).AddRow(true))

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		response := expect.POST("/auth/refresh").WithCookie("refresh_token", refreshToken).
			Expect().Status(http.StatusOK)
		response.JSON().Object().Value("access_token").String().NotEmpty()
		response.Cookie("refresh_token").Value().NotEqual(refreshToken)

		m.sessionMgr.AssertCalled(t, "RevokeRefreshToken", mock.Anything, jti, mock.Anything)
	})

	t.Run("RevokedTokenRejected", func(t *testing.T) {
		m := setupMocks(t)
		refreshToken, jti, _, err := m.jwtMgr.GenerateRefreshToken(userId.String())
		require.NoError(t, err)

		m.sessionMgr.On("IsRefreshTokenRevoked", mock.Anything, jti).Return(true, nil)

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.POST("/auth/refresh").WithCookie("refresh_token", refreshToken).
			Expect().Status(http.StatusUnauthorized).
			JSON().Object().Value("error").Object().HasValue("code", "ERR-010")
	})

	t.Run("AccessTokenIsNotARefreshToken", func(t *testing.T) {
		m := setupMocks(t)
		accessToken, err := m.jwtMgr.GenerateAccessToken(userId.String())
		require.NoError(t, err)

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.POST("/auth/refresh").WithCookie("refresh_token", accessToken).
			Expect().Status(http.StatusUnauthorized).
			JSON().Object().Value("error").Object().HasValue("code", "ERR-010")
	})
}

func TestVerifyEmail(t *testing.T) {
	userId := uuid.New()
	email := "user@example.com"

	t.Run("FirstRedemptionFlipsFlag", func(t *testing.T) {
		m := setupMocks(t)
		token, err := m.jwtMgr.GenerateVerificationToken(userId.String(), email)
		require.NoError(t, err)

		m.pool.ExpectBegin()
		m.pool.ExpectQuery(`SELECT email, is_verified FROM scribe_schema\.users WHERE user_id`).
			WithArgs(userId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"email", "is_verified"}).AddRow(email, false))
		m.pool.ExpectExec(`UPDATE scribe_schema\.users SET is_verified`).
			WithArgs(pgxmock.AnyArg(), userId.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		m.pool.ExpectCommit()

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.GET("/auth/verify").WithQuery("token", token).
			Expect().Status(http.StatusOK).Body().Contains("Email verified")

		if err := m.pool.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("SecondRedemptionIsIdempotent", func(t *testing.T) {
		m := setupMocks(t)
		token, err := m.jwtMgr.GenerateVerificationToken(userId.String(), email)
		require.NoError(t, err)

		m.pool.ExpectBegin()
		m.pool.ExpectQuery(`SELECT email, is_verified FROM scribe_schema\.users WHERE user_id`).
			WithArgs(userId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"email", "is_verified"}).AddRow(email, true))
		m.pool.ExpectRollback()

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.GET("/auth/verify").WithQuery("token", token).
			Expect().Status(http.StatusOK).Body().Contains("already verified")

		if err := m.pool.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		m := setupMocks(t)
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"iss":   "scribe-server",
			"aud":   "scribe:verify",
			"iat":   time.Now().Add(-48 * time.Hour).Unix(),
			"exp":   time.Now().Add(-24 * time.Hour).Unix(),
			"sub":   userId.String(),
			"email": email,
		})
		token, err := expired.SignedString([]byte(testSecret))
		require.NoError(t, err)

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.GET("/auth/verify").WithQuery("token", token).
			Expect().Status(http.StatusBadRequest).Body().Contains("expired")
	})

	t.Run("MalformedToken", func(t *testing.T) {
		m := setupMocks(t)
		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.GET("/auth/verify").WithQuery("token", "garbage").
			Expect().Status(http.StatusBadRequest).Body().Contains("invalid")
	})

	t.Run("TokenForPreviousAddress", func(t *testing.T) {
		m := setupMocks(t)
		token, err := m.jwtMgr.GenerateVerificationToken(userId.String(), email)
		require.NoError(t, err)

		m.pool.ExpectBegin()
		m.pool.ExpectQuery(`SELECT email, is_verified FROM scribe_schema\.users WHERE user_id`).
			WithArgs(userId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"email", "is_verified"}).AddRow("changed@example.com", false))
		m.pool.ExpectRollback()

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.GET("/auth/verify").WithQuery("token", token).
			Expect().Status(http.StatusBadRequest).Body().Contains("invalid")
	})
}

func TestPostOwnershipGuard(t *testing.T) {
	callerId := uuid.New()
	otherId := uuid.New()
	now := time.Now()

	testCases := []struct {
		name    string
		ownerId uuid.UUID
		found   bool
		status  int
		errCode string
	}{
		{"ForeignPostIsForbidden", otherId, true, http.StatusForbidden, "ERR-007"},
		{"MissingPostIsNotFound", uuid.Nil, false, http.StatusNotFound, "ERR-005"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := setupMocks(t)
			accessToken, err := m.jwtMgr.GenerateAccessToken(callerId.String())
			require.NoError(t, err)

			m.pool.ExpectQuery(`FROM scribe_schema\.users WHERE user_id`).
				WithArgs(callerId.String()).
				WillReturnRows(userRow(callerId, "caller@example.com", "hash", true, true, false))

			m.pool.ExpectBegin()
			postRows := pgxmock.NewRows(postColumns)
			if tc.found {
				postRows.AddRow(42, tc.ownerId, "A title", (*string)(nil), (*string)(nil), (*string)(nil), &now, &now)
			}
			m.pool.ExpectQuery(`FROM scribe_schema\.posts WHERE post_id`).
				WithArgs(42).
				WillReturnRows(postRows)
			m.pool.ExpectRollback()

			expect, closeServer := m.newExpect(t)
			defer closeServer()

			expect.PATCH("/posts/42").
				WithHeader("Authorization", "Bearer "+accessToken).
				WithJSON(map[string]interface{}{"title": "New title"}).
				Expect().Status(tc.status).
				JSON().Object().Value("error").Object().HasValue("code", tc.errCode)

			if err := m.pool.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestAccountStateGates(t *testing.T) {
	callerId := uuid.New()

	testCases := []struct {
		name       string
		isActive   bool
		isVerified bool
		status     int
		errCode    string
	}{
		{"DeactivatedUserIsDeauthenticated", false, true, http.StatusUnauthorized, "ERR-009"},
		{"UnverifiedUserIsForbidden", true, false, http.StatusForbidden, "ERR-008"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := setupMocks(t)
			accessToken, err := m.jwtMgr.GenerateAccessToken(callerId.String())
			require.NoError(t, err)

			m.pool.ExpectQuery(`FROM scribe_schema\.users WHERE user_id`).
				WithArgs(callerId.String()).
				WillReturnRows(userRow(callerId, "caller@example.com", "hash", tc.isActive, tc.isVerified, false))

			expect, closeServer := m.newExpect(t)
			defer closeServer()

			expect.POST("/posts/").
				WithHeader("Authorization", "Bearer "+accessToken).
				WithJSON(map[string]interface{}{"title": "A title"}).
				Expect().Status(tc.status).
				JSON().Object().Value("error").Object().HasValue("code", tc.errCode)

			if err := m.pool.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestBearerRouteRejectsVerificationToken(t *testing.T) {
	m := setupMocks(t)
	verificationToken, err := m.jwtMgr.GenerateVerificationToken(uuid.New().String(), "user@example.com")
	require.NoError(t, err)

	expect, closeServer := m.newExpect(t)
	defer closeServer()

	// A verification token lives 24h, it must not double as an access token
	expect.GET("/users/me").
		WithHeader("Authorization", "Bearer "+verificationToken).
		Expect().Status(http.StatusUnauthorized).
		JSON().Object().Value("error").Object().HasValue("code", "ERR-010")
}

func TestUpdatePostMediaCleanup(t *testing.T) {
	callerId := uuid.New()
	now := time.Now()
	oldImage := "https://res.cloudinary.com/demo/image/upload/v1/posts/old.jpg"
	newImage := "https://res.cloudinary.com/demo/image/upload/v1/posts/new.jpg"

	testCases := []struct {
		name      string
		payload   map[string]interface{}
		deletions int
	}{
		{"NewImageURLDeletesOld", map[string]interface{}{"image_url": newImage}, 1},
		{"SameImageURLDeletesNothing", map[string]interface{}{"image_url": oldImage}, 0},
		{"ExplicitNullClearsAndDeletes", map[string]interface{}{"image_url": nil}, 1},
		{"AbsentFieldDeletesNothing", map[string]interface{}{"title": "Renamed"}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := setupMocks(t)
			accessToken, err := m.jwtMgr.GenerateAccessToken(callerId.String())
			require.NoError(t, err)

			if tc.deletions > 0 {
				m.mediaMgr.On("DeleteByURL", mock.Anything, oldImage).Return(nil)
			}

			m.pool.ExpectQuery(`FROM scribe_schema\.users WHERE user_id`).
				WithArgs(callerId.String()).
				WillReturnRows(userRow(callerId, "caller@example.com", "hash", true, true, false))

			m.pool.ExpectBegin()
			m.pool.ExpectQuery(`FROM scribe_schema\.posts WHERE post_id`).
				WithArgs(42).
				WillReturnRows(pgxmock.NewRows(postColumns).
					AddRow(42, callerId, "A title", (*string)(nil), &oldImage, (*string)(nil), &now, &now))
			m.pool.ExpectExec(`UPDATE scribe_schema\.posts SET`).
				WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), 42).
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			m.pool.ExpectCommit()

			expect, closeServer := m.newExpect(t)
			defer closeServer()

			expect.PATCH("/posts/42").
				WithHeader("Authorization", "Bearer "+accessToken).
				WithJSON(tc.payload).
				Expect().Status(http.StatusOK)

			m.mediaMgr.AssertNumberOfCalls(t, "DeleteByURL", tc.deletions)

			if err := m.pool.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestForgotPassword(t *testing.T) {
	userId := uuid.New()

	t.Run("KnownEmailSendsMail", func(t *testing.T) {
		m := setupMocks(t)
		m.mailMgr.On("SendPasswordResetMail", "user@example.com", mock.Anything, mock.Anything).Return(nil)

		m.pool.ExpectQuery(`SELECT user_id, email, full_name, is_active FROM scribe_schema\.users WHERE email`).
			WithArgs("user@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "email", "full_name", "is_active"}).
				AddRow(userId, "user@example.com", (*string)(nil), true))

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.POST("/auth/forgot-password").
			WithJSON(map[string]interface{}{"email": "user@example.com"}).
			Expect().Status(http.StatusAccepted)

		m.mailMgr.AssertNumberOfCalls(t, "SendPasswordResetMail", 1)
	})

	t.Run("UnknownEmailIsIndistinguishable", func(t *testing.T) {
		m := setupMocks(t)

		m.pool.ExpectQuery(`SELECT user_id, email, full_name, is_active FROM scribe_schema\.users WHERE email`).
			WithArgs("nobody@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "email", "full_name", "is_active"}))

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.POST("/auth/forgot-password").
			WithJSON(map[string]interface{}{"email": "nobody@example.com"}).
			Expect().Status(http.StatusAccepted)

		m.mailMgr.AssertNumberOfCalls(t, "SendPasswordResetMail", 0)
	})
}

func TestResetPassword(t *testing.T) {
	userId := uuid.New()
	email := "user@example.com"

	t.Run("ValidTokenSetsNewPassword", func(t *testing.T) {
		m := setupMocks(t)
		token, err := m.jwtMgr.GenerateResetToken(userId.String(), email)
		require.NoError(t, err)

		m.pool.ExpectBegin()
		m.pool.ExpectQuery(`SELECT email, is_active FROM scribe_schema\.users WHERE user_id`).
			WithArgs(userId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"email", "is_active"}).AddRow(email, true))
		m.pool.ExpectExec(`UPDATE scribe_schema\.users SET password`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), userId.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		m.pool.ExpectCommit()

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.POST("/auth/reset-password").
			WithJSON(map[string]interface{}{"token": token, "password": "new.Password123"}).
			Expect().Status(http.StatusNoContent)

		if err := m.pool.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("VerificationTokenRejected", func(t *testing.T) {
		m := setupMocks(t)
		token, err := m.jwtMgr.GenerateVerificationToken(userId.String(), email)
		require.NoError(t, err)

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.POST("/auth/reset-password").
			WithJSON(map[string]interface{}{"token": token, "password": "new.Password123"}).
			Expect().Status(http.StatusBadRequest).
			JSON().Object().Value("error").Object().HasValue("code", "ERR-010")
	})

	t.Run("TokenForPreviousAddressRejected", func(t *testing.T) {
		m := setupMocks(t)
		token, err := m.jwtMgr.GenerateResetToken(userId.String(), email)
		require.NoError(t, err)

		m.pool.ExpectBegin()
		m.pool.ExpectQuery(`SELECT email, is_active FROM scribe_schema\.users WHERE user_id`).
			WithArgs(userId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"email", "is_active"}).AddRow("changed@example.com", true))
		m.pool.ExpectRollback()

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.POST("/auth/reset-password").
			WithJSON(map[string]interface{}{"token": token, "password": "new.Password123"}).
			Expect().Status(http.StatusBadRequest).
			JSON().Object().Value("error").Object().HasValue("code", "ERR-010")

		if err := m.pool.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestAdminUserIdMustBeValid(t *testing.T) {
	adminId := uuid.New()

	m := setupMocks(t)
	m.sessionMgr.On("GetAdminSession", mock.Anything, "session-token").
		Return(&managers.AdminSession{UserID: adminId, Email: "admin@example.com"}, nil)

	m.pool.ExpectQuery(`FROM scribe_schema\.users WHERE user_id`).
		WithArgs(adminId).
		WillReturnRows(userRow(adminId, "admin@example.com", "hash", true, true, true))

	expect, closeServer := m.newExpect(t)
	defer closeServer()

	expect.DELETE("/admin/users/not-a-uuid").WithCookie("admin_session", "session-token").
		Expect().Status(http.StatusNotFound).
		JSON().Object().Value("error").Object().HasValue("code", "ERR-004")

	if err := m.pool.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestDeletePostCleansUpMedia(t *testing.T) {
	callerId := uuid.New()
	now := time.Now()
	imageURL := "https://res.cloudinary.com/demo/image/upload/v1/posts/img.jpg"
	videoURL := "https://res.cloudinary.com/demo/video/upload/v1/posts/clip.mp4"

	m := setupMocks(t)
	accessToken, err := m.jwtMgr.GenerateAccessToken(callerId.String())
	require.NoError(t, err)

	// One deletion fails, the response must not care
	m.mediaMgr.On("DeleteByURL", mock.Anything, imageURL).Return(nil)
	m.mediaMgr.On("DeleteByURL", mock.Anything, videoURL).Return(errors.New("asset gone"))

	m.pool.ExpectQuery(`FROM scribe_schema\.users WHERE user_id`).
		WithArgs(callerId.String()).
		WillReturnRows(userRow(callerId, "caller@example.com", "hash", true, true, false))

	m.pool.ExpectBegin()
	m.pool.ExpectQuery(`FROM scribe_schema\.posts WHERE post_id`).
		WithArgs(7).
		WillReturnRows(pgxmock.NewRows(postColumns).
			AddRow(7, callerId, "A title", (*string)(nil), &imageURL, &videoURL, &now, &now))
	m.pool.ExpectExec(`DELETE FROM scribe_schema\.comments WHERE post_id`).
		WithArgs(7).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	m.pool.ExpectExec(`DELETE FROM scribe_schema\.posts WHERE post_id`).
		WithArgs(7).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	m.pool.ExpectCommit()

	expect, closeServer := m.newExpect(t)
	defer closeServer()

	expect.DELETE("/posts/7").
		WithHeader("Authorization", "Bearer "+accessToken).
		Expect().Status(http.StatusNoContent)

	m.mediaMgr.AssertNumberOfCalls(t, "DeleteByURL", 2)

	if err := m.pool.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestUploadAuth(t *testing.T) {
	callerId := uuid.New()

	t.Run("SignedParameters", func(t *testing.T) {
		m := setupMocks(t)
		accessToken, err := m.jwtMgr.GenerateAccessToken(callerId.String())
		require.NoError(t, err)

		m.pool.ExpectQuery(`FROM scribe_schema\.users WHERE user_id`).
			WithArgs(callerId.String()).
			WillReturnRows(userRow(callerId, "caller@example.com", "hash", true, true, false))

		m.mediaMgr.On("UploadAuth", callerId.String()).Return(&schemas.UploadAuthDTO{
			Token:     callerId.String() + "_1700000000",
			Expire:    1700000060,
			Signature: "sig",
		}, nil)

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.GET("/uploads/auth").
			WithHeader("Authorization", "Bearer "+accessToken).
			Expect().Status(http.StatusOK).
			JSON().Object().
			HasValue("signature", "sig").
			HasValue("expire", 1700000060)
	})

	t.Run("MediaStoreUnconfigured", func(t *testing.T) {
		m := setupMocks(t)
		accessToken, err := m.jwtMgr.GenerateAccessToken(callerId.String())
		require.NoError(t, err)

		m.pool.ExpectQuery(`FROM scribe_schema\.users WHERE user_id`).
			WithArgs(callerId.String()).
			WillReturnRows(userRow(callerId, "caller@example.com", "hash", true, true, false))

		m.mediaMgr.On("UploadAuth", callerId.String()).Return(nil, managers.ErrMediaUnavailable)

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.GET("/uploads/auth").
			WithHeader("Authorization", "Bearer "+accessToken).
			Expect().Status(http.StatusInternalServerError).
			JSON().Object().Value("error").Object().HasValue("code", "ERR-013")
	})
}

func TestAdminSessionGuard(t *testing.T) {
	adminId := uuid.New()

	t.Run("NoCookie", func(t *testing.T) {
		m := setupMocks(t)
		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.GET("/admin/users").Expect().Status(http.StatusUnauthorized).
			JSON().Object().Value("error").Object().HasValue("code", "ERR-012")
	})

	t.Run("DemotedSuperuserLosesSession", func(t *testing.T) {
		m := setupMocks(t)
		m.sessionMgr.On("GetAdminSession", mock.Anything, "session-token").
			Return(&managers.AdminSession{UserID: adminId, Email: "admin@example.com"}, nil)
		m.sessionMgr.On("DeleteAdminSession", mock.Anything, "session-token").Return(nil)

		m.pool.ExpectQuery(`FROM scribe_schema\.users WHERE user_id`).
			WithArgs(adminId).
			WillReturnRows(userRow(adminId, "admin@example.com", "hash", true, true, false))

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		expect.GET("/admin/users").WithCookie("admin_session", "session-token").
			Expect().Status(http.StatusUnauthorized)

		m.sessionMgr.AssertCalled(t, "DeleteAdminSession", mock.Anything, "session-token")
	})

	t.Run("ListUsers", func(t *testing.T) {
		m := setupMocks(t)
		m.sessionMgr.On("GetAdminSession", mock.Anything, "session-token").
			Return(&managers.AdminSession{UserID: adminId, Email: "admin@example.com"}, nil)

		m.pool.ExpectQuery(`FROM scribe_schema\.users WHERE user_id`).
			WithArgs(adminId).
			WillReturnRows(userRow(adminId, "admin@example.com", "hash", true, true, true))

		m.pool.ExpectQuery(`SELECT COUNT\(\*\) FROM scribe_schema\.users`).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
		m.pool.ExpectQuery(`FROM scribe_schema\.users ORDER BY created_at`).
			WithArgs(10, 0).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "email", "full_name", "is_active", "is_verified", "is_superuser"}).
				AddRow(adminId, "admin@example.com", (*string)(nil), true, true, true))

		expect, closeServer := m.newExpect(t)
		defer closeServer()

		response := expect.GET("/admin/users").WithCookie("admin_session", "session-token").
			Expect().Status(http.StatusOK)
		response.JSON().Object().Value("pagination").Object().HasValue("records", 1)
		response.JSON().Object().Value("records").Array().Length().IsEqual(1)

		if err := m.pool.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func bcryptHash(password string) (string, error) {
	return utils.HashPassword(password)
}
