package utils

const (
	// PostIdParamKey is the key for post ID used in routing parameters.
	PostIdParamKey = "postId"

	// CommentIdParamKey is the key for comment ID used in routing parameters.
	CommentIdParamKey = "commentId"

	// UserIdParamKey is the key for user ID used in routing parameters.
	UserIdParamKey = "userId"

	// TokenParamKey is the key for the verification token in query parameters.
	TokenParamKey = "token"

	// OffsetParamKey is the key for offset used in pagination query parameters.
	OffsetParamKey = "offset"

	// LimitParamKey is the key for limit used in pagination query parameters.
	LimitParamKey = "limit"

	// RefreshCookieName is the cookie carrying the refresh token.
	RefreshCookieName = "refresh_token"

	// AdminSessionCookieName is the cookie carrying the opaque admin session id.
	AdminSessionCookieName = "admin_session"
)
