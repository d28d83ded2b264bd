package schemas

// CustomError is the wire representation of an API error. The code is stable
// across releases, the message is informational.
type CustomError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	BadRequest = &CustomError{
		Code:    "ERR-001",
		Message: "The request body is invalid. Please check the request body and try again.",
	}
	EmailTaken = &CustomError{
		Code:    "ERR-002",
		Message: "The email is already registered. Please use a different email.",
	}
	InvalidCredentials = &CustomError{
		Code:    "ERR-003",
		Message: "The credentials are invalid. Please check the email and password and try again.",
	}
	UserNotFound = &CustomError{
		Code:    "ERR-004",
		Message: "The user was not found. Please check the user id and try again.",
	}
	PostNotFound = &CustomError{
		Code:    "ERR-005",
		Message: "The post was not found. Please check the post id and try again.",
	}
	CommentNotFound = &CustomError{
		Code:    "ERR-006",
		Message: "The comment was not found. Please check the comment id and try again.",
	}
	NotOwner = &CustomError{
		Code:    "ERR-007",
		Message: "You are not the owner of this resource and cannot modify it.",
	}
	UserNotVerified = &CustomError{
		Code:    "ERR-008",
		Message: "The email address has not been verified yet. Please verify your email first.",
	}
	UserDeactivated = &CustomError{
		Code:    "ERR-009",
		Message: "The account has been deactivated.",
	}
	InvalidToken = &CustomError{
		Code:    "ERR-010",
		Message: "The token is invalid or expired. Please authenticate again.",
	}
	RefreshTokenMissing = &CustomError{
		Code:    "ERR-011",
		Message: "The refresh token is missing. Please log in again.",
	}
	Unauthorized = &CustomError{
		Code:    "ERR-012",
		Message: "The request is unauthorized. Please authenticate and try again.",
	}
	MediaServiceUnavailable = &CustomError{
		Code:    "ERR-013",
		Message: "The media service is currently unavailable. Please try again later.",
	}
	DatabaseError = &CustomError{
		Code:    "ERR-014",
		Message: "A database error occurred. Please try again later.",
	}
	InternalServerError = &CustomError{
		Code:    "ERR-015",
		Message: "An internal server error occurred. Please try again later.",
	}
)
