package schemas

import (
	"github.com/google/uuid"
)

// ErrorDTO is a struct that represents an error response
// Error is the custom error, see CustomError
type ErrorDTO struct {
	Error CustomError `json:"error"`
}

// UserDTO is a struct that represents a user response
type UserDTO struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FullName   *string   `json:"full_name"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
}

// AdminUserDTO additionally exposes the superuser flag on the admin surface.
type AdminUserDTO struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsVerified  bool      `json:"is_verified"`
	IsSuperuser bool      `json:"is_superuser"`
}

// TokenDTO is the login/refresh response body. The refresh token itself
// travels in an httpOnly cookie, never in the body.
type TokenDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// PostDTO is a struct that represents a post response
type PostDTO struct {
	PostID       int     `json:"post_id"`
	OwnerID      string  `json:"owner_id"`
	Title        string  `json:"title"`
	Content      *string `json:"content"`
	ImageURL     *string `json:"image_url"`
	VideoURL     *string `json:"video_url"`
	CreationDate string  `json:"created_at"`
	UpdateDate   string  `json:"updated_at"`
}

// PostDetailDTO is the single-post response including owner and comments.
type PostDetailDTO struct {
	PostDTO
	Owner    UserDTO      `json:"owner"`
	Comments []CommentDTO `json:"comments"`
}

// CommentDTO is a struct that represents a comment response
type CommentDTO struct {
	CommentID    int     `json:"comment_id"`
	PostID       int     `json:"post_id"`
	OwnerID      string  `json:"owner_id"`
	Content      string  `json:"content"`
	CreationDate string  `json:"created_at"`
	UpdateDate   string  `json:"updated_at"`
	Owner        UserDTO `json:"owner"`
}

// UploadAuthDTO carries short-lived signed parameters for a direct
// client-side upload to the media store.
type UploadAuthDTO struct {
	Token     string `json:"token"`
	Expire    int64  `json:"expire"`
	Signature string `json:"signature"`
}

// PaginatedResponse wraps a page of records with its pagination info.
type PaginatedResponse struct {
	Records    interface{} `json:"records"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination describes the offset/limit window of a paginated response.
type Pagination struct {
	Offset  int `json:"offset"`
	Limit   int `json:"limit"`
	Records int `json:"records"`
}

/** 				**/
/** Request Objects **/
/** 				**/

// RegistrationRequest is a struct that represents a registration request
// Email is required and must be a valid email
// Password is required and must be at least 8 characters
// FullName is optional and must be less than 100 characters
type RegistrationRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,password_validation"`
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
}

// UpdateProfileRequest is a struct that represents a profile update request.
// All fields are optional.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
	Password *string `json:"password" validate:"omitempty,min=8,password_validation"`
}

// CreatePostRequest is a struct that represents a create post request
// Title is required and must be less than 100 characters
type CreatePostRequest struct {
	Title    string  `json:"title" validate:"required,max=100"`
	Content  *string `json:"content"`
	ImageURL *string `json:"image_url" validate:"omitempty,url,max=255"`
	VideoURL *string `json:"video_url" validate:"omitempty,url,max=255"`
}

// UpdatePostRequest is a struct that represents a partial post update.
// Absent fields are left untouched; the media URLs distinguish absence from
// an explicit null so an asset can be cleared.
type UpdatePostRequest struct {
	Title    *string        `json:"title" validate:"omitempty,max=100"`
	Content  *string        `json:"content"`
	ImageURL OptionalString `json:"image_url" validate:"omitempty,url,max=255"`
	VideoURL OptionalString `json:"video_url" validate:"omitempty,url,max=255"`
}

// ForgotPasswordRequest asks for a password reset mail.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest redeems a reset token for a new password.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,password_validation"`
}

// CreateCommentRequest is a struct that represents a create comment request
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2048"`
}

// UpdateCommentRequest is a struct that represents a comment update request
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2048"`
}

// AdminUpdateUserRequest toggles the account flags on the admin surface.
type AdminUpdateUserRequest struct {
	IsActive    *bool `json:"is_active"`
	IsSuperuser *bool `json:"is_superuser"`
}
