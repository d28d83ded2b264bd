// Package schemas defines the data structures exchanged with the database
// and over the HTTP surface.
package schemas

import (
	"time"

	"github.com/google/uuid"
)

// User represents the data model for a user in the system.
type User struct {
	ID           uuid.UUID  `json:"id"`           // Unique identifier for the user.
	Email        string     `json:"email"`        // Email address, unique, stored case-sensitive.
	PasswordHash string     `json:"-"`            // Bcrypt hash of the password.
	FullName     *string    `json:"full_name"`    // Optional display name.
	IsActive     bool       `json:"is_active"`    // Deactivated users cannot authenticate.
	IsVerified   bool       `json:"is_verified"`  // Set once by verification-token redemption.
	IsSuperuser  bool       `json:"is_superuser"` // Grants access to the admin surface.
	CreatedAt    *time.Time `json:"created_at"`   // Timestamp when the user was created.
	UpdatedAt    *time.Time `json:"updated_at"`   // Refreshed on every mutation.
}

// Post represents a blog post. OwnerID is immutable after creation.
type Post struct {
	ID        int        `json:"id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	Title     string     `json:"title"`
	Content   *string    `json:"content"`
	ImageURL  *string    `json:"image_url"`
	VideoURL  *string    `json:"video_url"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Comment represents a comment attached to exactly one post.
// OwnerID and PostID are immutable after creation.
type Comment struct {
	ID        int        `json:"id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	PostID    int        `json:"post_id"`
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
