package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"scribe-server/internal/managers"
	"scribe-server/internal/schemas"
	"scribe-server/internal/utils"
)

// PostHdl defines the interface for handling post-related HTTP requests.
type PostHdl interface {
	CreatePost(c *gin.Context)
	ListPosts(c *gin.Context)
	GetPost(c *gin.Context)
	UpdatePost(c *gin.Context)
	DeletePost(c *gin.Context)
}

// PostHandler provides methods to handle post-related HTTP requests.
type PostHandler struct {
	DatabaseManager managers.DatabaseMgr
	MediaManager    managers.MediaMgr
}

// NewPostHandler returns a new PostHandler with the provided managers.
func NewPostHandler(databaseManager *managers.DatabaseMgr, mediaManager *managers.MediaMgr) PostHdl {
	return &PostHandler{
		DatabaseManager: *databaseManager,
		MediaManager:    *mediaManager,
	}
}

// CreatePost handles the creation of a new post by the authenticated,
// verified user.
func (handler *PostHandler) CreatePost(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(ctx, tx)

	createPostRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.CreatePostRequest)
	user := ctx.Value(utils.CurrentUserKey.String()).(*schemas.User)

	createdAt := time.Now()
	var postId int

	queryString := "INSERT INTO scribe_schema.posts (owner_id, title, content, image_url, video_url, created_at, updated_at) " +
		"VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING post_id"
	if err := tx.QueryRow(ctx, queryString, user.ID, createPostRequest.Title, createPostRequest.Content,
		createPostRequest.ImageURL, createPostRequest.VideoURL, createdAt, createdAt).Scan(&postId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	post := &schemas.PostDTO{
		PostID:       postId,
		OwnerID:      user.ID.String(),
		Title:        createPostRequest.Title,
		Content:      createPostRequest.Content,
		ImageURL:     createPostRequest.ImageURL,
		VideoURL:     createPostRequest.VideoURL,
		CreationDate: createdAt.Format(time.RFC3339),
		UpdateDate:   createdAt.Format(time.RFC3339),
	}
	utils.WriteAndLogResponse(ctx, post, http.StatusCreated)
}

// ListPosts returns a public, newest-first page of posts.
func (handler *PostHandler) ListPosts(ctx *gin.Context) {
	offset, limit, err := utils.ParsePaginationParams(ctx)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	pool := handler.DatabaseManager.GetPool()

	var count int
	queryString := "SELECT COUNT(*) FROM scribe_schema.posts"
	if err := pool.QueryRow(ctx, queryString).Scan(&count); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "SELECT post_id, owner_id, title, content, image_url, video_url, created_at, updated_at " +
		"FROM scribe_schema.posts ORDER BY created_at DESC LIMIT $1 OFFSET $2"
	rows, err := pool.Query(ctx, queryString, limit, offset)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	posts := make([]*schemas.PostDTO, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		posts = append(posts, post)
	}

	response := &schemas.PaginatedResponse{
		Records: posts,
		Pagination: schemas.Pagination{
			Offset:  offset,
			Limit:   limit,
			Records: count,
		},
	}
	utils.WriteAndLogResponse(ctx, response, http.StatusOK)
}

// GetPost returns a single post with its owner and comments.
func (handler *PostHandler) GetPost(ctx *gin.Context) {
	postId, ok := parsePostId(ctx)
	if !ok {
		return
	}

	pool := handler.DatabaseManager.GetPool()

	detail := &schemas.PostDetailDTO{}
	var createdAt, updatedAt time.Time
	queryString := "SELECT p.post_id, p.owner_id, p.title, p.content, p.image_url, p.video_url, p.created_at, p.updated_at, " +
		"u.user_id, u.email, u.full_name, u.is_active, u.is_verified " +
		"FROM scribe_schema.posts p JOIN scribe_schema.users u ON p.owner_id = u.user_id WHERE p.post_id = $1"
	row := pool.QueryRow(ctx, queryString, postId)
	if err := row.Scan(&detail.PostID, &detail.OwnerID, &detail.Title, &detail.Content, &detail.ImageURL,
		&detail.VideoURL, &createdAt, &updatedAt, &detail.Owner.ID, &detail.Owner.Email, &detail.Owner.FullName,
		&detail.Owner.IsActive, &detail.Owner.IsVerified); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.PostNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	detail.CreationDate = createdAt.Format(time.RFC3339)
	detail.UpdateDate = updatedAt.Format(time.RFC3339)

	comments, err := fetchComments(ctx, pool, postId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	detail.Comments = comments

	utils.WriteAndLogResponse(ctx, detail, http.StatusOK)
}

// UpdatePost applies a partial update to a post owned by the caller. Media
// URLs replaced by the update are removed from the media store after the
// transaction commits.
func (handler *PostHandler) UpdatePost(ctx *gin.Context) {
	postId, ok := parsePostId(ctx)
	if !ok {
		return
	}

	updateRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.UpdatePostRequest)
	user := ctx.Value(utils.CurrentUserKey.String()).(*schemas.User)

	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(ctx, tx)

	post, ok := fetchPostForOwner(ctx, tx, postId, user)
	if !ok {
		return
	}

	// Collect media URLs displaced by this update before overwriting them.
	// A field present in the payload replaces the stored URL, explicit null
	// clears it; writing back the same URL orphans nothing.
	orphanedMedia := make([]string, 0, 2)
	if updateRequest.ImageURL.Set {
		if displaced(post.ImageURL, updateRequest.ImageURL.Value) {
			orphanedMedia = append(orphanedMedia, *post.ImageURL)
		}
		post.ImageURL = updateRequest.ImageURL.Value
	}
	if updateRequest.VideoURL.Set {
		if displaced(post.VideoURL, updateRequest.VideoURL.Value) {
			orphanedMedia = append(orphanedMedia, *post.VideoURL)
		}
		post.VideoURL = updateRequest.VideoURL.Value
	}

	if updateRequest.Title != nil {
		post.Title = *updateRequest.Title
	}
	if updateRequest.Content != nil {
		post.Content = updateRequest.Content
	}

	updatedAt := time.Now()
	queryString := "UPDATE scribe_schema.posts SET title = $1, content = $2, image_url = $3, video_url = $4, updated_at = $5 " +
		"WHERE post_id = $6"
	if _, err := tx.Exec(ctx, queryString, post.Title, post.Content, post.ImageURL, post.VideoURL,
		updatedAt, postId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	handler.cleanupMedia(ctx, orphanedMedia)

	post.UpdatedAt = &updatedAt
	utils.WriteAndLogResponse(ctx, postToDTO(post), http.StatusOK)
}

// DeletePost removes a post owned by the caller together with its comments,
// then removes the post's media assets from the media store.
func (handler *PostHandler) DeletePost(ctx *gin.Context) {
	postId, ok := parsePostId(ctx)
	if !ok {
		return
	}

	user := ctx.Value(utils.CurrentUserKey.String()).(*schemas.User)

	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(ctx, tx)

	post, ok := fetchPostForOwner(ctx, tx, postId, user)
	if !ok {
		return
	}

	orphanedMedia := make([]string, 0, 2)
	if post.ImageURL != nil {
		orphanedMedia = append(orphanedMedia, *post.ImageURL)
	}
	if post.VideoURL != nil {
		orphanedMedia = append(orphanedMedia, *post.VideoURL)
	}

	// Comments go first, the cascade is explicit
	queryString := "DELETE FROM scribe_schema.comments WHERE post_id = $1"
	if _, err := tx.Exec(ctx, queryString, postId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "DELETE FROM scribe_schema.posts WHERE post_id = $1"
	if _, err := tx.Exec(ctx, queryString, postId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	handler.cleanupMedia(ctx, orphanedMedia)

	utils.WriteAndLogResponse(ctx, nil, http.StatusNoContent)
}

// cleanupMedia deletes the given media URLs from the store. Deletions fan out
// concurrently and are awaited before the response is written, but a failed
// deletion only logs a warning.
func (handler *PostHandler) cleanupMedia(ctx *gin.Context, mediaURLs []string) {
	if len(mediaURLs) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, mediaURL := range mediaURLs {
		wg.Add(1)
		go func(mediaURL string) {
			defer wg.Done()
			if err := handler.MediaManager.DeleteByURL(ctx, mediaURL); err != nil {
				utils.LogMessageWithFieldsAndError(ctx, "warn", "Error deleting media asset "+mediaURL, err)
			}
		}(mediaURL)
	}
	wg.Wait()
}

// fetchPostForOwner loads a post inside the transaction and enforces
// ownership. Absence is reported before ownership so a caller cannot learn
// whether a foreign post exists from the status code alone.
func fetchPostForOwner(ctx *gin.Context, tx pgx.Tx, postId int, user *schemas.User) (*schemas.Post, bool) {
	post := &schemas.Post{}
	queryString := "SELECT post_id, owner_id, title, content, image_url, video_url, created_at, updated_at " +
		"FROM scribe_schema.posts WHERE post_id = $1"
	row := tx.QueryRow(ctx, queryString, postId)
	if err := row.Scan(&post.ID, &post.OwnerID, &post.Title, &post.Content, &post.ImageURL, &post.VideoURL,
		&post.CreatedAt, &post.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.PostNotFound, http.StatusNotFound, err)
			return nil, false
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return nil, false
	}

	if post.OwnerID != user.ID {
		utils.WriteAndLogError(ctx, schemas.NotOwner, http.StatusForbidden, errors.New("user is not the owner of the post"))
		return nil, false
	}

	return post, true
}

// displaced reports whether the stored URL loses its last reference when the
// new value is written.
func displaced(stored, next *string) bool {
	return stored != nil && (next == nil || *stored != *next)
}

func parsePostId(ctx *gin.Context) (int, bool) {
	postId, err := strconv.Atoi(ctx.Param(utils.PostIdParamKey))
	if err != nil || postId < 1 {
		utils.WriteAndLogError(ctx, schemas.PostNotFound, http.StatusNotFound, errors.New("invalid post id"))
		return 0, false
	}
	return postId, true
}

func scanPost(rows pgx.Rows) (*schemas.PostDTO, error) {
	post := &schemas.PostDTO{}
	var createdAt, updatedAt time.Time
	if err := rows.Scan(&post.PostID, &post.OwnerID, &post.Title, &post.Content, &post.ImageURL, &post.VideoURL,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	post.CreationDate = createdAt.Format(time.RFC3339)
	post.UpdateDate = updatedAt.Format(time.RFC3339)
	return post, nil
}

func postToDTO(post *schemas.Post) *schemas.PostDTO {
	dto := &schemas.PostDTO{
		PostID:   post.ID,
		OwnerID:  post.OwnerID.String(),
		Title:    post.Title,
		Content:  post.Content,
		ImageURL: post.ImageURL,
		VideoURL: post.VideoURL,
	}
	if post.CreatedAt != nil {
		dto.CreationDate = post.CreatedAt.Format(time.RFC3339)
	}
	if post.UpdatedAt != nil {
		dto.UpdateDate = post.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}
