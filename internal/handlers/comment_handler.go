package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"scribe-server/internal/interfaces"
	"scribe-server/internal/managers"
	"scribe-server/internal/schemas"
	"scribe-server/internal/utils"
)

// CommentHdl defines the interface for handling comment-related HTTP requests.
type CommentHdl interface {
	CreateComment(c *gin.Context)
	GetComments(c *gin.Context)
	UpdateComment(c *gin.Context)
	DeleteComment(c *gin.Context)
}

// CommentHandler provides methods to handle comment-related HTTP requests.
type CommentHandler struct {
	DatabaseManager managers.DatabaseMgr
}

// NewCommentHandler returns a new CommentHandler with the provided managers.
func NewCommentHandler(databaseManager *managers.DatabaseMgr) CommentHdl {
	return &CommentHandler{
		DatabaseManager: *databaseManager,
	}
}

// CreateComment attaches a new comment to a post. A missing post surfaces as
// a foreign key violation and maps to 404.
func (handler *CommentHandler) CreateComment(ctx *gin.Context) {
	postId, ok := parsePostId(ctx)
	if !ok {
		return
	}

	createCommentRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.CreateCommentRequest)
	user := ctx.Value(utils.CurrentUserKey.String()).(*schemas.User)

	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(ctx, tx)

	createdAt := time.Now()
	var commentId int

	queryString := "INSERT INTO scribe_schema.comments (owner_id, post_id, content, created_at, updated_at) " +
		"VALUES ($1, $2, $3, $4, $5) RETURNING comment_id"
	if err := tx.QueryRow(ctx, queryString, user.ID, postId, createCommentRequest.Content,
		createdAt, createdAt).Scan(&commentId); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			utils.WriteAndLogError(ctx, schemas.PostNotFound, http.StatusNotFound, errors.New("post not found"))
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	comment := &schemas.CommentDTO{
		CommentID:    commentId,
		PostID:       postId,
		OwnerID:      user.ID.String(),
		Content:      createCommentRequest.Content,
		CreationDate: createdAt.Format(time.RFC3339),
		UpdateDate:   createdAt.Format(time.RFC3339),
		Owner: schemas.UserDTO{
			ID:         user.ID,
			Email:      user.Email,
			FullName:   user.FullName,
			IsActive:   user.IsActive,
			IsVerified: user.IsVerified,
		},
	}
	utils.WriteAndLogResponse(ctx, comment, http.StatusCreated)
}

// GetComments returns the comments of a post, oldest first.
func (handler *CommentHandler) GetComments(ctx *gin.Context) {
	postId, ok := parsePostId(ctx)
	if !ok {
		return
	}

	pool := handler.DatabaseManager.GetPool()

	var postCount int
	queryString := "SELECT COUNT(*) FROM scribe_schema.posts WHERE post_id = $1"
	if err := pool.QueryRow(ctx, queryString, postId).Scan(&postCount); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if postCount == 0 {
		utils.WriteAndLogError(ctx, schemas.PostNotFound, http.StatusNotFound, errors.New("post not found"))
		return
	}

	comments, err := fetchComments(ctx, pool, postId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(ctx, comments, http.StatusOK)
}

// UpdateComment replaces the content of a comment owned by the caller.
func (handler *CommentHandler) UpdateComment(ctx *gin.Context) {
	commentId, ok := parseCommentId(ctx)
	if !ok {
		return
	}

	updateCommentRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.UpdateCommentRequest)
	user := ctx.Value(utils.CurrentUserKey.String()).(*schemas.User)

	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(ctx, tx)

	comment, ok := fetchCommentForOwner(ctx, tx, commentId, user)
	if !ok {
		return
	}

	updatedAt := time.Now()
	queryString := "UPDATE scribe_schema.comments SET content = $1, updated_at = $2 WHERE comment_id = $3"
	if _, err := tx.Exec(ctx, queryString, updateCommentRequest.Content, updatedAt, commentId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	response := &schemas.CommentDTO{
		CommentID:  comment.ID,
		PostID:     comment.PostID,
		OwnerID:    comment.OwnerID.String(),
		Content:    updateCommentRequest.Content,
		UpdateDate: updatedAt.Format(time.RFC3339),
		Owner: schemas.UserDTO{
			ID:         user.ID,
			Email:      user.Email,
			FullName:   user.FullName,
			IsActive:   user.IsActive,
			IsVerified: user.IsVerified,
		},
	}
	if comment.CreatedAt != nil {
		response.CreationDate = comment.CreatedAt.Format(time.RFC3339)
	}
	utils.WriteAndLogResponse(ctx, response, http.StatusOK)
}

// DeleteComment removes a comment owned by the caller.
func (handler *CommentHandler) DeleteComment(ctx *gin.Context) {
	commentId, ok := parseCommentId(ctx)
	if !ok {
		return
	}

	user := ctx.Value(utils.CurrentUserKey.String()).(*schemas.User)

	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(ctx, tx)

	if _, ok := fetchCommentForOwner(ctx, tx, commentId, user); !ok {
		return
	}

	queryString := "DELETE FROM scribe_schema.comments WHERE comment_id = $1"
	if _, err := tx.Exec(ctx, queryString, commentId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err := utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	utils.WriteAndLogResponse(ctx, nil, http.StatusNoContent)
}

// fetchCommentForOwner loads a comment inside the transaction and enforces
// ownership, absence before ownership.
func fetchCommentForOwner(ctx *gin.Context, tx pgx.Tx, commentId int, user *schemas.User) (*schemas.Comment, bool) {
	comment := &schemas.Comment{}
	queryString := "SELECT comment_id, owner_id, post_id, content, created_at, updated_at " +
		"FROM scribe_schema.comments WHERE comment_id = $1"
	row := tx.QueryRow(ctx, queryString, commentId)
	if err := row.Scan(&comment.ID, &comment.OwnerID, &comment.PostID, &comment.Content,
		&comment.CreatedAt, &comment.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.CommentNotFound, http.StatusNotFound, err)
			return nil, false
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return nil, false
	}

	if comment.OwnerID != user.ID {
		utils.WriteAndLogError(ctx, schemas.NotOwner, http.StatusForbidden, errors.New("user is not the owner of the comment"))
		return nil, false
	}

	return comment, true
}

// fetchComments returns a post's comments joined with their owners, oldest
// first.
func fetchComments(ctx *gin.Context, pool interfaces.PgxPoolIface, postId int) ([]schemas.CommentDTO, error) {
	queryString := "SELECT c.comment_id, c.post_id, c.owner_id, c.content, c.created_at, c.updated_at, " +
		"u.user_id, u.email, u.full_name, u.is_active, u.is_verified " +
		"FROM scribe_schema.comments c JOIN scribe_schema.users u ON c.owner_id = u.user_id " +
		"WHERE c.post_id = $1 ORDER BY c.created_at ASC"
	rows, err := pool.Query(ctx, queryString, postId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]schemas.CommentDTO, 0)
	for rows.Next() {
		var comment schemas.CommentDTO
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&comment.CommentID, &comment.PostID, &comment.OwnerID, &comment.Content,
			&createdAt, &updatedAt, &comment.Owner.ID, &comment.Owner.Email, &comment.Owner.FullName,
			&comment.Owner.IsActive, &comment.Owner.IsVerified); err != nil {
			return nil, err
		}

		comment.CreationDate = createdAt.Format(time.RFC3339)
		comment.UpdateDate = updatedAt.Format(time.RFC3339)
		comments = append(comments, comment)
	}

	return comments, nil
}

func parseCommentId(ctx *gin.Context) (int, bool) {
	commentId, err := strconv.Atoi(ctx.Param(utils.CommentIdParamKey))
	if err != nil || commentId < 1 {
		utils.WriteAndLogError(ctx, schemas.CommentNotFound, http.StatusNotFound, errors.New("invalid comment id"))
		return 0, false
	}
	return commentId, true
}
