package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scribe-server/internal/managers"
	"scribe-server/internal/schemas"
	"scribe-server/internal/utils"
)

// UploadHdl defines the interface for handling upload-related HTTP requests.
type UploadHdl interface {
	GetUploadAuth(c *gin.Context)
}

// UploadHandler provides methods to handle upload-related HTTP requests.
type UploadHandler struct {
	MediaManager managers.MediaMgr
}

// NewUploadHandler returns a new UploadHandler with the provided managers.
func NewUploadHandler(mediaManager *managers.MediaMgr) UploadHdl {
	return &UploadHandler{
		MediaManager: *mediaManager,
	}
}

// GetUploadAuth hands a verified user short-lived signed parameters for a
// direct upload to the media store.
func (handler *UploadHandler) GetUploadAuth(ctx *gin.Context) {
	user := ctx.Value(utils.CurrentUserKey.String()).(*schemas.User)

	uploadAuth, err := handler.MediaManager.UploadAuth(user.ID.String())
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.MediaServiceUnavailable, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(ctx, uploadAuth, http.StatusOK)
}
