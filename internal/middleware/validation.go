package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scribe-server/internal/schemas"
	"scribe-server/internal/utils"
)

// ValidateAndSanitizeStruct binds the JSON body into a fresh T, validates it,
// and stores the result in the context under the sanitized payload key.
func ValidateAndSanitizeStruct[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		obj := new(T)
		if err := c.ShouldBindJSON(obj); err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}

		validator := utils.GetValidator()
		if err := validator.Validate.Struct(obj); err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}

		c.Set(utils.SanitizedPayloadKey.String(), obj)
		c.Next()
	}
}
