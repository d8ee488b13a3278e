package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileDelete permanently removes the blob and its record by record id.
// Deleting an id that no longer exists is a success, retries after a
// partial failure must not themselves fail.
func (a *API) FileDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "ID is not a valid integer",
			"requestID": requestID,
		})
		return
	}

	err = a.Rec.PermanentDelete(c.Request.Context(), uint(id))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete file", zap.Uint64("id", id), zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}

// FileDeleteByKey is the key-addressed form used by older clients.
func (a *API) FileDeleteByKey(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	key := c.Query("key")
	if key == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Key is missing",
			"requestID": requestID,
		})
		return
	}

	err := a.Rec.PermanentDeleteByKey(c.Request.Context(), key)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete file", zap.String("key", key), zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}
