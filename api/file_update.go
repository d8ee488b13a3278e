package api

import (
	"errors"
	"net/http"
	"strconv"

	"cloudbox/drive-api/model"
	"cloudbox/drive-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) FileUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "ID is not a valid integer",
			"requestID": requestID,
		})
		return
	}

	var patch model.FlagPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid JSON request body",
			"requestID": requestID,
		})
		return
	}

	err = a.Rec.UpdateFlags(c.Request.Context(), uint(id), patch)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "At least one of isFavorite/isTrash is required",
				"requestID": requestID,
			})
		case errors.Is(err, service.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "File not found",
				"requestID": requestID,
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to update file flags", zap.Uint64("id", id), zap.Error(err))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
