package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FileDownload returns a time-limited signed URL instead of streaming
// bytes. The URL fails closed on the provider side once it expires.
func (a *API) FileDownload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	key := c.Query("key")
	if key == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Key is missing",
			"requestID": requestID,
		})
		return
	}

	url, err := a.Rec.ResolveDownload(c.Request.Context(), key)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Download failed",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
