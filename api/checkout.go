package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateCheckoutSession is an opaque pass-through to the payment
// provider. The plan is implicit, configured server-side.
func (a *API) CreateCheckoutSession(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	url, err := a.Billing.CreateCheckoutSession(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to create checkout session",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
