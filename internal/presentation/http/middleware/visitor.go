package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// VisitorIDHeader carries the tracked visitor's identifier on every
// tracking request after the initial visit bootstrap.
const VisitorIDHeader = "X-LeadPulse-Visitor-ID"

const visitorContextKey = "visitorId"

// VisitorMiddleware requires a visitor ID on the request and stashes it in
// the gin context. Requests without one are rejected; identifiers are
// minted by the visit endpoint, never here.
func VisitorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID := c.GetHeader(VisitorIDHeader)
		if visitorID == "" {
			visitorID = c.Query("visitorId")
		}
		if visitorID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing visitor id"})
			c.Abort()
			return
		}
		c.Set(visitorContextKey, visitorID)
		c.Next()
	}
}

// GetVisitorID returns the visitor ID set by VisitorMiddleware.
func GetVisitorID(c *gin.Context) (string, bool) {
	visitorID := c.GetString(visitorContextKey)
	return visitorID, visitorID != ""
}
