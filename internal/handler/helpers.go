package handler

import "github.com/gin-gonic/gin"

// currentUserID reads the authenticated user ID injected by the auth middleware.
func currentUserID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	id, _ := userID.(string)
	return id
}
