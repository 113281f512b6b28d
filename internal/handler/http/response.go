package http

import "github.com/gin-gonic/gin"

// ErrorResponse writes a rejection the sync clients understand: a JSON
// body whose "message" field carries the human-readable reason.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"message": message})
}

func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}
