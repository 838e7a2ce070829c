// internal/api/middleware/sizelimit.go
package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FileLimit caps one multipart form file.
type FileLimit struct {
	Field    string
	MaxBytes int64
}

// UploadGate rejects oversize uploads before any extraction starts. Missing
// files pass through: the handler owns that error and its message.
func UploadGate(limits []FileLimit) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, limit := range limits {
			header, err := c.FormFile(limit.Field)
			if err != nil {
				continue
			}
			if header.Size > limit.MaxBytes {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
					"error": fmt.Sprintf("%s exceeds the %d MB limit", limit.Field, limit.MaxBytes/(1<<20)),
				})
				return
			}
		}
		c.Next()
	}
}
