// internal/api/responses/responses.go
package responses

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InitLogger installs the service-wide zap logger. Called once from main
// before any request is served.
func InitLogger() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	zap.ReplaceGlobals(logger)
}

// Error writes the standard JSON error envelope and logs the occurrence.
// Optional details are logged but also returned to the client, since every
// consumer of this API is an operator-facing frontend.
func Error(c *gin.Context, status int, message string, details ...string) {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("path", c.FullPath()),
	}
	if len(details) > 0 {
		fields = append(fields, zap.Strings("details", details))
	}
	zap.L().Warn(message, fields...)

	body := gin.H{"error": message}
	if len(details) > 0 {
		body["details"] = details
	}
	c.JSON(status, body)
}
