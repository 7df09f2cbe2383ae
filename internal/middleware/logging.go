package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestLogger creates a logging middleware for HTTP requests
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		fields := logrus.Fields{
			"timestamp":  param.TimeStamp.Format(time.RFC3339),
			"method":     param.Method,
			"path":       param.Path,
			"status":     param.StatusCode,
			"latency":    param.Latency,
			"client_ip":  param.ClientIP,
			"user_agent": param.Request.UserAgent(),
			"request_id": param.Keys["request_id"],
		}

		if userID, exists := param.Keys["user_id"]; exists {
			fields["user_id"] = userID
		}
		if orgID, exists := param.Keys["organization_id"]; exists {
			fields["organization_id"] = orgID
		}

		switch {
		case param.StatusCode >= 500:
			logger.WithFields(fields).Error("HTTP Request")
		case param.StatusCode >= 400:
			logger.WithFields(fields).Warn("HTTP Request")
		default:
			logger.WithFields(fields).Info("HTTP Request")
		}

		return ""
	})
}

// RequestID assigns a request id when the caller did not supply one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}
