package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

// LogConfig represents logger configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json or text
	Output string `json:"output"` // stdout, stderr, or file path
}

// LogFields represents structured log fields
type LogFields map[string]interface{}

// Logger interface for abstraction
type Logger interface {
	Debug(msg string, fields ...LogFields)
	Info(msg string, fields ...LogFields)
	Warn(msg string, fields ...LogFields)
	Error(msg string, err error, fields ...LogFields)
	Fatal(msg string, err error, fields ...LogFields)
	WithFields(fields LogFields) Logger
	WithContext(ctx context.Context) Logger
}

// AppLogger implements Logger interface using logrus
type AppLogger struct {
	entry *logrus.Entry
}

// InitLogger initializes the global logger
func InitLogger(config *LogConfig) error {
	logger = logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
		logger.Warnf("Invalid log level '%s', defaulting to info", config.Level)
	}
	logger.SetLevel(level)

	switch strings.ToLower(config.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
			ForceColors:     false,
		})
	default:
		return fmt.Errorf("unsupported log format: %s", config.Format)
	}

	switch strings.ToLower(config.Output) {
	case "stdout", "":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(file)
	}

	return nil
}

// GetLogger returns a new AppLogger instance
func GetLogger() Logger {
	if logger == nil {
		log.Println("Warning: Logger not initialized, using fallback")
		InitLogger(&LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		})
	}

	return &AppLogger{
		entry: logger.WithFields(logrus.Fields{}),
	}
}

// StandardLogger exposes the underlying logrus logger for middleware that
// needs the raw instance.
func StandardLogger() *logrus.Logger {
	if logger == nil {
		GetLogger()
	}
	return logger
}

// Debug logs a debug message
func (l *AppLogger) Debug(msg string, fields ...LogFields) {
	l.withOptional(fields).Debug(msg)
}

// Info logs an info message
func (l *AppLogger) Info(msg string, fields ...LogFields) {
	l.withOptional(fields).Info(msg)
}

// Warn logs a warning message
func (l *AppLogger) Warn(msg string, fields ...LogFields) {
	l.withOptional(fields).Warn(msg)
}

// Error logs an error message
func (l *AppLogger) Error(msg string, err error, fields ...LogFields) {
	entry := l.withOptional(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

// Fatal logs a fatal message and exits
func (l *AppLogger) Fatal(msg string, err error, fields ...LogFields) {
	entry := l.withOptional(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Fatal(msg)
}

// WithFields returns a logger with additional fields
func (l *AppLogger) WithFields(fields LogFields) Logger {
	return &AppLogger{
		entry: l.entry.WithFields(logrus.Fields(fields)),
	}
}

// WithContext returns a logger enriched with request identifiers carried on
// the context.
func (l *AppLogger) WithContext(ctx context.Context) Logger {
	entry := l.entry

	if requestID := GetRequestID(ctx); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	if userID := GetUserID(ctx); userID != "" {
		entry = entry.WithField("user_id", userID)
	}
	if orgID := GetOrganizationID(ctx); orgID != "" {
		entry = entry.WithField("organization_id", orgID)
	}

	return &AppLogger{entry: entry}
}

func (l *AppLogger) withOptional(fields []LogFields) *logrus.Entry {
	entry := l.entry
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields[0]))
	}
	return entry
}

// LogRequest logs an HTTP request
func LogRequest(c *gin.Context, start time.Time) {
	fields := LogFields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"ip":         c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
		"status":     c.Writer.Status(),
		"latency":    time.Since(start).String(),
		"size":       c.Writer.Size(),
	}

	if requestID := c.GetHeader("X-Request-ID"); requestID != "" {
		fields["request_id"] = requestID
	}

	l := GetLogger().WithFields(fields)
	message := fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path)

	status := c.Writer.Status()
	switch {
	case status >= 500:
		l.Error(message, nil)
	case status >= 400:
		l.Warn(message)
	default:
		l.Info(message)
	}
}

// Context helper functions

type contextKey string

const (
	ContextKeyRequestID      contextKey = "request_id"
	ContextKeyUserID         contextKey = "user_id"
	ContextKeyOrganizationID contextKey = "organization_id"
)

// GetRequestID extracts request ID from context
func GetRequestID(ctx context.Context) string {
	return stringFromContext(ctx, ContextKeyRequestID)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	return stringFromContext(ctx, ContextKeyUserID)
}

// GetOrganizationID extracts organization ID from context
func GetOrganizationID(ctx context.Context) string {
	return stringFromContext(ctx, ContextKeyOrganizationID)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if val := ctx.Value(key); val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
