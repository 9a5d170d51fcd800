package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus logger with the structured helpers used across the
// service.
type Logger struct {
	*logrus.Logger
}

// NewLogger builds a logger for the given level and environment. Outside
// development entries are JSON encoded.
func NewLogger(logLevel string, environment string) *Logger {
	return newLogger(os.Stdout, logLevel, environment)
}

// NewLoggerWithOutput is NewLogger writing to out.
func NewLoggerWithOutput(out io.Writer, logLevel string, environment string) *Logger {
	return newLogger(out, logLevel, environment)
}

func newLogger(out io.Writer, logLevel string, environment string) *Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(ParseLogrusLevel(logLevel))
	if strings.ToLower(environment) == "development" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}
	return &Logger{Logger: l}
}

// ParseLogrusLevel converts string level to logrus.Level
func ParseLogrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// WithComponent creates an entry with component context
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.WithField("component", component)
}

// WithOperation creates an entry with operation context
func (l *Logger) WithOperation(operation string) *logrus.Entry {
	return l.WithField("operation", operation)
}

// WithRequestID creates an entry with request ID context
func (l *Logger) WithRequestID(requestID string) *logrus.Entry {
	return l.WithField("request_id", requestID)
}

// LogStartup logs application startup information
func (l *Logger) LogStartup(serviceName string, version string, port int) {
	l.WithFields(logrus.Fields{
		"event":   "startup",
		"service": serviceName,
		"version": version,
		"port":    port,
	}).Info("Service starting")
}

// LogShutdown logs application shutdown information
func (l *Logger) LogShutdown(serviceName string, reason string) {
	l.WithFields(logrus.Fields{
		"event":   "shutdown",
		"service": serviceName,
		"reason":  reason,
	}).Info("Service shutting down")
}

// LogCacheOperation logs cache operations in a standardized format
func (l *Logger) LogCacheOperation(operation string, key string, hit bool, duration time.Duration) {
	l.WithFields(logrus.Fields{
		"event":       "cache_operation",
		"operation":   operation,
		"key":         key,
		"hit":         hit,
		"duration_ms": duration.Milliseconds(),
	}).Debug("Cache operation")
}

// LogAPIRequest logs API requests in a standardized format
func (l *Logger) LogAPIRequest(requestID, method, path string, statusCode int, duration time.Duration) {
	entry := l.WithFields(logrus.Fields{
		"event":       "api_request",
		"request_id":  requestID,
		"method":      method,
		"path":        path,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	})
	switch {
	case statusCode >= 500:
		entry.Error("API request")
	case statusCode >= 400:
		entry.Warn("API request")
	default:
		entry.Info("API request")
	}
}

// LogBusinessEvent logs business events in a standardized format
func (l *Logger) LogBusinessEvent(eventType string, details map[string]interface{}) {
	fields := logrus.Fields{"event": "business_event", "event_type": eventType}
	for k, v := range details {
		fields[k] = v
	}
	l.WithFields(fields).Info("Business event")
}
