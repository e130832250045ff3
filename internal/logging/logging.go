// Package logging provides structured logging and request-scoped context
// values (user id, role, trace id) shared across the service.
package logging

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	// UserIDKey carries the authenticated user id through the request context.
	UserIDKey contextKey = "user_id"
	// RoleKey carries the authenticated role through the request context.
	RoleKey contextKey = "role"
	// TraceIDKey carries the request trace id through the request context.
	TraceIDKey contextKey = "trace_id"
)

// Logger wraps logrus with service-level conventions.
type Logger struct {
	entry *logrus.Entry
}

// New creates a logger for the named component with the given level and
// format ("json" or "text").
func New(component, level, format string) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	if strings.EqualFold(format, "text") {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}

	return &Logger{entry: base.WithField("component", component)}
}

// NewDefault creates a JSON info-level logger for the named component.
func NewDefault(component string) *Logger {
	return New(component, "info", "json")
}

// WithContext annotates log output with the identity and trace id stored in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := logrus.Fields{}
	if id := GetUserID(ctx); id != 0 {
		fields["user_id"] = id
	}
	if role := GetRole(ctx); role != "" {
		fields["role"] = role
	}
	if trace := GetTraceID(ctx); trace != "" {
		fields["trace_id"] = trace
	}
	return &Logger{entry: l.entry.WithFields(fields)}
}

// WithError attaches an error to subsequent log output.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// WithFields attaches arbitrary fields to subsequent log output.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *Logger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *Logger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l *Logger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l *Logger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// LogRequest records a completed HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	entry := l.WithContext(ctx).entry.WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})
	if status >= http.StatusInternalServerError {
		entry.Error("request completed")
		return
	}
	entry.Info("request completed")
}

// LogSecurityEvent records an auth/abuse-related event.
func (l *Logger) LogSecurityEvent(ctx context.Context, event string, details map[string]interface{}) {
	l.WithContext(ctx).entry.WithField("event", event).WithFields(logrus.Fields(details)).Warn("security event")
}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the authenticated user id from ctx, or 0.
func GetUserID(ctx context.Context) int64 {
	if id, ok := ctx.Value(UserIDKey).(int64); ok {
		return id
	}
	return 0
}

// WithRole returns a context carrying the authenticated role.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, RoleKey, role)
}

// GetRole extracts the authenticated role from ctx, or "".
func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(RoleKey).(string); ok {
		return role
	}
	return ""
}

// WithTraceID returns a context carrying the request trace id.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID extracts the request trace id from ctx, or "".
func GetTraceID(ctx context.Context) string {
	if trace, ok := ctx.Value(TraceIDKey).(string); ok {
		return trace
	}
	return ""
}

// NewTraceID generates a fresh trace identifier.
func NewTraceID() string {
	return uuid.NewString()
}
