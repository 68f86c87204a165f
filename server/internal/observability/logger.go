package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/tripprefs/server/auth"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldUserID is the field name for user ID.
	LogFieldUserID = "user_id"
	// LogFieldRoute is the field name for the matched route.
	LogFieldRoute = "route"
	// LogFieldMethod is the field name for the HTTP method.
	LogFieldMethod = "method"
	// LogFieldStatus is the field name for the response status.
	LogFieldStatus = "status"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
)

// RequestContext carries the logger of a single API request.
type RequestContext struct {
	RequestID string
	UserID    int32
	StartTime time.Time
	Logger    *slog.Logger
}

type requestContextKey struct{}

// NewRequestContext creates a request context. An empty requestID is replaced by a generated one.
func NewRequestContext(logger *slog.Logger, requestID string, userID int32) *RequestContext {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &RequestContext{
		RequestID: requestID,
		UserID:    userID,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// WithFields returns a new logger with the request fields and the given attributes.
func (r *RequestContext) WithFields(attrs ...slog.Attr) *slog.Logger {
	base := r.baseAttrs()
	result := make([]any, 0, len(base)+len(attrs))
	for _, attr := range base {
		result = append(result, attr)
	}
	for _, attr := range attrs {
		result = append(result, attr)
	}
	return r.Logger.With(result...)
}

// Duration returns the elapsed time since the request started.
func (r *RequestContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

func (r *RequestContext) baseAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String(LogFieldRequestID, r.RequestID),
		slog.Int64(LogFieldUserID, int64(r.UserID)),
	}
}

// WithRequestContext returns a copy of ctx carrying rc for FromContext.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// FromContext returns the request logger stored by Middleware, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if r, ok := ctx.Value(requestContextKey{}).(*RequestContext); ok {
		return r.WithFields()
	}
	return slog.Default()
}

// Middleware logs one line per API request and makes the request logger
// available through FromContext. It must run after authentication.
func Middleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			rc := NewRequestContext(logger, requestID, auth.GetUserID(req.Context()))
			c.SetRequest(req.WithContext(WithRequestContext(req.Context(), rc)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			} else if status >= 400 {
				level = slog.LevelWarn
			}
			rc.Logger.LogAttrs(req.Context(), level, "api request",
				append(rc.baseAttrs(),
					slog.String(LogFieldMethod, req.Method),
					slog.String(LogFieldRoute, c.Path()),
					slog.Int(LogFieldStatus, status),
					slog.Int64(LogFieldDuration, rc.Duration().Milliseconds()),
				)...,
			)
			return nil
		}
	}
}
