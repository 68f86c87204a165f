package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/tripprefs/server/auth"
)

func TestNewRequestContext(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	rc := NewRequestContext(logger, "", 3)
	assert.NotEmpty(t, rc.RequestID)
	assert.Equal(t, int32(3), rc.UserID)

	rc = NewRequestContext(logger, "req-1", 0)
	assert.Equal(t, "req-1", rc.RequestID)
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	buf := &bytes.Buffer{}
	rc := NewRequestContext(slog.New(slog.NewJSONHandler(buf, nil)), "req-2", 9)
	ctx := WithRequestContext(context.Background(), rc)
	FromContext(ctx).Info("hello")

	line := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-2", line[LogFieldRequestID])
	assert.Equal(t, float64(9), line[LogFieldUserID])
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		handler   echo.HandlerFunc
		status    int
		wantLevel string
	}{
		{
			name:      "ok",
			handler:   func(c echo.Context) error { return c.NoContent(http.StatusOK) },
			status:    http.StatusOK,
			wantLevel: "INFO",
		},
		{
			name:      "client error",
			handler:   func(c echo.Context) error { return c.NoContent(http.StatusNotFound) },
			status:    http.StatusNotFound,
			wantLevel: "WARN",
		},
		{
			name:      "handler error",
			handler:   func(c echo.Context) error { return errors.New("boom") },
			status:    http.StatusInternalServerError,
			wantLevel: "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := slog.New(slog.NewJSONHandler(buf, nil))

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me/onboarding", nil)
			req = req.WithContext(auth.WithUserID(req.Context(), 4))
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath("/api/v1/users/me/onboarding")
			c.Response().Header().Set(echo.HeaderXRequestID, "req-3")

			require.NoError(t, Middleware(logger)(tt.handler)(c))
			assert.Equal(t, tt.status, rec.Code)

			line := map[string]any{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, tt.wantLevel, line["level"])
			assert.Equal(t, "req-3", line[LogFieldRequestID])
			assert.Equal(t, float64(4), line[LogFieldUserID])
			assert.Equal(t, "/api/v1/users/me/onboarding", line[LogFieldRoute])
			assert.Equal(t, float64(tt.status), line[LogFieldStatus])
		})
	}
}
