package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/otptasks-server/internal/logger"
)

func TestLogging_Handle(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		requestID string
		wantLevel string
		wantMsg   string
	}{
		{
			name:      "success generates request id",
			status:    http.StatusOK,
			wantLevel: "INFO",
			wantMsg:   "HTTP request completed",
		},
		{
			name:      "client error keeps incoming request id",
			status:    http.StatusNotFound,
			requestID: "req-123",
			wantLevel: "INFO",
			wantMsg:   "HTTP request completed",
		},
		{
			name:      "server error is logged as error",
			status:    http.StatusInternalServerError,
			wantLevel: "ERROR",
			wantMsg:   "HTTP request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			lg := NewLogging(logger.NewWithWriter(&buf, 0, "json"))

			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(lg.Handle)
			r.GET("/ping", func(c *gin.Context) {
				c.Status(tt.status)
			})

			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.requestID != "" {
				req.Header.Set(RequestIDHeader, tt.requestID)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)

			gotID := w.Header().Get(RequestIDHeader)
			if tt.requestID != "" {
				assert.Equal(t, tt.requestID, gotID)
			} else {
				_, err := uuid.Parse(gotID)
				assert.NoError(t, err)
			}

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["msg"])
			assert.Equal(t, gotID, entry["request_id"])
			assert.Equal(t, "/ping", entry["path"])
			assert.Equal(t, float64(tt.status), entry["status"])
		})
	}
}
