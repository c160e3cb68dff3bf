package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Zachkp/zach-dev-api/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"wildcard", []string{"*"}, http.MethodGet, "https://a.dev", http.StatusOK, "*"},
		{"listed origin", []string{"https://zach.dev"}, http.MethodGet, "https://zach.dev", http.StatusOK, "https://zach.dev"},
		{"unlisted origin", []string{"https://zach.dev"}, http.MethodGet, "https://evil.dev", http.StatusOK, ""},
		{"preflight allowed", []string{"https://zach.dev"}, http.MethodOptions, "https://zach.dev", http.StatusNoContent, "https://zach.dev"},
		{"preflight refused", []string{"https://zach.dev"}, http.MethodOptions, "https://evil.dev", http.StatusForbidden, ""},
		{"no origin", []string{"https://zach.dev"}, http.MethodGet, "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(CORS(tt.allowed))
			r.OPTIONS("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/ok", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(RequestID(), Recovery(logging.NewWriter(&buf)))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "boom")
	assert.Contains(t, buf.String(), "[PANIC] GET /panic")
}

func TestLoggerHashesIP(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(Logger(logging.NewWriter(&buf), func(string) string { return "hashed-ip" }))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "hashed-ip")
	assert.NotContains(t, buf.String(), "203.0.113.9")
}

func TestSecurityHeaders(t *testing.T) {
	r := newEngine(SecurityHeaders())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
