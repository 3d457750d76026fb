package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/apperror"
	appctx "invoicer/internal/core/context"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &appctx.UserContext{UserID: "0192f4b6-0000-7000-8000-000000000001", UserName: "acme"}, nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), Trace(), ErrorHandler())
	r.GET("/", append(handlers, func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, user.UserName)
	})...)
	return r
}

func TestAuth_HeaderAndCookie(t *testing.T) {
	r := newEngine(Auth(stubValidator{}))

	tests := []struct {
		name   string
		header string
		cookie string
		status int
	}{
		{"bearer header", "Bearer good", "", http.StatusOK},
		{"lowercase scheme", "bearer good", "", http.StatusOK},
		{"cookie", "", "good", http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"bad scheme", "Basic good", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized},
		{"header wins over cookie", "Bearer nope", "good", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "acme", w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), apperror.CodeUnauthorized)
			}
		})
	}
}

func TestErrorHandler_MapsAppErrors(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(apperror.NewInsufficientStock("item-1", 5, 2))
		c.Abort()
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeInsufficientStock)
}

func TestErrorHandler_HidesUnknownErrors(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(errors.New("pq: connection refused to 10.0.0.5"))
		c.Abort()
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	assert.Contains(t, w.Body.String(), apperror.CodeInternal)
}

func TestErrorHandler_DeadlineIsTimeout(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("print pdf: %w", context.DeadlineExceeded))
		c.Abort()
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeTimeout)
	assert.NotContains(t, w.Body.String(), "print pdf")
}

func TestRecovery(t *testing.T) {
	r := newEngine(func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestTrace_EchoesRequestID(t *testing.T) {
	r := newEngine()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
	assert.NotEmpty(t, w.Header().Get(HeaderTraceID))
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
