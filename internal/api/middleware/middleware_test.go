package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})
	return r
}

func get(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID())

	w := get(r, nil)
	require.Equal(t, http.StatusOK, w.Code)
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	given := uuid.NewString()
	w = get(r, map[string]string{RequestIDHeader: given})
	assert.Equal(t, given, w.Header().Get(RequestIDHeader))

	w = get(r, map[string]string{RequestIDHeader: "<script>"})
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	r := newRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))

	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	w := get(r, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())

	// Another client has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGlobalRateLimit(t *testing.T) {
	r := newRouter(GlobalRateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))

	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, nil).Code)
}

func TestCORS(t *testing.T) {
	r := newRouter(CORS(DefaultCORSConfig()))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://docs.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(r, map[string]string{"Origin": "https://docs.example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	exposed := strings.ToLower(w.Header().Get("Access-Control-Expose-Headers"))
	assert.Contains(t, exposed, strings.ToLower(RequestIDHeader))
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/echo", func(c *gin.Context) {
		data, err := c.GetRawData()
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		c.String(http.StatusOK, string(data))
	})

	post := func(body string, chunked bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
		if chunked {
			req.ContentLength = -1
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("small", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "small", w.Body.String())

	w = post("far too large", false)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "exceeds maximum 8 bytes")

	w = post("far too large", true)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
