package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.POST("/echo", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/echo", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func serve(r http.Handler, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/echo", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Unix(0, 0)
	rl := NewRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }
	rl.lastTime = now

	if !rl.Allow() || !rl.Allow() {
		t.Fatal("bucket should start full")
	}
	if rl.Allow() {
		t.Fatal("third request should be limited")
	}

	now = now.Add(500 * time.Millisecond)
	if !rl.Allow() {
		t.Error("half a window should refill one token")
	}
	if rl.Allow() {
		t.Error("bucket should be empty again")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newEngine(RateLimit(1, time.Hour))

	if w := serve(r, http.MethodGet, ""); w.Code != http.StatusOK {
		t.Fatalf("first: %d", w.Code)
	}
	w := serve(r, http.MethodGet, "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second: %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "3600" {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
}

func TestDeduplication(t *testing.T) {
	r := newEngine(Deduplication(time.Hour))

	if w := serve(r, http.MethodPost, `{"a":1}`); w.Code != http.StatusOK {
		t.Fatalf("first: %d", w.Code)
	}
	if w := serve(r, http.MethodPost, `{"a":1}`); w.Code != http.StatusTooManyRequests {
		t.Errorf("duplicate: %d", w.Code)
	}
	if w := serve(r, http.MethodPost, `{"a":2}`); w.Code != http.StatusOK {
		t.Errorf("different body: %d", w.Code)
	}
	if w := serve(r, http.MethodGet, ""); w.Code != http.StatusOK {
		t.Errorf("GET: %d", w.Code)
	}
	if w := serve(r, http.MethodGet, ""); w.Code != http.StatusOK {
		t.Errorf("repeated GET: %d", w.Code)
	}
}

func TestDeduplicationDisabled(t *testing.T) {
	r := newEngine(Deduplication(0))
	for i := 0; i < 3; i++ {
		if w := serve(r, http.MethodPost, "same"); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(BodySizeLimit(4))

	if w := serve(r, http.MethodPost, "abc"); w.Code != http.StatusOK {
		t.Errorf("small body: %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "abcdefgh"); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("large body: %d", w.Code)
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), Logger())
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status %d", w.Code)
	}
}

func TestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Timeout(20 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); !ok {
			t.Error("request context has no deadline")
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("slow: %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fast", nil).WithContext(context.Background()))
	if w.Code != http.StatusNoContent {
		t.Errorf("fast: %d", w.Code)
	}
}
