package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func setupEcho(limit int) *echo.Echo {
	e := echo.New()
	e.Use(RateLimiter(limit, time.Minute, ReadOnly))

	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/timers", ok)
	e.POST("/tasks", ok)
	return e
}

func serve(e *echo.Echo, method, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	e := setupEcho(2)

	for i := 0; i < 2; i++ {
		if rec := serve(e, http.MethodPost, "/tasks", "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	rec := serve(e, http.MethodPost, "/tasks", "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	e := setupEcho(1)

	serve(e, http.MethodPost, "/tasks", "10.0.0.1")
	if rec := serve(e, http.MethodPost, "/tasks", "10.0.0.2"); rec.Code != http.StatusOK {
		t.Errorf("expected other client to pass, got %d", rec.Code)
	}
}

func TestRateLimiter_SkipsReads(t *testing.T) {
	e := setupEcho(1)

	for i := 0; i < 5; i++ {
		if rec := serve(e, http.MethodGet, "/timers", "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("poll %d: expected 200, got %d", i, rec.Code)
		}
	}
	if rec := serve(e, http.MethodPost, "/tasks", "10.0.0.1"); rec.Code != http.StatusOK {
		t.Errorf("expected first write to pass, got %d", rec.Code)
	}
}
