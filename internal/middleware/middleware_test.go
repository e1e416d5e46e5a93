package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"productvision/internal/logger"
)

func TestLimitBody_DeclaredLength(t *testing.T) {
	called := false
	h := LimitBody(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("POST", "/detect", strings.NewReader(strings.Repeat("x", 11)))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", rr.Code)
	}
	if called {
		t.Error("Handler should not run for oversized body")
	}
	if !strings.Contains(rr.Body.String(), `"error"`) {
		t.Errorf("Expected JSON error body, got %s", rr.Body.String())
	}
}

func TestLimitBody_StreamedOverrun(t *testing.T) {
	var readErr error
	h := LimitBody(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	req := httptest.NewRequest("POST", "/detect", io.NopCloser(bytes.NewReader(make([]byte, 64))))
	req.ContentLength = -1
	h.ServeHTTP(httptest.NewRecorder(), req)

	var maxBytes *http.MaxBytesError
	if !errors.As(readErr, &maxBytes) {
		t.Errorf("Expected *http.MaxBytesError, got %v", readErr)
	}
}

func TestLimitBody_WithinLimit(t *testing.T) {
	h := LimitBody(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil || string(data) != "small" {
			t.Errorf("Unexpected body %q, err %v", data, err)
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/detect", strings.NewReader("small")))
}

func TestRecover(t *testing.T) {
	h := Recover(logger.NewDiscard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %s", ct)
	}
}

func TestLogging(t *testing.T) {
	var info bytes.Buffer
	log := logger.New(&info, io.Discard, io.Discard, io.Discard)

	h := Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/model/info", nil))

	if !strings.Contains(info.String(), "GET /model/info 418") {
		t.Errorf("Expected request log line, got %q", info.String())
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("Unexpected order %v", order)
	}
}
