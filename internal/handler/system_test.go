package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	h := NewSystemHandler(fakePinger{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest("GET", "/health", nil))

	assertStatus(t, rr, http.StatusOK)
	var body map[string]string
	decodeJSON(t, rr, &body)
	if body["status"] != "OK" || body["message"] != "Server is running" {
		t.Errorf("body = %v", body)
	}
}

func TestReady(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rr := httptest.NewRecorder()
	NewSystemHandler(fakePinger{}, logger).Ready(rr, httptest.NewRequest("GET", "/readyz", nil))
	assertStatus(t, rr, http.StatusOK)

	rr = httptest.NewRecorder()
	NewSystemHandler(fakePinger{err: errors.New("down")}, logger).Ready(rr, httptest.NewRequest("GET", "/readyz", nil))
	assertStatus(t, rr, http.StatusServiceUnavailable)
}
