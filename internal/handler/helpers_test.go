package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/carecycle/carecycle/internal/model"
	"github.com/carecycle/carecycle/internal/service"
	"github.com/carecycle/carecycle/internal/store"
)

func TestResponderMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		dev     bool
		status  int
		message string
	}{
		{"validation", &service.ValidationError{Field: "email", Message: "is required"}, false, 400, "email: is required"},
		{"credentials", service.ErrInvalidCredentials, false, 400, "Invalid credentials"},
		{"admin exists", fmt.Errorf("register: %w", service.ErrAdminExists), false, 400, "Admin already exists"},
		{"duplicate key", store.ErrDuplicate, false, 400, "Duplicate key"},
		{"expired", service.ErrTokenExpired, false, 401, "Please authenticate"},
		{"invalid token", service.ErrInvalidToken, false, 401, "Please authenticate"},
		{"donation missing", service.ErrDonationNotFound, false, 404, "Donation not found"},
		{"store not found", store.ErrNotFound, false, 404, "Not found"},
		{"too large", errBodyTooLarge, false, 413, "Request body too large"},
		{"internal prod", errors.New("dial tcp: refused"), false, 500, "Server error"},
		{"internal dev", errors.New("dial tcp: refused"), true, 500, "dial tcp: refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := NewResponder(slog.New(slog.NewTextHandler(io.Discard, nil)), tt.dev)
			rr := httptest.NewRecorder()
			rs.Error(rr, httptest.NewRequest("GET", "/", nil), tt.err)

			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			var resp model.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error.Code != tt.status || resp.Error.Message != tt.message {
				t.Errorf("error = %+v, want %d %q", resp.Error, tt.status, tt.message)
			}
		})
	}
}

func TestResponderValidationContext(t *testing.T) {
	rs := NewResponder(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
	rr := httptest.NewRecorder()
	rs.Error(rr, httptest.NewRequest("GET", "/", nil), &service.ValidationError{Field: "tabletName", Message: "is required"})

	var resp model.ErrorResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Error.Context["field"] != "tabletName" {
		t.Errorf("context = %v, want field=tabletName", resp.Error.Context)
	}
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		limit   int64
		wantErr error
		wantVE  bool
	}{
		{"valid", `{"name":"x"}`, 0, nil, false},
		{"unknown fields ignored", `{"name":"x","extra":1}`, 0, nil, false},
		{"empty body", ``, 0, nil, true},
		{"malformed", `{"name":`, 0, nil, true},
		{"too large", `{"name":"` + strings.Repeat("a", 100) + `"}`, 16, errBodyTooLarge, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			if tt.limit > 0 {
				r.Body = http.MaxBytesReader(rr, r.Body, tt.limit)
			}
			var p payload
			err := readJSON(r, &p)

			var ve *service.ValidationError
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.wantVE:
				if !errors.As(err, &ve) {
					t.Errorf("err = %v, want ValidationError", err)
				}
			default:
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if p.Name != "x" {
					t.Errorf("Name = %q", p.Name)
				}
			}
		})
	}
}
