package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/carecycle/carecycle/internal/model"
	"github.com/carecycle/carecycle/internal/server/middleware"
	"github.com/carecycle/carecycle/internal/service"
	"github.com/carecycle/carecycle/internal/store"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope. The optional ctx map provides additional context fields.
func writeError(w http.ResponseWriter, code int, message string, ctx ...map[string]interface{}) {
	var ctxMap map[string]interface{}
	if len(ctx) > 0 {
		ctxMap = ctx[0]
	}
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
			Context: ctxMap,
		},
	})
}

// errBodyTooLarge is returned by readJSON when the body exceeds the limit set
// by the server's RequestSize middleware.
var errBodyTooLarge = errors.New("request body too large")

// readJSON decodes the request body as JSON into v. Unknown fields are
// ignored. The body is closed after decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errBodyTooLarge
		case errors.Is(err, io.EOF):
			return &service.ValidationError{Message: "Request body is required"}
		default:
			return &service.ValidationError{Message: fmt.Sprintf("Invalid request body: %v", err)}
		}
	}
	return nil
}

// Responder turns service and store errors into HTTP responses. Internal
// error details are only shown to clients in development.
type Responder struct {
	logger *slog.Logger
	dev    bool
}

// NewResponder creates a Responder. With dev set, 500 responses carry the
// underlying error message.
func NewResponder(logger *slog.Logger, dev bool) *Responder {
	return &Responder{logger: logger, dev: dev}
}

// Error maps err onto the error taxonomy and writes the response:
// validation and credential problems are 400, token problems 401, missing
// records 404 and everything else 500.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		var ctx []map[string]interface{}
		if ve.Field != "" {
			ctx = append(ctx, map[string]interface{}{"field": ve.Field})
		}
		writeError(w, http.StatusBadRequest, ve.Error(), ctx...)
	case errors.Is(err, errBodyTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, service.ErrAdminExists):
		writeError(w, http.StatusBadRequest, "Admin already exists")
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusBadRequest, "Duplicate key")
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, middleware.MsgPleaseAuthenticate)
	case errors.Is(err, service.ErrDonationNotFound):
		writeError(w, http.StatusNotFound, "Donation not found")
	case errors.Is(err, service.ErrAdminNotFound), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	default:
		rs.logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		message := "Server error"
		if rs.dev {
			message = err.Error()
		}
		writeError(w, http.StatusInternalServerError, message)
	}
}
