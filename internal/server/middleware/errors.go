package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/carecycle/carecycle/internal/model"
)

// writeJSONError writes the standard error envelope. The handler package has
// its own writer; this one keeps middleware free of that dependency.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{Code: status, Message: message},
	})
}
