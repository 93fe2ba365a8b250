package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// errorResponse is the stable error body: a machine-readable kind plus a
// human-readable message.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", log.FieldError, err.Error())
	}
}

// writeError maps a domain error kind onto its HTTP status. Unclassified
// errors are hidden behind a generic 500 so internals never leak.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	status := statusForKind(kind)

	body := errorResponse{Error: string(kind), Message: err.Error()}
	if status == http.StatusInternalServerError {
		body = errorResponse{Error: "internal_error", Message: "internal server error"}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Unclassified handler error",
			log.FieldError, err.Error(), log.FieldPath, r.URL.Path)
	}

	writeJSON(w, status, body)
}

func statusForKind(kind core.Kind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case core.KindExtractionFailed:
		return http.StatusBadGateway
	case core.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
