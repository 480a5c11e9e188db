package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
)

var statusByKind = map[domain.Kind]int{
	domain.KindNotAuthenticated:       http.StatusUnauthorized,
	domain.KindForbidden:              http.StatusForbidden,
	domain.KindNotFound:               http.StatusNotFound,
	domain.KindEmptyCart:              http.StatusBadRequest,
	domain.KindMultiChefOrder:         http.StatusBadRequest,
	domain.KindValidation:             http.StatusBadRequest,
	domain.KindInvalidStateTransition: http.StatusBadRequest,
	domain.KindConflict:               http.StatusConflict,
	domain.KindPersistence:            http.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.Kind) int {
	if s, ok := statusByKind[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

// writeDomainError renders err with its kind. Storage details stay in the
// log.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)
	msg := domain.MessageOf(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeError(w, status, string(kind), msg)
}
