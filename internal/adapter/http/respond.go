package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"terrafield/internal/core/domain"
	"terrafield/internal/core/port"
)

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

// writeError maps core sentinel errors onto status codes. Unknown
// errors are logged and hidden behind a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, port.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, port.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, port.ErrInvalidTransition),
		errors.Is(err, port.ErrNoActiveAssignment),
		errors.Is(err, port.ErrConflict),
		errors.Is(err, port.ErrInvalidState),
		errors.Is(err, port.ErrAlreadyReminded):
		status = http.StatusConflict
	default:
		h.logger.Error("internal error", slog.Any("error", err))
		h.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	h.writeJSON(w, status, errorBody{Error: err.Error()})
}

// idParam parses the {id} path parameter as a uuid.
func idParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id: %w", port.ErrInvalidArgument)
	}
	return id, nil
}

// nowParam returns the evaluation time for read endpoints. The optional
// `now` query parameter (ISO calendar date) lets the verification sweep
// re-evaluate classifications for another date.
func nowParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("now")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	now, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid 'now' date: %w", port.ErrInvalidArgument)
	}
	return now, nil
}

// parseDate parses an ISO calendar date from a request body field.
func parseDate(field, raw string) (time.Time, error) {
	d, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q: %w", field, raw, port.ErrInvalidArgument)
	}
	return d, nil
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(domain.DateLayout)
	return &s
}
