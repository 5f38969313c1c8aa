package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"terrafield/internal/core/domain"
	"terrafield/internal/core/port"
)

type reminderJSON struct {
	ID          string `json:"id"`
	TerritoryID string `json:"territoryId"`
	PersonID    string `json:"personId"`
	IssuedByID  string `json:"issuedById"`
	Note        string `json:"note,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

func reminderToJSON(r domain.Reminder) reminderJSON {
	return reminderJSON{
		ID:          r.ID.String(),
		TerritoryID: r.TerritoryID.String(),
		PersonID:    r.PersonID.String(),
		IssuedByID:  r.IssuedByID.String(),
		Note:        r.Note,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}

// handleListReminders lists a territory's reminders. With a personId
// query parameter it instead answers the open-reminder question for
// that (territory, person) pair.
func (h *Handler) handleListReminders(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if raw := r.URL.Query().Get("personId"); raw != "" {
		personID, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, fmt.Errorf("invalid personId: %w", port.ErrInvalidArgument))
			return
		}
		has, err := h.reminders.HasOpenReminder(r.Context(), id, personID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]bool{"hasReminder": has})
		return
	}
	reminders, err := h.reminders.ListForTerritory(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]reminderJSON, 0, len(reminders))
	for _, rem := range reminders {
		out = append(out, reminderToJSON(rem))
	}
	h.writeJSON(w, http.StatusOK, out)
}

type createReminderReq struct {
	PersonID   string `json:"personId"`
	IssuedByID string `json:"issuedById"`
	Note       string `json:"note"`
}

func (h *Handler) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req createReminderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("invalid JSON: %w", port.ErrInvalidArgument))
		return
	}
	personID, err := uuid.Parse(req.PersonID)
	if err != nil {
		h.writeError(w, fmt.Errorf("invalid personId: %w", port.ErrInvalidArgument))
		return
	}
	issuedByID, err := uuid.Parse(req.IssuedByID)
	if err != nil {
		h.writeError(w, fmt.Errorf("invalid issuedById: %w", port.ErrInvalidArgument))
		return
	}
	rem, err := h.reminders.Create(r.Context(), port.CreateReminderReq{
		TerritoryID: id,
		PersonID:    personID,
		IssuedByID:  issuedByID,
		Note:        req.Note,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, reminderToJSON(*rem))
}
