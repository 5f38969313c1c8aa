package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"terrafield/internal/core/domain"
	"terrafield/internal/core/port"
)

type territoryJSON struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	CityID        string          `json:"cityId"`
	CityName      string          `json:"cityName,omitempty"`
	Status        string          `json:"status"`
	LastVisitedOn string          `json:"lastVisitedOn,omitempty"`
	Note          string          `json:"note,omitempty"`
	Geometry      json.RawMessage `json:"geometry,omitempty"`
	Assignment    *assignmentJSON `json:"assignment,omitempty"`
}

type holderJSON struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type assignmentJSON struct {
	ID             string     `json:"id"`
	TerritoryID    string     `json:"territoryId"`
	Holder         holderJSON `json:"holder"`
	AssignmentDate string     `json:"assignmentDate"`
	DueDate        *string    `json:"dueDate"`
	ReturnDate     *string    `json:"returnDate"`
}

func viewToJSON(v port.TerritoryView) territoryJSON {
	out := territoryJSON{
		ID:            v.Territory.ID.String(),
		Name:          v.Territory.Name,
		CityID:        v.Territory.CityID.String(),
		CityName:      v.CityName,
		Status:        string(v.Status),
		LastVisitedOn: v.Territory.LastVisitedOn,
		Note:          v.Territory.Note,
		Geometry:      v.Territory.Geometry,
	}
	if v.Active != nil {
		a := assignmentToJSON(*v.Active)
		out.Assignment = &a
	}
	return out
}

func assignmentToJSON(a domain.Assignment) assignmentJSON {
	return assignmentJSON{
		ID:             a.ID.String(),
		TerritoryID:    a.TerritoryID.String(),
		Holder:         holderJSON{Kind: string(a.Holder.Kind), ID: a.Holder.ID.String()},
		AssignmentDate: formatDate(a.AssignmentDate),
		DueDate:        formatDatePtr(a.DueDate),
		ReturnDate:     formatDatePtr(a.ReturnDate),
	}
}

// handleListTerritories lists territories ordered by city then name.
// ?late=true narrows to territories whose derived status is LATE and
// ?nonVisited=true to territories not visited since the reference date.
func (h *Handler) handleListTerritories(w http.ResponseWriter, r *http.Request) {
	now, err := nowParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var views []port.TerritoryView
	switch {
	case r.URL.Query().Get("late") == "true":
		views, err = h.territories.ListLate(r.Context(), now)
	case r.URL.Query().Get("nonVisited") == "true":
		views, err = h.territories.ListNonVisited(r.Context(), now)
	default:
		views, err = h.territories.List(r.Context(), now)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]territoryJSON, 0, len(views))
	for _, v := range views {
		out = append(out, viewToJSON(v))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetTerritory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	now, err := nowParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	view, err := h.territories.Get(r.Context(), id, now)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, viewToJSON(*view))
}

type createTerritoryReq struct {
	Name     string          `json:"name"`
	CityID   string          `json:"cityId"`
	Note     string          `json:"note"`
	Geometry json.RawMessage `json:"geometry"`
}

func (h *Handler) handleCreateTerritory(w http.ResponseWriter, r *http.Request) {
	var req createTerritoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("invalid JSON: %w", port.ErrInvalidArgument))
		return
	}
	cityID, err := uuid.Parse(req.CityID)
	if err != nil {
		h.writeError(w, fmt.Errorf("invalid cityId: %w", port.ErrInvalidArgument))
		return
	}
	t, err := h.territories.Create(r.Context(), port.CreateTerritoryReq{
		Name:     req.Name,
		CityID:   cityID,
		Note:     req.Note,
		Geometry: req.Geometry,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, viewToJSON(port.TerritoryView{Territory: *t, Status: t.Status}))
}

type updateTerritoryReq struct {
	Name     *string         `json:"name"`
	CityID   *string         `json:"cityId"`
	Note     *string         `json:"note"`
	Geometry json.RawMessage `json:"geometry"`
}

func (h *Handler) handleUpdateTerritory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req updateTerritoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("invalid JSON: %w", port.ErrInvalidArgument))
		return
	}
	upd := domain.TerritoryUpdate{Name: req.Name, Note: req.Note, Geometry: req.Geometry}
	if req.CityID != nil {
		cityID, err := uuid.Parse(*req.CityID)
		if err != nil {
			h.writeError(w, fmt.Errorf("invalid cityId: %w", port.ErrInvalidArgument))
			return
		}
		upd.CityID = &cityID
	}
	t, err := h.territories.Update(r.Context(), id, upd)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, viewToJSON(port.TerritoryView{Territory: *t, Status: t.Status}))
}

func (h *Handler) handleDeleteTerritory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.territories.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignReq struct {
	PersonID string  `json:"personId"`
	DueDate  *string `json:"dueDate"`
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req assignReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("invalid JSON: %w", port.ErrInvalidArgument))
		return
	}
	personID, err := uuid.Parse(req.PersonID)
	if err != nil {
		h.writeError(w, fmt.Errorf("invalid personId: %w", port.ErrInvalidArgument))
		return
	}
	cmd := port.AssignReq{TerritoryID: id, PersonID: personID}
	if req.DueDate != nil {
		due, err := parseDate("due", *req.DueDate)
		if err != nil {
			h.writeError(w, err)
			return
		}
		cmd.DueDate = &due
	}
	a, err := h.territories.Assign(r.Context(), cmd, time.Now().UTC())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, assignmentToJSON(*a))
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	h.closeAssignment(w, r, h.territories.Return)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.closeAssignment(w, r, h.territories.Cancel)
}

func (h *Handler) closeAssignment(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Assignment, error)) {
	id, err := idParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	a, err := op(r.Context(), id, time.Now().UTC())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, assignmentToJSON(*a))
}

type extendReq struct {
	DueDate string `json:"dueDate"`
}

func (h *Handler) handleExtend(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req extendReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("invalid JSON: %w", port.ErrInvalidArgument))
		return
	}
	due, err := parseDate("due", req.DueDate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	a, err := h.territories.Extend(r.Context(), id, due)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, assignmentToJSON(*a))
}

func (h *Handler) handleReclassify(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	t, err := h.territories.ReclassifyPending(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, viewToJSON(port.TerritoryView{Territory: *t, Status: t.Status}))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	history, err := h.territories.History(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]assignmentJSON, 0, len(history))
	for _, a := range history {
		out = append(out, assignmentToJSON(a))
	}
	h.writeJSON(w, http.StatusOK, out)
}

type cityJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type createCityReq struct {
	Name string `json:"name"`
}

func (h *Handler) handleListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.territories.ListCities(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]cityJSON, 0, len(cities))
	for _, c := range cities {
		out = append(out, cityJSON{ID: c.ID.String(), Name: c.Name})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateCity(w http.ResponseWriter, r *http.Request) {
	var req createCityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("invalid JSON: %w", port.ErrInvalidArgument))
		return
	}
	c, err := h.territories.CreateCity(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, cityJSON{ID: c.ID.String(), Name: c.Name})
}
