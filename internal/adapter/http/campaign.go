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

type campaignJSON struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description,omitempty"`
	StartDate            string   `json:"startDate"`
	EndDate              string   `json:"endDate"`
	Closed               bool     `json:"closed"`
	Territories          []string `json:"territories"`
	RemainingTerritories []string `json:"remainingTerritories"`
}

func campaignToJSON(c domain.Campaign) campaignJSON {
	ids := func(in []uuid.UUID) []string {
		out := make([]string, 0, len(in))
		for _, id := range in {
			out = append(out, id.String())
		}
		return out
	}
	return campaignJSON{
		ID:                   c.ID.String(),
		Name:                 c.Name,
		Description:          c.Description,
		StartDate:            formatDate(c.StartDate),
		EndDate:              formatDate(c.EndDate),
		Closed:               c.Closed,
		Territories:          ids(c.Territories),
		RemainingTerritories: ids(c.Remaining),
	}
}

func (h *Handler) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaigns.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]campaignJSON, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, campaignToJSON(c))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	c, err := h.campaigns.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, campaignToJSON(*c))
}

type createCampaignReq struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	TerritoryIDs []string `json:"territoryIds"`
	// PreviousCampaignID seeds the territory set from a closed
	// campaign's remaining territories; territoryIds is ignored then.
	PreviousCampaignID *string `json:"previousCampaignId"`
}

func (h *Handler) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("invalid JSON: %w", port.ErrInvalidArgument))
		return
	}
	start, err := parseDate("start", req.StartDate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	end, err := parseDate("end", req.EndDate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	cmd := port.CreateCampaignReq{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
	}

	var c *domain.Campaign
	if req.PreviousCampaignID != nil {
		prevID, err := uuid.Parse(*req.PreviousCampaignID)
		if err != nil {
			h.writeError(w, fmt.Errorf("invalid previousCampaignId: %w", port.ErrInvalidArgument))
			return
		}
		c, err = h.campaigns.CreateFromPrevious(r.Context(), prevID, cmd)
		if err != nil {
			h.writeError(w, err)
			return
		}
	} else {
		cmd.TerritoryIDs, err = parseIDs(req.TerritoryIDs)
		if err != nil {
			h.writeError(w, err)
			return
		}
		c, err = h.campaigns.Create(r.Context(), cmd)
		if err != nil {
			h.writeError(w, err)
			return
		}
	}
	h.writeJSON(w, http.StatusCreated, campaignToJSON(*c))
}

type remainingReq struct {
	TerritoryIDs []string `json:"territoryIds"`
}

func (h *Handler) handleSetRemaining(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req remainingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("invalid JSON: %w", port.ErrInvalidArgument))
		return
	}
	ids, err := parseIDs(req.TerritoryIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	c, err := h.campaigns.SetRemaining(r.Context(), id, ids)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, campaignToJSON(*c))
}

func (h *Handler) handleCloseCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	c, err := h.campaigns.Close(r.Context(), id, time.Now().UTC())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, campaignToJSON(*c))
}

func (h *Handler) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.campaigns.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid territory id %q: %w", s, port.ErrInvalidArgument)
		}
		out = append(out, id)
	}
	return out, nil
}
