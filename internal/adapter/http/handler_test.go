package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrafield/internal/adapter/memory"
	"terrafield/internal/adapter/usecase"
	"terrafield/internal/core/domain"
)

type env struct {
	srv    *httptest.Server
	store  *memory.Store
	cityID uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	h := NewHandler(
		usecase.NewTerritoryUseCase(store),
		usecase.NewCampaignUseCase(store),
		usecase.NewReminderUseCase(store),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	city := domain.City{ID: uuid.New(), Name: "Riverton", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateCity(context.Background(), city))
	return &env{srv: srv, store: store, cityID: city.ID}
}

// do issues a request with a JSON body and decodes the JSON response
// into out when out is non-nil.
func (e *env) do(t *testing.T, method, path string, body, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *env) newTerritory(t *testing.T, name string) string {
	t.Helper()
	var created territoryJSON
	code := e.do(t, http.MethodPost, "/api/v1/territories", map[string]any{
		"name":   name,
		"cityId": e.cityID.String(),
	}, &created)
	require.Equal(t, http.StatusCreated, code)
	return created.ID
}

func TestTerritoryLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)
	id := e.newTerritory(t, "Riverton 01")
	person := uuid.New().String()

	var a assignmentJSON
	code := e.do(t, http.MethodPost, "/api/v1/territories/"+id+"/assign", map[string]any{
		"personId": person,
		"dueDate":  "2030-01-01",
	}, &a)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, id, a.TerritoryID)
	assert.Equal(t, "PERSON", a.Holder.Kind)
	assert.Equal(t, person, a.Holder.ID)
	require.NotNil(t, a.DueDate)
	assert.Equal(t, "2030-01-01", *a.DueDate)
	assert.Nil(t, a.ReturnDate)

	// A second assign must conflict.
	code = e.do(t, http.MethodPost, "/api/v1/territories/"+id+"/assign", map[string]any{
		"personId": uuid.New().String(),
	}, nil)
	assert.Equal(t, http.StatusConflict, code)

	var returned assignmentJSON
	code = e.do(t, http.MethodPost, "/api/v1/territories/"+id+"/return", nil, &returned)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, returned.ReturnDate)

	var view territoryJSON
	code = e.do(t, http.MethodGet, "/api/v1/territories/"+id, nil, &view)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PENDING", view.Status)
	assert.NotEmpty(t, view.LastVisitedOn)

	code = e.do(t, http.MethodPost, "/api/v1/territories/"+id+"/reclassify", nil, &view)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "AVAILABLE", view.Status)

	var history []assignmentJSON
	code = e.do(t, http.MethodGet, "/api/v1/territories/"+id+"/history", nil, &history)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, history, 1)
}

func TestLateClassificationOverHTTP(t *testing.T) {
	e := newEnv(t)
	id := e.newTerritory(t, "Riverton 01")

	code := e.do(t, http.MethodPost, "/api/v1/territories/"+id+"/assign", map[string]any{
		"personId": uuid.New().String(),
		"dueDate":  "2024-01-01",
	}, nil)
	require.Equal(t, http.StatusCreated, code)

	// Evaluated the day after the due date the territory is late.
	var late []territoryJSON
	code = e.do(t, http.MethodGet, "/api/v1/territories?late=true&now=2024-01-02", nil, &late)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, late, 1)
	assert.Equal(t, "LATE", late[0].Status)

	// On the due date itself it is not.
	code = e.do(t, http.MethodGet, "/api/v1/territories?late=true&now=2024-01-01", nil, &late)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, late)

	// Extending past the evaluation date clears the flag.
	code = e.do(t, http.MethodPost, "/api/v1/territories/"+id+"/extend", map[string]any{
		"dueDate": "2024-02-01",
	}, nil)
	require.Equal(t, http.StatusOK, code)
	code = e.do(t, http.MethodGet, "/api/v1/territories?late=true&now=2024-01-02", nil, &late)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, late)

	code = e.do(t, http.MethodGet, "/api/v1/territories?now=bogus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestNonVisitedOverHTTP(t *testing.T) {
	e := newEnv(t)
	e.newTerritory(t, "Riverton 01")

	// A fresh territory has no visit on record.
	var nonVisited []territoryJSON
	code := e.do(t, http.MethodGet, "/api/v1/territories?nonVisited=true&now=2024-03-15", nil, &nonVisited)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, nonVisited, 1)
}

func TestCampaignFlowOverHTTP(t *testing.T) {
	e := newEnv(t)
	a := e.newTerritory(t, "A")
	b := e.newTerritory(t, "B")

	var camp campaignJSON
	code := e.do(t, http.MethodPost, "/api/v1/campaigns", map[string]any{
		"name":         "Spring drive",
		"startDate":    "2024-04-01",
		"endDate":      "2024-04-30",
		"territoryIds": []string{a, b},
	}, &camp)
	require.Equal(t, http.StatusCreated, code)
	assert.False(t, camp.Closed)
	assert.Equal(t, []string{a, b}, camp.Territories)
	assert.Equal(t, []string{a, b}, camp.RemainingTerritories)

	code = e.do(t, http.MethodPut, "/api/v1/campaigns/"+camp.ID+"/remaining", map[string]any{
		"territoryIds": []string{b},
	}, &camp)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{b}, camp.RemainingTerritories)

	code = e.do(t, http.MethodPost, "/api/v1/campaigns/"+camp.ID+"/close", nil, &camp)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, camp.Closed)

	// The used territory got a materialized campaign assignment.
	var history []assignmentJSON
	code = e.do(t, http.MethodGet, "/api/v1/territories/"+a+"/history", nil, &history)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, history, 1)
	assert.Equal(t, "CAMPAIGN", history[0].Holder.Kind)
	assert.Equal(t, camp.ID, history[0].Holder.ID)

	code = e.do(t, http.MethodPost, "/api/v1/campaigns/"+camp.ID+"/close", nil, nil)
	assert.Equal(t, http.StatusConflict, code)

	// Follow-up campaign seeded from the frozen remaining set.
	var next campaignJSON
	code = e.do(t, http.MethodPost, "/api/v1/campaigns", map[string]any{
		"name":               "Autumn drive",
		"startDate":          "2024-09-01",
		"endDate":            "2024-09-30",
		"previousCampaignId": camp.ID,
	}, &next)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, []string{b}, next.Territories)
}

func TestReminderFlowOverHTTP(t *testing.T) {
	e := newEnv(t)
	id := e.newTerritory(t, "Riverton 01")
	person := uuid.New().String()

	code := e.do(t, http.MethodPost, "/api/v1/territories/"+id+"/assign", map[string]any{
		"personId": person,
		"dueDate":  "2024-01-01",
	}, nil)
	require.Equal(t, http.StatusCreated, code)

	body := map[string]any{
		"personId":   person,
		"issuedById": uuid.New().String(),
		"note":       "two weeks overdue",
	}
	var rem reminderJSON
	code = e.do(t, http.MethodPost, "/api/v1/territories/"+id+"/reminders", body, &rem)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, person, rem.PersonID)

	code = e.do(t, http.MethodPost, "/api/v1/territories/"+id+"/reminders", body, nil)
	assert.Equal(t, http.StatusConflict, code)

	var answer map[string]bool
	path := fmt.Sprintf("/api/v1/territories/%s/reminders?personId=%s", id, person)
	code = e.do(t, http.MethodGet, path, nil, &answer)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, answer["hasReminder"])

	var listed []reminderJSON
	code = e.do(t, http.MethodGet, "/api/v1/territories/"+id+"/reminders", nil, &listed)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, listed, 1)
}

func TestErrorMapping(t *testing.T) {
	e := newEnv(t)

	code := e.do(t, http.MethodGet, "/api/v1/territories/"+uuid.New().String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code = e.do(t, http.MethodGet, "/api/v1/territories/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code = e.do(t, http.MethodPost, "/api/v1/territories", map[string]any{
		"name":   "",
		"cityId": e.cityID.String(),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code = e.do(t, http.MethodPost, "/api/v1/territories", map[string]any{
		"name":   "Nowhere 01",
		"cityId": uuid.New().String(),
	}, nil)
	assert.Equal(t, http.StatusNotFound, code)

	// Returning with nothing assigned conflicts.
	id := e.newTerritory(t, "Riverton 01")
	code = e.do(t, http.MethodPost, "/api/v1/territories/"+id+"/return", nil, nil)
	assert.Equal(t, http.StatusConflict, code)

	code = e.do(t, http.MethodDelete, "/api/v1/territories/"+id, nil, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code = e.do(t, http.MethodGet, "/api/v1/territories/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCitiesOverHTTP(t *testing.T) {
	e := newEnv(t)

	var city cityJSON
	code := e.do(t, http.MethodPost, "/api/v1/cities", map[string]any{"name": "Eastfall"}, &city)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Eastfall", city.Name)

	code = e.do(t, http.MethodPost, "/api/v1/cities", map[string]any{"name": "Eastfall"}, nil)
	assert.Equal(t, http.StatusConflict, code, "duplicate city name")

	var cities []cityJSON
	code = e.do(t, http.MethodGet, "/api/v1/cities", nil, &cities)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, cities, 2, "seeded city plus the new one")
}
