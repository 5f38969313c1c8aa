// Package memory provides an in-memory implementation of the
// persistence ports behind a single mutex. It backs the unit tests and
// the STORAGE_DRIVER=memory mode used for local development.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"terrafield/internal/core/domain"
	"terrafield/internal/core/port"
)

// Store keeps all entities in maps and an append-only assignment slice
// guarded by one RWMutex. Mutating commands validate under the write
// lock before touching anything, so a failed command leaves the state
// exactly as it was. Reads hand out copies, never internal slices.
type Store struct {
	mu          sync.RWMutex
	territories map[uuid.UUID]domain.Territory
	assignments []domain.Assignment
	campaigns   map[uuid.UUID]domain.Campaign
	reminders   []domain.Reminder
	cities      map[uuid.UUID]domain.City
}

var _ port.Store = (*Store)(nil)

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		territories: map[uuid.UUID]domain.Territory{},
		campaigns:   map[uuid.UUID]domain.Campaign{},
		cities:      map[uuid.UUID]domain.City{},
	}
}

func copyTerritory(t domain.Territory) domain.Territory {
	out := t
	if t.Geometry != nil {
		out.Geometry = append([]byte(nil), t.Geometry...)
	}
	if t.ActiveAssignmentID != nil {
		id := *t.ActiveAssignmentID
		out.ActiveAssignmentID = &id
	}
	return out
}

func copyAssignment(a domain.Assignment) domain.Assignment {
	out := a
	if a.DueDate != nil {
		d := *a.DueDate
		out.DueDate = &d
	}
	if a.ReturnDate != nil {
		d := *a.ReturnDate
		out.ReturnDate = &d
	}
	return out
}

func copyCampaign(c domain.Campaign) domain.Campaign {
	out := c
	out.Territories = append([]uuid.UUID(nil), c.Territories...)
	out.Remaining = append([]uuid.UUID(nil), c.Remaining...)
	return out
}

// activeIndex returns the index of the open assignment for the
// territory, or -1. Callers hold at least the read lock.
func (s *Store) activeIndex(territoryID uuid.UUID) int {
	for i := range s.assignments {
		if s.assignments[i].TerritoryID == territoryID && s.assignments[i].Active() {
			return i
		}
	}
	return -1
}

func (s *Store) SnapshotTerritory(_ context.Context, id uuid.UUID) (*domain.Territory, *domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.territories[id]
	if !ok {
		return nil, nil, fmt.Errorf("territory %s: %w", id, port.ErrNotFound)
	}
	out := copyTerritory(t)
	var active *domain.Assignment
	if i := s.activeIndex(id); i >= 0 {
		a := copyAssignment(s.assignments[i])
		active = &a
	}
	return &out, active, nil
}

func (s *Store) SnapshotTerritories(_ context.Context) (*port.TerritorySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := port.TerritorySnapshot{
		Territories: make([]domain.Territory, 0, len(s.territories)),
		Active:      map[uuid.UUID]domain.Assignment{},
		Cities:      make([]domain.City, 0, len(s.cities)),
	}
	for _, t := range s.territories {
		snap.Territories = append(snap.Territories, copyTerritory(t))
	}
	for i := range s.assignments {
		if s.assignments[i].Active() {
			snap.Active[s.assignments[i].TerritoryID] = copyAssignment(s.assignments[i])
		}
	}
	for _, c := range s.cities {
		snap.Cities = append(snap.Cities, c)
	}
	return &snap, nil
}

func (s *Store) CreateTerritory(_ context.Context, t domain.Territory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cities[t.CityID]; !ok {
		return fmt.Errorf("city %s: %w", t.CityID, port.ErrNotFound)
	}
	s.territories[t.ID] = copyTerritory(t)
	return nil
}

func (s *Store) UpdateTerritory(_ context.Context, id uuid.UUID, upd domain.TerritoryUpdate) (*domain.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.territories[id]
	if !ok {
		return nil, fmt.Errorf("territory %s: %w", id, port.ErrNotFound)
	}
	if upd.Name != nil {
		t.Name = *upd.Name
	}
	if upd.CityID != nil {
		if _, ok := s.cities[*upd.CityID]; !ok {
			return nil, fmt.Errorf("city %s: %w", *upd.CityID, port.ErrNotFound)
		}
		t.CityID = *upd.CityID
	}
	if upd.Note != nil {
		t.Note = *upd.Note
	}
	if upd.Geometry != nil {
		t.Geometry = append([]byte(nil), upd.Geometry...)
	}
	t.UpdatedAt = time.Now().UTC()
	s.territories[id] = t
	out := copyTerritory(t)
	return &out, nil
}

func (s *Store) DeleteTerritory(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.territories[id]; !ok {
		return fmt.Errorf("territory %s: %w", id, port.ErrNotFound)
	}
	if s.activeIndex(id) >= 0 {
		return fmt.Errorf("territory %s is held: %w", id, port.ErrConflict)
	}
	delete(s.territories, id)
	kept := s.assignments[:0]
	for _, a := range s.assignments {
		if a.TerritoryID != id {
			kept = append(kept, a)
		}
	}
	s.assignments = kept
	keptRem := s.reminders[:0]
	for _, r := range s.reminders {
		if r.TerritoryID != id {
			keptRem = append(keptRem, r)
		}
	}
	s.reminders = keptRem
	return nil
}

func (s *Store) Assignments(_ context.Context, territoryID uuid.UUID) ([]domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.territories[territoryID]; !ok {
		return nil, fmt.Errorf("territory %s: %w", territoryID, port.ErrNotFound)
	}
	var out []domain.Assignment
	// The slice is in insertion order; walk it backwards, then order by
	// assignment date descending with the backward walk as tie-break.
	for i := len(s.assignments) - 1; i >= 0; i-- {
		if s.assignments[i].TerritoryID == territoryID {
			out = append(out, copyAssignment(s.assignments[i]))
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].AssignmentDate.After(out[j-1].AssignmentDate); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (s *Store) AssignTerritory(_ context.Context, territoryID, personID uuid.UUID, dueDate *time.Time, today time.Time) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.territories[territoryID]
	if !ok {
		return nil, fmt.Errorf("territory %s: %w", territoryID, port.ErrNotFound)
	}
	if s.activeIndex(territoryID) >= 0 {
		return nil, fmt.Errorf("territory %s already assigned: %w", territoryID, port.ErrConflict)
	}
	if !t.Status.CanAssign() {
		return nil, fmt.Errorf("assign from %s: %w", t.Status, port.ErrInvalidTransition)
	}
	a := domain.Assignment{
		ID:             uuid.New(),
		TerritoryID:    territoryID,
		Holder:         domain.PersonHolder(personID),
		AssignmentDate: domain.Midnight(today),
		CreatedAt:      time.Now().UTC(),
	}
	if dueDate != nil {
		d := domain.Midnight(*dueDate)
		a.DueDate = &d
	}
	s.assignments = append(s.assignments, a)
	t.Status = domain.StatusAssigned
	t.ActiveAssignmentID = &a.ID
	t.UpdatedAt = a.CreatedAt
	s.territories[territoryID] = t
	out := copyAssignment(a)
	return &out, nil
}

// closeActive closes the open assignment and moves the territory to the
// given status; visited controls the last-visit stamp.
func (s *Store) closeActive(territoryID uuid.UUID, today time.Time, next domain.Status, visited bool) (*domain.Assignment, error) {
	t, ok := s.territories[territoryID]
	if !ok {
		return nil, fmt.Errorf("territory %s: %w", territoryID, port.ErrNotFound)
	}
	i := s.activeIndex(territoryID)
	if i < 0 {
		return nil, fmt.Errorf("territory %s: %w", territoryID, port.ErrNoActiveAssignment)
	}
	ret := domain.Midnight(today)
	s.assignments[i].ReturnDate = &ret
	t.Status = next
	t.ActiveAssignmentID = nil
	if visited {
		t.LastVisitedOn = ret.Format(domain.DateLayout)
	}
	t.UpdatedAt = time.Now().UTC()
	s.territories[territoryID] = t
	out := copyAssignment(s.assignments[i])
	return &out, nil
}

func (s *Store) ReturnTerritory(_ context.Context, territoryID uuid.UUID, today time.Time) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeActive(territoryID, today, domain.StatusPending, true)
}

func (s *Store) CancelTerritory(_ context.Context, territoryID uuid.UUID, today time.Time) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeActive(territoryID, today, domain.StatusAvailable, false)
}

func (s *Store) ExtendTerritory(_ context.Context, territoryID uuid.UUID, newDue time.Time) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.territories[territoryID]; !ok {
		return nil, fmt.Errorf("territory %s: %w", territoryID, port.ErrNotFound)
	}
	i := s.activeIndex(territoryID)
	if i < 0 {
		return nil, fmt.Errorf("territory %s: %w", territoryID, port.ErrNoActiveAssignment)
	}
	d := domain.Midnight(newDue)
	s.assignments[i].DueDate = &d
	out := copyAssignment(s.assignments[i])
	return &out, nil
}

func (s *Store) ReclassifyPending(_ context.Context, territoryID uuid.UUID) (*domain.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.territories[territoryID]
	if !ok {
		return nil, fmt.Errorf("territory %s: %w", territoryID, port.ErrNotFound)
	}
	if t.Status != domain.StatusPending {
		return nil, fmt.Errorf("reclassify from %s: %w", t.Status, port.ErrInvalidTransition)
	}
	t.Status = domain.StatusAvailable
	t.UpdatedAt = time.Now().UTC()
	s.territories[territoryID] = t
	out := copyTerritory(t)
	return &out, nil
}

func (s *Store) CreateCity(_ context.Context, c domain.City) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, have := range s.cities {
		if have.Name == c.Name {
			return fmt.Errorf("city %q: %w", c.Name, port.ErrConflict)
		}
	}
	s.cities[c.ID] = c
	return nil
}

func (s *Store) ListCities(_ context.Context) ([]domain.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.City, 0, len(s.cities))
	for _, c := range s.cities {
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) GetCampaign(_ context.Context, id uuid.UUID) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign %s: %w", id, port.ErrNotFound)
	}
	out := copyCampaign(c)
	return &out, nil
}

func (s *Store) ListCampaigns(_ context.Context) ([]domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		out = append(out, copyCampaign(c))
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].StartDate.After(out[j-1].StartDate); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (s *Store) CreateCampaign(_ context.Context, c domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range c.Territories {
		if _, ok := s.territories[id]; !ok {
			return fmt.Errorf("territory %s: %w", id, port.ErrNotFound)
		}
	}
	s.campaigns[c.ID] = copyCampaign(c)
	return nil
}

func (s *Store) SetRemaining(_ context.Context, id uuid.UUID, territoryIDs []uuid.UUID) (*domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign %s: %w", id, port.ErrNotFound)
	}
	if c.Closed {
		return nil, fmt.Errorf("campaign %s is closed: %w", id, port.ErrInvalidState)
	}
	for _, tid := range territoryIDs {
		if !c.Contains(tid) {
			return nil, fmt.Errorf("territory %s not in campaign: %w", tid, port.ErrInvalidArgument)
		}
	}
	c.Remaining = append([]uuid.UUID(nil), territoryIDs...)
	c.UpdatedAt = time.Now().UTC()
	s.campaigns[id] = c
	out := copyCampaign(c)
	return &out, nil
}

func (s *Store) CloseCampaign(_ context.Context, id uuid.UUID, today time.Time) (*domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign %s: %w", id, port.ErrNotFound)
	}
	if c.Closed {
		return nil, fmt.Errorf("campaign %s already closed: %w", id, port.ErrInvalidState)
	}
	used := c.Used()
	// Validate the whole used set before writing anything: a used
	// territory may have been deleted since the campaign copied its id,
	// and a mid-loop failure must not leave a half-materialized close.
	for _, tid := range used {
		if _, ok := s.territories[tid]; !ok {
			return nil, fmt.Errorf("territory %s: %w", tid, port.ErrNotFound)
		}
	}
	date := domain.Midnight(today)
	now := time.Now().UTC()
	for _, tid := range used {
		t := s.territories[tid]
		ret := date
		s.assignments = append(s.assignments, domain.Assignment{
			ID:             uuid.New(),
			TerritoryID:    tid,
			Holder:         domain.CampaignHolder(id),
			AssignmentDate: date,
			ReturnDate:     &ret,
			CreatedAt:      now,
		})
		t.LastVisitedOn = date.Format(domain.DateLayout)
		t.UpdatedAt = now
		s.territories[tid] = t
	}
	c.Closed = true
	c.UpdatedAt = now
	s.campaigns[id] = c
	out := copyCampaign(c)
	return &out, nil
}

func (s *Store) DeleteCampaign(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[id]; !ok {
		return fmt.Errorf("campaign %s: %w", id, port.ErrNotFound)
	}
	delete(s.campaigns, id)
	return nil
}

func (s *Store) HasReminder(_ context.Context, territoryID, personID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reminders {
		if r.TerritoryID == territoryID && r.PersonID == personID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateReminder(_ context.Context, r domain.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.territories[r.TerritoryID]; !ok {
		return fmt.Errorf("territory %s: %w", r.TerritoryID, port.ErrNotFound)
	}
	for _, have := range s.reminders {
		if have.TerritoryID == r.TerritoryID && have.PersonID == r.PersonID {
			return fmt.Errorf("territory %s person %s: %w", r.TerritoryID, r.PersonID, port.ErrAlreadyReminded)
		}
	}
	s.reminders = append(s.reminders, r)
	return nil
}

func (s *Store) RemindersForTerritory(_ context.Context, territoryID uuid.UUID) ([]domain.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.territories[territoryID]; !ok {
		return nil, fmt.Errorf("territory %s: %w", territoryID, port.ErrNotFound)
	}
	var out []domain.Reminder
	for i := len(s.reminders) - 1; i >= 0; i-- {
		if s.reminders[i].TerritoryID == territoryID {
			out = append(out, s.reminders[i])
		}
	}
	return out, nil
}
