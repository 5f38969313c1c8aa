package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"terrafield/internal/core/domain"
	"terrafield/internal/core/port"
)

// TerritoryUseCase implements port.TerritoryUseCase on top of a
// TerritoryStore. The store owns atomicity of each command; this layer
// validates input, derives statuses for reads and applies the
// presentation ordering.
type TerritoryUseCase struct {
	store port.TerritoryStore
}

// NewTerritoryUseCase creates the territory service.
func NewTerritoryUseCase(store port.TerritoryStore) *TerritoryUseCase {
	return &TerritoryUseCase{store: store}
}

var _ port.TerritoryUseCase = (*TerritoryUseCase)(nil)

func (u *TerritoryUseCase) Get(ctx context.Context, id uuid.UUID, now time.Time) (*port.TerritoryView, error) {
	t, active, err := u.store.SnapshotTerritory(ctx, id)
	if err != nil {
		return nil, err
	}
	cities, err := u.cityNames(ctx)
	if err != nil {
		return nil, err
	}
	return &port.TerritoryView{
		Territory: *t,
		Status:    domain.EffectiveStatus(t.Status, active, now),
		Active:    active,
		CityName:  cities[t.CityID],
	}, nil
}

func (u *TerritoryUseCase) List(ctx context.Context, now time.Time) ([]port.TerritoryView, error) {
	return u.list(ctx, now, nil)
}

func (u *TerritoryUseCase) ListLate(ctx context.Context, now time.Time) ([]port.TerritoryView, error) {
	return u.list(ctx, now, func(v port.TerritoryView) bool {
		return v.Status == domain.StatusLate
	})
}

func (u *TerritoryUseCase) ListNonVisited(ctx context.Context, now time.Time) ([]port.TerritoryView, error) {
	return u.list(ctx, now, func(v port.TerritoryView) bool {
		return domain.NonVisited(v.Territory, v.Active, now)
	})
}

// list builds classified views from one store snapshot, filters them
// when a predicate is given and orders by city name then territory
// name. The collator ignores case and diacritics; a fresh one is built
// per call because collators are not safe for concurrent use.
func (u *TerritoryUseCase) list(ctx context.Context, now time.Time, keep func(port.TerritoryView) bool) ([]port.TerritoryView, error) {
	snap, err := u.store.SnapshotTerritories(ctx)
	if err != nil {
		return nil, err
	}
	cities := make(map[uuid.UUID]string, len(snap.Cities))
	for _, c := range snap.Cities {
		cities[c.ID] = c.Name
	}
	views := make([]port.TerritoryView, 0, len(snap.Territories))
	for _, t := range snap.Territories {
		var active *domain.Assignment
		if a, ok := snap.Active[t.ID]; ok {
			a := a
			active = &a
		}
		v := port.TerritoryView{
			Territory: t,
			Status:    domain.EffectiveStatus(t.Status, active, now),
			Active:    active,
			CityName:  cities[t.CityID],
		}
		if keep == nil || keep(v) {
			views = append(views, v)
		}
	}
	c := collate.New(language.Und, collate.Loose)
	sort.SliceStable(views, func(i, j int) bool {
		if by := c.CompareString(views[i].CityName, views[j].CityName); by != 0 {
			return by < 0
		}
		return c.CompareString(views[i].Territory.Name, views[j].Territory.Name) < 0
	})
	return views, nil
}

func (u *TerritoryUseCase) cityNames(ctx context.Context) (map[uuid.UUID]string, error) {
	cities, err := u.store.ListCities(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(cities))
	for _, c := range cities {
		names[c.ID] = c.Name
	}
	return names, nil
}

func (u *TerritoryUseCase) History(ctx context.Context, territoryID uuid.UUID) ([]domain.Assignment, error) {
	return u.store.Assignments(ctx, territoryID)
}

func (u *TerritoryUseCase) Create(ctx context.Context, req port.CreateTerritoryReq) (*domain.Territory, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("territory name is required: %w", port.ErrInvalidArgument)
	}
	if req.CityID == uuid.Nil {
		return nil, fmt.Errorf("city id is required: %w", port.ErrInvalidArgument)
	}
	now := time.Now().UTC()
	t := domain.Territory{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		CityID:    req.CityID,
		Status:    domain.StatusAvailable,
		Note:      req.Note,
		Geometry:  req.Geometry,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.store.CreateTerritory(ctx, t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (u *TerritoryUseCase) Update(ctx context.Context, id uuid.UUID, upd domain.TerritoryUpdate) (*domain.Territory, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, fmt.Errorf("territory name cannot be empty: %w", port.ErrInvalidArgument)
	}
	return u.store.UpdateTerritory(ctx, id, upd)
}

func (u *TerritoryUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return u.store.DeleteTerritory(ctx, id)
}

func (u *TerritoryUseCase) Assign(ctx context.Context, req port.AssignReq, now time.Time) (*domain.Assignment, error) {
	if req.PersonID == uuid.Nil {
		return nil, fmt.Errorf("person id is required: %w", port.ErrInvalidArgument)
	}
	return u.store.AssignTerritory(ctx, req.TerritoryID, req.PersonID, req.DueDate, now)
}

func (u *TerritoryUseCase) Return(ctx context.Context, territoryID uuid.UUID, now time.Time) (*domain.Assignment, error) {
	return u.store.ReturnTerritory(ctx, territoryID, now)
}

func (u *TerritoryUseCase) Cancel(ctx context.Context, territoryID uuid.UUID, now time.Time) (*domain.Assignment, error) {
	return u.store.CancelTerritory(ctx, territoryID, now)
}

func (u *TerritoryUseCase) Extend(ctx context.Context, territoryID uuid.UUID, newDue time.Time) (*domain.Assignment, error) {
	return u.store.ExtendTerritory(ctx, territoryID, newDue)
}

func (u *TerritoryUseCase) ReclassifyPending(ctx context.Context, territoryID uuid.UUID) (*domain.Territory, error) {
	return u.store.ReclassifyPending(ctx, territoryID)
}

func (u *TerritoryUseCase) CreateCity(ctx context.Context, name string) (*domain.City, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("city name is required: %w", port.ErrInvalidArgument)
	}
	c := domain.City{ID: uuid.New(), Name: strings.TrimSpace(name), CreatedAt: time.Now().UTC()}
	if err := u.store.CreateCity(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (u *TerritoryUseCase) ListCities(ctx context.Context) ([]domain.City, error) {
	cities, err := u.store.ListCities(ctx)
	if err != nil {
		return nil, err
	}
	c := collate.New(language.Und, collate.Loose)
	sort.SliceStable(cities, func(i, j int) bool {
		return c.CompareString(cities[i].Name, cities[j].Name) < 0
	})
	return cities, nil
}
