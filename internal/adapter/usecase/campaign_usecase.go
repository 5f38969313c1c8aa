package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"terrafield/internal/core/domain"
	"terrafield/internal/core/port"
)

// CampaignUseCase implements port.CampaignUseCase. Closure atomicity
// lives in the store; this layer validates the date range, deduplicates
// the reserved set and seeds successor campaigns.
type CampaignUseCase struct {
	store port.CampaignStore
}

// NewCampaignUseCase creates the campaign service.
func NewCampaignUseCase(store port.CampaignStore) *CampaignUseCase {
	return &CampaignUseCase{store: store}
}

var _ port.CampaignUseCase = (*CampaignUseCase)(nil)

func (u *CampaignUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	return u.store.GetCampaign(ctx, id)
}

func (u *CampaignUseCase) List(ctx context.Context) ([]domain.Campaign, error) {
	return u.store.ListCampaigns(ctx)
}

func (u *CampaignUseCase) Create(ctx context.Context, req port.CreateCampaignReq) (*domain.Campaign, error) {
	return u.create(ctx, req, req.TerritoryIDs)
}

func (u *CampaignUseCase) CreateFromPrevious(ctx context.Context, previousID uuid.UUID, req port.CreateCampaignReq) (*domain.Campaign, error) {
	prev, err := u.store.GetCampaign(ctx, previousID)
	if err != nil {
		return nil, err
	}
	if !prev.Closed {
		return nil, fmt.Errorf("previous campaign %s is still open: %w", previousID, port.ErrInvalidState)
	}
	return u.create(ctx, req, prev.Remaining)
}

func (u *CampaignUseCase) create(ctx context.Context, req port.CreateCampaignReq, territoryIDs []uuid.UUID) (*domain.Campaign, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("campaign name is required: %w", port.ErrInvalidArgument)
	}
	start := domain.Midnight(req.StartDate)
	end := domain.Midnight(req.EndDate)
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s before start date %s: %w",
			end.Format(domain.DateLayout), start.Format(domain.DateLayout), port.ErrInvalidArgument)
	}
	ids := dedupe(territoryIDs)
	now := time.Now().UTC()
	c := domain.Campaign{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		Territories: ids,
		// Every reserved territory starts as remaining; territories with
		// no administrator decision stay in the set until close.
		Remaining: append([]uuid.UUID(nil), ids...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.store.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (u *CampaignUseCase) SetRemaining(ctx context.Context, id uuid.UUID, territoryIDs []uuid.UUID) (*domain.Campaign, error) {
	return u.store.SetRemaining(ctx, id, dedupe(territoryIDs))
}

func (u *CampaignUseCase) Close(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Campaign, error) {
	return u.store.CloseCampaign(ctx, id, now)
}

func (u *CampaignUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return u.store.DeleteCampaign(ctx, id)
}

// dedupe removes duplicate ids preserving first-seen order, keeping the
// reserved and remaining collections set-like.
func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
