package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrafield/internal/core/domain"
	"terrafield/internal/core/port"
)

func campaignReq(ids []uuid.UUID) port.CreateCampaignReq {
	return port.CreateCampaignReq{
		Name:         "Spring drive",
		Description:  "city-wide spring push",
		StartDate:    date(2024, time.April, 1),
		EndDate:      date(2024, time.April, 30),
		TerritoryIDs: ids,
	}
}

// ledgerLen counts all assignment records across the given territories.
func (f *fixture) ledgerLen(t *testing.T, ids ...uuid.UUID) int {
	t.Helper()
	total := 0
	for _, id := range ids {
		history, err := f.store.Assignments(context.Background(), id)
		require.NoError(t, err)
		total += len(history)
	}
	return total
}

func TestCreateCampaign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := []uuid.UUID{f.newTerritory(t, "A"), f.newTerritory(t, "B")}

	c, err := f.campaigns.Create(ctx, campaignReq(ids))
	require.NoError(t, err)
	assert.False(t, c.Closed)
	assert.Equal(t, ids, c.Territories)
	assert.Equal(t, ids, c.Remaining, "remaining starts as the full set")

	got, err := f.campaigns.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Territories, got.Territories)
}

func TestCreateCampaignInvalidRange(t *testing.T) {
	f := newFixture(t)
	req := campaignReq(nil)
	req.StartDate = date(2024, time.May, 1)
	req.EndDate = date(2024, time.April, 1)

	_, err := f.campaigns.Create(context.Background(), req)
	require.ErrorIs(t, err, port.ErrInvalidArgument)
}

func TestCreateCampaignUnknownTerritory(t *testing.T) {
	f := newFixture(t)
	_, err := f.campaigns.Create(context.Background(), campaignReq([]uuid.UUID{uuid.New()}))
	require.ErrorIs(t, err, port.ErrNotFound)
}

func TestSetRemaining(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.newTerritory(t, "A"), f.newTerritory(t, "B")

	c, err := f.campaigns.Create(ctx, campaignReq([]uuid.UUID{a, b}))
	require.NoError(t, err)

	got, err := f.campaigns.SetRemaining(ctx, c.ID, []uuid.UUID{b})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b}, got.Remaining)
	assert.Equal(t, []uuid.UUID{a, b}, got.Territories)

	_, err = f.campaigns.SetRemaining(ctx, c.ID, []uuid.UUID{f.newTerritory(t, "C")})
	require.ErrorIs(t, err, port.ErrInvalidArgument, "id outside the reserved set")
}

func TestCloseMaterializesUsedTerritories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.newTerritory(t, "A"), f.newTerritory(t, "B"), f.newTerritory(t, "C")

	camp, err := f.campaigns.Create(ctx, campaignReq([]uuid.UUID{a, b, c}))
	require.NoError(t, err)
	_, err = f.campaigns.SetRemaining(ctx, camp.ID, []uuid.UUID{c})
	require.NoError(t, err)

	closeDate := date(2024, time.May, 1)
	closed, err := f.campaigns.Close(ctx, camp.ID, closeDate)
	require.NoError(t, err)
	assert.True(t, closed.Closed)
	assert.Equal(t, []uuid.UUID{c}, closed.Remaining, "remaining is frozen at close")

	// Exactly one completed campaign-held assignment for A and B each.
	for _, id := range []uuid.UUID{a, b} {
		history, err := f.territories.History(ctx, id)
		require.NoError(t, err)
		require.Len(t, history, 1)
		got := history[0]
		assert.Equal(t, domain.HolderCampaign, got.Holder.Kind)
		assert.Equal(t, camp.ID, got.Holder.ID)
		assert.Equal(t, closeDate, got.AssignmentDate)
		require.NotNil(t, got.ReturnDate)
		assert.Equal(t, closeDate, *got.ReturnDate)

		view, err := f.territories.Get(ctx, id, closeDate)
		require.NoError(t, err)
		assert.Equal(t, "2024-05-01", view.Territory.LastVisitedOn)
		assert.Equal(t, domain.StatusAvailable, view.Status, "materialization never moves status")
	}
	assert.Zero(t, f.ledgerLen(t, c), "no assignment for a remaining territory")
	requireInvariant(t, f.store)
}

func TestDoubleCloseFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.newTerritory(t, "A"), f.newTerritory(t, "B")

	camp, err := f.campaigns.Create(ctx, campaignReq([]uuid.UUID{a, b}))
	require.NoError(t, err)
	_, err = f.campaigns.SetRemaining(ctx, camp.ID, nil)
	require.NoError(t, err)

	_, err = f.campaigns.Close(ctx, camp.ID, date(2024, time.May, 1))
	require.NoError(t, err)
	before := f.ledgerLen(t, a, b)

	_, err = f.campaigns.Close(ctx, camp.ID, date(2024, time.May, 2))
	require.ErrorIs(t, err, port.ErrInvalidState)
	assert.Equal(t, before, f.ledgerLen(t, a, b), "failed close writes nothing")

	_, err = f.campaigns.SetRemaining(ctx, camp.ID, []uuid.UUID{a})
	require.ErrorIs(t, err, port.ErrInvalidState, "remaining is immutable once closed")
}

func TestCloseKeepsActivePersonAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newTerritory(t, "A")
	person := uuid.New()

	camp, err := f.campaigns.Create(ctx, campaignReq([]uuid.UUID{a}))
	require.NoError(t, err)
	_, err = f.campaigns.SetRemaining(ctx, camp.ID, nil)
	require.NoError(t, err)

	_, err = f.territories.Assign(ctx, port.AssignReq{TerritoryID: a, PersonID: person}, date(2024, time.April, 20))
	require.NoError(t, err)

	_, err = f.campaigns.Close(ctx, camp.ID, date(2024, time.May, 1))
	require.NoError(t, err)
	requireInvariant(t, f.store)

	view, err := f.territories.Get(ctx, a, date(2024, time.May, 1))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, view.Status)
	require.NotNil(t, view.Active)
	assert.Equal(t, person, view.Active.Holder.ID)
	assert.Equal(t, 2, f.ledgerLen(t, a), "campaign record sits alongside the open one")
}

func TestCreateFromPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1, t2, t3 := f.newTerritory(t, "T1"), f.newTerritory(t, "T2"), f.newTerritory(t, "T3")

	prev, err := f.campaigns.Create(ctx, campaignReq([]uuid.UUID{t1, t2, t3}))
	require.NoError(t, err)

	_, err = f.campaigns.CreateFromPrevious(ctx, prev.ID, campaignReq(nil))
	require.ErrorIs(t, err, port.ErrInvalidState, "previous campaign must be closed")

	_, err = f.campaigns.SetRemaining(ctx, prev.ID, []uuid.UUID{t1, t2})
	require.NoError(t, err)
	_, err = f.campaigns.Close(ctx, prev.ID, date(2024, time.May, 1))
	require.NoError(t, err)

	next, err := f.campaigns.CreateFromPrevious(ctx, prev.ID, campaignReq(nil))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{t1, t2}, next.Territories)
	assert.Equal(t, []uuid.UUID{t1, t2}, next.Remaining)
	assert.False(t, next.Closed)
}

func TestDeleteCampaignKeepsLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newTerritory(t, "A")

	camp, err := f.campaigns.Create(ctx, campaignReq([]uuid.UUID{a}))
	require.NoError(t, err)
	_, err = f.campaigns.SetRemaining(ctx, camp.ID, nil)
	require.NoError(t, err)
	_, err = f.campaigns.Close(ctx, camp.ID, date(2024, time.May, 1))
	require.NoError(t, err)

	require.NoError(t, f.campaigns.Delete(ctx, camp.ID))
	_, err = f.campaigns.Get(ctx, camp.ID)
	require.ErrorIs(t, err, port.ErrNotFound)
	assert.Equal(t, 1, f.ledgerLen(t, a), "materialized assignments survive deletion")
}

func TestListCampaignsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older := campaignReq(nil)
	older.Name = "older"
	older.StartDate = date(2024, time.March, 1)
	older.EndDate = date(2024, time.March, 31)
	_, err := f.campaigns.Create(ctx, older)
	require.NoError(t, err)

	newer := campaignReq(nil)
	newer.Name = "newer"
	_, err = f.campaigns.Create(ctx, newer)
	require.NoError(t, err)

	list, err := f.campaigns.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Name)
	assert.Equal(t, "older", list[1].Name)
}
