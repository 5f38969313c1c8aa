package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrafield/internal/core/port"
)

func TestReminderDeduplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	territory := f.newTerritory(t, "Riverton 01")
	person := uuid.New()
	due := date(2024, time.January, 1)

	_, err := f.territories.Assign(ctx, port.AssignReq{TerritoryID: territory, PersonID: person, DueDate: &due}, date(2023, time.December, 1))
	require.NoError(t, err)

	has, err := f.reminders.HasOpenReminder(ctx, territory, person)
	require.NoError(t, err)
	assert.False(t, has)

	first, err := f.reminders.Create(ctx, port.CreateReminderReq{
		TerritoryID: territory,
		PersonID:    person,
		IssuedByID:  uuid.New(),
		Note:        "two weeks overdue",
	})
	require.NoError(t, err)
	assert.Equal(t, person, first.PersonID)

	// A different issuer still counts as a duplicate for the same pair.
	_, err = f.reminders.Create(ctx, port.CreateReminderReq{
		TerritoryID: territory,
		PersonID:    person,
		IssuedByID:  uuid.New(),
	})
	require.ErrorIs(t, err, port.ErrAlreadyReminded)

	has, err = f.reminders.HasOpenReminder(ctx, territory, person)
	require.NoError(t, err)
	assert.True(t, has)

	// A different person on the same territory is a separate pair.
	_, err = f.reminders.Create(ctx, port.CreateReminderReq{
		TerritoryID: territory,
		PersonID:    uuid.New(),
		IssuedByID:  uuid.New(),
	})
	require.NoError(t, err)

	reminders, err := f.reminders.ListForTerritory(ctx, territory)
	require.NoError(t, err)
	assert.Len(t, reminders, 2)
}

func TestReminderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reminders.Create(ctx, port.CreateReminderReq{
		TerritoryID: uuid.New(),
		PersonID:    uuid.New(),
		IssuedByID:  uuid.New(),
	})
	require.ErrorIs(t, err, port.ErrNotFound)

	territory := f.newTerritory(t, "Riverton 02")
	_, err = f.reminders.Create(ctx, port.CreateReminderReq{TerritoryID: territory})
	require.ErrorIs(t, err, port.ErrInvalidArgument)
}
