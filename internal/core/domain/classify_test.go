package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestEffectiveStatus(t *testing.T) {
	now := date(2024, time.February, 1)

	tests := []struct {
		name   string
		stored Status
		active *Assignment
		want   Status
	}{
		{
			name:   "overdue assignment reports late",
			stored: StatusAssigned,
			active: &Assignment{DueDate: datePtr(2024, time.January, 1)},
			want:   StatusLate,
		},
		{
			name:   "no due date never reports late",
			stored: StatusAssigned,
			active: &Assignment{},
			want:   StatusAssigned,
		},
		{
			name:   "due today is not yet late",
			stored: StatusAssigned,
			active: &Assignment{DueDate: datePtr(2024, time.February, 1)},
			want:   StatusAssigned,
		},
		{
			name:   "future due date",
			stored: StatusAssigned,
			active: &Assignment{DueDate: datePtr(2024, time.March, 1)},
			want:   StatusAssigned,
		},
		{
			name:   "available ignores stray assignment data",
			stored: StatusAvailable,
			active: nil,
			want:   StatusAvailable,
		},
		{
			name:   "pending stays pending",
			stored: StatusPending,
			active: nil,
			want:   StatusPending,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveStatus(tt.stored, tt.active, now))
		})
	}
}

func TestReferenceDate(t *testing.T) {
	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{date(2024, time.March, 15), date(2022, time.September, 1)},
		{date(2024, time.August, 31), date(2022, time.September, 1)},
		{date(2024, time.September, 1), date(2023, time.September, 1)},
		{date(2024, time.December, 31), date(2023, time.September, 1)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReferenceDate(tt.now), "now=%s", tt.now)
	}
}

func TestNonVisited(t *testing.T) {
	now := date(2024, time.March, 15) // reference date 2022-09-01

	tests := []struct {
		name      string
		territory Territory
		active    *Assignment
		want      bool
	}{
		{
			name:      "available, visited before reference",
			territory: Territory{Status: StatusAvailable, LastVisitedOn: "2022-06-01"},
			want:      true,
		},
		{
			name:      "available, visited after reference",
			territory: Territory{Status: StatusAvailable, LastVisitedOn: "2023-09-02"},
			want:      false,
		},
		{
			name:      "pending, never visited",
			territory: Territory{Status: StatusPending},
			want:      true,
		},
		{
			name:      "available, malformed visit date counts as never",
			territory: Territory{Status: StatusAvailable, LastVisitedOn: "12/31/1999"},
			want:      true,
		},
		{
			name:      "assigned excluded even with malformed date",
			territory: Territory{Status: StatusAssigned, LastVisitedOn: "garbage"},
			active:    &Assignment{},
			want:      false,
		},
		{
			name:      "late excluded regardless of visit date",
			territory: Territory{Status: StatusAssigned, LastVisitedOn: "2020-01-01"},
			active:    &Assignment{DueDate: datePtr(2024, time.January, 1)},
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NonVisited(tt.territory, tt.active, now))
		})
	}
}

func TestCampaignUsed(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	camp := Campaign{
		Territories: []uuid.UUID{a, b, c},
		Remaining:   []uuid.UUID{c},
	}
	used := camp.Used()
	require.Len(t, used, 2)
	assert.Equal(t, []uuid.UUID{a, b}, used)
	assert.True(t, camp.Contains(c))
	assert.False(t, camp.Contains(uuid.New()))
}
