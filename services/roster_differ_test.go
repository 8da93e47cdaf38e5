package services

import (
	"testing"

	"ajanda.link/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterRow(id uint, entityType models.RecipientEntityType, entityID uint, write, view bool) models.CalendarEventRecipient {
	cer := models.CalendarEventRecipient{
		CalendarEventID: 1,
		EntityType:      entityType,
		EntityID:        entityID,
		WriteAccess:     write,
		ViewOnly:        view,
	}
	cer.ID = id
	return cer
}

func TestDiffRosterIdempotent(t *testing.T) {
	current := []models.CalendarEventRecipient{
		rosterRow(1, models.EntityTypeUser, 10, true, false),
		rosterRow(2, models.EntityTypeDepartment, 5, false, true),
	}
	desired := []RosterEntry{
		{EntityType: models.EntityTypeUser, EntityID: 10, WriteAccess: true},
		{EntityType: models.EntityTypeDepartment, EntityID: 5, ViewOnly: true},
	}

	diff := DiffRoster(current, desired)

	assert.Empty(t, diff.ToCreate)
	assert.Empty(t, diff.ToDelete)
	require.Len(t, diff.ToUpdate, 2)
	for _, upd := range diff.ToUpdate {
		assert.True(t, upd.NoOp())
	}
}

func TestDiffRosterFlagChangeIsUpdateNotRecreate(t *testing.T) {
	current := []models.CalendarEventRecipient{
		rosterRow(1, models.EntityTypeUser, 10, false, false),
	}
	desired := []RosterEntry{
		{EntityType: models.EntityTypeUser, EntityID: 10, WriteAccess: true},
	}

	diff := DiffRoster(current, desired)

	assert.Empty(t, diff.ToCreate)
	assert.Empty(t, diff.ToDelete)
	require.Len(t, diff.ToUpdate, 1)
	assert.False(t, diff.ToUpdate[0].NoOp())
	assert.True(t, diff.ToUpdate[0].WriteAccess)
	assert.Equal(t, uint(1), diff.ToUpdate[0].Current.ID)
}

func TestDiffRosterCreateAndDelete(t *testing.T) {
	current := []models.CalendarEventRecipient{
		rosterRow(1, models.EntityTypeUser, 10, true, false),
		rosterRow(2, models.EntityTypeUser, 11, false, false),
	}
	desired := []RosterEntry{
		{EntityType: models.EntityTypeUser, EntityID: 10, WriteAccess: true},
		{EntityType: models.EntityTypeDepartment, EntityID: 7, WriteAccess: false},
	}

	diff := DiffRoster(current, desired)

	require.Len(t, diff.ToCreate, 1)
	assert.Equal(t, models.EntityTypeDepartment, diff.ToCreate[0].EntityType)
	assert.Equal(t, uint(7), diff.ToCreate[0].EntityID)

	require.Len(t, diff.ToDelete, 1)
	assert.Equal(t, uint(11), diff.ToDelete[0].EntityID)

	require.Len(t, diff.ToUpdate, 1)
	assert.True(t, diff.ToUpdate[0].NoOp())
}

func TestDiffRosterDuplicateDesiredLastWins(t *testing.T) {
	desired := []RosterEntry{
		{EntityType: models.EntityTypeUser, EntityID: 10, WriteAccess: false},
		{EntityType: models.EntityTypeUser, EntityID: 10, WriteAccess: true},
	}

	diff := DiffRoster(nil, desired)

	require.Len(t, diff.ToCreate, 1)
	assert.True(t, diff.ToCreate[0].WriteAccess)
}

func TestDiffRosterEmptyDesiredDeletesAll(t *testing.T) {
	current := []models.CalendarEventRecipient{
		rosterRow(1, models.EntityTypeUser, 10, true, false),
	}

	diff := DiffRoster(current, nil)

	assert.Empty(t, diff.ToCreate)
	assert.Empty(t, diff.ToUpdate)
	assert.Len(t, diff.ToDelete, 1)
	assert.False(t, diff.Empty())
}

func TestParseRosterString(t *testing.T) {
	entries, err := ParseRosterString("USER-3-true-false|DEPARTMENT-7-false-true")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, RosterEntry{EntityType: models.EntityTypeUser, EntityID: 3, WriteAccess: true}, entries[0])
	assert.Equal(t, RosterEntry{EntityType: models.EntityTypeDepartment, EntityID: 7, ViewOnly: true}, entries[1])
}

func TestParseRosterStringEmpty(t *testing.T) {
	entries, err := ParseRosterString("  ")
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestParseRosterStringInvalid(t *testing.T) {
	cases := []string{
		"USER-3-true",            // Eksik alan
		"STUDENT-3-true-false",   // Roster'da olamayacak tür
		"USER-abc-true-false",    // Sayısal olmayan ID
		"USER-0-true-false",      // Sıfır ID
	}
	for _, c := range cases {
		_, err := ParseRosterString(c)
		assert.Error(t, err, c)
	}
}
