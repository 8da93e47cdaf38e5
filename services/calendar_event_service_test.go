package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ajanda.link/models"
	"ajanda.link/pkg/attachstore"
	"ajanda.link/pkg/calview"
	"ajanda.link/pkg/queryparams"
	"ajanda.link/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ceFixture struct {
	db       *gorm.DB
	svc      *CalendarEventService
	dir      *fakeDirectory
	entities *fakeEntities
	notifier *fakeNotifier
	ics      *fakeIcs
	actions  *fakeActionExecutor
}

func newCeFixture(t *testing.T) *ceFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "events.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.CalendarEvent{}, &models.CalendarEventRecipient{}, &models.CalendarEventAction{}))

	f := &ceFixture{
		db: db,
		dir: &fakeDirectory{
			users: map[uint]*models.User{
				1: noticeUser(1, "Alex", "Smith", "alex@acme.edu", "", "America/Los_Angeles"),
				2: noticeUser(2, "Pat", "Jones", "pat@acme.edu", "", "America/Chicago"),
			},
			userDepts: map[uint][]uint{},
		},
		entities: &fakeEntities{byID: map[uint]*Recipient{}},
		notifier: &fakeNotifier{},
		ics:      &fakeIcs{},
		actions:  &fakeActionExecutor{},
	}
	f.svc = newCalendarEventService(db,
		repositories.NewCalendarEventRepositoryTx(db),
		repositories.NewCalendarEventRecipientRepositoryTx(db),
		repositories.NewCalendarEventActionRepositoryTx(db),
		f.dir, f.entities, f.notifier, f.ics, f.actions)
	return f
}

func apptInput() CalendarEventInput {
	apptUserID := uint(1)
	return CalendarEventInput{
		ParentOrganizationID: 1,
		TypeOf:               models.EventTypeCampusAppointment,
		Name:                 "Advising",
		StartAt:              mustParseUTC("2020-07-17T20:00:00Z"),
		EndAt:                mustParseUTC("2020-07-17T21:00:00Z"),
		ApptUserID:           &apptUserID,
		ExternalRcptData:     `{"first_name":"Jane","last_name":"Doe","email":"jane@example.com","time_zone":"America/New_York"}`,
		Roster:               []RosterEntry{{EntityType: models.EntityTypeUser, EntityID: 2, WriteAccess: true}},
		ActionData:           `{"tag":"visited"}`,
	}
}

func meetingInput() CalendarEventInput {
	return CalendarEventInput{
		ParentOrganizationID: 1,
		TypeOf:               models.EventTypeMeeting,
		Name:                 "Staff Sync",
		StartAt:              mustParseUTC("2020-07-20T17:00:00Z"),
		EndAt:                mustParseUTC("2020-07-20T18:00:00Z"),
	}
}

func (f *ceFixture) activeRoster(t *testing.T, eventID uint) []models.CalendarEventRecipient {
	t.Helper()
	var roster []models.CalendarEventRecipient
	require.NoError(t, f.db.
		Where("calendar_event_id = ? AND deleted_at IS NULL", eventID).
		Order("id ASC").Find(&roster).Error)
	return roster
}

func TestCreatePersistsEventRosterAndAction(t *testing.T) {
	f := newCeFixture(t)
	actor := f.dir.users[1]
	input := apptInput()
	input.EmailNotices = true
	input.TextNotices = "all"

	ce, err := f.svc.Create(context.Background(), input, actor)
	require.NoError(t, err)
	require.NotZero(t, ce.ID)

	// Etkinlik satırı context kullanıcısıyla yazılır.
	var row models.CalendarEvent
	require.NoError(t, f.db.First(&row, ce.ID).Error)
	assert.Equal(t, uint(1), row.CreatedBy)
	assert.Equal(t, models.EventTypeCampusAppointment, row.TypeOf)
	assert.Nil(t, row.DeletedAt)

	roster := f.activeRoster(t, ce.ID)
	require.Len(t, roster, 1)
	assert.Equal(t, models.EntityTypeUser, roster[0].EntityType)
	assert.Equal(t, uint(2), roster[0].EntityID)
	assert.True(t, roster[0].WriteAccess)

	var action models.CalendarEventAction
	require.NoError(t, f.db.Where("calendar_event_id = ? AND deleted_at IS NULL", ce.ID).First(&action).Error)
	assert.Equal(t, `{"tag":"visited"}`, action.Data)

	require.Len(t, f.notifier.emails, 1)
	assert.Equal(t, NoticeActionCreate, f.notifier.emails[0].action)
	require.Len(t, f.notifier.texts, 1)
	assert.Equal(t, NoticeActionCreate, f.notifier.texts[0].action)
	assert.True(t, f.notifier.texts[0].broadcast)

	assert.Equal(t, []string{"event_creation"}, f.actions.triggers)
}

func TestCreateValidationErrors(t *testing.T) {
	f := newCeFixture(t)
	actor := f.dir.users[1]

	cases := []struct {
		field  string
		mutate func(*CalendarEventInput)
	}{
		{"parent_organization_id", func(in *CalendarEventInput) { in.ParentOrganizationID = 0 }},
		{"name", func(in *CalendarEventInput) { in.Name = "" }},
		{"type_of", func(in *CalendarEventInput) { in.TypeOf = "banana" }},
		{"start_at", func(in *CalendarEventInput) { in.StartAt = time.Time{} }},
		{"end_at", func(in *CalendarEventInput) { in.EndAt = in.StartAt.Add(-time.Hour) }},
		{"all_day", func(in *CalendarEventInput) { in.AllDay = true }},
		{"appt_user_id", func(in *CalendarEventInput) { in.ApptUserID = nil }},
		{"recipient", func(in *CalendarEventInput) { in.ExternalRcptData = "" }},
	}
	for _, tc := range cases {
		input := apptInput()
		tc.mutate(&input)

		_, err := f.svc.Create(context.Background(), input, actor)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, tc.field)
		assert.Equal(t, tc.field, vErr.Field)
	}

	// Doğrulama hatalarında hiçbir satır yazılmaz.
	var count int64
	require.NoError(t, f.db.Model(&models.CalendarEvent{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.notifier.emails)
}

func TestCreateRollsBackOnRosterFailure(t *testing.T) {
	f := newCeFixture(t)
	input := apptInput()
	// STUDENT roster satırı repository tarafından reddedilir.
	input.Roster = append(input.Roster, RosterEntry{EntityType: models.EntityTypeStudent, EntityID: 9})

	_, err := f.svc.Create(context.Background(), input, f.dir.users[1])
	require.Error(t, err)

	// Etkinlik satırı da geri alınır.
	var count int64
	require.NoError(t, f.db.Model(&models.CalendarEvent{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.notifier.emails)
	assert.Empty(t, f.actions.triggers)
}

func TestUpdateRosterIdempotent(t *testing.T) {
	f := newCeFixture(t)
	ce, err := f.svc.Create(context.Background(), apptInput(), f.dir.users[1])
	require.NoError(t, err)
	originalID := f.activeRoster(t, ce.ID)[0].ID

	// Aynı roster ile güncelleme satırı yeniden yaratmaz.
	_, err = f.svc.Update(context.Background(), ce.ID, apptInput(), f.dir.users[2])
	require.NoError(t, err)
	roster := f.activeRoster(t, ce.ID)
	require.Len(t, roster, 1)
	assert.Equal(t, originalID, roster[0].ID)

	// Bayrak değişikliği aynı satırda güncellenir.
	input := apptInput()
	input.Roster[0].ViewOnly = true
	input.Roster[0].WriteAccess = true
	_, err = f.svc.Update(context.Background(), ce.ID, input, f.dir.users[2])
	require.NoError(t, err)
	roster = f.activeRoster(t, ce.ID)
	require.Len(t, roster, 1)
	assert.Equal(t, originalID, roster[0].ID)
	assert.True(t, roster[0].ViewOnly)
}

func TestUpdateRosterReplacement(t *testing.T) {
	f := newCeFixture(t)
	ce, err := f.svc.Create(context.Background(), apptInput(), f.dir.users[1])
	require.NoError(t, err)

	input := apptInput()
	input.Roster = []RosterEntry{{EntityType: models.EntityTypeDepartment, EntityID: 7, WriteAccess: true}}
	_, err = f.svc.Update(context.Background(), ce.ID, input, f.dir.users[2])
	require.NoError(t, err)

	roster := f.activeRoster(t, ce.ID)
	require.Len(t, roster, 1)
	assert.Equal(t, models.EntityTypeDepartment, roster[0].EntityType)

	// Çıkarılan satır soft delete edilir, personel imzası taşır.
	var removed models.CalendarEventRecipient
	require.NoError(t, f.db.
		Where("calendar_event_id = ? AND entity_type = ?", ce.ID, models.EntityTypeUser).
		First(&removed).Error)
	require.NotNil(t, removed.DeletedAt)
	assert.Equal(t, models.StaffActor(2), removed.DeletedBy)
}

func TestUpdateTimeChangeTriggersReschedule(t *testing.T) {
	f := newCeFixture(t)
	ce, err := f.svc.Create(context.Background(), apptInput(), f.dir.users[1])
	require.NoError(t, err)

	// Zaman aynı: "updated".
	input := apptInput()
	input.EmailNotices = true
	input.Name = "Advising (extended)"
	_, err = f.svc.Update(context.Background(), ce.ID, input, f.dir.users[2])
	require.NoError(t, err)
	require.Len(t, f.notifier.emails, 1)
	assert.Equal(t, NoticeActionUpdate, f.notifier.emails[0].action)

	// Zaman değişti: "rescheduled".
	input = apptInput()
	input.EmailNotices = true
	input.StartAt = input.StartAt.Add(time.Hour)
	input.EndAt = input.EndAt.Add(time.Hour)
	_, err = f.svc.Update(context.Background(), ce.ID, input, f.dir.users[2])
	require.NoError(t, err)
	require.Len(t, f.notifier.emails, 2)
	assert.Equal(t, NoticeActionReschedule, f.notifier.emails[1].action)
}

func TestUpdateAccessDenied(t *testing.T) {
	f := newCeFixture(t)
	ce, err := f.svc.Create(context.Background(), apptInput(), f.dir.users[1])
	require.NoError(t, err)

	outsider := noticeUser(3, "Sam", "Lee", "sam@acme.edu", "", "")
	_, err = f.svc.Update(context.Background(), ce.ID, apptInput(), outsider)
	assert.ErrorIs(t, err, ErrCeAccessDenied)

	// Parent org yöneticisi her etkinliğe yazabilir.
	admin := noticeUser(4, "Ada", "Kaya", "ada@acme.edu", "", "")
	admin.IsParentOrgAdmin = true
	_, err = f.svc.Update(context.Background(), ce.ID, apptInput(), admin)
	assert.NoError(t, err)
}

func TestUpdateDepartmentWriteAccess(t *testing.T) {
	f := newCeFixture(t)
	input := apptInput()
	input.Roster = []RosterEntry{{EntityType: models.EntityTypeDepartment, EntityID: 7, WriteAccess: true}}
	ce, err := f.svc.Create(context.Background(), input, f.dir.users[1])
	require.NoError(t, err)

	member := noticeUser(3, "Sam", "Lee", "sam@acme.edu", "", "")
	f.dir.userDepts[3] = []uint{7}
	_, err = f.svc.Update(context.Background(), ce.ID, input, member)
	assert.NoError(t, err)

	f.dir.userDepts[3] = []uint{8}
	_, err = f.svc.Update(context.Background(), ce.ID, input, member)
	assert.ErrorIs(t, err, ErrCeAccessDenied)
}

func TestDeleteSoftDeletesAndCancels(t *testing.T) {
	f := newCeFixture(t)
	ce, err := f.svc.Create(context.Background(), apptInput(), f.dir.users[1])
	require.NoError(t, err)
	f.ics.stored = map[uint]*attachstore.Ref{ce.ID: {Key: "k", EventID: ce.ID}}

	require.NoError(t, f.svc.Delete(context.Background(), ce.ID, f.dir.users[1]))

	_, err = f.svc.FindByID(context.Background(), ce.ID)
	assert.ErrorIs(t, err, ErrCeNotFound)

	var row models.CalendarEvent
	require.NoError(t, f.db.First(&row, ce.ID).Error)
	require.NotNil(t, row.DeletedAt)
	assert.Equal(t, models.StaffActor(1), row.DeletedBy)

	// İptal e-postası gider, ek depodan kaldırılır.
	require.Len(t, f.notifier.emails, 1)
	assert.Equal(t, NoticeActionCancel, f.notifier.emails[0].action)
	assert.Empty(t, f.ics.stored)
}

func TestDeleteAccessDenied(t *testing.T) {
	f := newCeFixture(t)
	ce, err := f.svc.Create(context.Background(), apptInput(), f.dir.users[1])
	require.NoError(t, err)

	outsider := noticeUser(3, "Sam", "Lee", "sam@acme.edu", "", "")
	assert.ErrorIs(t, f.svc.Delete(context.Background(), ce.ID, outsider), ErrCeAccessDenied)
}

func TestSetAppointmentStatus(t *testing.T) {
	f := newCeFixture(t)
	ce, err := f.svc.Create(context.Background(), apptInput(), f.dir.users[1])
	require.NoError(t, err)
	f.actions.triggers = nil

	updated, err := f.svc.SetAppointmentStatus(context.Background(), ce.ID, models.AppointmentStatusComplete, f.dir.users[1])
	require.NoError(t, err)
	require.NotNil(t, updated.AppointmentStatus)
	assert.Equal(t, models.AppointmentStatusComplete, *updated.AppointmentStatus)
	assert.NotNil(t, updated.ApptStatusUpdatedAt)

	var row models.CalendarEvent
	require.NoError(t, f.db.First(&row, ce.ID).Error)
	require.NotNil(t, row.AppointmentStatus)
	assert.Equal(t, models.AppointmentStatusComplete, *row.AppointmentStatus)

	assert.Equal(t, []string{"appt_complete"}, f.actions.triggers)
}

func TestSetAppointmentStatusValidation(t *testing.T) {
	f := newCeFixture(t)
	ce, err := f.svc.Create(context.Background(), apptInput(), f.dir.users[1])
	require.NoError(t, err)

	var vErr *ValidationError
	_, err = f.svc.SetAppointmentStatus(context.Background(), ce.ID, "done", f.dir.users[1])
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "appointment_status", vErr.Field)

	meeting, err := f.svc.Create(context.Background(), meetingInput(), f.dir.users[1])
	require.NoError(t, err)
	_, err = f.svc.SetAppointmentStatus(context.Background(), meeting.ID, models.AppointmentStatusComplete, f.dir.users[1])
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "type_of", vErr.Field)
}

func TestRescheduleByRecipient(t *testing.T) {
	f := newCeFixture(t)
	ce, err := f.svc.Create(context.Background(), apptInput(), f.dir.users[1])
	require.NoError(t, err)

	newStart := mustParseUTC("2020-07-20T18:00:00Z")
	newEnd := mustParseUTC("2020-07-20T19:00:00Z")
	updated, err := f.svc.RescheduleByRecipient(context.Background(), ce.ID, newStart, newEnd)
	require.NoError(t, err)
	assert.True(t, updated.StartAt.Equal(newStart))

	var row models.CalendarEvent
	require.NoError(t, f.db.First(&row, ce.ID).Error)
	assert.True(t, row.StartAt.Equal(newStart))
	assert.True(t, row.EndAt.Equal(newEnd))

	require.Len(t, f.notifier.emails, 1)
	assert.Equal(t, NoticeActionReschedule, f.notifier.emails[0].action)
	require.Len(t, f.notifier.texts, 1)
	assert.True(t, f.notifier.texts[0].broadcast)

	var vErr *ValidationError
	_, err = f.svc.RescheduleByRecipient(context.Background(), ce.ID, newEnd, newStart)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "start_at", vErr.Field)
}

func TestRescheduleByRecipientNonAppointment(t *testing.T) {
	f := newCeFixture(t)
	meeting, err := f.svc.Create(context.Background(), meetingInput(), f.dir.users[1])
	require.NoError(t, err)

	var vErr *ValidationError
	_, err = f.svc.RescheduleByRecipient(context.Background(), meeting.ID,
		meeting.StartAt.Add(time.Hour), meeting.EndAt.Add(time.Hour))
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "type_of", vErr.Field)
}

func TestCancelByRecipient(t *testing.T) {
	f := newCeFixture(t)
	ce, err := f.svc.Create(context.Background(), apptInput(), f.dir.users[1])
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelByRecipient(context.Background(), ce.ID))

	// deleted_by personel ID'si değil, alıcının kendisidir.
	var row models.CalendarEvent
	require.NoError(t, f.db.First(&row, ce.ID).Error)
	require.NotNil(t, row.DeletedAt)
	assert.Equal(t, models.RecipientActor(), row.DeletedBy)

	require.Len(t, f.notifier.emails, 1)
	assert.Equal(t, NoticeActionCancel, f.notifier.emails[0].action)
}

func TestFindByIDNotFound(t *testing.T) {
	f := newCeFixture(t)
	_, err := f.svc.FindByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrCeNotFound)
}

func TestListRange(t *testing.T) {
	f := newCeFixture(t)
	_, err := f.svc.Create(context.Background(), apptInput(), f.dir.users[1])
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), meetingInput(), f.dir.users[1])
	require.NoError(t, err)

	// 17 Temmuz günü sadece randevuyu kapsar.
	events, total, err := f.svc.ListRange(context.Background(), 1,
		mustParseUTC("2020-07-17T12:00:00Z"), calview.GranularityDay, time.UTC,
		queryparams.DefaultListParams("start_at"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.Equal(t, "Advising", events[0].Name)

	// 20 Temmuz haftası (19-25 Temmuz) sadece toplantıyı kapsar.
	events, total, err = f.svc.ListRange(context.Background(), 1,
		mustParseUTC("2020-07-20T12:00:00Z"), calview.GranularityWeek, time.UTC,
		queryparams.DefaultListParams("start_at"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.Equal(t, "Staff Sync", events[0].Name)

	var vErr *ValidationError
	_, _, err = f.svc.ListRange(context.Background(), 1,
		mustParseUTC("2020-07-17T12:00:00Z"), "year", time.UTC,
		queryparams.DefaultListParams("start_at"))
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "granularity", vErr.Field)
}
