package services

import (
	"context"
	"strings"
	"testing"

	"ajanda.link/models"
	"ajanda.link/pkg/attachstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func icsEvent() *models.CalendarEvent {
	ce := &models.CalendarEvent{
		TypeOf:      models.EventTypeCampusAppointment,
		Name:        "Advising",
		Location:    "Room 201",
		Description: "Bring transcripts",
		StartAt:     mustParseUTC("2020-07-17T20:00:00Z"),
		EndAt:       mustParseUTC("2020-07-17T21:00:00Z"),
	}
	ce.ID = 77
	ce.UpdatedAt = mustParseUTC("2020-07-01T12:00:00Z")
	return ce
}

func icsStore(t *testing.T) *attachstore.FileStore {
	t.Helper()
	store, err := attachstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestIcsGenerate(t *testing.T) {
	svc := &IcsService{store: icsStore(t)}
	creator := noticeUser(1, "Alex", "Smith", "alex@acme.edu", "", "America/Los_Angeles")
	org := &models.Organization{Name: "Main Campus", ShortName: "MC"}

	data, filename, err := svc.Generate(icsEvent(), creator, org)
	require.NoError(t, err)

	body := string(data)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "METHOD:PUBLISH")
	assert.Contains(t, body, "UID:clevt77@ajanda.link")
	assert.Contains(t, body, "SUMMARY:[MC] Advising")
	assert.Contains(t, body, "LOCATION:Room 201")
	// Zamanlar etkinlik sahibinin saat diliminde (UTC 20:00 = PDT 13:00).
	assert.Contains(t, body, "DTSTART;TZID=America/Los_Angeles:20200717T130000")
	assert.Contains(t, body, "DTEND;TZID=America/Los_Angeles:20200717T140000")
	assert.Contains(t, body, "ORGANIZER;CN=Alex Smith:mailto:alex@acme.edu")

	assert.Equal(t, "Advising 7-17-2020.ics", filename)
}

func TestIcsGenerateDeterministic(t *testing.T) {
	svc := &IcsService{store: icsStore(t)}
	creator := noticeUser(1, "Alex", "Smith", "alex@acme.edu", "", "America/Los_Angeles")

	first, _, err := svc.Generate(icsEvent(), creator, nil)
	require.NoError(t, err)
	second, _, err := svc.Generate(icsEvent(), creator, nil)
	require.NoError(t, err)

	// DTSTAMP güncelleme anına sabitlendiği için çıktı bayt bayt aynıdır.
	assert.Equal(t, first, second)
	assert.Contains(t, string(first), "DTSTAMP:20200701T120000Z")
}

func TestIcsGenerateNoCreatorFallsBackToDefaultZone(t *testing.T) {
	svc := &IcsService{store: icsStore(t)}

	data, _, err := svc.Generate(icsEvent(), nil, nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DTSTART;TZID=America/Los_Angeles:20200717T130000")
	assert.NotContains(t, string(data), "ORGANIZER")
}

func TestIcsGenerateSanitizesFileName(t *testing.T) {
	svc := &IcsService{store: icsStore(t)}
	ce := icsEvent()
	ce.Name = "Q&A: Fall/Spring?"

	_, filename, err := svc.Generate(ce, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Q_A_ Fall_Spring_ 7-17-2020.ics", filename)
	assert.False(t, strings.ContainsAny(filename, "/?&:"))
}

func TestIcsGenerateAndStoreRoundTrip(t *testing.T) {
	store := icsStore(t)
	svc := NewIcsService(store)
	ctx := context.Background()

	ref, err := svc.GenerateAndStore(ctx, icsEvent(), nil, nil)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, uint(77), ref.EventID)
	assert.Equal(t, "text/calendar", ref.ContentType)

	stored, err := svc.StoredAttachment(ctx, 77)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, ref.Key, stored.Key)

	data, err := store.Read(ctx, stored)
	require.NoError(t, err)
	assert.Contains(t, string(data), "UID:clevt77@ajanda.link")
}

func TestIcsGenerateAndStoreReplacesPrevious(t *testing.T) {
	store := icsStore(t)
	svc := NewIcsService(store)
	ctx := context.Background()

	first, err := svc.GenerateAndStore(ctx, icsEvent(), nil, nil)
	require.NoError(t, err)
	second, err := svc.GenerateAndStore(ctx, icsEvent(), nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.Key, second.Key)

	stored, err := svc.StoredAttachment(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, second.Key, stored.Key)
}

func TestIcsStoredAttachmentAbsent(t *testing.T) {
	svc := NewIcsService(icsStore(t))

	ref, err := svc.StoredAttachment(context.Background(), 12345)
	require.NoError(t, err)
	assert.Nil(t, ref)
}

func TestIcsDeleteAttachment(t *testing.T) {
	store := icsStore(t)
	svc := NewIcsService(store)
	ctx := context.Background()

	_, err := svc.GenerateAndStore(ctx, icsEvent(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteAttachment(ctx, 77))

	ref, err := svc.StoredAttachment(ctx, 77)
	require.NoError(t, err)
	assert.Nil(t, ref)

	// Ek yokken silmek hata değildir.
	assert.NoError(t, svc.DeleteAttachment(ctx, 77))
}
