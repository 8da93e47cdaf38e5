package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"ajanda.link/models"
	"ajanda.link/pkg/attachstore"
	"ajanda.link/pkg/queryparams"
	"ajanda.link/repositories"
)

func mustParseUTC(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

// Testlerde kullanılan sahte bağımlılıklar. Transport sahteleri gönderilen
// payload'ları sırayla kaydeder; sonuç kuyruğuyla hata enjekte edilebilir.

type fakeEmailTransport struct {
	mu      sync.Mutex
	sent    []EmailPayload
	results []SendResult
}

func (f *fakeEmailTransport) SendEmail(_ context.Context, payload EmailPayload) SendResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, payload)
	if len(f.results) >= len(f.sent) {
		return f.results[len(f.sent)-1]
	}
	return SendResult{Success: true}
}

type fakeSmsTransport struct {
	mu   sync.Mutex
	sent []SmsPayload
}

func (f *fakeSmsTransport) SendSms(_ context.Context, payload SmsPayload) SendResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, payload)
	return SendResult{Success: true}
}

type fakeTextRegistry struct {
	blocked map[string]bool
}

func (f *fakeTextRegistry) DoNotTextPhone(_ context.Context, _ uint, phone string) bool {
	return f.blocked[phone]
}

type fakeActionExecutor struct {
	triggers []string
}

func (f *fakeActionExecutor) ExecuteActions(_ context.Context, triggerKey string, _ *Recipient, _ *models.User) {
	f.triggers = append(f.triggers, triggerKey)
}

type fakeCerRepo struct {
	roster []models.CalendarEventRecipient
}

func (f *fakeCerRepo) FindActiveByEventID(_ context.Context, _ uint, q repositories.RosterQuery) ([]models.CalendarEventRecipient, error) {
	if q.ViewOnly == nil {
		return f.roster, nil
	}
	var res []models.CalendarEventRecipient
	for _, cer := range f.roster {
		if cer.ViewOnly == *q.ViewOnly {
			res = append(res, cer)
		}
	}
	return res, nil
}

func (f *fakeCerRepo) Create(_ context.Context, cer *models.CalendarEventRecipient) error {
	f.roster = append(f.roster, *cer)
	return nil
}

func (f *fakeCerRepo) UpdateFlags(_ context.Context, _ *models.CalendarEventRecipient, _, _ bool) error {
	return nil
}

func (f *fakeCerRepo) Delete(_ context.Context, _ *models.CalendarEventRecipient, _ models.Actor) error {
	return nil
}

type fakeDirectory struct {
	users     map[uint]*models.User
	org       *models.Organization
	parentOrg *models.ParentOrganization
	userDepts map[uint][]uint
}

func (f *fakeDirectory) ResolveUser(_ context.Context, id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, ErrDirUserNotFound
}

func (f *fakeDirectory) ResolveUsers(_ context.Context, ids []uint) ([]models.User, error) {
	var res []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			res = append(res, *u)
		}
	}
	return res, nil
}

func (f *fakeDirectory) ResolveDepartmentMembers(_ context.Context, _ []uint) ([]uint, error) {
	return nil, nil
}

func (f *fakeDirectory) ResolveOrganization(_ context.Context, _ uint) (*models.Organization, error) {
	if f.org == nil {
		return nil, ErrDirOrgNotFound
	}
	return f.org, nil
}

func (f *fakeDirectory) ResolveParentOrganization(_ context.Context, _ uint) (*models.ParentOrganization, error) {
	if f.parentOrg == nil {
		return nil, ErrDirOrgNotFound
	}
	return f.parentOrg, nil
}

func (f *fakeDirectory) UserDepartmentIDs(_ context.Context, userID uint) ([]uint, error) {
	return f.userDepts[userID], nil
}

func (f *fakeDirectory) CollectRosterUserIDs(_ context.Context, roster []models.CalendarEventRecipient) ([]uint, error) {
	seen := make(map[uint]bool)
	var ids []uint
	for _, cer := range roster {
		if cer.EntityType == models.EntityTypeUser && !seen[cer.EntityID] {
			seen[cer.EntityID] = true
			ids = append(ids, cer.EntityID)
		}
	}
	return ids, nil
}

type fakeCeRepo struct {
	overlapsByUser map[uint][]models.CalendarEvent
	overlapsByRcpt []models.CalendarEvent
	holidayEvents  []models.CalendarEvent
}

func (f *fakeCeRepo) Create(_ context.Context, _ *models.CalendarEvent) error { return nil }

func (f *fakeCeRepo) FindByID(_ context.Context, _ uint) (*models.CalendarEvent, error) {
	return nil, repositories.ErrNotFound
}

func (f *fakeCeRepo) Update(_ context.Context, _ *models.CalendarEvent) error { return nil }

func (f *fakeCeRepo) Delete(_ context.Context, _ *models.CalendarEvent, _ models.Actor) error {
	return nil
}

func (f *fakeCeRepo) FindInRange(_ context.Context, _ uint, _, _ time.Time, _ queryparams.ListParams) ([]models.CalendarEvent, int64, error) {
	return nil, 0, nil
}

func (f *fakeCeRepo) FindOverlapping(_ context.Context, q repositories.OverlapQuery) ([]models.CalendarEvent, error) {
	if q.UserID != nil {
		return f.overlapsByUser[*q.UserID], nil
	}
	return f.overlapsByRcpt, nil
}

func (f *fakeCeRepo) FindHolidayEvents(_ context.Context, _ uint, _ *uint, _, _ time.Time) ([]models.CalendarEvent, error) {
	return f.holidayEvents, nil
}

type fakeEntities struct {
	recipient *Recipient
	byID      map[uint]*Recipient
}

func (f *fakeEntities) ResolveEntity(_ context.Context, _ models.RecipientEntityType, id uint) (*Recipient, error) {
	if r, ok := f.byID[id]; ok {
		return r, nil
	}
	return nil, ErrEntityNotFound
}

func (f *fakeEntities) ResolveEventRecipient(_ context.Context, _ *models.CalendarEvent) (*Recipient, error) {
	return f.recipient, nil
}

type fakeIcs struct {
	stored    map[uint]*attachstore.Ref
	generated int
	putErr    error
}

func (f *fakeIcs) Generate(_ *models.CalendarEvent, _ *models.User, _ *models.Organization) ([]byte, string, error) {
	return []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), "event.ics", nil
}

func (f *fakeIcs) GenerateAndStore(_ context.Context, ce *models.CalendarEvent, _ *models.User, _ *models.Organization) (*attachstore.Ref, error) {
	f.generated++
	if f.putErr != nil {
		return nil, f.putErr
	}
	if f.stored == nil {
		f.stored = make(map[uint]*attachstore.Ref)
	}
	ref := &attachstore.Ref{Key: "k", EventID: ce.ID, FileName: "event.ics", ContentType: "text/calendar"}
	f.stored[ce.ID] = ref
	return ref, nil
}

func (f *fakeIcs) StoredAttachment(_ context.Context, eventID uint) (*attachstore.Ref, error) {
	if ref, ok := f.stored[eventID]; ok {
		return ref, nil
	}
	return nil, nil
}

func (f *fakeIcs) DeleteAttachment(_ context.Context, eventID uint) error {
	delete(f.stored, eventID)
	return nil
}

type noticeCall struct {
	action    NotificationAction
	broadcast bool
}

type fakeNotifier struct {
	emails []noticeCall
	texts  []noticeCall
}

func (f *fakeNotifier) SendEventEmailNotices(_ context.Context, _ *models.CalendarEvent, _ *models.User, action NotificationAction) {
	f.emails = append(f.emails, noticeCall{action: action})
}

func (f *fakeNotifier) SendEventTextNotices(_ context.Context, _ *models.CalendarEvent, _ *models.User, action NotificationAction, broadcast bool) {
	f.texts = append(f.texts, noticeCall{action: action, broadcast: broadcast})
}

var errTransport = errors.New("transport hatası")

var (
	_ IEmailTransport                                = (*fakeEmailTransport)(nil)
	_ ISmsTransport                                  = (*fakeSmsTransport)(nil)
	_ IDoNotTextRegistry                             = (*fakeTextRegistry)(nil)
	_ IActionExecutor                                = (*fakeActionExecutor)(nil)
	_ repositories.ICalendarEventRecipientRepository = (*fakeCerRepo)(nil)
	_ repositories.ICalendarEventRepository          = (*fakeCeRepo)(nil)
	_ IDirectoryService                              = (*fakeDirectory)(nil)
	_ IEntityService                                 = (*fakeEntities)(nil)
	_ IIcsService                                    = (*fakeIcs)(nil)
	_ INotificationService                           = (*fakeNotifier)(nil)
)
