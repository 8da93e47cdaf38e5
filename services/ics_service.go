package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ajanda.link/configs"
	"ajanda.link/configs/configslog"
	"ajanda.link/models"
	"ajanda.link/pkg/attachstore"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
)

const icsContentType = "text/calendar"

// IIcsService etkinlik için takvim dosyası (ICS) üretimi ve ek deposu
// yönetimi. Üretim deterministiktir: aynı etkinlik alanları her çağrıda
// bayt bayt aynı çıktıyı verir.
type IIcsService interface {
	Generate(ce *models.CalendarEvent, creator *models.User, org *models.Organization) ([]byte, string, error)
	GenerateAndStore(ctx context.Context, ce *models.CalendarEvent, creator *models.User, org *models.Organization) (*attachstore.Ref, error)
	StoredAttachment(ctx context.Context, eventID uint) (*attachstore.Ref, error)
	DeleteAttachment(ctx context.Context, eventID uint) error
}

// IcsService IIcsService arayüzünü uygular.
type IcsService struct {
	store attachstore.Store
}

// NewIcsService verilen depoyla servis oluşturur.
func NewIcsService(store attachstore.Store) IIcsService {
	return &IcsService{store: store}
}

// Generate ICS içeriğini ve dosya adını üretir. Zamanlar etkinlik
// sahibinin saat diliminde, sahip çözülemezse varsayılan dilimde yazılır.
// DTSTAMP etkinliğin son güncelleme anına sabitlenir, böylece aynı girdiler
// her zaman aynı çıktıyı verir.
func (s *IcsService) Generate(ce *models.CalendarEvent, creator *models.User, org *models.Organization) ([]byte, string, error) {
	tzName := configs.DefaultTimeZoneName
	if creator != nil {
		tzName = creator.GetTimeZone(tzName)
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		configslog.SLog.Warnf("ICS saat dilimi yüklenemedi (%s), varsayılan kullanılıyor", tzName)
		loc = configs.DefaultTimeZone()
	}
	tzid := loc.String()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	event := cal.AddEvent(fmt.Sprintf("%s@ajanda.link", ce.DataID()))
	event.SetDtStampTime(ce.UpdatedAt.UTC())
	event.SetProperty(ics.ComponentPropertyDtStart, ce.StartAt.In(loc).Format("20060102T150405"),
		&ics.KeyValues{Key: "TZID", Value: []string{tzid}})
	event.SetProperty(ics.ComponentPropertyDtEnd, ce.EndAt.In(loc).Format("20060102T150405"),
		&ics.KeyValues{Key: "TZID", Value: []string{tzid}})

	summary := ce.Name
	if org != nil && org.ShortName != "" {
		summary = "[" + org.ShortName + "] " + summary
	}
	event.SetSummary(summary)
	if ce.Description != "" {
		event.SetDescription(ce.Description)
	}
	if ce.Location != "" {
		event.SetLocation(ce.Location)
	}
	if creator != nil && creator.Email != "" {
		event.SetOrganizer("mailto:"+creator.Email, ics.WithCN(creator.FullName()))
	}

	start := ce.StartAt.In(loc)
	filename := sanitizeFileName(fmt.Sprintf("%s %d-%d-%d", ce.Name, int(start.Month()), start.Day(), start.Year())) + ".ics"
	return []byte(cal.Serialize()), filename, nil
}

// GenerateAndStore içeriği üretip depoya yazar; önceki ek varsa yerine
// geçer. Depo yazımı zaman sınırına tabidir, aşılırsa hata döner ve
// çağıran taraf eksiz devam eder.
func (s *IcsService) GenerateAndStore(ctx context.Context, ce *models.CalendarEvent, creator *models.User, org *models.Organization) (*attachstore.Ref, error) {
	data, filename, err := s.Generate(ce, creator, org)
	if err != nil {
		return nil, err
	}

	putCtx, cancel := context.WithTimeout(ctx, configs.AttachmentPutTimeout)
	defer cancel()
	ref, err := s.store.Put(putCtx, data, attachstore.Metadata{EventID: ce.ID, FileName: filename, ContentType: icsContentType})
	if err != nil {
		configslog.Log.Error("ICS dosyası depoya yazılamadı",
			zap.Uint("eventID", ce.ID), zap.String("filename", filename), zap.Error(err))
		return nil, err
	}
	return ref, nil
}

// StoredAttachment etkinliğin kayıtlı ekini döndürür; yoksa (nil, nil).
func (s *IcsService) StoredAttachment(ctx context.Context, eventID uint) (*attachstore.Ref, error) {
	ref, err := s.store.Get(ctx, eventID)
	if err != nil {
		if err == attachstore.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return ref, nil
}

// DeleteAttachment etkinliğin ekini depodan siler; ek yoksa işlem yok.
func (s *IcsService) DeleteAttachment(ctx context.Context, eventID uint) error {
	ref, err := s.store.Get(ctx, eventID)
	if err != nil {
		if err == attachstore.ErrNotFound {
			return nil
		}
		return err
	}
	return s.store.Delete(ctx, ref)
}

// sanitizeFileName dosya adı için güvenli olmayan karakterleri alt çizgiye çevirir.
func sanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == ' ', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimSpace(b.String())
}

var _ IIcsService = (*IcsService)(nil)
