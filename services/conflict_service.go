package services

import (
	"context"
	"strings"
	"time"

	"ajanda.link/configs/configslog"
	"ajanda.link/models"
	"ajanda.link/repositories"

	"go.uber.org/zap"
)

// ConflictNotices kategori -> uyarı satırları. Boş kategoriler haritada yer
// almaz. Uyarılar tamamen bilgilendirme amaçlıdır; dolu bir sonuç hiçbir
// yazma işlemini engellemez, onay için çağırana gösterilir.
type ConflictNotices map[string][]string

// AvailabilityQuery aday [start, end) aralığı için kontrol girdisi.
type AvailabilityQuery struct {
	ParentOrganizationID uint
	OrganizationID       *uint
	Start                time.Time
	End                  time.Time
	Location             *time.Location // Uyarı metinlerinin saat dilimi

	Roster         []RosterEntry // İlgili personel/departmanlar
	RecipientType  models.RecipientEntityType
	RecipientID    uint
	ExcludeEventID uint // Düzenlenen etkinlik kontrollerden hariç tutulur
}

// IConflictService tatil/çakışma ön kontrolleri.
type IConflictService interface {
	CheckAvailability(ctx context.Context, q AvailabilityQuery) (ConflictNotices, error)
}

// ConflictService IConflictService arayüzünü uygular.
type ConflictService struct {
	ceRepo     repositories.ICalendarEventRepository
	dirService IDirectoryService
	holidays   IHolidayService
	entities   IEntityService
}

// NewConflictService yeni bir ConflictService örneği oluşturur.
func NewConflictService() IConflictService {
	return &ConflictService{
		ceRepo:     repositories.NewCalendarEventRepository(),
		dirService: NewDirectoryService(),
		holidays:   NewHolidayService(),
		entities:   NewEntityService(),
	}
}

func newConflictService(ceRepo repositories.ICalendarEventRepository, dir IDirectoryService, holidays IHolidayService, entities IEntityService) *ConflictService {
	return &ConflictService{ceRepo: ceRepo, dirService: dir, holidays: holidays, entities: entities}
}

// CheckAvailability dört kategoriyi sırayla doldurur: federal tatiller,
// organizasyon tatilleri, kullanıcı çakışmaları, alıcı çakışmaları.
func (s *ConflictService) CheckAvailability(ctx context.Context, q AvailabilityQuery) (ConflictNotices, error) {
	notices := make(ConflictNotices)
	loc := q.Location
	if loc == nil {
		loc = time.UTC
	}

	// Federal tatiller: aralığın değdiği tüm takvim günleri.
	fedHols := s.holidays.FederalHolidaysBetween(q.Start.In(loc), q.End.In(loc).Add(-time.Nanosecond))
	if len(fedHols) > 0 {
		key := "Federal Holiday"
		if len(fedHols) > 1 {
			key = "Federal Holidays"
		}
		for _, h := range fedHols {
			notices[key] = append(notices[key], h.Date.Format("01/02/2006")+" - "+h.Name)
		}
	}

	// Organizasyonun "holiday" türü etkinlikleri.
	orgHols, err := s.holidays.OrganizationHolidays(ctx, q.ParentOrganizationID, q.OrganizationID, q.Start, q.End)
	if err != nil {
		return nil, err
	}
	for _, h := range orgHols {
		notices["Organization Holidays"] = append(notices["Organization Holidays"],
			h.StartAt.In(loc).Format("01/02/2006")+" - "+h.Name)
	}

	// İlgili kullanıcıların çakışan etkinlikleri (view_only hariç).
	roster := make([]models.CalendarEventRecipient, 0, len(q.Roster))
	for _, e := range q.Roster {
		roster = append(roster, models.CalendarEventRecipient{EntityType: e.EntityType, EntityID: e.EntityID, ViewOnly: e.ViewOnly})
	}
	userIDs, err := s.dirService.CollectRosterUserIDs(ctx, roster)
	if err != nil {
		return nil, err
	}
	users, err := s.dirService.ResolveUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	for i := range users {
		user := users[i]
		overlaps, err := s.ceRepo.FindOverlapping(ctx, repositories.OverlapQuery{
			Start: q.Start, End: q.End, ExcludeEventID: q.ExcludeEventID, UserID: &user.ID,
		})
		if err != nil {
			return nil, err
		}
		if len(overlaps) > 0 {
			notices["User Calendar Events"] = append(notices["User Calendar Events"],
				user.FullName()+" - "+joinEventDisplays(overlaps, loc))
		}
	}

	// Belirlenmiş alıcının kendi çakışmaları.
	if q.RecipientType != "" && q.RecipientID != 0 {
		rcpt, err := s.entities.ResolveEntity(ctx, q.RecipientType, q.RecipientID)
		if err != nil {
			// Alıcı çözülemiyorsa uyarı üretilmez; kontrol bilgilendirme amaçlı.
			configslog.Log.Warn("Çakışma kontrolü: alıcı çözümlenemedi",
				zap.String("type", string(q.RecipientType)), zap.Uint("id", q.RecipientID), zap.Error(err))
		} else {
			overlaps, err := s.ceRepo.FindOverlapping(ctx, repositories.OverlapQuery{
				Start: q.Start, End: q.End, ExcludeEventID: q.ExcludeEventID,
				RecipientType: q.RecipientType, RecipientID: q.RecipientID,
			})
			if err != nil {
				return nil, err
			}
			if len(overlaps) > 0 {
				key := "Recipient Appointment"
				if len(overlaps) > 1 {
					key = "Recipient Appointments"
				}
				notices[key] = append(notices[key], rcpt.FullName()+" - "+joinEventDisplays(overlaps, loc))
			}
		}
	}

	return notices, nil
}

func joinEventDisplays(events []models.CalendarEvent, loc *time.Location) string {
	displays := make([]string, 0, len(events))
	for i := range events {
		displays = append(displays, events[i].DateTimeDisplay(loc, "short"))
	}
	return strings.Join(displays, ", ")
}

var _ IConflictService = (*ConflictService)(nil)
