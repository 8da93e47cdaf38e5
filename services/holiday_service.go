package services

import (
	"context"
	"time"

	"ajanda.link/models"
	"ajanda.link/repositories"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// FederalHoliday tatil referans kaydı.
type FederalHoliday struct {
	Date time.Time
	Name string
}

// IHolidayService federal tatil referansı ve organizasyonun "holiday" türü
// etkinlikleri. Federal tatiller salt okunur bir takvim kütüphanesinden,
// organizasyon tatilleri etkinlik deposundan gelir.
type IHolidayService interface {
	IsFederalHoliday(date time.Time) (string, bool)
	FederalHolidaysBetween(start, end time.Time) []FederalHoliday
	OrganizationHolidays(ctx context.Context, parentOrgID uint, orgID *uint, start, end time.Time) ([]models.CalendarEvent, error)
}

// HolidayService IHolidayService arayüzünü uygular.
type HolidayService struct {
	calendar *cal.Calendar
	ceRepo   repositories.ICalendarEventRepository
}

// NewHolidayService ABD federal tatil kümesiyle servis oluşturur.
func NewHolidayService() IHolidayService {
	return newHolidayService(repositories.NewCalendarEventRepository())
}

func newHolidayService(ceRepo repositories.ICalendarEventRepository) *HolidayService {
	c := &cal.Calendar{Name: "us-federal"}
	c.AddHoliday(us.Holidays...)
	return &HolidayService{calendar: c, ceRepo: ceRepo}
}

// IsFederalHoliday tarihin federal tatil olup olmadığını, tatilse adını döndürür.
func (s *HolidayService) IsFederalHoliday(date time.Time) (string, bool) {
	actual, _, holiday := s.calendar.IsHoliday(date)
	if actual && holiday != nil {
		return holiday.Name, true
	}
	return "", false
}

// FederalHolidaysBetween [start, end] aralığındaki (gün bazında, uçlar
// dahil) federal tatilleri tarih sıralı döndürür.
func (s *HolidayService) FederalHolidaysBetween(start, end time.Time) []FederalHoliday {
	var res []FederalHoliday
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	for !day.After(last) {
		if name, ok := s.IsFederalHoliday(day); ok {
			res = append(res, FederalHoliday{Date: day, Name: name})
		}
		day = day.AddDate(0, 0, 1)
	}
	return res
}

// OrganizationHolidays organizasyonun aralığa değen "holiday" etkinlikleri.
func (s *HolidayService) OrganizationHolidays(ctx context.Context, parentOrgID uint, orgID *uint, start, end time.Time) ([]models.CalendarEvent, error) {
	return s.ceRepo.FindHolidayEvents(ctx, parentOrgID, orgID, start, end)
}

var _ IHolidayService = (*HolidayService)(nil)
