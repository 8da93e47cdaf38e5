// Package calview takvim görünümleri için zaman aralığı ve günlük yerleşim
// geometrisi hesaplar. Tüm saat aritmetiği çağrı anında verilen saat
// diliminde yapılır; önceden çevrilmiş değer saklanmaz.
package calview

import (
	"errors"
	"time"
)

// Granularity görünüm aralığı türü.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ErrUnknownGranularity bilinmeyen aralık türü.
var ErrUnknownGranularity = errors.New("geçersiz takvim aralığı türü")

// Range odak tarihinden yarı açık [start, end) aralığı üretir.
//   - day:   günün başı .. ertesi günün başı
//   - week:  Pazar başlangıçlı haftanın başı .. sonraki Pazar
//   - month: ayın ilk gününün haftasının Pazar'ı .. son gününün haftasının
//     Cumartesi'sini izleyen Pazar. Ay görünümü böylece her zaman tam
//     haftalardan oluşur (önceki/sonraki aydan taşan günler dahil).
func Range(focus time.Time, g Granularity, loc *time.Location) (time.Time, time.Time, error) {
	day := StartOfDay(focus, loc)
	switch g {
	case GranularityDay:
		return day, day.AddDate(0, 0, 1), nil
	case GranularityWeek:
		start := StartOfWeek(day)
		return start, start.AddDate(0, 0, 7), nil
	case GranularityMonth:
		monthStart := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)
		monthEnd := monthStart.AddDate(0, 1, -1) // Ayın son günü
		start := StartOfWeek(monthStart)
		end := StartOfWeek(monthEnd).AddDate(0, 0, 7)
		return start, end, nil
	default:
		return time.Time{}, time.Time{}, ErrUnknownGranularity
	}
}

// StartOfDay t'nin loc içindeki gün başlangıcı.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// StartOfWeek gün başlangıcı verilen t'nin Pazar başlangıçlı hafta başı.
func StartOfWeek(day time.Time) time.Time {
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// Layout tek günlük grid üzerinde bir etkinlik bloğunun konumu.
// Değerler 1 saatlik satır yüksekliğiyle (rowHeight) çarpılmıştır.
type Layout struct {
	Top    float64
	Height float64
}

// DayLayout etkinliğin focus gününe düşen bloğunun yerleşimini hesaplar.
// focus, loc içinde bir gün başlangıcı olmalıdır. Etkinlik o güne
// değmiyorsa ok=false döner.
func DayLayout(startAt, endAt, focus time.Time, loc *time.Location, rowHeight float64) (Layout, bool) {
	start, end := startAt.In(loc), endAt.In(loc)
	startDate, endDate := StartOfDay(start, loc), StartOfDay(end, loc)
	focusDate := StartOfDay(focus, loc)

	switch {
	case startDate.Equal(endDate): // Aynı gün başlayıp bitiyor
		if !focusDate.Equal(startDate) {
			return Layout{}, false
		}
		return Layout{
			Top:    hoursBetween(startDate, start) * rowHeight,
			Height: hoursBetween(start, end) * rowHeight,
		}, true
	case focusDate.After(startDate) && focusDate.Before(endDate): // Çok günlü etkinliğin ara günü
		return Layout{Top: 0, Height: 24 * rowHeight}, true
	case focusDate.Equal(startDate): // Çok günlü etkinliğin ilk günü
		dayEnd := startDate.AddDate(0, 0, 1)
		return Layout{
			Top:    hoursBetween(startDate, start) * rowHeight,
			Height: hoursBetween(start, dayEnd) * rowHeight,
		}, true
	case focusDate.Equal(endDate): // Çok günlü etkinliğin son günü
		return Layout{Top: 0, Height: hoursBetween(focusDate, end) * rowHeight}, true
	}
	return Layout{}, false
}

func hoursBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours()
}
