package models

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// EventType takvim etkinliği türü.
type EventType string

const (
	EventTypeCampusAppointment       EventType = "campus_appointment"
	EventTypeCampusAppointmentRemote EventType = "campus_appointment_remote"
	EventTypeCampusTour              EventType = "campus_tour"
	EventTypeFinAidAppointment       EventType = "financial_aid_appointment"
	EventTypeFinAidAppointmentRemote EventType = "financial_aid_appointment_remote"
	EventTypeFinAidPackaging         EventType = "financial_aid_packaging"
	EventTypeHoliday                 EventType = "holiday"
	EventTypeMeeting                 EventType = "meeting"
	EventTypeOrientation             EventType = "orientation"
	EventTypeOrientationAppointment  EventType = "orientation_appointment"
	EventTypeOutOfOffice             EventType = "out_of_office"
	EventTypePhoneAppointment        EventType = "phone_appointment"
	EventTypeTestingAppointment      EventType = "testing_appointment"
	EventTypeVacation                EventType = "vacation"
	EventTypeVideoChat               EventType = "video_chat"

	// Genel seçimden hariç tutulur, sadece public takvim istek akışında kullanılır.
	EventTypeExternalAppointment EventType = "external_appointment"
)

// EventTypes seçilebilir tüm etkinlik türleri.
var EventTypes = []EventType{
	EventTypeCampusAppointment, EventTypeCampusAppointmentRemote, EventTypeCampusTour,
	EventTypeFinAidAppointment, EventTypeFinAidAppointmentRemote, EventTypeFinAidPackaging,
	EventTypeHoliday, EventTypeMeeting, EventTypeOrientation, EventTypeOrientationAppointment,
	EventTypeOutOfOffice, EventTypePhoneAppointment, EventTypeTestingAppointment,
	EventTypeVacation, EventTypeVideoChat,
}

// ApptEventTypes alıcı, atanmış personel ve tamamlanma durumu taşıyan türler.
var ApptEventTypes = []EventType{
	EventTypeCampusAppointment, EventTypeCampusAppointmentRemote, EventTypeCampusTour,
	EventTypeFinAidAppointment, EventTypeFinAidAppointmentRemote, EventTypeFinAidPackaging,
	EventTypeOrientationAppointment, EventTypePhoneAppointment, EventTypeTestingAppointment,
	EventTypeVideoChat,
}

// AppointmentStatus randevu tamamlanma durumu.
type AppointmentStatus string

const (
	AppointmentStatusComplete    AppointmentStatus = "complete"
	AppointmentStatusRescheduled AppointmentStatus = "rescheduled"
	AppointmentStatusNoShow      AppointmentStatus = "no_show"
)

// Valid durumun kapalı kümede olup olmadığını kontrol eder.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusComplete, AppointmentStatusRescheduled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// DailyViewRowHeight günlük görünümde 1 saatlik satırın yüksekliği (em).
const DailyViewRowHeight = 5

// ColorDefault türü bilinmeyen etkinlikler için görüntüleme rengi.
const ColorDefault = "blue"

// TypeOfColors tür bazlı görüntüleme renkleri ("fedhol" federal tatil için).
var TypeOfColors = map[string]string{
	"campus_appointment": "#6495ed", "campus_tour": "#05a005", "external_appointment": "grey",
	"fedhol": "darkgreen", "financial_aid_appointment": "maroon", "holiday": "olive",
	"meeting": "purple", "orientation": "darkblue", "out_of_office": "red",
	"phone_appointment": "darkorange", "testing_appointment": "coral",
	"vacation": "#d4b700", "video_chat": "#5f5f5f",
}

// Valid türün bilinen türlerden biri olup olmadığını kontrol eder.
func (t EventType) Valid() bool {
	if t == EventTypeExternalAppointment {
		return true
	}
	for _, et := range EventTypes {
		if t == et {
			return true
		}
	}
	return false
}

// IsAppointment türün randevu alt kümesinde olup olmadığını döndürür.
func (t EventType) IsAppointment() bool {
	for _, et := range ApptEventTypes {
		if t == et {
			return true
		}
	}
	return false
}

// Display türün kullanıcıya gösterilen adı.
func (t EventType) Display() string {
	switch t {
	case EventTypeCampusAppointment:
		return "Campus Appointment - In Person"
	case EventTypeCampusAppointmentRemote:
		return "Campus Appointment - Remote"
	case EventTypeFinAidAppointment:
		return "Financial Aid Appointment - In Person"
	case EventTypeFinAidAppointmentRemote:
		return "Financial Aid Appointment - Remote"
	case EventTypeOrientationAppointment:
		return "Orientation - Appointment"
	default:
		return Titleize(string(t))
	}
}

// Titleize "out_of_office" -> "Out Of Office".
func Titleize(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ExternalRecipientData harici alıcının etkinliğe gömülü anlık görüntüsü.
// Dizin araması yapılmadan olduğu gibi kullanılır.
type ExternalRecipientData struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	TimeZone  string `json:"time_zone"`
}

// FullName boş parçaları atlayarak ad soyad birleştirir.
func (d ExternalRecipientData) FullName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{d.FirstName, d.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// CalendarEvent organizasyon personeli ve alıcılar için takvim etkinliği.
// Randevu türlerinde recipient_type/recipient_id (veya harici alıcı için
// external_rcpt_data) ve appt_user_id dolu olur. all_day sadece randevu
// olmayan türlerde geçerlidir.
type CalendarEvent struct {
	BaseModel
	ParentOrganizationID uint      `gorm:"index;not null"`
	OrganizationID       *uint     `gorm:"index"` // nil = tüm kampüsler
	TypeOf               EventType `gorm:"type:varchar(50);index;not null"`
	Name                 string    `gorm:"type:varchar(255);not null"`
	Location             string    `gorm:"type:varchar(255)"`
	Description          string    `gorm:"type:text"`
	StartAt              time.Time `gorm:"index;not null"` // UTC
	EndAt                time.Time `gorm:"index;not null"` // UTC
	AllDay               bool      `gorm:"default:false"`
	IsPublic             bool      `gorm:"default:false"`

	RecipientType    RecipientEntityType `gorm:"type:varchar(20)"`
	RecipientID      *uint               `gorm:"index"`
	ExternalRcptData string              `gorm:"type:text"` // JSON ExternalRecipientData

	AppointmentStatus   *AppointmentStatus `gorm:"type:varchar(20)"`
	ApptStatusUpdatedAt *time.Time
	ApptUserID          *uint `gorm:"index"` // Atanmış personel

	Recipients []CalendarEventRecipient `gorm:"foreignKey:CalendarEventID"`
	Action     *CalendarEventAction     `gorm:"foreignKey:CalendarEventID"`
}

// IsAppointment etkinliğin randevu türünde olup olmadığı.
func (ce *CalendarEvent) IsAppointment() bool {
	return ce.TypeOf.IsAppointment()
}

// EventColor tür bazlı görüntüleme rengi.
func (ce *CalendarEvent) EventColor() string {
	if c, ok := TypeOfColors[string(ce.TypeOf)]; ok {
		return c
	}
	return ColorDefault
}

// Duration etkinlik süresi (dakika).
func (ce *CalendarEvent) Duration() int {
	return int(ce.EndAt.Sub(ce.StartAt) / time.Minute)
}

// StartDate başlangıcın verilen saat dilimindeki tarihi (00:00).
func (ce *CalendarEvent) StartDate(loc *time.Location) time.Time {
	t := ce.StartAt.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndDate bitişin verilen saat dilimindeki tarihi (00:00).
func (ce *CalendarEvent) EndDate(loc *time.Location) time.Time {
	t := ce.EndAt.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ExternalRecipient gömülü harici alıcı verisini çözer; yoksa nil.
func (ce *CalendarEvent) ExternalRecipient() (*ExternalRecipientData, error) {
	if ce.ExternalRcptData == "" {
		return nil, nil
	}
	var data ExternalRecipientData
	if err := json.Unmarshal([]byte(ce.ExternalRcptData), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// NeedsCompletion durum girilmemiş randevunun tamamlanma zamanının gelip
// gelmediğini döndürür. Durum bir kez girildiyse kalıcı olarak false.
func (ce *CalendarEvent) NeedsCompletion(now time.Time, loc *time.Location) bool {
	if !ce.IsAppointment() || ce.AppointmentStatus != nil {
		return false
	}
	return !now.In(loc).Before(ce.StartAt.In(loc))
}

// DateTimeDisplay başlangıç/bitişi saat diliminde formatlar.
// format "short" -> "7/17/2020", aksi halde "Thursday, Jul 17 2020".
func (ce *CalendarEvent) DateTimeDisplay(loc *time.Location, format string) string {
	startAt, endAt := ce.StartAt.In(loc), ce.EndAt.In(loc)
	fDate := "Monday, Jan 2 2006"
	if format == "short" {
		fDate = "1/2/2006"
	}

	sameDay := startAt.Year() == endAt.Year() && startAt.YearDay() == endAt.YearDay()
	if ce.AllDay { // Tüm gün için sadece tarihler
		if sameDay {
			return startAt.Format(fDate)
		}
		return startAt.Format(fDate) + " - " + endAt.Format(fDate)
	}
	if sameDay { // "Thursday, Jul 17 2020, 1:00PM-2:00PM PDT"
		return startAt.Format(fDate+", 3:04PM") + "-" + endAt.Format("3:04PM MST")
	}
	return startAt.Format(fDate+", 3:04 PM") + " - " + endAt.Format(fDate+", 3:04 PM MST")
}

// TimeDisplay aynı gün başlayıp biten etkinliğin saat aralığı.
func (ce *CalendarEvent) TimeDisplay(loc *time.Location) string {
	if ce.AllDay {
		return "All Day"
	}
	return ce.StartAt.In(loc).Format("3:04 PM") + " - " + ce.EndAt.In(loc).Format("3:04 PM")
}

// DateTimeDisplayCompact tek günlük etkinlikte sadece saat, aksi halde kısa tarihli aralık.
func (ce *CalendarEvent) DateTimeDisplayCompact(loc *time.Location) string {
	if !ce.EndDate(loc).After(ce.StartDate(loc)) {
		return ce.TimeDisplay(loc)
	}
	return ce.DateTimeDisplay(loc, "short")
}

// EventHoverText takvim üzerinde gösterilen özet metin.
func (ce *CalendarEvent) EventHoverText(loc *time.Location, apptUserName, recipientName string) string {
	var b strings.Builder
	b.WriteString(ce.Name)
	if ce.TypeOf != "" {
		b.WriteString(" (" + ce.TypeOf.Display() + ")")
	}
	b.WriteString("\n" + ce.DateTimeDisplay(loc, "short"))
	if ce.IsAppointment() {
		b.WriteString("\nAppointment:\n" + apptUserName + " with " + recipientName)
		if ce.RecipientType != "" {
			b.WriteString(" (" + ce.RecipientType.Display() + ")")
		}
	}
	return b.String()
}

// DataID randevu etiketleme/aksiyon aramalarında kullanılan kimlik.
func (ce *CalendarEvent) DataID() string {
	return "clevt" + strconv.FormatUint(uint64(ce.ID), 10)
}

// EncodedID public linklerde kullanılan URL-safe kimlik.
func (ce *CalendarEvent) EncodedID() string {
	return base64.URLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(ce.ID), 10)))
}

// DecodeEventID EncodedID'nin tersi.
func DecodeEventID(token string) (uint, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// RescheduleURL harici alıcının yeniden planlama linki.
func (ce *CalendarEvent) RescheduleURL(baseURL string) string {
	if ce.ID == 0 {
		return ""
	}
	return baseURL + "/reschedule/" + ce.EncodedID()
}

// CancelURL harici alıcının iptal linki.
func (ce *CalendarEvent) CancelURL(baseURL string) string {
	if ce.ID == 0 {
		return ""
	}
	return baseURL + "/cancel/" + ce.EncodedID()
}

// SortByStartDate etkinlikleri başlangıç tarihine göre gruplar:
// {"8/8/2020": [events], ...}
func SortByStartDate(events []CalendarEvent, loc *time.Location) map[string][]CalendarEvent {
	res := make(map[string][]CalendarEvent, len(events))
	for _, ce := range events {
		key := ce.StartAt.In(loc).Format("1/2/2006")
		res[key] = append(res[key], ce)
	}
	return res
}
