package handlers // handlers/panel paketi

import (
	"errors"
	"time"

	"ajanda.link/configs"
	"ajanda.link/configs/configslog"
	"ajanda.link/models"
	"ajanda.link/pkg/calview"
	"ajanda.link/pkg/queryparams"
	"ajanda.link/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// calendarEventRequest create/update isteğinin gövdesi. Tarih/saat alanları
// time_zone'daki yerel saat olarak gelir, servis katmanına UTC geçilir.
type calendarEventRequest struct {
	OrganizationID *uint  `json:"organization_id"`
	TypeOf         string `json:"type_of"`
	Name           string `json:"name"`
	Location       string `json:"location"`
	Description    string `json:"description"`
	StartAt        string `json:"start_at"` // "2006-01-02 15:04"
	EndAt          string `json:"end_at"`
	TimeZone       string `json:"time_zone"`
	AllDay         bool   `json:"all_day"`
	IsPublic       bool   `json:"is_public"`

	RecipientType    string `json:"recipient_type"`
	RecipientID      *uint  `json:"recipient_id"`
	ExternalRcptData string `json:"external_rcpt_data"`
	ApptUserID       *uint  `json:"appt_user_id"`

	// "USER-3-true-false|DEPARTMENT-7-false-false" biçiminde roster dizisi.
	Recipients string `json:"calendar_event_recipients"`
	ActionData string `json:"calendar_event_action_data"`

	EmailNotices bool   `json:"email_notices"`
	TextNotices  string `json:"text_notices"` // "", "recipient", "all"
}

// PanelCalendarEventHandler panel takvim uçları için handler.
type PanelCalendarEventHandler struct {
	service    services.ICalendarEventService
	conflicts  services.IConflictService
	holidays   services.IHolidayService
	dirService services.IDirectoryService
	entities   services.IEntityService
	ics        services.IIcsService
}

// NewPanelCalendarEventHandler yeni bir PanelCalendarEventHandler örneği oluşturur.
func NewPanelCalendarEventHandler(service services.ICalendarEventService, icsService services.IIcsService) *PanelCalendarEventHandler {
	return &PanelCalendarEventHandler{
		service:    service,
		conflicts:  services.NewConflictService(),
		holidays:   services.NewHolidayService(),
		dirService: services.NewDirectoryService(),
		entities:   services.NewEntityService(),
		ics:        icsService,
	}
}

// currentUser oturum middleware'inin koyduğu userID üzerinden kullanıcıyı çözer.
func (h *PanelCalendarEventHandler) currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, ok := c.Locals("userID").(uint)
	if !ok || userID == 0 {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Oturum bulunamadı")
	}
	return h.dirService.ResolveUser(c.UserContext(), userID)
}

// ShowCalendarEvent etkinlik detayını kullanıcının saat diliminde döndürür.
func (h *PanelCalendarEventHandler) ShowCalendarEvent(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Geçersiz ID"})
	}

	ce, err := h.service.FindByID(c.UserContext(), uint(id))
	if err != nil {
		return h.renderError(c, err)
	}
	loc := userLocation(user)

	recipientDisplay := ""
	if rcpt, rErr := h.entities.ResolveEventRecipient(c.UserContext(), ce); rErr == nil && rcpt != nil {
		recipientDisplay = rcpt.Display()
	}

	return c.JSON(fiber.Map{
		"calendar_event":    ce,
		"type_of_display":   ce.TypeOf.Display(),
		"date_time_display": ce.DateTimeDisplay(loc, ""),
		"color":             ce.EventColor(),
		"recipient":         recipientDisplay,
		"needs_completion":  ce.NeedsCompletion(time.Now(), loc),
	})
}

// ListCalendarEvents gün/hafta/ay görünümü için etkinlikleri döndürür.
// Gün görünümünde her etkinlik için yerleşim geometrisi de hesaplanır.
func (h *PanelCalendarEventHandler) ListCalendarEvents(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	loc := userLocation(user)

	focus := time.Now().In(loc)
	if d := c.Query("date"); d != "" {
		parsed, pErr := time.ParseInLocation("2006-01-02", d, loc)
		if pErr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Geçersiz tarih"})
		}
		focus = parsed
	}
	granularity := calview.Granularity(c.Query("granularity", string(calview.GranularityMonth)))

	var params queryparams.ListParams
	if err := c.QueryParser(&params); err != nil {
		params = queryparams.DefaultListParams("start_at")
	}
	params.Validate()

	events, total, err := h.service.ListRange(c.UserContext(), user.ParentOrganizationID, focus, granularity, loc, params)
	if err != nil {
		return h.renderError(c, err)
	}

	type eventView struct {
		models.CalendarEvent
		Color      string          `json:"color"`
		HoverText  string          `json:"hover_text"`
		Display    string          `json:"date_time_display"`
		Layout     *calview.Layout `json:"layout,omitempty"`
		DataID     string          `json:"data_id"`
		TypeOfName string          `json:"type_of_display"`
	}
	views := make([]eventView, 0, len(events))
	for i := range events {
		ce := events[i]
		view := eventView{
			CalendarEvent: ce,
			Color:         ce.EventColor(),
			HoverText:     ce.EventHoverText(loc, "", ""),
			Display:       ce.DateTimeDisplay(loc, "short"),
			DataID:        ce.DataID(),
			TypeOfName:    ce.TypeOf.Display(),
		}
		if granularity == calview.GranularityDay {
			if layout, ok := calview.DayLayout(ce.StartAt, ce.EndAt, focus, loc, models.DailyViewRowHeight); ok {
				view.Layout = &layout
			}
		}
		views = append(views, view)
	}

	return c.JSON(fiber.Map{
		"calendar_events": views,
		"meta":            params.Meta(total),
		"start_date":      focus.Format("2006-01-02"),
	})
}

// CreateCalendarEvent yeni etkinlik oluşturur.
func (h *PanelCalendarEventHandler) CreateCalendarEvent(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	input, err := h.buildInput(c, user)
	if err != nil {
		return h.renderError(c, err)
	}

	ce, err := h.service.Create(c.UserContext(), *input, user)
	if err != nil {
		configslog.Log.Error("Panel - CreateCalendarEvent hatası", zap.Uint("userID", user.ID), zap.Error(err))
		return h.renderError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Event created.", "calendar_event": ce, "start_date": ce.StartAt.Format("2006-01-02")})
}

// UpdateCalendarEvent mevcut etkinliği günceller.
func (h *PanelCalendarEventHandler) UpdateCalendarEvent(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Geçersiz ID"})
	}
	input, err := h.buildInput(c, user)
	if err != nil {
		return h.renderError(c, err)
	}

	ce, err := h.service.Update(c.UserContext(), uint(id), *input, user)
	if err != nil {
		configslog.Log.Error("Panel - UpdateCalendarEvent hatası", zap.Int("id", id), zap.Uint("userID", user.ID), zap.Error(err))
		return h.renderError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Event updated.", "calendar_event": ce, "start_date": ce.StartAt.Format("2006-01-02")})
}

// DeleteCalendarEvent etkinliği iptal eder.
func (h *PanelCalendarEventHandler) DeleteCalendarEvent(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Geçersiz ID"})
	}

	if err := h.service.Delete(c.UserContext(), uint(id), user); err != nil {
		configslog.Log.Error("Panel - DeleteCalendarEvent hatası", zap.Int("id", id), zap.Uint("userID", user.ID), zap.Error(err))
		return h.renderError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Event removed."})
}

// UpdateAppointmentStatus randevu durumunu günceller.
func (h *PanelCalendarEventHandler) UpdateAppointmentStatus(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Geçersiz ID"})
	}
	var body struct {
		AppointmentStatus string `json:"appointment_status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Geçersiz istek gövdesi"})
	}

	ce, err := h.service.SetAppointmentStatus(c.UserContext(), uint(id), models.AppointmentStatus(body.AppointmentStatus), user)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Appointment status updated.", "calendar_event": ce})
}

// CheckAvailability seçilen aralık için tatil/çakışma ön kontrolü.
// Sonuç bilgilendirme amaçlıdır, kayıt işlemini engellemez.
func (h *PanelCalendarEventHandler) CheckAvailability(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	loc := userLocation(user)

	start, err := parseEventTime(c.Query("start_at"), loc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Geçersiz başlangıç zamanı"})
	}
	end, err := parseEventTime(c.Query("end_at"), loc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Geçersiz bitiş zamanı"})
	}
	roster, err := services.ParseRosterString(c.Query("calendar_event_recipients"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	query := services.AvailabilityQuery{
		ParentOrganizationID: user.ParentOrganizationID,
		Start:                start.UTC(),
		End:                  end.UTC(),
		Location:             loc,
		Roster:               roster,
	}
	if orgID := uint(c.QueryInt("organization_id")); orgID != 0 {
		query.OrganizationID = &orgID
	}
	if rcptID := uint(c.QueryInt("recipient_id")); rcptID != 0 {
		query.RecipientType = models.RecipientEntityType(c.Query("recipient_type"))
		query.RecipientID = rcptID
	}
	if excludeID := uint(c.QueryInt("id")); excludeID != 0 {
		query.ExcludeEventID = excludeID
	}

	notices, err := h.conflicts.CheckAvailability(c.UserContext(), query)
	if err != nil {
		configslog.Log.Error("Panel - CheckAvailability hatası", zap.Uint("userID", user.ID), zap.Error(err))
		return h.renderError(c, err)
	}
	return c.JSON(fiber.Map{"notices": notices})
}

// HolidayList yılın federal tatillerini döndürür.
func (h *PanelCalendarEventHandler) HolidayList(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	loc := userLocation(user)

	year := c.QueryInt("year", time.Now().In(loc).Year())
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, loc)

	holidays := h.holidays.FederalHolidaysBetween(start, end)
	type holidayView struct {
		Date string `json:"date"`
		Name string `json:"name"`
	}
	views := make([]holidayView, 0, len(holidays))
	for _, hol := range holidays {
		views = append(views, holidayView{Date: hol.Date.Format("2006-01-02"), Name: hol.Name})
	}
	return c.JSON(fiber.Map{"holidays": views, "year": year})
}

// DownloadIcs etkinliğin takvim dosyasını indirir.
func (h *PanelCalendarEventHandler) DownloadIcs(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Geçersiz ID"})
	}

	ce, err := h.service.FindByID(c.UserContext(), uint(id))
	if err != nil {
		return h.renderError(c, err)
	}
	var org *models.Organization
	if ce.OrganizationID != nil {
		org, _ = h.dirService.ResolveOrganization(c.UserContext(), *ce.OrganizationID)
	}

	data, filename, err := h.ics.Generate(ce, user, org)
	if err != nil {
		configslog.Log.Error("Panel - DownloadIcs hatası", zap.Int("id", id), zap.Error(err))
		return h.renderError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/calendar")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// buildInput istek gövdesini servis girdisine çevirir; tüm gün etkinlikleri
// yerel 00:00-23:55 aralığına oturtulur.
func (h *PanelCalendarEventHandler) buildInput(c *fiber.Ctx, user *models.User) (*services.CalendarEventInput, error) {
	var req calendarEventRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, &services.ValidationError{Field: "body", Message: "geçersiz istek gövdesi"}
	}

	loc := userLocation(user)
	if req.TimeZone != "" {
		if parsed, err := time.LoadLocation(req.TimeZone); err == nil {
			loc = parsed
		}
	}
	start, err := parseEventTime(req.StartAt, loc)
	if err != nil {
		return nil, &services.ValidationError{Field: "start_at", Message: "geçersiz zaman biçimi"}
	}
	end, err := parseEventTime(req.EndAt, loc)
	if err != nil {
		return nil, &services.ValidationError{Field: "end_at", Message: "geçersiz zaman biçimi"}
	}
	if req.AllDay {
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		end = time.Date(end.Year(), end.Month(), end.Day(), 23, 55, 0, 0, loc)
	}

	roster, err := services.ParseRosterString(req.Recipients)
	if err != nil {
		return nil, &services.ValidationError{Field: "calendar_event_recipients", Message: err.Error()}
	}

	return &services.CalendarEventInput{
		ParentOrganizationID: user.ParentOrganizationID,
		OrganizationID:       req.OrganizationID,
		TypeOf:               models.EventType(req.TypeOf),
		Name:                 req.Name,
		Location:             req.Location,
		Description:          req.Description,
		StartAt:              start.UTC(),
		EndAt:                end.UTC(),
		AllDay:               req.AllDay,
		IsPublic:             req.IsPublic,
		RecipientType:        models.RecipientEntityType(req.RecipientType),
		RecipientID:          req.RecipientID,
		ExternalRcptData:     req.ExternalRcptData,
		ApptUserID:           req.ApptUserID,
		Roster:               roster,
		ActionData:           req.ActionData,
		EmailNotices:         req.EmailNotices,
		TextNotices:          req.TextNotices,
	}, nil
}

// renderError servis hatalarını HTTP durum kodlarına eşler.
func (h *PanelCalendarEventHandler) renderError(c *fiber.Ctx, err error) error {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": vErr.Error()})
	case errors.Is(err, services.ErrCeNotFound), errors.Is(err, services.ErrEntityNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, services.ErrCeAccessDenied):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Beklenmeyen bir hata oluştu"})
	}
}

// parseEventTime "2006-01-02 15:04" veya RFC3339 biçimini kabul eder.
func parseEventTime(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("boş zaman değeri")
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", value, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// userLocation kullanıcının saat dilimini yükler.
func userLocation(user *models.User) *time.Location {
	loc, err := time.LoadLocation(user.GetTimeZone(configs.DefaultTimeZoneName))
	if err != nil {
		return configs.DefaultTimeZone()
	}
	return loc
}
