package handlers

import (
	"errors"
	"time"

	"ajanda.link/configs"
	"ajanda.link/configs/configslog"
	"ajanda.link/models"
	"ajanda.link/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ScheduleHandler harici alıcıların e-postadaki linkler üzerinden kendi
// randevularını görüntüleme/yeniden planlama/iptal istekleri. Token,
// etkinlik ID'sinin URL-safe base64 halidir; oturum gerektirmez.
type ScheduleHandler struct {
	service  services.ICalendarEventService
	entities services.IEntityService
}

// NewScheduleHandler yeni bir ScheduleHandler örneği oluşturur.
func NewScheduleHandler(service services.ICalendarEventService) *ScheduleHandler {
	return &ScheduleHandler{service: service, entities: services.NewEntityService()}
}

// resolveEvent token'ı çözüp aktif randevuyu getirir.
func (h *ScheduleHandler) resolveEvent(c *fiber.Ctx) (*models.CalendarEvent, error) {
	id, err := models.DecodeEventID(c.Params("token"))
	if err != nil {
		configslog.SLog.Warnf("Geçersiz randevu token'ı denendi: %s", c.Params("token"))
		return nil, fiber.NewError(fiber.StatusNotFound, "Randevu bulunamadı")
	}
	ce, err := h.service.FindByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrCeNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Randevu bulunamadı")
		}
		configslog.Log.Error("ScheduleHandler: etkinlik getirilemedi", zap.Uint("id", id), zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Randevu bilgileri alınamadı")
	}
	if !ce.IsAppointment() {
		return nil, fiber.NewError(fiber.StatusNotFound, "Randevu bulunamadı")
	}
	return ce, nil
}

// ShowSchedule randevuyu alıcının saat diliminde özetler.
func (h *ScheduleHandler) ShowSchedule(c *fiber.Ctx) error {
	ce, err := h.resolveEvent(c)
	if err != nil {
		return err
	}

	loc := configs.DefaultTimeZone()
	if rcpt, rErr := h.entities.ResolveEventRecipient(c.UserContext(), ce); rErr == nil && rcpt != nil {
		if parsed, lErr := time.LoadLocation(rcpt.GetTimeZone(configs.DefaultTimeZoneName)); lErr == nil {
			loc = parsed
		}
	}

	return c.JSON(fiber.Map{
		"name":              ce.Name,
		"type_of_display":   ce.TypeOf.Display(),
		"location":          ce.Location,
		"date_time_display": ce.DateTimeDisplay(loc, ""),
	})
}

// RescheduleAppointment randevuyu alıcının seçtiği yeni zamana taşır.
func (h *ScheduleHandler) RescheduleAppointment(c *fiber.Ctx) error {
	ce, err := h.resolveEvent(c)
	if err != nil {
		return err
	}

	var body struct {
		StartAt  string `json:"start_at"` // "2006-01-02 15:04"
		TimeZone string `json:"time_zone"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Geçersiz istek gövdesi"})
	}
	loc := configs.DefaultTimeZone()
	if body.TimeZone != "" {
		if parsed, lErr := time.LoadLocation(body.TimeZone); lErr == nil {
			loc = parsed
		}
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", body.StartAt, loc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Geçersiz zaman biçimi"})
	}
	// Süre korunur, sadece başlangıç taşınır.
	end := start.Add(time.Duration(ce.Duration()) * time.Minute)

	updated, err := h.service.RescheduleByRecipient(c.UserContext(), ce.ID, start.UTC(), end.UTC())
	if err != nil {
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": vErr.Error()})
		}
		configslog.Log.Error("ScheduleHandler: yeniden planlama hatası", zap.Uint("id", ce.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Randevu yeniden planlanamadı"})
	}
	return c.JSON(fiber.Map{"message": "Appointment rescheduled.", "start_date": updated.StartAt.Format("2006-01-02")})
}

// CancelAppointment randevuyu alıcı adına iptal eder; deleted_by "self" yazılır.
func (h *ScheduleHandler) CancelAppointment(c *fiber.Ctx) error {
	ce, err := h.resolveEvent(c)
	if err != nil {
		return err
	}

	if err := h.service.CancelByRecipient(c.UserContext(), ce.ID); err != nil {
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": vErr.Error()})
		}
		configslog.Log.Error("ScheduleHandler: iptal hatası", zap.Uint("id", ce.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Randevu iptal edilemedi"})
	}
	return c.JSON(fiber.Map{"message": "Appointment canceled."})
}
