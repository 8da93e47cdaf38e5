package routes

import (
	link_handlers "ajanda.link/handlers/link"

	"github.com/gofiber/fiber/v2"
)

// registerLinkRoutes harici alıcıların public randevu rotalarını tanımlar.
// Token, e-postadaki reschedule/cancel linklerinden gelir; oturum gerekmez.
func registerLinkRoutes(app *fiber.App, deps AppDeps) {
	scheduleHandler := link_handlers.NewScheduleHandler(deps.CalendarEvents)

	schedsGroup := app.Group("/scheds")
	schedsGroup.Get("/reschedule/:token", scheduleHandler.ShowSchedule)           // GET /scheds/reschedule/{token}
	schedsGroup.Post("/reschedule/:token", scheduleHandler.RescheduleAppointment) // POST /scheds/reschedule/{token}
	schedsGroup.Get("/cancel/:token", scheduleHandler.ShowSchedule)               // GET /scheds/cancel/{token}
	schedsGroup.Post("/cancel/:token", scheduleHandler.CancelAppointment)         // POST /scheds/cancel/{token}
}
