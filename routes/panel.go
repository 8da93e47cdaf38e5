package routes

import (
	panel_handlers "ajanda.link/handlers/panel"
	"ajanda.link/middlewares"

	"github.com/gofiber/fiber/v2"
)

// registerPanelRoutes /panel altındaki takvim rotalarını tanımlar.
// Kimliği doğrulanmış personel gerektirir.
func registerPanelRoutes(app *fiber.App, deps AppDeps) {
	calendarEventHandler := panel_handlers.NewPanelCalendarEventHandler(deps.CalendarEvents, deps.Ics)

	panelGroup := app.Group("/panel")
	panelGroup.Use(middlewares.RequireUser())

	// --- Takvim Etkinlikleri ---
	panelGroup.Get("/calendar_events", calendarEventHandler.ListCalendarEvents)           // GET /panel/calendar_events?date=&granularity=
	panelGroup.Get("/calendar_events/info", calendarEventHandler.CheckAvailability)       // GET /panel/calendar_events/info (tatil/çakışma ön kontrolü)
	panelGroup.Get("/calendar_events/holidays", calendarEventHandler.HolidayList)         // GET /panel/calendar_events/holidays?year=
	panelGroup.Get("/calendar_events/:id", calendarEventHandler.ShowCalendarEvent)        // GET /panel/calendar_events/{id}
	panelGroup.Get("/calendar_events/:id/ics", calendarEventHandler.DownloadIcs)          // GET /panel/calendar_events/{id}/ics
	panelGroup.Post("/calendar_events", calendarEventHandler.CreateCalendarEvent)         // POST /panel/calendar_events
	panelGroup.Put("/calendar_events/:id", calendarEventHandler.UpdateCalendarEvent)      // PUT /panel/calendar_events/{id}
	panelGroup.Delete("/calendar_events/:id", calendarEventHandler.DeleteCalendarEvent)   // DELETE /panel/calendar_events/{id}
	panelGroup.Patch("/calendar_events/:id/status", calendarEventHandler.UpdateAppointmentStatus) // PATCH /panel/calendar_events/{id}/status
}
