package routes

import (
	"strconv"

	"ajanda.link/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	recoverMiddleware "github.com/gofiber/fiber/v2/middleware/recover"
)

// AppDeps rota kurulumunun paylaştığı servisler. main tarafında bir kez
// kurulur, handler'lara buradan dağıtılır.
type AppDeps struct {
	CalendarEvents services.ICalendarEventService
	Ics            services.IIcsService
}

// SetupRoutes tüm uygulama rotalarını ve genel middleware'leri ayarlar.
func SetupRoutes(app *fiber.App, deps AppDeps) {
	app.Use(recoverMiddleware.New()) // Panic yakalama
	app.Use(logger.New())            // İstek loglama
	app.Use(identifyUser())

	registerPanelRoutes(app, deps) // /panel rotaları
	registerLinkRoutes(app, deps)  // /scheds public rotaları

	app.Use(notFoundHandler)
}

// identifyUser kimliği doğrulanmış kullanıcıyı locals'a koyar. Kimlik
// doğrulama dış katmanın işidir; bu servis doğrulanmış kullanıcı ID'sini
// X-User-ID başlığından alır.
func identifyUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if header := c.Get("X-User-ID"); header != "" {
			if id, err := strconv.ParseUint(header, 10, 64); err == nil && id != 0 {
				c.Locals("userID", uint(id))
			}
		}
		return c.Next()
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Kaynak bulunamadı"})
}
