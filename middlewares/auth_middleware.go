package middlewares

import (
	"github.com/gofiber/fiber/v2"
)

// RequireUser kimliği doğrulanmış kullanıcı gerektiren rotalar için
// middleware. Kimlik doğrulama dış katmandadır; burada sadece locals'taki
// userID'nin varlığı kontrol edilir.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userID").(uint)
		if !ok || userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Oturum bulunamadı"})
		}
		return c.Next()
	}
}
