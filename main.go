package main

import (
	"os"
	"os/signal"
	"syscall"

	"ajanda.link/configs"
	"ajanda.link/configs/configsdatabase"
	"ajanda.link/configs/configslog"
	"ajanda.link/pkg/attachstore"
	"ajanda.link/routes"
	"ajanda.link/services"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env opsiyonel; ortam değişkenleri doğrudan da verilebilir.
	_ = godotenv.Load()

	configslog.InitLogger()
	defer configslog.SyncLogger()

	configsdatabase.InitDB()
	defer configsdatabase.CloseDB()

	store, err := attachstore.NewFileStore(configs.AttachmentDir())
	if err != nil {
		configslog.Log.Fatal("Ek dosya deposu açılamadı", zap.Error(err))
	}

	icsService := services.NewIcsService(store)
	notificationService := services.NewNotificationService(
		icsService,
		services.LogEmailTransport{},
		services.LogSmsTransport{},
		services.AllowAllTextRegistry{},
	)
	calendarEventService := services.NewCalendarEventService(notificationService, icsService, services.LogActionExecutor{})

	app := fiber.New()
	routes.SetupRoutes(app, routes.AppDeps{
		CalendarEvents: calendarEventService,
		Ics:            icsService,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		configslog.SLog.Info("Kapatma sinyali alındı, sunucu durduruluyor...")
		_ = app.Shutdown()
	}()

	addr := ":" + envOr("APP_PORT", "3000")
	configslog.SLog.Infof("Sunucu %s adresinde dinliyor", addr)
	if err := app.Listen(addr); err != nil {
		configslog.Log.Fatal("Sunucu başlatılamadı", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
