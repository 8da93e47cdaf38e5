package migrations

import (
	"ajanda.link/configs/configslog"
	"ajanda.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigrateCalendarEventTables(db *gorm.DB) error {
	configslog.SLog.Info("Migrating calendar_events, calendar_event_recipients & calendar_event_actions tables...")
	err := db.AutoMigrate(&models.CalendarEvent{}, &models.CalendarEventRecipient{}, &models.CalendarEventAction{})
	if err != nil {
		configslog.Log.Error("Failed to migrate calendar event tables", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Calendar event tables migrated successfully")
	return nil
}
