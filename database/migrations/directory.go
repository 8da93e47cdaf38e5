package migrations

import (
	"ajanda.link/configs/configslog"
	"ajanda.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigrateDirectoryTables(db *gorm.DB) error {
	configslog.SLog.Info("Migrating directory tables (organizations, users, departments, students)...")
	err := db.AutoMigrate(
		&models.ParentOrganization{},
		&models.Organization{},
		&models.Department{},
		&models.User{},
		&models.DepartmentAssignment{},
		&models.Student{},
		&models.StudentLead{},
	)
	if err != nil {
		configslog.Log.Error("Failed to migrate directory tables", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Directory tables migrated successfully")
	return nil
}
