package seeders

import (
	"errors"
	"os"

	"ajanda.link/configs/configslog"
	"ajanda.link/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedSystemUser audit kolonlarının işaret ettiği sistem kullanıcısını
// oluşturur (ID 1 beklenir). Parola SYSTEM_USER_PASSWORD ortam değişkeninden
// okunur, yoksa kullanıcı parolasız (girişe kapalı) oluşturulur.
func SeedSystemUser(db *gorm.DB) error {
	var existing models.User
	result := db.Where("is_system = ?", true).First(&existing)
	if result.Error == nil {
		configslog.SLog.Debug("Sistem kullanıcısı zaten mevcut, oluşturma atlanıyor.")
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		configslog.Log.Error("Sistem kullanıcısı kontrol edilirken veritabanı hatası", zap.Error(result.Error))
		return result.Error
	}

	var parentOrg models.ParentOrganization
	if err := db.First(&parentOrg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			parentOrg = models.ParentOrganization{Name: "System", TimeZone: "America/Los_Angeles"}
			if err := db.Create(&parentOrg).Error; err != nil {
				configslog.Log.Error("Varsayılan parent organization oluşturulamadı", zap.Error(err))
				return err
			}
		} else {
			return err
		}
	}

	user := models.User{
		ParentOrganizationID: parentOrg.ID,
		FirstName:            "System",
		LastName:             "User",
		Email:                "system@ajanda.link",
		IsSystem:             true,
		IsEnabled:            true,
	}
	if password := os.Getenv("SYSTEM_USER_PASSWORD"); password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			configslog.Log.Error("Sistem kullanıcısı parolası hashlenemedi", zap.Error(err))
			return err
		}
		user.PasswordHash = string(hash)
	}

	if err := db.Create(&user).Error; err != nil {
		configslog.Log.Error("Sistem kullanıcısı oluşturulamadı", zap.Error(err))
		return err
	}
	configslog.SLog.Infof("Sistem kullanıcısı oluşturuldu (ID: %d).", user.ID)
	return nil
}
