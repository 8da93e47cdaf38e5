package configs

import (
	"os"
	"time"

	"ajanda.link/configs/configsdatabase"
	"ajanda.link/configs/configslog"

	"gorm.io/gorm"
)

// Uygulama genel varsayılanları.
const (
	// DefaultTimeZoneName etkinlik sahibinin saat dilimi çözülemediğinde kullanılır.
	DefaultTimeZoneName = "America/Los_Angeles"

	// AttachmentPutTimeout ek dosya deposuna yazma için üst sınır.
	// Süre aşılırsa bildirim ek olmadan gönderilir, işlem iptal edilmez.
	AttachmentPutTimeout = 45 * time.Second
)

// GetDB aktif GORM bağlantısını döndürür (configsdatabase üzerinden).
func GetDB() *gorm.DB {
	return configsdatabase.GetDB()
}

// DefaultTimeZone varsayılan saat dilimini yükler.
func DefaultTimeZone() *time.Location {
	name := os.Getenv("DEFAULT_TIME_ZONE")
	if name == "" {
		name = DefaultTimeZoneName
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		configslog.SLog.Warnf("Varsayılan saat dilimi yüklenemedi (%s), UTC kullanılıyor", name)
		return time.UTC
	}
	return loc
}

// SchedsBaseURL harici alıcıların yeniden planlama/iptal linkleri için taban URL.
func SchedsBaseURL() string {
	if v := os.Getenv("SCHEDS_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:3000/scheds"
}

// AttachmentDir ICS dosyalarının yazıldığı dizin.
func AttachmentDir() string {
	if v := os.Getenv("ATTACHMENT_DIR"); v != "" {
		return v
	}
	return os.TempDir()
}
