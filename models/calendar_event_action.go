package models

// CalendarEventAction etkinliğe bağlı aksiyon konfigürasyonu. Log değil,
// 1:1 "güncel konfigürasyon" yuvasıdır: etkinlik başına en fazla bir
// silinmemiş satır bulunur. Data alanı harici aksiyon yürütücüsünün
// tükettiği opak JSON'dur.
type CalendarEventAction struct {
	BaseModel
	CalendarEventID uint   `gorm:"index;not null"`
	Data            string `gorm:"type:text;not null"`
}
