package models

// ParentOrganization en üst organizasyon (tüm kampüsleri kapsar).
type ParentOrganization struct {
	BaseModel
	Name     string `gorm:"type:varchar(255);not null"`
	TimeZone string `gorm:"type:varchar(64)"`
}

// GetTimeZone organizasyon saat dilimi, yoksa verilen varsayılan.
func (o *ParentOrganization) GetTimeZone(fallback string) string {
	if o.TimeZone != "" {
		return o.TimeZone
	}
	return fallback
}

// Organization kampüs.
type Organization struct {
	BaseModel
	ParentOrganizationID uint   `gorm:"index;not null"`
	Name                 string `gorm:"type:varchar(255);not null"`
	Location             string `gorm:"type:varchar(255)"`
	ShortName            string `gorm:"type:varchar(20)"`
	TimeZone             string `gorm:"type:varchar(64)"`
	SmsPhone             string `gorm:"type:varchar(30)"` // Giden SMS'lerde kullanılan hat
}

// GetTimeZone kampüs saat dilimi, yoksa verilen varsayılan.
func (o *Organization) GetTimeZone(fallback string) string {
	if o.TimeZone != "" {
		return o.TimeZone
	}
	return fallback
}

// Department departman (roster'da DEPARTMENT satırlarının hedefi).
type Department struct {
	BaseModel
	ParentOrganizationID uint   `gorm:"index;not null"`
	OrganizationID       *uint  `gorm:"index"`
	Name                 string `gorm:"type:varchar(255);not null"`
}
