package models

import "strings"

// Student randevu alıcısı olabilen öğrenci kaydı.
type Student struct {
	BaseModel
	OrganizationID uint   `gorm:"index;not null"`
	FirstName      string `gorm:"type:varchar(100);not null"`
	LastName       string `gorm:"type:varchar(100);not null"`
	InternalID     string `gorm:"type:varchar(30);index"` // Okul numarası
	Email          string `gorm:"type:varchar(255)"`
	Phone          string `gorm:"type:varchar(30)"`
	TimeZone       string `gorm:"type:varchar(64)"`
	DoNotText      bool   `gorm:"default:false"`
}

// FullName ad soyad.
func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// StudentLead henüz kayıt olmamış aday öğrenci.
type StudentLead struct {
	BaseModel
	OrganizationID uint   `gorm:"index;not null"`
	FirstName      string `gorm:"type:varchar(100);not null"`
	LastName       string `gorm:"type:varchar(100);not null"`
	InternalID     string `gorm:"type:varchar(30);index"`
	Email          string `gorm:"type:varchar(255)"`
	Phone          string `gorm:"type:varchar(30)"`
	TimeZone       string `gorm:"type:varchar(64)"`
	DoNotText      bool   `gorm:"default:false"`
}

// FullName ad soyad.
func (s *StudentLead) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}
