package models

import "strings"

// User personel kullanıcısı. Dizin arayüzünün okuduğu asgari alanlar.
type User struct {
	BaseModel
	ParentOrganizationID uint   `gorm:"index;not null"`
	OrganizationID       *uint  `gorm:"index"`
	FirstName            string `gorm:"type:varchar(100);not null"`
	MiddleName           string `gorm:"type:varchar(100)"`
	LastName             string `gorm:"type:varchar(100);not null"`
	Email                string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone                string `gorm:"type:varchar(30)"`
	TimeZone             string `gorm:"type:varchar(64)"`
	PasswordHash         string `gorm:"type:varchar(255)"`
	IsSystem             bool   `gorm:"default:false"`
	IsParentOrgAdmin     bool   `gorm:"default:false"`
	IsEnabled            bool   `gorm:"default:true;index"`
}

// FullName ad + (varsa) ikinci ad baş harfi + soyad.
func (u *User) FullName() string {
	parts := []string{u.FirstName}
	if u.MiddleName != "" {
		parts = append(parts, u.MiddleName[:1])
	}
	parts = append(parts, u.LastName)
	return strings.Join(parts, " ")
}

// GetTimeZone kullanıcı saat dilimi, yoksa verilen varsayılan.
func (u *User) GetTimeZone(fallback string) string {
	if u.TimeZone != "" {
		return u.TimeZone
	}
	return fallback
}

// DepartmentAssignment kullanıcının departman üyeliği.
type DepartmentAssignment struct {
	BaseModel
	UserID       uint `gorm:"index:idx_dept_assign,unique;not null"`
	DepartmentID uint `gorm:"index:idx_dept_assign,unique;not null"`
}
