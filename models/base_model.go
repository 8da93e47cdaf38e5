package models

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

type contextKey string

// ContextUserIDKey işlemi yapan kullanıcının ID'sini context üzerinden
// BaseModel hook'larına taşır.
const ContextUserIDKey contextKey = "ctx_user_id"

// ContextWithUserID hook'ların kullanacağı kullanıcı ID'sini context'e ekler.
func ContextWithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, ContextUserIDKey, userID)
}

// UserIDFromContext context'teki kullanıcı ID'sini okur.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(ContextUserIDKey).(uint)
	return id, ok
}

// ActorKind silme işlemini yapan tarafın türü.
type ActorKind int

const (
	ActorNone      ActorKind = iota // Silinmemiş
	ActorStaff                      // Personel (user id ile)
	ActorRecipient                  // Alıcının kendisi (harici randevu iptali)
)

// Actor deleted_by sütununun tipli karşılığıdır. Orijinal tasarımdaki
// "0 = alıcı sildi" sentinel değeri yerine kapalı bir varyant kullanılır;
// böylece gerçek bir kullanıcı ID'si ile çakışma olmaz.
// Veritabanında "user:123", "self" veya NULL olarak saklanır.
type Actor struct {
	Kind   ActorKind
	UserID uint
}

// StaffActor personel tarafından silme.
func StaffActor(userID uint) Actor {
	return Actor{Kind: ActorStaff, UserID: userID}
}

// RecipientActor alıcının kendi kaydını iptal etmesi.
func RecipientActor() Actor {
	return Actor{Kind: ActorRecipient}
}

// IsNone Actor'ün boş (silinmemiş) olup olmadığını döndürür.
func (a Actor) IsNone() bool { return a.Kind == ActorNone }

func (a Actor) String() string {
	switch a.Kind {
	case ActorStaff:
		return "user:" + strconv.FormatUint(uint64(a.UserID), 10)
	case ActorRecipient:
		return "self"
	default:
		return ""
	}
}

// Value driver.Valuer implementasyonu.
func (a Actor) Value() (driver.Value, error) {
	if a.IsNone() {
		return nil, nil
	}
	return a.String(), nil
}

// Scan sql.Scanner implementasyonu.
func (a *Actor) Scan(value interface{}) error {
	if value == nil {
		*a = Actor{}
		return nil
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("deleted_by için beklenmeyen tip: %T", value)
	}
	switch {
	case s == "":
		*a = Actor{}
	case s == "self":
		*a = RecipientActor()
	case strings.HasPrefix(s, "user:"):
		id, err := strconv.ParseUint(strings.TrimPrefix(s, "user:"), 10, 64)
		if err != nil {
			return fmt.Errorf("deleted_by çözümlenemedi (%q): %w", s, err)
		}
		*a = StaffActor(uint(id))
	default:
		return fmt.Errorf("deleted_by çözümlenemedi: %q", s)
	}
	return nil
}

// BaseModel tüm tablolara gömülen ortak alanlar.
// CreatedBy/UpdatedBy hook'lar tarafından context'teki kullanıcı ID'sinden
// ayarlanır. Soft delete GORM'un DeletedAt mekanizması yerine elle yönetilir
// (deleted_at + deleted_by birlikte), aktif kayıt sorguları her zaman
// "deleted_at IS NULL" filtreler.
type BaseModel struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy uint       `gorm:"index"`
	UpdatedBy uint       `gorm:""`
	DeletedAt *time.Time `gorm:"index"`
	DeletedBy Actor      `gorm:"type:varchar(24)"`
}

// BeforeCreate context'teki kullanıcıyı CreatedBy/UpdatedBy olarak yazar.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if userID, ok := UserIDFromContext(tx.Statement.Context); ok {
		if m.CreatedBy == 0 {
			m.CreatedBy = userID
		}
		m.UpdatedBy = userID
	}
	return nil
}

// BeforeUpdate context'teki kullanıcıyı UpdatedBy olarak yazar.
func (m *BaseModel) BeforeUpdate(tx *gorm.DB) error {
	if userID, ok := UserIDFromContext(tx.Statement.Context); ok {
		m.UpdatedBy = userID
	}
	return nil
}
