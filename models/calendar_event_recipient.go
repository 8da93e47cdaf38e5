package models

// RecipientEntityType alıcı/katılımcı varlık türü.
type RecipientEntityType string

const (
	EntityTypeUser        RecipientEntityType = "USER"
	EntityTypeDepartment  RecipientEntityType = "DEPARTMENT"
	EntityTypeStudent     RecipientEntityType = "STUDENT"
	EntityTypeStudentLead RecipientEntityType = "STUDENT_LEAD"
	EntityTypeExternal    RecipientEntityType = "EXTERNAL"
)

// Display "STUDENT_LEAD" -> "Lead", diğerleri titleize edilir.
func (t RecipientEntityType) Display() string {
	if t == EntityTypeStudentLead {
		return "Lead"
	}
	return Titleize(string(string(t)))
}

// RosterIdentity roster küme cebirinde kimlik anahtarı. Erişim bayrakları
// kimliğin parçası değildir.
type RosterIdentity struct {
	EntityType RecipientEntityType
	EntityID   uint
}

// CalendarEventRecipient bir etkinliğin katılımcı kaydı (roster satırı).
// Aynı (calendar_event_id, entity_type, entity_id) için en fazla bir
// silinmemiş satır bulunur. view_only = true satırlar erişim kontrolünde
// ve çoğu bildirimde dikkate alınmaz.
type CalendarEventRecipient struct {
	BaseModel
	CalendarEventID uint                `gorm:"index:idx_cer_identity;not null"`
	EntityType      RecipientEntityType `gorm:"type:varchar(20);index:idx_cer_identity;not null"` // USER | DEPARTMENT
	EntityID        uint                `gorm:"index:idx_cer_identity;not null"`
	WriteAccess     bool                `gorm:"default:false"`
	ViewOnly        bool                `gorm:"default:false;index"`

	// Dizin üzerinden doldurulan görüntüleme adı, kalıcı değil.
	EntityName string `gorm:"-"`
}

// Identity satırın kimlik anahtarı.
func (r CalendarEventRecipient) Identity() RosterIdentity {
	return RosterIdentity{EntityType: r.EntityType, EntityID: r.EntityID}
}
