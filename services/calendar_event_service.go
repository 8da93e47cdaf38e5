package services

import (
	"context"
	"errors"
	"time"

	"ajanda.link/configs"
	"ajanda.link/configs/configslog"
	"ajanda.link/models"
	"ajanda.link/pkg/calview"
	"ajanda.link/pkg/queryparams"
	"ajanda.link/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CalendarEventServiceError takvim etkinliği servis hataları.
type CalendarEventServiceError string

func (e CalendarEventServiceError) Error() string { return string(e) }

const (
	ErrCeNotFound     CalendarEventServiceError = "etkinlik bulunamadı"
	ErrCeAccessDenied CalendarEventServiceError = "etkinlik üzerinde yazma yetkisi yok"
)

// ValidationError girdi doğrulama hatası; transaction açılmadan döner.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// CalendarEventInput create/update için tam girdi. Roster ve aksiyon verisi
// etkinlikle aynı transaction içinde yazılır.
type CalendarEventInput struct {
	ParentOrganizationID uint
	OrganizationID       *uint
	TypeOf               models.EventType
	Name                 string
	Location             string
	Description          string
	StartAt              time.Time // UTC
	EndAt                time.Time // UTC
	AllDay               bool
	IsPublic             bool

	RecipientType    models.RecipientEntityType
	RecipientID      *uint
	ExternalRcptData string
	ApptUserID       *uint

	Roster     []RosterEntry
	ActionData string

	// Bildirim bayrakları; gönderim commit sonrası best-effort yapılır.
	EmailNotices bool
	TextNotices  string // "", "recipient" veya "all"
}

// ICalendarEventService etkinlik yaşam döngüsünü yönetir. Her mutasyon
// etkinlik satırı + roster farkı + aksiyon yuvasını tek transaction'da
// yazar; bildirimler commit sonrasında çalışır ve sonucu etkilemez.
type ICalendarEventService interface {
	FindByID(ctx context.Context, id uint) (*models.CalendarEvent, error)
	ListRange(ctx context.Context, parentOrgID uint, focus time.Time, granularity calview.Granularity, loc *time.Location, params queryparams.ListParams) ([]models.CalendarEvent, int64, error)
	Create(ctx context.Context, input CalendarEventInput, actor *models.User) (*models.CalendarEvent, error)
	Update(ctx context.Context, id uint, input CalendarEventInput, actor *models.User) (*models.CalendarEvent, error)
	Delete(ctx context.Context, id uint, actor *models.User) error
	SetAppointmentStatus(ctx context.Context, id uint, status models.AppointmentStatus, actor *models.User) (*models.CalendarEvent, error)

	// Public takvim linkleri üzerinden alıcının kendi işlemleri.
	RescheduleByRecipient(ctx context.Context, id uint, startAt, endAt time.Time) (*models.CalendarEvent, error)
	CancelByRecipient(ctx context.Context, id uint) error
}

// CalendarEventService ICalendarEventService arayüzünü uygular.
type CalendarEventService struct {
	db            *gorm.DB
	ceRepo        repositories.ICalendarEventRepository
	cerRepo       repositories.ICalendarEventRecipientRepository
	actionRepo    repositories.ICalendarEventActionRepository
	dirService    IDirectoryService
	entities      IEntityService
	notifications INotificationService
	ics           IIcsService
	actions       IActionExecutor
}

// NewCalendarEventService verilen bağımlılıklarla servis oluşturur.
func NewCalendarEventService(notifications INotificationService, icsService IIcsService, actions IActionExecutor) ICalendarEventService {
	return &CalendarEventService{
		db:            configs.GetDB(),
		ceRepo:        repositories.NewCalendarEventRepository(),
		cerRepo:       repositories.NewCalendarEventRecipientRepository(),
		actionRepo:    repositories.NewCalendarEventActionRepository(),
		dirService:    NewDirectoryService(),
		entities:      NewEntityService(),
		notifications: notifications,
		ics:           icsService,
		actions:       actions,
	}
}

func newCalendarEventService(db *gorm.DB, ceRepo repositories.ICalendarEventRepository, cerRepo repositories.ICalendarEventRecipientRepository, actionRepo repositories.ICalendarEventActionRepository, dir IDirectoryService, entities IEntityService, notifications INotificationService, icsService IIcsService, actions IActionExecutor) *CalendarEventService {
	return &CalendarEventService{db: db, ceRepo: ceRepo, cerRepo: cerRepo, actionRepo: actionRepo, dirService: dir, entities: entities, notifications: notifications, ics: icsService, actions: actions}
}

// FindByID aktif etkinliği getirir.
func (s *CalendarEventService) FindByID(ctx context.Context, id uint) (*models.CalendarEvent, error) {
	ce, err := s.ceRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCeNotFound
		}
		return nil, err
	}
	return ce, nil
}

// ListRange takvim görünümü için odak tarih + granülerlik aralığındaki
// etkinlikleri getirir.
func (s *CalendarEventService) ListRange(ctx context.Context, parentOrgID uint, focus time.Time, granularity calview.Granularity, loc *time.Location, params queryparams.ListParams) ([]models.CalendarEvent, int64, error) {
	start, end, err := calview.Range(focus, granularity, loc)
	if err != nil {
		return nil, 0, &ValidationError{Field: "granularity", Message: err.Error()}
	}
	return s.ceRepo.FindInRange(ctx, parentOrgID, start, end, params)
}

// Create yeni etkinlik oluşturur; roster ve aksiyon aynı transaction'da yazılır.
func (s *CalendarEventService) Create(ctx context.Context, input CalendarEventInput, actor *models.User) (*models.CalendarEvent, error) {
	if err := validateEventInput(&input); err != nil {
		return nil, err
	}
	ctx = models.ContextWithUserID(ctx, actor.ID)

	ce := &models.CalendarEvent{
		ParentOrganizationID: input.ParentOrganizationID,
		OrganizationID:       input.OrganizationID,
		TypeOf:               input.TypeOf,
		Name:                 input.Name,
		Location:             input.Location,
		Description:          input.Description,
		StartAt:              input.StartAt.UTC(),
		EndAt:                input.EndAt.UTC(),
		AllDay:               input.AllDay,
		IsPublic:             input.IsPublic,
		RecipientType:        input.RecipientType,
		RecipientID:          input.RecipientID,
		ExternalRcptData:     input.ExternalRcptData,
		ApptUserID:           input.ApptUserID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := repositories.ContextWithTx(ctx, tx)
		if err := repositories.NewCalendarEventRepositoryTx(tx).Create(txCtx, ce); err != nil {
			return err
		}
		if err := s.applyRoster(txCtx, tx, ce.ID, input.Roster, models.StaffActor(actor.ID)); err != nil {
			return err
		}
		if ce.IsAppointment() && input.ActionData != "" {
			return repositories.NewCalendarEventActionRepositoryTx(tx).Upsert(txCtx, ce.ID, input.ActionData, models.StaffActor(actor.ID))
		}
		return nil
	})
	if err != nil {
		configslog.Log.Error("Etkinlik oluşturulamadı", zap.String("name", input.Name), zap.Error(err))
		return nil, err
	}

	if ce.IsAppointment() && input.ActionData != "" {
		s.executeActionHook(ctx, ce, "event_creation")
	}
	s.dispatchNotices(ctx, ce, actor, NoticeActionCreate, input.EmailNotices, input.TextNotices)
	return ce, nil
}

// Update mevcut etkinliği günceller. Zaman değiştiyse bildirimler
// "rescheduled", değişmediyse "updated" olarak gider.
func (s *CalendarEventService) Update(ctx context.Context, id uint, input CalendarEventInput, actor *models.User) (*models.CalendarEvent, error) {
	ce, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkWriteAccess(ctx, ce, actor); err != nil {
		return nil, err
	}
	if err := validateEventInput(&input); err != nil {
		return nil, err
	}
	ctx = models.ContextWithUserID(ctx, actor.ID)

	timeChanged := !ce.StartAt.Equal(input.StartAt.UTC()) || !ce.EndAt.Equal(input.EndAt.UTC())

	ce.OrganizationID = input.OrganizationID
	ce.TypeOf = input.TypeOf
	ce.Name = input.Name
	ce.Location = input.Location
	ce.Description = input.Description
	ce.StartAt = input.StartAt.UTC()
	ce.EndAt = input.EndAt.UTC()
	ce.AllDay = input.AllDay
	ce.IsPublic = input.IsPublic
	ce.RecipientType = input.RecipientType
	ce.RecipientID = input.RecipientID
	ce.ExternalRcptData = input.ExternalRcptData
	ce.ApptUserID = input.ApptUserID

	err = s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := repositories.ContextWithTx(ctx, tx)
		if err := repositories.NewCalendarEventRepositoryTx(tx).Update(txCtx, ce); err != nil {
			return err
		}
		if err := s.applyRoster(txCtx, tx, ce.ID, input.Roster, models.StaffActor(actor.ID)); err != nil {
			return err
		}
		return repositories.NewCalendarEventActionRepositoryTx(tx).Upsert(txCtx, ce.ID, input.ActionData, models.StaffActor(actor.ID))
	})
	if err != nil {
		configslog.Log.Error("Etkinlik güncellenemedi", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	action := NoticeActionUpdate
	if timeChanged {
		action = NoticeActionReschedule
	}
	s.dispatchNotices(ctx, ce, actor, action, input.EmailNotices, input.TextNotices)
	return ce, nil
}

// Delete etkinliği soft delete eder, iptal e-postalarını gönderir ve
// son olarak ek dosyayı depodan kaldırır (iptal e-postası kayıtlı eki kullanır).
func (s *CalendarEventService) Delete(ctx context.Context, id uint, actor *models.User) error {
	ce, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkWriteAccess(ctx, ce, actor); err != nil {
		return err
	}
	ctx = models.ContextWithUserID(ctx, actor.ID)

	if err := s.ceRepo.Delete(ctx, ce, models.StaffActor(actor.ID)); err != nil {
		return err
	}

	s.notifications.SendEventEmailNotices(ctx, ce, actor, NoticeActionCancel)
	if err := s.ics.DeleteAttachment(ctx, ce.ID); err != nil {
		configslog.Log.Warn("Etkinlik eki silinemedi", zap.Uint("eventID", ce.ID), zap.Error(err))
	}
	return nil
}

// SetAppointmentStatus randevu durumunu yazar ve "appt_{durum}" aksiyon
// kancasını tetikler.
func (s *CalendarEventService) SetAppointmentStatus(ctx context.Context, id uint, status models.AppointmentStatus, actor *models.User) (*models.CalendarEvent, error) {
	if !status.Valid() {
		return nil, &ValidationError{Field: "appointment_status", Message: "geçersiz randevu durumu"}
	}
	ce, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ce.IsAppointment() {
		return nil, &ValidationError{Field: "type_of", Message: "durum sadece randevu türü etkinliklere girilebilir"}
	}
	if err := s.checkWriteAccess(ctx, ce, actor); err != nil {
		return nil, err
	}
	ctx = models.ContextWithUserID(ctx, actor.ID)

	now := time.Now().UTC()
	ce.AppointmentStatus = &status
	ce.ApptStatusUpdatedAt = &now
	if err := s.ceRepo.Update(ctx, ce); err != nil {
		configslog.Log.Error("Randevu durumu güncellenemedi", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	s.executeActionHook(ctx, ce, "appt_"+string(status))
	return ce, nil
}

// RescheduleByRecipient alıcının kendi randevusunu public link üzerinden
// yeni zamana taşıması. Personel yetki kontrolü uygulanmaz.
func (s *CalendarEventService) RescheduleByRecipient(ctx context.Context, id uint, startAt, endAt time.Time) (*models.CalendarEvent, error) {
	if startAt.IsZero() || endAt.IsZero() || !startAt.Before(endAt) {
		return nil, &ValidationError{Field: "start_at", Message: "başlangıç bitişten önce olmalı"}
	}
	ce, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ce.IsAppointment() {
		return nil, &ValidationError{Field: "type_of", Message: "sadece randevular yeniden planlanabilir"}
	}

	ce.StartAt = startAt.UTC()
	ce.EndAt = endAt.UTC()
	if err := s.ceRepo.Update(ctx, ce); err != nil {
		configslog.Log.Error("Randevu yeniden planlanamadı", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	actor := s.apptUserOrNil(ctx, ce)
	s.notifications.SendEventEmailNotices(ctx, ce, actor, NoticeActionReschedule)
	s.notifications.SendEventTextNotices(ctx, ce, actor, NoticeActionReschedule, true)
	return ce, nil
}

// CancelByRecipient alıcının kendi randevusunu iptal etmesi; deleted_by
// "self" olarak işaretlenir.
func (s *CalendarEventService) CancelByRecipient(ctx context.Context, id uint) error {
	ce, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !ce.IsAppointment() {
		return &ValidationError{Field: "type_of", Message: "sadece randevular iptal edilebilir"}
	}

	if err := s.ceRepo.Delete(ctx, ce, models.RecipientActor()); err != nil {
		return err
	}

	actor := s.apptUserOrNil(ctx, ce)
	s.notifications.SendEventEmailNotices(ctx, ce, actor, NoticeActionCancel)
	if err := s.ics.DeleteAttachment(ctx, ce.ID); err != nil {
		configslog.Log.Warn("Etkinlik eki silinemedi", zap.Uint("eventID", ce.ID), zap.Error(err))
	}
	return nil
}

// applyRoster mevcut roster'ı istenen duruma getirir (bkz. DiffRoster).
func (s *CalendarEventService) applyRoster(txCtx context.Context, tx *gorm.DB, eventID uint, desired []RosterEntry, deletedBy models.Actor) error {
	cerRepo := repositories.NewCalendarEventRecipientRepositoryTx(tx)
	current, err := cerRepo.FindActiveByEventID(txCtx, eventID, repositories.RosterQuery{})
	if err != nil {
		return err
	}
	diff := DiffRoster(current, desired)

	for _, entry := range diff.ToCreate {
		cer := &models.CalendarEventRecipient{
			CalendarEventID: eventID,
			EntityType:      entry.EntityType,
			EntityID:        entry.EntityID,
			WriteAccess:     entry.WriteAccess,
			ViewOnly:        entry.ViewOnly,
		}
		if err := cerRepo.Create(txCtx, cer); err != nil {
			return err
		}
	}
	for _, upd := range diff.ToUpdate {
		if upd.NoOp() {
			continue
		}
		cer := upd.Current
		if err := cerRepo.UpdateFlags(txCtx, &cer, upd.WriteAccess, upd.ViewOnly); err != nil {
			return err
		}
	}
	for _, cer := range diff.ToDelete {
		row := cer
		if err := cerRepo.Delete(txCtx, &row, deletedBy); err != nil {
			return err
		}
	}
	return nil
}

// checkWriteAccess yazma yetkisi kuralı: parent org yöneticisi her etkinliğe,
// diğer kullanıcılar write_access'li USER satırıyla veya write_access'li
// DEPARTMENT satırındaki üyelikle erişir. view_only satırlar sayılmaz.
func (s *CalendarEventService) checkWriteAccess(ctx context.Context, ce *models.CalendarEvent, actor *models.User) error {
	if actor == nil {
		return ErrCeAccessDenied
	}
	if actor.IsParentOrgAdmin {
		return nil
	}

	viewOnly := false
	roster, err := s.cerRepo.FindActiveByEventID(ctx, ce.ID, repositories.RosterQuery{ViewOnly: &viewOnly})
	if err != nil {
		return err
	}
	var deptRows []uint
	for _, cer := range roster {
		if !cer.WriteAccess {
			continue
		}
		switch cer.EntityType {
		case models.EntityTypeUser:
			if cer.EntityID == actor.ID {
				return nil
			}
		case models.EntityTypeDepartment:
			deptRows = append(deptRows, cer.EntityID)
		}
	}
	if len(deptRows) > 0 {
		userDepts, err := s.dirService.UserDepartmentIDs(ctx, actor.ID)
		if err != nil {
			return err
		}
		for _, d := range deptRows {
			for _, ud := range userDepts {
				if d == ud {
					return nil
				}
			}
		}
	}
	return ErrCeAccessDenied
}

// dispatchNotices commit sonrası bildirim dağıtımı; hatalar loglanır, dönmez.
func (s *CalendarEventService) dispatchNotices(ctx context.Context, ce *models.CalendarEvent, actor *models.User, action NotificationAction, emailNotices bool, textNotices string) {
	if emailNotices {
		s.notifications.SendEventEmailNotices(ctx, ce, actor, action)
	}
	if textNotices == "recipient" || textNotices == "all" {
		s.notifications.SendEventTextNotices(ctx, ce, actor, action, textNotices == "all")
	}
}

// executeActionHook aksiyon yuvası doluysa dış kancayı tetikler.
func (s *CalendarEventService) executeActionHook(ctx context.Context, ce *models.CalendarEvent, triggerKey string) {
	if _, err := s.actionRepo.FindActiveByEventID(ctx, ce.ID); err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			configslog.Log.Error("Aksiyon yuvası okunamadı", zap.Uint("eventID", ce.ID), zap.Error(err))
		}
		return
	}
	recipient, err := s.entities.ResolveEventRecipient(ctx, ce)
	if err != nil {
		recipient = nil
	}
	s.actions.ExecuteActions(ctx, triggerKey, recipient, s.apptUserOrNil(ctx, ce))
}

func (s *CalendarEventService) apptUserOrNil(ctx context.Context, ce *models.CalendarEvent) *models.User {
	if ce.ApptUserID == nil {
		return nil
	}
	u, err := s.dirService.ResolveUser(ctx, *ce.ApptUserID)
	if err != nil {
		return nil
	}
	return u
}

// validateEventInput tarih sırası ve tür bazlı zorunlu alan kuralları.
func validateEventInput(input *CalendarEventInput) error {
	if input.ParentOrganizationID == 0 {
		return &ValidationError{Field: "parent_organization_id", Message: "zorunlu alan"}
	}
	if input.Name == "" {
		return &ValidationError{Field: "name", Message: "zorunlu alan"}
	}
	if !input.TypeOf.Valid() {
		return &ValidationError{Field: "type_of", Message: "bilinmeyen etkinlik türü"}
	}
	if input.StartAt.IsZero() || input.EndAt.IsZero() {
		return &ValidationError{Field: "start_at", Message: "başlangıç ve bitiş zorunlu"}
	}
	if input.EndAt.Before(input.StartAt) {
		return &ValidationError{Field: "end_at", Message: "bitiş başlangıçtan önce olamaz"}
	}

	if input.TypeOf.IsAppointment() {
		if input.AllDay {
			return &ValidationError{Field: "all_day", Message: "randevular tüm gün olamaz"}
		}
		if input.ApptUserID == nil {
			return &ValidationError{Field: "appt_user_id", Message: "randevu için personel zorunlu"}
		}
		hasInternal := input.RecipientType != "" && input.RecipientID != nil
		if !hasInternal && input.ExternalRcptData == "" {
			return &ValidationError{Field: "recipient", Message: "randevu için alıcı zorunlu"}
		}
	}
	return nil
}

var _ ICalendarEventService = (*CalendarEventService)(nil)
