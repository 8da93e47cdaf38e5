package repositories

import (
	"context"
	"errors"
	"time"

	"ajanda.link/configs"
	"ajanda.link/configs/configslog"
	"ajanda.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RosterQuery aktif roster sorgusu için filtreler.
type RosterQuery struct {
	// ViewOnly nil ise tüm satırlar; değilse view_only eşitliği aranır.
	ViewOnly *bool
}

// ICalendarEventRecipientRepository roster satırı veritabanı işlemleri için arayüz.
type ICalendarEventRecipientRepository interface {
	FindActiveByEventID(ctx context.Context, eventID uint, q RosterQuery) ([]models.CalendarEventRecipient, error)
	Create(ctx context.Context, cer *models.CalendarEventRecipient) error
	UpdateFlags(ctx context.Context, cer *models.CalendarEventRecipient, writeAccess, viewOnly bool) error
	Delete(ctx context.Context, cer *models.CalendarEventRecipient, by models.Actor) error
}

// CalendarEventRecipientRepository ICalendarEventRecipientRepository arayüzünü uygular.
type CalendarEventRecipientRepository struct {
	db *gorm.DB
}

// NewCalendarEventRecipientRepository yeni bir örnek oluşturur.
func NewCalendarEventRecipientRepository() ICalendarEventRecipientRepository {
	return &CalendarEventRecipientRepository{db: configs.GetDB()}
}

// NewCalendarEventRecipientRepositoryTx transaction'lı repository oluşturur.
func NewCalendarEventRecipientRepositoryTx(tx *gorm.DB) ICalendarEventRecipientRepository {
	return &CalendarEventRecipientRepository{db: tx}
}

func (r *CalendarEventRecipientRepository) getDB(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

// FindActiveByEventID etkinliğin silinmemiş roster satırlarını getirir.
func (r *CalendarEventRecipientRepository) FindActiveByEventID(ctx context.Context, eventID uint, q RosterQuery) ([]models.CalendarEventRecipient, error) {
	if eventID == 0 {
		return nil, errors.New("geçersiz etkinlik ID")
	}
	var roster []models.CalendarEventRecipient
	query := r.getDB(ctx).
		Where("calendar_event_id = ? AND deleted_at IS NULL", eventID)
	if q.ViewOnly != nil {
		query = query.Where("view_only = ?", *q.ViewOnly)
	}
	if err := query.Order("id ASC").Find(&roster).Error; err != nil {
		configslog.Log.Error("CalendarEventRecipientRepository.FindActiveByEventID: DB hatası", zap.Uint("eventID", eventID), zap.Error(err))
		return nil, err
	}
	return roster, nil
}

// Create yeni roster satırı ekler.
func (r *CalendarEventRecipientRepository) Create(ctx context.Context, cer *models.CalendarEventRecipient) error {
	if cer == nil || cer.CalendarEventID == 0 || cer.EntityID == 0 {
		return errors.New("geçersiz roster satırı")
	}
	if cer.EntityType != models.EntityTypeUser && cer.EntityType != models.EntityTypeDepartment {
		return errors.New("roster satırı için geçersiz varlık türü")
	}
	return r.getDB(ctx).Create(cer).Error
}

// UpdateFlags sadece erişim bayraklarını günceller; kimlik alanlarına dokunmaz.
func (r *CalendarEventRecipientRepository) UpdateFlags(ctx context.Context, cer *models.CalendarEventRecipient, writeAccess, viewOnly bool) error {
	if cer == nil || cer.ID == 0 {
		return errors.New("güncellenecek roster satırı geçerli değil")
	}
	updates := map[string]interface{}{"write_access": writeAccess, "view_only": viewOnly}
	if userID, ok := models.UserIDFromContext(ctx); ok {
		updates["updated_by"] = userID
	}
	result := r.getDB(ctx).Model(&models.CalendarEventRecipient{}).
		Where("id = ? AND deleted_at IS NULL", cer.ID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	cer.WriteAccess = writeAccess
	cer.ViewOnly = viewOnly
	return nil
}

// Delete roster satırını soft delete eder.
func (r *CalendarEventRecipientRepository) Delete(ctx context.Context, cer *models.CalendarEventRecipient, by models.Actor) error {
	if cer == nil || cer.ID == 0 {
		return errors.New("silinecek roster satırı geçerli değil")
	}
	now := time.Now().UTC()
	result := r.getDB(ctx).Model(&models.CalendarEventRecipient{}).
		Where("id = ? AND deleted_at IS NULL", cer.ID).
		Updates(map[string]interface{}{"deleted_at": now, "deleted_by": by})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	cer.DeletedAt = &now
	cer.DeletedBy = by
	return nil
}

var _ ICalendarEventRecipientRepository = (*CalendarEventRecipientRepository)(nil)
