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

// ICalendarEventActionRepository etkinlik aksiyon konfigürasyonu için arayüz.
// Etkinlik başına tek silinmemiş satır kuralı Upsert ile korunur.
type ICalendarEventActionRepository interface {
	FindActiveByEventID(ctx context.Context, eventID uint) (*models.CalendarEventAction, error)
	Upsert(ctx context.Context, eventID uint, data string, by models.Actor) error
}

// CalendarEventActionRepository ICalendarEventActionRepository arayüzünü uygular.
type CalendarEventActionRepository struct {
	db *gorm.DB
}

// NewCalendarEventActionRepository yeni bir örnek oluşturur.
func NewCalendarEventActionRepository() ICalendarEventActionRepository {
	return &CalendarEventActionRepository{db: configs.GetDB()}
}

// NewCalendarEventActionRepositoryTx transaction'lı repository oluşturur.
func NewCalendarEventActionRepositoryTx(tx *gorm.DB) ICalendarEventActionRepository {
	return &CalendarEventActionRepository{db: tx}
}

func (r *CalendarEventActionRepository) getDB(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

// FindActiveByEventID etkinliğin güncel aksiyon satırını getirir.
func (r *CalendarEventActionRepository) FindActiveByEventID(ctx context.Context, eventID uint) (*models.CalendarEventAction, error) {
	if eventID == 0 {
		return nil, errors.New("geçersiz etkinlik ID")
	}
	var action models.CalendarEventAction
	err := r.getDB(ctx).
		Where("calendar_event_id = ? AND deleted_at IS NULL", eventID).
		Order("id DESC").
		First(&action).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("CalendarEventActionRepository.FindActiveByEventID: DB hatası", zap.Uint("eventID", eventID), zap.Error(err))
		return nil, err
	}
	return &action, nil
}

// Upsert gelen data'ya göre güncel aksiyon yuvasını yönetir:
// satır var + data dolu -> güncelle; satır var + data boş -> soft delete;
// satır yok + data dolu -> oluştur; ikisi de yoksa işlem yapılmaz.
func (r *CalendarEventActionRepository) Upsert(ctx context.Context, eventID uint, data string, by models.Actor) error {
	if eventID == 0 {
		return errors.New("geçersiz etkinlik ID")
	}
	current, err := r.FindActiveByEventID(ctx, eventID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	db := r.getDB(ctx)
	switch {
	case current != nil && data != "":
		updates := map[string]interface{}{"data": data}
		if userID, ok := models.UserIDFromContext(ctx); ok {
			updates["updated_by"] = userID
		}
		return db.Model(&models.CalendarEventAction{}).
			Where("id = ? AND deleted_at IS NULL", current.ID).
			Updates(updates).Error
	case current != nil && data == "":
		now := time.Now().UTC()
		return db.Model(&models.CalendarEventAction{}).
			Where("id = ? AND deleted_at IS NULL", current.ID).
			Updates(map[string]interface{}{"deleted_at": now, "deleted_by": by}).Error
	case current == nil && data != "":
		return db.Create(&models.CalendarEventAction{CalendarEventID: eventID, Data: data}).Error
	}
	return nil
}

var _ ICalendarEventActionRepository = (*CalendarEventActionRepository)(nil)
