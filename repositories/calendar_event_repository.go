package repositories

import (
	"context"
	"errors"
	"time"

	"ajanda.link/configs"
	"ajanda.link/configs/configslog"
	"ajanda.link/models"
	"ajanda.link/pkg/queryparams"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OverlapQuery bir kullanıcının veya alıcının [start, end) aralığıyla
// çakışan aktif etkinliklerini arar. view_only roster satırları çakışma
// sayılmaz; düzenlenen etkinlik ExcludeEventID ile hariç tutulur.
type OverlapQuery struct {
	Start          time.Time
	End            time.Time
	ExcludeEventID uint

	// Kullanıcı çakışması: USER roster satırı veya atanmış personel.
	UserID *uint

	// Alıcı çakışması: etkinliğin kendi alıcısı.
	RecipientType models.RecipientEntityType
	RecipientID   uint
}

// ICalendarEventRepository takvim etkinliği veritabanı işlemleri için arayüz.
type ICalendarEventRepository interface {
	Create(ctx context.Context, ce *models.CalendarEvent) error
	FindByID(ctx context.Context, id uint) (*models.CalendarEvent, error)
	Update(ctx context.Context, ce *models.CalendarEvent) error
	Delete(ctx context.Context, ce *models.CalendarEvent, by models.Actor) error
	FindInRange(ctx context.Context, parentOrgID uint, start, end time.Time, params queryparams.ListParams) ([]models.CalendarEvent, int64, error)
	FindOverlapping(ctx context.Context, q OverlapQuery) ([]models.CalendarEvent, error)
	FindHolidayEvents(ctx context.Context, parentOrgID uint, orgID *uint, start, end time.Time) ([]models.CalendarEvent, error)
}

// CalendarEventRepository ICalendarEventRepository arayüzünü uygular.
type CalendarEventRepository struct {
	db *gorm.DB
}

// NewCalendarEventRepository yeni bir CalendarEventRepository örneği oluşturur.
func NewCalendarEventRepository() ICalendarEventRepository {
	return &CalendarEventRepository{db: configs.GetDB()}
}

// NewCalendarEventRepositoryTx transaction'lı repository oluşturur.
func NewCalendarEventRepositoryTx(tx *gorm.DB) ICalendarEventRepository {
	return &CalendarEventRepository{db: tx}
}

func (r *CalendarEventRepository) getDB(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

// active "deleted_at IS NULL" filtresi uygulanmış sorgu döndürür.
func (r *CalendarEventRepository) active(ctx context.Context) *gorm.DB {
	return r.getDB(ctx).Model(&models.CalendarEvent{}).Where("calendar_events.deleted_at IS NULL")
}

// Create yeni etkinlik satırı oluşturur (hook'lar context kullanıcısını yazar).
func (r *CalendarEventRepository) Create(ctx context.Context, ce *models.CalendarEvent) error {
	if ce == nil || ce.ParentOrganizationID == 0 {
		return errors.New("geçersiz takvim etkinliği verisi")
	}
	return r.getDB(ctx).Create(ce).Error
}

// FindByID aktif etkinliği bulur.
func (r *CalendarEventRepository) FindByID(ctx context.Context, id uint) (*models.CalendarEvent, error) {
	if id == 0 {
		return nil, errors.New("geçersiz etkinlik ID")
	}
	var ce models.CalendarEvent
	err := r.getDB(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&ce).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("CalendarEventRepository.FindByID: DB hatası", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &ce, nil
}

// Update etkinliği Save ile günceller.
func (r *CalendarEventRepository) Update(ctx context.Context, ce *models.CalendarEvent) error {
	if ce == nil || ce.ID == 0 {
		return errors.New("güncellenecek etkinlik geçerli değil")
	}
	return r.getDB(ctx).Omit("Recipients", "Action").Save(ce).Error
}

// Delete etkinliği soft delete eder; deleted_by Actor olarak yazılır
// (personel ID'si veya alıcının kendisi).
func (r *CalendarEventRepository) Delete(ctx context.Context, ce *models.CalendarEvent, by models.Actor) error {
	if ce == nil || ce.ID == 0 {
		return errors.New("silinecek etkinlik geçerli değil")
	}
	now := time.Now().UTC()
	result := r.getDB(ctx).Model(&models.CalendarEvent{}).
		Where("id = ? AND deleted_at IS NULL", ce.ID).
		Updates(map[string]interface{}{"deleted_at": now, "deleted_by": by})
	if result.Error != nil {
		configslog.Log.Error("CalendarEventRepository.Delete: DB hatası", zap.Uint("id", ce.ID), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	ce.DeletedAt = &now
	ce.DeletedBy = by
	return nil
}

// FindInRange parent organizasyonun [start, end) aralığına değen aktif
// etkinliklerini sayfalayarak getirir (takvim görünümleri için).
func (r *CalendarEventRepository) FindInRange(ctx context.Context, parentOrgID uint, start, end time.Time, params queryparams.ListParams) ([]models.CalendarEvent, int64, error) {
	if parentOrgID == 0 {
		return nil, 0, errors.New("geçersiz parent organization ID")
	}
	var events []models.CalendarEvent
	var totalCount int64

	query := r.active(ctx).
		Where("parent_organization_id = ?", parentOrgID).
		Where("start_at < ? AND end_at > ?", end, start)
	if params.TypeOf != "" {
		query = query.Where("type_of = ?", params.TypeOf)
	}

	if err := query.Count(&totalCount).Error; err != nil {
		configslog.Log.Error("CalendarEventRepository.FindInRange: sayım hatası", zap.Uint("parentOrgID", parentOrgID), zap.Error(err))
		return nil, 0, err
	}
	if totalCount == 0 {
		return events, 0, nil
	}

	err := query.Order("start_at " + params.OrderBy).
		Limit(params.PerPage).Offset(params.CalculateOffset()).
		Find(&events).Error
	if err != nil {
		configslog.Log.Error("CalendarEventRepository.FindInRange: DB hatası", zap.Uint("parentOrgID", parentOrgID), zap.Error(err))
		return nil, totalCount, err
	}
	return events, totalCount, nil
}

// FindOverlapping çakışma sorgusunu çalıştırır; sonuçlar start_at artan sıralıdır.
func (r *CalendarEventRepository) FindOverlapping(ctx context.Context, q OverlapQuery) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	query := r.active(ctx).Where("calendar_events.start_at < ? AND calendar_events.end_at > ?", q.End, q.Start)
	if q.ExcludeEventID != 0 {
		query = query.Where("calendar_events.id <> ?", q.ExcludeEventID)
	}

	switch {
	case q.UserID != nil:
		query = query.
			Joins("LEFT JOIN calendar_event_recipients cer ON cer.calendar_event_id = calendar_events.id"+
				" AND cer.entity_type = ? AND cer.entity_id = ? AND cer.view_only = ? AND cer.deleted_at IS NULL",
				models.EntityTypeUser, *q.UserID, false).
			Where("cer.id IS NOT NULL OR calendar_events.appt_user_id = ?", *q.UserID).
			Distinct("calendar_events.*")
	case q.RecipientType != "" && q.RecipientID != 0:
		query = query.Where("calendar_events.recipient_type = ? AND calendar_events.recipient_id = ?", q.RecipientType, q.RecipientID)
	default:
		return nil, errors.New("çakışma sorgusu için kullanıcı veya alıcı gerekli")
	}

	if err := query.Order("calendar_events.start_at ASC").Find(&events).Error; err != nil {
		configslog.Log.Error("CalendarEventRepository.FindOverlapping: DB hatası", zap.Error(err))
		return nil, err
	}
	return events, nil
}

// FindHolidayEvents organizasyonun "holiday" türü etkinliklerinden
// [start, end) aralığına değenleri getirir. orgID verilirse o kampüse
// veya tüm kampüslere (organization_id IS NULL) ait olanlar dahildir.
func (r *CalendarEventRepository) FindHolidayEvents(ctx context.Context, parentOrgID uint, orgID *uint, start, end time.Time) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	query := r.active(ctx).
		Where("parent_organization_id = ? AND type_of = ?", parentOrgID, models.EventTypeHoliday).
		Where("start_at < ? AND end_at > ?", end, start)
	if orgID != nil {
		query = query.Where("organization_id IS NULL OR organization_id = ?", *orgID)
	}
	if err := query.Order("start_at ASC").Find(&events).Error; err != nil {
		configslog.Log.Error("CalendarEventRepository.FindHolidayEvents: DB hatası", zap.Uint("parentOrgID", parentOrgID), zap.Error(err))
		return nil, err
	}
	return events, nil
}

var _ ICalendarEventRepository = (*CalendarEventRepository)(nil)
