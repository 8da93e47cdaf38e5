package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ajanda.link/configs/configslog"
	"ajanda.link/models"
	"ajanda.link/repositories"

	"go.uber.org/zap"
)

// EntityServiceError varlık çözümleme hataları.
type EntityServiceError string

func (e EntityServiceError) Error() string { return string(e) }

const (
	ErrEntityNotFound    EntityServiceError = "alıcı varlık bulunamadı"
	ErrEntityInvalidType EntityServiceError = "geçersiz alıcı varlık türü"
)

// Recipient farklı varlık türleri üzerinde tek tip yetenek kaydı.
// EXTERNAL için canlı dizin araması yapılmaz; etkinliğe gömülü anlık
// görüntüden kurulur ve ID alanı 0 kalır.
type Recipient struct {
	EntityType     models.RecipientEntityType
	ID             uint
	FirstName      string
	LastName       string
	InternalID     string // Okul numarası vb., görüntüleme için
	Email          string
	Phone          string
	TimeZone       string
	DoNotText      bool
	OrganizationID *uint
}

// FullName ad soyad (boş parçalar atlanır).
func (r *Recipient) FullName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{r.FirstName, r.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// GetTimeZone alıcı saat dilimi, yoksa verilen varsayılan.
func (r *Recipient) GetTimeZone(fallback string) string {
	if r.TimeZone != "" {
		return r.TimeZone
	}
	return fallback
}

// Display "[Student] John Doe (ID: 4454)" biçiminde görüntüleme metni.
func (r *Recipient) Display() string {
	res := "[" + models.Titleize(string(r.EntityType)) + "] " + r.FullName()
	if r.InternalID != "" {
		res += " (ID: " + r.InternalID + ")"
	}
	return res
}

// IEntityService polimorfik alıcı çözümlemesi.
type IEntityService interface {
	ResolveEntity(ctx context.Context, entityType models.RecipientEntityType, id uint) (*Recipient, error)
	ResolveEventRecipient(ctx context.Context, ce *models.CalendarEvent) (*Recipient, error)
}

// EntityService IEntityService arayüzünü uygular.
type EntityService struct {
	dirRepo repositories.IDirectoryRepository
}

// NewEntityService yeni bir EntityService örneği oluşturur.
func NewEntityService() IEntityService {
	return &EntityService{dirRepo: repositories.NewDirectoryRepository()}
}

// ResolveEntity verilen türe göre dizinden yetenek kaydı kurar.
func (s *EntityService) ResolveEntity(ctx context.Context, entityType models.RecipientEntityType, id uint) (*Recipient, error) {
	switch entityType {
	case models.EntityTypeStudent:
		st, err := s.dirRepo.FindStudentByID(ctx, id)
		if err != nil {
			return nil, mapEntityErr(err)
		}
		orgID := st.OrganizationID
		return &Recipient{
			EntityType: entityType, ID: st.ID, FirstName: st.FirstName, LastName: st.LastName,
			InternalID: st.InternalID, Email: st.Email, Phone: st.Phone, TimeZone: st.TimeZone,
			DoNotText: st.DoNotText, OrganizationID: &orgID,
		}, nil
	case models.EntityTypeStudentLead:
		st, err := s.dirRepo.FindStudentLeadByID(ctx, id)
		if err != nil {
			return nil, mapEntityErr(err)
		}
		orgID := st.OrganizationID
		return &Recipient{
			EntityType: entityType, ID: st.ID, FirstName: st.FirstName, LastName: st.LastName,
			InternalID: st.InternalID, Email: st.Email, Phone: st.Phone, TimeZone: st.TimeZone,
			DoNotText: st.DoNotText, OrganizationID: &orgID,
		}, nil
	case models.EntityTypeUser:
		u, err := s.dirRepo.FindUserByID(ctx, id)
		if err != nil {
			return nil, mapEntityErr(err)
		}
		return &Recipient{
			EntityType: entityType, ID: u.ID, FirstName: u.FirstName, LastName: u.LastName,
			Email: u.Email, Phone: u.Phone, TimeZone: u.TimeZone, OrganizationID: u.OrganizationID,
		}, nil
	case models.EntityTypeDepartment:
		d, err := s.dirRepo.FindDepartmentByID(ctx, id)
		if err != nil {
			return nil, mapEntityErr(err)
		}
		return &Recipient{EntityType: entityType, ID: d.ID, FirstName: d.Name, OrganizationID: d.OrganizationID}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrEntityInvalidType, entityType)
	}
}

// ResolveEventRecipient etkinliğin belirlenmiş alıcısını çözer. Önce iç
// referans (recipient_type/recipient_id), yoksa gömülü harici anlık görüntü
// denenir; ikisi de yoksa (nil, nil) döner.
func (s *EntityService) ResolveEventRecipient(ctx context.Context, ce *models.CalendarEvent) (*Recipient, error) {
	if ce.RecipientType != "" && ce.RecipientID != nil {
		return s.ResolveEntity(ctx, ce.RecipientType, *ce.RecipientID)
	}
	ext, err := ce.ExternalRecipient()
	if err != nil {
		configslog.Log.Error("Harici alıcı verisi çözümlenemedi", zap.Uint("eventID", ce.ID), zap.Error(err))
		return nil, err
	}
	if ext == nil {
		return nil, nil
	}
	return &Recipient{
		EntityType: models.EntityTypeExternal,
		FirstName:  ext.FirstName, LastName: ext.LastName,
		Email: ext.Email, Phone: ext.Phone, TimeZone: ext.TimeZone,
	}, nil
}

func mapEntityErr(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrEntityNotFound
	}
	return err
}

var _ IEntityService = (*EntityService)(nil)
