package repositories

import (
	"context"
	"errors"

	"ajanda.link/configs"
	"ajanda.link/configs/configslog"
	"ajanda.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IDirectoryRepository kullanıcı/departman/organizasyon dizini sorguları.
// Dizin bu çekirdeğin dışında yönetilir; burada sadece okunur.
type IDirectoryRepository interface {
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	FindDepartmentByID(ctx context.Context, id uint) (*models.Department, error)
	FindDepartmentMemberIDs(ctx context.Context, deptIDs []uint) ([]uint, error)
	FindUserDepartmentIDs(ctx context.Context, userID uint) ([]uint, error)
	FindOrganizationByID(ctx context.Context, id uint) (*models.Organization, error)
	FindParentOrganizationByID(ctx context.Context, id uint) (*models.ParentOrganization, error)
	FindStudentByID(ctx context.Context, id uint) (*models.Student, error)
	FindStudentLeadByID(ctx context.Context, id uint) (*models.StudentLead, error)
}

// DirectoryRepository IDirectoryRepository arayüzünü uygular.
type DirectoryRepository struct {
	db *gorm.DB
}

// NewDirectoryRepository yeni bir DirectoryRepository örneği oluşturur.
func NewDirectoryRepository() IDirectoryRepository {
	return &DirectoryRepository{db: configs.GetDB()}
}

// NewDirectoryRepositoryTx transaction'lı repository oluşturur.
func NewDirectoryRepositoryTx(tx *gorm.DB) IDirectoryRepository {
	return &DirectoryRepository{db: tx}
}

func (r *DirectoryRepository) getDB(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

func (r *DirectoryRepository) first(ctx context.Context, dest interface{}, id uint, what string) error {
	if id == 0 {
		return errors.New("geçersiz " + what + " ID")
	}
	err := r.getDB(ctx).Where("id = ? AND deleted_at IS NULL", id).First(dest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		configslog.Log.Error("DirectoryRepository: DB hatası", zap.String("entity", what), zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}

// FindUserByID kullanıcıyı getirir.
func (r *DirectoryRepository) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.first(ctx, &u, id, "kullanıcı"); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUsersByIDs verilen ID listesindeki aktif kullanıcıları getirir.
func (r *DirectoryRepository) FindUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.getDB(ctx).
		Where("id IN ? AND deleted_at IS NULL", ids).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		configslog.Log.Error("DirectoryRepository.FindUsersByIDs: DB hatası", zap.Error(err))
		return nil, err
	}
	return users, nil
}

// FindDepartmentByID departmanı getirir.
func (r *DirectoryRepository) FindDepartmentByID(ctx context.Context, id uint) (*models.Department, error) {
	var d models.Department
	if err := r.first(ctx, &d, id, "departman"); err != nil {
		return nil, err
	}
	return &d, nil
}

// FindDepartmentMemberIDs verilen departmanların üye kullanıcı ID'lerini
// tek sorguda toplar (birden fazla departman için tekrarsız).
func (r *DirectoryRepository) FindDepartmentMemberIDs(ctx context.Context, deptIDs []uint) ([]uint, error) {
	var ids []uint
	if len(deptIDs) == 0 {
		return ids, nil
	}
	err := r.getDB(ctx).Model(&models.DepartmentAssignment{}).
		Distinct("user_id").
		Where("department_id IN ? AND deleted_at IS NULL", deptIDs).
		Pluck("user_id", &ids).Error
	if err != nil {
		configslog.Log.Error("DirectoryRepository.FindDepartmentMemberIDs: DB hatası", zap.Error(err))
		return nil, err
	}
	return ids, nil
}

// FindUserDepartmentIDs kullanıcının üye olduğu departman ID'leri.
func (r *DirectoryRepository) FindUserDepartmentIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if userID == 0 {
		return nil, errors.New("geçersiz kullanıcı ID")
	}
	err := r.getDB(ctx).Model(&models.DepartmentAssignment{}).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Pluck("department_id", &ids).Error
	if err != nil {
		configslog.Log.Error("DirectoryRepository.FindUserDepartmentIDs: DB hatası", zap.Uint("userID", userID), zap.Error(err))
		return nil, err
	}
	return ids, nil
}

// FindOrganizationByID kampüsü getirir.
func (r *DirectoryRepository) FindOrganizationByID(ctx context.Context, id uint) (*models.Organization, error) {
	var o models.Organization
	if err := r.first(ctx, &o, id, "organizasyon"); err != nil {
		return nil, err
	}
	return &o, nil
}

// FindParentOrganizationByID üst organizasyonu getirir.
func (r *DirectoryRepository) FindParentOrganizationByID(ctx context.Context, id uint) (*models.ParentOrganization, error) {
	var o models.ParentOrganization
	if err := r.first(ctx, &o, id, "parent organizasyon"); err != nil {
		return nil, err
	}
	return &o, nil
}

// FindStudentByID öğrenciyi getirir.
func (r *DirectoryRepository) FindStudentByID(ctx context.Context, id uint) (*models.Student, error) {
	var s models.Student
	if err := r.first(ctx, &s, id, "öğrenci"); err != nil {
		return nil, err
	}
	return &s, nil
}

// FindStudentLeadByID aday öğrenciyi getirir.
func (r *DirectoryRepository) FindStudentLeadByID(ctx context.Context, id uint) (*models.StudentLead, error) {
	var s models.StudentLead
	if err := r.first(ctx, &s, id, "aday öğrenci"); err != nil {
		return nil, err
	}
	return &s, nil
}

var _ IDirectoryRepository = (*DirectoryRepository)(nil)
