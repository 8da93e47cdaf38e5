package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ajanda.link/models"
	"ajanda.link/repositories"

	gocache "github.com/patrickmn/go-cache"
)

// DirectoryServiceError dizin servis hataları.
type DirectoryServiceError string

func (e DirectoryServiceError) Error() string { return string(e) }

const (
	ErrDirUserNotFound DirectoryServiceError = "kullanıcı bulunamadı"
	ErrDirOrgNotFound  DirectoryServiceError = "organizasyon bulunamadı"
)

// IDirectoryService kullanıcı/departman/organizasyon dizini. Organizasyon
// kayıtları gibi sık okunan ve yavaş değişen veriler kısa süreli TTL
// cache arkasından servis edilir.
type IDirectoryService interface {
	ResolveUser(ctx context.Context, id uint) (*models.User, error)
	ResolveUsers(ctx context.Context, ids []uint) ([]models.User, error)
	ResolveDepartmentMembers(ctx context.Context, deptIDs []uint) ([]uint, error)
	ResolveOrganization(ctx context.Context, id uint) (*models.Organization, error)
	ResolveParentOrganization(ctx context.Context, id uint) (*models.ParentOrganization, error)
	UserDepartmentIDs(ctx context.Context, userID uint) ([]uint, error)

	// CollectRosterUserIDs USER ve DEPARTMENT roster satırlarını tekrarsız
	// kullanıcı ID listesine indirger (departmanlar üyelerine açılır).
	CollectRosterUserIDs(ctx context.Context, roster []models.CalendarEventRecipient) ([]uint, error)
}

// DirectoryService IDirectoryService arayüzünü uygular.
type DirectoryService struct {
	repo  repositories.IDirectoryRepository
	cache *gocache.Cache
}

// NewDirectoryService yeni bir DirectoryService örneği oluşturur.
func NewDirectoryService() IDirectoryService {
	return &DirectoryService{
		repo:  repositories.NewDirectoryRepository(),
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// ResolveUser kullanıcıyı getirir.
func (s *DirectoryService) ResolveUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.repo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDirUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ResolveUsers ID listesindeki kullanıcıları getirir.
func (s *DirectoryService) ResolveUsers(ctx context.Context, ids []uint) ([]models.User, error) {
	return s.repo.FindUsersByIDs(ctx, ids)
}

// ResolveDepartmentMembers departman üyelerinin kullanıcı ID'lerini getirir.
func (s *DirectoryService) ResolveDepartmentMembers(ctx context.Context, deptIDs []uint) ([]uint, error) {
	return s.repo.FindDepartmentMemberIDs(ctx, deptIDs)
}

// ResolveOrganization kampüsü getirir (cache'li).
func (s *DirectoryService) ResolveOrganization(ctx context.Context, id uint) (*models.Organization, error) {
	key := fmt.Sprintf("org:%d", id)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.Organization), nil
	}
	org, err := s.repo.FindOrganizationByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDirOrgNotFound
		}
		return nil, err
	}
	s.cache.Set(key, org, gocache.DefaultExpiration)
	return org, nil
}

// ResolveParentOrganization üst organizasyonu getirir (cache'li).
func (s *DirectoryService) ResolveParentOrganization(ctx context.Context, id uint) (*models.ParentOrganization, error) {
	key := fmt.Sprintf("porg:%d", id)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.ParentOrganization), nil
	}
	org, err := s.repo.FindParentOrganizationByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDirOrgNotFound
		}
		return nil, err
	}
	s.cache.Set(key, org, gocache.DefaultExpiration)
	return org, nil
}

// UserDepartmentIDs kullanıcının departman üyelikleri.
func (s *DirectoryService) UserDepartmentIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.repo.FindUserDepartmentIDs(ctx, userID)
}

// CollectRosterUserIDs roster satırlarını kullanıcı ID'lerine indirger.
func (s *DirectoryService) CollectRosterUserIDs(ctx context.Context, roster []models.CalendarEventRecipient) ([]uint, error) {
	var userIDs, deptIDs []uint
	for _, cer := range roster {
		switch cer.EntityType {
		case models.EntityTypeUser:
			userIDs = append(userIDs, cer.EntityID)
		case models.EntityTypeDepartment:
			deptIDs = append(deptIDs, cer.EntityID)
		}
	}
	if len(deptIDs) > 0 {
		memberIDs, err := s.repo.FindDepartmentMemberIDs(ctx, deptIDs)
		if err != nil {
			return nil, err
		}
		userIDs = append(userIDs, memberIDs...)
	}

	seen := make(map[uint]bool, len(userIDs))
	unique := make([]uint, 0, len(userIDs))
	for _, id := range userIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique, nil
}

var _ IDirectoryService = (*DirectoryService)(nil)
