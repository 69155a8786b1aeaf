// Package services содержит бизнес-логику управления заведениями владельца.
package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

// ErrBusinessMissing возвращается, когда у пользователя нет текущего бизнеса.
var ErrBusinessMissing = errors.New("business not found")

// BusinessRepository определяет методы для работы с бизнесами в хранилище.
type BusinessRepository interface {
	// CreateBusiness добавляет новый бизнес и возвращает его ID.
	CreateBusiness(ctx context.Context, business models.Business) (int, error)
	// ListBusinessesByOwner возвращает бизнесы владельца.
	ListBusinessesByOwner(ctx context.Context, ownerUID string) ([]*models.Business, error)
	// GetCurrentBusiness возвращает бизнес пользователя: собственный для
	// владельца или бизнес активной привязки для сотрудника.
	GetCurrentBusiness(ctx context.Context, userUID string) (*models.Business, error)
}

// BusinessService реализует операции над бизнесами.
type BusinessService struct {
	repo BusinessRepository
	log  *slog.Logger
}

// NewBusinessService создает новый экземпляр BusinessService.
func NewBusinessService(repo BusinessRepository, log *slog.Logger) *BusinessService {
	return &BusinessService{
		repo: repo,
		log:  log,
	}
}

// Create создает новый бизнес для владельца и возвращает его ID.
func (s *BusinessService) Create(ctx context.Context, ownerUID, name string) (int, error) {
	id, err := s.repo.CreateBusiness(ctx, models.Business{
		Name:     name,
		OwnerUID: ownerUID,
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("business created", slog.Int("id", id), slog.String("owner_uid", ownerUID))
	return id, nil
}

// List возвращает бизнесы владельца.
func (s *BusinessService) List(ctx context.Context, ownerUID string) ([]*models.Business, error) {
	return s.repo.ListBusinessesByOwner(ctx, ownerUID)
}

// Current возвращает текущий бизнес пользователя.
func (s *BusinessService) Current(ctx context.Context, userUID string) (*models.Business, error) {
	business, err := s.repo.GetCurrentBusiness(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, ErrBusinessMissing
	}
	return business, nil
}
