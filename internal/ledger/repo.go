package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/internal/repo"
	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/pagination"
)

// Repository manages persistence for mileage ledger entries and the cached
// balance on the user row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	SetBalance(ctx context.Context, userID uuid.UUID, balance int64) error
	Create(ctx context.Context, entry *models.Mileage) error
	ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Page) ([]models.Mileage, int64, error)
	ListChronological(ctx context.Context, userID uuid.UUID) ([]models.Mileage, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) LockUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.Locked(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) SetBalance(ctx context.Context, userID uuid.UUID, balance int64) error {
	return r.DB(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("mileage", balance).Error
}

func (r *repository) Create(ctx context.Context, entry *models.Mileage) error {
	return r.DB(ctx).Create(entry).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Page) ([]models.Mileage, int64, error) {
	var total int64
	base := r.DB(ctx).Model(&models.Mileage{}).Where("user_id = ?", userID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Mileage
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scopes(repo.Paginate(page)).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) ListChronological(ctx context.Context, userID uuid.UUID) ([]models.Mileage, error) {
	var rows []models.Mileage
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
