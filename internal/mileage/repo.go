package mileage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/internal/repo"
	dbpkg "github.com/gwon477/dmarket/pkg/db"
	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	"github.com/gwon477/dmarket/pkg/pagination"
)

// Repository manages charge requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, req *models.MileageRequest) error
	LockRequest(ctx context.Context, requestID uuid.UUID) (*models.MileageRequest, error)
	Resolve(ctx context.Context, req *models.MileageRequest, state enums.MileageRequestState, at time.Time) error
	List(ctx context.Context, states []enums.MileageRequestState, page pagination.Page) ([]RequestView, int64, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, req *models.MileageRequest) error {
	return r.DB(ctx).Create(req).Error
}

func (r *repository) LockRequest(ctx context.Context, requestID uuid.UUID) (*models.MileageRequest, error) {
	var req models.MileageRequest
	if err := r.Locked(ctx).Where("id = ?", requestID).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) Resolve(ctx context.Context, req *models.MileageRequest, state enums.MileageRequestState, at time.Time) error {
	if err := dbpkg.UpdateVersioned(r.DB(ctx), &models.MileageRequest{}, req.ID, req.Version, map[string]any{
		"state":       state,
		"resolved_at": at,
	}); err != nil {
		return err
	}
	req.State = state
	req.ResolvedAt = &at
	req.Version++
	return nil
}

func (r *repository) List(ctx context.Context, states []enums.MileageRequestState, page pagination.Page) ([]RequestView, int64, error) {
	base := r.DB(ctx).Table("mileage_requests AS m").
		Joins("JOIN users AS u ON u.id = m.user_id").
		Where("m.state IN ?", states)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []RequestView
	err := base.Session(&gorm.Session{}).
		Select(`m.id AS id, m.user_id AS user_id, u.name AS user_name, u.email AS email,
			m.amount AS amount, m.state AS state, m.requested_at AS requested_at, m.resolved_at AS resolved_at`).
		Order("m.requested_at DESC, m.id DESC").
		Scopes(repo.Paginate(page)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
