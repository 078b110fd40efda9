package returns

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

func (r *repository) LockReturn(ctx context.Context, returnID uuid.UUID) (*models.Return, error) {
	var ret models.Return
	if err := r.Locked(ctx).Where("id = ?", returnID).First(&ret).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

// FindOpenByDetail returns the unfinished return for a detail, or nil.
func (r *repository) FindOpenByDetail(ctx context.Context, detailID uuid.UUID) (*models.Return, error) {
	var rows []models.Return
	err := r.DB(ctx).
		Where("order_detail_id = ? AND state <> ?", detailID, enums.ReturnStateRefundComplete).
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (r *repository) CreateReturn(ctx context.Context, ret *models.Return) error {
	return r.DB(ctx).Create(ret).Error
}

func (r *repository) UpdateReturnState(ctx context.Context, ret *models.Return, state enums.ReturnState) error {
	if err := dbpkg.UpdateVersioned(r.DB(ctx), &models.Return{}, ret.ID, ret.Version, map[string]any{
		"state": state,
	}); err != nil {
		return err
	}
	ret.State = state
	ret.Version++
	return nil
}

func (r *repository) FindRefund(ctx context.Context, returnID uuid.UUID) (*models.Refund, error) {
	var refund models.Refund
	if err := r.DB(ctx).Where("return_id = ?", returnID).First(&refund).Error; err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *repository) CreateRefund(ctx context.Context, refund *models.Refund) error {
	return r.DB(ctx).Create(refund).Error
}

// CompleteRefund settles a pending refund. A refund that was completed in the
// meantime matches no row and yields ErrStaleVersion.
func (r *repository) CompleteRefund(ctx context.Context, refund *models.Refund, percent int, amount int64, at time.Time) error {
	res := r.DB(ctx).Model(&models.Refund{}).
		Where("id = ? AND completed = ?", refund.ID, false).
		Updates(map[string]any{
			"completed":    true,
			"percent":      percent,
			"amount":       amount,
			"completed_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return dbpkg.ErrStaleVersion
	}
	refund.Completed = true
	refund.Percent = &percent
	refund.Amount = amount
	refund.CompletedAt = &at
	return nil
}

func (r *repository) FindDetail(ctx context.Context, detailID uuid.UUID) (*models.OrderDetail, error) {
	var detail models.OrderDetail
	if err := r.DB(ctx).Where("id = ?", detailID).First(&detail).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *repository) LockDetail(ctx context.Context, detailID uuid.UUID) (*models.OrderDetail, error) {
	var detail models.OrderDetail
	if err := r.Locked(ctx).Where("id = ?", detailID).First(&detail).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *repository) UpdateDetailState(ctx context.Context, detail *models.OrderDetail, state enums.OrderDetailState) error {
	if err := dbpkg.UpdateVersioned(r.DB(ctx), &models.OrderDetail{}, detail.ID, detail.Version, map[string]any{
		"state": state,
	}); err != nil {
		return err
	}
	detail.State = state
	detail.Version++
	return nil
}

func (r *repository) CountByState(ctx context.Context, states []enums.ReturnState) (map[enums.ReturnState]int64, error) {
	var rows []struct {
		State enums.ReturnState
		Total int64
	}
	err := r.DB(ctx).Model(&models.Return{}).
		Select("state, COUNT(*) AS total").
		Where("state IN ?", states).
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.ReturnState]int64, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Total
	}
	return counts, nil
}

func (r *repository) ListByState(ctx context.Context, state enums.ReturnState, page pagination.Page) ([]ReturnView, int64, error) {
	base := r.DB(ctx).Table("returns AS r").
		Joins("JOIN order_details AS d ON d.id = r.order_detail_id").
		Joins("JOIN orders AS o ON o.id = d.order_id").
		Joins("JOIN users AS u ON u.id = o.user_id").
		Joins("JOIN products AS p ON p.id = d.product_id").
		Where("r.state = ?", state)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []ReturnView
	err := base.Session(&gorm.Session{}).
		Select(`r.id AS id, r.order_detail_id AS order_detail_id, d.order_id AS order_id,
			o.user_id AS user_id, u.name AS user_name, p.brand AS brand, p.name AS product_name,
			d.sale_price AS sale_price, r.contents AS contents, r.state AS state, r.created_at AS created_at`).
		Order("r.created_at DESC, r.id DESC").
		Scopes(repo.Paginate(page)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	for i := range rows {
		rows[i].StateLabel = rows[i].State.Label()
	}
	return rows, total, nil
}
