package orders

import (
	"context"

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

func (r *repository) LockDetail(ctx context.Context, detailID uuid.UUID) (*models.OrderDetail, error) {
	var detail models.OrderDetail
	if err := r.Locked(ctx).Where("id = ?", detailID).First(&detail).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateDetailState writes state if detail still has the version it was read with.
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

func (r *repository) CountByState(ctx context.Context) (map[enums.OrderDetailState]int64, error) {
	var rows []struct {
		State enums.OrderDetailState
		Total int64
	}
	err := r.DB(ctx).Model(&models.OrderDetail{}).
		Select("state, COUNT(*) AS total").
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.OrderDetailState]int64, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Total
	}
	return counts, nil
}

func (r *repository) ListByState(ctx context.Context, state enums.OrderDetailState, page pagination.Page) ([]OrderDetailView, int64, error) {
	base := r.DB(ctx).Table("order_details AS d").
		Joins("JOIN orders AS o ON o.id = d.order_id").
		Joins("JOIN users AS u ON u.id = o.user_id").
		Joins("JOIN products AS p ON p.id = d.product_id").
		Where("d.state = ?", state)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []OrderDetailView
	err := base.Session(&gorm.Session{}).
		Select(`d.id AS id, d.order_id AS order_id, o.user_id AS user_id, u.name AS user_name,
			d.product_id AS product_id, p.brand AS brand, p.name AS product_name,
			d.count AS count, d.sale_price AS sale_price, d.state AS state, d.created_at AS created_at`).
		Order("d.created_at DESC, d.id DESC").
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
