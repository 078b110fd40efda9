package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	"github.com/gwon477/dmarket/pkg/pagination"
)

// Repository defines persistence operations for order details.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockDetail(ctx context.Context, detailID uuid.UUID) (*models.OrderDetail, error)
	UpdateDetailState(ctx context.Context, detail *models.OrderDetail, state enums.OrderDetailState) error
	CountByState(ctx context.Context) (map[enums.OrderDetailState]int64, error)
	ListByState(ctx context.Context, state enums.OrderDetailState, page pagination.Page) ([]OrderDetailView, int64, error)
}

type directory interface {
	OrderOwner(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (uuid.UUID, error)
	ProductName(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (string, error)
}
