package returns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/internal/ledger"
	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	"github.com/gwon477/dmarket/pkg/pagination"
)

// Repository defines persistence for returns, their refunds and the order
// detail each return belongs to.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	LockReturn(ctx context.Context, returnID uuid.UUID) (*models.Return, error)
	FindOpenByDetail(ctx context.Context, detailID uuid.UUID) (*models.Return, error)
	CreateReturn(ctx context.Context, ret *models.Return) error
	UpdateReturnState(ctx context.Context, ret *models.Return, state enums.ReturnState) error

	FindRefund(ctx context.Context, returnID uuid.UUID) (*models.Refund, error)
	CreateRefund(ctx context.Context, refund *models.Refund) error
	CompleteRefund(ctx context.Context, refund *models.Refund, percent int, amount int64, at time.Time) error

	FindDetail(ctx context.Context, detailID uuid.UUID) (*models.OrderDetail, error)
	LockDetail(ctx context.Context, detailID uuid.UUID) (*models.OrderDetail, error)
	UpdateDetailState(ctx context.Context, detail *models.OrderDetail, state enums.OrderDetailState) error

	CountByState(ctx context.Context, states []enums.ReturnState) (map[enums.ReturnState]int64, error)
	ListByState(ctx context.Context, state enums.ReturnState, page pagination.Page) ([]ReturnView, int64, error)
}

type directory interface {
	OrderOwner(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (uuid.UUID, error)
	ProductName(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (string, error)
}

type ledgerAppender interface {
	Append(ctx context.Context, tx *gorm.DB, input ledger.AppendInput) (*models.Mileage, error)
}
