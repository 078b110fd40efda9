package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
)

// TransitionResult carries what the caller needs to notify the buyer.
type TransitionResult struct {
	Detail      models.OrderDetail
	From        enums.OrderDetailState
	To          enums.OrderDetailState
	UserID      uuid.UUID
	ProductName string
}

// OrderDetailView is one row of the admin order list.
type OrderDetailView struct {
	ID          uuid.UUID              `json:"orderDetailId"`
	OrderID     uuid.UUID              `json:"orderId"`
	UserID      uuid.UUID              `json:"userId"`
	UserName    string                 `json:"userName"`
	ProductID   uuid.UUID              `json:"productId"`
	Brand       string                 `json:"brand"`
	ProductName string                 `json:"productName"`
	Count       int                    `json:"count"`
	SalePrice   int64                  `json:"salePrice"`
	State       enums.OrderDetailState `json:"state"`
	StateLabel  string                 `json:"stateLabel" gorm:"-"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// StateCount is the number of order details sitting in one state.
type StateCount struct {
	State enums.OrderDetailState `json:"state"`
	Label string                 `json:"label"`
	Count int64                  `json:"count"`
}
