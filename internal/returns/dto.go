package returns

import (
	"time"

	"github.com/google/uuid"

	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	"github.com/gwon477/dmarket/pkg/pagination"
)

// AdvanceResult describes one return state change and who to tell about it.
type AdvanceResult struct {
	Return        models.Return
	From          enums.ReturnState
	To            enums.ReturnState
	RefundCreated bool
	OrderID       uuid.UUID
	ProductID     uuid.UUID
	UserID        uuid.UUID
	ProductName   string
}

// RefundResult is the settled refund and the ledger entry it produced.
type RefundResult struct {
	ReturnID    uuid.UUID
	RefundID    uuid.UUID
	DetailID    uuid.UUID
	Percent     int
	Amount      int64
	UserID      uuid.UUID
	ProductName string
	Balance     int64
}

// RequestInput is a customer's return request for one delivered line item.
type RequestInput struct {
	UserID   uuid.UUID
	DetailID uuid.UUID
	Contents string
}

// ReturnView is one row of the admin return queue.
type ReturnView struct {
	ID            uuid.UUID         `json:"returnId"`
	OrderDetailID uuid.UUID         `json:"orderDetailId"`
	OrderID       uuid.UUID         `json:"orderId"`
	UserID        uuid.UUID         `json:"userId"`
	UserName      string            `json:"userName"`
	Brand         string            `json:"brand"`
	ProductName   string            `json:"productName"`
	SalePrice     int64             `json:"salePrice"`
	Contents      string            `json:"returnContents"`
	State         enums.ReturnState `json:"state"`
	StateLabel    string            `json:"stateLabel" gorm:"-"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type StateCount struct {
	State enums.ReturnState `json:"state"`
	Label string            `json:"label"`
	Count int64             `json:"count"`
}

// ListResult is a page of the return queue plus the size of every queue.
type ListResult struct {
	pagination.Result[ReturnView]
	Counts []StateCount `json:"counts"`
}
