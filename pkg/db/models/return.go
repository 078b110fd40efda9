package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/pkg/enums"
)

// Return is a customer return tied to exactly one order detail.
type Return struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"returnId"`
	OrderDetailID uuid.UUID         `gorm:"column:order_detail_id;type:uuid;not null;uniqueIndex:ux_returns_open_detail,where:state <> 'REFUND_COMPLETE'" json:"orderDetailId"`
	Contents      string            `gorm:"column:contents;type:text;not null" json:"returnContents"`
	State         enums.ReturnState `gorm:"column:state;type:text;not null;index" json:"state"`
	Version       int               `gorm:"column:version;not null;default:0" json:"-"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Return) TableName() string {
	return "returns"
}

func (r *Return) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	if r.State == "" {
		r.State = enums.ReturnStateReturnRequest
	}
	return nil
}

// Refund settles a collected return. Amount is fixed when the refund completes.
type Refund struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ReturnID    uuid.UUID  `gorm:"column:return_id;type:uuid;not null;uniqueIndex:ux_refunds_return_id"`
	Completed   bool       `gorm:"column:completed;not null;default:false"`
	Percent     *int       `gorm:"column:percent"`
	Amount      int64      `gorm:"column:amount;not null;default:0"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (r *Refund) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
