package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/pkg/enums"
)

// Order is the purchase header. Only the owning user is consulted by the workflow.
type Order struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderDetail is one purchased line item and the unit of fulfillment state.
type OrderDetail struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID              `gorm:"column:product_id;type:uuid;not null"`
	OptionID  *uuid.UUID             `gorm:"column:option_id;type:uuid"`
	Count     int                    `gorm:"column:count;not null"`
	SalePrice int64                  `gorm:"column:sale_price;not null"`
	State     enums.OrderDetailState `gorm:"column:state;type:text;not null;index"`
	Version   int                    `gorm:"column:version;not null;default:0"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *OrderDetail) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	if d.State == "" {
		d.State = enums.OrderDetailStateOrderComplete
	}
	return nil
}
