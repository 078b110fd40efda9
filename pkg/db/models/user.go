package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/pkg/enums"
)

// User is the customer or admin account. Mileage caches the latest ledger balance.
type User struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Email     string           `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name      string           `gorm:"column:name;type:text;not null"`
	DktNum    *int             `gorm:"column:dkt_num"`
	Role      enums.MemberRole `gorm:"column:role;type:text;not null"`
	Mileage   int64            `gorm:"column:mileage;not null;default:0"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	if u.Role == "" {
		u.Role = enums.MemberRoleUser
	}
	return nil
}
