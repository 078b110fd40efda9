package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/pkg/enums"
)

// Mileage is one immutable ledger entry.
type Mileage struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:ix_mileages_user_created,priority:1" json:"userId"`
	RemainMileage int64               `gorm:"column:remain_mileage;not null" json:"remainMileage"`
	ChangeMileage int64               `gorm:"column:change_mileage;not null" json:"changeMileage"`
	Reason        enums.MileageReason `gorm:"column:reason;type:text;not null" json:"reason"`
	CreatedAt     time.Time           `gorm:"column:created_at;not null;index:ix_mileages_user_created,priority:2" json:"createdAt"`
}

func (m *Mileage) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

// MileageRequest is a user's pending request to add store credit.
type MileageRequest struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey" json:"mileageRequestId"`
	UserID      uuid.UUID                 `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	Amount      int64                     `gorm:"column:amount;not null" json:"amount"`
	State       enums.MileageRequestState `gorm:"column:state;type:text;not null;index" json:"state"`
	Version     int                       `gorm:"column:version;not null;default:0" json:"-"`
	RequestedAt time.Time                 `gorm:"column:requested_at;not null" json:"requestedAt"`
	ResolvedAt  *time.Time                `gorm:"column:resolved_at" json:"resolvedAt,omitempty"`
}

func (r *MileageRequest) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	if r.State == "" {
		r.State = enums.MileageRequestProcessing
	}
	if r.RequestedAt.IsZero() {
		r.RequestedAt = time.Now().UTC()
	}
	return nil
}
