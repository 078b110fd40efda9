package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/pkg/enums"
)

// Notification is a delivered user-facing message. EventID links it to the
// outbox event that produced it so redelivery cannot store it twice.
type Notification struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventID    *uuid.UUID             `gorm:"column:event_id;type:uuid;uniqueIndex:ux_notifications_event_id" json:"-"`
	ReceiverID uuid.UUID              `gorm:"column:receiver_id;type:uuid;not null;index:ix_notifications_receiver_created,priority:1" json:"receiverId"`
	Kind       enums.NotificationKind `gorm:"column:kind;type:text;not null" json:"kind"`
	Content    string                 `gorm:"column:content;type:text;not null" json:"content"`
	URL        string                 `gorm:"column:url;type:text;not null" json:"url"`
	IsRead     bool                   `gorm:"column:is_read;not null;default:false" json:"isRead"`
	CreatedAt  time.Time              `gorm:"column:created_at;not null;index:ix_notifications_receiver_created,priority:2" json:"createdAt"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return nil
}
