package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Inquiry is a customer support ticket. Answered flips when a reply exists.
type Inquiry struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Type      string    `gorm:"column:type;type:text;not null"`
	Title     string    `gorm:"column:title;type:text;not null"`
	Contents  string    `gorm:"column:contents;type:text;not null"`
	Answered  bool      `gorm:"column:answered;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *Inquiry) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

type InquiryReply struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	InquiryID uuid.UUID `gorm:"column:inquiry_id;type:uuid;not null;index"`
	Contents  string    `gorm:"column:contents;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *InquiryReply) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// Qna is a product question.
type Qna struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	Title     string    `gorm:"column:title;type:text;not null"`
	Contents  string    `gorm:"column:contents;type:text;not null"`
	Answered  bool      `gorm:"column:answered;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Qna) TableName() string {
	return "qnas"
}

func (q *Qna) BeforeCreate(*gorm.DB) error {
	ensureID(&q.ID)
	return nil
}

type QnaReply struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	QnaID     uuid.UUID `gorm:"column:qna_id;type:uuid;not null;index"`
	Contents  string    `gorm:"column:contents;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *QnaReply) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
