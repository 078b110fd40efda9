package board

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/internal/repo"
	"github.com/gwon477/dmarket/pkg/db/models"
)

// Repository persists inquiries, product questions and their replies.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	LockInquiry(ctx context.Context, inquiryID uuid.UUID) (*models.Inquiry, error)
	SetInquiryAnswered(ctx context.Context, inquiryID uuid.UUID, answered bool) (bool, error)
	CreateInquiryReply(ctx context.Context, reply *models.InquiryReply) error
	FindInquiryReply(ctx context.Context, replyID uuid.UUID) (*models.InquiryReply, error)
	DeleteInquiryReply(ctx context.Context, replyID uuid.UUID) error
	DeleteInquiry(ctx context.Context, inquiryID uuid.UUID) error

	LockQna(ctx context.Context, qnaID uuid.UUID) (*models.Qna, error)
	SetQnaAnswered(ctx context.Context, qnaID uuid.UUID, answered bool) (bool, error)
	CreateQnaReply(ctx context.Context, reply *models.QnaReply) error
	FindQnaReply(ctx context.Context, replyID uuid.UUID) (*models.QnaReply, error)
	DeleteQnaReply(ctx context.Context, replyID uuid.UUID) error
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) LockInquiry(ctx context.Context, inquiryID uuid.UUID) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	if err := r.Locked(ctx).Where("id = ?", inquiryID).First(&inquiry).Error; err != nil {
		return nil, err
	}
	return &inquiry, nil
}

// SetInquiryAnswered flips the flag and reports whether the row was in the
// opposite state.
func (r *repository) SetInquiryAnswered(ctx context.Context, inquiryID uuid.UUID, answered bool) (bool, error) {
	res := r.DB(ctx).Model(&models.Inquiry{}).
		Where("id = ? AND answered = ?", inquiryID, !answered).
		Update("answered", answered)
	return res.RowsAffected == 1, res.Error
}

func (r *repository) CreateInquiryReply(ctx context.Context, reply *models.InquiryReply) error {
	return r.DB(ctx).Create(reply).Error
}

func (r *repository) FindInquiryReply(ctx context.Context, replyID uuid.UUID) (*models.InquiryReply, error) {
	var reply models.InquiryReply
	if err := r.DB(ctx).Where("id = ?", replyID).First(&reply).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *repository) DeleteInquiryReply(ctx context.Context, replyID uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", replyID).Delete(&models.InquiryReply{}).Error
}

// DeleteInquiry removes the inquiry together with its replies.
func (r *repository) DeleteInquiry(ctx context.Context, inquiryID uuid.UUID) error {
	if err := r.DB(ctx).Where("inquiry_id = ?", inquiryID).Delete(&models.InquiryReply{}).Error; err != nil {
		return err
	}
	return r.DB(ctx).Where("id = ?", inquiryID).Delete(&models.Inquiry{}).Error
}

func (r *repository) LockQna(ctx context.Context, qnaID uuid.UUID) (*models.Qna, error) {
	var qna models.Qna
	if err := r.Locked(ctx).Where("id = ?", qnaID).First(&qna).Error; err != nil {
		return nil, err
	}
	return &qna, nil
}

func (r *repository) SetQnaAnswered(ctx context.Context, qnaID uuid.UUID, answered bool) (bool, error) {
	res := r.DB(ctx).Model(&models.Qna{}).
		Where("id = ? AND answered = ?", qnaID, !answered).
		Update("answered", answered)
	return res.RowsAffected == 1, res.Error
}

func (r *repository) CreateQnaReply(ctx context.Context, reply *models.QnaReply) error {
	return r.DB(ctx).Create(reply).Error
}

func (r *repository) FindQnaReply(ctx context.Context, replyID uuid.UUID) (*models.QnaReply, error) {
	var reply models.QnaReply
	if err := r.DB(ctx).Where("id = ?", replyID).First(&reply).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *repository) DeleteQnaReply(ctx context.Context, replyID uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", replyID).Delete(&models.QnaReply{}).Error
}
