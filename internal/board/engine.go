// Package board handles admin replies to customer inquiries and product questions.
package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/gwon477/dmarket/pkg/db"
	"github.com/gwon477/dmarket/pkg/db/models"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
)

const maxReplyLength = 2000

// ReplyResult identifies the stored reply and the author to notify.
type ReplyResult struct {
	ReplyID    uuid.UUID
	ParentID   uuid.UUID
	ReceiverID uuid.UUID
	Title      string
}

// Engine applies reply commands inside the caller's transaction.
type Engine interface {
	ReplyInquiry(ctx context.Context, tx *gorm.DB, inquiryID uuid.UUID, contents string) (*ReplyResult, error)
	DeleteInquiryReply(ctx context.Context, tx *gorm.DB, replyID uuid.UUID) error
	DeleteInquiry(ctx context.Context, tx *gorm.DB, inquiryID uuid.UUID) error
	ReplyQna(ctx context.Context, tx *gorm.DB, qnaID uuid.UUID, contents string) (*ReplyResult, error)
	DeleteQnaReply(ctx context.Context, tx *gorm.DB, replyID uuid.UUID) error
}

type engine struct {
	repo Repository
}

func NewEngine(repo Repository) (Engine, error) {
	if repo == nil {
		return nil, fmt.Errorf("board repository required")
	}
	return &engine{repo: repo}, nil
}

// ReplyInquiry stores the single reply an inquiry may have.
func (e *engine) ReplyInquiry(ctx context.Context, tx *gorm.DB, inquiryID uuid.UUID, contents string) (*ReplyResult, error) {
	contents, err := replyContents(tx, contents)
	if err != nil {
		return nil, err
	}
	repo := e.repo.WithTx(tx)
	inquiry, err := repo.LockInquiry(ctx, inquiryID)
	if err != nil {
		return nil, lookupError(err, "inquiry")
	}
	if inquiry.Answered {
		return nil, pkgerrors.InvalidState("inquiry already has a reply")
	}
	if err := markAnswered(repo.SetInquiryAnswered(ctx, inquiry.ID, true)); err != nil {
		return nil, err
	}

	reply := &models.InquiryReply{InquiryID: inquiry.ID, Contents: contents}
	if err := repo.CreateInquiryReply(ctx, reply); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inquiry reply")
	}
	return &ReplyResult{ReplyID: reply.ID, ParentID: inquiry.ID, ReceiverID: inquiry.UserID, Title: inquiry.Title}, nil
}

// DeleteInquiryReply removes a reply and reopens its inquiry.
func (e *engine) DeleteInquiryReply(ctx context.Context, tx *gorm.DB, replyID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	repo := e.repo.WithTx(tx)
	reply, err := repo.FindInquiryReply(ctx, replyID)
	if err != nil {
		return lookupError(err, "reply")
	}
	inquiry, err := repo.LockInquiry(ctx, reply.InquiryID)
	if err != nil {
		return lookupError(err, "inquiry")
	}
	if err := repo.DeleteInquiryReply(ctx, reply.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete inquiry reply")
	}
	if _, err := repo.SetInquiryAnswered(ctx, inquiry.ID, false); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reopen inquiry")
	}
	return nil
}

func (e *engine) DeleteInquiry(ctx context.Context, tx *gorm.DB, inquiryID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	repo := e.repo.WithTx(tx)
	if _, err := repo.LockInquiry(ctx, inquiryID); err != nil {
		return lookupError(err, "inquiry")
	}
	if err := repo.DeleteInquiry(ctx, inquiryID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete inquiry")
	}
	return nil
}

func (e *engine) ReplyQna(ctx context.Context, tx *gorm.DB, qnaID uuid.UUID, contents string) (*ReplyResult, error) {
	contents, err := replyContents(tx, contents)
	if err != nil {
		return nil, err
	}
	repo := e.repo.WithTx(tx)
	qna, err := repo.LockQna(ctx, qnaID)
	if err != nil {
		return nil, lookupError(err, "qna")
	}
	if qna.Answered {
		return nil, pkgerrors.InvalidState("question already has a reply")
	}
	if err := markAnswered(repo.SetQnaAnswered(ctx, qna.ID, true)); err != nil {
		return nil, err
	}

	reply := &models.QnaReply{QnaID: qna.ID, Contents: contents}
	if err := repo.CreateQnaReply(ctx, reply); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create qna reply")
	}
	return &ReplyResult{ReplyID: reply.ID, ParentID: qna.ID, ReceiverID: qna.UserID, Title: qna.Title}, nil
}

func (e *engine) DeleteQnaReply(ctx context.Context, tx *gorm.DB, replyID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	repo := e.repo.WithTx(tx)
	reply, err := repo.FindQnaReply(ctx, replyID)
	if err != nil {
		return lookupError(err, "reply")
	}
	qna, err := repo.LockQna(ctx, reply.QnaID)
	if err != nil {
		return lookupError(err, "qna")
	}
	if err := repo.DeleteQnaReply(ctx, reply.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete qna reply")
	}
	if _, err := repo.SetQnaAnswered(ctx, qna.ID, false); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reopen qna")
	}
	return nil
}

func replyContents(tx *gorm.DB, contents string) (string, error) {
	if tx == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	contents = strings.TrimSpace(contents)
	if contents == "" {
		return "", pkgerrors.InvalidArgument("reply contents are required")
	}
	if len([]rune(contents)) > maxReplyLength {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "reply exceeds %d characters", maxReplyLength)
	}
	return contents, nil
}

func markAnswered(changed bool, err error) error {
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark answered")
	}
	if !changed {
		return pkgerrors.Conflict("reply registered concurrently")
	}
	return nil
}

func lookupError(err error, entity string) error {
	if dbpkg.IsNotFound(err) {
		return pkgerrors.NotFound(entity)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}
