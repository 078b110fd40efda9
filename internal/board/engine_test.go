package board

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	dbpkg "github.com/gwon477/dmarket/pkg/db"
	"github.com/gwon477/dmarket/pkg/db/dbtest"
	"github.com/gwon477/dmarket/pkg/db/models"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
)

func setup(t *testing.T) (*dbpkg.Client, Engine, models.User) {
	t.Helper()
	client := dbtest.Open(t)
	engine, err := NewEngine(NewRepository(client.DB()))
	require.NoError(t, err)
	return client, engine, dbtest.SeedUser(t, client.DB(), "문의자")
}

func inTx(client *dbpkg.Client, fn func(tx *gorm.DB) error) error {
	return client.WithTx(context.Background(), fn)
}

func TestInquiryReplyLifecycle(t *testing.T) {
	client, engine, user := setup(t)
	ctx := context.Background()
	inquiry := models.Inquiry{UserID: user.ID, Type: "배송", Title: "배송 언제 오나요", Contents: "주문한 지 일주일"}
	require.NoError(t, client.DB().Create(&inquiry).Error)

	var res *ReplyResult
	require.NoError(t, inTx(client, func(tx *gorm.DB) error {
		var err error
		res, err = engine.ReplyInquiry(ctx, tx, inquiry.ID, "내일 도착 예정입니다")
		return err
	}))
	require.Equal(t, user.ID, res.ReceiverID)
	require.Equal(t, "배송 언제 오나요", res.Title)

	var stored models.Inquiry
	require.NoError(t, client.DB().First(&stored, "id = ?", inquiry.ID).Error)
	require.True(t, stored.Answered)

	err := inTx(client, func(tx *gorm.DB) error {
		_, err := engine.ReplyInquiry(ctx, tx, inquiry.ID, "두 번째 답변")
		return err
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	require.NoError(t, inTx(client, func(tx *gorm.DB) error {
		return engine.DeleteInquiryReply(ctx, tx, res.ReplyID)
	}))
	require.NoError(t, client.DB().First(&stored, "id = ?", inquiry.ID).Error)
	require.False(t, stored.Answered)

	err = inTx(client, func(tx *gorm.DB) error {
		return engine.DeleteInquiryReply(ctx, tx, res.ReplyID)
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteInquiryRemovesReplies(t *testing.T) {
	client, engine, user := setup(t)
	ctx := context.Background()
	inquiry := models.Inquiry{UserID: user.ID, Type: "상품", Title: "재입고", Contents: "언제?"}
	require.NoError(t, client.DB().Create(&inquiry).Error)
	require.NoError(t, inTx(client, func(tx *gorm.DB) error {
		_, err := engine.ReplyInquiry(ctx, tx, inquiry.ID, "다음 주")
		return err
	}))

	require.NoError(t, inTx(client, func(tx *gorm.DB) error {
		return engine.DeleteInquiry(ctx, tx, inquiry.ID)
	}))

	var count int64
	require.NoError(t, client.DB().Model(&models.InquiryReply{}).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, client.DB().Model(&models.Inquiry{}).Count(&count).Error)
	require.Zero(t, count)

	err := inTx(client, func(tx *gorm.DB) error {
		return engine.DeleteInquiry(ctx, tx, inquiry.ID)
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestQnaReplyLifecycle(t *testing.T) {
	client, engine, user := setup(t)
	ctx := context.Background()
	qna := models.Qna{ProductID: uuid.New(), UserID: user.ID, Title: "사이즈 문의", Contents: "정사이즈인가요"}
	require.NoError(t, client.DB().Create(&qna).Error)

	var res *ReplyResult
	require.NoError(t, inTx(client, func(tx *gorm.DB) error {
		var err error
		res, err = engine.ReplyQna(ctx, tx, qna.ID, "정사이즈입니다")
		return err
	}))
	require.Equal(t, user.ID, res.ReceiverID)

	err := inTx(client, func(tx *gorm.DB) error {
		_, err := engine.ReplyQna(ctx, tx, qna.ID, "again")
		return err
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	require.NoError(t, inTx(client, func(tx *gorm.DB) error {
		return engine.DeleteQnaReply(ctx, tx, res.ReplyID)
	}))
	var stored models.Qna
	require.NoError(t, client.DB().First(&stored, "id = ?", qna.ID).Error)
	require.False(t, stored.Answered)
}

func TestReplyValidation(t *testing.T) {
	client, engine, _ := setup(t)
	ctx := context.Background()

	err := inTx(client, func(tx *gorm.DB) error {
		_, err := engine.ReplyInquiry(ctx, tx, uuid.New(), "답변")
		return err
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = inTx(client, func(tx *gorm.DB) error {
		_, err := engine.ReplyQna(ctx, tx, uuid.New(), "   ")
		return err
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = engine.ReplyQna(ctx, nil, uuid.New(), "답변")
	require.Error(t, err)
}
