package returns

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/internal/ledger"
	"github.com/gwon477/dmarket/internal/users"
	dbpkg "github.com/gwon477/dmarket/pkg/db"
	"github.com/gwon477/dmarket/pkg/db/dbtest"
	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
)

type fixture struct {
	client *dbpkg.Client
	engine Engine
	ledger ledger.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(client.DB()), client)
	require.NoError(t, err)
	engine, err := NewEngine(NewRepository(client.DB()), users.NewDirectory(client.DB()), ledgerSvc)
	require.NoError(t, err)
	return fixture{client: client, engine: engine, ledger: ledgerSvc}
}

func (f fixture) advance(returnID uuid.UUID, label string) (*AdvanceResult, error) {
	var res *AdvanceResult
	err := f.client.WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		res, err = f.engine.Advance(context.Background(), tx, returnID, label)
		return err
	})
	return res, err
}

func (f fixture) refund(returnID uuid.UUID, percent int) (*RefundResult, error) {
	var res *RefundResult
	err := f.client.WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		res, err = f.engine.IssueRefund(context.Background(), tx, returnID, percent)
		return err
	})
	return res, err
}

func (f fixture) refundCount(t *testing.T, returnID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.client.DB().Model(&models.Refund{}).Where("return_id = ?", returnID).Count(&count).Error)
	return count
}

func TestRefundAmount(t *testing.T) {
	tests := []struct {
		price   int64
		percent int
		want    int64
	}{
		{price: 50000, percent: 80, want: 40000},
		{price: 19999, percent: 33, want: 6599},
		{price: 12345, percent: 100, want: 12345},
		{price: 99, percent: 1, want: 0},
		{price: 0, percent: 50, want: 0},
		{price: 70000, percent: 0, want: 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, RefundAmount(tt.price, tt.percent), "%d * %d%%", tt.price, tt.percent)
	}
}

func TestRefundAmountProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("amount is the floored share and never exceeds the price", prop.ForAll(
		func(price int64, percent int) bool {
			amount := RefundAmount(price, percent)
			return amount == price*int64(percent)/100 && amount <= price && amount >= 0
		},
		gen.Int64Range(0, 10_000_000),
		gen.IntRange(0, 100),
	))
	properties.TestingRun(t)
}

func TestAdvanceThroughCollection(t *testing.T) {
	f := newFixture(t)
	p := dbtest.SeedPurchase(t, f.client.DB(), "코트", 50000, enums.OrderDetailStateReturnRequest)
	ret := dbtest.SeedReturn(t, f.client.DB(), p.Detail.ID, enums.ReturnStateReturnRequest)

	res, err := f.advance(ret.ID, "수거중")
	require.NoError(t, err)
	require.Equal(t, enums.ReturnStateReturnRequest, res.From)
	require.Equal(t, enums.ReturnStateCollectIng, res.To)
	require.False(t, res.RefundCreated)
	require.Equal(t, p.User.ID, res.UserID)
	require.Equal(t, "코트", res.ProductName)
	require.Equal(t, p.Order.ID, res.OrderID)
	require.Equal(t, p.Product.ID, res.ProductID)
	require.EqualValues(t, 0, f.refundCount(t, ret.ID))

	res, err = f.advance(ret.ID, "수거 완료")
	require.NoError(t, err)
	require.True(t, res.RefundCreated)
	require.EqualValues(t, 1, f.refundCount(t, ret.ID))

	var refund models.Refund
	require.NoError(t, f.client.DB().Where("return_id = ?", ret.ID).First(&refund).Error)
	require.False(t, refund.Completed)
	require.Nil(t, refund.Percent)

	_, err = f.advance(ret.ID, "수거 완료")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.EqualValues(t, 1, f.refundCount(t, ret.ID))
}

func TestAdvanceErrors(t *testing.T) {
	f := newFixture(t)
	p := dbtest.SeedPurchase(t, f.client.DB(), "코트", 50000, enums.OrderDetailStateReturnRequest)
	ret := dbtest.SeedReturn(t, f.client.DB(), p.Detail.ID, enums.ReturnStateCollectIng)

	tests := []struct {
		name     string
		returnID uuid.UUID
		label    string
		code     pkgerrors.Code
	}{
		{name: "unknown label", returnID: ret.ID, label: "교환 요청", code: pkgerrors.CodeNotFound},
		{name: "unknown return", returnID: uuid.New(), label: "수거 완료", code: pkgerrors.CodeNotFound},
		{name: "backwards", returnID: ret.ID, label: "반품 요청", code: pkgerrors.CodeStateConflict},
		{name: "same state", returnID: ret.ID, label: "COLLECT_ING", code: pkgerrors.CodeStateConflict},
		{name: "refund by label", returnID: ret.ID, label: "환불 완료", code: pkgerrors.CodeStateConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.advance(tt.returnID, tt.label)
			require.True(t, pkgerrors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestAdvanceRejectsExistingRefund(t *testing.T) {
	f := newFixture(t)
	p := dbtest.SeedPurchase(t, f.client.DB(), "코트", 50000, enums.OrderDetailStateReturnRequest)
	ret := dbtest.SeedReturn(t, f.client.DB(), p.Detail.ID, enums.ReturnStateCollectIng)
	require.NoError(t, f.client.DB().Create(&models.Refund{ReturnID: ret.ID}).Error)

	_, err := f.advance(ret.ID, "수거 완료")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.EqualValues(t, 1, f.refundCount(t, ret.ID))

	var stored models.Return
	require.NoError(t, f.client.DB().First(&stored, "id = ?", ret.ID).Error)
	require.Equal(t, enums.ReturnStateCollectIng, stored.State, "failed advance must roll back")
}

func TestConcurrentCollectCreatesOneRefund(t *testing.T) {
	f := newFixture(t)
	p := dbtest.SeedPurchase(t, f.client.DB(), "코트", 50000, enums.OrderDetailStateReturnRequest)
	ret := dbtest.SeedReturn(t, f.client.DB(), p.Detail.ID, enums.ReturnStateCollectIng)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.advance(ret.ID, "수거 완료")
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err == nil {
			continue
		}
		failures++
		code := pkgerrors.CodeOf(err)
		require.Contains(t, []pkgerrors.Code{pkgerrors.CodeStateConflict, pkgerrors.CodeConflict}, code)
	}
	require.Equal(t, 1, failures)
	require.EqualValues(t, 1, f.refundCount(t, ret.ID))
}

func TestIssueRefund(t *testing.T) {
	f := newFixture(t)
	p := dbtest.SeedPurchase(t, f.client.DB(), "코트", 50000, enums.OrderDetailStateReturnRequest)
	ret := dbtest.SeedReturn(t, f.client.DB(), p.Detail.ID, enums.ReturnStateCollectIng)
	_, err := f.advance(ret.ID, "수거 완료")
	require.NoError(t, err)

	res, err := f.refund(ret.ID, 80)
	require.NoError(t, err)
	require.EqualValues(t, 40000, res.Amount)
	require.EqualValues(t, 40000, res.Balance)
	require.Equal(t, p.User.ID, res.UserID)
	require.Equal(t, "코트", res.ProductName)

	var detail models.OrderDetail
	require.NoError(t, f.client.DB().First(&detail, "id = ?", p.Detail.ID).Error)
	require.Equal(t, enums.OrderDetailStateReturnComplete, detail.State)

	var stored models.Return
	require.NoError(t, f.client.DB().First(&stored, "id = ?", ret.ID).Error)
	require.Equal(t, enums.ReturnStateRefundComplete, stored.State)

	var refund models.Refund
	require.NoError(t, f.client.DB().Where("return_id = ?", ret.ID).First(&refund).Error)
	require.True(t, refund.Completed)
	require.NotNil(t, refund.Percent)
	require.Equal(t, 80, *refund.Percent)
	require.EqualValues(t, 40000, refund.Amount)
	require.NotNil(t, refund.CompletedAt)

	_, err = f.refund(ret.ID, 80)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	var entries []models.Mileage
	require.NoError(t, f.client.DB().Where("user_id = ?", p.User.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	require.Equal(t, enums.MileageReasonRefund, entries[0].Reason)
	require.EqualValues(t, 40000, entries[0].ChangeMileage)

	balance, err := f.ledger.CurrentBalance(context.Background(), p.User.ID)
	require.NoError(t, err)
	require.EqualValues(t, 40000, balance)
	require.NoError(t, f.ledger.Verify(context.Background(), p.User.ID))
}

func TestIssueRefundErrors(t *testing.T) {
	f := newFixture(t)
	p := dbtest.SeedPurchase(t, f.client.DB(), "코트", 50000, enums.OrderDetailStateReturnRequest)
	collecting := dbtest.SeedReturn(t, f.client.DB(), p.Detail.ID, enums.ReturnStateCollectIng)

	q := dbtest.SeedPurchase(t, f.client.DB(), "셔츠", 30000, enums.OrderDetailStateReturnRequest)
	orphan := dbtest.SeedReturn(t, f.client.DB(), q.Detail.ID, enums.ReturnStateCollectComplete)

	tests := []struct {
		name     string
		returnID uuid.UUID
		percent  int
		code     pkgerrors.Code
	}{
		{name: "percent above range", returnID: collecting.ID, percent: 101, code: pkgerrors.CodeValidation},
		{name: "negative percent", returnID: collecting.ID, percent: -1, code: pkgerrors.CodeValidation},
		{name: "unknown return", returnID: uuid.New(), percent: 50, code: pkgerrors.CodeNotFound},
		{name: "not collected", returnID: collecting.ID, percent: 50, code: pkgerrors.CodeStateConflict},
		{name: "missing refund", returnID: orphan.ID, percent: 50, code: pkgerrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.refund(tt.returnID, tt.percent)
			require.True(t, pkgerrors.IsCode(err, tt.code), "got %v", err)
		})
	}

	var entries int64
	require.NoError(t, f.client.DB().Model(&models.Mileage{}).Count(&entries).Error)
	require.Zero(t, entries)
}

func TestRequestReturn(t *testing.T) {
	f := newFixture(t)
	p := dbtest.SeedPurchase(t, f.client.DB(), "운동화", 89000, enums.OrderDetailStateDeliveryComplete)
	shipping := dbtest.SeedPurchase(t, f.client.DB(), "양말", 5000, enums.OrderDetailStateDeliveryIng)
	ctx := context.Background()

	request := func(input RequestInput) (*models.Return, error) {
		var ret *models.Return
		err := f.client.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			ret, err = f.engine.RequestReturn(ctx, tx, input)
			return err
		})
		return ret, err
	}

	_, err := request(RequestInput{UserID: p.User.ID, DetailID: p.Detail.ID, Contents: "  "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = request(RequestInput{UserID: shipping.User.ID, DetailID: p.Detail.ID, Contents: "불량"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "other users must not see the item")

	_, err = request(RequestInput{UserID: shipping.User.ID, DetailID: shipping.Detail.ID, Contents: "불량"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	ret, err := request(RequestInput{UserID: p.User.ID, DetailID: p.Detail.ID, Contents: " 불량입니다 "})
	require.NoError(t, err)
	require.Equal(t, enums.ReturnStateReturnRequest, ret.State)
	require.Equal(t, "불량입니다", ret.Contents)

	var detail models.OrderDetail
	require.NoError(t, f.client.DB().First(&detail, "id = ?", p.Detail.ID).Error)
	require.Equal(t, enums.OrderDetailStateReturnRequest, detail.State)

	_, err = request(RequestInput{UserID: p.User.ID, DetailID: p.Detail.ID, Contents: "다시"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}
