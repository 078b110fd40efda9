package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/internal/users"
	dbpkg "github.com/gwon477/dmarket/pkg/db"
	"github.com/gwon477/dmarket/pkg/db/dbtest"
	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to enums.OrderDetailState
		want     bool
	}{
		{enums.OrderDetailStateOrderComplete, enums.OrderDetailStateDeliveryReady, true},
		{enums.OrderDetailStateOrderComplete, enums.OrderDetailStateDeliveryComplete, true},
		{enums.OrderDetailStateDeliveryReady, enums.OrderDetailStateOrderCancel, true},
		{enums.OrderDetailStateDeliveryIng, enums.OrderDetailStateOrderCancel, false},
		{enums.OrderDetailStateDeliveryIng, enums.OrderDetailStateDeliveryReady, false},
		{enums.OrderDetailStateDeliveryComplete, enums.OrderDetailStateReturnRequest, true},
		{enums.OrderDetailStateReturnRequest, enums.OrderDetailStateReturnComplete, true},
		{enums.OrderDetailStateDeliveryIng, enums.OrderDetailStateDeliveryIng, false},
		{enums.OrderDetailStateOrderCancel, enums.OrderDetailStateDeliveryReady, false},
		{enums.OrderDetailStateReturnComplete, enums.OrderDetailStateReturnRequest, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
	require.True(t, IsTerminal(enums.OrderDetailStateOrderCancel))
	require.True(t, IsTerminal(enums.OrderDetailStateReturnComplete))
	require.False(t, IsTerminal(enums.OrderDetailStateDeliveryIng))
}

func newTestEngine(t *testing.T, conn *gorm.DB) Engine {
	t.Helper()
	engine, err := NewEngine(NewRepository(conn), users.NewDirectory(conn))
	require.NoError(t, err)
	return engine
}

func TestTransitionPersistsStateAndReportsOwner(t *testing.T) {
	client := dbtest.Open(t)
	p := dbtest.SeedPurchase(t, client.DB(), "린넨 셔츠", 39000, enums.OrderDetailStateOrderComplete)
	engine := newTestEngine(t, client.DB())

	var result *TransitionResult
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		result, err = engine.Transition(context.Background(), tx, p.Detail.ID, "배송중")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderDetailStateOrderComplete, result.From)
	require.Equal(t, enums.OrderDetailStateDeliveryIng, result.To)
	require.Equal(t, p.User.ID, result.UserID)
	require.Equal(t, "린넨 셔츠", result.ProductName)

	var stored models.OrderDetail
	require.NoError(t, client.DB().First(&stored, "id = ?", p.Detail.ID).Error)
	require.Equal(t, enums.OrderDetailStateDeliveryIng, stored.State)
	require.Equal(t, 1, stored.Version)
}

func TestTransitionErrors(t *testing.T) {
	client := dbtest.Open(t)
	p := dbtest.SeedPurchase(t, client.DB(), "니트", 59000, enums.OrderDetailStateDeliveryIng)
	engine := newTestEngine(t, client.DB())
	ctx := context.Background()

	tests := []struct {
		name     string
		detailID uuid.UUID
		label    string
		code     pkgerrors.Code
	}{
		{name: "unknown label", detailID: p.Detail.ID, label: "배송 보류", code: pkgerrors.CodeNotFound},
		{name: "missing detail", detailID: uuid.New(), label: "배송 완료", code: pkgerrors.CodeNotFound},
		{name: "same state", detailID: p.Detail.ID, label: "배송중", code: pkgerrors.CodeStateConflict},
		{name: "cancel after shipping", detailID: p.Detail.ID, label: "주문 취소", code: pkgerrors.CodeStateConflict},
		{name: "backwards", detailID: p.Detail.ID, label: "DELIVERY_READY", code: pkgerrors.CodeStateConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.WithTx(ctx, func(tx *gorm.DB) error {
				_, err := engine.Transition(ctx, tx, tt.detailID, tt.label)
				return err
			})
			require.True(t, pkgerrors.IsCode(err, tt.code), "got %v", err)
		})
	}

	_, err := engine.Transition(ctx, nil, p.Detail.ID, "배송 완료")
	require.Error(t, err)
}

type staleRepository struct {
	Repository
}

func (s staleRepository) WithTx(*gorm.DB) Repository { return s }

func (s staleRepository) UpdateDetailState(context.Context, *models.OrderDetail, enums.OrderDetailState) error {
	return dbpkg.ErrStaleVersion
}

func TestTransitionStaleVersionIsConflict(t *testing.T) {
	client := dbtest.Open(t)
	p := dbtest.SeedPurchase(t, client.DB(), "모자", 15000, enums.OrderDetailStateDeliveryReady)
	engine, err := NewEngine(staleRepository{Repository: NewRepository(client.DB())}, users.NewDirectory(client.DB()))
	require.NoError(t, err)

	_, err = engine.Transition(context.Background(), client.DB(), p.Detail.ID, "배송중")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}
