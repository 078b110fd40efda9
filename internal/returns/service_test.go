package returns

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gwon477/dmarket/pkg/db/dbtest"
	"github.com/gwon477/dmarket/pkg/enums"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
	"github.com/gwon477/dmarket/pkg/pagination"
)

func TestServiceList(t *testing.T) {
	client := dbtest.Open(t)
	conn := client.DB()
	seed := func(state enums.ReturnState) {
		p := dbtest.SeedPurchase(t, conn, "가방", 120000, enums.OrderDetailStateReturnRequest)
		dbtest.SeedReturn(t, conn, p.Detail.ID, state)
	}
	seed(enums.ReturnStateReturnRequest)
	seed(enums.ReturnStateReturnRequest)
	seed(enums.ReturnStateCollectIng)
	seed(enums.ReturnStateRefundComplete)

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	res, err := svc.List(ctx, "반품 요청", pagination.NewPage(1))
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	require.EqualValues(t, 2, res.TotalCount)
	require.Equal(t, "가방", res.Items[0].ProductName)
	require.Equal(t, "반품 요청", res.Items[0].StateLabel)
	require.Equal(t, "사이즈가 맞지 않아요", res.Items[0].Contents)

	require.Len(t, res.Counts, 3)
	counts := map[enums.ReturnState]int64{}
	for _, c := range res.Counts {
		counts[c.State] = c.Count
	}
	require.EqualValues(t, 2, counts[enums.ReturnStateReturnRequest])
	require.EqualValues(t, 1, counts[enums.ReturnStateCollectIng])
	require.EqualValues(t, 0, counts[enums.ReturnStateCollectComplete])

	empty, err := svc.List(ctx, "COLLECT_COMPLETE", pagination.NewPage(1))
	require.NoError(t, err)
	require.Empty(t, empty.Items)

	for _, label := range []string{"환불 완료", "배송중", ""} {
		_, err = svc.List(ctx, label, pagination.NewPage(1))
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "label %q", label)
	}
}
