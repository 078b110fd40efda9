package workflow

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/internal/board"
	"github.com/gwon477/dmarket/internal/ledger"
	"github.com/gwon477/dmarket/internal/mileage"
	"github.com/gwon477/dmarket/internal/notifications"
	"github.com/gwon477/dmarket/internal/orders"
	"github.com/gwon477/dmarket/internal/returns"
	"github.com/gwon477/dmarket/internal/users"
	dbpkg "github.com/gwon477/dmarket/pkg/db"
	"github.com/gwon477/dmarket/pkg/db/dbtest"
	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
	"github.com/gwon477/dmarket/pkg/logger"
	"github.com/gwon477/dmarket/pkg/metrics"
	"github.com/gwon477/dmarket/pkg/outbox"
	"github.com/gwon477/dmarket/pkg/outbox/payloads"
	"github.com/gwon477/dmarket/pkg/pagination"
)

type harness struct {
	client      *dbpkg.Client
	coordinator *Coordinator
	ledger      ledger.Service
	registry    *prometheus.Registry
}

// droppingScheduler accepts nothing, like an outbox that is unavailable.
type droppingScheduler struct{}

func (droppingScheduler) Schedule(context.Context, *gorm.DB, notifications.Request) bool {
	return false
}

func newHarness(t *testing.T, scheduler notifications.Scheduler) harness {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()
	dir := users.NewDirectory(conn)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), client)
	require.NoError(t, err)
	orderEngine, err := orders.NewEngine(orders.NewRepository(conn), dir)
	require.NoError(t, err)
	returnEngine, err := returns.NewEngine(returns.NewRepository(conn), dir, ledgerSvc)
	require.NoError(t, err)
	mileageEngine, err := mileage.NewEngine(mileage.NewRepository(conn), dir, ledgerSvc)
	require.NoError(t, err)
	boardEngine, err := board.NewEngine(board.NewRepository(conn))
	require.NoError(t, err)

	if scheduler == nil {
		dispatcher, err := notifications.NewDispatcher(outbox.NewService(outbox.NewRepository(conn), nil), logger.Nop(), nil)
		require.NoError(t, err)
		scheduler = dispatcher
	}

	reg := prometheus.NewRegistry()
	coordinator, err := NewCoordinator(Deps{
		Tx:       client,
		Orders:   orderEngine,
		Returns:  returnEngine,
		Mileage:  mileageEngine,
		Board:    boardEngine,
		Notifier: scheduler,
		Logger:   logger.Nop(),
		Metrics:  metrics.NewWorkflowMetrics(reg),
	})
	require.NoError(t, err)
	return harness{client: client, coordinator: coordinator, ledger: ledgerSvc, registry: reg}
}

func (h harness) queued(t *testing.T) []payloads.NotificationRequestedEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, h.client.DB().Order("created_at ASC").Find(&rows).Error)
	out := make([]payloads.NotificationRequestedEvent, 0, len(rows))
	for _, row := range rows {
		var envelope outbox.PayloadEnvelope
		require.NoError(t, json.Unmarshal(row.Payload, &envelope))
		var payload payloads.NotificationRequestedEvent
		require.NoError(t, json.Unmarshal(envelope.Data, &payload))
		out = append(out, payload)
	}
	return out
}

func TestRefundScenario(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p := dbtest.SeedPurchase(t, h.client.DB(), "울 코트", 50000, enums.OrderDetailStateDeliveryComplete)

	ret, err := h.coordinator.RequestReturn(ctx, returns.RequestInput{UserID: p.User.ID, DetailID: p.Detail.ID, Contents: "색상이 달라요"})
	require.NoError(t, err)

	for _, label := range []string{"수거중", "수거 완료"} {
		_, err := h.coordinator.MarkReturnState(ctx, ret.ID, label)
		require.NoError(t, err, label)
	}

	before := len(h.queued(t))
	res, err := h.coordinator.IssueRefund(ctx, ret.ID, 80)
	require.NoError(t, err)
	require.EqualValues(t, 40000, res.Amount)

	var stored models.Return
	require.NoError(t, h.client.DB().First(&stored, "id = ?", ret.ID).Error)
	require.Equal(t, enums.ReturnStateRefundComplete, stored.State)

	var detail models.OrderDetail
	require.NoError(t, h.client.DB().First(&detail, "id = ?", p.Detail.ID).Error)
	require.Equal(t, enums.OrderDetailStateReturnComplete, detail.State)

	history, err := h.ledger.History(ctx, p.User.ID, pagination.NewPage(1))
	require.NoError(t, err)
	require.Len(t, history.Items, 1)
	require.Equal(t, enums.MileageReasonRefund, history.Items[0].Reason)
	require.EqualValues(t, 40000, history.Items[0].ChangeMileage)

	queued := h.queued(t)
	require.Len(t, queued, before+1, "refund queues exactly one notification")
	last := queued[len(queued)-1]
	require.Equal(t, enums.NotificationKindReturn, last.Kind)
	require.Equal(t, p.User.ID, last.ReceiverID)
	require.Equal(t, "울 코트(이)가 환불 완료 상태입니다.", last.Content)
	require.Equal(t, notifications.OrderInfoURL, last.URL)

	_, err = h.coordinator.IssueRefund(ctx, ret.ID, 80)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	balance, err := h.ledger.CurrentBalance(ctx, p.User.ID)
	require.NoError(t, err)
	require.EqualValues(t, 40000, balance, "a second refund must not credit again")
	require.Len(t, h.queued(t), before+1)

	series, err := testutil.GatherAndCount(h.registry, "dmarket_workflow_transitions_total")
	require.NoError(t, err)
	require.Equal(t, 4, series, "request, advance, refund and rejected refund")
}

func TestMileageApprovalScenario(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	user := dbtest.SeedUser(t, h.client.DB(), "홍길동")
	req := models.MileageRequest{UserID: user.ID, Amount: 10000}
	require.NoError(t, h.client.DB().Create(&req).Error)

	res, err := h.coordinator.ResolveMileageRequest(ctx, req.ID, true)
	require.NoError(t, err)
	require.Equal(t, enums.MileageRequestApproval, res.Request.State)

	queued := h.queued(t)
	require.Len(t, queued, 1)
	require.Equal(t, enums.NotificationKindMileage, queued[0].Kind)
	require.True(t, strings.Contains(queued[0].Content, "10,000"), queued[0].Content)
	require.Equal(t, notifications.MileageInfoURL, queued[0].URL)

	balance, err := h.ledger.CurrentBalance(ctx, user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 10000, balance)

	_, err = h.coordinator.ResolveMileageRequest(ctx, req.ID, true)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.Len(t, h.queued(t), 1)
}

func TestMileageRefusalNotifiesWithoutLedger(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	user := dbtest.SeedUser(t, h.client.DB(), "홍길동")
	req := models.MileageRequest{UserID: user.ID, Amount: 25000}
	require.NoError(t, h.client.DB().Create(&req).Error)

	_, err := h.coordinator.ResolveMileageRequest(ctx, req.ID, false)
	require.NoError(t, err)

	queued := h.queued(t)
	require.Len(t, queued, 1)
	require.Equal(t, "홍길동님의 25000마일리지 충전 요청이 거부되었습니다.", queued[0].Content)

	balance, err := h.ledger.CurrentBalance(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestConcurrentCollectCompleteCreatesOneRefund(t *testing.T) {
	h := newHarness(t, nil)
	p := dbtest.SeedPurchase(t, h.client.DB(), "코트", 50000, enums.OrderDetailStateReturnRequest)
	ret := dbtest.SeedReturn(t, h.client.DB(), p.Detail.ID, enums.ReturnStateCollectIng)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.coordinator.MarkReturnState(context.Background(), ret.ID, "수거 완료")
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		code := pkgerrors.CodeOf(err)
		require.True(t, code == pkgerrors.CodeStateConflict || code == pkgerrors.CodeConflict, "got %v", err)
	}
	require.Equal(t, 1, succeeded)

	var refunds int64
	require.NoError(t, h.client.DB().Model(&models.Refund{}).Where("return_id = ?", ret.ID).Count(&refunds).Error)
	require.EqualValues(t, 1, refunds)
	require.Len(t, h.queued(t), 1)
}

func TestOrderDetailStateNotifiesDelivery(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p := dbtest.SeedPurchase(t, h.client.DB(), "후드티", 45000, enums.OrderDetailStateOrderComplete)

	res, err := h.coordinator.MarkOrderDetailState(ctx, p.Detail.ID, "배송 준비")
	require.NoError(t, err)
	require.Equal(t, enums.OrderDetailStateDeliveryReady, res.To)

	queued := h.queued(t)
	require.Len(t, queued, 1)
	require.Equal(t, enums.NotificationKindDelivery, queued[0].Kind)
	require.Equal(t, "후드티(이)가 배송 준비 상태입니다.", queued[0].Content)

	_, err = h.coordinator.MarkOrderDetailState(ctx, uuid.New(), "배송중")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.Len(t, h.queued(t), 1, "failed commands queue nothing")
}

func TestNotificationFailureKeepsBusinessChange(t *testing.T) {
	h := newHarness(t, droppingScheduler{})
	ctx := context.Background()
	p := dbtest.SeedPurchase(t, h.client.DB(), "후드티", 45000, enums.OrderDetailStateDeliveryIng)

	_, err := h.coordinator.MarkOrderDetailState(ctx, p.Detail.ID, "배송 완료")
	require.NoError(t, err)

	var detail models.OrderDetail
	require.NoError(t, h.client.DB().First(&detail, "id = ?", p.Detail.ID).Error)
	require.Equal(t, enums.OrderDetailStateDeliveryComplete, detail.State)
	require.Empty(t, h.queued(t))
}

func TestBoardReplies(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	user := dbtest.SeedUser(t, h.client.DB(), "문의자")
	inquiry := models.Inquiry{UserID: user.ID, Type: "교환", Title: "교환 문의", Contents: "교환 가능한가요"}
	require.NoError(t, h.client.DB().Create(&inquiry).Error)
	qna := models.Qna{ProductID: uuid.New(), UserID: user.ID, Title: "소재", Contents: "면 100%?"}
	require.NoError(t, h.client.DB().Create(&qna).Error)

	reply, err := h.coordinator.ReplyInquiry(ctx, inquiry.ID, "가능합니다")
	require.NoError(t, err)
	_, err = h.coordinator.ReplyQna(ctx, qna.ID, "네")
	require.NoError(t, err)

	queued := h.queued(t)
	require.Len(t, queued, 2)
	require.Equal(t, "[교환 문의]에 대한 답변이 등록되었습니다", queued[0].Content)
	require.Equal(t, notifications.InquiryURL, queued[0].URL)
	require.Equal(t, enums.NotificationKindQna, queued[1].Kind)

	require.NoError(t, h.coordinator.DeleteInquiryReply(ctx, reply.ReplyID))
	require.NoError(t, h.coordinator.DeleteInquiry(ctx, inquiry.ID))
	err = h.coordinator.DeleteQnaReply(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestOutcomeOf(t *testing.T) {
	require.Equal(t, metrics.OutcomeSuccess, outcomeOf(nil))
	require.Equal(t, metrics.OutcomeRejected, outcomeOf(pkgerrors.NotFound("return")))
	require.Equal(t, metrics.OutcomeRejected, outcomeOf(pkgerrors.InvalidState("x")))
	require.Equal(t, metrics.OutcomeConflict, outcomeOf(pkgerrors.Conflict("x")))
	require.Equal(t, metrics.OutcomeError, outcomeOf(pkgerrors.New(pkgerrors.CodeDependency, "db")))
}
