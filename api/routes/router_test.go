package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/gwon477/dmarket/internal/board"
	"github.com/gwon477/dmarket/internal/mileage"
	"github.com/gwon477/dmarket/internal/orders"
	"github.com/gwon477/dmarket/internal/returns"
	pkgAuth "github.com/gwon477/dmarket/pkg/auth"
	"github.com/gwon477/dmarket/pkg/config"
	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	"github.com/gwon477/dmarket/pkg/logger"
	"github.com/gwon477/dmarket/pkg/pagination"
)

type memoryRedis struct {
	data    map[string]string
	counter map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, counter: map[string]int64{}}
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("idem:%s:%s", scope, id)
}

func (m *memoryRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.counter[scope]++
	return m.counter[scope] <= limit, m.counter[scope], nil
}

func (m *memoryRedis) Ping(context.Context) error { return nil }

type countingWorkflow struct {
	refunds int
}

func (w *countingWorkflow) MarkOrderDetailState(context.Context, uuid.UUID, string) (*orders.TransitionResult, error) {
	return nil, nil
}

func (w *countingWorkflow) MarkReturnState(context.Context, uuid.UUID, string) (*returns.AdvanceResult, error) {
	return nil, nil
}

func (w *countingWorkflow) IssueRefund(_ context.Context, returnID uuid.UUID, percent int) (*returns.RefundResult, error) {
	w.refunds++
	return &returns.RefundResult{ReturnID: returnID, RefundID: uuid.New(), Percent: percent, Amount: 40000}, nil
}

func (w *countingWorkflow) RequestReturn(context.Context, returns.RequestInput) (*models.Return, error) {
	return nil, nil
}

func (w *countingWorkflow) ResolveMileageRequest(context.Context, uuid.UUID, bool) (*mileage.ResolveResult, error) {
	return nil, nil
}

func (w *countingWorkflow) ReplyInquiry(context.Context, uuid.UUID, string) (*board.ReplyResult, error) {
	return nil, nil
}

func (w *countingWorkflow) DeleteInquiryReply(context.Context, uuid.UUID) error { return nil }
func (w *countingWorkflow) DeleteInquiry(context.Context, uuid.UUID) error      { return nil }

func (w *countingWorkflow) ReplyQna(context.Context, uuid.UUID, string) (*board.ReplyResult, error) {
	return nil, nil
}

func (w *countingWorkflow) DeleteQnaReply(context.Context, uuid.UUID) error { return nil }

type stubOrders struct{}

func (stubOrders) StateCounts(context.Context) ([]orders.StateCount, error) {
	return []orders.StateCount{{State: enums.OrderDetailStateDeliveryIng, Label: "배송중", Count: 2}}, nil
}

func (stubOrders) ListByStatus(context.Context, string, pagination.Page) (pagination.Result[orders.OrderDetailView], error) {
	return pagination.Result[orders.OrderDetailView]{}, nil
}

func (stubOrders) ListCanceled(context.Context, pagination.Page) (pagination.Result[orders.OrderDetailView], error) {
	return pagination.Result[orders.OrderDetailView]{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Env: "dev", CORSOrigins: []string{"http://localhost:3000"}},
		JWT:       config.JWTConfig{Secret: "test-secret", Issuer: "dmarket", ExpirationMinutes: 10},
		RateLimit: config.RateLimitConfig{AdminWindow: time.Minute, AdminLimit: 100},
	}
}

func token(t *testing.T, cfg *config.Config, role enums.MemberRole) string {
	t.Helper()
	tok, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	require.NoError(t, err)
	return tok
}

func newTestRouter(cfg *config.Config, wf Workflow, store redisStore) http.Handler {
	return NewRouter(Deps{
		Config:   cfg,
		Logger:   logger.Nop(),
		Redis:    store,
		Workflow: wf,
		Orders:   stubOrders{},
	})
}

func TestRouterHealthIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), &countingWorkflow{}, newMemoryRedis())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRouterAdminAccessControl(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &countingWorkflow{}, newMemoryRedis())

	tests := []struct {
		name   string
		auth   string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"customer token", "Bearer " + token(t, cfg, enums.MemberRoleUser), http.StatusForbidden},
		{"admin token", "Bearer " + token(t, cfg, enums.MemberRoleSuperAdmin), http.StatusOK},
		{"cs token", "Bearer " + token(t, cfg, enums.MemberRoleCS), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/orders/state-counts", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			require.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRouterRefundIsIdempotent(t *testing.T) {
	cfg := testConfig()
	wf := &countingWorkflow{}
	router := newTestRouter(cfg, wf, newMemoryRedis())
	bearer := "Bearer " + token(t, cfg, enums.MemberRoleSuperAdmin)
	body := `{"returnId":"` + uuid.NewString() + `","percent":80}`

	send := func(key, payload string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/refunds", strings.NewReader(payload))
		req.Header.Set("Authorization", bearer)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusBadRequest, send("", body).Code)

	first := send("refund-1", body)
	require.Equal(t, http.StatusOK, first.Code)
	replay := send("refund-1", body)
	require.Equal(t, http.StatusOK, replay.Code)
	require.Equal(t, first.Body.String(), replay.Body.String())
	require.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	require.Equal(t, 1, wf.refunds)

	require.Equal(t, http.StatusConflict, send("refund-1", `{"returnId":"`+uuid.NewString()+`","percent":10}`).Code)
}

func TestRouterRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.AdminLimit = 2
	router := newTestRouter(cfg, &countingWorkflow{}, newMemoryRedis())
	bearer := "Bearer " + token(t, cfg, enums.MemberRoleGM)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders/state-counts", nil)
		req.Header.Set("Authorization", bearer)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
