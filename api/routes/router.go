package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gwon477/dmarket/api/controllers"
	"github.com/gwon477/dmarket/api/middleware"
	"github.com/gwon477/dmarket/internal/ledger"
	"github.com/gwon477/dmarket/internal/mileage"
	"github.com/gwon477/dmarket/internal/notifications"
	"github.com/gwon477/dmarket/internal/orders"
	"github.com/gwon477/dmarket/internal/returns"
	"github.com/gwon477/dmarket/pkg/config"
	"github.com/gwon477/dmarket/pkg/logger"
)

// Workflow is the command side of the API; *workflow.Coordinator implements it.
type Workflow interface {
	controllers.OrderCommands
	controllers.ReturnCommands
	controllers.MileageCommands
	controllers.BoardCommands
}

type redisStore interface {
	middleware.ResponseCache
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            controllers.Pinger
	Redis         redisStore
	Workflow      Workflow
	Orders        orders.Service
	Returns       returns.Service
	Mileage       mileage.Service
	Ledger        ledger.Service
	Notifications notifications.Service
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": d.DB,
			"redis":    d.Redis,
		}))
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit("api", d.Redis, cfg.RateLimit.AdminLimit, cfg.RateLimit.AdminWindow, logg))
		// Route-level so the middleware sees the full chi pattern.
		idem := middleware.Idempotency(d.Redis, logg)

		r.With(idem).Post("/returns", controllers.RequestReturn(d.Workflow, logg))
		r.With(idem).Post("/mileage-requests", controllers.RequestMileageCharge(d.Mileage, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(d.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(d.Notifications, logg))
			r.Patch("/{notificationId}/read", controllers.MarkNotificationRead(d.Notifications, logg))
			r.Patch("/read-all", controllers.MarkAllNotificationsRead(d.Notifications, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Patch("/order-details/{detailId}/state", controllers.AdminOrderDetailState(d.Workflow, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrdersByStatus(d.Orders, logg))
				r.Get("/state-counts", controllers.AdminOrderStateCounts(d.Orders, logg))
				r.Get("/canceled", controllers.AdminCanceledOrders(d.Orders, logg))
			})

			r.Get("/returns", controllers.AdminReturnsByStatus(d.Returns, logg))
			r.Patch("/returns/{returnId}/state", controllers.AdminReturnState(d.Workflow, logg))
			r.With(idem).Post("/refunds", controllers.AdminIssueRefund(d.Workflow, logg))

			r.Get("/mileage-requests", controllers.AdminMileageRequests(d.Mileage, logg))
			r.With(idem).Post("/mileage-requests/{requestId}/resolve", controllers.AdminResolveMileageRequest(d.Workflow, logg))
			r.Get("/users/{userId}/mileage", controllers.AdminMileageHistory(d.Ledger, logg))

			r.With(idem).Post("/inquiries/{inquiryId}/replies", controllers.AdminReplyInquiry(d.Workflow, logg))
			r.Delete("/inquiries/{inquiryId}", controllers.AdminDeleteInquiry(d.Workflow, logg))
			r.Delete("/inquiry-replies/{replyId}", controllers.AdminDeleteInquiryReply(d.Workflow, logg))
			r.With(idem).Post("/qnas/{qnaId}/replies", controllers.AdminReplyQna(d.Workflow, logg))
			r.Delete("/qna-replies/{replyId}", controllers.AdminDeleteQnaReply(d.Workflow, logg))
		})
	})

	return r
}
