package controllers

import (
	"net/http"

	"github.com/gwon477/dmarket/api/responses"
	"github.com/gwon477/dmarket/api/validators"
	"github.com/gwon477/dmarket/internal/orders"
	"github.com/gwon477/dmarket/pkg/enums"
	"github.com/gwon477/dmarket/pkg/logger"
)

type stateLabelRequest struct {
	Label string `json:"label" validate:"required,max=32"`
}

type orderTransitionResponse struct {
	OrderDetailID string                 `json:"orderDetailId"`
	From          enums.OrderDetailState `json:"from"`
	To            enums.OrderDetailState `json:"to"`
	StateLabel    string                 `json:"stateLabel"`
}

// AdminOrderDetailState moves one order line to the state named by its label.
func AdminOrderDetailState(cmds OrderCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cmds == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("order commands"))
			return
		}
		detailID, err := validators.PathUUID(r, "detailId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body stateLabelRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := cmds.MarkOrderDetailState(r.Context(), detailID, body.Label)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderTransitionResponse{
			OrderDetailID: result.Detail.ID.String(),
			From:          result.From,
			To:            result.To,
			StateLabel:    result.To.Label(),
		})
	}
}

func AdminOrdersByStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("orders service"))
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListByStatus(r.Context(), r.URL.Query().Get("status"), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminOrderStateCounts(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("orders service"))
			return
		}
		counts, err := svc.StateCounts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counts)
	}
}

func AdminCanceledOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("orders service"))
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListCanceled(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
