package controllers

import (
	"net/http"

	"github.com/gwon477/dmarket/api/responses"
	"github.com/gwon477/dmarket/api/validators"
	"github.com/gwon477/dmarket/internal/ledger"
	"github.com/gwon477/dmarket/internal/mileage"
	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	"github.com/gwon477/dmarket/pkg/logger"
	"github.com/gwon477/dmarket/pkg/pagination"
)

type resolveRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

type resolveResponse struct {
	MileageRequestID string                    `json:"mileageRequestId"`
	State            enums.MileageRequestState `json:"state"`
	Approved         bool                      `json:"approved"`
	Balance          *int64                    `json:"balance,omitempty"`
}

type historyResponse struct {
	Balance int64                            `json:"balance"`
	History pagination.Result[models.Mileage] `json:"history"`
}

func AdminMileageRequests(svc mileage.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("mileage service"))
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), r.URL.Query().Get("status"), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminResolveMileageRequest approves or refuses a pending charge request.
func AdminResolveMileageRequest(cmds MileageCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cmds == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("mileage commands"))
			return
		}
		requestID, err := validators.PathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body resolveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := cmds.ResolveMileageRequest(r.Context(), requestID, *body.Approve)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := resolveResponse{
			MileageRequestID: result.Request.ID.String(),
			State:            result.Request.State,
			Approved:         result.Approved,
		}
		if result.Approved {
			balance := result.Balance
			resp.Balance = &balance
		}
		responses.WriteSuccess(w, resp)
	}
}

// AdminMileageHistory returns a user's balance and ledger page, newest first.
func AdminMileageHistory(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("ledger service"))
			return
		}
		userID, err := validators.PathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		balance, err := svc.CurrentBalance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		history, err := svc.History(r.Context(), userID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, historyResponse{Balance: balance, History: history})
	}
}
