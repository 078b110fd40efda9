package controllers

import (
	"net/http"

	"github.com/gwon477/dmarket/api/responses"
	"github.com/gwon477/dmarket/api/validators"
	"github.com/gwon477/dmarket/internal/returns"
	"github.com/gwon477/dmarket/pkg/enums"
	"github.com/gwon477/dmarket/pkg/logger"
)

type returnTransitionResponse struct {
	ReturnID      string            `json:"returnId"`
	From          enums.ReturnState `json:"from"`
	To            enums.ReturnState `json:"to"`
	StateLabel    string            `json:"stateLabel"`
	RefundCreated bool              `json:"refundCreated"`
}

type refundRequest struct {
	ReturnID string `json:"returnId" validate:"required,uuid"`
	Percent  *int   `json:"percent" validate:"required,gte=0,lte=100"`
}

type refundResponse struct {
	ReturnID string `json:"returnId"`
	RefundID string `json:"refundId"`
	Percent  int    `json:"percent"`
	Amount   int64  `json:"amount"`
	Balance  int64  `json:"balance"`
}

// AdminReturnState advances a return along the collection flow.
func AdminReturnState(cmds ReturnCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cmds == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("return commands"))
			return
		}
		returnID, err := validators.PathUUID(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body stateLabelRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := cmds.MarkReturnState(r.Context(), returnID, body.Label)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, returnTransitionResponse{
			ReturnID:      result.Return.ID.String(),
			From:          result.From,
			To:            result.To,
			StateLabel:    result.To.Label(),
			RefundCreated: result.RefundCreated,
		})
	}
}

// AdminIssueRefund settles the pending refund of a collected return.
func AdminIssueRefund(cmds ReturnCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cmds == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("return commands"))
			return
		}
		var body refundRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		returnID, err := validators.BodyUUID("returnId", body.ReturnID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := cmds.IssueRefund(r.Context(), returnID, *body.Percent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, refundResponse{
			ReturnID: result.ReturnID.String(),
			RefundID: result.RefundID.String(),
			Percent:  result.Percent,
			Amount:   result.Amount,
			Balance:  result.Balance,
		})
	}
}

func AdminReturnsByStatus(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("returns service"))
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
