package controllers

import (
	"net/http"

	"github.com/gwon477/dmarket/api/responses"
	"github.com/gwon477/dmarket/api/validators"
	"github.com/gwon477/dmarket/internal/returns"
	"github.com/gwon477/dmarket/pkg/logger"
)

type returnRequest struct {
	OrderDetailID string `json:"orderDetailId" validate:"required,uuid"`
	Contents      string `json:"returnContents" validate:"required"`
}

// RequestReturn files a return for one of the caller's delivered line items.
func RequestReturn(cmds ReturnCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cmds == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("return commands"))
			return
		}
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body returnRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detailID, err := validators.BodyUUID("orderDetailId", body.OrderDetailID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ret, err := cmds.RequestReturn(r.Context(), returns.RequestInput{
			UserID:   userID,
			DetailID: detailID,
			Contents: body.Contents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ret)
	}
}
