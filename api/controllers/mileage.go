package controllers

import (
	"net/http"

	"github.com/gwon477/dmarket/api/responses"
	"github.com/gwon477/dmarket/api/validators"
	"github.com/gwon477/dmarket/internal/mileage"
	"github.com/gwon477/dmarket/pkg/logger"
)

type mileageChargeRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// RequestMileageCharge queues a charge request for back-office approval.
func RequestMileageCharge(svc mileage.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("mileage service"))
			return
		}
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body mileageChargeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.Request(r.Context(), userID, body.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, req)
	}
}
