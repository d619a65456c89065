package controllers

import (
	"net/http"

	"github.com/unieats/unieats-backend/api/middleware"
	"github.com/unieats/unieats-backend/api/responses"
	"github.com/unieats/unieats-backend/api/validators"
	"github.com/unieats/unieats-backend/internal/payments"
	"github.com/unieats/unieats-backend/pkg/cache"
	"github.com/unieats/unieats-backend/pkg/logger"
)

type confirmUPIRequest struct {
	Reference string `json:"reference" validate:"required"`
}

// OrderConfirmUPI records the purchaser's manual UPI payment reference.
func OrderConfirmUPI(svc payments.Service, history *cache.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req confirmUPIRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.PrincipalIDFromContext(r.Context())
		order, err := svc.ConfirmUPI(r.Context(), userID, orderID, req.Reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invalidateOrderHistory(r, history, logg, userID.String())
		responses.WriteSuccess(w, order)
	}
}

// OrderVerifyPayment finalizes a gateway payment by checking its signature.
func OrderVerifyPayment(svc payments.Service, history *cache.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input payments.VerifyInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.PrincipalIDFromContext(r.Context())
		order, err := svc.VerifyGateway(r.Context(), userID, orderID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invalidateOrderHistory(r, history, logg, userID.String())
		responses.WriteSuccess(w, order)
	}
}
