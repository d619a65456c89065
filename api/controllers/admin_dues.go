package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/unieats/unieats-backend/api/responses"
	"github.com/unieats/unieats-backend/api/validators"
	"github.com/unieats/unieats-backend/internal/dues"
	"github.com/unieats/unieats-backend/pkg/enums"
	pkgerrors "github.com/unieats/unieats-backend/pkg/errors"
	"github.com/unieats/unieats-backend/pkg/logger"
)

type reconcileRequest struct {
	DryRun bool `json:"dry_run"`
}

type markPaidRequest struct {
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	TransactionRef string          `json:"transaction_ref"`
}

// DuesReconcile runs the settlement batch on demand.
func DuesReconcile(svc dues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reconcileRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.Run(r.Context(), req.DryRun)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DuesList returns settlement records, filterable by vendor and status.
func DuesList(svc dues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID := uuid.Nil
		if raw := strings.TrimSpace(r.URL.Query().Get("vendor_id")); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "vendor_id must be a valid uuid"))
				return
			}
			vendorID = parsed
		}

		var status *enums.DueStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseDueStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		rows, err := svc.List(r.Context(), vendorID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func DueGet(svc dues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dueID, err := parseIDParam(r, "dueID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		due, err := svc.Get(r.Context(), dueID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, due)
	}
}

// DueMarkPaid applies an incoming payment to a settlement.
func DueMarkPaid(svc dues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dueID, err := parseIDParam(r, "dueID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req markPaidRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		due, err := svc.MarkPaid(r.Context(), dueID, dues.MarkPaidInput{
			Amount:         req.Amount,
			TransactionRef: req.TransactionRef,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, due)
	}
}
