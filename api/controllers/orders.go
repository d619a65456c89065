package controllers

import (
	"net/http"
	"strings"

	"github.com/unieats/unieats-backend/api/middleware"
	"github.com/unieats/unieats-backend/api/responses"
	"github.com/unieats/unieats-backend/api/validators"
	"github.com/unieats/unieats-backend/internal/checkout"
	internalorders "github.com/unieats/unieats-backend/internal/orders"
	"github.com/unieats/unieats-backend/pkg/cache"
	"github.com/unieats/unieats-backend/pkg/logger"
	"github.com/unieats/unieats-backend/pkg/pagination"
)

const orderHistoryCacheScope = "orders:user"

// OrderPlace turns the caller's cart into an order.
func OrderPlace(svc checkout.Service, history *cache.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input checkout.PlaceInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.PrincipalIDFromContext(r.Context())
		result, err := svc.Place(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invalidateOrderHistory(r, history, logg, userID.String())
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// OrderList returns the caller's order history, newest first. First pages
// (no cursor) are served from the response cache when warm.
func OrderList(svc internalorders.Service, history *cache.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.PrincipalIDFromContext(r.Context())

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
		params := pagination.Params{Limit: limit, Cursor: cursor}

		cacheable := history != nil && cursor == "" && limit == pagination.DefaultLimit
		if cacheable {
			var cached internalorders.ListResult
			if hit, cacheErr := history.GetJSON(r.Context(), &cached, orderHistoryCacheScope, userID.String()); cacheErr == nil && hit {
				responses.WriteSuccess(w, cached)
				return
			}
		}

		result, err := svc.ListForUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if cacheable {
			if cacheErr := history.SetJSON(r.Context(), result, orderHistoryCacheScope, userID.String()); cacheErr != nil && logg != nil {
				logg.Warn(logg.WithField(r.Context(), "error", cacheErr.Error()), "order history cache write failed")
			}
		}
		responses.WriteSuccess(w, result)
	}
}

func OrderGet(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.PrincipalIDFromContext(r.Context())
		order, err := svc.GetForUser(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func invalidateOrderHistory(r *http.Request, history *cache.Service, logg *logger.Logger, userID string) {
	if history == nil {
		return
	}
	if err := history.Invalidate(r.Context(), orderHistoryCacheScope, userID); err != nil && logg != nil {
		logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "order history cache invalidation failed")
	}
}
