package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/avilesmedina/tiendita-backend/api/responses"
	"github.com/avilesmedina/tiendita-backend/api/validators"
	internalorders "github.com/avilesmedina/tiendita-backend/internal/orders"
	"github.com/avilesmedina/tiendita-backend/pkg/enums"
	pkgerrors "github.com/avilesmedina/tiendita-backend/pkg/errors"
	"github.com/avilesmedina/tiendita-backend/pkg/logger"
)

const (
	defaultOrderPageSize = 25
	maxOrderPageSize     = 200
)

type transitionRequest struct {
	Target string  `json:"target" validate:"required"`
	Notes  *string `json:"notes,omitempty"`
}

type deliveryAttemptRequest struct {
	Failed bool    `json:"failed"`
	Notes  *string `json:"notes,omitempty"`
}

type orderDetailResponse struct {
	orderResponse
	NextAction     string               `json:"next_action"`
	AllowedTargets []enums.OrderStatus  `json:"allowed_targets"`
	StatusHistory  []historyRowResponse `json:"status_history,omitempty"`
}

type historyRowResponse struct {
	Status    string    `json:"status"`
	Notes     *string   `json:"notes,omitempty"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

func newOrderDetailResponse(detail *internalorders.OrderDetail) orderDetailResponse {
	resp := orderDetailResponse{
		orderResponse:  newOrderResponse(&detail.Order),
		NextAction:     detail.NextAction,
		AllowedTargets: detail.AllowedTargets,
	}
	for _, row := range detail.StatusHistory {
		resp.StatusHistory = append(resp.StatusHistory, historyRowResponse{
			Status:    string(row.Status),
			Notes:     row.Notes,
			Actor:     row.Actor,
			CreatedAt: row.CreatedAt,
		})
	}
	return resp
}

func OrderList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultOrderPageSize, 1, maxOrderPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := internalorders.ListFilters{Limit: limit, Offset: offset}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
			status, err := enums.ParsePaymentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status filter"))
				return
			}
			filters.PaymentStatus = &status
		}

		list, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orderDetailResponse, 0, len(list))
		for i := range list {
			out = append(out, newOrderDetailResponse(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func OrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderDetailResponse(detail))
	}
}

// OrderTransition moves an order to a requested target status. Disallowed
// moves come back as 422 with the legal targets listed.
func OrderTransition(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		detail, err := svc.Transition(r.Context(), internalorders.TransitionInput{
			OrderID: orderID,
			Target:  target,
			Notes:   payload.Notes,
			Actor:   requestActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderDetailResponse(detail))
	}
}

func OrderDeliveryAttempt(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload deliveryAttemptRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.RecordDeliveryAttempt(r.Context(), internalorders.DeliveryAttemptInput{
			OrderID: orderID,
			Failed:  payload.Failed,
			Notes:   payload.Notes,
			Actor:   requestActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderDetailResponse(detail))
	}
}
