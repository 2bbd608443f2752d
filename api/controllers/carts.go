package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/avilesmedina/tiendita-backend/api/responses"
	"github.com/avilesmedina/tiendita-backend/api/validators"
	cartsvc "github.com/avilesmedina/tiendita-backend/internal/cart"
	pkgerrors "github.com/avilesmedina/tiendita-backend/pkg/errors"
	"github.com/avilesmedina/tiendita-backend/pkg/logger"
)

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,gt=0"`
}

type setItemRequest struct {
	Qty int `json:"qty"`
}

type cartResponse struct {
	CartID uuid.UUID      `json:"cart_id"`
	Quote  cartsvc.Totals `json:"quote"`
}

// CartCreate mints a new session cart id. The cart itself materializes in
// Redis on the first item write.
func CartCreate(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		cartID := uuid.New()
		if err := store.Save(r.Context(), cartID, cartsvc.New()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"cart_id": cartID})
	}
}

func CartFetch(store *cartsvc.Store, svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, c, ok := loadCart(w, r, store, svc, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, cartResponse{CartID: cartID, Quote: svc.Quote(c)})
	}
}

func CartAddItem(store *cartsvc.Store, svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, c, ok := loadCart(w, r, store, svc, logg)
		if !ok {
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Add(r.Context(), c, payload.ProductID, payload.Qty); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.Save(r.Context(), cartID, c); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartResponse{CartID: cartID, Quote: svc.Quote(c)})
	}
}

// CartSetItem pins a line to an absolute quantity. Zero removes the line and
// quantities above available stock clamp down; the response reports which.
func CartSetItem(store *cartsvc.Store, svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, c, ok := loadCart(w, r, store, svc, logg)
		if !ok {
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SetQuantity(r.Context(), c, productID, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.Save(r.Context(), cartID, c); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"cart_id": cartID,
			"result":  result,
			"quote":   svc.Quote(c),
		})
	}
}

func CartRemoveItem(store *cartsvc.Store, svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, c, ok := loadCart(w, r, store, svc, logg)
		if !ok {
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		svc.Remove(c, productID)
		if err := store.Save(r.Context(), cartID, c); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartResponse{CartID: cartID, Quote: svc.Quote(c)})
	}
}

func loadCart(w http.ResponseWriter, r *http.Request, store *cartsvc.Store, svc cartsvc.Service, logg *logger.Logger) (uuid.UUID, *cartsvc.Cart, bool) {
	if store == nil || svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return uuid.Nil, nil, false
	}

	cartID, err := parseUUIDParam(r, "cartId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, nil, false
	}

	c, err := store.Load(r.Context(), cartID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, nil, false
	}
	return cartID, c, true
}
