package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/avilesmedina/tiendita-backend/api/responses"
	"github.com/avilesmedina/tiendita-backend/api/validators"
	"github.com/avilesmedina/tiendita-backend/internal/inventory"
	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
	pkgerrors "github.com/avilesmedina/tiendita-backend/pkg/errors"
	"github.com/avilesmedina/tiendita-backend/pkg/logger"
)

type restockRequest struct {
	ProductID  uuid.UUID  `json:"product_id" validate:"required"`
	LocationID *uuid.UUID `json:"location_id,omitempty"`
	Qty        int        `json:"qty" validate:"required,gt=0"`
	Note       *string    `json:"note,omitempty"`
}

type adjustRequest struct {
	ProductID  uuid.UUID  `json:"product_id" validate:"required"`
	LocationID *uuid.UUID `json:"location_id,omitempty"`
	Delta      int        `json:"delta" validate:"required"`
	Note       string     `json:"note" validate:"required"`
}

type stockRecordResponse struct {
	ProductID       uuid.UUID  `json:"product_id"`
	LocationID      *uuid.UUID `json:"location_id,omitempty"`
	Quantity        int        `json:"quantity"`
	Version         int64      `json:"version"`
	LastRestockedAt *time.Time `json:"last_restocked_at,omitempty"`
}

func newStockRecordResponse(record *models.InventoryRecord) stockRecordResponse {
	return stockRecordResponse{
		ProductID:       record.ProductID,
		LocationID:      record.LocationID,
		Quantity:        record.Quantity,
		Version:         record.Version,
		LastRestockedAt: record.LastRestockedAt,
	}
}

type ledgerEntryResponse struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Delta     int        `json:"delta"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	Actor     string     `json:"actor"`
	Note      *string    `json:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func InventoryRestock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload restockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Restock(r.Context(), nil, inventory.RestockInput{
			ProductID:  payload.ProductID,
			LocationID: payload.LocationID,
			Qty:        payload.Qty,
			Actor:      requestActor(r),
			Note:       payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newStockRecordResponse(record))
	}
}

func InventoryAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload adjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Adjust(r.Context(), inventory.AdjustInput{
			ProductID:  payload.ProductID,
			LocationID: payload.LocationID,
			Delta:      payload.Delta,
			Actor:      requestActor(r),
			Note:       payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newStockRecordResponse(record))
	}
}

// InventoryAvailability returns the summed on-hand quantity across locations.
func InventoryAvailability(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		available, err := svc.Available(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lowStock, err := svc.IsLowStock(r.Context(), productID, nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"product_id": productID,
			"available":  available,
			"low_stock":  lowStock,
		})
	}
}

func InventoryHistory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.History(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]ledgerEntryResponse, 0, len(entries))
		for _, entry := range entries {
			out = append(out, ledgerEntryResponse{
				ID:        entry.ID,
				Type:      string(entry.Type),
				Delta:     entry.Delta,
				OrderID:   entry.OrderID,
				Actor:     entry.Actor,
				Note:      entry.Note,
				CreatedAt: entry.CreatedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

func InventorySnapshot(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		rows, err := svc.Snapshot(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

func InventoryLowStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		items, err := svc.ListLowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// InventoryLedgerAudit recomputes every stock record against its ledger sum.
// An empty discrepancies list means the ledger is consistent.
func InventoryLedgerAudit(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		discrepancies, err := svc.VerifyLedger(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if discrepancies == nil {
			discrepancies = []inventory.Discrepancy{}
		}

		responses.WriteSuccess(w, map[string]any{
			"consistent":    len(discrepancies) == 0,
			"discrepancies": discrepancies,
		})
	}
}
