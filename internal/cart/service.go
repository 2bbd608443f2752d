package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avilesmedina/tiendita-backend/pkg/config"
	"github.com/avilesmedina/tiendita-backend/pkg/db/models"
	"github.com/avilesmedina/tiendita-backend/pkg/enums"
	pkgerrors "github.com/avilesmedina/tiendita-backend/pkg/errors"
)

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type stockChecker interface {
	Available(ctx context.Context, productID uuid.UUID) (int, error)
}

// Service mutates carts against the live catalog and stock levels. Stock reads
// here are advisory; the authoritative check happens again at checkout.
type Service interface {
	Add(ctx context.Context, c *Cart, productID uuid.UUID, qty int) error
	SetQuantity(ctx context.Context, c *Cart, productID uuid.UUID, qty int) (*SetQuantityResult, error)
	Remove(c *Cart, productID uuid.UUID)
	Quote(c *Cart) Totals
}

// SetQuantityResult reports what SetQuantity actually did.
type SetQuantityResult struct {
	Qty     int  `json:"qty"`
	Clamped bool `json:"clamped"`
	Removed bool `json:"removed"`
}

// Totals is the priced summary of a cart.
type Totals struct {
	Lines     []Line          `json:"lines"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

type service struct {
	products productLoader
	stock    stockChecker
	retail   config.RetailConfig
}

// NewService builds a cart service backed by the catalog and the stock ledger.
func NewService(products productLoader, stock stockChecker, retail config.RetailConfig) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock checker required")
	}
	return &service{products: products, stock: stock, retail: retail}, nil
}

// Add puts qty more units of the product into the cart, merging with any
// existing line. Adding past available stock is refused outright rather than
// clamped so the caller can show the shopper what is left.
func (s *service) Add(ctx context.Context, c *Cart, productID uuid.UUID, qty int) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.Status != enums.ProductStatusActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is not sellable").
			WithDetails(map[string]any{"status": product.Status})
	}

	available, err := s.stock.Available(ctx, productID)
	if err != nil {
		return err
	}
	if available <= 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "product is out of stock").
			WithDetails(map[string]any{"product_id": productID, "available": 0})
	}

	wanted := c.Qty(productID) + qty
	if wanted > available {
		return pkgerrors.New(pkgerrors.CodeStockLimit, "requested quantity exceeds available stock").
			WithDetails(map[string]any{
				"product_id": productID,
				"requested":  wanted,
				"available":  available,
			})
	}

	c.upsert(Line{
		ProductID: product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		UnitPrice: product.Price,
		Qty:       wanted,
	})
	return nil
}

// SetQuantity replaces the line's quantity. Zero or negative removes the line.
// A target above available stock clamps down and flags the result so the UI
// can warn instead of erroring mid-edit.
func (s *service) SetQuantity(ctx context.Context, c *Cart, productID uuid.UUID, qty int) (*SetQuantityResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart required")
	}
	line := c.Find(productID)
	if line == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}

	if qty <= 0 {
		c.remove(productID)
		return &SetQuantityResult{Qty: 0, Removed: true}, nil
	}

	available, err := s.stock.Available(ctx, productID)
	if err != nil {
		return nil, err
	}

	result := &SetQuantityResult{Qty: qty}
	if qty > available {
		result.Qty = available
		result.Clamped = true
	}
	if result.Qty <= 0 {
		c.remove(productID)
		result.Removed = true
		return result, nil
	}

	line.Qty = result.Qty
	return result, nil
}

func (s *service) Remove(c *Cart, productID uuid.UUID) {
	if c == nil {
		return
	}
	c.remove(productID)
}

// Quote prices the cart with the storewide tax rate. Money stays in decimals
// the whole way; only the final tax figure is rounded to cents.
func (s *service) Quote(c *Cart) Totals {
	if c == nil {
		return Totals{Lines: []Line{}, Subtotal: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero}
	}

	subtotal := c.Subtotal()
	tax := subtotal.Mul(s.retail.TaxRate()).Round(2)
	return Totals{
		Lines:     c.Lines(),
		ItemCount: c.ItemCount(),
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     subtotal.Add(tax),
	}
}
