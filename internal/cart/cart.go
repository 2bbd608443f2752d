package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one product position in a cart. UnitPrice is snapshotted from the
// catalog when the line is added.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Qty       int             `json:"qty"`
}

// LineTotal is the extended price for the line.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Cart is a session-scoped value object. It holds no identity and is never
// persisted; checkout consumes it and re-validates stock against the ledger.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Restore rebuilds a cart from previously captured lines.
func Restore(lines []Line) *Cart {
	c := &Cart{lines: make([]Line, len(lines))}
	copy(c.lines, lines)
	return c
}

// Lines returns a copy of the cart's lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Find returns the line for the product, or nil.
func (c *Cart) Find(productID uuid.UUID) *Line {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return &c.lines[i]
		}
	}
	return nil
}

// Qty returns the quantity currently carted for the product.
func (c *Cart) Qty(productID uuid.UUID) int {
	if line := c.Find(productID); line != nil {
		return line.Qty
	}
	return 0
}

// ItemCount is the total number of units across all lines.
func (c *Cart) ItemCount() int {
	total := 0
	for _, line := range c.lines {
		total += line.Qty
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Subtotal sums every line total.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

func (c *Cart) upsert(line Line) {
	if existing := c.Find(line.ProductID); existing != nil {
		existing.Qty = line.Qty
		return
	}
	c.lines = append(c.lines, line)
}

func (c *Cart) remove(productID uuid.UUID) bool {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart in place.
func (c *Cart) Clear() {
	c.lines = nil
}
