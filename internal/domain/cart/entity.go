// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"math"
	"strings"
)

var (
	ErrInvalidLine = errors.New("cart: invalid line")
)

// Line is one product row in a cart.
// Field names match the serialized shape used by both mirrors
// (local slot and carts/{uid}.items).
type Line struct {
	ProductID string  `json:"id" firestore:"id"`
	Name      string  `json:"name" firestore:"name"`
	UnitPrice float64 `json:"price" firestore:"price"`
	ImageRef  string  `json:"image" firestore:"image"`
	Quantity  int     `json:"quantity" firestore:"quantity"`
}

// Subtotal is UnitPrice * Quantity.
func (l Line) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Cart is an ordered list of lines (first-added order).
//
// Invariants:
//   - at most one line per ProductID
//   - every line has Quantity >= 1 (a line that would drop to 0 is removed)
//
// Cart is not safe for concurrent use; its owner serialises access.
type Cart struct {
	lines []Line
}

// New builds a cart from lines, dropping invalid rows and merging duplicates
// into the first occurrence.
func New(lines []Line) *Cart {
	return &Cart{lines: Normalize(lines)}
}

// Add increments the quantity of productID by one, or appends a new line with
// quantity 1 when the product is not in the cart yet.
func (c *Cart) Add(productID string, unitPrice float64, name, imageRef string) error {
	pid := strings.TrimSpace(productID)
	if pid == "" || unitPrice < 0 {
		return ErrInvalidLine
	}

	if idx := c.indexOf(pid); idx >= 0 {
		if c.lines[idx].Quantity == math.MaxInt {
			return ErrInvalidLine
		}
		c.lines[idx].Quantity++
		return nil
	}

	c.lines = append(c.lines, Line{
		ProductID: pid,
		Name:      name,
		UnitPrice: unitPrice,
		ImageRef:  imageRef,
		Quantity:  1,
	})
	return nil
}

// Remove drops the line for productID. It reports whether a line was removed.
func (c *Cart) Remove(productID string) bool {
	idx := c.indexOf(strings.TrimSpace(productID))
	if idx < 0 {
		return false
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	return true
}

// ChangeQuantity adds delta to the line for productID; a result <= 0 removes
// the line and a positive delta saturates at math.MaxInt. Unknown products are
// a no-op. It reports whether the cart changed.
func (c *Cart) ChangeQuantity(productID string, delta int) bool {
	pid := strings.TrimSpace(productID)
	idx := c.indexOf(pid)
	if idx < 0 {
		return false
	}
	if delta == 0 {
		return false
	}

	cur := c.lines[idx].Quantity
	next := addQuantity(cur, delta)
	if next <= 0 {
		return c.Remove(pid)
	}
	if next == cur {
		return false
	}
	c.lines[idx].Quantity = next
	return true
}

// Replace swaps the whole content (remote record wins on login).
func (c *Cart) Replace(lines []Line) {
	c.lines = Normalize(lines)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = []Line{}
}

// Lines returns a copy of the lines in cart order.
func (c *Cart) Lines() []Line {
	return Clone(c.lines)
}

// Find returns the line for productID.
func (c *Cart) Find(productID string) (Line, bool) {
	idx := c.indexOf(strings.TrimSpace(productID))
	if idx < 0 {
		return Line{}, false
	}
	return c.lines[idx], true
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// TotalItemCount is the sum of quantities (cart badge).
func (c *Cart) TotalItemCount() int {
	return TotalItemCount(c.lines)
}

// TotalPrice is the sum of line subtotals.
func (c *Cart) TotalPrice() float64 {
	return TotalPrice(c.lines)
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// ----------------------------
// Helpers
// ----------------------------

func TotalItemCount(lines []Line) int {
	n := 0
	for _, l := range lines {
		n = addQuantity(n, l.Quantity)
	}
	return n
}

// addQuantity is a + b clamped to the int range.
func addQuantity(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

func TotalPrice(lines []Line) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}

// Normalize trims ids, drops rows with an empty id, a negative price or a
// quantity <= 0, and folds duplicate ids into the first occurrence.
// Order of first appearance is kept.
func Normalize(src []Line) []Line {
	out := make([]Line, 0, len(src))
	pos := make(map[string]int, len(src))

	for _, l := range src {
		pid := strings.TrimSpace(l.ProductID)
		if pid == "" || l.Quantity <= 0 || l.UnitPrice < 0 {
			continue
		}
		l.ProductID = pid

		if i, ok := pos[pid]; ok {
			out[i].Quantity = addQuantity(out[i].Quantity, l.Quantity)
			continue
		}
		pos[pid] = len(out)
		out = append(out, l)
	}
	return out
}

// Clone copies lines; a nil input yields an empty, non-nil slice so that
// serialized carts are always `[]` rather than `null`.
func Clone(src []Line) []Line {
	out := make([]Line, len(src))
	copy(out, src)
	return out
}
