// Package cart aggregates the line items of a single POS session.
//
// Lines are merged by identity (product plus the sorted set of modifiers), so
// adding "Pollo" with sides {arroz, papas} twice yields one line with the
// summed quantity. The cart is owned by exactly one session and is not safe
// for concurrent use; callers serialize access.
package cart

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Identity is the merge key of a line.
type Identity struct {
	Product   string
	Modifiers []string
}

// NewIdentity trims the product name and reduces modifiers to an ordered set:
// blanks are dropped and duplicates keep their first position.
func NewIdentity(product string, modifiers []string) Identity {
	seen := make(map[string]struct{}, len(modifiers))
	mods := make([]string, 0, len(modifiers))
	for _, m := range modifiers {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		mods = append(mods, m)
	}
	return Identity{Product: strings.TrimSpace(product), Modifiers: mods}
}

// Key is the canonical string form of the identity. Modifier order does not
// affect it.
func (i Identity) Key() string {
	if len(i.Modifiers) == 0 {
		return i.Product
	}
	sorted := append([]string(nil), i.Modifiers...)
	sort.Strings(sorted)
	return i.Product + " | " + strings.Join(sorted, ",")
}

type Line struct {
	ID         string
	Identity   Identity
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

func (l *Line) recompute() {
	l.TotalPrice = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) clone() Line {
	l.Identity.Modifiers = append([]string(nil), l.Identity.Modifiers...)
	return l
}

// Snapshot is a read-only copy of the cart handed to observers.
type Snapshot struct {
	Lines    []Line
	Quantity int
	Total    decimal.Decimal
}

// Observer is notified after every mutation.
type Observer func(Snapshot)

type Cart struct {
	lines     []*Line
	byKey     map[string]*Line
	byID      map[string]*Line
	observers []Observer
	newID     func() string
}

func New() *Cart {
	return &Cart{
		byKey: make(map[string]*Line),
		byID:  make(map[string]*Line),
		newID: uuid.NewString,
	}
}

// Observe registers o to be called after each mutation.
func (c *Cart) Observe(o Observer) {
	c.observers = append(c.observers, o)
}

// Add merges quantity into the line with the same identity, or appends a new
// line. On merge the line keeps the unit price it was created with; the
// incoming unitPrice is ignored.
func (c *Cart) Add(product string, quantity int, unitPrice decimal.Decimal, modifiers []string) Line {
	quantity = NormalizeQuantity(quantity)
	id := NewIdentity(product, modifiers)
	key := id.Key()

	line, ok := c.byKey[key]
	if ok {
		line.Quantity += quantity
	} else {
		if unitPrice.IsNegative() {
			unitPrice = decimal.Zero
		}
		line = &Line{
			ID:        c.newID(),
			Identity:  id,
			Quantity:  quantity,
			UnitPrice: unitPrice,
		}
		c.lines = append(c.lines, line)
		c.byKey[key] = line
		c.byID[line.ID] = line
	}
	line.recompute()

	c.notify()
	return line.clone()
}

// Remove drops the line with the given id. Unknown ids are ignored.
func (c *Cart) Remove(lineID string) {
	line, ok := c.byID[lineID]
	if !ok {
		return
	}
	delete(c.byID, lineID)
	delete(c.byKey, line.Identity.Key())
	for i, l := range c.lines {
		if l == line {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			break
		}
	}
	c.notify()
}

// SetQuantity replaces a line's quantity, clamped to at least 1. Unknown ids
// are ignored.
func (c *Cart) SetQuantity(lineID string, quantity int) {
	line, ok := c.byID[lineID]
	if !ok {
		return
	}
	line.Quantity = NormalizeQuantity(quantity)
	line.recompute()
	c.notify()
}

func (c *Cart) Clear() {
	c.lines = nil
	c.byKey = make(map[string]*Line)
	c.byID = make(map[string]*Line)
	c.notify()
}

// Total is the sum of all line totals; zero for an empty cart.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.TotalPrice)
	}
	return total
}

// Quantity is the sum of all line quantities.
func (c *Cart) Quantity() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Len() int      { return len(c.lines) }
func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Lines returns copies of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		out[i] = l.clone()
	}
	return out
}

func (c *Cart) Snapshot() Snapshot {
	return Snapshot{
		Lines:    c.Lines(),
		Quantity: c.Quantity(),
		Total:    c.Total(),
	}
}

func (c *Cart) notify() {
	if len(c.observers) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, o := range c.observers {
		o(snap)
	}
}
