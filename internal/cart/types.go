package cart

import "github.com/shopspring/decimal"

// Item is one line of a cart. ID is the product identifier; numeric product ids are carried
// in their decimal string form.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

// Subtotal is Price * Quantity.
func (it Item) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Total sums the subtotals of items.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Copy returns an independent copy of items.
func Copy(items []Item) []Item {
	if items == nil {
		return []Item{}
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
