package orders

import (
	"encoding/json"
	"time"

	"github.com/imrishuroy/go-storefront/internal/cart"
	"github.com/shopspring/decimal"
)

// Status is an order lifecycle state. Placed is the only state set by this service; the rest
// come from administrative updates.
type Status string

const (
	StatusPlaced    Status = "Placed"
	StatusConfirmed Status = "Confirmed"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// Known reports whether s is one of the lifecycle states above.
func (s Status) Known() bool {
	switch s {
	case StatusPlaced, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle transition is expected from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CustomerDetails is who the order is for. Extra carries any additional form fields.
type CustomerDetails struct {
	Name    string            `json:"name" dynamodbav:"name"`
	Email   string            `json:"email" dynamodbav:"email"`
	Address string            `json:"address" dynamodbav:"address"`
	Extra   map[string]string `json:"extra,omitempty" dynamodbav:"extra,omitempty"`
}

func (c CustomerDetails) clone() CustomerDetails {
	if c.Extra != nil {
		extra := make(map[string]string, len(c.Extra))
		for k, v := range c.Extra {
			extra[k] = v
		}
		c.Extra = extra
	}
	return c
}

// Order is an immutable snapshot of a cart plus customer details; only Status changes.
type Order struct {
	ID        string          `json:"id"`
	Items     []cart.Item     `json:"items"`
	Customer  CustomerDetails `json:"customerDetails"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Total is derived from the items every time.
func (o Order) Total() decimal.Decimal {
	return cart.Total(o.Items)
}

// MarshalJSON adds the derived total.
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		Total decimal.Decimal `json:"total"`
	}{plain(o), o.Total()})
}

func (o Order) clone() Order {
	o.Items = cart.Copy(o.Items)
	o.Customer = o.Customer.clone()
	return o
}
