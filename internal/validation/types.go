package validation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductID accepts a product identifier sent as a JSON string or number and keeps its
// decimal string form.
type ProductID string

func (p *ProductID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	*p = ProductID(n.String())
	return nil
}

// AddCartItemRequest is the payload for POST /api/cart/items. Any quantity sent is ignored.
type AddCartItemRequest struct {
	ID    ProductID       `json:"id" validate:"required"`
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price" validate:"gte=0"`
	Image string          `json:"image"`
}

// UpdateQuantityRequest is the payload for PUT /api/cart/items/:id. Zero or less removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CustomerDetails is the checkout form.
type CustomerDetails struct {
	Name    string            `json:"name" validate:"required,notblank"`
	Email   string            `json:"email" validate:"required,email"`
	Address string            `json:"address" validate:"required,notblank"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// CheckoutRequest is the payload for POST /api/checkout.
type CheckoutRequest struct {
	Customer CustomerDetails `json:"customer"`
}

// UpdateOrderStatusRequest is the payload for PATCH /api/orders/:id/status. Any status is accepted.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PaymentRequest is the payment form posted to POST /api/order. Either the order id or a
// ready-made transaction id must be present.
type PaymentRequest struct {
	OrderID       string  `json:"orderId" validate:"required_without=TransactionID"`
	TransactionID string  `json:"transactionId"`
	Name          string  `json:"name" validate:"required,notblank"`
	Phone         string  `json:"phone" validate:"required,phone10"`
	Email         string  `json:"email" validate:"omitempty,email"`
	Amount        float64 `json:"amount" validate:"finite_positive,payable"`
}
