package orders

import (
	"time"

	"github.com/imrishuroy/go-storefront/internal/cart"
	"github.com/imrishuroy/go-storefront/internal/money"
	"github.com/shopspring/decimal"
)

// RecordItem is a cart line as stored in the orders table. Prices are decimal strings.
type RecordItem struct {
	ID       string `dynamodbav:"id"`
	Name     string `dynamodbav:"name"`
	Price    string `dynamodbav:"price"`
	Image    string `dynamodbav:"image,omitempty"`
	Quantity int    `dynamodbav:"quantity"`
}

// Record is the item stored in the Orders DynamoDB table. Total and AmountMinor are copies
// of the derived total kept for querying; the in-memory Order never stores them.
type Record struct {
	OrderID           string          `dynamodbav:"order_id"` // PK
	Session           string          `dynamodbav:"session,omitempty"`
	Status            string          `dynamodbav:"status"`
	Customer          CustomerDetails `dynamodbav:"customer"`
	Items             []RecordItem    `dynamodbav:"items"`
	Total             string          `dynamodbav:"total"`
	AmountMinor       int64           `dynamodbav:"amount_minor"`
	LastTransactionID string          `dynamodbav:"last_transaction_id,omitempty"`
	Attempts          int             `dynamodbav:"attempts,omitempty"`
	CreatedAt         time.Time       `dynamodbav:"created_at"`
	UpdatedAt         time.Time       `dynamodbav:"updated_at"`
}

// NewRecord converts an order of session into its stored form.
func NewRecord(o Order, session string) Record {
	items := make([]RecordItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, RecordItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price.String(),
			Image:    it.Image,
			Quantity: it.Quantity,
		})
	}
	total := o.Total()
	return Record{
		OrderID:     o.ID,
		Session:     session,
		Status:      string(o.Status),
		Customer:    o.Customer,
		Items:       items,
		Total:       total.StringFixed(2),
		AmountMinor: money.ToMinor(total),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.CreatedAt,
	}
}

// Order converts the record back; an unparsable price becomes zero.
func (r Record) Order() Order {
	items := make([]cart.Item, 0, len(r.Items))
	for _, it := range r.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			price = decimal.Zero
		}
		items = append(items, cart.Item{
			ID:       it.ID,
			Name:     it.Name,
			Price:    price,
			Image:    it.Image,
			Quantity: it.Quantity,
		})
	}
	return Order{
		ID:        r.OrderID,
		Items:     items,
		Customer:  r.Customer,
		Status:    Status(r.Status),
		CreatedAt: r.CreatedAt,
	}
}
