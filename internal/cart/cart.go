package cart

import (
	"math"
	"time"
)

// Item is a cart line. Quantity is always >= 1; a decrement at 1 removes
// the line instead.
type Item struct {
	ProductID   int64     `bson:"product_id" json:"product_id"`
	Name        string    `bson:"name" json:"name"`
	UnitPrice   float64   `bson:"unit_price" json:"unit_price"`
	Quantity    int       `bson:"quantity" json:"quantity"`
	CategoryIDs []int64   `bson:"category_ids" json:"category_ids"`
	AddedAt     time.Time `bson:"added_at" json:"added_at"`
}

type Cart struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	SessionID string    `bson:"session_id" json:"session_id"`
	Items     []Item    `bson:"items" json:"items"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func New(sessionID string) *Cart {
	now := time.Now()
	return &Cart{
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) ItemQuantity(productID int64) int {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

// Increase adds one unit of the product, inserting a new line from the
// given item details when the product is not yet in the cart.
func (c *Cart) Increase(item Item) {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity++
			return
		}
	}
	item.Quantity = 1
	item.AddedAt = time.Now()
	c.Items = append(c.Items, item)
}

// Decrease removes one unit; at quantity 1 the line is dropped.
func (c *Cart) Decrease(productID int64) {
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if c.Items[i].Quantity <= 1 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity--
		}
		return
	}
}

func (c *Cart) Remove(productID int64) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) Replace(items []Item) {
	c.Items = items
}

// Subtotal is the sum of unit price times quantity, rounded to cents.
func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, item := range c.Items {
		sum += item.UnitPrice * float64(item.Quantity)
	}
	return math.Round(sum*100) / 100
}
