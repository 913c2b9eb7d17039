package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncrease_NewItem(t *testing.T) {
	c := New("sess-1")
	c.Increase(Item{ProductID: 1, Name: "Mug", UnitPrice: 12.50})

	assert.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.False(t, c.Items[0].AddedAt.IsZero())
}

func TestIncrease_ExistingItem(t *testing.T) {
	c := New("sess-1")
	c.Increase(Item{ProductID: 1, UnitPrice: 12.50})
	c.Increase(Item{ProductID: 1, UnitPrice: 12.50})

	assert.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.ItemQuantity(1))
}

func TestDecrease_RemovesLineAtOne(t *testing.T) {
	c := New("sess-1")
	c.Increase(Item{ProductID: 1, UnitPrice: 12.50})
	c.Decrease(1)

	assert.Empty(t, c.Items)
}

func TestDecrease_KeepsLineAboveOne(t *testing.T) {
	c := New("sess-1")
	c.Increase(Item{ProductID: 1, UnitPrice: 12.50})
	c.Increase(Item{ProductID: 1, UnitPrice: 12.50})
	c.Decrease(1)

	assert.Equal(t, 1, c.ItemQuantity(1))
}

func TestRemove(t *testing.T) {
	c := New("sess-1")
	c.Increase(Item{ProductID: 1, UnitPrice: 12.50})
	c.Increase(Item{ProductID: 2, UnitPrice: 5.00})
	c.Remove(1)

	assert.Len(t, c.Items, 1)
	assert.Equal(t, int64(2), c.Items[0].ProductID)
}

func TestSubtotal(t *testing.T) {
	c := New("sess-1")
	c.Replace([]Item{
		{ProductID: 1, UnitPrice: 12.50, Quantity: 2},
		{ProductID: 2, UnitPrice: 0.10, Quantity: 3},
	})

	assert.InDelta(t, 25.30, c.Subtotal(), 0.001)
}

func TestSubtotal_Empty(t *testing.T) {
	c := New("sess-1")
	assert.Zero(t, c.Subtotal())
}
