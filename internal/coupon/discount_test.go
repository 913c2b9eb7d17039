package coupon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscount_Percent(t *testing.T) {
	c := Coupon{Code: "TEN", DiscountType: DiscountPercent, DiscountValue: 10}

	got := Discount(c, testItems(), 200)
	assert.InDelta(t, 20.00, got, 0.001)
}

func TestDiscount_FixedCartClampedToSubtotal(t *testing.T) {
	c := Coupon{Code: "BIGOFF", DiscountType: DiscountFixedCart, DiscountValue: 500}

	got := Discount(c, testItems(), 50)
	assert.InDelta(t, 50.00, got, 0.001)
}

func TestDiscount_FixedCart(t *testing.T) {
	c := Coupon{Code: "FIVEOFF", DiscountType: DiscountFixedCart, DiscountValue: 5}

	got := Discount(c, testItems(), 100)
	assert.InDelta(t, 5.00, got, 0.001)
}

func TestDiscount_FixedProduct(t *testing.T) {
	// $3 off per unit of product 101, which has quantity 2 in the cart.
	c := Coupon{
		Code:             "PERUNIT",
		DiscountType:     DiscountFixedProduct,
		DiscountValue:    3,
		ProductsIncluded: []int64{101},
	}

	got := Discount(c, testItems(), 100)
	assert.InDelta(t, 6.00, got, 0.001)
}

func TestDiscount_FixedProductLegacyAlias(t *testing.T) {
	// The backend historically reported this type as "product".
	c := Coupon{
		Code:             "LEGACY",
		DiscountType:     "product",
		DiscountValue:    3,
		ProductsIncluded: []int64{101},
	}

	got := Discount(c, testItems(), 100)
	assert.InDelta(t, 6.00, got, 0.001)
}

func TestDiscount_FixedProductNoMatchingItems(t *testing.T) {
	c := Coupon{
		Code:             "NOMATCH",
		DiscountType:     DiscountFixedProduct,
		DiscountValue:    3,
		ProductsIncluded: []int64{999},
	}

	got := Discount(c, testItems(), 100)
	assert.Zero(t, got)
}

func TestDiscount_NeverNegative(t *testing.T) {
	c := Coupon{Code: "WEIRD", DiscountType: DiscountFixedCart, DiscountValue: -10}

	got := Discount(c, testItems(), 100)
	assert.Zero(t, got)
}

func TestDiscount_Idempotent(t *testing.T) {
	c := Coupon{Code: "TEN", DiscountType: DiscountPercent, DiscountValue: 10}

	first := Discount(c, testItems(), 200)
	second := Discount(c, testItems(), 200)
	assert.Equal(t, first, second)
}
