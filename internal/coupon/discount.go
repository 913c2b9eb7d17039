package coupon

// Discount computes the monetary discount a coupon grants over the cart
// snapshot. The result is always clamped to [0, subtotal] so a discount can
// never drive the order total negative. Pure function, safe to re-run.
func Discount(c Coupon, items []Item, subtotal float64) float64 {
	var discount float64

	switch c.Type() {
	case DiscountFixedCart:
		discount = c.DiscountValue
	case DiscountPercent:
		discount = subtotal * c.DiscountValue / 100
	case DiscountFixedProduct:
		for _, item := range items {
			if containsID(c.ProductsIncluded, item.ProductID) {
				discount += c.DiscountValue * float64(item.Quantity)
			}
		}
	}

	if discount < 0 {
		return 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}
