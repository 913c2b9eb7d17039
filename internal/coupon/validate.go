package coupon

import (
	"fmt"
	"time"
)

// ValidationError carries a user-facing reason for a rejected coupon.
// It is a plain value, not a fault: handlers render Reason as-is.
type ValidationError struct {
	Code   string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func rejected(code, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a coupon against the current cart snapshot. Checks run
// in a fixed order and short-circuit on the first failure. A nil return
// means the coupon may be attached.
func Validate(c Coupon, items []Item, subtotal float64, now time.Time) error {
	if c.ExpiresOn != nil && now.After(*c.ExpiresOn) {
		return rejected("expired", "coupon %q has expired", c.Code)
	}

	if c.MinSpend > 0 && subtotal < c.MinSpend {
		return rejected("min_spend", "coupon %q requires a minimum spend of $%.2f", c.Code, c.MinSpend)
	}
	if c.MaxSpend > 0 && subtotal > c.MaxSpend {
		return rejected("max_spend", "coupon %q can only be used on orders up to $%.2f", c.Code, c.MaxSpend)
	}

	if len(c.ProductsIncluded) > 0 && !anyProductIn(items, c.ProductsIncluded) {
		return rejected("products_not_included", "coupon %q does not apply to any item in the cart", c.Code)
	}
	if len(c.ProductsExcluded) > 0 && anyProductIn(items, c.ProductsExcluded) {
		return rejected("products_excluded", "coupon %q cannot be used with some items in the cart", c.Code)
	}

	if len(c.CategoriesIncluded) > 0 && !anyCategoryIn(items, c.CategoriesIncluded) {
		return rejected("categories_not_included", "coupon %q does not apply to any category in the cart", c.Code)
	}
	if len(c.CategoriesExcluded) > 0 && anyCategoryIn(items, c.CategoriesExcluded) {
		return rejected("categories_excluded", "coupon %q cannot be used with some categories in the cart", c.Code)
	}

	return nil
}

func anyProductIn(items []Item, ids []int64) bool {
	for _, item := range items {
		if containsID(ids, item.ProductID) {
			return true
		}
	}
	return false
}

func anyCategoryIn(items []Item, ids []int64) bool {
	for _, item := range items {
		for _, cat := range item.CategoryIDs {
			if containsID(ids, cat) {
				return true
			}
		}
	}
	return false
}
