package coupon

import (
	"strings"
	"time"
)

type DiscountType string

const (
	DiscountFixedCart    DiscountType = "fixed_cart"
	DiscountPercent      DiscountType = "percent"
	DiscountFixedProduct DiscountType = "fixed_product"
)

// Coupon is a discount code as returned by the commerce backend.
// Usage limits are declared but enforced by the backend, not here.
type Coupon struct {
	ID                 int64        `json:"id"`
	Code               string       `json:"code"`
	DiscountType       DiscountType `json:"discount_type"`
	DiscountValue      float64      `json:"discount_value"`
	FreeShipping       bool         `json:"free_shipping"`
	MinSpend           float64      `json:"min_spend"`
	MaxSpend           float64      `json:"max_spend"`
	ProductsIncluded   []int64      `json:"products_included"`
	ProductsExcluded   []int64      `json:"products_excluded"`
	CategoriesIncluded []int64      `json:"categories_included"`
	CategoriesExcluded []int64      `json:"categories_excluded"`
	UsageLimit         *int         `json:"usage_limit"`
	UsageLimitPerUser  *int         `json:"usage_limit_per_user"`
	ExpiresOn          *time.Time   `json:"expires_on"`
}

// Item is the slice of a cart line that coupon rules look at.
type Item struct {
	ProductID   int64
	Quantity    int
	UnitPrice   float64
	CategoryIDs []int64
}

// Matches compares coupon codes case-insensitively.
func (c Coupon) Matches(code string) bool {
	return strings.EqualFold(c.Code, code)
}

// Type normalizes the legacy "product" alias the backend still emits
// for per-product fixed discounts.
func (c Coupon) Type() DiscountType {
	if c.DiscountType == "product" {
		return DiscountFixedProduct
	}
	return c.DiscountType
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
