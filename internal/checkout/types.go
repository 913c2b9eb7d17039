package checkout

import "github.com/avelhart/storefront/internal/shipping"

// Address is used for both billing and shipping. Only presence checks are
// enforced, and only at order submission time.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// LineItem is a cart line frozen into the checkout snapshot.
type LineItem struct {
	ProductID   int64   `json:"product_id"`
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
	CategoryIDs []int64 `json:"category_ids"`
}

// AppliedCoupon is the attached coupon reduced to what totals need.
type AppliedCoupon struct {
	Code         string  `json:"code"`
	Discount     float64 `json:"discount"`
	FreeShipping bool    `json:"free_shipping"`
}

type Status string

const (
	StatusEmpty            Status = "EMPTY"
	StatusAddressComplete  Status = "ADDRESS_COMPLETE"
	StatusMethodSelected   Status = "METHOD_SELECTED"
	StatusReadyForPayment  Status = "READY_FOR_PAYMENT"
	StatusOrderCreated     Status = "ORDER_CREATED"
	StatusPaymentConfirmed Status = "PAYMENT_CONFIRMED"
	StatusPaymentFailed    Status = "PAYMENT_FAILED"
)

// IsTerminal reports whether the checkout reached its success state.
// A failed payment is not terminal: the user may resubmit.
func (s Status) IsTerminal() bool {
	return s == StatusPaymentConfirmed
}

func (s Status) String() string {
	return string(s)
}

// FieldError is a user-facing validation message tied to a form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Data is the checkout aggregate: addresses, the cart snapshot, the chosen
// shipping method, the attached coupon and the derived totals. After every
// price-affecting mutation Total == Subtotal + ShippingCost - DiscountTotal
// and 0 <= DiscountTotal <= Subtotal.
type Data struct {
	Billing        Address         `json:"billing"`
	Shipping       Address         `json:"shipping"`
	PaymentMethod  string          `json:"payment_method"`
	ShippingMethod shipping.Method `json:"shipping_method"`
	ShippingCost   float64         `json:"shipping_cost"`
	// MethodChosen marks an explicit user selection, which automatic
	// requoting must not override while the method stays available.
	MethodChosen bool       `json:"method_chosen"`
	Items        []LineItem `json:"cart_items"`
	Coupon       *AppliedCoupon `json:"coupon,omitempty"`

	Subtotal      float64 `json:"subtotal"`
	TaxTotal      float64 `json:"tax_total"`
	DiscountTotal float64 `json:"discount_total"`
	Total         float64 `json:"total"`

	Status          Status `json:"status"`
	OrderID         int64  `json:"order_id,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`

	// Notices are user-visible messages produced by automatic state
	// repairs, e.g. a coupon detached after the cart changed.
	Notices []string `json:"notices,omitempty"`
}
