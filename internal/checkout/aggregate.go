package checkout

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/avelhart/storefront/internal/coupon"
	"github.com/avelhart/storefront/internal/shipping"
)

// NewData returns an empty checkout aggregate.
func NewData() *Data {
	return &Data{
		PaymentMethod: "stripe",
		Status:        StatusEmpty,
	}
}

func (d *Data) SetBilling(a Address) {
	d.Billing = a
	d.refreshStatus()
}

func (d *Data) SetShipping(a Address) {
	d.Shipping = a
	d.refreshStatus()
}

// SetShippingMethod records the user's explicit choice. Automatic requotes
// keep it until the method disappears from the offered options.
func (d *Data) SetShippingMethod(m shipping.Method, cost float64) {
	d.ShippingMethod = m
	d.ShippingCost = cost
	d.MethodChosen = true
	d.CalculateTotals()
}

// SetCartItems replaces the line-item snapshot. An attached coupon is no
// longer known to be valid against the new cart, so it is detached and the
// user notified before totals are recomputed.
func (d *Data) SetCartItems(items []LineItem) {
	if d.Coupon != nil {
		d.Notices = append(d.Notices,
			fmt.Sprintf("Coupon %q was removed because the cart changed.", d.Coupon.Code))
		d.Coupon = nil
		d.DiscountTotal = 0
	}
	d.Items = items
	d.CalculateTotals()
}

// ApplyCoupon validates the coupon against the current snapshot and, on
// success, attaches it and recomputes the discount. On failure the
// aggregate is left untouched and the validation error carries the reason.
func (d *Data) ApplyCoupon(c coupon.Coupon, now time.Time) error {
	items := d.couponItems()
	if err := coupon.Validate(c, items, d.Subtotal, now); err != nil {
		return err
	}

	discount := coupon.Discount(c, items, d.Subtotal)
	d.Coupon = &AppliedCoupon{
		Code:         c.Code,
		Discount:     discount,
		FreeShipping: c.FreeShipping,
	}
	d.DiscountTotal = discount
	if c.FreeShipping {
		d.ShippingCost = 0
	}
	d.CalculateTotals()
	return nil
}

// RemoveCoupon detaches the coupon and restores a flat-rate shipping cost
// from the current subtotal, so a coupon-granted free shipping does not
// linger as a stale zero.
func (d *Data) RemoveCoupon(cfg shipping.Config) {
	d.Coupon = nil
	d.DiscountTotal = 0
	d.ShippingMethod = shipping.MethodFlatRate
	d.ShippingCost = shipping.FlatRateCost(d.Subtotal, cfg)
	d.MethodChosen = false
	d.CalculateTotals()
}

// RefreshShipping re-resolves the offered methods after a postal code or
// subtotal change. An explicit user choice survives while still offered;
// otherwise the default priority reselects.
func (d *Data) RefreshShipping(cfg shipping.Config) shipping.Resolution {
	res := shipping.Resolve(d.Shipping.Postcode, d.Subtotal, cfg)
	if len(res.Options) == 0 {
		d.ShippingMethod = ""
		d.ShippingCost = 0
		d.MethodChosen = false
		d.CalculateTotals()
		return res
	}

	if d.MethodChosen {
		q, kept := shipping.Reselect(d.ShippingMethod, res)
		d.ShippingMethod = q.Method
		d.ShippingCost = q.Cost
		d.MethodChosen = kept
	} else {
		d.ShippingMethod = res.Selected.Method
		d.ShippingCost = res.Selected.Cost
	}

	// A free-shipping coupon keeps shipping at zero regardless of quote.
	if d.Coupon != nil && d.Coupon.FreeShipping {
		d.ShippingCost = 0
	}
	d.CalculateTotals()
	return res
}

// CalculateTotals recomputes the derived totals. Must run after every
// mutation that touches cart items, shipping cost or discount.
func (d *Data) CalculateTotals() {
	var subtotal float64
	for i := range d.Items {
		d.Items[i].Subtotal = round2(d.Items[i].UnitPrice * float64(d.Items[i].Quantity))
		subtotal += d.Items[i].Subtotal
	}
	d.Subtotal = round2(subtotal)

	if d.DiscountTotal > d.Subtotal {
		d.DiscountTotal = d.Subtotal
		if d.Coupon != nil {
			d.Coupon.Discount = d.DiscountTotal
		}
	}
	if d.DiscountTotal < 0 {
		d.DiscountTotal = 0
	}

	d.TaxTotal = 0 // taxes are settled by the commerce backend
	d.Total = round2(d.Subtotal + d.ShippingCost - d.DiscountTotal)
	d.refreshStatus()
}

// Reset returns the aggregate to its initial empty state. Called after a
// confirmed order.
func (d *Data) Reset() {
	*d = *NewData()
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate reports the field-level problems blocking order creation. An
// empty slice means the checkout is ready for payment.
func (d *Data) Validate() []FieldError {
	var errs []FieldError

	if !emailPattern.MatchString(d.Billing.Email) {
		errs = append(errs, FieldError{Field: "billing.email", Message: "a valid email address is required"})
	}

	required := []struct {
		field, value string
	}{
		{"shipping.first_name", d.Shipping.FirstName},
		{"shipping.last_name", d.Shipping.LastName},
		{"shipping.address_1", d.Shipping.Address1},
		{"shipping.city", d.Shipping.City},
		{"shipping.state", d.Shipping.State},
		{"shipping.postcode", d.Shipping.Postcode},
		{"shipping.country", d.Shipping.Country},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, FieldError{Field: r.field, Message: "this field is required"})
		}
	}

	if d.ShippingMethod == "" {
		errs = append(errs, FieldError{Field: "shipping_method", Message: "select a shipping method"})
	}
	if len(d.Items) == 0 {
		errs = append(errs, FieldError{Field: "cart", Message: "the cart is empty"})
	}

	return errs
}

// MarkOrderCreated records the backend order reference.
func (d *Data) MarkOrderCreated(orderID int64) error {
	if d.Status != StatusReadyForPayment && d.Status != StatusPaymentFailed {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, d.Status, StatusOrderCreated)
	}
	d.OrderID = orderID
	d.Status = StatusOrderCreated
	return nil
}

func (d *Data) MarkPaymentConfirmed() error {
	if d.Status != StatusOrderCreated && d.Status != StatusPaymentFailed {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, d.Status, StatusPaymentConfirmed)
	}
	d.Status = StatusPaymentConfirmed
	return nil
}

// MarkPaymentFailed keeps the order reference so the user can resubmit.
func (d *Data) MarkPaymentFailed() error {
	if d.Status != StatusOrderCreated {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, d.Status, StatusPaymentFailed)
	}
	d.Status = StatusPaymentFailed
	return nil
}

// TakeNotices drains the pending user-visible messages.
func (d *Data) TakeNotices() []string {
	n := d.Notices
	d.Notices = nil
	return n
}

// AmountMinor is the grand total in minor currency units for the payment
// processor.
func (d *Data) AmountMinor() int64 {
	return int64(math.Round(d.Total * 100))
}

func (d *Data) couponItems() []coupon.Item {
	items := make([]coupon.Item, len(d.Items))
	for i, li := range d.Items {
		items[i] = coupon.Item{
			ProductID:   li.ProductID,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			CategoryIDs: li.CategoryIDs,
		}
	}
	return items
}

// refreshStatus derives the pre-order status from the current fields.
// Once an order exists the status only moves through the Mark transitions.
func (d *Data) refreshStatus() {
	switch d.Status {
	case StatusOrderCreated, StatusPaymentConfirmed, StatusPaymentFailed:
		return
	}

	switch {
	case len(d.Validate()) == 0:
		d.Status = StatusReadyForPayment
	case d.ShippingMethod != "":
		d.Status = StatusMethodSelected
	case d.shippingComplete():
		d.Status = StatusAddressComplete
	default:
		d.Status = StatusEmpty
	}
}

func (d *Data) shippingComplete() bool {
	return d.Shipping.FirstName != "" && d.Shipping.LastName != "" &&
		d.Shipping.Address1 != "" && d.Shipping.City != "" &&
		d.Shipping.State != "" && d.Shipping.Postcode != "" &&
		d.Shipping.Country != ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
