package checkout

import "errors"

var (
	ErrEmptyCart               = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition       = errors.New("illegal transition of checkout status")
	ErrSessionNotFound         = errors.New("checkout session not found")
	ErrIdempotencyKeyNotFound  = errors.New("idempotency key not found")
	ErrNotReadyForPayment      = errors.New("checkout is not ready for payment")
	ErrCouponNotFound          = errors.New("coupon not found")
)
