package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/avelhart/storefront/internal/cart"
	"github.com/avelhart/storefront/internal/checkout"
	"github.com/avelhart/storefront/internal/coupon"
	"github.com/avelhart/storefront/internal/debounce"
	"github.com/avelhart/storefront/internal/shipping"
)

// CheckoutService is what the checkout endpoints need.
type CheckoutService interface {
	Get(ctx context.Context, sessionID string) (*checkout.Data, error)
	SetBillingAddress(ctx context.Context, sessionID string, a checkout.Address) (*checkout.Data, error)
	SetShippingAddress(ctx context.Context, sessionID string, a checkout.Address) (*checkout.Data, error)
	SetShippingMethod(ctx context.Context, sessionID string, m shipping.Method) (*checkout.Data, error)
	SyncCart(ctx context.Context, sessionID string, items []cart.Item) (*checkout.Data, error)
	ApplyCouponCode(ctx context.Context, sessionID, code string) (*checkout.Data, error)
	RemoveCoupon(ctx context.Context, sessionID string) (*checkout.Data, error)
	Quote(ctx context.Context, sessionID string) (*checkout.Data, shipping.Resolution, error)
	PlaceOrder(ctx context.Context, sessionID, idempotencyKey string) (*checkout.Data, error)
	CreatePaymentIntent(ctx context.Context, sessionID string) (*checkout.Data, *checkout.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, sessionID string) (*checkout.PaymentIntent, error)
	Reset(ctx context.Context, sessionID string) error
}

type CheckoutHandler struct {
	checkouts CheckoutService
	requotes  *debounce.Group
	timeout   time.Duration
}

func NewCheckoutHandler(checkouts CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkouts: checkouts,
		// Address edits arrive per keystroke burst; the trailing requote is
		// enough to settle the offered methods.
		requotes: debounce.NewGroup(300 * time.Millisecond),
		timeout:  timeout,
	}
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	d, err := h.checkouts.Get(ctx, getSessionID(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load checkout")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (h *CheckoutHandler) SetBillingAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var a checkout.Address
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	d, err := h.checkouts.SetBillingAddress(ctx, getSessionID(r.Context()), a)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to store billing address")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (h *CheckoutHandler) SetShippingAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var a checkout.Address
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sessionID := getSessionID(r.Context())
	d, err := h.checkouts.SetShippingAddress(ctx, sessionID, a)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to store shipping address")
		return
	}

	// A burst of edits gets one trailing requote against the backend once
	// the address settles.
	h.requotes.Call(sessionID, func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		if _, _, err := h.checkouts.Quote(ctx, sessionID); err != nil {
			log.Printf("deferred shipping requote failed session=%s: %v", sessionID, err)
		}
	})

	respondJSON(w, http.StatusOK, d)
}

type SetShippingMethodDTO struct {
	Method shipping.Method `json:"method"`
}

func (h *CheckoutHandler) SetShippingMethod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SetShippingMethodDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Method == "" {
		respondError(w, http.StatusBadRequest, "invalid_method", "method is required")
		return
	}

	d, err := h.checkouts.SetShippingMethod(ctx, getSessionID(r.Context()), req.Method)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "method_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	d, res, err := h.checkouts.Quote(ctx, getSessionID(r.Context()))
	if err != nil {
		respondError(w, http.StatusBadGateway, "quote_failed", "failed to resolve shipping")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"checkout": d,
		"options":  res.Options,
		"selected": res.Selected,
	})
}

type ApplyCouponDTO struct {
	Code string `json:"code"`
}

func (h *CheckoutHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ApplyCouponDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_code", "code is required")
		return
	}

	d, err := h.checkouts.ApplyCouponCode(ctx, getSessionID(r.Context()), req.Code)
	if err != nil {
		var verr *coupon.ValidationError
		switch {
		case errors.Is(err, checkout.ErrCouponNotFound):
			respondError(w, http.StatusNotFound, "coupon_not_found", "no coupon with this code")
		case errors.As(err, &verr):
			respondError(w, http.StatusUnprocessableEntity, verr.Code, verr.Reason)
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to apply coupon")
		}
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (h *CheckoutHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	d, err := h.checkouts.RemoveCoupon(ctx, getSessionID(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to remove coupon")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey == "" {
		respondError(w, http.StatusBadRequest, "missing_idempotency_key", "Idempotency-Key header is required")
		return
	}

	d, err := h.checkouts.PlaceOrder(ctx, getSessionID(r.Context()), idempotencyKey)
	if err != nil {
		var nre *checkout.NotReadyError
		if errors.As(err, &nre) {
			respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "checkout is not ready for payment",
				Code:    "not_ready",
				Details: nre.Fields,
			})
			return
		}
		respondError(w, http.StatusBadGateway, "order_failed", "failed to place order")
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

func (h *CheckoutHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	d, intent, err := h.checkouts.CreatePaymentIntent(ctx, getSessionID(r.Context()))
	if err != nil {
		if errors.Is(err, checkout.ErrNotReadyForPayment) {
			respondError(w, http.StatusConflict, "no_order", "place the order before paying")
			return
		}
		respondError(w, http.StatusBadGateway, "payment_intent_failed", "failed to create payment intent")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"client_secret": intent.ClientSecret,
		"intent_id":     intent.ID,
		"status":        intent.Status,
		"amount_minor":  d.AmountMinor(),
	})
}

func (h *CheckoutHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	intent, err := h.checkouts.ConfirmPayment(ctx, getSessionID(r.Context()))
	if err != nil {
		respondError(w, http.StatusBadGateway, "confirm_failed", "failed to confirm payment")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"intent_id": intent.ID,
		"status":    intent.Status,
	})
}

func (h *CheckoutHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	h.requotes.Forget(sessionID)
	if err := h.checkouts.Reset(ctx, sessionID); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to reset checkout")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
