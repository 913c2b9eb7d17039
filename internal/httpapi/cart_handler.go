package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avelhart/storefront/internal/cart"
	"github.com/avelhart/storefront/internal/checkout"
)

// CartService is what the cart endpoints need. Consumers define this
// interface, not the service implementation.
type CartService interface {
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
	AddItem(ctx context.Context, sessionID string, item cart.Item) (*cart.Cart, error)
	DecreaseItem(ctx context.Context, sessionID string, productID int64) (*cart.Cart, error)
	RemoveItem(ctx context.Context, sessionID string, productID int64) (*cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type CartHandler struct {
	carts     CartService
	checkouts CheckoutService
	timeout   time.Duration
}

func NewCartHandler(carts CartService, checkouts CheckoutService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:     carts,
		checkouts: checkouts,
		timeout:   timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID   int64   `json:"product_id"`
	Name        string  `json:"name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	CategoryIDs []int64 `json:"category_ids"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.carts.Get(ctx, getSessionID(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.UnitPrice < 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "unit_price must not be negative")
		return
	}

	sessionID := getSessionID(r.Context())
	c, err := h.carts.AddItem(ctx, sessionID, cart.Item{
		ProductID:   req.ProductID,
		Name:        req.Name,
		UnitPrice:   req.UnitPrice,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add item")
		return
	}

	h.syncCheckout(ctx, sessionID, c)
	respondJSON(w, http.StatusCreated, c)
}

func (h *CartHandler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	sessionID := getSessionID(r.Context())
	c, err := h.carts.DecreaseItem(ctx, sessionID, productID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update cart")
		return
	}

	h.syncCheckout(ctx, sessionID, c)
	respondJSON(w, http.StatusOK, c)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	sessionID := getSessionID(r.Context())
	c, err := h.carts.RemoveItem(ctx, sessionID, productID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to remove item")
		return
	}

	h.syncCheckout(ctx, sessionID, c)
	respondJSON(w, http.StatusOK, c)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if err := h.carts.Clear(ctx, sessionID); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
		return
	}

	if _, err := h.checkouts.SyncCart(ctx, sessionID, nil); err != nil {
		log.Printf("failed to sync checkout after cart clear session=%s: %v", sessionID, err)
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// syncCheckout mirrors the cart into the checkout snapshot so an attached
// coupon is revalidated against the new contents.
func (h *CartHandler) syncCheckout(ctx context.Context, sessionID string, c *cart.Cart) {
	if _, err := h.checkouts.SyncCart(ctx, sessionID, c.Items); err != nil {
		log.Printf("failed to sync checkout session=%s: %v", sessionID, err)
	}
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productIDStr := chi.URLParam(r, "product_id")
	productID, err := strconv.ParseInt(productIDStr, 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}

var _ CartService = (*cart.Service)(nil)
var _ CheckoutService = (*checkout.Service)(nil)
