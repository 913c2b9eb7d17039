package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter assembles the public HTTP surface.
func NewRouter(carts CartService, checkouts CheckoutService, catalog Catalog, timeout time.Duration) http.Handler {
	cartHandler := NewCartHandler(carts, checkouts, timeout)
	checkoutHandler := NewCheckoutHandler(checkouts, timeout)
	productHandler := NewProductHandler(catalog, timeout)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))
	r.Use(SessionMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{slug}", productHandler.GetBySlug)
			r.Get("/{slug}/price", productHandler.Price)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Post("/items/{product_id}/decrease", cartHandler.DecreaseItem)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			r.Delete("/", cartHandler.ClearCart)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutHandler.Get)
			r.Delete("/", checkoutHandler.Reset)
			r.Put("/billing-address", checkoutHandler.SetBillingAddress)
			r.Put("/shipping-address", checkoutHandler.SetShippingAddress)
			r.Put("/shipping-method", checkoutHandler.SetShippingMethod)
			r.Get("/shipping-quote", checkoutHandler.Quote)
			r.Post("/coupon", checkoutHandler.ApplyCoupon)
			r.Delete("/coupon", checkoutHandler.RemoveCoupon)
			r.Post("/order", checkoutHandler.PlaceOrder)
			r.Post("/payment-intent", checkoutHandler.CreatePaymentIntent)
			r.Post("/payment/confirm", checkoutHandler.ConfirmPayment)
		})
	})

	return otelhttp.NewHandler(r, "storefront-api")
}
