package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avelhart/storefront/internal/commerce"
	"github.com/avelhart/storefront/internal/pricing"
)

// Catalog is what the product endpoints need from the backend client.
type Catalog interface {
	Products(ctx context.Context, page, perPage int) ([]commerce.Product, error)
	ProductBySlug(ctx context.Context, slug string) (*commerce.Product, error)
	Variations(ctx context.Context, productID int64) ([]pricing.Variation, error)
}

type ProductHandler struct {
	catalog Catalog
	timeout time.Duration
}

func NewProductHandler(catalog Catalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ProductsResponse struct {
	Products []commerce.Product `json:"products"`
	Page     int                `json:"page"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 12)
	if page < 1 || perPage < 1 || perPage > 100 {
		respondError(w, http.StatusBadRequest, "invalid_pagination", "page and per_page must be positive, per_page at most 100")
		return
	}

	products, err := h.catalog.Products(ctx, page, perPage)
	if err != nil {
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "failed to fetch products")
		return
	}
	respondJSON(w, http.StatusOK, ProductsResponse{Products: products, Page: page})
}

func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	slug := chi.URLParam(r, "slug")
	product, err := h.catalog.ProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, commerce.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "no product with this slug")
			return
		}
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "failed to fetch product")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

type PriceResponse struct {
	ProductID int64        `json:"product_id"`
	Kind      pricing.Kind `json:"kind"`
	Price     float64      `json:"price"`
}

// Price resolves a unit price for the buyer's attribute selections, passed
// as query parameters, e.g. ?Size=XL&Color=Red.
func (h *ProductHandler) Price(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	slug := chi.URLParam(r, "slug")
	product, err := h.catalog.ProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, commerce.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "no product with this slug")
			return
		}
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "failed to fetch product")
		return
	}

	kind := product.PricingKind()
	input := pricing.Product{Kind: kind, BasePrice: product.Price}
	if kind != pricing.KindSimple {
		variations, err := h.catalog.Variations(ctx, product.ID)
		if err != nil {
			respondError(w, http.StatusBadGateway, "catalog_unavailable", "failed to fetch variations")
			return
		}
		input.Variations = variations
	}

	strategy, err := pricing.ForKind(input)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "unknown_kind", err.Error())
		return
	}

	selections := pricing.Selections{}
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			selections[name] = values[0]
		}
	}

	price, err := strategy.Price(selections)
	if err != nil {
		if errors.Is(err, pricing.ErrNoMatch) {
			respondError(w, http.StatusUnprocessableEntity, "no_match", "no variation matches the selections")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to price product")
		return
	}

	respondJSON(w, http.StatusOK, PriceResponse{
		ProductID: product.ID,
		Kind:      kind,
		Price:     price,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

var _ Catalog = (*commerce.Client)(nil)
