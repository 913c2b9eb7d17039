// Package commerce is the REST client for the WooCommerce-style backend:
// catalog, coupons, shipping configuration and orders. All calls go through
// a circuit breaker so a struggling backend sheds load instead of piling
// up blocked checkouts.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/avelhart/storefront/internal/checkout"
	"github.com/avelhart/storefront/internal/coupon"
	"github.com/avelhart/storefront/internal/pricing"
	"github.com/avelhart/storefront/internal/shipping"
)

// StatusError is a non-2xx backend response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("commerce backend returned %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	http           *http.Client
	breaker        *gobreaker.CircuitBreaker[[]byte]
}

// NewClient builds a backend client. Credentials ride as query parameters,
// which is how this backend authenticates server-to-server calls.
func NewClient(baseURL, consumerKey, consumerSecret string) *Client {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "commerce-backend",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		baseURL:        baseURL,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("consumer_key", c.consumerKey)
	query.Set("consumer_secret", c.consumerSecret)

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query.Encode(), reqBody)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
		}
		return raw, nil
	})
}

// Category is a product category reference on a catalog product.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is a catalog product as served by the backend.
type Product struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Type        string     `json:"type"`
	Price       float64    `json:"price"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"`
	Categories  []Category `json:"categories"`
	Attributes  []string   `json:"attributes"`
}

type wireProduct struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Type        string     `json:"type"`
	Price       string     `json:"price"`
	Description string     `json:"description"`
	Categories  []Category `json:"categories"`
	Images      []struct {
		Src string `json:"src"`
	} `json:"images"`
	Attributes []struct {
		Name string `json:"name"`
	} `json:"attributes"`
}

func (w wireProduct) toProduct() Product {
	p := Product{
		ID:          w.ID,
		Name:        w.Name,
		Slug:        w.Slug,
		Type:        w.Type,
		Price:       parseAmount(w.Price),
		Description: w.Description,
		Categories:  w.Categories,
	}
	if len(w.Images) > 0 {
		p.ImageURL = w.Images[0].Src
	}
	for _, a := range w.Attributes {
		p.Attributes = append(p.Attributes, a.Name)
	}
	return p
}

// PricingKind maps the backend product type onto a pricing strategy kind.
// Variable products with a single attribute axis price per option; multi-axis
// ones need a full attribute match.
func (p Product) PricingKind() pricing.Kind {
	switch p.Type {
	case "simple":
		return pricing.KindSimple
	case "bloxx":
		return pricing.KindBloxx
	case "variable":
		if len(p.Attributes) <= 1 {
			return pricing.KindSingleVariation
		}
		return pricing.KindComplexVariation
	default:
		return pricing.Kind(p.Type)
	}
}

// Products lists one page of the catalog.
func (c *Client) Products(ctx context.Context, page, perPage int) ([]Product, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	raw, err := c.do(ctx, http.MethodGet, "/products", q, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	var wire []wireProduct
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	products := make([]Product, len(wire))
	for i, w := range wire {
		products[i] = w.toProduct()
	}
	return products, nil
}

// ProductBySlug returns the single product published under a slug.
func (c *Client) ProductBySlug(ctx context.Context, slug string) (*Product, error) {
	q := url.Values{}
	q.Set("slug", slug)

	raw, err := c.do(ctx, http.MethodGet, "/products", q, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %q: %w", slug, err)
	}

	var wire []wireProduct
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	if len(wire) == 0 {
		return nil, ErrProductNotFound
	}
	p := wire[0].toProduct()
	return &p, nil
}

// Variations returns the purchasable attribute combinations of a variable
// product, in the shape the pricing strategies consume.
func (c *Client) Variations(ctx context.Context, productID int64) ([]pricing.Variation, error) {
	path := fmt.Sprintf("/products/%d/variations", productID)
	raw, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch variations for product %d: %w", productID, err)
	}

	var wire []struct {
		ID         int64  `json:"id"`
		Price      string `json:"price"`
		Attributes []struct {
			Name   string `json:"name"`
			Option string `json:"option"`
		} `json:"attributes"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode variations: %w", err)
	}

	variations := make([]pricing.Variation, len(wire))
	for i, w := range wire {
		attrs := make(map[string]string, len(w.Attributes))
		for _, a := range w.Attributes {
			attrs[a.Name] = a.Option
		}
		variations[i] = pricing.Variation{
			ID:         w.ID,
			Attributes: attrs,
			Price:      parseAmount(w.Price),
		}
	}
	return variations, nil
}

type wireCoupon struct {
	ID                 int64   `json:"id"`
	Code               string  `json:"code"`
	DiscountType       string  `json:"discount_type"`
	Amount             string  `json:"amount"`
	FreeShipping       bool    `json:"free_shipping"`
	MinimumAmount      string  `json:"minimum_amount"`
	MaximumAmount      string  `json:"maximum_amount"`
	ProductIDs         []int64 `json:"product_ids"`
	ExcludedProductIDs []int64 `json:"excluded_product_ids"`
	ProductCategories  []int64 `json:"product_categories"`
	ExcludedCategories []int64 `json:"excluded_product_categories"`
	UsageLimit         *int    `json:"usage_limit"`
	UsageLimitPerUser  *int    `json:"usage_limit_per_user"`
	DateExpires        string  `json:"date_expires"`
}

func (w wireCoupon) toCoupon() *coupon.Coupon {
	c := &coupon.Coupon{
		ID:                 w.ID,
		Code:               w.Code,
		DiscountType:       coupon.DiscountType(w.DiscountType),
		DiscountValue:      parseAmount(w.Amount),
		FreeShipping:       w.FreeShipping,
		MinSpend:           parseAmount(w.MinimumAmount),
		MaxSpend:           parseAmount(w.MaximumAmount),
		ProductsIncluded:   w.ProductIDs,
		ProductsExcluded:   w.ExcludedProductIDs,
		CategoriesIncluded: w.ProductCategories,
		CategoriesExcluded: w.ExcludedCategories,
		UsageLimit:         w.UsageLimit,
		UsageLimitPerUser:  w.UsageLimitPerUser,
	}
	if w.DateExpires != "" {
		// The backend emits a zoneless local timestamp.
		if t, err := time.Parse("2006-01-02T15:04:05", w.DateExpires); err == nil {
			c.ExpiresOn = &t
		}
	}
	return c
}

// CouponByCode looks up one coupon by its code. The backend answers a list
// filtered by code; an empty list means the code does not exist.
func (c *Client) CouponByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	q := url.Values{}
	q.Set("code", code)

	raw, err := c.do(ctx, http.MethodGet, "/coupons", q, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch coupon %q: %w", code, err)
	}

	var wire []wireCoupon
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode coupons: %w", err)
	}
	if len(wire) == 0 {
		return nil, checkout.ErrCouponNotFound
	}
	return wire[0].toCoupon(), nil
}

// ShippingOptions fetches the store's shipping setup: the three flat-rate
// tiers, the local-pickup ZIP list and the free-shipping-for-local flag.
// The backend keeps these as flat option fields, so the tier table is
// assembled here.
func (c *Client) ShippingOptions(ctx context.Context) (shipping.Config, error) {
	raw, err := c.do(ctx, http.MethodGet, "/options/shipping", nil, nil)
	if err != nil {
		return shipping.Config{}, fmt.Errorf("failed to fetch shipping options: %w", err)
	}

	var wire struct {
		ACF struct {
			FlatRate1Threshold    flexAmount `json:"flat_rate_1_threshold"`
			FlatRate1Cost         flexAmount `json:"flat_rate_1_cost"`
			FlatRate2ThresholdMax flexAmount `json:"flat_rate_2_threshold_max"`
			FlatRate2Cost         flexAmount `json:"flat_rate_2_cost"`
			FlatRate3Threshold    flexAmount `json:"flat_rate_3_threshold"`
			FlatRate3Cost         flexAmount `json:"flat_rate_3_cost"`
			LocalPickupZipcodes   []struct {
				Zipcode string `json:"zipcode"`
			} `json:"local_pickup_zipcodes"`
			FreeShippingForLocalPickup bool `json:"is_free_shipping_for_local_pickup"`
		} `json:"acf"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return shipping.Config{}, fmt.Errorf("failed to decode shipping options: %w", err)
	}

	opts := wire.ACF
	cfg := shipping.Config{
		FlatRates: []shipping.FlatRate{
			{SubtotalThreshold: float64(opts.FlatRate1Threshold), ShippingCost: float64(opts.FlatRate1Cost)},
			{SubtotalThreshold: float64(opts.FlatRate2ThresholdMax), ShippingCost: float64(opts.FlatRate2Cost)},
			{SubtotalThreshold: float64(opts.FlatRate3Threshold), ShippingCost: float64(opts.FlatRate3Cost)},
		},
		FreeShippingForLocal: opts.FreeShippingForLocalPickup,
	}
	for _, z := range opts.LocalPickupZipcodes {
		cfg.LocalPickupZips = append(cfg.LocalPickupZips, z.Zipcode)
	}
	return cfg, nil
}

// Zone is a shipping zone grouping methods by customer location.
type Zone struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// ZoneMethod is one shipping method enabled inside a zone.
type ZoneMethod struct {
	ID          int64  `json:"id"`
	MethodID    string `json:"method_id"`
	MethodTitle string `json:"method_title"`
	Enabled     bool   `json:"enabled"`
}

func (c *Client) ShippingZones(ctx context.Context) ([]Zone, error) {
	raw, err := c.do(ctx, http.MethodGet, "/shipping/zones", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shipping zones: %w", err)
	}
	var zones []Zone
	if err := json.Unmarshal(raw, &zones); err != nil {
		return nil, fmt.Errorf("failed to decode shipping zones: %w", err)
	}
	return zones, nil
}

func (c *Client) ShippingMethodsByZone(ctx context.Context, zoneID int64) ([]ZoneMethod, error) {
	path := fmt.Sprintf("/shipping/zones/%d/methods", zoneID)
	raw, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch methods for zone %d: %w", zoneID, err)
	}
	var methods []ZoneMethod
	if err := json.Unmarshal(raw, &methods); err != nil {
		return nil, fmt.Errorf("failed to decode zone methods: %w", err)
	}
	return methods, nil
}

type orderPayload struct {
	PaymentMethod      string             `json:"payment_method"`
	PaymentMethodTitle string             `json:"payment_method_title"`
	SetPaid            bool               `json:"set_paid"`
	Billing            checkout.Address   `json:"billing"`
	Shipping           checkout.Address   `json:"shipping"`
	LineItems          []orderLineItem    `json:"line_items"`
	ShippingLines      []orderShippingLn  `json:"shipping_lines"`
	CouponLines        []orderCouponLine  `json:"coupon_lines,omitempty"`
}

type orderLineItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type orderShippingLn struct {
	MethodID    string `json:"method_id"`
	MethodTitle string `json:"method_title"`
	Total       string `json:"total"`
}

type orderCouponLine struct {
	Code string `json:"code"`
}

var methodTitles = map[shipping.Method]string{
	shipping.MethodFlatRate:     "Flat Rate",
	shipping.MethodFreeShipping: "Free Shipping",
	shipping.MethodLocalPickup:  "Local Pickup",
}

// CreateOrder submits the checkout snapshot as a backend order. The order
// is created unpaid; payment confirmation moves it along separately.
func (c *Client) CreateOrder(ctx context.Context, d *checkout.Data) (*checkout.PlacedOrder, error) {
	payload := orderPayload{
		PaymentMethod:      d.PaymentMethod,
		PaymentMethodTitle: "Credit Card (Stripe)",
		SetPaid:            false,
		Billing:            d.Billing,
		Shipping:           d.Shipping,
		ShippingLines: []orderShippingLn{{
			MethodID:    string(d.ShippingMethod),
			MethodTitle: methodTitles[d.ShippingMethod],
			Total:       strconv.FormatFloat(d.ShippingCost, 'f', 2, 64),
		}},
	}
	for _, item := range d.Items {
		payload.LineItems = append(payload.LineItems, orderLineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	if d.Coupon != nil {
		payload.CouponLines = []orderCouponLine{{Code: d.Coupon.Code}}
	}

	raw, err := c.do(ctx, http.MethodPost, "/orders", nil, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	var wire struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	return &checkout.PlacedOrder{ID: wire.ID, Status: wire.Status}, nil
}

// UpdateOrderStatus moves a backend order to a new status, e.g. to
// "processing" once payment is confirmed.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	path := fmt.Sprintf("/orders/%d", orderID)
	body := map[string]string{"status": status}

	if _, err := c.do(ctx, http.MethodPut, path, nil, body); err != nil {
		return fmt.Errorf("failed to update order %d: %w", orderID, err)
	}
	return nil
}

// parseAmount reads the backend's stringly-typed money fields; empty or
// malformed values read as zero, matching fields the store never set.
func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// flexAmount accepts the numeric option fields the backend serves either
// as numbers or as strings, depending on how they were last saved.
type flexAmount float64

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = flexAmount(parseAmount(s))
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = flexAmount(v)
	return nil
}
