package httpapi

import (
	"context"
	"sync"

	"github.com/avelhart/storefront/internal/cart"
	"github.com/avelhart/storefront/internal/checkout"
	"github.com/avelhart/storefront/internal/commerce"
	"github.com/avelhart/storefront/internal/pricing"
	"github.com/avelhart/storefront/internal/shipping"
)

type fakeCartService struct {
	cart *cart.Cart
	err  error
}

func (f *fakeCartService) Get(context.Context, string) (*cart.Cart, error) {
	return f.cart, f.err
}

func (f *fakeCartService) AddItem(_ context.Context, _ string, item cart.Item) (*cart.Cart, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.cart.Increase(item)
	return f.cart, nil
}

func (f *fakeCartService) DecreaseItem(_ context.Context, _ string, productID int64) (*cart.Cart, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.cart.Decrease(productID)
	return f.cart, nil
}

func (f *fakeCartService) RemoveItem(_ context.Context, _ string, productID int64) (*cart.Cart, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.cart.Remove(productID)
	return f.cart, nil
}

func (f *fakeCartService) Clear(context.Context, string) error {
	if f.err != nil {
		return f.err
	}
	f.cart.Clear()
	return nil
}

type fakeCheckoutService struct {
	mu   sync.Mutex
	data *checkout.Data

	resolution shipping.Resolution
	intent     *checkout.PaymentIntent
	err        error

	syncedItems   [][]cart.Item
	appliedCodes  []string
	placedKeys    []string
	quoteCalls    int
	resetSessions []string
}

func (f *fakeCheckoutService) Get(context.Context, string) (*checkout.Data, error) {
	return f.data, f.err
}

func (f *fakeCheckoutService) SetBillingAddress(_ context.Context, _ string, a checkout.Address) (*checkout.Data, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.data.SetBilling(a)
	return f.data, nil
}

func (f *fakeCheckoutService) SetShippingAddress(_ context.Context, _ string, a checkout.Address) (*checkout.Data, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.data.SetShipping(a)
	return f.data, nil
}

func (f *fakeCheckoutService) SetShippingMethod(_ context.Context, _ string, m shipping.Method) (*checkout.Data, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.data.SetShippingMethod(m, 0)
	return f.data, nil
}

func (f *fakeCheckoutService) SyncCart(_ context.Context, _ string, items []cart.Item) (*checkout.Data, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncedItems = append(f.syncedItems, items)
	return f.data, f.err
}

func (f *fakeCheckoutService) ApplyCouponCode(_ context.Context, _ string, code string) (*checkout.Data, error) {
	f.appliedCodes = append(f.appliedCodes, code)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func (f *fakeCheckoutService) RemoveCoupon(context.Context, string) (*checkout.Data, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func (f *fakeCheckoutService) Quote(context.Context, string) (*checkout.Data, shipping.Resolution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteCalls++
	if f.err != nil {
		return nil, shipping.Resolution{}, f.err
	}
	return f.data, f.resolution, nil
}

func (f *fakeCheckoutService) PlaceOrder(_ context.Context, _ string, key string) (*checkout.Data, error) {
	f.placedKeys = append(f.placedKeys, key)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func (f *fakeCheckoutService) CreatePaymentIntent(context.Context, string) (*checkout.Data, *checkout.PaymentIntent, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.data, f.intent, nil
}

func (f *fakeCheckoutService) ConfirmPayment(context.Context, string) (*checkout.PaymentIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

func (f *fakeCheckoutService) Reset(_ context.Context, sessionID string) error {
	f.resetSessions = append(f.resetSessions, sessionID)
	return f.err
}

type fakeCatalog struct {
	products   []commerce.Product
	variations []pricing.Variation
	err        error
}

func (f *fakeCatalog) Products(context.Context, int, int) ([]commerce.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalog) ProductBySlug(_ context.Context, slug string) (*commerce.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.products {
		if f.products[i].Slug == slug {
			return &f.products[i], nil
		}
	}
	return nil, commerce.ErrProductNotFound
}

func (f *fakeCatalog) Variations(context.Context, int64) ([]pricing.Variation, error) {
	return f.variations, f.err
}
