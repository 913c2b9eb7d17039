package checkout

import (
	"context"
	"sync"

	"github.com/avelhart/storefront/internal/coupon"
	"github.com/avelhart/storefront/internal/shipping"
)

// memorySessionStore implements SessionStore for testing
type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Data
	saveErr  error
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[string]*Data)}
}

func (m *memorySessionStore) Load(_ context.Context, sessionID string) (*Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memorySessionStore) Save(_ context.Context, sessionID string, d *Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *d
	m.sessions[sessionID] = &cp
	return nil
}

func (m *memorySessionStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// MockRepository implements Repository for testing
type MockRepository struct {
	Journaled     *OrderRecord
	JournaledEv   *OutboxEvent
	ExistingOrder *OrderRecord
	GetErr        error
	CreateErr     error
	Events        []*OutboxEvent
	Processed     []int64
}

func (m *MockRepository) GetOrderByIdempotencyKey(context.Context, string) (*OrderRecord, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.ExistingOrder != nil {
		return m.ExistingOrder, nil
	}
	return nil, ErrIdempotencyKeyNotFound
}

func (m *MockRepository) CreateOrder(_ context.Context, rec *OrderRecord, ev *OutboxEvent) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Journaled = rec
	m.JournaledEv = ev
	return nil
}

func (m *MockRepository) UpdateOrderStatus(context.Context, string, Status) error {
	return nil
}

func (m *MockRepository) AppendEvent(_ context.Context, ev *OutboxEvent) error {
	m.Events = append(m.Events, ev)
	return nil
}

func (m *MockRepository) GetUnprocessedEvents(context.Context, int) ([]*OutboxEvent, error) {
	return m.Events, nil
}

func (m *MockRepository) MarkEventProcessed(_ context.Context, id int64) error {
	m.Processed = append(m.Processed, id)
	return nil
}

func (m *MockRepository) Close() error {
	return nil
}

// MockCommerce implements CommerceGateway for testing
type MockCommerce struct {
	Coupons        map[string]*coupon.Coupon
	Config         shipping.Config
	ConfigErr      error
	Order          *PlacedOrder
	CreateOrderErr error
	StatusUpdates  map[int64]string
}

func (m *MockCommerce) CouponByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	for _, c := range m.Coupons {
		if c.Matches(code) {
			return c, nil
		}
	}
	return nil, ErrCouponNotFound
}

func (m *MockCommerce) ShippingOptions(context.Context) (shipping.Config, error) {
	if m.ConfigErr != nil {
		return shipping.Config{}, m.ConfigErr
	}
	return m.Config, nil
}

func (m *MockCommerce) CreateOrder(context.Context, *Data) (*PlacedOrder, error) {
	if m.CreateOrderErr != nil {
		return nil, m.CreateOrderErr
	}
	return m.Order, nil
}

func (m *MockCommerce) UpdateOrderStatus(_ context.Context, orderID int64, status string) error {
	if m.StatusUpdates == nil {
		m.StatusUpdates = make(map[int64]string)
	}
	m.StatusUpdates[orderID] = status
	return nil
}

// MockPayments implements PaymentGateway for testing
type MockPayments struct {
	Intent    *PaymentIntent
	CreateErr error
	GetErr    error
}

func (m *MockPayments) CreateIntent(context.Context, int64, string, string) (*PaymentIntent, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return m.Intent, nil
}

func (m *MockPayments) GetIntent(context.Context, string) (*PaymentIntent, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Intent, nil
}
