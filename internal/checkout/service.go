package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avelhart/storefront/internal/cart"
	"github.com/avelhart/storefront/internal/coupon"
	"github.com/avelhart/storefront/internal/shipping"
)

// CommerceGateway is what the checkout needs from the commerce backend.
// Consumers define this interface, not the REST implementation.
type CommerceGateway interface {
	CouponByCode(ctx context.Context, code string) (*coupon.Coupon, error)
	ShippingOptions(ctx context.Context) (shipping.Config, error)
	CreateOrder(ctx context.Context, d *Data) (*PlacedOrder, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
}

// PlacedOrder is the backend's reference for a created order.
type PlacedOrder struct {
	ID     int64
	Status string
}

// PaymentGateway is what the checkout needs from the payment processor.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency, orderRef string) (*PaymentIntent, error)
	GetIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
}

type PaymentStatus string

const (
	PaymentSucceeded      PaymentStatus = "succeeded"
	PaymentRequiresAction PaymentStatus = "requires_action"
	PaymentFailed         PaymentStatus = "failed"
)

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       PaymentStatus
}

// NotReadyError blocks order creation with field-level messages.
type NotReadyError struct {
	Fields []FieldError
}

func (e *NotReadyError) Error() string {
	return ErrNotReadyForPayment.Error()
}

func (e *NotReadyError) Unwrap() error {
	return ErrNotReadyForPayment
}

type Service struct {
	sessions SessionStore
	repo     Repository
	commerce CommerceGateway
	payments PaymentGateway
	now      func() time.Time

	// Shipping config is fetched from the backend and cached briefly;
	// every quote within the window sees the same tier table.
	cfgMu        sync.Mutex
	cfg          shipping.Config
	cfgFetchedAt time.Time
	cfgTTL       time.Duration
}

func NewService(sessions SessionStore, repo Repository, commerce CommerceGateway, payments PaymentGateway) *Service {
	return &Service{
		sessions: sessions,
		repo:     repo,
		commerce: commerce,
		payments: payments,
		now:      time.Now,
		cfgTTL:   5 * time.Minute,
	}
}

// Get returns the aggregate for a session, creating an empty one for a
// fresh session.
func (s *Service) Get(ctx context.Context, sessionID string) (*Data, error) {
	return s.load(ctx, sessionID)
}

func (s *Service) SetBillingAddress(ctx context.Context, sessionID string, a Address) (*Data, error) {
	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	d.SetBilling(a)
	return d, s.save(ctx, sessionID, d)
}

// SetShippingAddress stores the address and re-resolves shipping, since a
// postal code change can change the offered methods. The address commit
// never fails on a config fetch problem; the old quote just stays.
func (s *Service) SetShippingAddress(ctx context.Context, sessionID string, a Address) (*Data, error) {
	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	d.SetShipping(a)

	cfg, err := s.shippingConfig(ctx)
	if err != nil {
		log.Printf("shipping config fetch failed, keeping previous quote: %v", err)
	} else {
		d.RefreshShipping(cfg)
	}
	return d, s.save(ctx, sessionID, d)
}

// SetShippingMethod records an explicit method choice. The cost is taken
// from the current resolution, never from the caller.
func (s *Service) SetShippingMethod(ctx context.Context, sessionID string, m shipping.Method) (*Data, error) {
	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.shippingConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shipping config: %w", err)
	}

	res := shipping.Resolve(d.Shipping.Postcode, d.Subtotal, cfg)
	q, ok := res.Has(m)
	if !ok {
		return nil, fmt.Errorf("shipping method %q is not available for this address", m)
	}

	d.SetShippingMethod(q.Method, q.Cost)
	if d.Coupon != nil && d.Coupon.FreeShipping {
		d.ShippingCost = 0
		d.CalculateTotals()
	}
	return d, s.save(ctx, sessionID, d)
}

// SyncCart copies the cart into the checkout snapshot. An attached coupon
// is detached by the aggregate, and shipping is requoted against the new
// subtotal.
func (s *Service) SyncCart(ctx context.Context, sessionID string, items []cart.Item) (*Data, error) {
	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	lines := make([]LineItem, len(items))
	for i, item := range items {
		lines[i] = LineItem{
			ProductID:   item.ProductID,
			Name:        item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			CategoryIDs: item.CategoryIDs,
		}
	}
	d.SetCartItems(lines)

	if cfg, err := s.shippingConfig(ctx); err == nil {
		d.RefreshShipping(cfg)
	} else {
		log.Printf("shipping config fetch failed during cart sync: %v", err)
	}
	return d, s.save(ctx, sessionID, d)
}

// ApplyCouponCode looks the code up on the backend and attaches it when it
// validates against the current snapshot. The returned error is a
// *coupon.ValidationError for user-facing rejections.
func (s *Service) ApplyCouponCode(ctx context.Context, sessionID, code string) (*Data, error) {
	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	c, err := s.commerce.CouponByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := d.ApplyCoupon(*c, s.now()); err != nil {
		return nil, err
	}
	return d, s.save(ctx, sessionID, d)
}

func (s *Service) RemoveCoupon(ctx context.Context, sessionID string) (*Data, error) {
	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.shippingConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shipping config: %w", err)
	}

	d.RemoveCoupon(cfg)
	return d, s.save(ctx, sessionID, d)
}

// Quote re-resolves shipping for the current address and subtotal.
func (s *Service) Quote(ctx context.Context, sessionID string) (*Data, shipping.Resolution, error) {
	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, shipping.Resolution{}, err
	}

	cfg, err := s.shippingConfig(ctx)
	if err != nil {
		return nil, shipping.Resolution{}, fmt.Errorf("failed to fetch shipping config: %w", err)
	}

	res := d.RefreshShipping(cfg)
	return d, res, s.save(ctx, sessionID, d)
}

// PlaceOrder creates the backend order once per idempotency key. A replay
// returns the journaled order instead of creating a second one.
func (s *Service) PlaceOrder(ctx context.Context, sessionID, idempotencyKey string) (*Data, error) {
	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if fields := d.Validate(); len(fields) > 0 {
		return nil, &NotReadyError{Fields: fields}
	}

	rec, err := s.repo.GetOrderByIdempotencyKey(ctx, idempotencyKey)
	if err != nil && !errors.Is(err, ErrIdempotencyKeyNotFound) {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if rec != nil {
		// Duplicate request: reuse the journaled order reference.
		log.Printf("duplicate order request idempotency_key=%s order_id=%d status=%s",
			idempotencyKey, rec.OrderID, rec.Status)
		if d.OrderID == 0 {
			d.OrderID = rec.OrderID
			d.Status = rec.Status
			if err := s.save(ctx, sessionID, d); err != nil {
				return nil, err
			}
		}
		return d, nil
	}

	order, err := s.commerce.CreateOrder(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := d.MarkOrderCreated(order.ID); err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(d.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}

	record := &OrderRecord{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		IdempotencyKey: idempotencyKey,
		OrderID:        order.ID,
		Status:         d.Status,
		CartSnapshot:   snapshot,
		Total:          d.Total,
	}
	payload, err := json.Marshal(map[string]interface{}{
		"order_id":       order.ID,
		"session_id":     sessionID,
		"items":          d.Items,
		"subtotal":       d.Subtotal,
		"discount_total": d.DiscountTotal,
		"shipping_cost":  d.ShippingCost,
		"total":          d.Total,
		"currency":       "USD",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order event: %w", err)
	}
	event := &OutboxEvent{
		AggregateID: record.ID,
		EventType:   "order_created",
		Payload:     payload,
	}
	if err := s.repo.CreateOrder(ctx, record, event); err != nil {
		return nil, fmt.Errorf("failed to journal order: %w", err)
	}

	return d, s.save(ctx, sessionID, d)
}

// CreatePaymentIntent asks the processor for a client secret covering the
// grand total in minor units. Allowed after order creation and again after
// a failed payment.
func (s *Service) CreatePaymentIntent(ctx context.Context, sessionID string) (*Data, *PaymentIntent, error) {
	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if d.Status != StatusOrderCreated && d.Status != StatusPaymentFailed {
		return nil, nil, fmt.Errorf("%w: status is %s", ErrNotReadyForPayment, d.Status)
	}

	intent, err := s.payments.CreateIntent(ctx, d.AmountMinor(), "usd", fmt.Sprintf("order-%d", d.OrderID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	if d.Status == StatusPaymentFailed {
		// Resubmission path: the order already exists, the user retries.
		d.Status = StatusOrderCreated
	}
	d.PaymentIntentID = intent.ID
	return d, intent, s.save(ctx, sessionID, d)
}

// ConfirmPayment checks the intent's final status with the processor and
// settles the checkout: success confirms the order on the backend, queues
// the confirmation event and resets the aggregate; failure is retryable.
func (s *Service) ConfirmPayment(ctx context.Context, sessionID string) (*PaymentIntent, error) {
	d, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if d.PaymentIntentID == "" {
		return nil, errors.New("no payment intent for this checkout")
	}

	intent, err := s.payments.GetIntent(ctx, d.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment intent: %w", err)
	}

	switch intent.Status {
	case PaymentSucceeded:
		if err := d.MarkPaymentConfirmed(); err != nil {
			return nil, err
		}
		if err := s.commerce.UpdateOrderStatus(ctx, d.OrderID, "processing"); err != nil {
			// Payment went through; the backend order catches up later.
			log.Printf("failed to update backend order %d: %v", d.OrderID, err)
		}
		payload, err := json.Marshal(map[string]interface{}{
			"order_id":          d.OrderID,
			"session_id":        sessionID,
			"payment_intent_id": intent.ID,
			"total":             d.Total,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payment event: %w", err)
		}
		if err := s.repo.AppendEvent(ctx, &OutboxEvent{
			AggregateID: fmt.Sprintf("order-%d", d.OrderID),
			EventType:   "payment_confirmed",
			Payload:     payload,
		}); err != nil {
			log.Printf("failed to append payment event: %v", err)
		}

		// Terminal success: the aggregate is discarded.
		d.Reset()
		if err := s.save(ctx, sessionID, d); err != nil {
			return nil, err
		}
	case PaymentFailed:
		if err := d.MarkPaymentFailed(); err != nil {
			return nil, err
		}
		if err := s.save(ctx, sessionID, d); err != nil {
			return nil, err
		}
	case PaymentRequiresAction:
		// Nothing to settle yet; the hosted form drives the next step.
	}

	return intent, nil
}

// Reset discards the session's aggregate.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

func (s *Service) load(ctx context.Context, sessionID string) (*Data, error) {
	d, err := s.sessions.Load(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return NewData(), nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) save(ctx context.Context, sessionID string, d *Data) error {
	return s.sessions.Save(ctx, sessionID, d)
}

func (s *Service) shippingConfig(ctx context.Context) (shipping.Config, error) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	if !s.cfgFetchedAt.IsZero() && s.now().Sub(s.cfgFetchedAt) < s.cfgTTL {
		return s.cfg, nil
	}

	cfg, err := s.commerce.ShippingOptions(ctx)
	if err != nil {
		return shipping.Config{}, err
	}
	s.cfg = cfg
	s.cfgFetchedAt = s.now()
	return cfg, nil
}
