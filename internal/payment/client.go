// Package payment is the REST client for the hosted payment processor.
// The processor owns the card form; this side only creates intents for the
// grand total in minor units and reads their final status back.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/avelhart/storefront/internal/checkout"
)

type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// ProcessorError is a non-2xx processor response with its error message.
type ProcessorError struct {
	StatusCode int
	Message    string
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("payment processor returned %d: %s", e.StatusCode, e.Message)
}

type wireIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent opens a payment intent for an amount in minor currency units.
// The order reference travels in metadata so processor-side records link
// back to the backend order.
func (c *Client) CreateIntent(ctx context.Context, amountMinor int64, currency, orderRef string) (*checkout.PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", currency)
	form.Set("metadata[order_ref]", orderRef)

	return c.call(ctx, http.MethodPost, "/v1/payment_intents", strings.NewReader(form.Encode()))
}

// GetIntent reads an intent's current status.
func (c *Client) GetIntent(ctx context.Context, intentID string) (*checkout.PaymentIntent, error) {
	return c.call(ctx, http.MethodGet, "/v1/payment_intents/"+intentID, nil)
}

func (c *Client) call(ctx context.Context, method, path string, body io.Reader) (*checkout.PaymentIntent, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment processor request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var wire wireIntent
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode processor response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ""
		if wire.Error != nil {
			msg = wire.Error.Message
		}
		return nil, &ProcessorError{StatusCode: resp.StatusCode, Message: msg}
	}

	return &checkout.PaymentIntent{
		ID:           wire.ID,
		ClientSecret: wire.ClientSecret,
		Status:       mapStatus(wire.Status),
	}, nil
}

// mapStatus folds the processor's intent lifecycle into the three states
// the checkout acts on. Anything still in flight reads as requires_action.
func mapStatus(s string) checkout.PaymentStatus {
	switch s {
	case "succeeded":
		return checkout.PaymentSucceeded
	case "requires_payment_method", "canceled":
		return checkout.PaymentFailed
	default:
		return checkout.PaymentRequiresAction
	}
}
