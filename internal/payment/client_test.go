package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelhart/storefront/internal/checkout"
)

func TestCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "5997", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "order-4242", r.PostForm.Get("metadata[order_ref]"))

		w.Write([]byte(`{"id": "pi_123", "client_secret": "pi_123_secret", "status": "requires_payment_method"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")
	client.http = http.DefaultClient

	intent, err := client.CreateIntent(context.Background(), 5997, "usd", "order-4242")
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret", intent.ClientSecret)
}

func TestGetIntent_StatusMapping(t *testing.T) {
	tests := []struct {
		processor string
		want      checkout.PaymentStatus
	}{
		{"succeeded", checkout.PaymentSucceeded},
		{"requires_payment_method", checkout.PaymentFailed},
		{"canceled", checkout.PaymentFailed},
		{"requires_action", checkout.PaymentRequiresAction},
		{"processing", checkout.PaymentRequiresAction},
	}

	for _, tt := range tests {
		t.Run(tt.processor, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)
				w.Write([]byte(`{"id": "pi_123", "status": "` + tt.processor + `"}`))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "sk_test")
			client.http = http.DefaultClient

			intent, err := client.GetIntent(context.Background(), "pi_123")
			require.NoError(t, err)
			assert.Equal(t, tt.want, intent.Status)
		})
	}
}

func TestProcessorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"message": "Your card was declined."}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")
	client.http = http.DefaultClient

	_, err := client.CreateIntent(context.Background(), 100, "usd", "order-1")
	var perr *ProcessorError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusPaymentRequired, perr.StatusCode)
	assert.Equal(t, "Your card was declined.", perr.Message)
}
