package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func stripeBackends(url string) *stripe.Backends {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(url),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
}

func TestStripeProcessor_CreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "1999", r.PostForm.Get("amount"))
		require.Equal(t, "usd", r.PostForm.Get("currency"))
		require.Equal(t, "card", r.PostForm.Get("payment_method_types[0]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","amount":1999,"currency":"usd","client_secret":"pi_123_secret_abc"}`))
	}))
	defer srv.Close()

	proc := NewStripeProcessor("sk_test_123", stripeBackends(srv.URL))
	secret, err := proc.CreateIntent(context.Background(), 1999, "usd")
	require.NoError(t, err)
	require.Equal(t, "pi_123_secret_abc", secret)
}

func TestStripeProcessor_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	proc := NewStripeProcessor("sk_test_123", stripeBackends(srv.URL))
	_, err := proc.CreateIntent(context.Background(), 500, "usd")
	require.Error(t, err)

	var serr *stripe.Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, stripe.ErrorCodeCardDeclined, serr.Code)
}
