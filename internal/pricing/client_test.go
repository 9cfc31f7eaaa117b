package pricing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/merchant-fee-intake/internal/apperrors"
	"github.com/ginjaninja78/merchant-fee-intake/internal/config"
)

func TestStubClient(t *testing.T) {
	req := validRequest()
	req.CurrentRate = dec("2.1")

	body, err := StubClient{}.Calculate(context.Background(), req)
	require.NoError(t, err)

	var resp StubResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Stub)
	assert.True(t, resp.CurrentRateProvided)
	assert.Equal(t, 1, resp.TransactionCount)
	assert.Equal(t, "5812", resp.MCC)
}

func TestStubClientCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := StubClient{}.Calculate(ctx, validRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient(t *testing.T) {
	assert.IsType(t, StubClient{}, NewClient(config.PricingConfig{Timeout: time.Second}, nil))
	assert.IsType(t, &HTTPClient{}, NewClient(config.PricingConfig{BaseURL: "http://pricing.local", Timeout: time.Second}, nil))
}

func TestHTTPClientPostsJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, CalculatePath, r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"suggestedRate":1.9}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", 2*time.Second, nil)
	body, err := c.Calculate(context.Background(), validRequest())

	require.NoError(t, err)
	assert.JSONEq(t, `{"suggestedRate":1.9}`, string(body))
	assert.Equal(t, "5812", got["mcc"])
	assert.Equal(t, "percentage", got["feeStructure"])
	assert.Len(t, got["transactions"], 1)
}

func TestHTTPClientBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second, nil).Calculate(context.Background(), validRequest())
	assert.ErrorIs(t, err, apperrors.ErrSubmission)
}

func TestHTTPClientInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second, nil).Calculate(context.Background(), validRequest())
	assert.ErrorIs(t, err, apperrors.ErrSubmission)
}

func TestHTTPClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPClient(url, time.Second, nil).Calculate(context.Background(), validRequest())
	assert.ErrorIs(t, err, apperrors.ErrSubmission)
}
