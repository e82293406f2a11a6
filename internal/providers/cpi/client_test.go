package cpi_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smallbiznis/payrelay/internal/providers/cpi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestForwardPostsPayloadVerbatim(t *testing.T) {
	var received []byte
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		received = body
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer downstream.Close()

	client := cpi.NewClient(cpi.Config{Enabled: true, URL: downstream.URL}, zap.NewNop())
	payload := []byte(`{"vendorId":"V1","invoice":"INV-1","amount":10,"currency":"INR"}`)

	result, err := client.Forward(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, result.StatusCode)
	assert.Equal(t, payload, received)
}

func TestForwardRejectionCarriesStatusAndBody(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("duplicate instruction"))
	}))
	defer downstream.Close()

	client := cpi.NewClient(cpi.Config{Enabled: true, URL: downstream.URL}, zap.NewNop())

	_, err := client.Forward(context.Background(), []byte(`{}`))
	require.Error(t, err)

	var fwdErr *cpi.ForwardError
	require.True(t, errors.As(err, &fwdErr))
	assert.Equal(t, http.StatusUnprocessableEntity, fwdErr.StatusCode)
	assert.Equal(t, "duplicate instruction", fwdErr.Detail)
}

func TestForwardTransportFailure(t *testing.T) {
	client := cpi.NewClient(cpi.Config{
		Enabled: true,
		URL:     "http://127.0.0.1:1",
		Timeout: 500 * time.Millisecond,
	}, zap.NewNop())

	_, err := client.Forward(context.Background(), []byte(`{}`))
	require.Error(t, err)

	var fwdErr *cpi.ForwardError
	require.True(t, errors.As(err, &fwdErr))
	assert.Zero(t, fwdErr.StatusCode)
}

func TestEnabledRequiresURL(t *testing.T) {
	client := cpi.NewClient(cpi.Config{Enabled: true}, zap.NewNop())
	assert.False(t, client.Enabled())

	client = cpi.NewClient(cpi.Config{Enabled: true, URL: "http://cpi.local/initiate"}, zap.NewNop())
	assert.True(t, client.Enabled())
}
