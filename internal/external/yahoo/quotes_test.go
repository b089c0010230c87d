package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmercer/biosift/pkg/config"
	"github.com/dmercer/biosift/pkg/httputil"
	"github.com/dmercer/biosift/pkg/logger"
)

func newTestClient(serverURL string) *Client {
	cfg := &config.Config{
		Ingestion: config.IngestionConfig{
			RetryMaxAttempts: 1,
			RetryBaseDelay:   time.Millisecond,
			RetryMaxDelay:    time.Millisecond,
		},
	}
	httpClient := httputil.New(cfg, logger.NewNop()).DisableRetry()
	return NewClient(httpClient, logger.NewNop(), serverURL, 1000)
}

func TestFetchDailyCandles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Middle slot is a halted day: null close/volume
		w.Write([]byte(`{
			"chart": {
				"result": [{
					"timestamp": [1767225600, 1767312000, 1767398400],
					"indicators": {
						"quote": [{
							"close": [4.25, null, 4.40],
							"volume": [120000, null, 98000]
						}]
					}
				}],
				"error": null
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	candles, err := client.FetchDailyCandles(context.Background(), "ACME", "5d")
	require.NoError(t, err)

	require.Len(t, candles, 2, "nil slots must be skipped")
	assert.Equal(t, 4.25, candles[0].Close)
	assert.Equal(t, int64(120000), candles[0].Volume)
	assert.Equal(t, 4.40, candles[1].Close)
}

func TestFetchDailyCandles_UnknownSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"chart": {
				"result": null,
				"error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FetchDailyCandles(context.Background(), "NOPE", "5d")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestValidateSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"chart": {
				"result": [{
					"timestamp": [1767225600],
					"indicators": {"quote": [{"close": [4.25], "volume": [120000]}]}
				}],
				"error": null
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	valid, err := client.ValidateSymbol(context.Background(), "ACME")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestValidateSymbol_NotFoundIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	valid, err := client.ValidateSymbol(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.False(t, valid)
}
