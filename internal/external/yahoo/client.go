package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/dmercer/biosift/pkg/httputil"
	"github.com/dmercer/biosift/pkg/logger"
)

// Client handles the quote/reference provider: symbol validation and
// historical daily candles for the ADV approximation. Calls are paced
// with a token-bucket limiter so validation bursts stay polite.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a new quote provider client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string, requestsPerSecond float64) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("client", "yahoo"),
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// getJSON fetches a URL (after waiting on the pacing limiter) and decodes JSON
func (c *Client) getJSON(ctx context.Context, fullURL string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("limiter wait: %w", err)
	}

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrSymbolNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode chart response: %w", err)
	}

	return nil
}
