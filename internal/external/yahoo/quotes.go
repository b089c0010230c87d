package yahoo

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrSymbolNotFound means the provider does not know the symbol
var ErrSymbolNotFound = errors.New("yahoo: symbol not found")

// Candle is one daily bar
type Candle struct {
	Date   time.Time
	Close  float64
	Volume int64
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// ValidateSymbol checks that a symbol exists and still trades.
// Returns (false, nil) for a definitively unknown symbol and a non-nil
// error only for transport-level failures.
func (c *Client) ValidateSymbol(ctx context.Context, symbol string) (bool, error) {
	candles, err := c.FetchDailyCandles(ctx, symbol, "5d")
	if errors.Is(err, ErrSymbolNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(candles) > 0, nil
}

// FetchDailyCandles fetches daily close/volume bars for the given range
// (e.g. "5d", "1mo").
func (c *Client) FetchDailyCandles(ctx context.Context, symbol, rangeSpec string) ([]Candle, error) {
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d", c.baseURL, symbol, rangeSpec)

	var parsed chartResponse
	if err := c.getJSON(ctx, fullURL, &parsed); err != nil {
		return nil, err
	}

	if parsed.Chart.Error != nil {
		if parsed.Chart.Error.Code == "Not Found" {
			return nil, ErrSymbolNotFound
		}
		return nil, fmt.Errorf("chart error for %s: %s", symbol, parsed.Chart.Error.Description)
	}

	if len(parsed.Chart.Result) == 0 {
		return nil, ErrSymbolNotFound
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart response for %s has no quote block", symbol)
	}

	quote := result.Indicators.Quote[0]
	candles := make([]Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Nil slots appear on halted days; skip them
		if i >= len(quote.Close) || i >= len(quote.Volume) || quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}
		candles = append(candles, Candle{
			Date:   time.Unix(ts, 0).UTC(),
			Close:  *quote.Close[i],
			Volume: *quote.Volume[i],
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(candles),
	}).Debug("Fetched daily candles")

	return candles, nil
}
