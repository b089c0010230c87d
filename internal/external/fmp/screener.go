package fmp

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ScreenerRow is one row of the broad screener result set
type ScreenerRow struct {
	Symbol            string  `json:"symbol"`
	CompanyName       string  `json:"companyName"`
	MarketCap         int64   `json:"marketCap"`
	Sector            string  `json:"sector"`
	Industry          string  `json:"industry"`
	Price             float64 `json:"price"`
	ExchangeShortName string  `json:"exchangeShortName"`
	IsEtf             bool    `json:"isEtf"`
	IsActivelyTrading bool    `json:"isActivelyTrading"`
}

// FetchScreener fetches the broad equity set bounded by price and market cap.
// Sector and liquidity filtering happen downstream in the universe builder.
func (c *Client) FetchScreener(ctx context.Context, minPrice float64, capLow, capHigh int64, limit int) ([]ScreenerRow, error) {
	params := url.Values{}
	params.Set("marketCapMoreThan", strconv.FormatInt(capLow, 10))
	params.Set("marketCapLowerThan", strconv.FormatInt(capHigh, 10))
	params.Set("priceMoreThan", strconv.FormatFloat(minPrice, 'f', -1, 64))
	params.Set("isActivelyTrading", "true")
	params.Set("limit", strconv.Itoa(limit))

	var rows []ScreenerRow
	if err := c.getJSON(ctx, "/stock-screener", params, &rows); err != nil {
		return nil, fmt.Errorf("fetch screener: %w", err)
	}

	c.logger.WithField("count", len(rows)).Debug("Fetched screener rows")
	return rows, nil
}
