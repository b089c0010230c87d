package fmp

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// FundamentalsData is the normalized fundamentals record assembled from
// the profile, balance sheet, cash flow, and income statement endpoints.
type FundamentalsData struct {
	Symbol            string
	AsOf              time.Time
	MarketCap         int64
	SharesOutstanding int64
	Cash              int64
	TotalDebt         int64
	OperatingCashFlow int64
	CapEx             int64
	Revenue           int64
}

// RequestsPerFundamentals is the number of provider calls one
// fundamentals fetch consumes; the ingestion engine reserves this
// many rate-limit slots up front.
const RequestsPerFundamentals = 4

type profileRow struct {
	Symbol            string  `json:"symbol"`
	MktCap            int64   `json:"mktCap"`
	SharesOutstanding int64   `json:"sharesOutstanding"`
	Price             float64 `json:"price"`
}

type balanceSheetRow struct {
	Date                       string `json:"date"`
	CashAndShortTermInvestment int64  `json:"cashAndShortTermInvestments"`
	TotalDebt                  int64  `json:"totalDebt"`
}

type cashFlowRow struct {
	Date                string `json:"date"`
	OperatingCashFlow   int64  `json:"operatingCashFlow"`
	CapitalExpenditure  int64  `json:"capitalExpenditure"`
}

type incomeRow struct {
	Date    string `json:"date"`
	Revenue int64  `json:"revenue"`
}

// FetchFundamentals fetches and normalizes the latest quarterly fundamentals
func (c *Client) FetchFundamentals(ctx context.Context, symbol string) (*FundamentalsData, error) {
	quarterly := url.Values{}
	quarterly.Set("period", "quarter")
	quarterly.Set("limit", "1")

	var profiles []profileRow
	if err := c.getJSON(ctx, "/profile/"+symbol, nil, &profiles); err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", symbol, err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("fetch profile %s: empty response", symbol)
	}

	var balances []balanceSheetRow
	if err := c.getJSON(ctx, "/balance-sheet-statement/"+symbol, quarterly, &balances); err != nil {
		return nil, fmt.Errorf("fetch balance sheet %s: %w", symbol, err)
	}
	if len(balances) == 0 {
		return nil, fmt.Errorf("fetch balance sheet %s: empty response", symbol)
	}

	var cashFlows []cashFlowRow
	if err := c.getJSON(ctx, "/cash-flow-statement/"+symbol, quarterly, &cashFlows); err != nil {
		return nil, fmt.Errorf("fetch cash flow %s: %w", symbol, err)
	}
	if len(cashFlows) == 0 {
		return nil, fmt.Errorf("fetch cash flow %s: empty response", symbol)
	}

	var incomes []incomeRow
	if err := c.getJSON(ctx, "/income-statement/"+symbol, quarterly, &incomes); err != nil {
		return nil, fmt.Errorf("fetch income statement %s: %w", symbol, err)
	}
	if len(incomes) == 0 {
		return nil, fmt.Errorf("fetch income statement %s: empty response", symbol)
	}

	asOf, err := time.Parse("2006-01-02", balances[0].Date)
	if err != nil {
		return nil, fmt.Errorf("parse statement date %q: %w", balances[0].Date, err)
	}

	data := &FundamentalsData{
		Symbol:            symbol,
		AsOf:              asOf,
		MarketCap:         profiles[0].MktCap,
		SharesOutstanding: profiles[0].SharesOutstanding,
		Cash:              balances[0].CashAndShortTermInvestment,
		TotalDebt:         balances[0].TotalDebt,
		OperatingCashFlow: cashFlows[0].OperatingCashFlow,
		CapEx:             cashFlows[0].CapitalExpenditure,
		Revenue:           incomes[0].Revenue,
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"as_of":  data.AsOf.Format("2006-01-02"),
	}).Debug("Fetched fundamentals")

	return data, nil
}
