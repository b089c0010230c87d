package contracts

import "time"

// CandidateTicker is one member of the investable universe
type CandidateTicker struct {
	Symbol          string  `json:"symbol"`
	CompanyName     string  `json:"company_name"`
	MarketCap       int64   `json:"market_cap"`
	Price           float64 `json:"price"`
	AvgDollarVolume float64 `json:"avg_dollar_volume"` // approximate, 20-day mean volume x latest close
	ADVKnown        bool    `json:"adv_known"`         // false when ADV could not be computed (liquidity filter skipped)
	Exchange        string  `json:"exchange"`
	Sector          string  `json:"sector"`
	Industry        string  `json:"industry"`
}

// FilterParams echoes the filter configuration a snapshot was built with
type FilterParams struct {
	MinPrice        float64  `json:"min_price"`
	MarketCapLow    int64    `json:"market_cap_low"`
	MarketCapHigh   int64    `json:"market_cap_high"`
	MinDollarVolume float64  `json:"min_dollar_volume"`
	Exchanges       []string `json:"exchanges"`
	SectorKeywords  []string `json:"sector_keywords"`
}

// UniverseSnapshot is the canonical daily candidate list.
// Immutable once built: symbols are unique, upper-cased, and every member
// satisfied the filter predicate at build time.
type UniverseSnapshot struct {
	ID         string            `json:"id"`
	BuildDate  time.Time         `json:"build_date"`
	Filters    FilterParams      `json:"filters"`
	Candidates []CandidateTicker `json:"candidates"`
	Excluded   map[string]string `json:"excluded,omitempty"` // symbol -> exclusion reason
}

// Symbols returns the candidate symbols in snapshot order
func (u *UniverseSnapshot) Symbols() []string {
	symbols := make([]string, 0, len(u.Candidates))
	for _, c := range u.Candidates {
		symbols = append(symbols, c.Symbol)
	}
	return symbols
}

// Contains checks if a symbol is in the universe
func (u *UniverseSnapshot) Contains(symbol string) bool {
	for _, c := range u.Candidates {
		if c.Symbol == symbol {
			return true
		}
	}
	return false
}

// Count returns the number of candidates
func (u *UniverseSnapshot) Count() int {
	return len(u.Candidates)
}
