package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvidenceItem_Staleness(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		item EvidenceItem
		want bool
	}{
		{
			name: "fresh fundamentals",
			item: EvidenceItem{
				Kind:         KindFundamentals,
				IngestedAt:   now.Add(-24 * time.Hour),
				Fundamentals: &FundamentalsEvidence{AsOf: now.AddDate(0, -3, 0)},
			},
			want: false,
		},
		{
			name: "fundamentals past the week",
			item: EvidenceItem{
				Kind:         KindFundamentals,
				IngestedAt:   now.Add(-8 * 24 * time.Hour),
				Fundamentals: &FundamentalsEvidence{},
			},
			want: true,
		},
		{
			name: "fresh news ages from publish time",
			item: EvidenceItem{
				Kind:       KindNews,
				IngestedAt: now.Add(-30 * time.Hour),
				News:       &NewsEvidence{PublishedAt: now.Add(-6 * time.Hour)},
			},
			want: false,
		},
		{
			name: "day-old news is stale even when freshly ingested",
			item: EvidenceItem{
				Kind:       KindNews,
				IngestedAt: now.Add(-time.Minute),
				News:       &NewsEvidence{PublishedAt: now.Add(-25 * time.Hour)},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.item.IsStale(now, FundamentalsStaleAge, NewsStaleAge)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFundamentalsEvidence_NetCash(t *testing.T) {
	f := FundamentalsEvidence{Cash: 120_000_000, TotalDebt: 45_000_000}
	assert.Equal(t, int64(75_000_000), f.NetCash())

	f = FundamentalsEvidence{Cash: 10_000_000, TotalDebt: 40_000_000}
	assert.Equal(t, int64(-30_000_000), f.NetCash())
}

func TestEvidenceBundle_LatestEvidenceAt(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	bundle := EvidenceBundle{
		Ticker: "AAAA",
		Fundamentals: &EvidenceItem{
			Kind:         KindFundamentals,
			IngestedAt:   now.Add(-48 * time.Hour),
			Fundamentals: &FundamentalsEvidence{},
		},
		News: []*EvidenceItem{
			{Kind: KindNews, News: &NewsEvidence{PublishedAt: now.Add(-12 * time.Hour)}},
			{Kind: KindNews, News: &NewsEvidence{PublishedAt: now.Add(-2 * time.Hour)}},
		},
	}

	assert.Equal(t, now.Add(-2*time.Hour), bundle.LatestEvidenceAt())
	assert.Equal(t, 3, bundle.Count())
}
