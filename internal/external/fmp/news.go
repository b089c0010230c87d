package fmp

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// NewsItem is one normalized news record for a ticker
type NewsItem struct {
	Symbol      string
	Headline    string
	Snippet     string
	Source      string
	PublishedAt time.Time
	URL         string
}

// RequestsPerNews is the number of provider calls one news fetch consumes
const RequestsPerNews = 1

const maxSnippetLen = 500

type newsRow struct {
	Symbol        string `json:"symbol"`
	PublishedDate string `json:"publishedDate"`
	Title         string `json:"title"`
	Site          string `json:"site"`
	Text          string `json:"text"`
	URL           string `json:"url"`
}

// FetchNews fetches recent news for a ticker within the lookback window
func (c *Client) FetchNews(ctx context.Context, symbol string, from, to time.Time, limit int) ([]NewsItem, error) {
	params := url.Values{}
	params.Set("tickers", symbol)
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))
	params.Set("limit", strconv.Itoa(limit))

	var rows []newsRow
	if err := c.getJSON(ctx, "/stock_news", params, &rows); err != nil {
		return nil, fmt.Errorf("fetch news %s: %w", symbol, err)
	}

	items := make([]NewsItem, 0, len(rows))
	for _, row := range rows {
		publishedAt, err := time.Parse("2006-01-02 15:04:05", row.PublishedDate)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"date":   row.PublishedDate,
			}).Warn("Skipping news item with unparseable date")
			continue
		}

		if row.URL == "" || row.Title == "" {
			continue
		}

		items = append(items, NewsItem{
			Symbol:      symbol,
			Headline:    strings.TrimSpace(row.Title),
			Snippet:     sanitizeSnippet(row.Text),
			Source:      row.Site,
			PublishedAt: publishedAt.UTC(),
			URL:         row.URL,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(items),
	}).Debug("Fetched news")

	return items, nil
}

// sanitizeSnippet strips any HTML markup from a body excerpt and caps its length.
// Provider excerpts occasionally carry embedded tags and entities.
func sanitizeSnippet(text string) string {
	if text == "" {
		return ""
	}

	if strings.ContainsAny(text, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err == nil {
			text = doc.Text()
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxSnippetLen {
		text = text[:maxSnippetLen]
	}
	return text
}
