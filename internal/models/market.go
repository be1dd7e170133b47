package models

import (
	"time"
)

// Bar is a single OHLCV candle supplied by the market data service.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// NewsItem is a single article returned by the news service, already tagged
// with a coarse sentiment label.
type NewsItem struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source,omitempty"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   string    `json:"sentiment,omitempty"` // "positive", "negative" or "neutral"
}

// Quote is a point-in-time price snapshot for a symbol.
type Quote struct {
	Symbol             string    `json:"symbol"`
	CurrentPrice       float64   `json:"current_price"`
	PreviousClose      float64   `json:"previous_close"`
	PriceChangePercent float64   `json:"price_change_percent"`
	Volume             int64     `json:"volume"`
	FetchedAt          time.Time `json:"fetched_at"`
}
