package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

// DefaultHistoryDays is the trading-history window bound into prompts.
const DefaultHistoryDays = 30

// Service fetches quotes and price history from Yahoo Finance.
type Service struct {
	logger *slog.Logger
}

// NewService creates a market data service.
func NewService(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// Quote fetches the current price snapshot for a symbol.
func (s *Service) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return models.Quote{}, err
	}

	symbol = normalizeSymbol(symbol)

	q, err := quote.Get(symbol)
	if err != nil {
		return models.Quote{}, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}
	if q == nil {
		return models.Quote{}, fmt.Errorf("no quote data for %s", symbol)
	}

	return models.Quote{
		Symbol:             symbol,
		CurrentPrice:       q.RegularMarketPrice,
		PreviousClose:      q.RegularMarketPreviousClose,
		PriceChangePercent: q.RegularMarketChangePercent,
		Volume:             int64(q.RegularMarketVolume),
		FetchedAt:          time.Now().UTC(),
	}, nil
}

// History fetches daily bars for the past `days` calendar days, oldest first.
func (s *Service) History(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = DefaultHistoryDays
	}

	symbol = normalizeSymbol(symbol)

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)

	var bars []models.Bar
	for iter.Next() {
		bar := iter.Bar()
		open, _ := bar.Open.Float64()
		high, _ := bar.High.Float64()
		low, _ := bar.Low.Float64()
		closePrice, _ := bar.Close.Float64()

		bars = append(bars, models.Bar{
			Timestamp: time.Unix(int64(bar.Timestamp), 0).UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    int64(bar.Volume),
		})
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to get history for %s: %w", symbol, err)
	}

	s.logger.Debug("fetched price history", "symbol", symbol, "bars", len(bars))
	return bars, nil
}

// Snapshot fetches quote and history together for one analysis.
func (s *Service) Snapshot(ctx context.Context, symbol string) (models.Quote, []models.Bar, error) {
	q, err := s.Quote(ctx, symbol)
	if err != nil {
		return models.Quote{}, nil, err
	}

	bars, err := s.History(ctx, symbol, DefaultHistoryDays)
	if err != nil {
		// A quote without history still supports a degraded analysis.
		s.logger.Warn("price history unavailable", "symbol", symbol, "error", err)
		return q, nil, nil
	}

	return q, bars, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
