package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/config"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

const defaultBaseURL = "https://api.marketaux.com/v1"

// Service fetches financial news from the MarketAux API.
type Service struct {
	client *resty.Client
	cfg    config.NewsConfig
	logger *slog.Logger
}

// NewService creates a news service.
func NewService(cfg config.NewsConfig, logger *slog.Logger) *Service {
	client := resty.New()
	client.SetBaseURL(defaultBaseURL)
	client.SetTimeout(30 * time.Second)

	return &Service{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// SetBaseURL overrides the API endpoint, for tests.
func (s *Service) SetBaseURL(url string) {
	s.client.SetBaseURL(url)
}

type apiArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   string    `json:"sentiment"`
}

type apiResponse struct {
	Data []apiArticle `json:"data"`
}

// FetchForSymbol fetches recent news for a stock symbol, newest first. Each
// article carries the API's sentiment tag, falling back to a keyword scan of
// the headline when the tag is absent.
func (s *Service) FetchForSymbol(ctx context.Context, symbol string) ([]models.NewsItem, error) {
	if s.cfg.APIKey == "" {
		return nil, fmt.Errorf("news API key not configured")
	}

	limit := s.cfg.ArticleLimit
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_token":       s.cfg.APIKey,
			"symbols":         strings.ToUpper(strings.TrimSpace(symbol)),
			"countries":       s.cfg.Country,
			"language":        "en",
			"limit":           strconv.Itoa(limit),
			"sort":            "published_on",
			"filter_entities": "true",
		}).
		Get("/news/all")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news for %s: %w", symbol, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("news API error %d: %s", resp.StatusCode(), resp.String())
	}

	var parsed apiResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse news response: %w", err)
	}

	items := make([]models.NewsItem, 0, len(parsed.Data))
	for _, article := range parsed.Data {
		sentiment := article.Sentiment
		if sentiment == "" {
			sentiment = tagSentiment(article.Title + " " + article.Description)
		}

		items = append(items, models.NewsItem{
			Title:       article.Title,
			Description: article.Description,
			Source:      article.Source,
			URL:         article.URL,
			PublishedAt: article.PublishedAt,
			Sentiment:   sentiment,
		})
	}

	s.logger.Debug("fetched news", "symbol", symbol, "articles", len(items))
	return items, nil
}

var positiveWords = []string{
	"beat", "beats", "surge", "surges", "gain", "gains", "rally", "record",
	"upgrade", "upgraded", "profit", "growth", "strong", "outperform", "wins",
}

var negativeWords = []string{
	"miss", "misses", "fall", "falls", "drop", "drops", "plunge", "loss",
	"downgrade", "downgraded", "weak", "decline", "probe", "lawsuit", "recall",
}

// tagSentiment assigns a coarse sentiment label from headline keywords.
func tagSentiment(text string) string {
	text = strings.ToLower(text)

	score := 0
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			score++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			score--
		}
	}

	switch {
	case score > 0:
		return "positive"
	case score < 0:
		return "negative"
	default:
		return "neutral"
	}
}
