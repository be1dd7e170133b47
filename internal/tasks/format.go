package tasks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

const maxNewsItems = 5

// formatNews renders the newest headlines, one per line, capped at
// maxNewsItems so prompt size stays bounded.
func formatNews(news []models.NewsItem) string {
	if len(news) == 0 {
		return "No recent news available."
	}

	items := news
	if len(items) > maxNewsItems {
		items = items[:maxNewsItems]
	}

	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s", i+1, item.Title)
		if item.Source != "" {
			fmt.Fprintf(&sb, " (%s)", item.Source)
		}
		if i < len(items)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// formatIndicators renders indicator name/value pairs in stable order.
func formatIndicators(indicators map[string]float64) string {
	if len(indicators) == 0 {
		return "No indicator data available."
	}

	names := make([]string, 0, len(indicators))
	for name := range indicators {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		fmt.Fprintf(&sb, "%s: %.2f", strings.ToUpper(name), indicators[name])
		if i < len(names)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// formatBars renders the last n bars, oldest first, as close/volume lines.
func formatBars(bars []models.Bar, n int) string {
	if len(bars) == 0 {
		return "No price history available."
	}
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}

	var sb strings.Builder
	for i, bar := range bars {
		fmt.Fprintf(&sb, "%s close=%.2f high=%.2f low=%.2f volume=%d",
			bar.Timestamp.Format("2006-01-02"), bar.Close, bar.High, bar.Low, bar.Volume)
		if i < len(bars)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// formatVolumes renders only the volume column of the last n bars.
func formatVolumes(bars []models.Bar, n int) string {
	if len(bars) == 0 {
		return "No volume data available."
	}
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}

	parts := make([]string, 0, len(bars))
	for _, bar := range bars {
		parts = append(parts, fmt.Sprintf("%d", bar.Volume))
	}
	return strings.Join(parts, ", ")
}

func indicatorOrNA(indicators map[string]float64, name string) string {
	if value, ok := indicators[name]; ok {
		return fmt.Sprintf("%.2f", value)
	}
	return "N/A"
}
