package tasks

import (
	"fmt"
	"os"
	"strings"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/inference"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

// Default backend models per task. Sentiment and anomaly detection run on a
// fast model, technical interpretation on a medium one, risk assessment on the
// largest. Overridable per task via TASK_<KIND>_MODEL / TASK_<KIND>_PROVIDER.
const (
	DefaultSentimentModel = "meta/llama-3.1-70b-instruct"
	DefaultTechnicalModel = "mistralai/mixtral-8x7b-instruct-v0.1"
	DefaultRiskModel      = "meta/llama-3.1-405b-instruct"
	DefaultAnomalyModel   = "meta/llama-3.1-70b-instruct"
)

// Sampling temperatures per task: low for factual analysis, medium for
// pattern recognition, higher for risk scenario exploration, very low for
// precise anomaly detection.
const (
	sentimentTemperature = 0.3
	technicalTemperature = 0.5
	riskTemperature      = 0.7
	anomalyTemperature   = 0.2
)

// Spec binds one task kind to its backend model, temperature, response schema
// and prompt template. Specs are created at process start and read-only
// thereafter; they may be shared across concurrent requests without locking.
type Spec struct {
	Kind        models.TaskKind
	Provider    string
	Model       string
	Temperature float32
	System      string
	Schema      models.Schema
	prompt      func(models.AnalysisRequest) string
}

// Prompt renders the task's prompt template with the request's inputs.
func (s Spec) Prompt(req models.AnalysisRequest) string {
	return s.prompt(req)
}

// Call binds the spec to one request as an inference call.
func (s Spec) Call(req models.AnalysisRequest) inference.Call {
	return inference.Call{
		Task:        s.Kind,
		Provider:    s.Provider,
		Model:       s.Model,
		Temperature: s.Temperature,
		System:      s.System,
		Prompt:      s.Prompt(req),
		Schema:      s.Schema,
	}
}

// Registry holds the four task specs, keyed by kind.
type Registry map[models.TaskKind]Spec

// Models returns the model identifier used for each task.
func (r Registry) Models() map[models.TaskKind]string {
	out := make(map[models.TaskKind]string, len(r))
	for kind, spec := range r {
		out[kind] = spec.Model
	}
	return out
}

// NewRegistry builds the four default task specs, applying any
// TASK_<KIND>_MODEL / TASK_<KIND>_PROVIDER environment overrides.
func NewRegistry() Registry {
	registry := Registry{
		models.TaskSentiment: sentimentSpec(),
		models.TaskTechnical: technicalSpec(),
		models.TaskRisk:      riskSpec(),
		models.TaskAnomaly:   anomalySpec(),
	}

	for kind, spec := range registry {
		envKind := strings.ToUpper(string(kind))
		if model := os.Getenv("TASK_" + envKind + "_MODEL"); model != "" {
			spec.Model = model
		}
		if provider := os.Getenv("TASK_" + envKind + "_PROVIDER"); provider != "" {
			spec.Provider = provider
		}
		registry[kind] = spec
	}

	return registry
}

func sentimentSpec() Spec {
	return Spec{
		Kind:        models.TaskSentiment,
		Provider:    inference.ProviderOpenAI,
		Model:       DefaultSentimentModel,
		Temperature: sentimentTemperature,
		System: `You are a financial news sentiment analyzer.
Analyze the news and provide:
1. Overall sentiment (bullish/bearish/neutral)
2. Sentiment score (0-100)
3. Key sentiment drivers
4. Market mood

Be concise and factual.`,
		Schema: models.Schema{Fields: []models.Field{
			{Name: "sentiment", Type: models.FieldEnum, Required: true, Enum: []string{models.SentimentBullish, models.SentimentBearish, models.SentimentNeutral}},
			{Name: "score", Type: models.FieldNumber, Required: true, Min: 0, Max: 100},
			{Name: "drivers", Type: models.FieldText},
			{Name: "mood", Type: models.FieldText},
		}},
		prompt: func(req models.AnalysisRequest) string {
			var sb strings.Builder
			fmt.Fprintf(&sb, "Stock: %s\n\n", req.Symbol)
			sb.WriteString("Recent News:\n")
			sb.WriteString(formatNews(req.News))
			sb.WriteString("\n\nProvide sentiment analysis in this format:\n")
			sb.WriteString("SENTIMENT: [bullish/bearish/neutral]\n")
			sb.WriteString("SCORE: [0-100]\n")
			sb.WriteString("DRIVERS: [key points]\n")
			sb.WriteString("MOOD: [market sentiment]")
			return sb.String()
		},
	}
}

func technicalSpec() Spec {
	return Spec{
		Kind:        models.TaskTechnical,
		Provider:    inference.ProviderOpenAI,
		Model:       DefaultTechnicalModel,
		Temperature: technicalTemperature,
		System: `You are a technical analysis expert.
Interpret technical indicators and identify patterns.
Provide:
1. Signal (buy/sell/hold)
2. Strength (0-100)
3. Key indicators
4. Pattern recognition

Focus on RSI, SMA, volume, and momentum.`,
		Schema: models.Schema{Fields: []models.Field{
			{Name: "signal", Type: models.FieldEnum, Required: true, Enum: []string{models.SignalBuy, models.SignalSell, models.SignalHold}},
			{Name: "strength", Type: models.FieldNumber, Required: true, Min: 0, Max: 100},
			{Name: "key_indicators", Type: models.FieldText},
			{Name: "patterns", Type: models.FieldText},
		}},
		prompt: func(req models.AnalysisRequest) string {
			var sb strings.Builder
			fmt.Fprintf(&sb, "Stock: %s\nCurrent Price: %.2f\n\n", req.Symbol, req.CurrentPrice)
			sb.WriteString("Technical Indicators:\n")
			sb.WriteString(formatIndicators(req.Indicators))
			sb.WriteString("\n\nRecent Price Action:\n")
			sb.WriteString(formatBars(req.Bars, 10))
			sb.WriteString("\n\nProvide technical analysis in this format:\n")
			sb.WriteString("SIGNAL: [buy/sell/hold]\n")
			sb.WriteString("STRENGTH: [0-100]\n")
			sb.WriteString("KEY_INDICATORS: [important signals]\n")
			sb.WriteString("PATTERNS: [identified patterns]")
			return sb.String()
		},
	}
}

func riskSpec() Spec {
	return Spec{
		Kind:        models.TaskRisk,
		Provider:    inference.ProviderOpenAI,
		Model:       DefaultRiskModel,
		Temperature: riskTemperature,
		System: `You are a risk assessment expert for stock trading.
Perform deep risk analysis considering:
1. Market volatility
2. News impact
3. Technical risks
4. Downside scenarios
5. Risk-reward ratio

Provide comprehensive risk evaluation.`,
		Schema: models.Schema{Fields: []models.Field{
			{Name: "risk_score", Type: models.FieldNumber, Required: true, Min: 0, Max: 100},
			{Name: "risk_level", Type: models.FieldEnum, Required: true, Enum: []string{models.RiskLow, models.RiskMedium, models.RiskHigh}},
			{Name: "risk_factors", Type: models.FieldText},
			{Name: "downside", Type: models.FieldText},
			{Name: "risk_reward", Type: models.FieldText},
		}},
		prompt: func(req models.AnalysisRequest) string {
			var sb strings.Builder
			fmt.Fprintf(&sb, "Stock: %s\nCurrent Price: %.2f\nPrice Change: %.2f%%\n\n", req.Symbol, req.CurrentPrice, req.PriceChangePercent)
			sb.WriteString("Recent News:\n")
			sb.WriteString(formatNews(req.News))
			sb.WriteString("\n\nTechnical Indicators:\n")
			sb.WriteString(formatIndicators(req.Indicators))
			sb.WriteString("\n\nRisk Analysis Request:\n")
			sb.WriteString("- Evaluate downside risk\n")
			sb.WriteString("- Identify risk factors\n")
			sb.WriteString("- Calculate risk-reward ratio\n")
			sb.WriteString("- Provide risk score (0-100, where 100 is highest risk)\n\n")
			sb.WriteString("Provide risk assessment in this format:\n")
			sb.WriteString("RISK_SCORE: [0-100]\n")
			sb.WriteString("RISK_LEVEL: [low/medium/high]\n")
			sb.WriteString("RISK_FACTORS: [key risks]\n")
			sb.WriteString("DOWNSIDE: [potential loss scenarios]\n")
			sb.WriteString("RISK_REWARD: [ratio]")
			return sb.String()
		},
	}
}

func anomalySpec() Spec {
	return Spec{
		Kind:        models.TaskAnomaly,
		Provider:    inference.ProviderOpenAI,
		Model:       DefaultAnomalyModel,
		Temperature: anomalyTemperature,
		System: `You are an anomaly detection system for stock markets.
Detect unusual patterns:
1. Unusual price movements
2. Volume spikes
3. Technical divergences
4. Flash crashes/spikes

Be precise and alert-focused.`,
		Schema: models.Schema{Fields: []models.Field{
			{Name: "anomaly", Type: models.FieldBool, Required: true},
			{Name: "type", Type: models.FieldText},
			{Name: "severity", Type: models.FieldEnum, Enum: []string{models.SeverityLow, models.SeverityMedium, models.SeverityHigh}},
			{Name: "reason", Type: models.FieldText},
		}},
		prompt: func(req models.AnalysisRequest) string {
			var sb strings.Builder
			fmt.Fprintf(&sb, "Stock: %s\nCurrent Price: %.2f\nPrice Change: %.2f%%\n", req.Symbol, req.CurrentPrice, req.PriceChangePercent)
			fmt.Fprintf(&sb, "RSI: %s\n", indicatorOrNA(req.Indicators, "rsi"))
			sb.WriteString("Recent Volume:\n")
			sb.WriteString(formatVolumes(req.Bars, 5))
			sb.WriteString("\n\nDetect anomalies in this format:\n")
			sb.WriteString("ANOMALY: [yes/no]\n")
			sb.WriteString("TYPE: [spike/crash/divergence/volume_surge/none]\n")
			sb.WriteString("SEVERITY: [low/medium/high]\n")
			sb.WriteString("REASON: [explanation]")
			return sb.String()
		},
	}
}
