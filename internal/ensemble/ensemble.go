package ensemble

import (
	"fmt"
	"math"
	"strings"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

// Ensemble weights. Technical carries the most signal for short-horizon
// trading; sentiment and inverted risk split the remainder evenly.
const (
	weightSentiment = 0.3
	weightTechnical = 0.4
	weightRisk      = 0.3
)

// Score brackets mapping the weighted ensemble score to an action and
// confidence band. Boundary values fall into the more bullish bracket.
const (
	strongBuyThreshold = 70.0
	buyThreshold       = 55.0
	holdThreshold      = 45.0
	sellThreshold      = 30.0
)

// Price projection tuning.
const (
	baseGainPercent  = 3.0
	gainSlope        = 0.1
	baseStopPercent  = 2.0
	riskStopSlope    = 3.0
	holdStopFraction = 0.97
)

// Decide fuses normalized task results into a composite verdict. It is a pure
// function of its inputs: same results, same verdict. The orchestrator stamps
// timing and timestamp afterwards.
func Decide(symbol string, currentPrice float64, results models.NormalizedResults) models.CompositeVerdict {
	score := Score(results)
	action, confidence := bracket(score)

	// A total model outage produces a verdict nobody should act on.
	allDefaulted := len(results.Defaulted) == len(models.AllTaskKinds)
	if allDefaulted {
		confidence = models.ConfidenceLow
	} else if results.Anomaly.Detected && results.Anomaly.Severity == models.SeverityHigh {
		confidence = capAtMedium(confidence)
	}

	target, stop := projectPrices(currentPrice, score, results.Risk.RiskScore, action, confidence)

	consensus := consensusLabel(results)
	if allDefaulted {
		consensus = models.ConsensusMixed
	}

	return models.CompositeVerdict{
		Symbol:          symbol,
		CurrentPrice:    currentPrice,
		Action:          action,
		Confidence:      confidence,
		ConfidenceScore: agreementScore(results),
		EnsembleScore:   round2(score),
		TargetPrice:     round2(target),
		StopLoss:        round2(stop),
		Consensus:       consensus,
		Reasoning:       reasoning(results, score, action),
		ModelVotes:      votes(results),
		Results:         results,
	}
}

// Score computes the weighted ensemble score on a 0-100 scale. Risk is
// inverted so that low risk pushes the score up.
func Score(results models.NormalizedResults) float64 {
	return weightSentiment*results.Sentiment.Score +
		weightTechnical*results.Technical.Strength +
		weightRisk*(100-results.Risk.RiskScore)
}

func bracket(score float64) (models.Action, models.ConfidenceBand) {
	switch {
	case score >= strongBuyThreshold:
		return models.ActionBuy, models.ConfidenceHigh
	case score >= buyThreshold:
		return models.ActionBuy, models.ConfidenceMedium
	case score >= holdThreshold:
		return models.ActionHold, models.ConfidenceMedium
	case score >= sellThreshold:
		return models.ActionSell, models.ConfidenceMedium
	default:
		return models.ActionSell, models.ConfidenceHigh
	}
}

// capAtMedium limits confidence to MEDIUM when a severe anomaly is present.
// MEDIUM and LOW verdicts pass through unchanged.
func capAtMedium(band models.ConfidenceBand) models.ConfidenceBand {
	if band == models.ConfidenceHigh {
		return models.ConfidenceMedium
	}
	return band
}

// projectPrices derives target and stop-loss levels from the ensemble score
// and risk score. The stop distance is capped relative to the expected move
// so the implied reward:risk stays at least 2:1 for high-confidence calls and
// strictly above 1:1 otherwise.
func projectPrices(price, score, riskScore float64, action models.Action, confidence models.ConfidenceBand) (target, stop float64) {
	if action == models.ActionHold {
		return price, price * holdStopFraction
	}

	var gainPct float64
	if action == models.ActionBuy {
		gainPct = baseGainPercent + (score-50)*gainSlope
	} else {
		gainPct = baseGainPercent + (50-score)*gainSlope
	}

	stopPct := baseStopPercent + riskScore/100*riskStopSlope
	if confidence == models.ConfidenceHigh {
		stopPct = math.Min(stopPct, gainPct/2)
	} else {
		stopPct = math.Min(stopPct, gainPct*0.75)
	}

	if action == models.ActionBuy {
		target = price * (1 + gainPct/100)
		stop = price * (1 - stopPct/100)
	} else {
		target = price * (1 - gainPct/100)
		stop = price * (1 + stopPct/100)
	}
	return target, stop
}

// consensusLabel classifies directional agreement between the sentiment,
// technical and risk opinions.
func consensusLabel(results models.NormalizedResults) models.ConsensusLabel {
	sentiment := results.Sentiment.Sentiment
	signal := results.Technical.Signal
	risk := results.Risk.RiskLevel

	bullishAgreement := sentiment == models.SentimentBullish && signal == models.SignalBuy && risk == models.RiskLow
	bearishAgreement := sentiment == models.SentimentBearish && signal == models.SignalSell && risk == models.RiskHigh
	if bullishAgreement || bearishAgreement {
		return models.ConsensusStrong
	}

	conflict := (sentiment == models.SentimentBullish && signal == models.SignalSell) ||
		(sentiment == models.SentimentBearish && signal == models.SignalBuy)
	if conflict {
		return models.ConsensusMixed
	}

	return models.ConsensusModerate
}

// agreementScore measures numeric agreement between the three directional
// scores as 100 minus their variance, floored at zero.
func agreementScore(results models.NormalizedResults) float64 {
	values := []float64{
		results.Sentiment.Score,
		results.Technical.Strength,
		100 - results.Risk.RiskScore,
	}

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return round2(math.Max(0, 100-variance))
}

func votes(results models.NormalizedResults) map[string]string {
	anomalyVote := "none"
	if results.Anomaly.Detected {
		anomalyVote = results.Anomaly.Type
		if anomalyVote == "" {
			anomalyVote = "detected"
		}
	}
	return map[string]string{
		string(models.TaskSentiment): results.Sentiment.Sentiment,
		string(models.TaskTechnical): results.Technical.Signal,
		string(models.TaskRisk):      results.Risk.RiskLevel,
		string(models.TaskAnomaly):   anomalyVote,
	}
}

func reasoning(results models.NormalizedResults, score float64, action models.Action) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Sentiment is %s (%.0f/100)", results.Sentiment.Sentiment, results.Sentiment.Score))
	parts = append(parts, fmt.Sprintf("technical signal is %s (%.0f/100)", results.Technical.Signal, results.Technical.Strength))
	parts = append(parts, fmt.Sprintf("risk is %s (%.0f/100)", results.Risk.RiskLevel, results.Risk.RiskScore))

	summary := fmt.Sprintf("%s; weighted score %.1f supports %s.", strings.Join(parts, ", "), score, action)

	if results.Anomaly.Detected {
		summary += fmt.Sprintf(" Anomaly detected (%s severity: %s).", results.Anomaly.Severity, results.Anomaly.Reason)
	}
	if results.Degraded() {
		names := make([]string, 0, len(results.Defaulted))
		for _, kind := range results.Defaulted {
			names = append(names, string(kind))
		}
		summary += fmt.Sprintf(" Degraded: %s defaulted to neutral.", strings.Join(names, ", "))
	}

	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
