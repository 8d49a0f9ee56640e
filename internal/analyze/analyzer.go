package analyze

import (
	"context"

	"go.uber.org/zap"

	"tweetvault/internal/config"
	"tweetvault/internal/model"
)

// Blend weights for the combined score: removal risk is the primary signal,
// sentiment-derived controversy the secondary one.
const (
	riskWeight        = 0.6
	controversyWeight = 0.4
)

// RiskScorer estimates the likelihood of content being removed.
type RiskScorer interface {
	ScoreRemovalRisk(ctx context.Context, text string) (float64, string, error)
}

// SentimentScorer derives a sentiment label and a 0-1 controversy score.
type SentimentScorer interface {
	ScoreSentiment(ctx context.Context, text string) (string, float64, error)
}

// EcosystemClassifier identifies the token a text primarily discusses.
// An empty token means no supported token was recognized.
type EcosystemClassifier interface {
	Classify(ctx context.Context, text string) (string, float64, error)
}

// Analyzer runs the three scoring collaborators over a text. Each call is
// independently recovered so one failing model never blocks the others.
type Analyzer struct {
	risk       RiskScorer
	sentiment  SentimentScorer
	classifier EcosystemClassifier
	logger     *zap.Logger
}

func NewAnalyzer(risk RiskScorer, sentiment SentimentScorer, classifier EcosystemClassifier, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{risk: risk, sentiment: sentiment, classifier: classifier, logger: logger}
}

// Analyze scores the text with whichever collaborators are configured and
// succeed, and blends the results into a combined score.
func (a *Analyzer) Analyze(ctx context.Context, text string) model.Analysis {
	var result model.Analysis

	if a.risk != nil {
		score, notes, err := a.risk.ScoreRemovalRisk(ctx, text)
		if err != nil {
			a.logger.Warn("removal risk scoring failed", zap.Error(err))
		} else {
			result.RemovalRisk = clamp01(score)
			result.RiskNotes = notes
		}
	}

	if a.sentiment != nil {
		label, controversy, err := a.sentiment.ScoreSentiment(ctx, text)
		if err != nil {
			a.logger.Warn("sentiment scoring failed", zap.Error(err))
		} else {
			result.SentimentLabel = label
			result.Controversy = clamp01(controversy)
			result.HasSentiment = true
		}
	}

	if a.classifier != nil {
		token, confidence, err := a.classifier.Classify(ctx, text)
		if err != nil {
			a.logger.Warn("ecosystem classification failed", zap.Error(err))
		} else if token != "" {
			result.Token = token
			result.Confidence = confidence
			if meta, ok := config.TokenMeta(token); ok {
				result.TokenChain = meta.Chain
			}
		}
	}

	result.CombinedScore = Combine(result.RemovalRisk, result.Controversy, result.HasSentiment)
	return result
}

// Combine blends the primary and secondary signals. Without a usable
// sentiment signal the primary score stands alone. The result is always
// within [0,1] for valid component scores.
func Combine(risk, controversy float64, hasSentiment bool) float64 {
	if !hasSentiment {
		return clamp01(risk)
	}
	return clamp01(risk*riskWeight + controversy*controversyWeight)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
