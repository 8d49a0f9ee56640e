package analyze

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/go-resty/resty/v2"

	"tweetvault/internal/retry"
)

const (
	hfInferenceBaseURL    = "https://api-inference.huggingface.co/models/"
	finbertModel          = "ProsusAI/finbert"
	twitterSentimentModel = "cardiffnlp/twitter-roberta-base-sentiment-latest"
)

// controversyKeywords often appear in content that draws takedowns.
var controversyKeywords = []string{
	"scam", "fraud", "rug", "dump", "crash", "moon", "lambos",
	"ponzi", "shitcoin", "pump", "fud", "manipulation", "insider",
}

// HFSentimentScorer combines a financial model and a social-media model via
// the Hugging Face inference API. Controversy blends sentiment extremity,
// model disagreement, and keyword hits.
type HFSentimentScorer struct {
	http   *resty.Client
	apiKey string
	policy retry.Policy
}

func NewHFSentimentScorer(httpClient *resty.Client, apiKey string, policy retry.Policy) *HFSentimentScorer {
	return &HFSentimentScorer{http: httpClient, apiKey: apiKey, policy: policy}
}

type hfLabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (s *HFSentimentScorer) ScoreSentiment(ctx context.Context, text string) (string, float64, error) {
	if s.apiKey == "" {
		return "", 0, retry.Permanent(fmt.Errorf("huggingface api key not configured"))
	}

	financial, err := s.classify(ctx, finbertModel, text)
	if err != nil {
		return "", 0, fmt.Errorf("finbert: %w", err)
	}
	social, err := s.classify(ctx, twitterSentimentModel, text)
	if err != nil {
		return "", 0, fmt.Errorf("twitter sentiment: %w", err)
	}

	finValue := sentimentValue(financial.Label) * financial.Score
	socValue := sentimentValue(social.Label) * social.Score
	combined := finValue*0.6 + socValue*0.4

	label := "neutral"
	if combined > 0.2 {
		label = "positive"
	} else if combined < -0.2 {
		label = "negative"
	}

	// Normalize combined sentiment to 0-1 and measure extremity from the
	// neutral midpoint.
	normalized := (combined + 1) / 2
	extremity := math.Abs(normalized-0.5) * 2

	agreement := 0.5
	if normalizeLabel(financial.Label) == normalizeLabel(social.Label) {
		agreement = 1.0
	}
	confidence := agreement * (financial.Score + social.Score) / 2
	disagreement := 1 - confidence

	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range controversyKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	keywordScore := float64(hits) / float64(len(controversyKeywords))

	controversy := extremity*0.4 + disagreement*0.3 + keywordScore*0.3
	return label, math.Min(1, controversy), nil
}

// classify queries one model and returns its top label.
func (s *HFSentimentScorer) classify(ctx context.Context, modelName, text string) (hfLabelScore, error) {
	if len(text) > 512 {
		text = text[:512]
	}

	var payload [][]hfLabelScore
	err := s.policy.Do(ctx, func() error {
		resp, err := s.http.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+s.apiKey).
			SetHeader("Content-Type", "application/json").
			SetBody(map[string]string{"inputs": text}).
			SetResult(&payload).
			Post(hfInferenceBaseURL + modelName)
		if err != nil {
			return err
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("inference status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return hfLabelScore{}, err
	}

	if len(payload) == 0 || len(payload[0]) == 0 {
		return hfLabelScore{}, fmt.Errorf("empty inference response")
	}

	top := payload[0][0]
	for _, candidate := range payload[0][1:] {
		if candidate.Score > top.Score {
			top = candidate
		}
	}
	return top, nil
}

func normalizeLabel(label string) string {
	label = strings.ToLower(label)
	switch {
	case strings.Contains(label, "pos"):
		return "positive"
	case strings.Contains(label, "neg"):
		return "negative"
	default:
		return "neutral"
	}
}

func sentimentValue(label string) float64 {
	switch normalizeLabel(label) {
	case "positive":
		return 1
	case "negative":
		return -1
	default:
		return 0
	}
}
