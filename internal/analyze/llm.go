package analyze

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"tweetvault/internal/retry"
)

const riskSystemPrompt = "You are an AI tweet analyzer. Analyze the tweet content and output " +
	"a likelihood score between 0 and 1 for the tweet being deleted based on its " +
	"controversial nature. Provide your answer as 'Score: <number>' followed by any analysis notes."

// LLMRiskScorer estimates removal risk through a chat-completions API.
// The model answers free text; the first number in [0,1] is taken as the
// score, with 0.0 as the fallback when none is found.
type LLMRiskScorer struct {
	http    *resty.Client
	baseURL string
	apiKey  string
	model   string
	policy  retry.Policy
}

func NewLLMRiskScorer(httpClient *resty.Client, baseURL, apiKey string, policy retry.Policy) *LLMRiskScorer {
	return &LLMRiskScorer{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   "gpt-4",
		policy:  policy,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (s *LLMRiskScorer) ScoreRemovalRisk(ctx context.Context, text string) (float64, string, error) {
	if s.apiKey == "" {
		return 0, "", retry.Permanent(fmt.Errorf("risk scorer api key not configured"))
	}

	body := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: riskSystemPrompt},
			{Role: "user", Content: "Analyze this tweet and output a deletion likelihood score (0 to 1) " +
				"for it being deleted due to controversy. Tweet: " + text},
		},
		Temperature: 0.1,
	}

	var payload chatResponse
	err := s.policy.Do(ctx, func() error {
		resp, err := s.http.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+s.apiKey).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			SetResult(&payload).
			Post(s.baseURL + "/chat/completions")
		if err != nil {
			return err
		}
		if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
			return retry.Permanent(fmt.Errorf("risk scorer auth rejected: %d", resp.StatusCode()))
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("risk scorer status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return 0, "", err
	}

	if len(payload.Choices) == 0 {
		return 0, "", fmt.Errorf("risk scorer returned no choices")
	}

	output := payload.Choices[0].Message.Content
	return parseScore(output), output, nil
}

// parseScore extracts the first number in [0,1] from the model output,
// falling back to zero when none parses.
func parseScore(output string) float64 {
	for _, field := range strings.Fields(output) {
		field = strings.Trim(field, ".,:;()")
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}
		if value >= 0 && value <= 1 {
			return value
		}
	}
	return 0
}
