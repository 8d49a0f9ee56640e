package price

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"tweetvault/internal/config"
	"tweetvault/internal/retry"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoSource resolves prices from the CoinGecko simple/price endpoint.
// The API key is optional; without it the free-tier rate limits apply.
type CoinGeckoSource struct {
	http   *resty.Client
	apiKey string
	policy retry.Policy
}

func NewCoinGeckoSource(httpClient *resty.Client, apiKey string, policy retry.Policy) *CoinGeckoSource {
	return &CoinGeckoSource{http: httpClient, apiKey: apiKey, policy: policy}
}

func (s *CoinGeckoSource) Name() string { return "CoinGecko" }

func (s *CoinGeckoSource) Quote(ctx context.Context, symbol string) (float64, time.Time, error) {
	meta, ok := config.TokenMeta(symbol)
	if !ok || meta.CoinGeckoID == "" {
		return 0, time.Time{}, retry.Permanent(fmt.Errorf("no CoinGecko id for %s", symbol))
	}

	var payload map[string]struct {
		USD           float64 `json:"usd"`
		LastUpdatedAt int64   `json:"last_updated_at"`
	}

	err := s.policy.Do(ctx, func() error {
		req := s.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"ids":                     meta.CoinGeckoID,
				"vs_currencies":           "usd",
				"include_last_updated_at": "true",
			}).
			SetHeader("Accept", "application/json").
			SetResult(&payload)
		if s.apiKey != "" {
			req.SetHeader("x-cg-pro-api-key", s.apiKey)
		}

		resp, err := req.Get(coingeckoBaseURL + "/simple/price")
		if err != nil {
			return err
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("coingecko status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}

	entry, ok := payload[meta.CoinGeckoID]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("%s missing from coingecko response", meta.CoinGeckoID)
	}

	ts := time.Now().UTC()
	if entry.LastUpdatedAt > 0 {
		ts = time.Unix(entry.LastUpdatedAt, 0)
	}
	return entry.USD, ts, nil
}
