package price

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"tweetvault/internal/retry"
)

const binanceBaseURL = "https://api.binance.com/api/v3"

// BinanceSource resolves prices from the public Binance ticker endpoint
// using the USDT pair for the symbol.
type BinanceSource struct {
	http   *resty.Client
	policy retry.Policy
}

func NewBinanceSource(httpClient *resty.Client, policy retry.Policy) *BinanceSource {
	return &BinanceSource{http: httpClient, policy: policy}
}

func (s *BinanceSource) Name() string { return "Binance" }

func (s *BinanceSource) Quote(ctx context.Context, symbol string) (float64, time.Time, error) {
	var payload struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}

	err := s.policy.Do(ctx, func() error {
		resp, err := s.http.R().
			SetContext(ctx).
			SetQueryParam("symbol", symbol+"USDT").
			SetHeader("Accept", "application/json").
			SetResult(&payload).
			Get(binanceBaseURL + "/ticker/price")
		if err != nil {
			return err
		}
		if resp.StatusCode() == 400 {
			// Unknown trading pair, retrying will not help.
			return retry.Permanent(fmt.Errorf("no %sUSDT pair", symbol))
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("binance status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}

	value, err := strconv.ParseFloat(payload.Price, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("parse binance price %q: %w", payload.Price, err)
	}
	return value, time.Now().UTC(), nil
}
