package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"tweetvault/internal/chain"
	"tweetvault/internal/config"
	"tweetvault/internal/price"
	"tweetvault/internal/retry"
)

func newPriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price [symbol...]",
		Short: "Resolve USD prices for token symbols",
		RunE:  runPrice,
	}

	cmd.Flags().String("ftso-rpc", "", "FTSO chain RPC URL")
	cmd.Flags().String("ftso-consumer", "", "FTSO consumer contract address")
	cmd.Flags().String("coingecko-api-key", "", "CoinGecko API key")
	cmd.Flags().Duration("price-ttl", 60*time.Second, "price cache TTL")
	cmd.Flags().Duration("http-timeout", 10*time.Second, "outbound HTTP timeout")
	cmd.Flags().Int("max-retries", 3, "max attempts for outbound HTTP calls")
	cmd.Flags().Bool("no-cache", false, "bypass the price cache")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func runPrice(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()

	httpClient := resty.New().SetTimeout(cfg.HTTPTimeout)
	policy := retry.Policy{MaxAttempts: cfg.MaxRetries, InitialInterval: 500 * time.Millisecond}

	var sources []price.Source
	if cfg.FTSOConsumer != "" {
		rpcURL := cfg.FTSORPCURL
		if rpcURL == "" {
			rpcURL = cfg.RPCURL
		}
		if rpcURL == "" {
			return fmt.Errorf("ftso-consumer set but no ftso-rpc or rpc configured")
		}
		ftsoClient, err := chain.NewClient(ctx, rpcURL)
		if err != nil {
			return fmt.Errorf("connect ftso rpc: %w", err)
		}
		defer ftsoClient.Close()
		sources = append(sources, price.NewFTSOSource(ftsoClient, common.HexToAddress(cfg.FTSOConsumer)))
	}
	sources = append(sources,
		price.NewCoinGeckoSource(httpClient, cfg.CoinGeckoKey, policy),
		price.NewBinanceSource(httpClient, policy),
	)

	resolver := price.NewResolver(sources, cfg.PriceTTL, logger)

	symbols := args
	if len(symbols) == 0 {
		symbols = config.TokenSymbols()
	}

	noCache, _ := cmd.Flags().GetBool("no-cache")
	quotes := resolver.Prices(ctx, symbols, !noCache)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(quotes)
}
