package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tweetvault/internal/analyze"
	"tweetvault/internal/chain"
	"tweetvault/internal/config"
	"tweetvault/internal/pipeline"
	"tweetvault/internal/poller"
	"tweetvault/internal/price"
	"tweetvault/internal/registry"
	"tweetvault/internal/retry"
	"tweetvault/internal/scrape"
	"tweetvault/internal/storage"
	"tweetvault/internal/storage/postgres"
	"tweetvault/internal/submit"
)

func main() {
	root := &cobra.Command{
		Use:          "tweetvault",
		Short:        "Deposit event ingestion daemon",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ingestion daemon",
		RunE:  runDaemon,
	}

	runCmd.Flags().String("rpc", "", "chain RPC URL")
	runCmd.Flags().String("deposit-contract", "", "deposit contract address")
	runCmd.Flags().String("registry-contract", "", "registry contract address")
	runCmd.Flags().Duration("poll-interval", 30*time.Second, "delay between poll cycles")
	runCmd.Flags().Uint64("max-block-span", 1000, "max blocks per range query")
	runCmd.Flags().Uint64("lookback", 100, "blocks behind head on cold start")
	runCmd.Flags().Uint64("start-block", 0, "explicit start block, 0 means checkpoint or lookback")
	runCmd.Flags().String("checkpoint", "./data/last_block.txt", "checkpoint file path")
	runCmd.Flags().String("resubmit-log", "./data/resubmitted.json", "resubmitted-hash log path")
	runCmd.Flags().Float64("score-threshold", 0.75, "combined score needed to resubmit")
	runCmd.Flags().Duration("price-ttl", 60*time.Second, "price cache TTL")
	runCmd.Flags().String("ftso-rpc", "", "FTSO chain RPC URL, empty reuses the main RPC")
	runCmd.Flags().String("ftso-consumer", "", "FTSO consumer contract address")
	runCmd.Flags().String("coingecko-api-key", "", "CoinGecko API key")
	runCmd.Flags().String("scraper-url", "", "tweet scraper service base URL")
	runCmd.Flags().String("huggingface-api-key", "", "HuggingFace inference API key")
	runCmd.Flags().String("openai-api-key", "", "OpenAI API key")
	runCmd.Flags().String("pinata-jwt", "", "Pinata JWT")
	runCmd.Flags().String("storacha-space-did", "", "Storacha space DID")
	runCmd.Flags().String("storacha-auth-secret", "", "Storacha bridge X-Auth-Secret header")
	runCmd.Flags().String("storacha-auth", "", "Storacha bridge Authorization header")
	runCmd.Flags().String("data-dir", "./data", "local record directory")
	runCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for the query store")
	runCmd.Flags().String("private-key", "", "hex private key for registry writes and resubmission")
	runCmd.Flags().String("submission-fee-wei", "1000000000000000", "deposit fee in wei")
	runCmd.Flags().Duration("http-timeout", 10*time.Second, "outbound HTTP timeout")
	runCmd.Flags().Int("max-retries", 3, "max attempts for outbound HTTP calls")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)
	root.AddCommand(newPollCmd())
	root.AddCommand(newPriceCmd())
	root.AddCommand(newQueryCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var sender *chain.Transactor
	if cfg.PrivateKey != "" {
		sender, err = chain.NewTransactor(chainClient, cfg.PrivateKey, logger)
		if err != nil {
			return fmt.Errorf("load private key: %w", err)
		}
	}

	httpClient := resty.New().SetTimeout(cfg.HTTPTimeout)
	policy := retry.Policy{MaxAttempts: cfg.MaxRetries, InitialInterval: 500 * time.Millisecond}

	resolver, ftsoClient, err := buildResolver(ctx, cfg, chainClient, httpClient, policy, logger)
	if err != nil {
		return err
	}
	if ftsoClient != nil {
		defer ftsoClient.Close()
	}

	analyzer := buildAnalyzer(cfg, httpClient, policy, logger)

	uploader := storage.NewUploader(httpClient, cfg.PinataJWT, cfg.StorachaSpaceDID,
		cfg.StorachaAuthSecret, cfg.StorachaAuth, policy, logger)
	if cfg.PinataJWT == "" {
		logger.Warn("pinata jwt not set, uploads will fail")
	}

	deps := pipeline.Deps{
		Fetcher:   scrape.NewClient(httpClient, cfg.ScraperURL, policy),
		Analyzer:  analyzer,
		Prices:    resolver,
		Local:     storage.NewLocalStore(cfg.DataDir),
		Uploader:  uploader,
		Threshold: cfg.ScoreThreshold,
		Logger:    logger,
	}

	if cfg.RegistryContract != "" {
		var regSender registry.Sender
		if sender != nil {
			regSender = sender
		}
		deps.Registry = registry.NewClient(chainClient, regSender,
			common.HexToAddress(cfg.RegistryContract), logger)
	}

	if sender != nil {
		fee, ok := new(big.Int).SetString(cfg.SubmissionFeeWei, 10)
		if !ok {
			return fmt.Errorf("invalid submission-fee-wei %q", cfg.SubmissionFeeWei)
		}
		deps.Submitter = submit.NewSubmitter(sender,
			common.HexToAddress(cfg.DepositContract), fee, logger)
	} else {
		logger.Warn("private key not set, running read-only: no registry writes or resubmission")
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		deps.Archiver = store
	}

	resubmits, err := pipeline.LoadResubmitLog(cfg.ResubmitPath)
	if err != nil {
		return err
	}
	deps.Resubmits = resubmits

	orchestrator := pipeline.NewOrchestrator(deps)

	contract := common.HexToAddress(cfg.DepositContract)
	runner := poller.NewRunner(poller.RunConfig{
		PollInterval: cfg.PollInterval,
		Lookback:     cfg.Lookback,
		StartBlock:   cfg.StartBlock,
	}, chainClient, poller.NewPoller(chainClient, contract, cfg.MaxBlockSpan, logger),
		poller.NewCheckpointStore(cfg.CheckpointPath), orchestrator, logger)

	logger.Info("daemon start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("deposit_contract", cfg.DepositContract),
		zap.String("registry_contract", cfg.RegistryContract),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Uint64("max_block_span", cfg.MaxBlockSpan),
		zap.Float64("score_threshold", cfg.ScoreThreshold),
	)

	err = runner.Run(ctx)
	orchestrator.Stats().Log(logger)
	return err
}

// buildResolver assembles the configured price sources in fallback order.
// The second return value is the separate FTSO chain client, if one was
// dialed; the caller owns closing it.
func buildResolver(ctx context.Context, cfg config.Config, chainClient *chain.Client, httpClient *resty.Client, policy retry.Policy, logger *zap.Logger) (*price.Resolver, *chain.Client, error) {
	var sources []price.Source
	var ftsoClient *chain.Client

	if cfg.FTSOConsumer != "" {
		caller := price.Caller(chainClient)
		if cfg.FTSORPCURL != "" && cfg.FTSORPCURL != cfg.RPCURL {
			var err error
			ftsoClient, err = chain.NewClient(ctx, cfg.FTSORPCURL)
			if err != nil {
				return nil, nil, fmt.Errorf("connect ftso rpc: %w", err)
			}
			caller = ftsoClient
		}
		sources = append(sources, price.NewFTSOSource(caller, common.HexToAddress(cfg.FTSOConsumer)))
	}
	sources = append(sources,
		price.NewCoinGeckoSource(httpClient, cfg.CoinGeckoKey, policy),
		price.NewBinanceSource(httpClient, policy),
	)

	return price.NewResolver(sources, cfg.PriceTTL, logger), ftsoClient, nil
}

// buildAnalyzer wires up whichever scorers have credentials. The keyword
// classifier needs none and is always on.
func buildAnalyzer(cfg config.Config, httpClient *resty.Client, policy retry.Policy, logger *zap.Logger) *analyze.Analyzer {
	var risk analyze.RiskScorer
	if cfg.OpenAIKey != "" {
		risk = analyze.NewLLMRiskScorer(httpClient, cfg.OpenAIURL, cfg.OpenAIKey, policy)
	} else {
		logger.Warn("openai api key not set, removal risk scoring disabled")
	}

	var sentiment analyze.SentimentScorer
	if cfg.HuggingFaceKey != "" {
		sentiment = analyze.NewHFSentimentScorer(httpClient, cfg.HuggingFaceKey, policy)
	} else {
		logger.Warn("huggingface api key not set, sentiment scoring disabled")
	}

	return analyze.NewAnalyzer(risk, sentiment, analyze.NewKeywordClassifier(), logger)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
