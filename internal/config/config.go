package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL           string
	DepositContract  string
	RegistryContract string

	PollInterval   time.Duration
	MaxBlockSpan   uint64
	Lookback       uint64
	StartBlock     uint64
	CheckpointPath string
	ResubmitPath   string

	ScoreThreshold float64
	PriceTTL       time.Duration

	FTSORPCURL   string
	FTSOConsumer string
	CoinGeckoKey string

	ScraperURL     string
	HuggingFaceKey string
	OpenAIKey      string
	OpenAIURL      string

	PinataJWT          string
	StorachaSpaceDID   string
	StorachaAuthSecret string
	StorachaAuth       string

	DataDir string
	PGDSN   string

	PrivateKey       string
	SubmissionFeeWei string

	HTTPTimeout time.Duration
	MaxRetries  int
	LogLevel    string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TWEETVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("poll-interval", 30*time.Second)
	v.SetDefault("max-block-span", uint64(1000))
	v.SetDefault("lookback", uint64(100))
	v.SetDefault("checkpoint", "./data/last_block.txt")
	v.SetDefault("resubmit-log", "./data/resubmitted.json")
	v.SetDefault("score-threshold", 0.75)
	v.SetDefault("price-ttl", 60*time.Second)
	v.SetDefault("openai-url", "https://api.openai.com/v1")
	v.SetDefault("submission-fee-wei", "1000000000000000")
	v.SetDefault("data-dir", "./data")
	v.SetDefault("http-timeout", 10*time.Second)
	v.SetDefault("max-retries", 3)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:           v.GetString("rpc"),
		DepositContract:  v.GetString("deposit-contract"),
		RegistryContract: v.GetString("registry-contract"),

		PollInterval:   v.GetDuration("poll-interval"),
		MaxBlockSpan:   v.GetUint64("max-block-span"),
		Lookback:       v.GetUint64("lookback"),
		StartBlock:     v.GetUint64("start-block"),
		CheckpointPath: v.GetString("checkpoint"),
		ResubmitPath:   v.GetString("resubmit-log"),

		ScoreThreshold: v.GetFloat64("score-threshold"),
		PriceTTL:       v.GetDuration("price-ttl"),

		FTSORPCURL:   v.GetString("ftso-rpc"),
		FTSOConsumer: v.GetString("ftso-consumer"),
		CoinGeckoKey: v.GetString("coingecko-api-key"),

		ScraperURL:     v.GetString("scraper-url"),
		HuggingFaceKey: v.GetString("huggingface-api-key"),
		OpenAIKey:      v.GetString("openai-api-key"),
		OpenAIURL:      v.GetString("openai-url"),

		PinataJWT:          v.GetString("pinata-jwt"),
		StorachaSpaceDID:   v.GetString("storacha-space-did"),
		StorachaAuthSecret: v.GetString("storacha-auth-secret"),
		StorachaAuth:       v.GetString("storacha-auth"),

		DataDir: v.GetString("data-dir"),
		PGDSN:   v.GetString("pg-dsn"),

		PrivateKey:       v.GetString("private-key"),
		SubmissionFeeWei: v.GetString("submission-fee-wei"),

		HTTPTimeout: v.GetDuration("http-timeout"),
		MaxRetries:  v.GetInt("max-retries"),
		LogLevel:    v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate reports missing required settings. Optional API keys are not
// required; their absence only narrows the available price sources.
func (c Config) Validate() error {
	var missing []string
	if c.RPCURL == "" {
		missing = append(missing, "rpc")
	}
	if c.DepositContract == "" {
		missing = append(missing, "deposit-contract")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("score-threshold must be in [0,1], got %v", c.ScoreThreshold)
	}
	return nil
}
