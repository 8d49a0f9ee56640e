package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("poll interval = %v", cfg.PollInterval)
	}
	if cfg.MaxBlockSpan != 1000 {
		t.Fatalf("max block span = %d", cfg.MaxBlockSpan)
	}
	if cfg.Lookback != 100 {
		t.Fatalf("lookback = %d", cfg.Lookback)
	}
	if cfg.ScoreThreshold != 0.75 {
		t.Fatalf("score threshold = %v", cfg.ScoreThreshold)
	}
	if cfg.PriceTTL != 60*time.Second {
		t.Fatalf("price ttl = %v", cfg.PriceTTL)
	}
	if cfg.SubmissionFeeWei != "1000000000000000" {
		t.Fatalf("submission fee = %s", cfg.SubmissionFeeWei)
	}
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Duration("poll-interval", 30*time.Second, "")
	flags.String("rpc", "", "")
	if err := flags.Parse([]string{"--poll-interval=5s", "--rpc=http://localhost:8545"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("flag did not override: %v", cfg.PollInterval)
	}
	if cfg.RPCURL != "http://localhost:8545" {
		t.Fatalf("rpc = %q", cfg.RPCURL)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "rpc: http://node:8545\ndeposit-contract: \"0x1234\"\nlookback: 250\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "http://node:8545" || cfg.DepositContract != "0x1234" {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.Lookback != 250 {
		t.Fatalf("lookback = %d", cfg.Lookback)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{ScoreThreshold: 0.75}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("missing rpc and contract must fail validation")
	}

	cfg.RPCURL = "http://localhost:8545"
	cfg.DepositContract = "0x1234"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.ScoreThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatalf("out-of-range threshold must fail validation")
	}
}

func TestTokenMeta(t *testing.T) {
	info, ok := TokenMeta("btc")
	if !ok || info.Chain != "Bitcoin" || info.CoinGeckoID != "bitcoin" {
		t.Fatalf("btc lookup failed: %+v, %v", info, ok)
	}

	if _, ok := TokenMeta("NOPE"); ok {
		t.Fatalf("unknown symbol must miss")
	}
}
