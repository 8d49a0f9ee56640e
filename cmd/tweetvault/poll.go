package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tweetvault/internal/chain"
	"tweetvault/internal/config"
	"tweetvault/internal/poller"
)

func newPollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Scan a block range for deposit events without processing them",
		RunE:  runPoll,
	}

	cmd.Flags().String("rpc", "", "chain RPC URL")
	cmd.Flags().String("deposit-contract", "", "deposit contract address")
	cmd.Flags().Uint64("start-block", 0, "first block to scan, 0 means lookback from head")
	cmd.Flags().Uint64("lookback", 100, "blocks behind head when start-block is 0")
	cmd.Flags().Uint64("max-block-span", 1000, "max blocks per range query")
	cmd.Flags().Duration("http-timeout", 10*time.Second, "outbound HTTP timeout")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

// runPoll performs a single scan up to the current head and prints decoded
// events as JSON lines. The checkpoint is neither read nor written.
func runPoll(cmd *cobra.Command, _ []string) error {
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

	ctx := cmd.Context()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	latest, err := chainClient.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("latest block: %w", err)
	}

	from := cfg.StartBlock
	if from == 0 && latest > cfg.Lookback {
		from = latest - cfg.Lookback
	}

	contract := common.HexToAddress(cfg.DepositContract)
	p := poller.NewPoller(chainClient, contract, cfg.MaxBlockSpan, logger)

	enc := json.NewEncoder(os.Stdout)
	total := 0
	for from <= latest {
		batch := p.Poll(ctx, from, latest)
		if !batch.OK {
			return fmt.Errorf("range query failed at block %d", from)
		}
		for _, event := range batch.Events {
			if err := enc.Encode(event); err != nil {
				return err
			}
		}
		total += len(batch.Events)
		from = batch.To + 1
	}

	logger.Info("scan complete",
		zap.Uint64("to", latest), zap.Int("events", total))
	return nil
}
