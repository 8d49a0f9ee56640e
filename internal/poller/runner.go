package poller

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tweetvault/internal/model"
)

// Processor consumes one submission event. A returned error marks that event
// as failed; it never stops the loop.
type Processor interface {
	Process(ctx context.Context, event model.SubmissionEvent) error
}

// RunConfig holds runtime settings for the poll loop.
type RunConfig struct {
	PollInterval time.Duration
	Lookback     uint64
	StartBlock   uint64
}

// Runner drives the poll loop: one in-flight range query at a time, events
// handed to the processor in receipt order, checkpoint advanced only after
// the whole batch has been handed off.
type Runner struct {
	cfg        RunConfig
	chain      ChainReader
	poller     *Poller
	checkpoint *CheckpointStore
	processor  Processor
	logger     *zap.Logger
}

func NewRunner(cfg RunConfig, chainReader ChainReader, p *Poller, checkpoint *CheckpointStore, processor Processor, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainReader,
		poller:     p,
		checkpoint: checkpoint,
		processor:  processor,
		logger:     logger,
	}
}

// startHeight resolves the height to resume from: explicit start block,
// then persisted checkpoint, then current minus lookback.
func (r *Runner) startHeight(ctx context.Context) (uint64, error) {
	if r.cfg.StartBlock > 0 {
		return r.cfg.StartBlock, nil
	}
	if height, ok := r.checkpoint.Load(); ok {
		r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", height))
		return height, nil
	}

	current, err := r.chain.LatestBlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("get latest block: %w", err)
	}
	start := uint64(0)
	if current > r.cfg.Lookback {
		start = current - r.cfg.Lookback
	}
	r.logger.Info("cold start", zap.Uint64("from", start), zap.Uint64("current", current))
	return start, nil
}

// Run executes poll cycles until the context is cancelled. An in-progress
// event is allowed to finish before shutdown takes effect.
func (r *Runner) Run(ctx context.Context) error {
	if r.processor == nil {
		return fmt.Errorf("processor is nil")
	}

	last, err := r.startHeight(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("poll loop start",
		zap.Duration("interval", r.cfg.PollInterval),
		zap.Uint64("from", last))

	for {
		if err := r.Cycle(ctx, &last); err != nil {
			return err
		}

		timer := time.NewTimer(r.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Cycle performs one poll-and-process pass, advancing *last on success.
func (r *Runner) Cycle(ctx context.Context, last *uint64) error {
	latest, err := r.chain.LatestBlockNumber(ctx)
	if err != nil {
		// Transient RPC failure: skip this cycle, the interval retries it.
		r.logger.Warn("latest block unavailable", zap.Error(err))
		return nil
	}

	batch := r.poller.Poll(ctx, *last+1, latest)
	if !batch.OK {
		return nil
	}

	for _, event := range batch.Events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := r.processor.Process(ctx, event); err != nil {
			r.logger.Warn("event processing failed", zap.Error(err),
				zap.String("event", event.Key()))
		}
	}

	if batch.To > *last {
		if err := r.checkpoint.Save(batch.To); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		*last = batch.To
	}

	return nil
}
