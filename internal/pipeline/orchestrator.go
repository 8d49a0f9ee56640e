package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"tweetvault/internal/model"
	"tweetvault/internal/poller"
	"tweetvault/internal/registry"
)

// statsInterval is how many processed events pass between stats log lines.
const statsInterval = 10

// Fetcher retrieves the content behind a tweet link. A nil payload with a
// nil error means the content is gone; the event is aborted and counted as
// an error.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (*model.TweetData, error)
}

// Analyzer scores a piece of content. It never fails outright; scorers that
// error are dropped from the result.
type Analyzer interface {
	Analyze(ctx context.Context, text string) model.Analysis
}

// PriceResolver looks up a USD quote for a token symbol.
type PriceResolver interface {
	Price(ctx context.Context, symbol string, useCache bool) model.PriceQuote
}

// RecordWriter persists a record locally and returns the file path.
type RecordWriter interface {
	Write(record model.ContentRecord) (string, error)
}

// Uploader pushes a locally persisted record to remote storage.
type Uploader interface {
	Store(ctx context.Context, localPath string) (model.StorageResult, error)
}

// Registry reads and writes the on-chain tweet registry.
type Registry interface {
	Exists(ctx context.Context, hash common.Hash) (bool, error)
	Store(ctx context.Context, record model.ContentRecord) (string, error)
}

// Submitter sends a new deposit for high-scoring content.
type Submitter interface {
	Submit(ctx context.Context, locator string, score float64) (string, error)
}

// Archiver mirrors finished records into a queryable store.
type Archiver interface {
	UpsertRecord(ctx context.Context, record model.ContentRecord) error
}

// Deps bundles the orchestrator's collaborators. Registry, Submitter and
// Archiver are optional; the corresponding stages are skipped when nil.
// Resubmits must be set alongside Submitter, otherwise resubmission is
// skipped entirely.
type Deps struct {
	Fetcher   Fetcher
	Analyzer  Analyzer
	Prices    PriceResolver
	Local     RecordWriter
	Uploader  Uploader
	Registry  Registry
	Submitter Submitter
	Archiver  Archiver
	Resubmits *ResubmitLog
	Threshold float64
	Logger    *zap.Logger
}

// Orchestrator drives one event through the full pipeline: extract the tweet
// link, fetch, analyze, price, persist, upload, register, and optionally
// resubmit. It implements poller.Processor.
type Orchestrator struct {
	deps  Deps
	stats *Stats
}

func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Orchestrator{deps: deps, stats: NewStats()}
}

func (o *Orchestrator) Stats() *Stats {
	return o.stats
}

// Process runs the full pipeline for one submission event. Registry write
// failures are logged and counted but do not fail the event: the local and
// uploaded copies from the earlier stages stay valid.
func (o *Orchestrator) Process(ctx context.Context, event model.SubmissionEvent) error {
	locator := poller.ExtractLocator(event)
	if locator == "" {
		o.stats.Errored++
		return fmt.Errorf("event %s carries no tweet link", event.Key())
	}
	hash := registry.ContentHash(locator)

	tweet, err := o.deps.Fetcher.Fetch(ctx, locator)
	if err != nil {
		o.stats.Errored++
		return fmt.Errorf("fetch %s: %w", locator, err)
	}
	if tweet == nil {
		o.stats.Errored++
		return fmt.Errorf("fetch %s: content unavailable", locator)
	}
	o.stats.Processed++

	analysis := o.deps.Analyzer.Analyze(ctx, tweet.Content)

	record := model.ContentRecord{
		ContentHash: hash.Hex(),
		Event:       event,
		Tweet:       *tweet,
		Analysis:    analysis,
		ProcessedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if analysis.Token != "" {
		quote := o.deps.Prices.Price(ctx, analysis.Token, true)
		if quote.Success {
			record.Price = &quote
		}
	}

	path, err := o.deps.Local.Write(record)
	if err != nil {
		o.stats.Errored++
		return fmt.Errorf("persist %s: %w", record.ContentHash, err)
	}

	result, err := o.deps.Uploader.Store(ctx, path)
	if err != nil {
		o.stats.Errored++
		return fmt.Errorf("upload %s: %w", record.ContentHash, err)
	}
	record.Storage = &result
	o.stats.Stored++

	o.register(ctx, hash, &record)
	o.maybeResubmit(ctx, locator, record)

	if o.deps.Archiver != nil {
		if err := o.deps.Archiver.UpsertRecord(ctx, record); err != nil {
			o.deps.Logger.Warn("archive upsert failed",
				zap.String("hash", record.ContentHash), zap.Error(err))
		}
	}

	if o.stats.Processed%statsInterval == 0 {
		o.stats.Log(o.deps.Logger)
	}
	return nil
}

// register writes the record to the on-chain registry unless it is already
// there. The existence check is advisory: if it fails we attempt the write
// anyway and let the contract reject duplicates.
func (o *Orchestrator) register(ctx context.Context, hash common.Hash, record *model.ContentRecord) {
	if o.deps.Registry == nil {
		return
	}
	exists, err := o.deps.Registry.Exists(ctx, hash)
	if err != nil {
		o.deps.Logger.Warn("registry existence check failed, attempting write",
			zap.String("hash", record.ContentHash), zap.Error(err))
		exists = false
	}
	if exists {
		o.deps.Logger.Debug("already registered", zap.String("hash", record.ContentHash))
		return
	}
	tx, err := o.deps.Registry.Store(ctx, *record)
	if err != nil {
		o.stats.Errored++
		o.deps.Logger.Warn("registry write failed",
			zap.String("hash", record.ContentHash), zap.Error(err))
		return
	}
	record.RegistryTx = tx
	o.stats.Registered++
	o.deps.Logger.Info("registered on-chain",
		zap.String("hash", record.ContentHash), zap.String("tx", tx))
}

// maybeResubmit sends a fresh deposit when the combined score clears the
// threshold. Each content hash is submitted at most once, tracked durably
// across restarts.
func (o *Orchestrator) maybeResubmit(ctx context.Context, locator string, record model.ContentRecord) {
	if o.deps.Submitter == nil || o.deps.Resubmits == nil {
		return
	}
	score := record.Analysis.CombinedScore
	if score < o.deps.Threshold {
		return
	}
	if o.deps.Resubmits.Has(record.ContentHash) {
		o.deps.Logger.Debug("already resubmitted", zap.String("hash", record.ContentHash))
		return
	}
	tx, err := o.deps.Submitter.Submit(ctx, locator, score)
	if err != nil {
		o.stats.Errored++
		o.deps.Logger.Warn("resubmission failed",
			zap.String("url", locator), zap.Error(err))
		return
	}
	o.stats.Resubmitted++
	o.deps.Logger.Info("resubmitted high-score content",
		zap.String("url", locator), zap.Float64("score", score), zap.String("tx", tx))
	if err := o.deps.Resubmits.Add(record.ContentHash); err != nil {
		o.deps.Logger.Warn("resubmit log write failed", zap.Error(err))
	}
}
