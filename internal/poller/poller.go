package poller

import (
	"context"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"tweetvault/internal/model"
)

// ChainReader is the subset of the chain client the poller queries.
type ChainReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// Batch is the outcome of one range query. To is the highest block actually
// scanned; OK is false when the query failed and the range must be retried
// on the next cycle.
type Batch struct {
	Events []model.SubmissionEvent
	From   uint64
	To     uint64
	OK     bool
}

// Poller fetches DepositProcessed events from the deposit contract in
// bounded block ranges.
type Poller struct {
	chain    ChainReader
	contract common.Address
	maxSpan  uint64
	logger   *zap.Logger
	seen     map[string]struct{}
}

func NewPoller(chainReader ChainReader, contract common.Address, maxSpan uint64, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSpan == 0 {
		maxSpan = 1000
	}
	return &Poller{
		chain:    chainReader,
		contract: contract,
		maxSpan:  maxSpan,
		logger:   logger,
		seen:     make(map[string]struct{}),
	}
}

// Poll queries the range [from, to] for submission events. The range is
// clamped to maxSpan blocks; an inverted range is a no-op. A transient query
// failure yields an empty, not-OK batch so the caller leaves the checkpoint
// untouched and the same range is retried on the next cycle.
func (p *Poller) Poll(ctx context.Context, from, to uint64) Batch {
	if from > to {
		return Batch{From: from, To: from - 1, OK: true}
	}

	if to-from > p.maxSpan {
		to = from + p.maxSpan
	}

	p.logger.Debug("fetch deposit events", zap.Uint64("from", from), zap.Uint64("to", to))

	logs, err := p.chain.FilterLogs(ctx, from, to, []common.Address{p.contract}, []common.Hash{DepositEventTopic()})
	if err != nil {
		p.logger.Warn("fetch deposit events failed", zap.Error(err),
			zap.Uint64("from", from), zap.Uint64("to", to))
		return Batch{From: from, To: to, OK: false}
	}

	events := make([]model.SubmissionEvent, 0, len(logs))
	for _, log := range logs {
		event, err := p.parseLog(ctx, log)
		if err != nil {
			p.logger.Warn("drop undecodable deposit log", zap.Error(err),
				zap.String("tx", log.TxHash.Hex()), zap.Uint("log_index", log.Index))
			continue
		}
		if _, dup := p.seen[event.Key()]; dup {
			continue
		}
		p.seen[event.Key()] = struct{}{}
		events = append(events, event)
	}

	if len(events) > 0 {
		p.logger.Info("new deposit events", zap.Int("count", len(events)),
			zap.Uint64("from", from), zap.Uint64("to", to))
	}

	return Batch{Events: events, From: from, To: to, OK: true}
}

func (p *Poller) parseLog(ctx context.Context, log types.Log) (model.SubmissionEvent, error) {
	loadDepositABI()

	if len(log.Topics) != 4 {
		return model.SubmissionEvent{}, fmt.Errorf("expected 4 topics, got %d", len(log.Topics))
	}
	if log.Topics[0] != depositTopic {
		return model.SubmissionEvent{}, fmt.Errorf("unexpected topic0 %s", log.Topics[0].Hex())
	}

	values, err := depositABI.Unpack(depositEventName, log.Data)
	if err != nil {
		return model.SubmissionEvent{}, fmt.Errorf("unpack event data: %w", err)
	}
	if len(values) != 3 {
		return model.SubmissionEvent{}, fmt.Errorf("expected 3 data fields, got %d", len(values))
	}

	recipient, ok := values[0].(common.Address)
	if !ok {
		return model.SubmissionEvent{}, fmt.Errorf("recipient is not an address")
	}
	validation, ok := values[1].(string)
	if !ok {
		return model.SubmissionEvent{}, fmt.Errorf("validation is not a string")
	}
	proof, ok := values[2].([]byte)
	if !ok {
		return model.SubmissionEvent{}, fmt.Errorf("proof is not bytes")
	}

	// Event timestamp comes from the containing block; a header fetch
	// failure is tolerable, the field is informational.
	ts, err := p.chain.BlockTimestamp(ctx, log.BlockNumber)
	if err != nil {
		p.logger.Debug("block timestamp unavailable", zap.Error(err),
			zap.Uint64("block", log.BlockNumber))
		ts = 0
	}

	amount := new(big.Int).SetBytes(log.Topics[1].Bytes())

	return model.SubmissionEvent{
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    uint64(log.Index),
		ContentHash: log.Topics[2].Hex(),
		Depositor:   common.BytesToAddress(log.Topics[3].Bytes()).Hex(),
		Recipient:   recipient.Hex(),
		AmountWei:   amount.String(),
		Validation:  validation,
		Proof:       hexutil.Encode(proof),
		Timestamp:   ts,
	}, nil
}

var locatorPattern = regexp.MustCompile(`https?://(?:www\.)?(?:twitter\.com|x\.com)/[^\s]+/status/\d+`)

// ExtractLocator pulls the tweet URL out of an event's free-form validation
// string. It returns "" when no recognizable locator is present, signaling
// an unprocessable event rather than an error.
func ExtractLocator(event model.SubmissionEvent) string {
	return locatorPattern.FindString(strings.TrimSpace(event.Validation))
}
