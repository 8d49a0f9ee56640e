package registry

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"tweetvault/internal/model"
)

// Caller is the read capability the client needs.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Sender signs and broadcasts calldata to a contract.
type Sender interface {
	From() common.Address
	Send(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error)
}

// Client reads from and writes to the on-chain content registry. A nil
// sender makes the client read-only; the register stage then skips writes.
type Client struct {
	caller   Caller
	sender   Sender
	contract common.Address
	logger   *zap.Logger
}

func NewClient(caller Caller, sender Sender, contract common.Address, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{caller: caller, sender: sender, contract: contract, logger: logger}
}

// ContentHash derives the registry key for a content locator.
func ContentHash(locator string) common.Hash {
	return crypto.Keccak256Hash([]byte(locator))
}

// Exists reports whether a record for the hash is already registered.
func (c *Client) Exists(ctx context.Context, hash common.Hash) (bool, error) {
	parsed := loadRegistryABI()

	input, err := parsed.Pack("exists", hash)
	if err != nil {
		return false, fmt.Errorf("pack exists: %w", err)
	}

	output, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: input}, nil)
	if err != nil {
		return false, fmt.Errorf("call exists: %w", err)
	}

	values, err := parsed.Unpack("exists", output)
	if err != nil {
		return false, fmt.Errorf("unpack exists: %w", err)
	}
	if len(values) != 1 {
		return false, fmt.Errorf("expected 1 output, got %d", len(values))
	}
	present, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("exists output is not bool")
	}
	return present, nil
}

// Count returns the total number of registered records.
func (c *Client) Count(ctx context.Context) (uint64, error) {
	parsed := loadRegistryABI()

	input, err := parsed.Pack("getTotalCount")
	if err != nil {
		return 0, fmt.Errorf("pack getTotalCount: %w", err)
	}

	output, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: input}, nil)
	if err != nil {
		return 0, fmt.Errorf("call getTotalCount: %w", err)
	}

	values, err := parsed.Unpack("getTotalCount", output)
	if err != nil {
		return 0, fmt.Errorf("unpack getTotalCount: %w", err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("expected 1 output, got %d", len(values))
	}
	count, ok := values[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("count output is not uint256")
	}
	return count.Uint64(), nil
}

// Tuple layouts must mirror the ABI component order.
type identityTuple struct {
	TweetHash [32]byte
	TweetURL  string
	TweetId   string
	User      string
	Handle    string
	Verified  bool
}

type metricsTuple struct {
	Timestamp          *big.Int
	Likes              *big.Int
	Retweets           *big.Int
	Replies            *big.Int
	ControversyScore   *big.Int
	DeletionLikelihood *big.Int
}

type storageTuple struct {
	IpfsScreenshotCID string
	IpfsDataCID       string
	FilecoinRootCID   string
	FilecoinDealId    string
	Ecosystem         string
}

// Store registers a processed record on-chain and returns the transaction
// hash. Scores are stored as integer percentages, matching the contract.
func (c *Client) Store(ctx context.Context, record model.ContentRecord) (string, error) {
	if c.sender == nil {
		return "", fmt.Errorf("registry writer not configured")
	}

	parsed := loadRegistryABI()
	hash := ContentHash(record.Tweet.URL)

	identity := identityTuple{
		TweetHash: hash,
		TweetURL:  record.Tweet.URL,
		TweetId:   record.Tweet.TweetID,
		User:      record.Tweet.User,
		Handle:    record.Tweet.Handle,
		Verified:  record.Tweet.Verified,
	}

	metrics := metricsTuple{
		Timestamp:          big.NewInt(int64(record.Event.Timestamp)),
		Likes:              new(big.Int).SetUint64(record.Tweet.Likes),
		Retweets:           new(big.Int).SetUint64(record.Tweet.Retweets),
		Replies:            new(big.Int).SetUint64(record.Tweet.Replies),
		ControversyScore:   big.NewInt(int64(record.Analysis.CombinedScore * 100)),
		DeletionLikelihood: big.NewInt(int64(record.Analysis.RemovalRisk * 100)),
	}

	ecosystem := record.Analysis.Token
	if ecosystem == "" {
		ecosystem = "UNKNOWN"
	}
	storageData := storageTuple{
		Ecosystem: ecosystem,
	}
	if record.Storage != nil {
		storageData.IpfsDataCID = record.Storage.ContentID
		storageData.FilecoinRootCID = record.Storage.RootID
		storageData.FilecoinDealId = record.Storage.DealID
	}

	submitter := common.HexToAddress(record.Event.Depositor)
	if record.Event.Depositor == "" {
		submitter = c.sender.From()
	}

	input, err := parsed.Pack("storeTweet", identity, record.Tweet.Content, metrics, storageData, submitter)
	if err != nil {
		return "", fmt.Errorf("pack storeTweet: %w", err)
	}

	txHash, err := c.sender.Send(ctx, c.contract, input, nil)
	if err != nil {
		return "", fmt.Errorf("send storeTweet: %w", err)
	}

	c.logger.Info("record registered on-chain",
		zap.String("tx", txHash.Hex()), zap.String("content_hash", hash.Hex()))
	return txHash.Hex(), nil
}
