// Package submit re-injects high-score content into the deposit contract,
// creating a fresh submission event for the poll loop to pick up.
package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Reduced deposit-contract ABI: only the submission entrypoint this service
// exercises. The full artifact carries licensing tuples that the backend
// submitter leaves at their defaults.
const depositABIJSON = `[
  {
    "inputs": [
      {"name": "recipient", "type": "address"},
      {"name": "validation", "type": "string"},
      {"name": "proof", "type": "bytes"},
      {"name": "tweetHash", "type": "bytes32"}
    ],
    "name": "depositIP",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  }
]`

var (
	abiOnce    sync.Once
	depositABI abi.ABI
)

func loadABI() abi.ABI {
	abiOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(depositABIJSON))
		if err != nil {
			panic("invalid deposit ABI: " + err.Error())
		}
		depositABI = parsed
	})
	return depositABI
}

// Sender signs and broadcasts calldata to a contract.
type Sender interface {
	From() common.Address
	Send(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error)
}

// Submitter resubmits content to the deposit contract with a fixed fee.
type Submitter struct {
	sender   Sender
	contract common.Address
	fee      *big.Int
	logger   *zap.Logger
}

func NewSubmitter(sender Sender, contract common.Address, feeWei *big.Int, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if feeWei == nil {
		// 0.001 native token.
		feeWei = big.NewInt(1_000_000_000_000_000)
	}
	return &Submitter{sender: sender, contract: contract, fee: feeWei, logger: logger}
}

type proofPayload struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Submit deposits the locator as a new submission carrying the computed
// score in the proof blob, and returns the transaction hash.
func (s *Submitter) Submit(ctx context.Context, locator string, score float64) (string, error) {
	parsed := loadABI()

	proof, err := json.Marshal(proofPayload{Source: "auto-resubmit", Score: score})
	if err != nil {
		return "", fmt.Errorf("marshal proof: %w", err)
	}

	input, err := parsed.Pack("depositIP",
		s.sender.From(),
		locator,
		proof,
		crypto.Keccak256Hash([]byte(locator)),
	)
	if err != nil {
		return "", fmt.Errorf("pack depositIP: %w", err)
	}

	txHash, err := s.sender.Send(ctx, s.contract, input, s.fee)
	if err != nil {
		return "", fmt.Errorf("send depositIP: %w", err)
	}

	s.logger.Info("content resubmitted",
		zap.String("tx", txHash.Hex()), zap.String("locator", locator), zap.Float64("score", score))
	return txHash.Hex(), nil
}
