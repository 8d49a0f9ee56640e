package poller

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Minimal ABI for the deposit contract's DepositProcessed event. The full
// contract artifact carries many more members; only this event matters to
// the poller.
const depositABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "ipAmount", "type": "uint256"},
      {"indexed": true, "name": "tweetHash", "type": "bytes32"},
      {"indexed": true, "name": "depositor", "type": "address"},
      {"indexed": false, "name": "recipient", "type": "address"},
      {"indexed": false, "name": "validation", "type": "string"},
      {"indexed": false, "name": "proof", "type": "bytes"}
    ],
    "name": "DepositProcessed",
    "type": "event"
  }
]`

const depositEventName = "DepositProcessed"

var (
	depositABIOnce sync.Once
	depositABI     abi.ABI
	depositTopic   common.Hash
)

func loadDepositABI() {
	depositABIOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(depositABIJSON))
		if err != nil {
			panic("invalid deposit ABI: " + err.Error())
		}
		depositABI = parsed
		depositTopic = crypto.Keccak256Hash(
			[]byte("DepositProcessed(uint256,bytes32,address,address,string,bytes)"))
	})
}

// DepositEventTopic returns the topic0 hash of the DepositProcessed event.
func DepositEventTopic() common.Hash {
	loadDepositABI()
	return depositTopic
}
