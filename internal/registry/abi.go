package registry

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABI for the registry contract: the existence check, the nested
// storeTweet write, and the total counter used by the query surface.
const registryABIJSON = `[
  {
    "inputs": [{"name": "tweetHash", "type": "bytes32"}],
    "name": "exists",
    "outputs": [{"name": "", "type": "bool"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "getTotalCount",
    "outputs": [{"name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {
        "name": "identity",
        "type": "tuple",
        "components": [
          {"name": "tweetHash", "type": "bytes32"},
          {"name": "tweetURL", "type": "string"},
          {"name": "tweetId", "type": "string"},
          {"name": "user", "type": "string"},
          {"name": "handle", "type": "string"},
          {"name": "verified", "type": "bool"}
        ]
      },
      {"name": "content", "type": "string"},
      {
        "name": "metrics",
        "type": "tuple",
        "components": [
          {"name": "timestamp", "type": "uint256"},
          {"name": "likes", "type": "uint256"},
          {"name": "retweets", "type": "uint256"},
          {"name": "replies", "type": "uint256"},
          {"name": "controversyScore", "type": "uint256"},
          {"name": "deletionLikelihood", "type": "uint256"}
        ]
      },
      {
        "name": "storageData",
        "type": "tuple",
        "components": [
          {"name": "ipfsScreenshotCID", "type": "string"},
          {"name": "ipfsDataCID", "type": "string"},
          {"name": "filecoinRootCID", "type": "string"},
          {"name": "filecoinDealId", "type": "string"},
          {"name": "ecosystem", "type": "string"}
        ]
      },
      {"name": "submitter", "type": "address"}
    ],
    "name": "storeTweet",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

var (
	registryABIOnce sync.Once
	registryABI     abi.ABI
)

func loadRegistryABI() abi.ABI {
	registryABIOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(registryABIJSON))
		if err != nil {
			panic("invalid registry ABI: " + err.Error())
		}
		registryABI = parsed
	})
	return registryABI
}
