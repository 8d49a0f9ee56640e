package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

const fallbackGasLimit = uint64(5_000_000)

// Transactor signs and sends contract transactions from one account.
type Transactor struct {
	client *Client
	key    *ecdsa.PrivateKey
	from   common.Address
	logger *zap.Logger
}

// NewTransactor builds a Transactor from a hex-encoded private key.
func NewTransactor(client *Client, privateKeyHex string, logger *zap.Logger) (*Transactor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Transactor{
		client: client,
		key:    key,
		from:   crypto.PubkeyToAddress(key.PublicKey),
		logger: logger,
	}, nil
}

// From returns the sending account address.
func (t *Transactor) From() common.Address {
	return t.from
}

// Send signs and broadcasts a contract call with the given calldata and value.
// Gas is estimated with a 30% headroom; estimation failure falls back to a
// fixed limit rather than aborting, since some RPC nodes reject estimation
// for actor-style contracts.
func (t *Transactor) Send(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	if value == nil {
		value = big.NewInt(0)
	}

	nonce, err := t.client.PendingNonceAt(ctx, t.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetch nonce: %w", err)
	}

	msg := ethereum.CallMsg{From: t.from, To: &to, Value: value, Data: data}
	gasLimit, err := t.client.EstimateGas(ctx, msg)
	if err != nil {
		gasLimit = fallbackGasLimit
		t.logger.Warn("gas estimation failed, using fallback",
			zap.Error(err), zap.Uint64("gas_limit", gasLimit))
	} else {
		gasLimit = gasLimit + gasLimit*3/10
	}

	gasPrice, err := t.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetch gas price: %w", err)
	}
	gasPrice = new(big.Int).Div(new(big.Int).Mul(gasPrice, big.NewInt(3)), big.NewInt(2))

	chainID, err := t.client.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetch chain id: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), t.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	if err := t.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}

	return signed.Hash(), nil
}
