package registry

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"tweetvault/internal/model"
)

type fakeCaller struct {
	output []byte
	input  []byte
}

func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.input = msg.Data
	return f.output, nil
}

type fakeSender struct {
	to    common.Address
	data  []byte
	value *big.Int
}

func (f *fakeSender) From() common.Address {
	return common.HexToAddress("0x4444444444444444444444444444444444444444")
}

func (f *fakeSender) Send(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	f.to = to
	f.data = data
	f.value = value
	return common.HexToHash("0x5555"), nil
}

func TestContentHashDeterministic(t *testing.T) {
	a := ContentHash("https://x.com/user/status/123")
	b := ContentHash("https://x.com/user/status/123")
	c := ContentHash("https://x.com/user/status/124")

	if a != b {
		t.Fatalf("hash not deterministic")
	}
	if a == c {
		t.Fatalf("distinct locators must hash differently")
	}
}

func TestExists(t *testing.T) {
	parsed := loadRegistryABI()
	output, err := parsed.Methods["exists"].Outputs.Pack(true)
	if err != nil {
		t.Fatalf("pack output: %v", err)
	}

	caller := &fakeCaller{output: output}
	client := NewClient(caller, nil, common.HexToAddress("0x1"), nil)

	present, err := client.Exists(context.Background(), ContentHash("https://x.com/a/status/1"))
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !present {
		t.Fatalf("expected present")
	}
	if len(caller.input) == 0 {
		t.Fatalf("no calldata sent")
	}
}

func TestStorePacksRecord(t *testing.T) {
	sender := &fakeSender{}
	contract := common.HexToAddress("0x9")
	client := NewClient(&fakeCaller{}, sender, contract, nil)

	record := model.ContentRecord{
		Event: model.SubmissionEvent{
			Depositor: "0x2222222222222222222222222222222222222222",
			Timestamp: 1700000000,
		},
		Tweet: model.TweetData{
			URL:     "https://x.com/user/status/123",
			TweetID: "123",
			Handle:  "user",
			Content: "hello",
			Likes:   10,
		},
		Analysis: model.Analysis{
			CombinedScore: 0.83,
			RemovalRisk:   0.9,
			Token:         "BTC",
		},
		Storage: &model.StorageResult{ContentID: "QmData", RootID: "QmRoot"},
	}

	txHash, err := client.Store(context.Background(), record)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if txHash == "" {
		t.Fatalf("empty tx hash")
	}
	if sender.to != contract {
		t.Fatalf("sent to wrong contract: %s", sender.to.Hex())
	}

	// Round-trip the calldata to confirm the tuple layout.
	parsed := loadRegistryABI()
	method := parsed.Methods["storeTweet"]
	values, err := method.Inputs.Unpack(sender.data[4:])
	if err != nil {
		t.Fatalf("unpack calldata: %v", err)
	}
	if len(values) != 5 {
		t.Fatalf("expected 5 arguments, got %d", len(values))
	}
	if content, ok := values[1].(string); !ok || content != "hello" {
		t.Fatalf("content mismatch: %v", values[1])
	}
	if submitter, ok := values[4].(common.Address); !ok ||
		submitter != common.HexToAddress("0x2222222222222222222222222222222222222222") {
		t.Fatalf("submitter mismatch: %v", values[4])
	}
}

func TestStoreRequiresSender(t *testing.T) {
	client := NewClient(&fakeCaller{}, nil, common.HexToAddress("0x1"), nil)

	if _, err := client.Store(context.Background(), model.ContentRecord{}); err == nil {
		t.Fatalf("read-only client must refuse writes")
	}
}
