package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestContentRecordRoundTrip(t *testing.T) {
	record := ContentRecord{
		ContentHash: "0x1111",
		Event: SubmissionEvent{
			BlockNumber: 12345,
			TxHash:      "0xabc",
			LogIndex:    2,
			ContentHash: "0x1111",
			Depositor:   "0x2222222222222222222222222222222222222222",
			Recipient:   "0x3333333333333333333333333333333333333333",
			AmountWei:   "1000000000000000",
			Validation:  "https://x.com/user/status/123",
			Proof:       "0xdead",
			Timestamp:   1700000000,
		},
		Tweet: TweetData{
			URL:      "https://x.com/user/status/123",
			TweetID:  "123",
			Content:  "hello",
			Handle:   "user",
			Verified: true,
			Likes:    10,
		},
		Analysis: Analysis{
			RemovalRisk:   0.9,
			Controversy:   0.4,
			HasSentiment:  true,
			CombinedScore: 0.7,
			Token:         "BTC",
			TokenChain:    "Bitcoin",
			Confidence:    0.9,
		},
		Price:       &PriceQuote{Symbol: "BTC", Price: 50000, Source: "coingecko", Success: true},
		Storage:     &StorageResult{ContentID: "QmData", RootID: "QmRoot", DealID: "deal-1"},
		RegistryTx:  "0xregister",
		ProcessedAt: "2026-01-02T03:04:05Z",
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded ContentRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(decoded, record) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, record)
	}
}

func TestSubmissionEventKey(t *testing.T) {
	a := SubmissionEvent{TxHash: "0xabc", LogIndex: 1}
	b := SubmissionEvent{TxHash: "0xabc", LogIndex: 2}

	if a.Key() == b.Key() {
		t.Fatalf("distinct log positions must key differently")
	}
	if a.Key() != "0xabc:1" {
		t.Fatalf("key = %q", a.Key())
	}
}
