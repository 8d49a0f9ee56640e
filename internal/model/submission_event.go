package model

import "strconv"

// SubmissionEvent is one DepositProcessed log, normalized for processing.
// Produced by the poller and never mutated afterwards.
type SubmissionEvent struct {
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	ContentHash string `json:"content_hash"`
	Depositor   string `json:"depositor"`
	Recipient   string `json:"recipient"`
	AmountWei   string `json:"amount_wei"`
	Validation  string `json:"validation"`
	Proof       string `json:"proof"`
	Timestamp   uint64 `json:"timestamp"`
}

// Key identifies the event uniquely within a run.
func (e SubmissionEvent) Key() string {
	return e.TxHash + ":" + strconv.FormatUint(e.LogIndex, 10)
}
