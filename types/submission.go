package types

import "time"

// BundleSubmission is the persisted record of one relay submission and
// its terminal outcome, written to ClickHouse after the watcher resolves.
type BundleSubmission struct {
	BundleId    string    `json:"bundleId" ch:"bundleId"`
	BlockEngine string    `json:"blockEngine" ch:"blockEngine"`
	Status      string    `json:"status" ch:"status"`
	Slot        uint64    `json:"slot" ch:"slot"`
	TxCount     uint64    `json:"txCount" ch:"txCount"`
	TipLamports uint64    `json:"tipLamports" ch:"tipLamports"`
	Timestamp   time.Time `json:"timestamp" ch:"timestamp"`
}

type BundleSubmissions []*BundleSubmission
