package types

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// TxGroup is one signer's slice of a bundle: an ordered transaction that
// only the named role's keypair may sign.
type TxGroup struct {
	Role   string
	Signer solana.PublicKey
	Tx     *solana.Transaction
}

// TxSet is the output of one build attempt. All groups share a single
// recent blockhash so the whole set expires together.
type TxSet struct {
	Blockhash solana.Hash
	Groups    []*TxGroup
}

// Bundle is an ordered sequence of fully-signed transactions destined for
// one atomic relay submission. The tip transaction is always last.
type Bundle struct {
	Transactions []*solana.Transaction
	Blockhash    solana.Hash
	TipAccount   solana.PublicKey
	TipLamports  uint64
}

func (b *Bundle) Len() int {
	return len(b.Transactions)
}

// Encode serializes every transaction to wire bytes and base58-encodes
// them in bundle order.
func (b *Bundle) Encode() ([]string, error) {
	encoded := make([]string, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		raw, err := tx.MarshalBinary()
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, base58.Encode(raw))
	}
	return encoded, nil
}

// Outcome status values. A rejection is never a status of its own: only
// acceptance or the watcher's timeout terminates observation.
const (
	OutcomeAccepted = "accepted"
	OutcomeTimedOut = "timed_out"
)

// BundleOutcome is the terminal result of watching one submitted bundle.
// Immutable once produced.
type BundleOutcome struct {
	BundleId string `json:"bundleId"`
	Status   string `json:"status"`
	// Slot the bundle landed in; zero unless Status is accepted.
	Slot uint64 `json:"slot"`
	// Accepted is 1 when the bundle was observed accepted, otherwise the
	// sentinel 0 ("unknown, not observed accepted within the bound").
	Accepted int `json:"accepted"`
	// Rejections collects relay rejection reasons seen while waiting.
	// They are diagnostic only and do not terminate the wait.
	Rejections []string  `json:"rejections,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
