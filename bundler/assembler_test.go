package bundler

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/mr-tron/base58"

	"bundler/config"
	"bundler/jito"
	"bundler/utils"
)

// fakeRelay plays the block engine: tip accounts, submissions, statuses.
type fakeRelay struct {
	mu          sync.Mutex
	tipAccounts []solana.PublicKey
	tipErr      error
	tipCalls    int
	sent        [][]string
	events      []string
	nextId      int
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{
		tipAccounts: []solana.PublicKey{
			solana.MustPublicKeyFromBase58("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5"),
			solana.MustPublicKeyFromBase58("HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe"),
		},
	}
}

func (f *fakeRelay) TipAccounts() ([]solana.PublicKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tipCalls++
	if f.tipErr != nil {
		return nil, f.tipErr
	}
	return f.tipAccounts, nil
}

func (f *fakeRelay) SendBundle(encodedTxs []string, tipLamports uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextId++
	id := fmt.Sprintf("bundle-%d", f.nextId)
	f.sent = append(f.sent, encodedTxs)
	f.events = append(f.events, "send:"+id)
	return id, nil
}

func (f *fakeRelay) BundleStatuses(bundleIds []string) ([]jito.BundleStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	statuses := make([]jito.BundleStatus, 0, len(bundleIds))
	for _, id := range bundleIds {
		f.events = append(f.events, "poll:"+id)
		statuses = append(statuses, jito.BundleStatus{BundleId: id, Status: jito.StatusLanded, LandedSlot: 360000042})
	}
	return statuses, nil
}

// signedTransfer builds a minimal signed payload transaction.
func signedTransfer(t *testing.T, from *solana.Wallet, blockhash solana.Hash) *solana.Transaction {
	t.Helper()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, from.PublicKey(), solana.NewWallet().PublicKey()).Build(),
		},
		blockhash,
		solana.TransactionPayer(from.PublicKey()),
	)
	if err != nil {
		t.Fatalf("building payload transaction: %v", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from.PublicKey()) {
			return &from.PrivateKey
		}
		return nil
	}); err != nil {
		t.Fatalf("signing payload transaction: %v", err)
	}
	return tx
}

func TestAssembleAppendsTipLast(t *testing.T) {
	relay := newFakeRelay()
	blockhash := solana.Hash{7}
	payer := solana.NewWallet()
	tipPayer := solana.NewWallet()

	txs := []*solana.Transaction{
		signedTransfer(t, payer, blockhash),
		signedTransfer(t, payer, blockhash),
	}

	bundle, err := NewAssembler(relay).Assemble(txs, blockhash, tipPayer.PrivateKey, 50_000)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if bundle.Len() != 3 {
		t.Fatalf("expected 2 payload transactions plus 1 tip, got %d", bundle.Len())
	}
	if bundle.Transactions[0] != txs[0] || bundle.Transactions[1] != txs[1] {
		t.Error("payload order was not preserved")
	}
	if bundle.TipAccount != relay.tipAccounts[0] {
		t.Errorf("tip went to %s, want the first discovered account %s", bundle.TipAccount, relay.tipAccounts[0])
	}

	tipTx := bundle.Transactions[bundle.Len()-1]
	if tipTx.Message.RecentBlockhash != blockhash {
		t.Error("tip transaction must reuse the payload blockhash")
	}
	if !tipTx.Message.AccountKeys[0].Equals(tipPayer.PublicKey()) {
		t.Errorf("tip fee payer is %s, want %s", tipTx.Message.AccountKeys[0], tipPayer.PublicKey())
	}
	if len(tipTx.Message.Instructions) != 1 {
		t.Errorf("tip transaction carries %d instructions, want 1", len(tipTx.Message.Instructions))
	}
}

func TestAssembleRejectsOversizedPayload(t *testing.T) {
	relay := newFakeRelay()
	blockhash := solana.Hash{7}
	payer := solana.NewWallet()

	txs := make([]*solana.Transaction, config.MAX_BUNDLE_TRANSACTIONS)
	for i := range txs {
		txs[i] = signedTransfer(t, payer, blockhash)
	}

	_, err := NewAssembler(relay).Assemble(txs, blockhash, solana.NewWallet().PrivateKey, 1_000)
	if !errors.Is(err, utils.ErrBundleTooLarge) {
		t.Fatalf("expected ErrBundleTooLarge, got %v", err)
	}
	if relay.tipCalls != 0 {
		t.Error("an oversized payload must be rejected before tip discovery")
	}
}

func TestAssembleTipDiscoveryFailure(t *testing.T) {
	relay := newFakeRelay()
	relay.tipErr = fmt.Errorf("%w: relay offline", utils.ErrRelayUnavailable)

	blockhash := solana.Hash{7}
	txs := []*solana.Transaction{signedTransfer(t, solana.NewWallet(), blockhash)}

	_, err := NewAssembler(relay).Assemble(txs, blockhash, solana.NewWallet().PrivateKey, 1_000)
	if !errors.Is(err, utils.ErrRelayUnavailable) {
		t.Fatalf("expected ErrRelayUnavailable to propagate, got %v", err)
	}
}

func TestAssembleDefaultsTipAmount(t *testing.T) {
	relay := newFakeRelay()
	blockhash := solana.Hash{7}
	txs := []*solana.Transaction{signedTransfer(t, solana.NewWallet(), blockhash)}

	bundle, err := NewAssembler(relay).Assemble(txs, blockhash, solana.NewWallet().PrivateKey, 0)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if bundle.TipLamports != config.DEFAULT_TIP_LAMPORTS {
		t.Errorf("expected default tip %d, got %d", config.DEFAULT_TIP_LAMPORTS, bundle.TipLamports)
	}
}

func TestBundleEncodeRoundTrip(t *testing.T) {
	relay := newFakeRelay()
	blockhash := solana.Hash{7}
	payer := solana.NewWallet()
	txs := []*solana.Transaction{signedTransfer(t, payer, blockhash)}

	bundle, err := NewAssembler(relay).Assemble(txs, blockhash, solana.NewWallet().PrivateKey, 10_000)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	encoded, err := bundle.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(encoded) != bundle.Len() {
		t.Fatalf("encoded %d transactions, want %d", len(encoded), bundle.Len())
	}

	for i, enc := range encoded {
		raw, err := base58.Decode(enc)
		if err != nil {
			t.Fatalf("transaction %d is not base58: %v", i, err)
		}
		decoded, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
		if err != nil {
			t.Fatalf("transaction %d did not survive the round trip: %v", i, err)
		}
		if decoded.Message.RecentBlockhash != blockhash {
			t.Errorf("transaction %d lost its blockhash", i)
		}
		if len(decoded.Signatures) != len(bundle.Transactions[i].Signatures) {
			t.Errorf("transaction %d lost signatures", i)
		}
	}
}
