package bundler

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"bundler/config"
	"bundler/jito"
	"bundler/logger"
	"bundler/sol"
	"bundler/types"
)

// Relay is the block-engine surface the runner drives; *jito.Client
// satisfies it.
type Relay interface {
	TipSource
	SendBundle(encodedTxs []string, tipLamports uint64) (string, error)
	BundleStatuses(bundleIds []string) ([]jito.BundleStatus, error)
}

// Runner executes whole operations end to end: build, sign, assemble,
// submit, await. Multi-bundle operations are strictly serial; one
// bundle's outcome is resolved before the next submission starts.
type Runner struct {
	builder   *Builder
	assembler *Assembler
	relay     Relay
	timeout   time.Duration

	// Observer, when set, sees every resolved outcome together with the
	// submitted transaction count.
	Observer func(outcome *types.BundleOutcome, txCount int)
}

func NewRunner(chain sol.ChainReader, dex InstructionSource, relay Relay) *Runner {
	return &Runner{
		builder:   NewBuilder(chain, dex),
		assembler: NewAssembler(relay),
		relay:     relay,
		timeout:   config.BUNDLE_OUTCOME_TIMEOUT,
	}
}

// submit assembles the payload into a bundle, sends it, and blocks until
// the outcome resolves.
func (r *Runner) submit(ctx context.Context, txs []*solana.Transaction, blockhash solana.Hash, tipPayer solana.PrivateKey, tipLamports uint64) (*types.BundleOutcome, error) {
	bundle, err := r.assembler.Assemble(txs, blockhash, tipPayer, tipLamports)
	if err != nil {
		return nil, err
	}

	encoded, err := bundle.Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding bundle: %w", err)
	}

	bundleId, err := r.relay.SendBundle(encoded, bundle.TipLamports)
	if err != nil {
		return nil, err
	}

	outcome := jito.WatchOutcome(ctx, r.relay, bundleId, r.timeout)
	if r.Observer != nil {
		r.Observer(outcome, bundle.Len())
	}
	return outcome, nil
}

// SetOutcomeTimeout overrides the default acceptance wait bound.
func (r *Runner) SetOutcomeTimeout(d time.Duration) {
	r.timeout = d
}

// SellAcrossWallets sells percent of each wallet's holding of mint.
// Wallets with no balance contribute nothing; each remaining wallet's
// transaction becomes its own bundle, tipped by the wallet itself, and
// the bundles are submitted one at a time.
func (r *Runner) SellAcrossWallets(ctx context.Context, wallets []solana.PrivateKey, mint solana.PublicKey, percent uint64, tipLamports uint64) ([]*types.BundleOutcome, error) {
	op := types.SellOp{Mint: mint, Percent: percent}
	keys := make(map[solana.PublicKey]solana.PrivateKey, len(wallets))
	for _, w := range wallets {
		op.Wallets = append(op.Wallets, w.PublicKey())
		keys[w.PublicKey()] = w
	}

	set, err := r.builder.Build(ctx, op)
	if err != nil {
		return nil, err
	}
	if len(set.Groups) == 0 {
		logger.SolLogger.Info("No wallet holds the token, nothing to sell", "mint", mint)
		return nil, nil
	}
	if err := SignTxSet(set, keys); err != nil {
		return nil, err
	}

	outcomes := make([]*types.BundleOutcome, 0, len(set.Groups))
	for _, group := range set.Groups {
		outcome, err := r.submit(ctx, []*solana.Transaction{group.Tx}, set.Blockhash, keys[group.Signer], tipLamports)
		if err != nil {
			return outcomes, fmt.Errorf("sell bundle for %s: %w", group.Signer, err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// DistributeSol fans lamports out from payer to the receivers, packing
// transfers into transactions and transactions into serially submitted
// bundles. The tip rides on the payer.
func (r *Runner) DistributeSol(ctx context.Context, payer solana.PrivateKey, receivers []types.WalletEntry, tipLamports uint64) ([]*types.BundleOutcome, error) {
	set, err := r.builder.Build(ctx, types.DistributeOp{Payer: payer.PublicKey(), Receivers: receivers})
	if err != nil {
		return nil, err
	}
	keys := map[solana.PublicKey]solana.PrivateKey{payer.PublicKey(): payer}
	if err := SignTxSet(set, keys); err != nil {
		return nil, err
	}

	var outcomes []*types.BundleOutcome
	for start := 0; start < len(set.Groups); start += config.PAYLOAD_TXS_PER_BUNDLE {
		end := min(start+config.PAYLOAD_TXS_PER_BUNDLE, len(set.Groups))

		txs := make([]*solana.Transaction, 0, end-start)
		for _, group := range set.Groups[start:end] {
			txs = append(txs, group.Tx)
		}

		outcome, err := r.submit(ctx, txs, set.Blockhash, payer, tipLamports)
		if err != nil {
			return outcomes, fmt.Errorf("distribution bundle: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// LaunchPool creates the pool and optional first buy as a single atomic
// bundle tipped by the deployer.
func (r *Runner) LaunchPool(ctx context.Context, deployer, buyer solana.PrivateKey, op types.CreatePoolOp, tipLamports uint64) (*types.BundleOutcome, error) {
	op.Deployer = deployer.PublicKey()
	op.Buyer = buyer.PublicKey()

	set, err := r.builder.Build(ctx, op)
	if err != nil {
		return nil, err
	}
	keys := map[solana.PublicKey]solana.PrivateKey{
		deployer.PublicKey(): deployer,
		buyer.PublicKey():    buyer,
	}
	if err := SignTxSet(set, keys); err != nil {
		return nil, err
	}

	txs := make([]*solana.Transaction, 0, len(set.Groups))
	for _, group := range set.Groups {
		txs = append(txs, group.Tx)
	}
	return r.submit(ctx, txs, set.Blockhash, deployer, tipLamports)
}
