package bundler

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"bundler/config"
	"bundler/logger"
	"bundler/sol"
	"bundler/types"
	"bundler/utils"
)

// Signer roles used for transaction groups.
const (
	RoleDeployer = "deployer"
	RoleBuyer    = "buyer"
	RoleSeller   = "seller"
	RolePayer    = "payer"
)

// InstructionSource supplies DEX swap/pool instructions. Pool math and
// swap quoting live behind this boundary; the builder only packages what
// it hands back.
type InstructionSource interface {
	CreatePoolInstructions(ctx context.Context, op types.CreatePoolOp) ([]solana.Instruction, error)
	BuyInstructions(ctx context.Context, mint, wallet solana.PublicKey, lamports uint64) ([]solana.Instruction, error)
	SellInstructions(ctx context.Context, mint, wallet solana.PublicKey, amount uint64) ([]solana.Instruction, error)
}

// Builder translates a domain operation into per-signer transaction
// groups. One blockhash is fetched per build and shared by every group so
// the whole set expires together. The builder never submits anything;
// its only side effects are read-only chain queries.
type Builder struct {
	chain sol.ChainReader
	dex   InstructionSource
}

func NewBuilder(chain sol.ChainReader, dex InstructionSource) *Builder {
	return &Builder{chain: chain, dex: dex}
}

func (b *Builder) Build(ctx context.Context, op types.Operation) (*types.TxSet, error) {
	blockhash, err := b.chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("blockhash snapshot failed: %w", err)
	}

	switch op := op.(type) {
	case types.CreatePoolOp:
		return b.buildCreatePool(ctx, op, blockhash)
	case types.BuyOp:
		return b.buildBuy(ctx, op, blockhash)
	case types.SellOp:
		return b.buildSell(ctx, op, blockhash)
	case types.DistributeOp:
		return b.buildDistribute(ctx, op, blockhash)
	default:
		return nil, fmt.Errorf("unsupported operation %q: %w", op.Kind(), utils.ErrInvalidInput)
	}
}

func (b *Builder) buildCreatePool(ctx context.Context, op types.CreatePoolOp, blockhash solana.Hash) (*types.TxSet, error) {
	// The mint must resolve to live account data before any instruction
	// is built; a partially valid set is worse than none.
	if _, err := b.chain.MintInfo(ctx, op.Mint); err != nil {
		return nil, err
	}

	poolIxs, err := b.dex.CreatePoolInstructions(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("pool instructions for %s: %w", op.Mint, err)
	}
	deployerTx, err := solana.NewTransaction(poolIxs, blockhash, solana.TransactionPayer(op.Deployer))
	if err != nil {
		return nil, fmt.Errorf("deployer transaction: %w", err)
	}

	set := &types.TxSet{
		Blockhash: blockhash,
		Groups: []*types.TxGroup{
			{Role: RoleDeployer, Signer: op.Deployer, Tx: deployerTx},
		},
	}

	if op.FirstBuyLamports > 0 {
		buyIxs, err := b.dex.BuyInstructions(ctx, op.Mint, op.Buyer, op.FirstBuyLamports)
		if err != nil {
			return nil, fmt.Errorf("first-buy instructions for %s: %w", op.Buyer, err)
		}
		buyerTx, err := solana.NewTransaction(buyIxs, blockhash, solana.TransactionPayer(op.Buyer))
		if err != nil {
			return nil, fmt.Errorf("buyer transaction: %w", err)
		}
		set.Groups = append(set.Groups, &types.TxGroup{Role: RoleBuyer, Signer: op.Buyer, Tx: buyerTx})
	}

	return set, nil
}

func (b *Builder) buildBuy(ctx context.Context, op types.BuyOp, blockhash solana.Hash) (*types.TxSet, error) {
	if len(op.Wallets) == 0 {
		return nil, fmt.Errorf("buy needs at least one wallet: %w", utils.ErrInvalidInput)
	}
	if _, err := b.chain.MintInfo(ctx, op.Mint); err != nil {
		return nil, err
	}

	set := &types.TxSet{Blockhash: blockhash}
	for _, entry := range op.Wallets {
		if entry.Amount == 0 {
			continue
		}

		balance, err := b.chain.LamportBalance(ctx, entry.Wallet)
		if err != nil {
			return nil, err
		}
		if balance < entry.Amount+config.FEE_BUFFER_LAMPORTS {
			logger.SolLogger.Warn("Skipping buyer with insufficient balance", "wallet", entry.Wallet, "balance", balance, "amount", entry.Amount)
			continue
		}

		ixs, err := b.dex.BuyInstructions(ctx, op.Mint, entry.Wallet, entry.Amount)
		if err != nil {
			return nil, fmt.Errorf("buy instructions for %s: %w", entry.Wallet, err)
		}
		tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(entry.Wallet))
		if err != nil {
			return nil, fmt.Errorf("buy transaction for %s: %w", entry.Wallet, err)
		}
		set.Groups = append(set.Groups, &types.TxGroup{Role: RoleBuyer, Signer: entry.Wallet, Tx: tx})
	}

	if len(set.Groups) == 0 {
		return nil, fmt.Errorf("no buyer wallet can cover its amount plus fees: %w", utils.ErrInsufficientBalance)
	}
	return set, nil
}

func (b *Builder) buildSell(ctx context.Context, op types.SellOp, blockhash solana.Hash) (*types.TxSet, error) {
	if len(op.Wallets) == 0 {
		return nil, fmt.Errorf("sell needs at least one wallet: %w", utils.ErrInvalidInput)
	}
	if op.Percent == 0 || op.Percent > 100 {
		return nil, fmt.Errorf("sell percent %d out of range 1-100: %w", op.Percent, utils.ErrInvalidInput)
	}
	if _, err := b.chain.MintInfo(ctx, op.Mint); err != nil {
		return nil, err
	}

	set := &types.TxSet{Blockhash: blockhash}
	for _, wallet := range op.Wallets {
		balance, _, err := b.chain.TokenBalance(ctx, wallet, op.Mint)
		if err != nil {
			return nil, err
		}
		// A wallet holding nothing contributes no group at all; a
		// zero-amount sell instruction must never be emitted.
		if balance == 0 {
			logger.SolLogger.Info("Skipping wallet with zero token balance", "wallet", wallet, "mint", op.Mint)
			continue
		}

		amount := sol.PercentOf(balance, op.Percent)
		if amount == 0 {
			continue
		}

		ixs, err := b.dex.SellInstructions(ctx, op.Mint, wallet, amount)
		if err != nil {
			return nil, fmt.Errorf("sell instructions for %s: %w", wallet, err)
		}
		tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(wallet))
		if err != nil {
			return nil, fmt.Errorf("sell transaction for %s: %w", wallet, err)
		}
		set.Groups = append(set.Groups, &types.TxGroup{Role: RoleSeller, Signer: wallet, Tx: tx})
	}

	return set, nil
}

func (b *Builder) buildDistribute(ctx context.Context, op types.DistributeOp, blockhash solana.Hash) (*types.TxSet, error) {
	if len(op.Receivers) == 0 {
		return nil, fmt.Errorf("distribute needs at least one receiver: %w", utils.ErrInvalidInput)
	}

	var total uint64
	for _, r := range op.Receivers {
		if r.Amount == 0 {
			return nil, fmt.Errorf("zero distribution amount for %s: %w", r.Wallet, utils.ErrInvalidInput)
		}
		total += r.Amount
	}

	balance, err := b.chain.LamportBalance(ctx, op.Payer)
	if err != nil {
		return nil, err
	}
	if balance < total+config.FEE_BUFFER_LAMPORTS {
		return nil, fmt.Errorf("payer %s holds %d lamports, needs %d: %w",
			op.Payer, balance, total+config.FEE_BUFFER_LAMPORTS, utils.ErrInsufficientBalance)
	}

	set := &types.TxSet{Blockhash: blockhash}
	for start := 0; start < len(op.Receivers); start += config.DISTRIBUTE_TRANSFERS_PER_TX {
		end := min(start+config.DISTRIBUTE_TRANSFERS_PER_TX, len(op.Receivers))

		ixs := make([]solana.Instruction, 0, end-start)
		for _, r := range op.Receivers[start:end] {
			ixs = append(ixs, system.NewTransferInstruction(r.Amount, op.Payer, r.Wallet).Build())
		}

		tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(op.Payer))
		if err != nil {
			return nil, fmt.Errorf("distribution transaction: %w", err)
		}
		set.Groups = append(set.Groups, &types.TxGroup{Role: RolePayer, Signer: op.Payer, Tx: tx})
	}

	return set, nil
}

// SignTxSet signs every group with its owning keypair. Groups are signed
// independently; a missing keypair for any required signer fails the
// whole set before anything can be submitted half-signed.
func SignTxSet(set *types.TxSet, keys map[solana.PublicKey]solana.PrivateKey) error {
	for _, group := range set.Groups {
		_, err := group.Tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
			if pk, ok := keys[key]; ok {
				return &pk
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("signing %s group for %s: %w", group.Role, group.Signer, err)
		}
	}
	return nil
}
