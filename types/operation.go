package types

import "github.com/gagliardetto/solana-go"

// OperationKind tags the supported bundle operations. Each kind carries
// its own parameter record; which fields are required is decided by the
// type, never inferred from which optional fields happen to be set.
type OperationKind string

const (
	OpCreatePool OperationKind = "create-pool"
	OpBuy        OperationKind = "buy"
	OpSell       OperationKind = "sell"
	OpDistribute OperationKind = "distribute"
)

type Operation interface {
	Kind() OperationKind
}

// WalletEntry pairs a participating wallet with a lamport or token amount.
// Held in memory for the duration of one operation only.
type WalletEntry struct {
	Wallet solana.PublicKey
	Amount uint64
}

// CreatePoolOp creates a liquidity pool from the deployer wallet and
// performs the first buy from the buyer wallet in the same bundle.
type CreatePoolOp struct {
	Deployer solana.PublicKey
	Buyer    solana.PublicKey
	Mint     solana.PublicKey
	MarketId solana.PublicKey
	// BaseAmount/QuoteAmount are liquidity amounts already converted to
	// the mint's native decimal base.
	BaseAmount  uint64
	QuoteAmount uint64
	// Lamports the buyer spends on the first swap.
	FirstBuyLamports uint64
}

func (CreatePoolOp) Kind() OperationKind { return OpCreatePool }

// BuyOp swaps SOL into a token across one or more wallets.
type BuyOp struct {
	Mint    solana.PublicKey
	Wallets []WalletEntry
}

func (BuyOp) Kind() OperationKind { return OpBuy }

// SellOp sells a percentage of each wallet's token balance.
type SellOp struct {
	Mint    solana.PublicKey
	Wallets []solana.PublicKey
	// Percent of each wallet's freshly fetched balance to sell, 1-100.
	Percent uint64
}

func (SellOp) Kind() OperationKind { return OpSell }

// DistributeOp transfers lamports from the payer to each receiver.
type DistributeOp struct {
	Payer     solana.PublicKey
	Receivers []WalletEntry
}

func (DistributeOp) Kind() OperationKind { return OpDistribute }
