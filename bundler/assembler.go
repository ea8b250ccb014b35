package bundler

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"bundler/config"
	"bundler/logger"
	"bundler/types"
	"bundler/utils"
)

// TipSource yields the relay's tip accounts; *jito.Client satisfies it.
type TipSource interface {
	TipAccounts() ([]solana.PublicKey, error)
}

// Assembler turns signed payload transactions into a submittable bundle
// by appending exactly one tip transfer as the final transaction. The
// payload transactions are never reordered.
type Assembler struct {
	tips TipSource
}

func NewAssembler(tips TipSource) *Assembler {
	return &Assembler{tips: tips}
}

// Assemble validates the payload against the relay's size ceiling, picks
// the first discovered tip account, and appends a tip transfer signed by
// tipPayer using the payload's blockhash. The size check runs before tip
// discovery so an oversized payload never touches the relay.
func (a *Assembler) Assemble(txs []*solana.Transaction, blockhash solana.Hash, tipPayer solana.PrivateKey, tipLamports uint64) (*types.Bundle, error) {
	if len(txs) == 0 {
		return nil, fmt.Errorf("nothing to bundle: %w", utils.ErrInvalidInput)
	}
	if len(txs)+1 > config.MAX_BUNDLE_TRANSACTIONS {
		return nil, fmt.Errorf("%d payload transactions plus a tip exceed the %d-transaction ceiling: %w",
			len(txs), config.MAX_BUNDLE_TRANSACTIONS, utils.ErrBundleTooLarge)
	}
	if tipLamports == 0 {
		tipLamports = config.DEFAULT_TIP_LAMPORTS
	}

	accounts, err := a.tips.TipAccounts()
	if err != nil {
		return nil, fmt.Errorf("tip account discovery: %w", err)
	}
	tipAccount := accounts[0]

	tipTx, err := buildTipTransaction(tipPayer, tipAccount, tipLamports, blockhash)
	if err != nil {
		return nil, err
	}

	bundle := &types.Bundle{
		Transactions: append(append([]*solana.Transaction{}, txs...), tipTx),
		Blockhash:    blockhash,
		TipAccount:   tipAccount,
		TipLamports:  tipLamports,
	}
	logger.JitoLogger.Info("Bundle assembled", "txs", bundle.Len(), "tipAccount", tipAccount, "tipLamports", tipLamports)
	return bundle, nil
}

func buildTipTransaction(payer solana.PrivateKey, tipAccount solana.PublicKey, lamports uint64, blockhash solana.Hash) (*solana.Transaction, error) {
	ix := system.NewTransferInstruction(lamports, payer.PublicKey(), tipAccount).Build()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		blockhash,
		solana.TransactionPayer(payer.PublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("tip transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("signing tip transaction: %w", err)
	}
	return tx, nil
}
