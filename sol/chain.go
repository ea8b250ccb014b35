package sol

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"

	"bundler/utils"
)

var SolanaRpcURL string

func GetSolanaRpcURL() string {
	if SolanaRpcURL != "" {
		return SolanaRpcURL
	}
	return viper.GetString("sol.rpc")
}

// ChainReader is the read-only chain surface the builder needs: one
// blockhash snapshot per build plus balance and mint lookups.
type ChainReader interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	LamportBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	// TokenBalance returns the owner's associated-token-account balance in
	// native units plus the mint decimals. A missing account reads as zero.
	TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, uint8, error)
	MintInfo(ctx context.Context, mint solana.PublicKey) (*token.Mint, error)
}

type Client struct {
	rpc *rpc.Client
}

func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = GetSolanaRpcURL()
	}
	return &Client{rpc: rpc.New(endpoint)}
}

func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash failed: %w", err)
	}
	return out.Value.Blockhash, nil
}

func (c *Client) LamportBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	out, err := c.rpc.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("getBalance %s failed: %w", owner, err)
	}
	return out.Value, nil
}

func (c *Client) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, uint8, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, 0, fmt.Errorf("derive ATA for %s failed: %w", owner, err)
	}

	out, err := c.rpc.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	if err != nil {
		// No ATA means the wallet simply holds none of this token.
		if errors.Is(err, rpc.ErrNotFound) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("getTokenAccountBalance %s failed: %w", ata, err)
	}

	amount, err := strconv.ParseUint(out.Value.Amount, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected token amount %q: %w", out.Value.Amount, err)
	}
	return amount, out.Value.Decimals, nil
}

func (c *Client) MintInfo(ctx context.Context, mint solana.PublicKey) (*token.Mint, error) {
	out, err := c.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("mint %s: %w", mint, utils.ErrMissingOnChainAccount)
		}
		return nil, fmt.Errorf("getAccountInfo %s failed: %w", mint, err)
	}
	if out.Value == nil {
		return nil, fmt.Errorf("mint %s: %w", mint, utils.ErrMissingOnChainAccount)
	}

	var m token.Mint
	if err := bin.NewBinDecoder(out.Value.Data.GetBinary()).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode mint %s failed: %w", mint, err)
	}
	return &m, nil
}
