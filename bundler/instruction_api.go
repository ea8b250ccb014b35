package bundler

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	"bundler/logger"
	"bundler/types"
	"bundler/utils"
)

// HTTPInstructionSource fetches ready-made instructions from the DEX
// instruction API. The API owns pool math and swap quoting; this client
// only decodes what it returns into solana instructions.
type HTTPInstructionSource struct {
	baseURL string
}

func NewHTTPInstructionSource(baseURL string) *HTTPInstructionSource {
	return &HTTPInstructionSource{baseURL: baseURL}
}

// NewHTTPInstructionSourceFromConfig reads the API base URL from the
// dex.api config key.
func NewHTTPInstructionSourceFromConfig() (*HTTPInstructionSource, error) {
	baseURL := viper.GetString("dex.api")
	if baseURL == "" {
		return nil, fmt.Errorf("dex.api not configured: %w", utils.ErrInvalidInput)
	}
	return NewHTTPInstructionSource(baseURL), nil
}

// Wire shapes of the instruction API.
type apiAccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

type apiInstruction struct {
	ProgramId string           `json:"programId"`
	Keys      []apiAccountMeta `json:"keys"`
	Data      string           `json:"data"` // base64
}

type apiResponse struct {
	Success      bool             `json:"success"`
	Error        string           `json:"error,omitempty"`
	Instructions []apiInstruction `json:"instructions"`
}

func (s *HTTPInstructionSource) fetch(path string, body any) ([]solana.Instruction, error) {
	var resp apiResponse
	if err := utils.PostUrlResponse(s.baseURL+path, body, &resp, logger.SolLogger); err != nil {
		return nil, fmt.Errorf("instruction API %s: %w", path, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("instruction API %s rejected request: %s", path, resp.Error)
	}
	if len(resp.Instructions) == 0 {
		return nil, fmt.Errorf("instruction API %s returned no instructions", path)
	}

	ixs := make([]solana.Instruction, 0, len(resp.Instructions))
	for _, raw := range resp.Instructions {
		ix, err := decodeInstruction(raw)
		if err != nil {
			return nil, fmt.Errorf("instruction API %s: %w", path, err)
		}
		ixs = append(ixs, ix)
	}
	return ixs, nil
}

func decodeInstruction(raw apiInstruction) (solana.Instruction, error) {
	programId, err := solana.PublicKeyFromBase58(raw.ProgramId)
	if err != nil {
		return nil, fmt.Errorf("malformed program id %q: %w", raw.ProgramId, err)
	}

	metas := make(solana.AccountMetaSlice, 0, len(raw.Keys))
	for _, key := range raw.Keys {
		pk, err := solana.PublicKeyFromBase58(key.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("malformed account key %q: %w", key.Pubkey, err)
		}
		metas = append(metas, &solana.AccountMeta{
			PublicKey:  pk,
			IsSigner:   key.IsSigner,
			IsWritable: key.IsWritable,
		})
	}

	data, err := base64.StdEncoding.DecodeString(raw.Data)
	if err != nil {
		return nil, fmt.Errorf("malformed instruction data: %w", err)
	}

	return solana.NewInstruction(programId, metas, data), nil
}

func (s *HTTPInstructionSource) CreatePoolInstructions(ctx context.Context, op types.CreatePoolOp) ([]solana.Instruction, error) {
	return s.fetch("/api/create-pool", map[string]any{
		"deployer":    op.Deployer.String(),
		"mint":        op.Mint.String(),
		"marketId":    op.MarketId.String(),
		"baseAmount":  op.BaseAmount,
		"quoteAmount": op.QuoteAmount,
	})
}

func (s *HTTPInstructionSource) BuyInstructions(ctx context.Context, mint, wallet solana.PublicKey, lamports uint64) ([]solana.Instruction, error) {
	return s.fetch("/api/buy-token", map[string]any{
		"wallet":   wallet.String(),
		"mint":     mint.String(),
		"lamports": lamports,
	})
}

func (s *HTTPInstructionSource) SellInstructions(ctx context.Context, mint, wallet solana.PublicKey, amount uint64) ([]solana.Instruction, error) {
	return s.fetch("/api/sell-token", map[string]any{
		"wallet": wallet.String(),
		"mint":   mint.String(),
		"amount": amount,
	})
}
