package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"bundler/bundler"
	"bundler/config"
	"bundler/jito"
	"bundler/logger"
	"bundler/sol"
	"bundler/types"
)

var (
	distributePayerKey    string
	distributeReceivers   []string
	distributeBlockEngine string
	distributeRpcEndpoint string
	distributeTipLamports uint64
)

var distributeCmd = cobra.Command{
	Use:   "distribute-sol",
	Short: "Fan SOL out from one payer to many wallets via Jito bundles",
	Run: func(cmd *cobra.Command, args []string) {
		logger.InitLogs("distribute")
		logger.SolLogger.Info("Running cmd distribute-sol...", "receivers", len(distributeReceivers))

		payer, err := solana.PrivateKeyFromBase58(distributePayerKey)
		if err != nil {
			logger.SolLogger.Error("Malformed payer keypair", "err", err)
			return
		}

		receivers, err := parseReceivers(distributeReceivers)
		if err != nil {
			logger.SolLogger.Error("Malformed receiver list", "err", err)
			return
		}

		relay, err := jito.NewClient(distributeBlockEngine)
		if err != nil {
			logger.JitoLogger.Error("Invalid block engine endpoint", "err", err)
			return
		}

		runner := bundler.NewRunner(sol.NewClient(distributeRpcEndpoint), nil, relay)
		outcomes, err := runner.DistributeSol(context.Background(), payer, receivers, distributeTipLamports)
		if err != nil {
			logger.SolLogger.Error("Distribution failed", "err", err)
		}
		for _, outcome := range outcomes {
			logger.SolLogger.Info("Distribution bundle resolved",
				"bundleId", outcome.BundleId, "status", outcome.Status, "slot", outcome.Slot)
		}
	},
}

// parseReceivers turns wallet:lamports pairs into wallet entries.
func parseReceivers(raw []string) ([]types.WalletEntry, error) {
	receivers := make([]types.WalletEntry, 0, len(raw))
	for _, pair := range raw {
		wallet, amount, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("receiver %q is not wallet:lamports", pair)
		}
		pk, err := solana.PublicKeyFromBase58(wallet)
		if err != nil {
			return nil, fmt.Errorf("receiver %q has a malformed wallet: %w", pair, err)
		}
		lamports, err := strconv.ParseUint(amount, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("receiver %q has a malformed amount: %w", pair, err)
		}
		receivers = append(receivers, types.WalletEntry{Wallet: pk, Amount: lamports})
	}
	return receivers, nil
}

func init() {
	distributeCmd.Flags().StringVar(&distributePayerKey, "payer", "", "base58 payer keypair")
	distributeCmd.Flags().StringSliceVar(&distributeReceivers, "receiver", nil, "receiver as wallet:lamports, repeatable")
	distributeCmd.Flags().StringVar(&distributeBlockEngine, "block-engine", jito.BlockEngineLocations["ny"], "block engine endpoint or host")
	distributeCmd.Flags().StringVar(&distributeRpcEndpoint, "rpc", "", "Solana RPC endpoint (defaults to sol.rpc from config)")
	distributeCmd.Flags().Uint64Var(&distributeTipLamports, "tip", config.DEFAULT_TIP_LAMPORTS, "tip lamports per bundle")
	_ = distributeCmd.MarkFlagRequired("payer")
	_ = distributeCmd.MarkFlagRequired("receiver")
	RootCmd.AddCommand(&distributeCmd)
}
