package cmd

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"bundler/bundler"
	"bundler/config"
	"bundler/jito"
	"bundler/logger"
	"bundler/sol"
)

var (
	sellWalletKeys  []string
	sellMint        string
	sellPercent     uint64
	sellBlockEngine string
	sellRpcEndpoint string
	sellTipLamports uint64
)

var sellCmd = cobra.Command{
	Use:   "sell",
	Short: "Sell a percentage of every wallet's token holding via Jito bundles",
	Run: func(cmd *cobra.Command, args []string) {
		logger.InitLogs("sell")
		logger.SolLogger.Info("Running cmd sell...", "wallets", len(sellWalletKeys), "percent", sellPercent)

		mint, err := solana.PublicKeyFromBase58(sellMint)
		if err != nil {
			logger.SolLogger.Error("Malformed mint", "err", err)
			return
		}

		wallets := make([]solana.PrivateKey, 0, len(sellWalletKeys))
		for _, raw := range sellWalletKeys {
			key, err := solana.PrivateKeyFromBase58(raw)
			if err != nil {
				logger.SolLogger.Error("Malformed wallet keypair", "err", err)
				return
			}
			wallets = append(wallets, key)
		}

		relay, err := jito.NewClient(sellBlockEngine)
		if err != nil {
			logger.JitoLogger.Error("Invalid block engine endpoint", "err", err)
			return
		}
		dex, err := bundler.NewHTTPInstructionSourceFromConfig()
		if err != nil {
			logger.SolLogger.Error("DEX instruction API not configured", "err", err)
			return
		}

		runner := bundler.NewRunner(sol.NewClient(sellRpcEndpoint), dex, relay)
		outcomes, err := runner.SellAcrossWallets(context.Background(), wallets, mint, sellPercent, sellTipLamports)
		if err != nil {
			logger.SolLogger.Error("Sell failed", "err", err)
		}
		for _, outcome := range outcomes {
			logger.SolLogger.Info("Sell bundle resolved",
				"bundleId", outcome.BundleId, "status", outcome.Status, "slot", outcome.Slot)
		}
	},
}

func init() {
	sellCmd.Flags().StringSliceVar(&sellWalletKeys, "wallet", nil, "base58 wallet keypair, repeatable")
	sellCmd.Flags().StringVar(&sellMint, "mint", "", "token mint to sell")
	sellCmd.Flags().Uint64Var(&sellPercent, "percent", 100, "percentage of each wallet's balance to sell (1-100)")
	sellCmd.Flags().StringVar(&sellBlockEngine, "block-engine", jito.BlockEngineLocations["ny"], "block engine endpoint or host")
	sellCmd.Flags().StringVar(&sellRpcEndpoint, "rpc", "", "Solana RPC endpoint (defaults to sol.rpc from config)")
	sellCmd.Flags().Uint64Var(&sellTipLamports, "tip", config.DEFAULT_TIP_LAMPORTS, "tip lamports per bundle")
	_ = sellCmd.MarkFlagRequired("wallet")
	_ = sellCmd.MarkFlagRequired("mint")
	RootCmd.AddCommand(&sellCmd)
}
