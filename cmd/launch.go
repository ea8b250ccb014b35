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
	"bundler/types"
)

var (
	launchDeployerKey string
	launchBuyerKey    string
	launchMint        string
	launchMarketId    string
	launchBaseAmount  uint64
	launchQuoteAmount uint64
	launchFirstBuy    uint64
	launchBlockEngine string
	launchRpcEndpoint string
	launchTipLamports uint64
)

var launchCmd = cobra.Command{
	Use:   "launch",
	Short: "Create a liquidity pool and first buy as one atomic bundle",
	Run: func(cmd *cobra.Command, args []string) {
		logger.InitLogs("launch")
		logger.SolLogger.Info("Running cmd launch...", "mint", launchMint)

		deployer, err := solana.PrivateKeyFromBase58(launchDeployerKey)
		if err != nil {
			logger.SolLogger.Error("Malformed deployer keypair", "err", err)
			return
		}
		buyer := deployer
		if launchBuyerKey != "" {
			if buyer, err = solana.PrivateKeyFromBase58(launchBuyerKey); err != nil {
				logger.SolLogger.Error("Malformed buyer keypair", "err", err)
				return
			}
		}
		mint, err := solana.PublicKeyFromBase58(launchMint)
		if err != nil {
			logger.SolLogger.Error("Malformed mint", "err", err)
			return
		}
		marketId, err := solana.PublicKeyFromBase58(launchMarketId)
		if err != nil {
			logger.SolLogger.Error("Malformed market id", "err", err)
			return
		}

		relay, err := jito.NewClient(launchBlockEngine)
		if err != nil {
			logger.JitoLogger.Error("Invalid block engine endpoint", "err", err)
			return
		}
		dex, err := bundler.NewHTTPInstructionSourceFromConfig()
		if err != nil {
			logger.SolLogger.Error("DEX instruction API not configured", "err", err)
			return
		}

		runner := bundler.NewRunner(sol.NewClient(launchRpcEndpoint), dex, relay)
		outcome, err := runner.LaunchPool(context.Background(), deployer, buyer, types.CreatePoolOp{
			Mint:             mint,
			MarketId:         marketId,
			BaseAmount:       launchBaseAmount,
			QuoteAmount:      launchQuoteAmount,
			FirstBuyLamports: launchFirstBuy,
		}, launchTipLamports)
		if err != nil {
			logger.SolLogger.Error("Launch failed", "err", err)
			return
		}
		logger.SolLogger.Info("Launch bundle resolved",
			"bundleId", outcome.BundleId, "status", outcome.Status, "slot", outcome.Slot)
	},
}

func init() {
	launchCmd.Flags().StringVar(&launchDeployerKey, "deployer", "", "base58 deployer keypair")
	launchCmd.Flags().StringVar(&launchBuyerKey, "buyer", "", "base58 first-buy keypair (defaults to deployer)")
	launchCmd.Flags().StringVar(&launchMint, "mint", "", "token mint of the pool")
	launchCmd.Flags().StringVar(&launchMarketId, "market", "", "market id of the pool")
	launchCmd.Flags().Uint64Var(&launchBaseAmount, "base-amount", 0, "base liquidity in native units")
	launchCmd.Flags().Uint64Var(&launchQuoteAmount, "quote-amount", 0, "quote liquidity in native units")
	launchCmd.Flags().Uint64Var(&launchFirstBuy, "first-buy", 0, "lamports the buyer spends on the first swap")
	launchCmd.Flags().StringVar(&launchBlockEngine, "block-engine", jito.BlockEngineLocations["ny"], "block engine endpoint or host")
	launchCmd.Flags().StringVar(&launchRpcEndpoint, "rpc", "", "Solana RPC endpoint (defaults to sol.rpc from config)")
	launchCmd.Flags().Uint64Var(&launchTipLamports, "tip", config.DEFAULT_TIP_LAMPORTS, "tip lamports for the bundle")
	_ = launchCmd.MarkFlagRequired("deployer")
	_ = launchCmd.MarkFlagRequired("mint")
	_ = launchCmd.MarkFlagRequired("market")
	RootCmd.AddCommand(&launchCmd)
}
