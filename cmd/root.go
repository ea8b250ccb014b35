package cmd

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "solana-bundler",
	Short: "A tool for constructing and submitting Jito bundles on Solana",
}
