package cmd

import (
	"github.com/spf13/cobra"

	"bundler/config"
	"bundler/db"
	"bundler/logger"
	"bundler/server"
	"bundler/utils"
)

var (
	servePort int
	serveNoDB bool
)

var serveCmd = cobra.Command{
	Use:   "serve",
	Short: "Run the bundle submission HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		logger.InitLogs("serve")
		logger.ServerLogger.Info("Running cmd serve, starting bundle submission API...", "port", servePort)

		var database db.Database
		if !serveNoDB {
			database = db.NewClickhouse()
			defer database.Close()
		}

		srv := server.New(utils.NewResultCache(config.RESULT_CACHE_CAPACITY), database)
		srv.WarmCache()

		if err := srv.Run(servePort); err != nil {
			logger.ServerLogger.Error("Error running HTTP server", "err", err)
		}
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", config.DEFAULT_HTTP_PORT, "HTTP listen port")
	serveCmd.Flags().BoolVar(&serveNoDB, "no-db", false, "run without ClickHouse persistence")
	RootCmd.AddCommand(&serveCmd)
}
