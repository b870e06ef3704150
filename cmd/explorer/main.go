package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"chainexplorer/internal/config"
	"chainexplorer/internal/infrastructure/logging"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

var (
	rpcURL string
	cfg    config.Config
	logs   *logging.RotatingWriter
)

var rootCmd = &cobra.Command{
	Use:   "explorer",
	Short: "Browse blocks, transactions and accounts of an Ethereum-compatible chain.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadFromEnv()
		if err != nil {
			return err
		}
		if rpcURL != "" {
			loaded.RPCURL = rpcURL
		}
		cfg = loaded

		logCfg := logging.Config{
			Level:      cfg.LogLevel,
			Format:     cfg.LogFormat,
			File:       cfg.LogFile,
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
		}
		// Query commands print JSON on stdout.
		if cmd.Name() != "serve" {
			logCfg.Output = os.Stderr
		}
		logs, err = logging.Init(logCfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logs != nil {
			_ = logs.Close()
		}
	},
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc-url", "", "JSON-RPC endpoint, overrides RPC_URL")
	rootCmd.AddCommand(serveCmd, blocksCmd(), blockCmd(), txCmd(), accountCmd(), versionCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
