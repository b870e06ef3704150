package main

import (
	"encoding/json"
	"io"

	"chainexplorer/internal/serialize"

	"github.com/spf13/cobra"
)

func blocksCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Print the latest blocks, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("count") {
				count = cfg.LatestBlocksCount
			}
			return withApp(cmd, func(a *app) (any, error) {
				blocks, err := a.explorer.LatestBlocks(cmd.Context(), count)
				return map[string]any{"blocks": blocks}, err
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "number of blocks (default LATEST_BLOCKS_COUNT)")
	return cmd
}

func blockCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "block <hash>",
		Short: "Print one block.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) (any, error) {
				fetch := a.explorer.BlockByHash
				if full {
					fetch = a.explorer.BlockWithTransactions
				}
				block, err := fetch(cmd.Context(), args[0])
				return map[string]any{"block": block}, err
			})
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "include full transaction objects")
	return cmd
}

func txCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tx <hash>",
		Short: "Print a transaction with its receipt.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) (any, error) {
				tx, err := a.explorer.Transaction(cmd.Context(), args[0])
				return map[string]any{"transaction": tx}, err
			})
		},
	}
}

func accountCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "account <address>",
		Short: "Print recent transactions sent from or to an address.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("count") {
				count = cfg.AccountTxCount
			}
			return withApp(cmd, func(a *app) (any, error) {
				txs, err := a.explorer.RecentTransactions(cmd.Context(), args[0], count)
				return map[string]any{"transactions": txs}, err
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "number of transactions (default ACCOUNT_TX_COUNT)")
	return cmd
}

func withApp(cmd *cobra.Command, run func(a *app) (any, error)) error {
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := run(a)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

func writeJSON(w io.Writer, v any) error {
	normalized, err := serialize.Normalize(v)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(normalized)
}
