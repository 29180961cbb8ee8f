package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func deltaCmd() *cobra.Command {
	var (
		ticker  string
		history historyFlags
	)

	cmd := &cobra.Command{
		Use:   "delta",
		Short: "Show what changed since the previous analysis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := history.engine()
			if err != nil {
				return err
			}
			if engine == nil {
				return fmt.Errorf("delta requires a history backend")
			}

			delta, err := engine.Delta(cmd.Context(), ticker)
			if err != nil {
				return err
			}
			if delta == nil {
				fmt.Printf("Not enough history for %s: need at least two snapshots\n", ticker)
				return nil
			}
			return printJSON(delta)
		},
	}

	cmd.Flags().StringVarP(&ticker, "ticker", "t", "", "Ticker symbol")
	history.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("ticker")

	return cmd
}
