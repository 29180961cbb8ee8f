package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	monitor "github.com/quantveritas/markettruth/internal/interfaces/http"
)

func monitorCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Serve health and Prometheus metrics endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := monitor.NewServer(addr, monitor.NewMetricsRegistry())
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9090", "Listen address")

	return cmd
}
