package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func weightsCmd() *cobra.Command {
	var (
		weightsPath string
		sector      string
		industry    string
	)

	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Inspect the industry weight table",
		RunE: func(_ *cobra.Command, _ []string) error {
			table, err := loadWeightTable(weightsPath)
			if err != nil {
				return err
			}

			if sector == "" && industry == "" {
				fmt.Println("Configured profiles:")
				for _, name := range table.Names() {
					fmt.Printf("  %s\n", name)
				}
				return nil
			}

			resolved := table.Resolve(sector, industry)
			fmt.Printf("Resolved weights (sector=%q, industry=%q):\n", sector, industry)
			return printJSON(resolved)
		},
	}

	cmd.Flags().StringVar(&weightsPath, "weights", "", "Path to the industry weights YAML (default: built-in table)")
	cmd.Flags().StringVar(&sector, "sector", "", "Sector to resolve")
	cmd.Flags().StringVar(&industry, "industry", "", "Industry to resolve")

	return cmd
}
