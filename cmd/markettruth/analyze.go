package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantveritas/markettruth/internal/application"
	"github.com/quantveritas/markettruth/internal/provider"
	"github.com/quantveritas/markettruth/internal/schema"
	"github.com/quantveritas/markettruth/internal/synthesis"
	"github.com/quantveritas/markettruth/internal/weights"
)

func analyzeCmd() *cobra.Command {
	var (
		ticker      string
		inputPath   string
		sector      string
		industry    string
		weightsPath string
		profileURL  string
		apiKey      string
		history     historyFlags
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run synthesis over a set of layer results",
		Long: `Reads raw layer results from a JSON file keyed by layer name, normalizes
them, and runs the full synthesis pipeline. Each layer object may carry
"score", "red_flags", "green_flags", and any layer-specific fields.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := loadLayerFile(inputPath)
			if err != nil {
				return err
			}

			table, err := loadWeightTable(weightsPath)
			if err != nil {
				return err
			}

			historyEngine, err := history.engine()
			if err != nil {
				return err
			}

			framework := application.NewFramework(application.Config{
				Analyzers: fileAnalyzers(raw),
				Profiles:  profileProvider(profileURL, apiKey, ticker, sector, industry),
				Synthesis: synthesis.NewEngine(table),
				History:   historyEngine,
			})

			report, err := framework.Run(cmd.Context(), ticker)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}

	cmd.Flags().StringVarP(&ticker, "ticker", "t", "", "Ticker symbol to analyze")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to the layer results JSON file")
	cmd.Flags().StringVar(&sector, "sector", "", "Sector override for weight resolution")
	cmd.Flags().StringVar(&industry, "industry", "", "Industry override for weight resolution")
	cmd.Flags().StringVar(&weightsPath, "weights", "", "Path to the industry weights YAML (default: built-in table)")
	cmd.Flags().StringVar(&profileURL, "profile-url", "", "Base URL of a company profile API (overridden by --sector/--industry)")
	cmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("MARKETTRUTH_API_KEY"), "Profile API key")
	history.register(cmd.Flags())

	_ = cmd.MarkFlagRequired("ticker")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// loadLayerFile reads raw analyzer outputs from a JSON file. Top-level keys
// are layer names; "score", "red_flags", and "green_flags" are lifted into
// the raw result and everything else lands in Extra.
func loadLayerFile(path string) (map[string]schema.RawResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layer file %s: %w", path, err)
	}

	var parsed map[string]map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse layer file %s: %w", path, err)
	}

	results := make(map[string]schema.RawResult, len(parsed))
	for name, fields := range parsed {
		results[name] = toRawResult(fields)
	}
	return results, nil
}

func toRawResult(fields map[string]interface{}) schema.RawResult {
	out := schema.RawResult{Extra: make(map[string]interface{})}
	for key, value := range fields {
		switch key {
		case "score":
			if f, ok := value.(float64); ok {
				score := f
				out.Score = &score
			}
		case "red_flags":
			out.RedFlags = toStrings(value)
		case "green_flags":
			out.GreenFlags = toStrings(value)
		default:
			out.Extra[key] = value
		}
	}
	return out
}

func toStrings(value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// fileAnalyzers wraps pre-computed layer results as analyzers so file-driven
// runs flow through the same pipeline as live ones.
func fileAnalyzers(results map[string]schema.RawResult) []application.Analyzer {
	analyzers := make([]application.Analyzer, 0, len(results))
	for name, raw := range results {
		raw := raw
		analyzers = append(analyzers, application.AnalyzerFunc{
			LayerName: name,
			Fn: func(context.Context, string) (schema.RawResult, error) {
				return raw, nil
			},
		})
	}
	return analyzers
}

func loadWeightTable(path string) (*weights.Table, error) {
	table := weights.NewTable()
	if path != "" {
		if err := table.LoadFromFile(path); err != nil {
			return nil, err
		}
		return table, nil
	}
	if _, err := os.Stat(weights.GetDefaultConfigPath()); err == nil {
		if err := table.LoadFromFile(weights.GetDefaultConfigPath()); err != nil {
			return nil, err
		}
		return table, nil
	}
	if err := table.LoadDefault(); err != nil {
		return nil, err
	}
	return table, nil
}

// profileProvider picks the classification source. Explicit --sector or
// --industry wins; otherwise the profile API is used when configured.
func profileProvider(baseURL, apiKey, ticker, sector, industry string) provider.ProfileProvider {
	if sector != "" || industry != "" || baseURL == "" {
		return &provider.Static{Profiles: map[string]provider.Profile{
			ticker: {Sector: sector, Industry: industry},
		}}
	}
	return provider.NewHTTPProvider(provider.DefaultHTTPConfig(baseURL, apiKey))
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
