package weights

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quantveritas/markettruth/internal/schema"
)

// DefaultKey is the reserved table entry used as universal fallback when
// neither industry nor sector matches.
const DefaultKey = "_default"

// Config is the on-disk shape of the industry weight table. Entries are keyed
// by sector or industry name; inner keys beginning with "_" are metadata and
// never reach the scorer.
type Config struct {
	Industries map[string]map[string]float64 `yaml:"industries"`
}

// Table resolves per-layer weight multipliers by sector/industry name.
type Table struct {
	config *Config
}

// NewTable creates an empty table; call LoadFromFile or LoadDefault before
// resolving.
func NewTable() *Table {
	return &Table{}
}

// LoadFromFile loads the industry weight table from a YAML configuration file.
func (t *Table) LoadFromFile(configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	t.config = &config
	return nil
}

// LoadDefault loads the built-in weight table. Every scored layer weighs 1.0
// in the fallback entry, with industry profiles matching the shipped config.
func (t *Table) LoadDefault() error {
	config := &Config{
		Industries: map[string]map[string]float64{
			DefaultKey: flatWeights(1.0),
			"Technology": {
				schema.LayerBusinessModel:   3.0,
				schema.LayerFinancialTruth:  1.5,
				schema.LayerManagement:      1.0,
				schema.LayerMarketStructure: 1.0,
				schema.LayerCompetitive:     2.5,
				schema.LayerMacro:           0.5,
				schema.LayerRisk:            1.0,
			},
			"Software": {
				schema.LayerBusinessModel:   4.0,
				schema.LayerFinancialTruth:  1.5,
				schema.LayerManagement:      1.0,
				schema.LayerMarketStructure: 1.0,
				schema.LayerCompetitive:     3.0,
				schema.LayerMacro:           0.5,
				schema.LayerRisk:            1.0,
			},
			"Financial Services": {
				schema.LayerBusinessModel:   1.0,
				schema.LayerFinancialTruth:  4.0,
				schema.LayerManagement:      1.5,
				schema.LayerMarketStructure: 1.0,
				schema.LayerCompetitive:     1.0,
				schema.LayerMacro:           2.0,
				schema.LayerRisk:            2.0,
			},
			"Energy": {
				schema.LayerBusinessModel:   1.0,
				schema.LayerFinancialTruth:  2.0,
				schema.LayerManagement:      1.0,
				schema.LayerMarketStructure: 1.0,
				schema.LayerCompetitive:     0.5,
				schema.LayerMacro:           3.0,
				schema.LayerRisk:            1.5,
			},
		},
	}

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("default config validation failed: %w", err)
	}

	t.config = config
	return nil
}

// Resolve returns the weight map for the given sector/industry. Lookup order
// is exact industry match, exact sector match, then the default entry. The
// result is never empty and metadata keys are stripped.
func (t *Table) Resolve(sector, industry string) map[string]float64 {
	if t.config == nil {
		return flatWeights(1.0)
	}

	if industry != "" {
		if entry, ok := t.config.Industries[industry]; ok {
			return stripMetadata(entry)
		}
	}
	if sector != "" {
		if entry, ok := t.config.Industries[sector]; ok {
			return stripMetadata(entry)
		}
	}
	if entry, ok := t.config.Industries[DefaultKey]; ok {
		return stripMetadata(entry)
	}
	return flatWeights(1.0)
}

// Names returns the configured sector/industry names, excluding the default
// entry, sorted for stable output.
func (t *Table) Names() []string {
	if t.config == nil {
		return nil
	}
	names := make([]string, 0, len(t.config.Industries))
	for name := range t.config.Industries {
		if !strings.HasPrefix(name, "_") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func stripMetadata(entry map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(entry))
	for k, v := range entry {
		if !strings.HasPrefix(k, "_") {
			out[k] = v
		}
	}
	return out
}

func flatWeights(w float64) map[string]float64 {
	out := make(map[string]float64, len(schema.ScoredLayers))
	for _, layer := range schema.ScoredLayers {
		out[layer] = w
	}
	return out
}

func validateConfig(config *Config) error {
	if len(config.Industries) == 0 {
		return fmt.Errorf("weight table is empty")
	}
	if _, ok := config.Industries[DefaultKey]; !ok {
		return fmt.Errorf("missing required %s entry", DefaultKey)
	}

	known := make(map[string]bool, len(schema.ScoredLayers))
	for _, layer := range schema.ScoredLayers {
		known[layer] = true
	}

	for name, entry := range config.Industries {
		for layer, weight := range entry {
			if strings.HasPrefix(layer, "_") {
				continue
			}
			if !known[layer] {
				return fmt.Errorf("entry %s references unknown layer %s", name, layer)
			}
			if weight <= 0 {
				return fmt.Errorf("entry %s has non-positive weight for %s: %.3f", name, layer, weight)
			}
		}
	}

	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join("config", "industry_weights.yaml")
}
