package weights

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantveritas/markettruth/internal/schema"
)

func loadedTable(t *testing.T) *Table {
	t.Helper()
	table := NewTable()
	require.NoError(t, table.LoadDefault())
	return table
}

func TestResolve_FallbackChain(t *testing.T) {
	table := loadedTable(t)

	defaults := table.Resolve("", "")
	require.Len(t, defaults, len(schema.ScoredLayers))
	for layer, w := range defaults {
		assert.Equal(t, 1.0, w, "default weight for %s", layer)
	}

	// Unknown industry falls back to sector.
	bySector := table.Resolve("Technology", "Obscure Widgets")
	assert.Equal(t, 3.0, bySector[schema.LayerBusinessModel])

	// Unknown industry and sector fall back to defaults.
	byDefault := table.Resolve("Frontier Shipping", "Obscure Widgets")
	assert.Equal(t, defaults, byDefault)

	// Industry match wins over sector match.
	byIndustry := table.Resolve("Technology", "Software")
	assert.Equal(t, 4.0, byIndustry[schema.LayerBusinessModel])
}

func TestResolve_NeverEmpty(t *testing.T) {
	table := NewTable() // nothing loaded
	resolved := table.Resolve("", "")
	require.Len(t, resolved, len(schema.ScoredLayers))
}

func TestLoadFromFile(t *testing.T) {
	config := `
industries:
  _default:
    business_model: 1.0
    financial_truth: 1.0
    management: 1.0
    market_structure: 1.0
    competitive: 1.0
    macro: 1.0
    risk: 1.0
  Utilities:
    financial_truth: 2.5
    macro: 3.0
    _note: 1.0
`
	path := filepath.Join(t.TempDir(), "industry_weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o644))

	table := NewTable()
	require.NoError(t, table.LoadFromFile(path))

	resolved := table.Resolve("Utilities", "")
	assert.Equal(t, 2.5, resolved[schema.LayerFinancialTruth])
	assert.Equal(t, 3.0, resolved[schema.LayerMacro])
	assert.NotContains(t, resolved, "_note", "metadata keys must be stripped")

	assert.Equal(t, []string{"Utilities"}, table.Names())
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{
			name:   "missing default entry",
			config: "industries:\n  Technology:\n    business_model: 2.0\n",
		},
		{
			name:   "unknown layer name",
			config: "industries:\n  _default:\n    business_model: 1.0\n  Tech:\n    bogus_layer: 2.0\n",
		},
		{
			name:   "non-positive weight",
			config: "industries:\n  _default:\n    business_model: 0.0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "weights.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.config), 0o644))
			assert.Error(t, NewTable().LoadFromFile(path))
		})
	}
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	path := filepath.Join("..", "..", "config", "industry_weights.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("shipped config not present: %v", err)
	}

	fromFile := NewTable()
	require.NoError(t, fromFile.LoadFromFile(path))

	builtin := loadedTable(t)
	assert.Equal(t, builtin.Resolve("", ""), fromFile.Resolve("", ""))
}
