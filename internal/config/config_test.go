// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycloudhospitality/gstr-recon/internal/domain"
)

func writeRules(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validRules = `{
	"reconciliation_components": [
		{"key": "total_taxable_value", "label": "Total Taxable Value", "logic": "HSN vs pages", "match": "exact"},
		{"key": "advances_adjusted", "label": "Advances Adjusted", "logic": "timing differences expected", "match": "tolerant"},
		{"key": "cgst_amount", "label": "CGST Amount", "logic": "HSN vs pages"}
	],
	"output_table": {"columns": ["Component", "GSTR-1 Value", "GST Export Value", "Logic", "Status", "Discrepancy"]}
}`

func TestLoadFrom(t *testing.T) {
	cfg, err := LoadFrom(writeRules(t, validRules))
	require.NoError(t, err)

	require.Len(t, cfg.Rules, 3)
	assert.Equal(t, "total_taxable_value", cfg.Rules[0].Key)
	assert.Equal(t, domain.PolicyTolerant, cfg.Rules[1].Match)
	// Omitted match policy defaults to exact.
	assert.Equal(t, domain.PolicyExact, cfg.Rules[2].Match)
	assert.Equal(t, domain.StatusMatched, cfg.TolerantStatus)
	assert.Len(t, cfg.OutputColumns, 6)
	assert.Equal(t, "Status", cfg.OutputColumns[4])
}

func TestLoadFromTolerantPolarity(t *testing.T) {
	body := `{
		"tolerant_status": "difference",
		"reconciliation_components": [{"key": "total_cess", "label": "Total Cess", "logic": "x", "match": "tolerant"}],
		"output_table": {"columns": ["a", "b", "c", "d", "e", "f"]}
	}`
	cfg, err := LoadFrom(writeRules(t, body))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDifference, cfg.TolerantStatus)
}

func TestLoadFromRejectsBadConfig(t *testing.T) {
	cases := map[string]string{
		"missing file":     filepath.Join(t.TempDir(), "nope.json"),
		"invalid json":     writeRules(t, `{"reconciliation_components": [`),
		"no components":    writeRules(t, `{"reconciliation_components": [], "output_table": {"columns": ["a","b","c","d","e","f"]}}`),
		"wrong columns":    writeRules(t, `{"reconciliation_components": [{"key":"k","label":"l"}], "output_table": {"columns": ["a"]}}`),
		"missing label":    writeRules(t, `{"reconciliation_components": [{"key":"k"}], "output_table": {"columns": ["a","b","c","d","e","f"]}}`),
		"unknown policy":   writeRules(t, `{"reconciliation_components": [{"key":"k","label":"l","match":"fuzzy"}], "output_table": {"columns": ["a","b","c","d","e","f"]}}`),
		"unknown polarity": writeRules(t, `{"tolerant_status": "maybe", "reconciliation_components": [{"key":"k","label":"l"}], "output_table": {"columns": ["a","b","c","d","e","f"]}}`),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadUsesEnvironment(t *testing.T) {
	t.Setenv("GSTRECON_CONFIG", writeRules(t, validRules))
	t.Setenv("GSTRECON_PORT", "9090")
	t.Setenv("GSTRECON_SELF_HOSTED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, int64(10<<20), cfg.MaxExcelBytes)
	// Self-hosted deployments raise the PDF ceiling to 1 GB.
	assert.Equal(t, int64(1<<30), cfg.MaxPDFBytes)
}
