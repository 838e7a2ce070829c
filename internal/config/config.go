// internal/config/config.go

// Package config loads server settings from the environment and the
// reconciliation rule set from gst_reconciliation_config.json. A missing or
// malformed rule file is fatal: no extraction may start without it.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/mycloudhospitality/gstr-recon/internal/domain"
)

// ErrInvalidConfig wraps every configuration failure surfaced to main.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	defaultRulesFile = "gst_reconciliation_config.json"

	maxExcelBytes         = 10 << 20  // 10 MB
	maxPDFBytes           = 300 << 20 // 300 MB
	maxPDFBytesSelfHosted = 1 << 30   // 1 GB
)

// Config is the immutable configuration for one server process.
type Config struct {
	Port           string
	SelfHosted     bool
	MaxExcelBytes  int64
	MaxPDFBytes    int64
	TolerantStatus domain.MatchStatus

	Rules         []domain.ReconciliationRule
	OutputColumns []string
}

// ruleFile mirrors the JSON layout of gst_reconciliation_config.json.
type ruleFile struct {
	ReconciliationComponents []domain.ReconciliationRule `mapstructure:"reconciliation_components"`
	OutputTable              struct {
		Columns []string `mapstructure:"columns"`
	} `mapstructure:"output_table"`
	TolerantStatus string `mapstructure:"tolerant_status"`
}

// Load reads settings with this precedence: GSTRECON_* environment
// variables, then defaults. The rule file path itself comes from
// GSTRECON_CONFIG.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GSTRECON")
	v.AutomaticEnv()
	v.SetDefault("port", "8080")
	v.SetDefault("config", defaultRulesFile)
	v.SetDefault("self_hosted", false)

	cfg, err := LoadFrom(v.GetString("config"))
	if err != nil {
		return nil, err
	}

	cfg.Port = v.GetString("port")
	cfg.SelfHosted = v.GetBool("self_hosted")
	cfg.MaxExcelBytes = maxExcelBytes
	cfg.MaxPDFBytes = maxPDFBytes
	if cfg.SelfHosted {
		cfg.MaxPDFBytes = maxPDFBytesSelfHosted
	}
	return cfg, nil
}

// LoadFrom parses and validates the reconciliation rule file at path.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidConfig, path, err)
	}

	var rf ruleFile
	if err := v.Unmarshal(&rf); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}

	cfg := &Config{
		Rules:         rf.ReconciliationComponents,
		OutputColumns: rf.OutputTable.Columns,
		MaxExcelBytes: maxExcelBytes,
		MaxPDFBytes:   maxPDFBytes,
	}

	if len(cfg.Rules) == 0 {
		return nil, fmt.Errorf("%w: reconciliation_components is empty", ErrInvalidConfig)
	}
	if len(cfg.OutputColumns) != 6 {
		return nil, fmt.Errorf("%w: output_table.columns must list 6 labels, got %d", ErrInvalidConfig, len(cfg.OutputColumns))
	}
	for i := range cfg.Rules {
		rule := &cfg.Rules[i]
		if rule.Key == "" || rule.Label == "" {
			return nil, fmt.Errorf("%w: component %d is missing key or label", ErrInvalidConfig, i)
		}
		switch rule.Match {
		case domain.PolicyExact, domain.PolicyTolerant:
		case "":
			rule.Match = domain.PolicyExact
		default:
			return nil, fmt.Errorf("%w: component %q has unknown match policy %q", ErrInvalidConfig, rule.Key, rule.Match)
		}
	}

	switch rf.TolerantStatus {
	case "", "matched":
		cfg.TolerantStatus = domain.StatusMatched
	case "difference":
		cfg.TolerantStatus = domain.StatusDifference
	default:
		return nil, fmt.Errorf("%w: tolerant_status must be \"matched\" or \"difference\", got %q", ErrInvalidConfig, rf.TolerantStatus)
	}

	return cfg, nil
}
