package neat

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters for decoding and evaluating
// networks. The evolutionary algorithm that produces genomes keeps its own
// configuration; only the phenotype side lives here.
type Config struct {
	Phenotype  PhenotypeConfig
	Genome     GenomeConfig
	Evaluation EvaluationConfig
}

// PhenotypeConfig selects how decoded networks compute.
type PhenotypeConfig struct {
	// Activation names the single scalar function applied at every
	// non-input node. Must be a key of ActivationFunctions.
	Activation string `ini:"activation"`
}

// GenomeConfig declares the node counts every genome handed to this process
// is expected to carry. Genome producers (and the example drivers) read
// these; the decoder itself trusts each Genome's own declared counts.
type GenomeConfig struct {
	NumInputs  int `ini:"num_inputs"`
	NumOutputs int `ini:"num_outputs"`
	NumHidden  int `ini:"num_hidden"`
}

// EvaluationConfig holds parameters for the parallel fitness harness.
type EvaluationConfig struct {
	NumWorkers        int `ini:"num_workers"`         // 0 means one worker per CPU
	EpisodesPerGenome int `ini:"episodes_per_genome"` // Default: 1
	MaxTicks          int `ini:"max_ticks"`           // Per-episode decision-tick cap
}

// LoadConfig loads configuration parameters from an INI file.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true, // Allow # comments starting with # or ;
		UnescapeValueCommentSymbols: true, // If # or ; appear in value, treat as value
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := &Config{}

	// Map sections to structs
	if err := cfg.Section("Phenotype").MapTo(&config.Phenotype); err != nil {
		return nil, fmt.Errorf("failed to map [Phenotype] section: %w", err)
	}
	if err := cfg.Section("Genome").MapTo(&config.Genome); err != nil {
		return nil, fmt.Errorf("failed to map [Genome] section: %w", err)
	}
	if err := cfg.Section("Evaluation").MapTo(&config.Evaluation); err != nil {
		return nil, fmt.Errorf("failed to map [Evaluation] section: %w", err)
	}

	// --- Explicitly clean potentially problematic string values ---
	config.Phenotype.Activation = cleanIniString(config.Phenotype.Activation)

	// Set defaults.
	if config.Phenotype.Activation == "" {
		config.Phenotype.Activation = "sigmoid"
	}
	if config.Evaluation.EpisodesPerGenome == 0 {
		config.Evaluation.EpisodesPerGenome = 1
	}

	// --- Validation ---

	if _, err := GetActivation(config.Phenotype.Activation); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if config.Genome.NumInputs <= 0 {
		return nil, fmt.Errorf("config error: num_inputs must be positive")
	}
	if config.Genome.NumOutputs <= 0 {
		return nil, fmt.Errorf("config error: num_outputs must be positive")
	}
	if config.Genome.NumHidden < 0 {
		return nil, fmt.Errorf("config error: num_hidden cannot be negative")
	}
	if config.Evaluation.NumWorkers < 0 {
		return nil, fmt.Errorf("config error: num_workers cannot be negative")
	}
	if config.Evaluation.EpisodesPerGenome <= 0 {
		return nil, fmt.Errorf("config error: episodes_per_genome must be positive")
	}
	if config.Evaluation.MaxTicks <= 0 {
		return nil, fmt.Errorf("config error: max_ticks must be positive")
	}

	return config, nil
}

// ActivationFunc resolves the configured activation function. LoadConfig has
// already validated the name, so lookup failure here indicates the registry
// was modified after loading.
func (c *Config) ActivationFunc() (ActivationType, error) {
	return GetActivation(c.Phenotype.Activation)
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	// Remove comments starting with # or ;
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
