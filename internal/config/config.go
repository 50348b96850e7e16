// Package config loads the application configuration: defaults first, then
// an optional TOML file, then RAPPORT_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/rapport/internal/progression"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int `koanf:"port"`
	} `koanf:"server"`

	Database struct {
		// URL is the Postgres connection string. Empty means the in-memory
		// session store.
		URL string `koanf:"url"`
	} `koanf:"database"`

	Progression struct {
		WindowSize         int                               `koanf:"window_size"`
		MeaningfulMinWords int                               `koanf:"meaningful_min_words"`
		TrustWeights       map[string]float64                `koanf:"trust_weights"`
		OpennessWeights    map[string]float64                `koanf:"openness_weights"`
		Analyzer           progression.AnalyzerConfig        `koanf:"analyzer"`
		StageRules         map[string][]progression.RuleSpec `koanf:"stage_rules"`
	} `koanf:"progression"`
}

// LoadConfig loads the configuration from a file, falling back to default
// locations and layering RAPPORT_ environment variables on top.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Built-in defaults.
	k.Load(confmap.Provider(map[string]interface{}{
		"server.port": 8880,
	}, "."), nil)

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./rapport.toml", "$HOME/.rapport.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// RAPPORT_SERVER__PORT=9000 -> server.port. Double underscore nests so
	// snake_case keys survive.
	k.Load(env.Provider("RAPPORT_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "RAPPORT_")
		return strings.Replace(strings.ToLower(s), "__", ".", -1)
	}), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// ProgressionConfig converts the loaded settings into the controller's
// config. Sections left empty in the file keep their built-in defaults, so
// a partial config file tunes only what it names.
func (c *Config) ProgressionConfig() progression.Config {
	pc := progression.DefaultConfig()

	if c.Progression.WindowSize > 0 {
		pc.WindowSize = c.Progression.WindowSize
	}
	if c.Progression.MeaningfulMinWords > 0 {
		pc.MeaningfulMinWords = c.Progression.MeaningfulMinWords
	}
	if len(c.Progression.TrustWeights) > 0 {
		pc.TrustWeights = toAxisWeights(c.Progression.TrustWeights)
	}
	if len(c.Progression.OpennessWeights) > 0 {
		pc.OpennessWeights = toAxisWeights(c.Progression.OpennessWeights)
	}
	// NewAnalyzer fills zero fields from its defaults, so a partial
	// analyzer section is safe to pass through as-is.
	pc.Analyzer = c.Progression.Analyzer
	if len(c.Progression.StageRules) > 0 {
		rules := make(map[progression.Stage][]progression.RuleSpec, len(c.Progression.StageRules))
		for stage, specs := range c.Progression.StageRules {
			rules[progression.Stage(stage)] = specs
		}
		pc.StageRules = rules
	}

	return pc
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# Rapport Configuration

[server]
port = 8880

[database]
# Leave empty to keep sessions in memory.
url = ""

[progression]
window_size = 10
meaningful_min_words = 4

[progression.trust_weights]
sentiment = 0.25
message_length = 0.10
inverse_latency = 0.25
reciprocation = 0.15
politeness_markers = 0.15
attachment_cues = 0.10

[progression.openness_weights]
question_ratio = 0.15
pronoun_density = 0.25
intimacy_keywords = 0.30
sentiment = 0.15
message_length = 0.15

[[progression.stage_rules.initial]]
kind = "score"
axis = "trust"
min = 60.0

[[progression.stage_rules.initial]]
kind = "score"
axis = "openness"
min = 40.0

[[progression.stage_rules.initial]]
kind = "consecutive"
min = 3.0

[[progression.stage_rules.building]]
kind = "score"
axis = "trust"
min = 75.0

[[progression.stage_rules.building]]
kind = "score"
axis = "openness"
min = 60.0

[[progression.stage_rules.building]]
kind = "flag"
flag = "answered_fears"
equals = true

[[progression.stage_rules.committed]]
kind = "score"
axis = "trust"
min = 85.0

[[progression.stage_rules.committed]]
kind = "keyword"
keywords = ["together", "future", "promise"]

[[progression.stage_rules.committed]]
kind = "counter"
flag = "romantic_cue_count"
min = 3.0
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", config.Server.Port)
	}
	return config.ProgressionConfig().Validate()
}

func toAxisWeights(m map[string]float64) progression.AxisWeights {
	w := make(progression.AxisWeights, len(m))
	for k, v := range m {
		w[progression.Metric(k)] = v
	}
	return w
}
