package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapport/internal/progression"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rapport.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8880, cfg.Server.Port)
	assert.Empty(t, cfg.Database.URL)

	// An empty file keeps the built-in progression defaults.
	pc := cfg.ProgressionConfig()
	assert.Equal(t, progression.DefaultWindowSize, pc.WindowSize)
	assert.Equal(t, progression.DefaultMeaningfulMinWords, pc.MeaningfulMinWords)
	assert.NoError(t, pc.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9000

[progression]
window_size = 5
meaningful_min_words = 6

[progression.trust_weights]
sentiment = 1.0

[[progression.stage_rules.initial]]
kind = "consecutive"
min = 2.0

[[progression.stage_rules.building]]
kind = "flag"
flag = "answered_fears"
equals = true

[[progression.stage_rules.committed]]
kind = "keyword"
keywords = ["promise"]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)

	pc := cfg.ProgressionConfig()
	assert.Equal(t, 5, pc.WindowSize)
	assert.Equal(t, 6, pc.MeaningfulMinWords)
	assert.Equal(t, progression.AxisWeights{progression.MetricSentiment: 1.0}, pc.TrustWeights)

	rules, err := progression.CompileRuleSets(pc.StageRules)
	require.NoError(t, err)
	assert.Len(t, rules[progression.StageInitial], 1)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err, "an explicitly named config file must exist")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("RAPPORT_SERVER__PORT", "7001")

	path := writeConfig(t, "[server]\nport = 9000\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port, "environment wins over the file")
}

func TestValidateRejectsBadRules(t *testing.T) {
	path := writeConfig(t, `
[[progression.stage_rules.initial]]
kind = "vibes"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown rule kind")
}

func TestValidateRejectsIncompleteRuleSets(t *testing.T) {
	// Naming only one stage's rules leaves the others undefined, which the
	// controller cannot operate with.
	path := writeConfig(t, `
[[progression.stage_rules.initial]]
kind = "consecutive"
min = 1.0
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no exit rules defined")
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rapport.toml")
	require.NoError(t, InitConfig(path))

	// The generated sample must load and validate cleanly.
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	assert.Error(t, InitConfig(path), "refuses to overwrite an existing file")
}
