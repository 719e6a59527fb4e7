package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifesaver/egress/internal/logging"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100.0, cfg.Analysis.MaxTravel)
	assert.Equal(t, 0.2, cfg.Analysis.InchesPerOccupant)
	assert.Equal(t, "Egress", cfg.Analysis.EgressParam)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_File(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, t.TempDir(), "egress.yaml", `
analysis:
  max_travel: 75
  workers: 4
server:
  addr: ":9090"
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 75.0, cfg.Analysis.MaxTravel)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, 0.2, cfg.Analysis.InchesPerOccupant, "unset keys keep defaults")
	assert.Equal(t, ":9090", cfg.Server.Addr)

	lc := cfg.Logging()
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)

	opts := cfg.Options()
	assert.Equal(t, 75.0, opts.MaxTravel)
	assert.Equal(t, 4, opts.Workers)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Analysis, cfg.Analysis)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, t.TempDir(), "egress.yaml", "analysis:\n  max_travel: 75\n")
	t.Setenv("EGRESS_MAX_TRAVEL", "200")
	t.Setenv("EGRESS_PARAM", "IsExit")
	t.Setenv("EGRESS_WORKERS", "8")
	t.Setenv("EGRESS_METRICS", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200.0, cfg.Analysis.MaxTravel)
	assert.Equal(t, "IsExit", cfg.Analysis.EgressParam)
	assert.Equal(t, 8, cfg.Analysis.Workers)
	assert.False(t, cfg.Server.Metrics)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, dir, ".env", "EGRESS_INCHES_PER_OCCUPANT=0.15\n")
	t.Cleanup(func() { os.Unsetenv("EGRESS_INCHES_PER_OCCUPANT") })
	path := writeFile(t, t.TempDir(), "egress.yaml", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.15, cfg.Analysis.InchesPerOccupant)
}

func TestLoad_BadEnv(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, t.TempDir(), "egress.yaml", "")
	t.Setenv("EGRESS_WORKERS", "many")
	_, err := Load(path)
	assert.ErrorContains(t, err, "EGRESS_WORKERS")
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero travel", func(c *Config) { c.Analysis.MaxTravel = 0 }},
		{"negative allowance", func(c *Config) { c.Analysis.InchesPerOccupant = -1 }},
		{"no param", func(c *Config) { c.Analysis.EgressParam = "" }},
		{"no workers", func(c *Config) { c.Analysis.Workers = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// chdir changes the working directory for the duration of the test,
// like testing.T.Chdir (unavailable before Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
