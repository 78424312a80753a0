package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seasr/vtable/pkg/compression"
	vterrors "github.com/seasr/vtable/pkg/errors"
	"github.com/seasr/vtable/pkg/testutil"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().CSV, cfg.CSV)
	assert.Equal(t, compression.Zstd, cfg.Snapshot.Algorithm)
	assert.Equal(t, 5*time.Second, cfg.Tracing.BatchTimeout)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv("VTABLE_TEST_LEVEL", "debug")
	path := testutil.WriteFile(t, "vtable.yaml", `
table:
  capacity: 64
defaults:
  double: -1
  string: "n/a"
csv:
  delimiter: ";"
  types:
    - column: ZipCode
      type: string
snapshot:
  algorithm: s2
  level: 7
logging:
  level: ${VTABLE_TEST_LEVEL}
tracing:
  enabled: true
  batch_timeout: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Table.Capacity)
	assert.Equal(t, -1.0, cfg.Defaults.Double)
	assert.Equal(t, "n/a", cfg.Defaults.String)
	assert.Equal(t, ";", cfg.CSV.Delimiter)
	assert.Equal(t, "?", cfg.CSV.MissingToken, "unset keys keep their default")
	require.Len(t, cfg.CSV.Types, 1)
	assert.Equal(t, "ZipCode", cfg.CSV.Types[0].Column)
	assert.Equal(t, compression.S2, cfg.Snapshot.Algorithm)
	assert.Equal(t, compression.Better, cfg.Snapshot.Level)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Tracing.BatchTimeout)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("VTABLE_SNAPSHOT_ALGORITHM", "lz4")
	t.Setenv("VTABLE_TABLE_CAPACITY", "128")
	t.Setenv("VTABLE_DEFAULTS_LONG", "-5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, compression.LZ4, cfg.Snapshot.Algorithm)
	assert.Equal(t, 128, cfg.Table.Capacity)
	assert.Equal(t, int64(-5), cfg.Defaults.Long)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeConfig))

	bad := testutil.WriteFile(t, "bad.yaml", "snapshot: [unclosed")
	_, err = Load(bad)
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeConfig))

	invalidAlgo := testutil.WriteFile(t, "algo.yaml", "snapshot:\n  algorithm: rar\n")
	_, err = Load(invalidAlgo)
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative capacity", func(c *Config) { c.Table.Capacity = -1 }},
		{"long delimiter", func(c *Config) { c.CSV.Delimiter = ";;" }},
		{"quote delimiter", func(c *Config) { c.CSV.Delimiter = `"` }},
		{"unknown type", func(c *Config) { c.CSV.Types = []TypeOverride{{Column: "a", Type: "uuid"}} }},
		{"unnamed override", func(c *Config) { c.CSV.Types = []TypeOverride{{Type: "long"}} }},
		{"bad level", func(c *Config) { c.Snapshot.Level = 12 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad encoding", func(c *Config) { c.Logging.Encoding = "xml" }},
		{"bad sampling", func(c *Config) { c.Tracing.SamplingRate = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeConfig))
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Table.Capacity = 32
	cfg.Defaults.Char = 'x'
	cfg.CSV.Types = []TypeOverride{{Column: "id", Type: "long"}}
	cfg.Snapshot = compression.Config{Algorithm: compression.Gzip, Level: compression.Best}

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestTableOptions(t *testing.T) {
	cfg := Default()
	assert.Len(t, cfg.TableOptions(), 1)
	cfg.Table.Capacity = 8
	assert.Len(t, cfg.TableOptions(), 2)
}
