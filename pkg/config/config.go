package config

import (
	"unicode/utf8"

	"go.uber.org/zap/zapcore"

	"github.com/seasr/vtable/pkg/columnar"
	"github.com/seasr/vtable/pkg/compression"
	vterrors "github.com/seasr/vtable/pkg/errors"
	"github.com/seasr/vtable/pkg/logger"
	"github.com/seasr/vtable/pkg/observability"
)

// Config is the complete vtable configuration. Each section maps to one
// package: tables and columns, CSV ingestion, snapshots, logging and
// tracing.
type Config struct {
	// Table settings apply to every table the CLI builds
	Table TableConfig `yaml:"table" mapstructure:"table"`

	// Defaults are the per-type values read for rows with no stored value
	Defaults columnar.Defaults `yaml:"defaults" mapstructure:"defaults"`

	// CSV controls ingestion
	CSV CSVConfig `yaml:"csv" mapstructure:"csv"`

	// Snapshot selects the snapshot compression
	Snapshot compression.Config `yaml:"snapshot" mapstructure:"snapshot"`

	Logging logger.Config        `yaml:"logging" mapstructure:"logging"`
	Tracing observability.Config `yaml:"tracing" mapstructure:"tracing"`
}

// TableConfig contains table construction settings
type TableConfig struct {
	// Capacity is the initial hash capacity of each column (0 = map default)
	Capacity int `yaml:"capacity" mapstructure:"capacity"`
}

// CSVConfig contains CSV ingestion settings
type CSVConfig struct {
	// Delimiter is a single character; empty means comma
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	// MissingToken marks missing cells
	MissingToken string `yaml:"missing_token" mapstructure:"missing_token"`
	// Types overrides type inference for named columns
	Types []TypeOverride `yaml:"types,omitempty" mapstructure:"types"`
}

// TypeOverride pins a CSV column to a type. A list is used instead of a map
// so column names keep their case.
type TypeOverride struct {
	Column string `yaml:"column" mapstructure:"column"`
	Type   string `yaml:"type" mapstructure:"type"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		CSV: CSVConfig{
			Delimiter:    ",",
			MissingToken: columnar.DefaultMissingToken,
		},
		Snapshot: *compression.DefaultConfig(),
		Logging:  logger.DefaultConfig(),
		Tracing:  observability.DefaultConfig(),
	}
}

// Validate checks every section and returns the first problem found
func (c *Config) Validate() error {
	if c.Table.Capacity < 0 {
		return invalid("table.capacity cannot be negative")
	}
	if utf8.RuneCountInString(c.CSV.Delimiter) > 1 {
		return invalid("csv.delimiter must be a single character").WithDetail("delimiter", c.CSV.Delimiter)
	}
	if c.CSV.Delimiter == "\n" || c.CSV.Delimiter == "\r" || c.CSV.Delimiter == `"` {
		return invalid("csv.delimiter cannot be a quote or line break")
	}
	for _, o := range c.CSV.Types {
		if o.Column == "" {
			return invalid("csv.types entries need a column")
		}
		if _, ok := columnar.ParseColumnType(o.Type); !ok {
			return invalid("unknown column type").
				WithDetail("column", o.Column).
				WithDetail("type", o.Type)
		}
	}
	if _, err := compression.ParseAlgorithm(string(c.Snapshot.Algorithm)); err != nil {
		return vterrors.Wrap(err, vterrors.ErrorTypeConfig, "invalid snapshot.algorithm")
	}
	if c.Snapshot.Level < 0 || c.Snapshot.Level > compression.Best {
		return invalid("snapshot.level must be between 0 and 9").WithDetail("level", int(c.Snapshot.Level))
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return vterrors.Wrap(err, vterrors.ErrorTypeConfig, "invalid logging.level")
	}
	if c.Logging.Encoding != "" && c.Logging.Encoding != "json" && c.Logging.Encoding != "console" {
		return invalid("logging.encoding must be json or console").WithDetail("encoding", c.Logging.Encoding)
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return invalid("tracing.sampling_rate must be between 0 and 1")
	}
	return nil
}

func invalid(msg string) *vterrors.Error {
	return vterrors.New(vterrors.ErrorTypeConfig, msg)
}

// TableOptions returns the options for tables built under this config
func (c *Config) TableOptions() []columnar.TableOption {
	opts := []columnar.TableOption{columnar.WithDefaults(c.Defaults)}
	if c.Table.Capacity > 0 {
		opts = append(opts, columnar.WithCapacity(c.Table.Capacity))
	}
	return opts
}

// CSVOptions converts the csv and defaults sections into loader options
func (c *Config) CSVOptions() (columnar.CSVOptions, error) {
	opts := columnar.CSVOptions{
		MissingToken: c.CSV.MissingToken,
		Defaults:     c.Defaults,
		Capacity:     c.Table.Capacity,
	}
	if c.CSV.Delimiter != "" {
		opts.Delimiter, _ = utf8.DecodeRuneInString(c.CSV.Delimiter)
	}
	if len(c.CSV.Types) > 0 {
		opts.Types = make(map[string]columnar.ColumnType, len(c.CSV.Types))
		for _, o := range c.CSV.Types {
			t, ok := columnar.ParseColumnType(o.Type)
			if !ok {
				return opts, invalid("unknown column type").
					WithDetail("column", o.Column).
					WithDetail("type", o.Type)
			}
			opts.Types[o.Column] = t
		}
	}
	return opts, nil
}
