// Package config loads and validates vtable configuration.
//
// # Sections
//
//   - table: column hash capacity
//   - defaults: per-type values read for rows with no stored value
//   - csv: delimiter, missing token and per-column type overrides
//   - snapshot: compression algorithm and level
//   - logging: zap level, encoding and outputs
//   - tracing: OpenTelemetry stdout exporter
//
// # Loading
//
//	cfg, err := config.Load("vtable.yaml")
//	if err != nil {
//		return err
//	}
//	opts, err := cfg.CSVOptions()
//	if err != nil {
//		return err
//	}
//	table, err := columnar.LoadCSV(file, opts)
//
// Load starts from Default, merges the file and then applies environment
// overrides named after the key path with a VTABLE_ prefix:
//
//	VTABLE_SNAPSHOT_ALGORITHM=s2
//	VTABLE_LOGGING_LEVEL=debug
//	VTABLE_DEFAULTS_DOUBLE=-1
//
// File values may also reference the environment with ${VAR_NAME}.
//
// # Example File
//
//	table:
//	  capacity: 1024
//	defaults:
//	  double: -1
//	csv:
//	  delimiter: ";"
//	  missing_token: "NA"
//	  types:
//	    - column: zip
//	      type: string
//	snapshot:
//	  algorithm: zstd
//	  level: 7
//	logging:
//	  level: ${LOG_LEVEL}
//	  encoding: console
//	tracing:
//	  enabled: true
//	  sampling_rate: 0.5
package config
