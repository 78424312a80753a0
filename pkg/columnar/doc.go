// Package columnar implements sparse, typed columns and the tables built
// from them.
//
// # Overview
//
// A column stores only the rows that hold a non-default value, in a
// primitivehash map keyed by row. Rows flagged missing or empty are tracked
// in separate row sets and never hold a value at the same time. Any other
// row reads as the column default, so a table of mostly default cells costs
// little more than its non-default entries.
//
// The package provides:
//   - SparseColumn: one generic implementation of Column for the bool, byte,
//     char, int, long, float, double and string column types
//   - Table: named columns sharing a row count, with append, insert, remove,
//     sort and subset operations
//   - LoadCSV: CSV ingestion with per-column type inference
//   - ToArrow, WriteArrow and FromArrow: dense Arrow records and IPC files
//   - WriteJSON: JSON lines or array export
//   - SaveSnapshot and LoadSnapshot: compressed sparse snapshots
//
// # Sorting
//
// Sorting derives a permutation from the sort column and applies it to
// every column. Missing and empty cells sort after all valid values; rows
// with no stored value sort as the column default.
//
//	table, err := columnar.LoadCSV(file, columnar.CSVOptions{})
//	if err != nil {
//	    return err
//	}
//	if err := table.SortBy("price"); err != nil {
//	    return err
//	}
//
// A sort range that runs past the last row is clamped and logged at error
// level rather than rejected.
//
// # Snapshots
//
//	cfg := &compression.Config{Algorithm: compression.Zstd, Level: compression.Default}
//	if _, err := columnar.SaveSnapshot(w, table, cfg); err != nil {
//	    return err
//	}
//	restored, err := columnar.LoadSnapshot(r)
//
// Snapshots keep the table sparse: only stored values and flagged rows are
// written, and the compression algorithm is recorded in the header so
// LoadSnapshot needs no configuration.
//
// # Concurrency
//
// Table methods are safe for concurrent use. Columns obtained from a table
// are not; callers that mutate a column directly must not share the table
// while doing so.
package columnar
