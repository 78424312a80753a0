package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seasr/vtable/pkg/columnar"
	"github.com/seasr/vtable/pkg/compression"
	vterrors "github.com/seasr/vtable/pkg/errors"
	"github.com/seasr/vtable/pkg/metrics"
	"github.com/seasr/vtable/pkg/observability"
)

const (
	formatJSON   = "json"
	formatNDJSON = "ndjson"
	formatArrow  = "arrow"
)

// loadCSV reads path into a table using the csv, defaults and table
// sections of the configuration.
func (a *app) loadCSV(path string) (*columnar.Table, error) {
	opts, err := a.cfg.CSVOptions()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, vterrors.Wrap(err, vterrors.ErrorTypeFile, "failed to open csv").WithDetail("path", path)
	}
	defer f.Close()
	return columnar.LoadCSV(bufio.NewReader(f), opts)
}

// exportOptions are the output flags shared by sort and snapshot load
type exportOptions struct {
	format string
	out    string
	pretty bool
}

func (o *exportOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.format, "format", formatJSON, "Output format: json, ndjson or arrow")
	cmd.Flags().StringVar(&o.out, "out", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&o.pretty, "pretty", false, "Indent json rows")
}

func writeTable(w io.Writer, t *columnar.Table, o exportOptions) error {
	var opts []columnar.JSONOption
	if o.pretty {
		opts = append(opts, columnar.WithIndent("  "))
	}
	switch o.format {
	case formatJSON:
		return t.WriteJSON(w, true, opts...)
	case formatNDJSON:
		return t.WriteJSON(w, false, opts...)
	case formatArrow:
		return t.WriteArrow(w)
	default:
		return vterrors.Newf(vterrors.ErrorTypeValidation, "unknown output format: %s", o.format)
	}
}

// export writes t to o.out (stdout when empty) in o.format
func export(cmd *cobra.Command, t *columnar.Table, o exportOptions) (err error) {
	if o.format != formatJSON && o.format != formatNDJSON && o.format != formatArrow {
		return vterrors.Newf(vterrors.ErrorTypeValidation, "unknown output format: %s", o.format)
	}
	w, err := openOutput(cmd, o.out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	bw := bufio.NewWriter(w)
	if err := writeTable(bw, t, o); err != nil {
		return err
	}
	return bw.Flush()
}

func (a *app) newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <csv>",
		Short: "Load a CSV file and report its schema and storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			_, op := observability.StartOperation(cmd.Context(), "inspect", attribute.String("file", args[0]))
			defer func() { op.End(err) }()

			t, err := a.loadCSV(args[0])
			if err != nil {
				return err
			}
			op.SetAttributes(attribute.Int("rows", t.RowCount()))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file: %s\nrows: %d\ncolumns: %d\n\n", args[0], t.RowCount(), t.ColumnCount())
			fmt.Fprintf(out, "%-20s %-8s %8s %8s %8s\n", "NAME", "TYPE", "ENTRIES", "MISSING", "EMPTY")
			for i := 0; i < t.ColumnCount(); i++ {
				col := t.ColumnAt(i)
				fmt.Fprintf(out, "%-20s %-8s %8d %8d %8d\n",
					col.Label(), col.Type(), col.NumEntries(), col.NumMissing(), col.NumEmpty())
			}
			fmt.Fprintf(out, "\nestimated table memory: %d bytes (%.1f per row)\n", t.MemoryUsage(), t.MemoryPerRecord())

			rm, err := metrics.NewResourceMonitor()
			if err != nil {
				op.Logger().Warn("resource usage unavailable", zap.Error(err))
				return nil
			}
			usage := rm.Usage()
			fmt.Fprintf(out, "process rss: %d bytes, heap: %d bytes, goroutines: %d\n",
				usage.MemoryRSS, usage.HeapAlloc, usage.GoroutineCount)
			return nil
		},
	}
}

func (a *app) newSortCmd() *cobra.Command {
	var (
		by         string
		begin, end int
		output     exportOptions
	)
	cmd := &cobra.Command{
		Use:   "sort <csv>",
		Short: "Sort the rows of a CSV file by one column and export them",
		Long: `Sort reorders rows by the named column. Missing and empty cells sort last.
With --begin/--end only rows begin through end (inclusive) are reordered; an
end past the last row is clamped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			_, op := observability.StartOperation(cmd.Context(), "sort",
				attribute.String("file", args[0]),
				attribute.String("column", by))
			defer func() { op.End(err) }()

			t, err := a.loadCSV(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("begin") || cmd.Flags().Changed("end") {
				if !cmd.Flags().Changed("end") {
					end = t.RowCount() - 1
				}
				err = t.SortRangeBy(by, begin, end)
			} else {
				err = t.SortBy(by)
			}
			if err != nil {
				return err
			}
			return export(cmd, t, output)
		},
	}
	cmd.Flags().StringVar(&by, "by", "", "Column to sort by (required)")
	cmd.Flags().IntVar(&begin, "begin", 0, "First row of the range to sort")
	cmd.Flags().IntVar(&end, "end", 0, "Last row of the range to sort (default the last row)")
	output.register(cmd)
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

func (a *app) newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and load compressed table snapshots",
	}
	cmd.AddCommand(a.newSnapshotSaveCmd(), a.newSnapshotLoadCmd())
	return cmd
}

func (a *app) newSnapshotSaveCmd() *cobra.Command {
	var algorithm, level string
	cmd := &cobra.Command{
		Use:   "save <csv> <file>",
		Short: "Load a CSV file and write it as a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg := a.cfg.Snapshot
			if cmd.Flags().Changed("algorithm") {
				if cfg.Algorithm, err = compression.ParseAlgorithm(algorithm); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("level") {
				cfg.Level = compression.ParseLevel(level)
			}

			_, op := observability.StartOperation(cmd.Context(), "snapshot.save",
				attribute.String("file", args[1]),
				attribute.String("algorithm", string(cfg.Algorithm)))
			defer func() { op.End(err) }()

			t, err := a.loadCSV(args[0])
			if err != nil {
				return err
			}
			f, err := os.Create(args[1]) //nolint:gosec // G304: path comes from the command line
			if err != nil {
				return vterrors.Wrap(err, vterrors.ErrorTypeFile, "failed to create snapshot").WithDetail("path", args[1])
			}
			defer func() {
				if cerr := f.Close(); err == nil && cerr != nil {
					err = vterrors.Wrap(cerr, vterrors.ErrorTypeFile, "failed to close snapshot")
				}
			}()

			bw := bufio.NewWriter(f)
			n, err := columnar.SaveSnapshot(bw, t, &cfg)
			if err != nil {
				return err
			}
			if err := bw.Flush(); err != nil {
				return vterrors.Wrap(err, vterrors.ErrorTypeFile, "failed to write snapshot")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows, %d columns to %s (%s, %d bytes)\n",
				t.RowCount(), t.ColumnCount(), args[1], cfg.Algorithm, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "Compression algorithm (none, gzip, snappy, lz4, zstd, s2, deflate)")
	cmd.Flags().StringVar(&level, "level", "", "Compression level (fastest, default, better, best)")
	return cmd
}

func (a *app) newSnapshotLoadCmd() *cobra.Command {
	var output exportOptions
	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Read a snapshot and export its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			_, op := observability.StartOperation(cmd.Context(), "snapshot.load", attribute.String("file", args[0]))
			defer func() { op.End(err) }()

			f, err := os.Open(args[0]) //nolint:gosec // G304: path comes from the command line
			if err != nil {
				return vterrors.Wrap(err, vterrors.ErrorTypeFile, "failed to open snapshot").WithDetail("path", args[0])
			}
			defer f.Close()

			t, err := columnar.LoadSnapshot(f)
			if err != nil {
				return err
			}
			op.SetAttributes(attribute.Int("rows", t.RowCount()))
			return export(cmd, t, output)
		},
	}
	output.register(cmd)
	return cmd
}
