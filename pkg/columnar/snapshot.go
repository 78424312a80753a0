package columnar

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/seasr/vtable/pkg/compression"
	vterrors "github.com/seasr/vtable/pkg/errors"
	"github.com/seasr/vtable/pkg/json"
	"github.com/seasr/vtable/pkg/logger"
	"github.com/seasr/vtable/pkg/metrics"
)

const (
	snapshotMagic   = "VTBL"
	snapshotVersion = 1

	// Bodies up to this size are compressed as a single block
	blockBodyLimit = 64 << 10
)

// Body framings
const (
	bodyStream byte = iota
	bodyBlock
)

type snapshotColumn struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment,omitempty"`
	Rows    []int  `json:"rows"`
	Values  []any  `json:"values"`
	Missing []int  `json:"missing,omitempty"`
	Empty   []int  `json:"empty,omitempty"`
}

type snapshot struct {
	Version  int              `json:"version"`
	RowCount int              `json:"row_count"`
	Defaults Defaults         `json:"defaults"`
	Columns  []snapshotColumn `json:"columns"`
}

// countingWriter counts bytes written through it
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// SaveSnapshot writes the table's sparse entries and flags, compressed with
// cfg, and returns the number of bytes written. Only stored values are
// written; default rows stay implicit. Small bodies are compressed in one
// block, larger ones through the algorithm's stream format.
func SaveSnapshot(w io.Writer, t *Table, cfg *compression.Config) (int64, error) {
	if cfg == nil {
		cfg = compression.DefaultConfig()
	}
	comp, err := compression.NewCompressor(cfg)
	if err != nil {
		return 0, err
	}

	payload, err := json.MarshalToBuffer(t.snapshot())
	if err != nil {
		return 0, vterrors.Wrap(err, vterrors.ErrorTypeInternal, "cannot encode snapshot")
	}
	defer json.PutBuffer(payload)

	framing := bodyStream
	if payload.Len() <= blockBodyLimit {
		framing = bodyBlock
	}

	cw := &countingWriter{w: w}
	header := make([]byte, 0, len(snapshotMagic)+3+len(cfg.Algorithm))
	header = append(header, snapshotMagic...)
	header = append(header, snapshotVersion, framing, byte(len(cfg.Algorithm)))
	header = append(header, cfg.Algorithm...)
	if _, err := cw.Write(header); err != nil {
		return cw.n, vterrors.Wrap(err, vterrors.ErrorTypeFile, "cannot write snapshot header")
	}
	if err := writeBody(cw, comp, framing, payload); err != nil {
		return cw.n, vterrors.Wrap(err, vterrors.ErrorTypeFile, "cannot write snapshot body").
			WithDetail("algorithm", string(cfg.Algorithm))
	}

	metrics.SnapshotBytes.WithLabelValues(string(cfg.Algorithm)).Observe(float64(cw.n))
	logger.Debug("snapshot saved",
		zap.String("algorithm", string(cfg.Algorithm)),
		zap.Int64("bytes", cw.n))
	return cw.n, nil
}

func writeBody(w io.Writer, comp compression.Compressor, framing byte, payload *bytes.Buffer) error {
	if framing == bodyStream {
		return comp.CompressStream(w, payload)
	}
	block, err := comp.Compress(payload.Bytes())
	if err != nil {
		return err
	}
	_, err = w.Write(block)
	return err
}

func readBody(r io.Reader, comp compression.Compressor, framing byte) (*bytes.Buffer, error) {
	if framing == bodyStream {
		var payload bytes.Buffer
		if err := comp.DecompressStream(&payload, r); err != nil {
			return nil, err
		}
		return &payload, nil
	}
	block, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data, err := comp.Decompress(block)
	if err != nil {
		return nil, err
	}
	return bytes.NewBuffer(data), nil
}

func (t *Table) snapshot() *snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := &snapshot{
		Version:  snapshotVersion,
		RowCount: t.rowCount,
		Defaults: t.defaults,
		Columns:  make([]snapshotColumn, 0, len(t.columns)),
	}
	for _, col := range t.columns {
		sc := snapshotColumn{
			Name:    col.Label(),
			Type:    col.Type().String(),
			Comment: col.Comment(),
			Rows:    make([]int, 0, col.NumEntries()),
			Values:  make([]any, 0, col.NumEntries()),
			Missing: col.MissingRows(),
			Empty:   col.EmptyRows(),
		}
		col.ForEachEntry(func(row int, v any) bool {
			sc.Rows = append(sc.Rows, row)
			sc.Values = append(sc.Values, jsonFloat(v))
			return true
		})
		snap.Columns = append(snap.Columns, sc)
	}
	return snap
}

// LoadSnapshot reads a table written by SaveSnapshot
func LoadSnapshot(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)

	head := make([]byte, len(snapshotMagic)+3)
	if _, err := io.ReadFull(br, head); err != nil {
		return nil, vterrors.Wrap(err, vterrors.ErrorTypeData, "cannot read snapshot header")
	}
	if string(head[:len(snapshotMagic)]) != snapshotMagic {
		return nil, vterrors.New(vterrors.ErrorTypeData, "not a vtable snapshot")
	}
	if v := head[len(snapshotMagic)]; v != snapshotVersion {
		return nil, vterrors.Newf(vterrors.ErrorTypeData, "unsupported snapshot version %d", v)
	}
	framing := head[len(snapshotMagic)+1]
	if framing != bodyStream && framing != bodyBlock {
		return nil, vterrors.Newf(vterrors.ErrorTypeData, "unknown snapshot body framing %d", framing)
	}
	name := make([]byte, head[len(snapshotMagic)+2])
	if _, err := io.ReadFull(br, name); err != nil {
		return nil, vterrors.Wrap(err, vterrors.ErrorTypeData, "cannot read snapshot header")
	}
	algo, err := compression.ParseAlgorithm(string(name))
	if err != nil {
		return nil, err
	}
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: algo, Level: compression.Default})
	if err != nil {
		return nil, err
	}

	payload, err := readBody(br, comp, framing)
	if err != nil {
		return nil, vterrors.Wrap(err, vterrors.ErrorTypeData, "cannot decompress snapshot").
			WithDetail("algorithm", string(algo))
	}

	var snap snapshot
	dec := json.NewDecoder(payload)
	dec.UseNumber()
	if err := dec.Decode(&snap); err != nil {
		return nil, vterrors.Wrap(err, vterrors.ErrorTypeData, "cannot decode snapshot")
	}

	t, err := snap.table()
	if err != nil {
		return nil, err
	}
	metrics.RowsLoaded.WithLabelValues("snapshot").Add(float64(snap.RowCount))
	return t, nil
}

func (s *snapshot) table() (*Table, error) {
	t := NewTable(WithDefaults(s.Defaults))
	for _, sc := range s.Columns {
		colType, ok := ParseColumnType(sc.Type)
		if !ok {
			return nil, vterrors.Newf(vterrors.ErrorTypeData, "unknown column type %q", sc.Type).
				WithDetail("column", sc.Name)
		}
		if len(sc.Rows) != len(sc.Values) {
			return nil, vterrors.New(vterrors.ErrorTypeData, "snapshot rows and values differ in length").
				WithDetail("column", sc.Name)
		}
		if err := t.AddColumn(sc.Name, colType); err != nil {
			return nil, err
		}
		col, _ := t.Column(sc.Name)
		col.SetComment(sc.Comment)
		for i, row := range sc.Rows {
			if err := col.Set(row, numberValue(colType, sc.Values[i])); err != nil {
				return nil, vterrors.Wrap(err, vterrors.ErrorTypeData, "cannot restore snapshot value").
					WithDetail("column", sc.Name).
					WithDetail("row", row)
			}
		}
		for _, row := range sc.Missing {
			col.SetValueToMissing(row, true)
		}
		for _, row := range sc.Empty {
			col.SetValueToEmpty(row, true)
		}
	}
	t.SetRowCount(s.RowCount)
	return t, nil
}

// numberValue unwraps a decoded JSON number into the column's Go type so
// 64-bit integers keep their precision.
func numberValue(colType ColumnType, v any) any {
	if s, isString := v.(string); isString && (colType == ColumnTypeFloat || colType == ColumnTypeDouble) {
		// Non-finite floats are stored as strings
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return v
	}
	n, ok := v.(interface {
		Int64() (int64, error)
		Float64() (float64, error)
	})
	if !ok {
		return v
	}
	switch colType {
	case ColumnTypeFloat, ColumnTypeDouble:
		if f, err := n.Float64(); err == nil {
			return f
		}
	default:
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	return v
}
