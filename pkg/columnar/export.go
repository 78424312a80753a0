package columnar

import (
	"io"
	"math"
	"strconv"

	vterrors "github.com/seasr/vtable/pkg/errors"
	"github.com/seasr/vtable/pkg/json"
	"github.com/seasr/vtable/pkg/metrics"
)

// JSONOption configures WriteJSON
type JSONOption func(*json.StreamingEncoder)

// WithIndent indents each row object by indent per nesting level
func WithIndent(indent string) JSONOption {
	return func(enc *json.StreamingEncoder) { enc.SetPretty(indent != "", indent) }
}

// WriteJSON writes every row as a JSON object, either as JSON lines or, when
// asArray is set, as a single array. Missing and empty cells are null and
// chars are written as one-character strings. NaN and infinities, which JSON
// numbers cannot hold, are written as the strings "NaN", "+Inf" and "-Inf".
func (t *Table) WriteJSON(w io.Writer, asArray bool, opts ...JSONOption) error {
	enc := json.NewStreamingEncoder(w, asArray)
	for _, opt := range opts {
		opt(enc)
	}

	var chars, floats []string
	for _, f := range t.Schema().Fields {
		switch f.Type {
		case ColumnTypeChar:
			chars = append(chars, f.Name)
		case ColumnTypeFloat, ColumnTypeDouble:
			floats = append(floats, f.Name)
		}
	}

	it := t.NewIterator()
	for it.Next() {
		row := it.Row()
		for _, name := range chars {
			if r, ok := row[name].(rune); ok {
				row[name] = charString(r)
			}
		}
		for _, name := range floats {
			row[name] = jsonFloat(row[name])
		}
		if err := enc.Encode(row); err != nil {
			metrics.TableOperations.WithLabelValues("export", metrics.Status(err)).Inc()
			return vterrors.Wrap(err, vterrors.ErrorTypeFile, "cannot write json row").
				WithDetail("row", it.Index())
		}
	}
	err := enc.Close()
	metrics.TableOperations.WithLabelValues("export", metrics.Status(err)).Inc()
	if err != nil {
		return vterrors.Wrap(err, vterrors.ErrorTypeFile, "cannot finish json output")
	}
	return nil
}

func charString(r rune) string {
	if r == 0 {
		return ""
	}
	return string(r)
}

// jsonFloat returns v unchanged unless it is a non-finite float, which it
// spells out as a string that strconv.ParseFloat reads back.
func jsonFloat(v any) any {
	switch f := v.(type) {
	case float64:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
	case float32:
		if f64 := float64(f); math.IsNaN(f64) || math.IsInf(f64, 0) {
			return strconv.FormatFloat(f64, 'g', -1, 32)
		}
	}
	return v
}
