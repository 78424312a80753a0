// Package json wraps goccy/go-json with pooled buffers and a streaming
// encoder for table export.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

var bufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// Marshal is a drop-in replacement for json.Marshal
func Marshal(v any) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v any) error {
	return gojson.Unmarshal(data, v)
}

// NewDecoder returns a decoder reading from r
func NewDecoder(r io.Reader) *gojson.Decoder {
	return gojson.NewDecoder(r)
}

// MarshalToBuffer marshals v to a pooled buffer. The caller returns the
// buffer with PutBuffer.
func MarshalToBuffer(v any) (*bytes.Buffer, error) {
	buf := GetBuffer()

	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		PutBuffer(buf)
		return nil, err
	}

	return buf, nil
}

// StreamingEncoder writes values either as a JSON array or as JSON lines
type StreamingEncoder struct {
	writer      io.Writer
	encoder     *gojson.Encoder
	firstRecord bool
	isArray     bool
	pretty      bool
	err         error
}

// NewStreamingEncoder creates a new streaming encoder
func NewStreamingEncoder(w io.Writer, isArray bool) *StreamingEncoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)

	se := &StreamingEncoder{
		writer:      w,
		encoder:     enc,
		firstRecord: true,
		isArray:     isArray,
	}

	if isArray {
		se.write([]byte{'['})
	}

	return se
}

// SetPretty enables pretty printing
func (se *StreamingEncoder) SetPretty(pretty bool, indent string) {
	se.pretty = pretty
	if pretty {
		se.encoder.SetIndent("", indent)
	}
}

func (se *StreamingEncoder) write(p []byte) {
	if se.err != nil {
		return
	}
	_, se.err = se.writer.Write(p)
}

// Encode encodes a single value
func (se *StreamingEncoder) Encode(v any) error {
	if se.isArray {
		if !se.firstRecord {
			se.write([]byte{','})
		}
		se.firstRecord = false
	}
	if se.err != nil {
		return se.err
	}

	// The encoder terminates each value with a newline
	se.err = se.encoder.Encode(v)
	return se.err
}

// Close finalizes the encoding
func (se *StreamingEncoder) Close() error {
	if se.isArray {
		se.write([]byte{']', '\n'})
	}
	return se.err
}
