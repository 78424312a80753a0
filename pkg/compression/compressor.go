// Package compression provides the codecs used for table snapshots.
//
// # Algorithm Selection
//
//   - Snappy/S2: Best for speed, moderate compression
//   - LZ4: Extremely fast, decent compression
//   - Zstd: Best compression ratio, good speed
//   - Gzip/Deflate: Wide compatibility
//
// # Basic Usage
//
//	comp, err := compression.NewCompressor(&compression.Config{
//	    Algorithm: compression.Zstd,
//	    Level:     compression.Better,
//	})
//
//	compressed, err := comp.Compress(data)
//	original, err := comp.Decompress(compressed)
package compression

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	vterrors "github.com/seasr/vtable/pkg/errors"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
	// Deflate represents deflate compression
	Deflate Algorithm = "deflate"
)

// Algorithms lists every supported algorithm
var Algorithms = []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2, Deflate}

// ParseAlgorithm resolves an algorithm name, case-insensitively
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Algorithms {
		if a == known {
			return a, nil
		}
	}
	return "", vterrors.Newf(vterrors.ErrorTypeValidation, "unsupported compression algorithm: %s", name)
}

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

func (l Level) String() string {
	switch l {
	case Fastest:
		return "fastest"
	case Default:
		return "default"
	case Better:
		return "better"
	case Best:
		return "best"
	default:
		return "custom"
	}
}

// ParseLevel resolves a level name; unknown names map to Default
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fastest":
		return Fastest
	case "better":
		return Better
	case "best":
		return Best
	default:
		return Default
	}
}

// Compressor provides compression and decompression functionality.
// All implementations are safe for concurrent use.
type Compressor interface {
	// Compress compresses data and returns the compressed bytes.
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data and returns the original bytes.
	Decompress(data []byte) ([]byte, error)

	// CompressStream compresses from reader to writer.
	CompressStream(dst io.Writer, src io.Reader) error

	// DecompressStream decompresses from reader to writer.
	DecompressStream(dst io.Writer, src io.Reader) error

	// Algorithm returns the compression algorithm used.
	Algorithm() Algorithm

	// Level returns the compression level configured.
	Level() Level
}

// Config represents compressor configuration.
type Config struct {
	Algorithm Algorithm `yaml:"algorithm" mapstructure:"algorithm"`
	Level     Level     `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the snapshot default: zstd at the default level
func DefaultConfig() *Config {
	return &Config{
		Algorithm: Zstd,
		Level:     Default,
	}
}

// NewCompressor creates a new compressor based on the provided configuration.
// If config is nil, default configuration is used.
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Algorithm {
	case None:
		return &noneCompressor{baseCompressor{algorithm: None, level: config.Level}}, nil
	case Gzip:
		return newStreamCompressor(Gzip, config.Level, gzipCodec(config.Level)), nil
	case Snappy:
		return &snappyCompressor{baseCompressor{algorithm: Snappy, level: config.Level}}, nil
	case LZ4:
		return newStreamCompressor(LZ4, config.Level, lz4Codec(config.Level)), nil
	case Zstd:
		return newZstdCompressor(config)
	case S2:
		return &s2Compressor{baseCompressor{algorithm: S2, level: config.Level}}, nil
	case Deflate:
		return newStreamCompressor(Deflate, config.Level, deflateCodec(config.Level)), nil
	default:
		return nil, vterrors.Newf(vterrors.ErrorTypeValidation, "unsupported compression algorithm: %s", config.Algorithm)
	}
}

type baseCompressor struct {
	algorithm Algorithm
	level     Level
}

// Algorithm returns the compression algorithm
func (bc *baseCompressor) Algorithm() Algorithm {
	return bc.algorithm
}

// Level returns the compression level
func (bc *baseCompressor) Level() Level {
	return bc.level
}

// None compressor (no compression)
type noneCompressor struct {
	baseCompressor
}

func (nc *noneCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (nc *noneCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

func (nc *noneCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	return err
}

func (nc *noneCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	return err
}

// streamCodec opens the writer and reader of a framed stream format
type streamCodec struct {
	newWriter func(w io.Writer) (io.WriteCloser, error)
	newReader func(r io.Reader) (io.Reader, error)
}

// streamCompressor implements the block API on top of a stream codec
type streamCompressor struct {
	baseCompressor
	codec streamCodec
}

func newStreamCompressor(a Algorithm, level Level, codec streamCodec) *streamCompressor {
	return &streamCompressor{
		baseCompressor: baseCompressor{algorithm: a, level: level},
		codec:          codec,
	}
}

func (sc *streamCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := sc.CompressStream(&buf, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (sc *streamCompressor) Decompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := sc.DecompressStream(&buf, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (sc *streamCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	w, err := sc.codec.newWriter(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (sc *streamCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	r, err := sc.codec.newReader(src)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, r)
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
	return err
}

func gzipCodec(level Level) streamCodec {
	return streamCodec{
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriterLevel(w, mapGzipLevel(level))
		},
		newReader: func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		},
	}
}

func deflateCodec(level Level) streamCodec {
	return streamCodec{
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(w, mapDeflateLevel(level))
		},
		newReader: func(r io.Reader) (io.Reader, error) {
			return flate.NewReader(r), nil
		},
	}
}

func lz4Codec(level Level) streamCodec {
	return streamCodec{
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			zw := lz4.NewWriter(w)
			if err := zw.Apply(lz4.CompressionLevelOption(mapLZ4Level(level))); err != nil {
				return nil, err
			}
			return zw, nil
		},
		newReader: func(r io.Reader) (io.Reader, error) {
			return lz4.NewReader(r), nil
		},
	}
}

// Snappy compressor
type snappyCompressor struct {
	baseCompressor
}

func (sc *snappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (sc *snappyCompressor) Decompress(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}

func (sc *snappyCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	w := snappy.NewBufferedWriter(dst)
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (sc *snappyCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, snappy.NewReader(src))
	return err
}

// S2 compressor (Snappy-compatible but better compression)
type s2Compressor struct {
	baseCompressor
}

func (sc *s2Compressor) Compress(data []byte) ([]byte, error) {
	if sc.level >= Better {
		return s2.EncodeBetter(nil, data), nil
	}
	return s2.Encode(nil, data), nil
}

func (sc *s2Compressor) Decompress(data []byte) ([]byte, error) {
	return s2.Decode(nil, data)
}

func (sc *s2Compressor) CompressStream(dst io.Writer, src io.Reader) error {
	w := s2.NewWriter(dst)
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (sc *s2Compressor) DecompressStream(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, s2.NewReader(src))
	return err
}

// Zstd compressor
type zstdCompressor struct {
	baseCompressor
	encoderPool sync.Pool
	decoderPool sync.Pool
}

func newZstdCompressor(config *Config) (*zstdCompressor, error) {
	level := mapZstdLevel(config.Level)

	zc := &zstdCompressor{
		baseCompressor: baseCompressor{
			algorithm: Zstd,
			level:     config.Level,
		},
	}

	zc.encoderPool.New = func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		return enc
	}

	zc.decoderPool.New = func() any {
		dec, _ := zstd.NewReader(nil)
		return dec
	}

	return zc, nil
}

func (zc *zstdCompressor) Compress(data []byte) ([]byte, error) {
	enc := zc.encoderPool.Get().(*zstd.Encoder)
	defer zc.encoderPool.Put(enc)

	return enc.EncodeAll(data, nil), nil
}

func (zc *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	dec := zc.decoderPool.Get().(*zstd.Decoder)
	defer zc.decoderPool.Put(dec)

	return dec.DecodeAll(data, nil)
}

func (zc *zstdCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	enc := zc.encoderPool.Get().(*zstd.Encoder)
	defer zc.encoderPool.Put(enc)

	enc.Reset(dst)
	if _, err := io.Copy(enc, src); err != nil {
		return err
	}
	return enc.Close()
}

func (zc *zstdCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	dec := zc.decoderPool.Get().(*zstd.Decoder)
	defer zc.decoderPool.Put(dec)

	if err := dec.Reset(src); err != nil {
		return err
	}

	_, err := io.Copy(dst, dec)
	return err
}

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func mapDeflateLevel(level Level) int {
	switch level {
	case Fastest:
		return flate.BestSpeed
	case Best:
		return flate.BestCompression
	default:
		return flate.DefaultCompression
	}
}
