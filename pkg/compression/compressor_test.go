package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vterrors "github.com/seasr/vtable/pkg/errors"
)

func snapshotLikeData() []byte {
	return bytes.Repeat([]byte(`{"name":"price","type":"double","rows":[0,4,9],"values":[1.5,2.25,9]}`), 200)
}

func TestCompressorRoundTrip(t *testing.T) {
	original := snapshotLikeData()

	for _, algo := range Algorithms {
		t.Run(string(algo), func(t *testing.T) {
			compressor, err := NewCompressor(&Config{Algorithm: algo, Level: Default})
			require.NoError(t, err)
			assert.Equal(t, algo, compressor.Algorithm())
			assert.Equal(t, Default, compressor.Level())

			compressed, err := compressor.Compress(original)
			require.NoError(t, err)
			if algo != None {
				assert.Less(t, len(compressed), len(original))
			}

			decompressed, err := compressor.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, original, decompressed)
		})
	}
}

func TestCompressorStreamRoundTrip(t *testing.T) {
	original := snapshotLikeData()

	for _, algo := range Algorithms {
		t.Run(string(algo), func(t *testing.T) {
			compressor, err := NewCompressor(&Config{Algorithm: algo, Level: Fastest})
			require.NoError(t, err)

			var compressed bytes.Buffer
			require.NoError(t, compressor.CompressStream(&compressed, bytes.NewReader(original)))

			var decompressed bytes.Buffer
			require.NoError(t, compressor.DecompressStream(&decompressed, &compressed))
			assert.Equal(t, original, decompressed.Bytes())
		})
	}
}

func TestLZ4CompressionLevels(t *testing.T) {
	levels := []Level{Fastest, Default, Better, Best}
	testData := bytes.Repeat([]byte("test data for compression "), 100)

	for _, level := range levels {
		t.Run(level.String(), func(t *testing.T) {
			compressor, err := NewCompressor(&Config{Algorithm: LZ4, Level: level})
			require.NoError(t, err)

			compressed, err := compressor.Compress(testData)
			require.NoError(t, err)

			decompressed, err := compressor.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, testData, decompressed)
		})
	}
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm(" ZSTD ")
	require.NoError(t, err)
	assert.Equal(t, Zstd, a)

	_, err = ParseAlgorithm("brotli")
	require.Error(t, err)
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeValidation))

	_, err = NewCompressor(&Config{Algorithm: "brotli"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Best, ParseLevel("best"))
	assert.Equal(t, Fastest, ParseLevel("Fastest"))
	assert.Equal(t, Default, ParseLevel("whatever"))
}
