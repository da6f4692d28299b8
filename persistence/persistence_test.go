package persistence

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/arushisharma17/ConceptX/index"
	"github.com/arushisharma17/ConceptX/index/flat"
	"github.com/arushisharma17/ConceptX/index/hnsw"
	"github.com/arushisharma17/ConceptX/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderSize(t *testing.T) {
	assert.Equal(t, headerSize, binary.Size(FileHeader{}))
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]CompressionType{
		"":     CompressionNone,
		"none": CompressionNone,
		"LZ4":  CompressionLZ4,
		"zstd": CompressionZSTD,
	} {
		got, err := ParseCompression(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCompression("snappy")
	assert.ErrorIs(t, err, ErrUnknownCompression)
	assert.Equal(t, "zstd", CompressionZSTD.String())
}

func TestCompressedBlocks(t *testing.T) {
	data := bytes.Repeat([]byte("conceptx leaders "), 4096)

	for _, c := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewCompressedBlockWriter(&buf, c, 1024)
			n, err := w.Write(data)
			require.NoError(t, err)
			assert.Equal(t, len(data), n)
			require.NoError(t, w.Flush())
			assert.Equal(t, int64(buf.Len()), w.BytesWritten())

			if c != CompressionNone {
				assert.Less(t, buf.Len(), len(data))
			}

			out, err := DecompressAll(buf.Bytes(), c)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestCompressedBlocks_RawFallback(t *testing.T) {
	data := make([]byte, 512)
	for i := range data {
		data[i] = byte(i*131 + i/7)
	}

	var buf bytes.Buffer
	w := NewCompressedBlockWriter(&buf, CompressionLZ4, 0)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	require.Equal(t, blockHeaderSize+len(data), buf.Len())
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf.Bytes()[4:]))

	out, err := DecompressAll(buf.Bytes(), CompressionLZ4)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestCompressedBlocks_UnknownType(t *testing.T) {
	w := NewCompressedBlockWriter(&bytes.Buffer{}, CompressionType(9), 0)
	_, err := w.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrUnknownCompression)
	assert.ErrorIs(t, w.Flush(), ErrUnknownCompression)

	_, err = DecompressAll(nil, CompressionType(9))
	assert.ErrorIs(t, err, ErrUnknownCompression)
	assert.Equal(t, "unknown(9)", CompressionType(9).String())
}

func TestDecompressTruncated(t *testing.T) {
	_, err := DecompressAll([]byte{1, 2, 3}, CompressionNone)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestSaveLoadIndex(t *testing.T) {
	rng := testutil.NewRNG(7)
	vectors := rng.UniformVectors(200, 8)

	f, err := flat.New(vectors)
	require.NoError(t, err)

	h, err := hnsw.Build(context.Background(), vectors)
	require.NoError(t, err)

	for _, idx := range []index.Index{f, h} {
		for _, c := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
			t.Run(idx.Name()+"/"+c.String(), func(t *testing.T) {
				data, err := EncodeIndex(idx, c)
				require.NoError(t, err)

				header, err := ReadHeader(bytes.NewReader(data))
				require.NoError(t, err)
				assert.Equal(t, uint64(200), header.VectorCount)
				assert.Equal(t, uint32(8), header.Dimension)
				assert.Equal(t, uint8(c), header.Compression)

				loaded, err := DecodeIndex(data)
				require.NoError(t, err)
				assert.Equal(t, idx.Name(), loaded.Name())
				assert.Equal(t, idx.Len(), loaded.Len())

				want, err := idx.Query(17, 5)
				require.NoError(t, err)
				got, err := loaded.Query(17, 5)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			})
		}
	}
}

func TestLoadIndexErrors(t *testing.T) {
	f, err := flat.New([][]float64{{0, 0}, {1, 1}})
	require.NoError(t, err)

	data, err := EncodeIndex(f, CompressionZSTD)
	require.NoError(t, err)

	t.Run("Magic", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] ^= 0xff
		_, err := DecodeIndex(bad)
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("Version", func(t *testing.T) {
		bad := bytes.Clone(data)
		binary.LittleEndian.PutUint32(bad[4:], 0x00020000)
		_, err := DecodeIndex(bad)
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})

	t.Run("Checksum", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[len(bad)-1] ^= 0xff
		_, err := DecodeIndex(bad)
		assert.True(t, IsChecksumMismatch(err))
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := DecodeIndex(data[:len(data)-3])
		assert.ErrorIs(t, err, ErrTruncated)

		_, err = DecodeIndex(data[:10])
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, err := EncodeIndex(nil, CompressionNone)
		assert.ErrorIs(t, err, ErrInvalidIndex)
	})
}
