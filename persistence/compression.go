package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/arushisharma17/ConceptX/internal/conv"
)

// CompressionType selects how index payload blocks are stored.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0
	// CompressionLZ4 favours load speed.
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD favours blob size.
	CompressionZSTD CompressionType = 2
)

// ErrUnknownCompression is returned for an unsupported compression name or code.
var ErrUnknownCompression = errors.New("unknown compression")

var compressionNames = map[CompressionType]string{
	CompressionNone: "none",
	CompressionLZ4:  "lz4",
	CompressionZSTD: "zstd",
}

func (c CompressionType) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// ParseCompression parses "none", "lz4" or "zstd". The empty string means none.
func ParseCompression(s string) (CompressionType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CompressionNone, nil
	}
	for c, name := range compressionNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
}

// blockCodec compresses single blocks. encode may return nil when the
// block does not compress.
type blockCodec interface {
	encode(src []byte) ([]byte, error)
	decode(src []byte, size int) ([]byte, error)
}

func codecFor(c CompressionType) (blockCodec, error) {
	switch c {
	case CompressionNone:
		return nil, nil
	case CompressionLZ4:
		return lz4Codec{}, nil
	case CompressionZSTD:
		return zstdCodec{}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
}

type lz4Codec struct{}

func (lz4Codec) encode(src []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil || n == 0 {
		return nil, err
	}
	return dst[:n], nil
}

func (lz4Codec) decode(src []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

var (
	zstdEncoders = sync.Pool{New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		return enc
	}}
	zstdDecoders = sync.Pool{New: func() any {
		dec, _ := zstd.NewReader(nil)
		return dec
	}}
)

type zstdCodec struct{}

func (zstdCodec) encode(src []byte) ([]byte, error) {
	enc := zstdEncoders.Get().(*zstd.Encoder)
	defer zstdEncoders.Put(enc)
	return enc.EncodeAll(src, nil), nil
}

func (zstdCodec) decode(src []byte, size int) ([]byte, error) {
	dec := zstdDecoders.Get().(*zstd.Decoder)
	defer zstdDecoders.Put(dec)
	return dec.DecodeAll(src, make([]byte, 0, size))
}

// Each block is [raw size uint32][stored size uint32][body]. A stored size
// of 0 marks a raw body.
const (
	blockHeaderSize  = 8
	defaultBlockSize = 256 << 10
	// Blocks that do not shrink below this fraction are kept raw.
	minSavings = 0.9
)

// CompressedBlockWriter splits a stream into independently compressed blocks.
type CompressedBlockWriter struct {
	w         io.Writer
	codec     blockCodec
	codecErr  error
	blockSize int
	pending   []byte
	written   int64
}

// NewCompressedBlockWriter returns a writer producing blocks of at most
// blockSize raw bytes. A non-positive blockSize selects 256 KiB.
func NewCompressedBlockWriter(w io.Writer, compression CompressionType, blockSize int) *CompressedBlockWriter {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	codec, err := codecFor(compression)
	return &CompressedBlockWriter{
		w:         w,
		codec:     codec,
		codecErr:  err,
		blockSize: blockSize,
		pending:   make([]byte, 0, blockSize),
	}
}

// Write buffers p, emitting a block each time blockSize bytes accumulate.
func (c *CompressedBlockWriter) Write(p []byte) (int, error) {
	if c.codecErr != nil {
		return 0, c.codecErr
	}

	total := 0
	for len(p) > 0 {
		n := min(len(p), c.blockSize-len(c.pending))
		c.pending = append(c.pending, p[:n]...)
		total += n
		p = p[n:]

		if len(c.pending) == c.blockSize {
			if err := c.Flush(); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// Flush emits the buffered bytes as a final, possibly short, block.
func (c *CompressedBlockWriter) Flush() error {
	if c.codecErr != nil {
		return c.codecErr
	}
	if len(c.pending) == 0 {
		return nil
	}

	block, err := c.encodeBlock(c.pending)
	if err != nil {
		return err
	}

	n, err := c.w.Write(block)
	c.written += int64(n)
	if err != nil {
		return err
	}
	c.pending = c.pending[:0]
	return nil
}

// BytesWritten returns the number of encoded bytes emitted so far.
func (c *CompressedBlockWriter) BytesWritten() int64 {
	return c.written
}

func (c *CompressedBlockWriter) encodeBlock(raw []byte) ([]byte, error) {
	rawSize, err := conv.IntToUint32(len(raw))
	if err != nil {
		return nil, err
	}

	var body []byte
	if c.codec != nil {
		if body, err = c.codec.encode(raw); err != nil {
			return nil, err
		}
	}

	stored := uint32(0)
	if len(body) > 0 && float64(len(body)) <= float64(len(raw))*minSavings {
		stored = uint32(len(body))
	} else {
		body = raw
	}

	out := make([]byte, blockHeaderSize, blockHeaderSize+len(body))
	binary.LittleEndian.PutUint32(out[0:], rawSize)
	binary.LittleEndian.PutUint32(out[4:], stored)
	return append(out, body...), nil
}

// DecompressAll decodes every block written by a CompressedBlockWriter.
func DecompressAll(data []byte, compression CompressionType) ([]byte, error) {
	codec, err := codecFor(compression)
	if err != nil {
		return nil, err
	}

	var out []byte
	for off := 0; off < len(data); {
		if len(data)-off < blockHeaderSize {
			return nil, fmt.Errorf("%w: block header at offset %d", ErrTruncated, off)
		}

		raw := int(binary.LittleEndian.Uint32(data[off:]))
		stored := int(binary.LittleEndian.Uint32(data[off+4:]))
		off += blockHeaderSize

		if stored == 0 {
			if len(data)-off < raw {
				return nil, fmt.Errorf("%w: raw block of %d bytes at offset %d", ErrTruncated, raw, off)
			}
			out = append(out, data[off:off+raw]...)
			off += raw
			continue
		}

		if len(data)-off < stored {
			return nil, fmt.Errorf("%w: compressed block of %d bytes at offset %d", ErrTruncated, stored, off)
		}
		if codec == nil {
			return nil, fmt.Errorf("%w: compressed block in uncompressed blob", ErrUnknownCompression)
		}

		block, err := codec.decode(data[off:off+stored], raw)
		if err != nil {
			return nil, err
		}
		if len(block) != raw {
			return nil, fmt.Errorf("%w: block decoded to %d of %d bytes", ErrTruncated, len(block), raw)
		}

		out = append(out, block...)
		off += stored
	}

	return out, nil
}
