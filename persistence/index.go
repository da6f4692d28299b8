package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/arushisharma17/ConceptX/index"
	"github.com/arushisharma17/ConceptX/index/flat"
	"github.com/arushisharma17/ConceptX/index/hnsw"
	"github.com/arushisharma17/ConceptX/internal/conv"
)

// SaveIndex writes idx as a self-describing blob: header, then the
// block-compressed payload.
func SaveIndex(w io.Writer, idx index.Index, compression CompressionType) error {
	var (
		typ     index.Type
		payload bytes.Buffer
	)

	switch v := idx.(type) {
	case *flat.Flat:
		typ = index.TypeFlat
		if err := v.Encode(&payload); err != nil {
			return fmt.Errorf("encode flat index: %w", err)
		}
	case *hnsw.HNSW:
		typ = index.TypeHNSW
		if err := v.Encode(&payload); err != nil {
			return fmt.Errorf("encode hnsw index: %w", err)
		}
	default:
		return fmt.Errorf("%w: %T", ErrInvalidIndex, idx)
	}

	var stored bytes.Buffer
	bw := NewCompressedBlockWriter(&stored, compression, 0)
	if _, err := bw.Write(payload.Bytes()); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	dim, err := conv.IntToUint32(idx.Dimension())
	if err != nil {
		return fmt.Errorf("%w: dimension: %w", ErrInvalidIndex, err)
	}

	header := FileHeader{
		Magic:       MagicNumber,
		Version:     Version,
		IndexType:   uint8(typ),
		Compression: uint8(compression),
		Dimension:   dim,
		VectorCount: uint64(idx.Len()),
		PayloadSize: uint64(stored.Len()),
		Checksum:    CalculateChecksum(stored.Bytes()),
	}

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if _, err := w.Write(stored.Bytes()); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}

	return nil
}

// ReadHeader reads and validates the blob header.
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: header", ErrTruncated)
		}
		return nil, err
	}

	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, header.Magic)
	}

	if header.Version != Version {
		return nil, fmt.Errorf("%w: 0x%08x", ErrInvalidVersion, header.Version)
	}

	return &header, nil
}

// LoadIndex reads a blob written by SaveIndex.
func LoadIndex(r io.Reader) (index.Index, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	cr := NewChecksumReader(io.LimitReader(r, int64(header.PayloadSize)))

	stored, err := io.ReadAll(cr)
	if err != nil {
		return nil, err
	}

	if uint64(len(stored)) != header.PayloadSize {
		return nil, fmt.Errorf("%w: payload has %d of %d bytes", ErrTruncated, len(stored), header.PayloadSize)
	}

	if err := cr.Verify(header.Checksum); err != nil {
		return nil, err
	}

	payload, err := DecompressAll(stored, CompressionType(header.Compression))
	if err != nil {
		return nil, err
	}

	var idx index.Index

	switch index.Type(header.IndexType) {
	case index.TypeFlat:
		f, err := flat.Decode(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("decode flat index: %w", err)
		}
		idx = f
	case index.TypeHNSW:
		h, err := hnsw.Decode(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("decode hnsw index: %w", err)
		}
		idx = h
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidIndex, header.IndexType)
	}

	count, err := conv.Uint64ToInt(header.VectorCount)
	if err != nil {
		return nil, fmt.Errorf("%w: vector count: %w", ErrInvalidIndex, err)
	}

	if idx.Len() != count || idx.Dimension() != int(header.Dimension) {
		return nil, fmt.Errorf("%w: header describes %d×%d, payload holds %d×%d",
			ErrInvalidIndex, header.VectorCount, header.Dimension, idx.Len(), idx.Dimension())
	}

	return idx, nil
}

// EncodeIndex returns the blob bytes of idx.
func EncodeIndex(idx index.Index, compression CompressionType) ([]byte, error) {
	var buf bytes.Buffer
	if err := SaveIndex(&buf, idx, compression); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeIndex parses blob bytes produced by EncodeIndex.
func DecodeIndex(data []byte) (index.Index, error) {
	return LoadIndex(bytes.NewReader(data))
}
