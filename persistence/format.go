package persistence

import "errors"

const (
	// MagicNumber identifies ConceptX index blobs (ASCII: "CXI1")
	MagicNumber = 0x43584931
	// Version is the current blob format version (v1.0.0)
	Version = 0x00010000
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrInvalidIndex   = errors.New("invalid index type")
	ErrTruncated      = errors.New("truncated blob")
)

// FileHeader is the 40-byte header at the start of every index blob.
type FileHeader struct {
	Magic       uint32 // 0x43584931 ("CXI1")
	Version     uint32 // Blob format version
	IndexType   uint8  // 1=Flat, 2=HNSW
	Compression uint8  // CompressionType of the payload blocks
	Padding1    [2]byte
	Dimension   uint32 // Vector dimensionality
	VectorCount uint64 // Number of indexed points
	PayloadSize uint64 // Stored payload bytes following the header
	Checksum    uint32 // CRC32C of the stored payload
	Padding2    [4]byte
}

// headerSize is the encoded size of FileHeader.
const headerSize = 40
