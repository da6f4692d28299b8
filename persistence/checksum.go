package persistence

import (
	"errors"
	"fmt"
	"hash"
	"io"

	crc "github.com/arushisharma17/ConceptX/internal/hash"
)

// Index payloads are covered by CRC32-Castagnoli. It catches storage and
// transfer corruption, not tampering.

// CalculateChecksum returns the payload checksum stored in FileHeader.
func CalculateChecksum(data []byte) uint32 {
	return crc.CRC32C(data)
}

// ChecksumReader hashes everything read through it.
type ChecksumReader struct {
	r io.Reader
	h hash.Hash32
}

// NewChecksumReader wraps r.
func NewChecksumReader(r io.Reader) *ChecksumReader {
	return &ChecksumReader{r: r, h: crc.NewCRC32C()}
}

func (cr *ChecksumReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	// hash.Hash never returns an error from Write.
	_, _ = cr.h.Write(p[:n])
	return n, err
}

// Verify compares the checksum of the bytes read so far with want.
func (cr *ChecksumReader) Verify(want uint32) error {
	if got := cr.h.Sum32(); got != want {
		return &ChecksumMismatchError{Expected: want, Actual: got}
	}
	return nil
}

// ChecksumMismatchError reports a corrupt index payload.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("index payload checksum mismatch: header has 0x%08x, payload hashes to 0x%08x", e.Expected, e.Actual)
}

// IsChecksumMismatch reports whether err wraps a ChecksumMismatchError.
func IsChecksumMismatch(err error) bool {
	var target *ChecksumMismatchError
	return errors.As(err, &target)
}
