// Package persistence serializes nearest neighbour indexes into
// self-describing blobs.
//
// A blob starts with a fixed little-endian FileHeader followed by the
// payload: the gob encoding of the index, split into blocks that are
// optionally LZ4 or ZSTD compressed. The header carries a CRC32C of the stored
// payload so that corrupted blobs are rejected before decoding.
package persistence
