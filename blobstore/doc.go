// Package blobstore provides storage for ConceptX run artifacts.
//
// A clustering run persists up to three artifacts: the freshly built index
// blob, the cluster assignment file and a JSON run report. The CLI resolves
// the output location to one of the implementations below.
//
//   - LocalStore: local directory; reads are memory mapped, writes are atomic
//   - MemoryStore: in-process map, used by tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible servers
//
// Implementations must be safe for concurrent use.
package blobstore
