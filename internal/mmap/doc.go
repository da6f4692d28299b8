// Package mmap provides read-only memory-mapped file access.
//
//	m, err := mmap.Open("leaders.ann")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AdviseSequential)
//	data := m.Bytes()
//
// Unix uses mmap(2) with madvise(2) hints. Windows uses
// CreateFileMapping/MapViewOfFile, where Advise is a no-op.
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers
// must not touch a slice returned by Bytes after Close returns.
package mmap
