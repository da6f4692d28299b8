package hnsw

import (
	"bytes"
	"encoding/gob"
	"io"
)

// Compile time checks to ensure HNSW satisfies the gob interfaces.
var (
	_ gob.GobEncoder = (*HNSW)(nil)
	_ gob.GobDecoder = (*HNSW)(nil)
)

// GobEncode method for HNSW.
func (h *HNSW) GobEncode() ([]byte, error) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)

	for _, v := range []any{h.dimension, h.ep, h.maxLevel, h.nodes, h.vectors, h.opts} {
		if err := encoder.Encode(v); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// GobDecode method for HNSW.
func (h *HNSW) GobDecode(data []byte) error {
	decoder := gob.NewDecoder(bytes.NewBuffer(data))

	for _, v := range []any{&h.dimension, &h.ep, &h.maxLevel, &h.nodes, &h.vectors, &h.opts} {
		if err := decoder.Decode(v); err != nil {
			return err
		}
	}

	h.init()

	return nil
}

// Encode writes the graph to w.
func (h *HNSW) Encode(w io.Writer) error {
	return gob.NewEncoder(w).Encode(h)
}

// Decode reads a graph written by Encode.
func Decode(r io.Reader) (*HNSW, error) {
	h := &HNSW{}
	if err := gob.NewDecoder(r).Decode(h); err != nil {
		return nil, err
	}
	return h, nil
}
