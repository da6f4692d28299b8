package flat

import (
	"bytes"
	"encoding/gob"
	"io"

	"github.com/arushisharma17/ConceptX/index"
)

// Compile time checks to ensure Flat satisfies the gob interfaces.
var (
	_ gob.GobEncoder = (*Flat)(nil)
	_ gob.GobDecoder = (*Flat)(nil)
)

// GobEncode method for Flat.
func (f *Flat) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)

	if err := encoder.Encode(f.dimension); err != nil {
		return nil, err
	}

	if err := encoder.Encode(f.vectors); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GobDecode method for Flat.
func (f *Flat) GobDecode(data []byte) error {
	decoder := gob.NewDecoder(bytes.NewBuffer(data))

	if err := decoder.Decode(&f.dimension); err != nil {
		return err
	}

	if err := decoder.Decode(&f.vectors); err != nil {
		return err
	}

	if len(f.vectors) == 0 {
		return index.ErrEmptyIndex
	}

	return nil
}

// Encode writes the index to w.
func (f *Flat) Encode(w io.Writer) error {
	return gob.NewEncoder(w).Encode(f)
}

// Decode reads an index written by Encode.
func Decode(r io.Reader) (*Flat, error) {
	f := &Flat{}
	if err := gob.NewDecoder(r).Decode(f); err != nil {
		return nil, err
	}
	return f, nil
}
