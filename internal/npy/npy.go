// Package npy reads and writes the NumPy .npy array format.
//
// Supported element types are little-endian float32 ("<f4"), float64
// ("<f8"), fixed-width unicode strings ("<U{n}") and byte strings ("|S{n}").
// Float arrays must be one or two dimensional and C ordered.
package npy

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var magic = []byte("\x93NUMPY")

var (
	ErrInvalidMagic = errors.New("npy: invalid magic")
	ErrUnsupported  = errors.New("npy: unsupported array")
	ErrMalformed    = errors.New("npy: malformed header")
)

// Header describes an array.
type Header struct {
	Descr        string
	FortranOrder bool
	Shape        []int
}

// Len returns the number of elements.
func (h Header) Len() int {
	n := 1
	for _, d := range h.Shape {
		n *= d
	}
	return n
}

var (
	descrRe   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	fortranRe = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapeRe   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// ReadHeader consumes the preamble and header of an .npy stream.
func ReadHeader(r io.Reader) (Header, error) {
	pre := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(r, pre); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if string(pre[:len(magic)]) != string(magic) {
		return Header{}, ErrInvalidMagic
	}

	var headerLen int
	switch major := pre[len(magic)]; major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return Header{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		headerLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return Header{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		headerLen = int(n)
	default:
		return Header{}, fmt.Errorf("%w: format version %d", ErrUnsupported, major)
	}

	raw := make([]byte, headerLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return parseHeader(string(raw))
}

func parseHeader(s string) (Header, error) {
	var h Header

	m := descrRe.FindStringSubmatch(s)
	if m == nil {
		return h, fmt.Errorf("%w: missing descr", ErrMalformed)
	}
	h.Descr = m[1]

	if m := fortranRe.FindStringSubmatch(s); m != nil {
		h.FortranOrder = m[1] == "True"
	}

	m = shapeRe.FindStringSubmatch(s)
	if m == nil {
		return h, fmt.Errorf("%w: missing shape", ErrMalformed)
	}
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 {
			return h, fmt.Errorf("%w: shape %q", ErrMalformed, m[1])
		}
		h.Shape = append(h.Shape, d)
	}

	return h, nil
}

// ReadMatrix reads a float array as rows. A one-dimensional array of length
// n becomes n rows of one column.
func ReadMatrix(r io.Reader) ([][]float64, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if h.FortranOrder {
		return nil, fmt.Errorf("%w: fortran order", ErrUnsupported)
	}

	var rows, cols int
	switch len(h.Shape) {
	case 1:
		rows, cols = h.Shape[0], 1
	case 2:
		rows, cols = h.Shape[0], h.Shape[1]
	default:
		return nil, fmt.Errorf("%w: %d dimensions", ErrUnsupported, len(h.Shape))
	}

	var size int
	switch h.Descr {
	case "<f4":
		size = 4
	case "<f8":
		size = 8
	default:
		return nil, fmt.Errorf("%w: dtype %s", ErrUnsupported, h.Descr)
	}

	br := bufio.NewReader(r)
	buf := make([]byte, cols*size)
	out := make([][]float64, rows)

	for i := range out {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, i, err)
		}
		row := make([]float64, cols)
		for j := range row {
			if size == 4 {
				row[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:])))
			} else {
				row[j] = math.Float64frombits(binary.LittleEndian.Uint64(buf[j*8:]))
			}
		}
		out[i] = row
	}

	return out, nil
}

// ReadStrings reads a one-dimensional string array.
func ReadStrings(r io.Reader) ([]string, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if len(h.Shape) != 1 {
		return nil, fmt.Errorf("%w: %d dimensions", ErrUnsupported, len(h.Shape))
	}

	var (
		width   int
		unicode bool
	)
	switch {
	case strings.HasPrefix(h.Descr, "<U"):
		unicode = true
		width, err = strconv.Atoi(h.Descr[2:])
	case strings.HasPrefix(h.Descr, "|S"):
		width, err = strconv.Atoi(h.Descr[2:])
	default:
		return nil, fmt.Errorf("%w: dtype %s", ErrUnsupported, h.Descr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dtype %s", ErrMalformed, h.Descr)
	}

	itemSize := width
	if unicode {
		itemSize = 4 * width
	}

	br := bufio.NewReader(r)
	buf := make([]byte, itemSize)
	out := make([]string, h.Shape[0])

	for i := range out {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrMalformed, i, err)
		}
		if !unicode {
			out[i] = strings.TrimRight(string(buf), "\x00")
			continue
		}

		var sb strings.Builder
		for j := 0; j < width; j++ {
			cp := binary.LittleEndian.Uint32(buf[j*4:])
			if cp == 0 {
				break
			}
			sb.WriteRune(rune(cp))
		}
		out[i] = sb.String()
	}

	return out, nil
}

// WriteMatrix writes rows as a two-dimensional "<f8" array. All rows must
// have the same length.
func WriteMatrix(w io.Writer, rows [][]float64) error {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}

	if err := writeHeader(w, "<f8", fmt.Sprintf("(%d, %d)", len(rows), cols)); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	buf := make([]byte, 8)
	for i, row := range rows {
		if len(row) != cols {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrUnsupported, i, len(row), cols)
		}
		for _, v := range row {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteStrings writes a one-dimensional "<U{n}" array, n being the longest
// string in runes.
func WriteStrings(w io.Writer, ss []string) error {
	width := 1
	for _, s := range ss {
		width = max(width, utf8.RuneCountInString(s))
	}

	if err := writeHeader(w, fmt.Sprintf("<U%d", width), fmt.Sprintf("(%d,)", len(ss))); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	buf := make([]byte, 4*width)
	for _, s := range ss {
		clear(buf)
		j := 0
		for _, r := range s {
			binary.LittleEndian.PutUint32(buf[j*4:], uint32(r))
			j++
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// writeHeader writes a version 1.0 preamble padded to a multiple of 64 bytes.
func writeHeader(w io.Writer, descr, shape string) error {
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, shape)

	pre := len(magic) + 2 + 2
	total := pre + len(dict) + 1
	if rem := total % 64; rem != 0 {
		dict += strings.Repeat(" ", 64-rem)
	}
	dict += "\n"

	if len(dict) > math.MaxUint16 {
		return fmt.Errorf("%w: header too long", ErrUnsupported)
	}

	out := make([]byte, 0, pre+len(dict))
	out = append(out, magic...)
	out = append(out, 1, 0)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(dict)))
	out = append(out, dict...)

	_, err := w.Write(out)
	return err
}
