// Package dataset loads points and labels from disk and generates synthetic
// inputs.
//
// Files ending in ".npy" are memory mapped and decoded as NumPy arrays.
// Any other file is read as text: one point per line with whitespace or
// comma separated coordinates, or one label per line.
package dataset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arushisharma17/ConceptX/internal/mmap"
	"github.com/arushisharma17/ConceptX/internal/npy"
)

// ErrEmpty is returned when a file holds no points or labels.
var ErrEmpty = errors.New("dataset: no records")

// IsNPY reports whether path names a NumPy array file.
func IsNPY(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".npy")
}

// LoadPoints reads an N×D point matrix.
func LoadPoints(path string) ([][]float64, error) {
	var (
		points [][]float64
		err    error
	)

	if IsNPY(path) {
		err = withMapping(path, func(r io.Reader) error {
			points, err = npy.ReadMatrix(r)
			return err
		})
	} else {
		err = withFile(path, func(r io.Reader) error {
			points, err = ReadPointsText(r)
			return err
		})
	}
	if err != nil {
		return nil, fmt.Errorf("load points %s: %w", path, err)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("load points %s: %w", path, ErrEmpty)
	}

	return points, nil
}

// LoadLabels reads one label per point.
func LoadLabels(path string) ([]string, error) {
	var (
		labels []string
		err    error
	)

	if IsNPY(path) {
		err = withMapping(path, func(r io.Reader) error {
			labels, err = npy.ReadStrings(r)
			return err
		})
	} else {
		err = withFile(path, func(r io.Reader) error {
			labels, err = ReadLabelsText(r)
			return err
		})
	}
	if err != nil {
		return nil, fmt.Errorf("load labels %s: %w", path, err)
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("load labels %s: %w", path, ErrEmpty)
	}

	return labels, nil
}

// ReadPointsText parses one point per line. Blank lines and lines starting
// with '#' are skipped.
func ReadPointsText(r io.Reader) ([][]float64, error) {
	var points [][]float64

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})

		p := make([]float64, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			p[j] = v
		}
		points = append(points, p)
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	return points, nil
}

// ReadLabelsText returns one label per line. A trailing newline does not
// add an empty label.
func ReadLabelsText(r io.Reader) ([]string, error) {
	var labels []string

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for sc.Scan() {
		labels = append(labels, strings.TrimSuffix(sc.Text(), "\r"))
	}

	return labels, sc.Err()
}

// SavePoints writes points as .npy or text, chosen by the extension.
func SavePoints(path string, points [][]float64) error {
	return withCreate(path, func(w io.Writer) error {
		if IsNPY(path) {
			return npy.WriteMatrix(w, points)
		}
		return WritePointsText(w, points)
	})
}

// SaveLabels writes labels as .npy or text, chosen by the extension.
func SaveLabels(path string, labels []string) error {
	return withCreate(path, func(w io.Writer) error {
		if IsNPY(path) {
			return npy.WriteStrings(w, labels)
		}
		for _, l := range labels {
			if _, err := io.WriteString(w, l+"\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

// WritePointsText writes one space separated point per line.
func WritePointsText(w io.Writer, points [][]float64) error {
	var buf []byte
	for _, p := range points {
		buf = buf[:0]
		for j, v := range p {
			if j > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		}
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func withMapping(path string, fn func(r io.Reader) error) error {
	m, err := mmap.Open(path)
	if err != nil {
		return err
	}
	defer m.Close()

	_ = m.Advise(mmap.AdviseSequential)

	return fn(bytes.NewReader(m.Bytes()))
}

func withFile(path string, fn func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return fn(f)
}

func withCreate(path string, fn func(w io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		return err
	}
	return bw.Flush()
}
