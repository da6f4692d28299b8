// Package results reads and writes cluster assignment files.
//
// An assignment file has one "label|||cluster_id" line per point. Labels may
// contain any character except a newline; the cluster id follows the last
// separator.
package results

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Separator divides label and cluster id.
const Separator = "|||"

// ErrMalformed is returned for a line without a valid cluster id.
var ErrMalformed = errors.New("results: malformed line")

// Record assigns a point label to a cluster.
type Record struct {
	Label   string `json:"label"`
	Cluster int    `json:"cluster"`
}

// WriteText writes records as "label|||cluster_id" lines.
func WriteText(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := bw.WriteString(r.Label); err != nil {
			return err
		}
		if _, err := bw.WriteString(Separator); err != nil {
			return err
		}
		if _, err := bw.WriteString(strconv.Itoa(r.Cluster)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadText parses lines written by WriteText. Blank lines are skipped.
func ReadText(r io.Reader) ([]Record, error) {
	var records []Record

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if text == "" {
			continue
		}

		i := strings.LastIndex(text, Separator)
		if i < 0 {
			return nil, fmt.Errorf("%w %d: missing %q", ErrMalformed, line, Separator)
		}

		id, err := strconv.Atoi(text[i+len(Separator):])
		if err != nil {
			return nil, fmt.Errorf("%w %d: %v", ErrMalformed, line, err)
		}

		records = append(records, Record{Label: text[:i], Cluster: id})
	}

	return records, sc.Err()
}

// Sizes counts the records of every cluster id.
func Sizes(records []Record) map[int]int {
	sizes := make(map[int]int)
	for _, r := range records {
		sizes[r.Cluster]++
	}
	return sizes
}

// Summary describes a distribution of group sizes.
type Summary struct {
	Groups int     `json:"groups"`
	Total  int     `json:"total"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Median float64 `json:"median"`
}

// Summarize computes a Summary of sizes. An empty input yields the zero
// Summary.
func Summarize(sizes []int) Summary {
	if len(sizes) == 0 {
		return Summary{}
	}

	xs := make([]float64, len(sizes))
	for i, s := range sizes {
		xs[i] = float64(s)
	}
	sort.Float64s(xs)

	s := Summary{
		Groups: len(xs),
		Total:  int(floats.Sum(xs)),
		Min:    int(xs[0]),
		Max:    int(xs[len(xs)-1]),
		Mean:   stat.Mean(xs, nil),
		Median: stat.Quantile(0.5, stat.Empirical, xs, nil),
	}
	if len(xs) > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}

	return s
}

// SizesOf returns the values of a size map as a slice ordered by cluster id.
func SizesOf(sizes map[int]int) []int {
	ids := make([]int, 0, len(sizes))
	for id := range sizes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = sizes[id]
	}
	return out
}

// Pair matches the records of two runs by label. The k-th occurrence of a
// label in a is paired with its k-th occurrence in b. It returns the paired
// cluster ids and the number of records of a without a partner.
func Pair(a, b []Record) (ref, cand []int, unmatched int) {
	pending := make(map[string][]int)
	for _, r := range b {
		pending[r.Label] = append(pending[r.Label], r.Cluster)
	}

	for _, r := range a {
		queue := pending[r.Label]
		if len(queue) == 0 {
			unmatched++
			continue
		}
		ref = append(ref, r.Cluster)
		cand = append(cand, queue[0])
		pending[r.Label] = queue[1:]
	}

	return ref, cand, unmatched
}
