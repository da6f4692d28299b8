package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPointsText(t *testing.T) {
	in := "# header\n0 0\n0,1\n\n10\t10.5\n"

	points, err := ReadPointsText(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0}, {0, 1}, {10, 10.5}}, points)

	_, err = ReadPointsText(strings.NewReader("1 x\n"))
	assert.ErrorContains(t, err, "line 1")
}

func TestReadLabelsText(t *testing.T) {
	labels, err := ReadLabelsText(strings.NewReader("the\r\ncat\n\nsat\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"the", "cat", "", "sat"}, labels)
}

func TestSaveLoad(t *testing.T) {
	points, labels, truth, err := Synthetic(func(o *SyntheticOptions) {
		o.Points = 12
		o.Dimension = 3
	})
	require.NoError(t, err)
	assert.Nil(t, truth)

	for _, ext := range []string{".npy", ".txt"} {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			pp := filepath.Join(dir, "points"+ext)
			lp := filepath.Join(dir, "vocab"+ext)

			require.NoError(t, SavePoints(pp, points))
			require.NoError(t, SaveLabels(lp, labels))

			gotPoints, err := LoadPoints(pp)
			require.NoError(t, err)
			assert.Equal(t, points, gotPoints)

			gotLabels, err := LoadLabels(lp)
			require.NoError(t, err)
			assert.Equal(t, labels, gotLabels)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadPoints(filepath.Join(dir, "missing.npy"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n# nothing\n"), 0o600))

	_, err = LoadPoints(empty)
	assert.ErrorIs(t, err, ErrEmpty)

	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = LoadLabels(empty)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSynthetic(t *testing.T) {
	points, labels, _, err := Synthetic()
	require.NoError(t, err)
	require.Len(t, points, 100)
	assert.Len(t, points[0], 5)
	assert.Equal(t, "word_0", labels[0])
	assert.Equal(t, "word_99", labels[99])

	for _, p := range points {
		for _, v := range p {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	}

	again, _, _, err := Synthetic()
	require.NoError(t, err)
	assert.Equal(t, points, again)

	blobs, _, truth, err := Synthetic(func(o *SyntheticOptions) {
		o.Points = 30
		o.Centers = 3
	})
	require.NoError(t, err)
	require.Len(t, truth, 30)
	assert.Equal(t, []int{0, 1, 2, 0}, truth[:4])
	assert.Len(t, blobs, 30)

	_, _, _, err = Synthetic(func(o *SyntheticOptions) { o.Points = 0 })
	assert.ErrorIs(t, err, ErrInvalidShape)
}
