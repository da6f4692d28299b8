package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	K        int       `json:"k"`
	Tau      float64   `json:"tau"`
	Mode     string    `json:"mode"`
	Sizes    []int     `json:"sizes"`
	Centroid []float64 `json:"centroid,omitempty"`
}

func TestCodecsInteroperate(t *testing.T) {
	in := report{K: 3, Tau: 0.5, Mode: "fast", Sizes: []int{2, 2, 2}}

	for _, name := range Names() {
		enc, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, enc.Name())

		for _, data := range [][]byte{MustMarshal(enc, in), mustIndent(t, enc, in)} {
			for _, decName := range Names() {
				dec, _ := ByName(decName)

				var out report
				require.NoError(t, dec.Unmarshal(data, &out), "%s -> %s", name, decName)
				assert.Equal(t, in, out)
			}
		}
	}
}

func TestByName(t *testing.T) {
	c, ok := ByName("")
	require.True(t, ok)
	assert.Equal(t, Default.Name(), c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestMarshalIndent(t *testing.T) {
	data, err := JSON{}.MarshalIndent(map[string]int{"k": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"k\": 1\n}", string(data))
}

func mustIndent(t *testing.T, c Codec, v any) []byte {
	t.Helper()
	data, err := c.MarshalIndent(v)
	require.NoError(t, err)
	return data
}
