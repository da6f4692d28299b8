// Package codec selects the JSON encoder used for run reports.
//
// Reports record nothing about the codec that wrote them; any codec here
// produces plain JSON that every other codec reads.
package codec

import (
	"fmt"
	"maps"
	"slices"
)

// Codec encodes and decodes report values. Implementations are stateless
// and safe for concurrent use.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	MarshalIndent(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var builtin = map[string]Codec{
	GoJSON{}.Name(): GoJSON{},
	JSON{}.Name():   JSON{},
}

// ByName looks up a built-in codec. The empty name selects Default.
func ByName(name string) (Codec, bool) {
	if name == "" {
		return Default, true
	}
	c, ok := builtin[name]
	return c, ok
}

// Names returns the sorted built-in codec names.
func Names() []string {
	return slices.Sorted(maps.Keys(builtin))
}

// MustMarshal marshals v with c, or Default when c is nil, and panics on
// failure. Tests use it for fixtures.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("codec %s: %v", c.Name(), err))
	}
	return b
}
