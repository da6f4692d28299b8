package codec

import (
	"encoding/json"

	gojson "github.com/goccy/go-json"
)

// Default writes run reports unless a caller picks another codec.
var Default Codec = GoJSON{}

const indent = "  "

// GoJSON encodes with github.com/goccy/go-json.
type GoJSON struct{}

func (GoJSON) Name() string                        { return "go-json" }
func (GoJSON) Marshal(v any) ([]byte, error)       { return gojson.Marshal(v) }
func (GoJSON) MarshalIndent(v any) ([]byte, error) { return gojson.MarshalIndent(v, "", indent) }
func (GoJSON) Unmarshal(data []byte, v any) error  { return gojson.Unmarshal(data, v) }

// JSON encodes with encoding/json.
type JSON struct{}

func (JSON) Name() string                        { return "json" }
func (JSON) Marshal(v any) ([]byte, error)       { return json.Marshal(v) }
func (JSON) MarshalIndent(v any) ([]byte, error) { return json.MarshalIndent(v, "", indent) }
func (JSON) Unmarshal(data []byte, v any) error  { return json.Unmarshal(data, v) }
