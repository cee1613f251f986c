package codec

import "encoding/json"

// JSONCodec is the default codec. It imposes no schema and handles any
// value encoding/json does.
type JSONCodec struct{}

var _ Codec = (*JSONCodec)(nil)

func init() {
	Register(&JSONCodec{})
}

func (*JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (*JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (*JSONCodec) Name() string { return "json" }
