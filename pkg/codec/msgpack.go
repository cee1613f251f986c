package codec

import "github.com/vmihailenco/msgpack/v5"

// MsgpackCodec is a compact binary alternative to JSON for callers moving
// larger values between processes.
type MsgpackCodec struct{}

var _ Codec = (*MsgpackCodec)(nil)

func init() {
	Register(&MsgpackCodec{})
}

func (*MsgpackCodec) Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (*MsgpackCodec) Decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

func (*MsgpackCodec) Name() string { return "msgpack" }
