package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// ProtobufCodec serializes proto.Message values. Unlike the JSON and
// msgpack codecs it rejects anything else, since protobuf needs generated
// types on both ends.
type ProtobufCodec struct{}

var _ Codec = (*ProtobufCodec)(nil)

func init() {
	Register(&ProtobufCodec{})
}

func (*ProtobufCodec) Encode(v any) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("protobuf codec: unsupported type %T", v)
	}
	return proto.Marshal(msg)
}

func (*ProtobufCodec) Decode(data []byte, v any) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("protobuf codec: unsupported type %T", v)
	}
	return proto.Unmarshal(data, msg)
}

func (*ProtobufCodec) Name() string { return "protobuf" }
