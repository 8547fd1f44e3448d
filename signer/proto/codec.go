package proto

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content subtype of the signer service. Messages are
// protobuf encoded, so it matches the grpc default.
const CodecName = "proto"

var _ encoding.Codec = Codec{}

// Codec encodes signer messages for grpc. It is forced on both ends of the
// connection instead of being registered, so the global proto codec stays
// untouched.
type Codec struct{}

func (Codec) Marshal(v interface{}) ([]byte, error) {
	return Marshal(v)
}

func (Codec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("%T is not a signer message", v)
	}
	if err := m.Unmarshal(data); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", v, err)
	}
	return nil
}

func (Codec) Name() string {
	return CodecName
}

// Marshal encodes a signer message the way it is put on the wire. HMACs are
// computed over these bytes.
func Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("%T is not a signer message", v)
	}

	data, err := m.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return data, nil
}
