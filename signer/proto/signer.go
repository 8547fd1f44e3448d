package proto

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is a signer message with a protobuf wire encoding.
type Message interface {
	Marshal() ([]byte, error)
	Unmarshal(b []byte) error
}

var (
	_ Message = &PingRequest{}
	_ Message = &PingResponse{}
	_ Message = &PublicKeyRequest{}
	_ Message = &PublicKeyResponse{}
	_ Message = &SignPrehashRequest{}
	_ Message = &SignPrehashResponse{}
)

type PingRequest struct{}

func (m *PingRequest) Marshal() ([]byte, error) { return []byte{}, nil }

func (m *PingRequest) Unmarshal(b []byte) error {
	return consumeFields(b, func(protowire.Number, []byte) {})
}

type PingResponse struct{}

func (m *PingResponse) Marshal() ([]byte, error) { return []byte{}, nil }

func (m *PingResponse) Unmarshal(b []byte) error {
	return consumeFields(b, func(protowire.Number, []byte) {})
}

// PublicKeyRequest fields:
//
//	1: key_id, 2: derivation_path, 3: scheme
type PublicKeyRequest struct {
	KeyId          string
	DerivationPath []byte
	Scheme         string
}

func (m *PublicKeyRequest) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.KeyId)
	b = appendBytes(b, 2, m.DerivationPath)
	b = appendString(b, 3, m.Scheme)
	return b, nil
}

func (m *PublicKeyRequest) Unmarshal(b []byte) error {
	*m = PublicKeyRequest{}
	return consumeFields(b, func(num protowire.Number, v []byte) {
		switch num {
		case 1:
			m.KeyId = string(v)
		case 2:
			m.DerivationPath = v
		case 3:
			m.Scheme = string(v)
		}
	})
}

// PublicKeyResponse fields:
//
//	1: public_key, the 33 byte compressed key
type PublicKeyResponse struct {
	PublicKey []byte
}

func (m *PublicKeyResponse) Marshal() ([]byte, error) {
	return appendBytes(nil, 1, m.PublicKey), nil
}

func (m *PublicKeyResponse) Unmarshal(b []byte) error {
	*m = PublicKeyResponse{}
	return consumeFields(b, func(num protowire.Number, v []byte) {
		if num == 1 {
			m.PublicKey = v
		}
	})
}

// SignPrehashRequest fields:
//
//	1: key_id, 2: derivation_path, 3: message_hash, 4: scheme
type SignPrehashRequest struct {
	KeyId          string
	DerivationPath []byte
	MessageHash    []byte
	Scheme         string
}

func (m *SignPrehashRequest) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.KeyId)
	b = appendBytes(b, 2, m.DerivationPath)
	b = appendBytes(b, 3, m.MessageHash)
	b = appendString(b, 4, m.Scheme)
	return b, nil
}

func (m *SignPrehashRequest) Unmarshal(b []byte) error {
	*m = SignPrehashRequest{}
	return consumeFields(b, func(num protowire.Number, v []byte) {
		switch num {
		case 1:
			m.KeyId = string(v)
		case 2:
			m.DerivationPath = v
		case 3:
			m.MessageHash = v
		case 4:
			m.Scheme = string(v)
		}
	})
}

// SignPrehashResponse fields:
//
//	1: signature
type SignPrehashResponse struct {
	Signature []byte
}

func (m *SignPrehashResponse) Marshal() ([]byte, error) {
	return appendBytes(nil, 1, m.Signature), nil
}

func (m *SignPrehashResponse) Unmarshal(b []byte) error {
	*m = SignPrehashResponse{}
	return consumeFields(b, func(num protowire.Number, v []byte) {
		if num == 1 {
			m.Signature = v
		}
	})
}

// empty fields are omitted, as proto3 does for scalars
func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// consumeFields walks the fields of b and hands a copy of every length
// delimited value to fn. Fields of other wire types are skipped.
func consumeFields(b []byte, fn func(num protowire.Number, v []byte)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("invalid field tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]

		fn(num, append([]byte(nil), v...))
	}

	return nil
}
