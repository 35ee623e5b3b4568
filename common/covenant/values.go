package covenant

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/wire"
)

type ValueType uint8

const (
	TypeBool ValueType = iota
	TypeU8
	TypeU32
	TypeU64
	TypeU256
	TypeSignature
)

func (t ValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeU8:
		return "u8"
	case TypeU32:
		return "u32"
	case TypeU64:
		return "u64"
	case TypeU256:
		return "u256"
	case TypeSignature:
		return "signature"
	default:
		return "unknown"
	}
}

func (t ValueType) size() int {
	switch t {
	case TypeBool, TypeU8:
		return 1
	case TypeU32:
		return 4
	case TypeU64:
		return 8
	case TypeU256:
		return 32
	case TypeSignature:
		return 64
	default:
		return -1
	}
}

// Value is a typed big-endian value passed to the engine either as a
// compile-time argument or as a witness.
type Value struct {
	Type  ValueType
	Bytes []byte
}

func Bool(b bool) Value {
	if b {
		return Value{TypeBool, []byte{1}}
	}
	return Value{TypeBool, []byte{0}}
}

func U8(v uint8) Value {
	return Value{TypeU8, []byte{v}}
}

func U32(v uint32) Value {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return Value{TypeU32, buf}
}

func U64(v uint64) Value {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return Value{TypeU64, buf}
}

func U256(v [32]byte) Value {
	return Value{TypeU256, append([]byte{}, v[:]...)}
}

func Signature(v [64]byte) Value {
	return Value{TypeSignature, append([]byte{}, v[:]...)}
}

func (v Value) validate() error {
	if size := v.Type.size(); size < 0 || len(v.Bytes) != size {
		return fmt.Errorf("invalid %s value of %d bytes", v.Type, len(v.Bytes))
	}
	return nil
}

type Arguments map[string]Value

type WitnessValues map[string]Value

func (a Arguments) Encode() []byte {
	return encodeValues(a)
}

func (w WitnessValues) Encode() []byte {
	return encodeValues(w)
}

// encodeValues serializes named values sorted by name so that equal maps
// always produce equal bytes.
func encodeValues(values map[string]Value) []byte {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	_ = wire.WriteVarInt(&buf, 0, uint64(len(names)))
	for _, name := range names {
		value := values[name]
		_ = wire.WriteVarString(&buf, 0, name)
		buf.WriteByte(byte(value.Type))
		_ = wire.WriteVarBytes(&buf, 0, value.Bytes)
	}
	return buf.Bytes()
}

// Schema is the fixed witness shape of a program: every slot must be
// provided on every spending path.
type Schema map[string]ValueType

func (s Schema) Check(witness WitnessValues) error {
	for name, typ := range s {
		value, ok := witness[name]
		if !ok {
			return fmt.Errorf("%w: missing witness %s", ErrWitness, name)
		}
		if value.Type != typ {
			return fmt.Errorf(
				"%w: witness %s has type %s, expected %s", ErrWitness, name, value.Type, typ,
			)
		}
		if err := value.validate(); err != nil {
			return fmt.Errorf("%w: witness %s: %s", ErrWitness, name, err)
		}
	}
	for name := range witness {
		if _, ok := s[name]; !ok {
			return fmt.Errorf("%w: unexpected witness %s", ErrWitness, name)
		}
	}
	return nil
}
