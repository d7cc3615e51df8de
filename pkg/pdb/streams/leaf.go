package streams

import (
	"bytes"
	"encoding/binary"
)

// NumericKind records which encoding a numeric leaf used.
type NumericKind uint16

// Numeric leaf encodings. Values below LF_NUMERIC are stored inline.
const (
	NumericImmediate NumericKind = 0
	NumericChar      NumericKind = 0x8000
	NumericShort     NumericKind = 0x8001
	NumericUShort    NumericKind = 0x8002
	NumericLong      NumericKind = 0x8003
	NumericULong     NumericKind = 0x8004
	NumericReal32    NumericKind = 0x8005
	NumericReal64    NumericKind = 0x8006
	NumericReal80    NumericKind = 0x8007
	NumericReal128   NumericKind = 0x8008
	NumericQuad      NumericKind = 0x8009
	NumericUQuad     NumericKind = 0x800a
	NumericReal48    NumericKind = 0x800b
	NumericVarString NumericKind = 0x8010
	NumericOct       NumericKind = 0x8017
	NumericUOct      NumericKind = 0x8018
)

// Numeric is a decoded numeric leaf. Raw holds the value sign-extended to
// 64 bits for signed encodings; it is zero for encodings that do not fit an
// integer (reals, octwords, strings).
type Numeric struct {
	Kind NumericKind
	Raw  uint64
}

// Uint64 returns the value as an unsigned integer.
func (n Numeric) Uint64() uint64 { return n.Raw }

// Int64 returns the value as a signed integer.
func (n Numeric) Int64() int64 { return int64(n.Raw) }

// IsInteger reports whether the leaf carried an integer of at most 64 bits.
func (n Numeric) IsInteger() bool {
	switch n.Kind {
	case NumericImmediate, NumericChar, NumericShort, NumericUShort,
		NumericLong, NumericULong, NumericQuad, NumericUQuad:
		return true
	}
	return false
}

// IsSigned reports whether the encoding is a signed integer.
func (n Numeric) IsSigned() bool {
	switch n.Kind {
	case NumericChar, NumericShort, NumericLong, NumericQuad:
		return true
	}
	return false
}

// ParseNumeric decodes a numeric leaf and returns it with the number of bytes
// consumed. A consumed count of zero means the data was truncated or the
// encoding is unknown.
func ParseNumeric(data []byte) (Numeric, int) {
	if len(data) < 2 {
		return Numeric{}, 0
	}

	val := binary.LittleEndian.Uint16(data)
	if val < 0x8000 {
		return Numeric{Kind: NumericImmediate, Raw: uint64(val)}, 2
	}

	kind := NumericKind(val)
	payload := data[2:]
	switch kind {
	case NumericChar:
		if len(payload) < 1 {
			return Numeric{}, 0
		}
		return Numeric{Kind: kind, Raw: uint64(int64(int8(payload[0])))}, 3
	case NumericShort:
		if len(payload) < 2 {
			return Numeric{}, 0
		}
		return Numeric{Kind: kind, Raw: uint64(int64(int16(binary.LittleEndian.Uint16(payload))))}, 4
	case NumericUShort:
		if len(payload) < 2 {
			return Numeric{}, 0
		}
		return Numeric{Kind: kind, Raw: uint64(binary.LittleEndian.Uint16(payload))}, 4
	case NumericLong:
		if len(payload) < 4 {
			return Numeric{}, 0
		}
		return Numeric{Kind: kind, Raw: uint64(int64(int32(binary.LittleEndian.Uint32(payload))))}, 6
	case NumericULong:
		if len(payload) < 4 {
			return Numeric{}, 0
		}
		return Numeric{Kind: kind, Raw: uint64(binary.LittleEndian.Uint32(payload))}, 6
	case NumericQuad, NumericUQuad:
		if len(payload) < 8 {
			return Numeric{}, 0
		}
		return Numeric{Kind: kind, Raw: binary.LittleEndian.Uint64(payload)}, 10
	case NumericVarString:
		if len(payload) < 2 {
			return Numeric{}, 0
		}
		n := int(binary.LittleEndian.Uint16(payload))
		if len(payload) < 2+n {
			return Numeric{}, 0
		}
		return Numeric{Kind: kind}, 4 + n
	}

	size := map[NumericKind]int{
		NumericReal32:  4,
		NumericReal48:  6,
		NumericReal64:  8,
		NumericReal80:  10,
		NumericReal128: 16,
		NumericOct:     16,
		NumericUOct:    16,
	}[kind]
	if size == 0 || len(payload) < size {
		return Numeric{}, 0
	}
	return Numeric{Kind: kind}, 2 + size
}

// ParseString parses a null-terminated string and returns it with the number
// of bytes consumed, including the terminator.
func ParseString(data []byte) (string, int) {
	idx := bytes.IndexByte(data, 0)
	if idx == -1 {
		return string(data), len(data)
	}
	return string(data[:idx]), idx + 1
}
