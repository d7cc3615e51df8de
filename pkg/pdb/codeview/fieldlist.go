package codeview

import (
	"encoding/binary"
	"fmt"

	"github.com/jtang613/pdbtojson/pkg/pdb/streams"
)

// Method properties (bits 2-4 of the field attributes).
const (
	MethodVanilla     = 0
	MethodVirtual     = 1
	MethodStatic      = 2
	MethodFriend      = 3
	MethodIntro       = 4
	MethodPureVirtual = 5
	MethodPureIntro   = 6
)

// FieldAttributes is the CV_fldattr_t bit set of a field list member.
type FieldAttributes uint16

// Access returns the access protection (1 private, 2 protected, 3 public).
func (a FieldAttributes) Access() uint16 { return uint16(a) & 0x3 }

// MethodProperty returns the method property.
func (a FieldAttributes) MethodProperty() uint16 { return (uint16(a) >> 2) & 0x7 }

// IsIntro reports whether the method introduces a new vtable slot. Intro
// methods carry an explicit vtable offset.
func (a FieldAttributes) IsIntro() bool {
	p := a.MethodProperty()
	return p == MethodIntro || p == MethodPureIntro
}

// IsVirtual reports whether the method is virtual in any form.
func (a FieldAttributes) IsVirtual() bool {
	switch a.MethodProperty() {
	case MethodVirtual, MethodIntro, MethodPureVirtual, MethodPureIntro:
		return true
	}
	return false
}

// IsPureVirtual reports whether the method is pure virtual.
func (a FieldAttributes) IsPureVirtual() bool {
	p := a.MethodProperty()
	return p == MethodPureVirtual || p == MethodPureIntro
}

// IsStatic reports whether the method is static.
func (a FieldAttributes) IsStatic() bool { return a.MethodProperty() == MethodStatic }

// Field is one entry of an LF_FIELDLIST. Which members are meaningful depends
// on Leaf:
//
//	LF_BCLASS      Attrs, Type, Offset
//	LF_VBCLASS     Attrs, Type, Offset (vbptr offset), VBaseIndex
//	LF_MEMBER      Attrs, Type, Offset, Name
//	LF_STMEMBER    Attrs, Type, Name
//	LF_ONEMETHOD   Attrs, Type, VTableOffset, Name
//	LF_METHOD      Count, Type (method list), Name
//	LF_ENUMERATE   Attrs, Value, Name
//	LF_NESTTYPE    Type, Name
//	LF_INDEX       Type (continuation field list)
type Field struct {
	Leaf         uint16
	Attrs        FieldAttributes
	Type         uint32
	Offset       uint64
	VBaseIndex   uint64
	VTableOffset uint32
	Count        uint16
	Value        streams.Numeric
	Name         string
}

// ParseFieldList decodes an LF_FIELDLIST record body. Continuations are
// returned as LF_INDEX fields for the caller to follow.
func ParseFieldList(data []byte) ([]Field, error) {
	var fields []Field
	offset := 0

	for offset < len(data) {
		// LF_PAD0..LF_PAD15 are single bytes whose low nibble is the
		// distance to the next member.
		if b := data[offset]; b >= 0xF0 {
			skip := int(b & 0x0F)
			if skip == 0 {
				skip = 1
			}
			offset += skip
			continue
		}
		if offset+2 > len(data) {
			break
		}

		f := Field{Leaf: binary.LittleEndian.Uint16(data[offset:])}
		n, err := parseField(&f, data[offset+2:])
		if err != nil {
			return fields, fmt.Errorf("field %s at offset %d: %w", streams.LeafKindName(f.Leaf), offset, err)
		}
		fields = append(fields, f)
		offset += 2 + n
	}

	return fields, nil
}

// parseField decodes the body of one field list member into f and returns the
// number of bytes consumed.
func parseField(f *Field, data []byte) (int, error) {
	need := func(n int) error {
		if len(data) < n {
			return fmt.Errorf("truncated: need %d bytes, have %d", n, len(data))
		}
		return nil
	}
	numeric := func(at int) (streams.Numeric, int, error) {
		if at > len(data) {
			return streams.Numeric{}, 0, fmt.Errorf("truncated numeric leaf")
		}
		v, n := streams.ParseNumeric(data[at:])
		if n == 0 {
			return v, 0, fmt.Errorf("invalid numeric leaf")
		}
		return v, n, nil
	}
	name := func(at int) (string, int) {
		if at >= len(data) {
			return "", 0
		}
		return streams.ParseString(data[at:])
	}

	switch f.Leaf {
	case streams.LF_BCLASS:
		if err := need(6); err != nil {
			return 0, err
		}
		f.Attrs = FieldAttributes(binary.LittleEndian.Uint16(data))
		f.Type = binary.LittleEndian.Uint32(data[2:])
		v, n, err := numeric(6)
		if err != nil {
			return 0, err
		}
		f.Offset = v.Uint64()
		return 6 + n, nil

	case streams.LF_VBCLASS, streams.LF_IVBCLASS:
		if err := need(10); err != nil {
			return 0, err
		}
		f.Attrs = FieldAttributes(binary.LittleEndian.Uint16(data))
		f.Type = binary.LittleEndian.Uint32(data[2:])
		// data[6:10] is the virtual base pointer type.
		ptrOff, n1, err := numeric(10)
		if err != nil {
			return 0, err
		}
		index, n2, err := numeric(10 + n1)
		if err != nil {
			return 0, err
		}
		f.Offset = ptrOff.Uint64()
		f.VBaseIndex = index.Uint64()
		return 10 + n1 + n2, nil

	case streams.LF_MEMBER:
		if err := need(6); err != nil {
			return 0, err
		}
		f.Attrs = FieldAttributes(binary.LittleEndian.Uint16(data))
		f.Type = binary.LittleEndian.Uint32(data[2:])
		v, n, err := numeric(6)
		if err != nil {
			return 0, err
		}
		f.Offset = v.Uint64()
		var m int
		f.Name, m = name(6 + n)
		return 6 + n + m, nil

	case streams.LF_STMEMBER:
		if err := need(6); err != nil {
			return 0, err
		}
		f.Attrs = FieldAttributes(binary.LittleEndian.Uint16(data))
		f.Type = binary.LittleEndian.Uint32(data[2:])
		var m int
		f.Name, m = name(6)
		return 6 + m, nil

	case streams.LF_ONEMETHOD:
		if err := need(6); err != nil {
			return 0, err
		}
		f.Attrs = FieldAttributes(binary.LittleEndian.Uint16(data))
		f.Type = binary.LittleEndian.Uint32(data[2:])
		at := 6
		if f.Attrs.IsIntro() {
			if err := need(10); err != nil {
				return 0, err
			}
			f.VTableOffset = binary.LittleEndian.Uint32(data[6:])
			at = 10
		}
		var m int
		f.Name, m = name(at)
		return at + m, nil

	case streams.LF_METHOD:
		if err := need(6); err != nil {
			return 0, err
		}
		f.Count = binary.LittleEndian.Uint16(data)
		f.Type = binary.LittleEndian.Uint32(data[2:])
		var m int
		f.Name, m = name(6)
		return 6 + m, nil

	case streams.LF_ENUMERATE:
		if err := need(2); err != nil {
			return 0, err
		}
		f.Attrs = FieldAttributes(binary.LittleEndian.Uint16(data))
		v, n, err := numeric(2)
		if err != nil {
			return 0, err
		}
		f.Value = v
		var m int
		f.Name, m = name(2 + n)
		return 2 + n + m, nil

	case streams.LF_NESTTYPE:
		if err := need(6); err != nil {
			return 0, err
		}
		f.Type = binary.LittleEndian.Uint32(data[2:])
		var m int
		f.Name, m = name(6)
		return 6 + m, nil

	case streams.LF_VFUNCTAB, streams.LF_FRIENDCLS, streams.LF_INDEX:
		if err := need(6); err != nil {
			return 0, err
		}
		f.Type = binary.LittleEndian.Uint32(data[2:])
		return 6, nil

	case streams.LF_VFUNCOFF:
		if err := need(10); err != nil {
			return 0, err
		}
		f.Type = binary.LittleEndian.Uint32(data[2:])
		f.Offset = uint64(binary.LittleEndian.Uint32(data[6:]))
		return 10, nil

	case streams.LF_FRIENDFCN:
		if err := need(6); err != nil {
			return 0, err
		}
		f.Type = binary.LittleEndian.Uint32(data[2:])
		var m int
		f.Name, m = name(6)
		return 6 + m, nil
	}

	return 0, fmt.Errorf("unsupported leaf")
}

// MethodListEntry is one overload in an LF_METHODLIST record.
type MethodListEntry struct {
	Attrs        FieldAttributes
	Type         uint32
	VTableOffset uint32
}

// ParseMethodList decodes an LF_METHODLIST record body.
func ParseMethodList(data []byte) ([]MethodListEntry, error) {
	var entries []MethodListEntry
	offset := 0

	for offset+8 <= len(data) {
		e := MethodListEntry{
			Attrs: FieldAttributes(binary.LittleEndian.Uint16(data[offset:])),
			Type:  binary.LittleEndian.Uint32(data[offset+4:]),
		}
		offset += 8
		if e.Attrs.IsIntro() {
			if offset+4 > len(data) {
				return entries, fmt.Errorf("method list entry at offset %d truncated", offset-8)
			}
			e.VTableOffset = binary.LittleEndian.Uint32(data[offset:])
			offset += 4
		}
		entries = append(entries, e)
	}

	return entries, nil
}
