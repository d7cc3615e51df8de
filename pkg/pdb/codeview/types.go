package codeview

import (
	"encoding/binary"
	"fmt"

	"github.com/jtang613/pdbtojson/pkg/pdb/streams"
)

// Pointer modes (bits 5-7 of the pointer attributes).
const (
	PointerModePointer         = 0
	PointerModeLValueReference = 1
	PointerModeDataMember      = 2
	PointerModeMemberFunction  = 3
	PointerModeRValueReference = 4
)

// Pointer kinds (bits 0-4 of the pointer attributes).
const (
	PointerKindNear32 = 0x0a
	PointerKindNear64 = 0x0c
)

// Modifier flags.
const (
	ModifierConst     = 0x1
	ModifierVolatile  = 0x2
	ModifierUnaligned = 0x4
)

// Class property flags.
const (
	PropertyPacked     = 0x0001
	PropertyNested     = 0x0008
	PropertyForwardRef = 0x0080
	PropertyScoped     = 0x0100
	PropertyHasUnique  = 0x0200
)

// PointerLeaf is an LF_POINTER record.
type PointerLeaf struct {
	Referent uint32
	Attrs    uint32
}

// ParsePointer parses an LF_POINTER record body.
func ParsePointer(data []byte) (*PointerLeaf, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("pointer record too small: %d bytes", len(data))
	}
	return &PointerLeaf{
		Referent: binary.LittleEndian.Uint32(data),
		Attrs:    binary.LittleEndian.Uint32(data[4:]),
	}, nil
}

// Kind returns the pointer kind.
func (p *PointerLeaf) Kind() uint32 { return p.Attrs & 0x1f }

// Mode returns the pointer mode.
func (p *PointerLeaf) Mode() uint32 { return (p.Attrs >> 5) & 0x7 }

// IsVolatile reports whether the pointer itself is volatile.
func (p *PointerLeaf) IsVolatile() bool { return p.Attrs&(1<<9) != 0 }

// IsConst reports whether the pointer itself is const.
func (p *PointerLeaf) IsConst() bool { return p.Attrs&(1<<10) != 0 }

// Size returns the pointer size in bytes, deriving it from the kind when the
// size field is zero.
func (p *PointerLeaf) Size() uint64 {
	if size := (p.Attrs >> 13) & 0x3f; size != 0 {
		return uint64(size)
	}
	if p.Kind() == PointerKindNear64 {
		return 8
	}
	return 4
}

// ModifierLeaf is an LF_MODIFIER record.
type ModifierLeaf struct {
	Type  uint32
	Flags uint16
}

// ParseModifier parses an LF_MODIFIER record body.
func ParseModifier(data []byte) (*ModifierLeaf, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("modifier record too small: %d bytes", len(data))
	}
	return &ModifierLeaf{
		Type:  binary.LittleEndian.Uint32(data),
		Flags: binary.LittleEndian.Uint16(data[4:]),
	}, nil
}

// IsConst reports whether the modifier adds const.
func (m *ModifierLeaf) IsConst() bool { return m.Flags&ModifierConst != 0 }

// ArrayLeaf is an LF_ARRAY record. Size is the total size in bytes.
type ArrayLeaf struct {
	ElementType uint32
	IndexType   uint32
	Size        uint64
	Name        string
}

// ParseArray parses an LF_ARRAY record body.
func ParseArray(data []byte) (*ArrayLeaf, error) {
	if len(data) < 10 {
		return nil, fmt.Errorf("array record too small: %d bytes", len(data))
	}
	arr := &ArrayLeaf{
		ElementType: binary.LittleEndian.Uint32(data),
		IndexType:   binary.LittleEndian.Uint32(data[4:]),
	}
	size, n := streams.ParseNumeric(data[8:])
	if n == 0 {
		return nil, fmt.Errorf("array record has invalid size leaf")
	}
	arr.Size = size.Uint64()
	arr.Name, _ = streams.ParseString(data[8+n:])
	return arr, nil
}

// ClassLeaf is an LF_CLASS, LF_STRUCTURE, LF_INTERFACE or LF_UNION record.
type ClassLeaf struct {
	Leaf       uint16
	Count      uint16
	Property   uint16
	FieldList  uint32
	Derived    uint32
	VShape     uint32
	Size       uint64
	Name       string
	UniqueName string
}

// ParseClass parses a class, structure, interface or union record body.
func ParseClass(leaf uint16, data []byte) (*ClassLeaf, error) {
	c := &ClassLeaf{Leaf: leaf}

	var fixed int
	switch leaf {
	case streams.LF_CLASS, streams.LF_STRUCTURE, streams.LF_INTERFACE:
		fixed = 16
	case streams.LF_UNION:
		fixed = 8
	default:
		return nil, fmt.Errorf("%s is not a class leaf", streams.LeafKindName(leaf))
	}
	if len(data) < fixed+2 {
		return nil, fmt.Errorf("%s record too small: %d bytes", streams.LeafKindName(leaf), len(data))
	}

	c.Count = binary.LittleEndian.Uint16(data)
	c.Property = binary.LittleEndian.Uint16(data[2:])
	c.FieldList = binary.LittleEndian.Uint32(data[4:])
	if fixed == 16 {
		c.Derived = binary.LittleEndian.Uint32(data[8:])
		c.VShape = binary.LittleEndian.Uint32(data[12:])
	}

	size, n := streams.ParseNumeric(data[fixed:])
	if n == 0 {
		return nil, fmt.Errorf("%s record has invalid size leaf", streams.LeafKindName(leaf))
	}
	c.Size = size.Uint64()

	rest := data[fixed+n:]
	var consumed int
	c.Name, consumed = streams.ParseString(rest)
	if c.Property&PropertyHasUnique != 0 {
		c.UniqueName, _ = streams.ParseString(rest[consumed:])
	}
	return c, nil
}

// IsForwardRef reports whether the record only declares the type.
func (c *ClassLeaf) IsForwardRef() bool { return c.Property&PropertyForwardRef != 0 }

// EnumLeaf is an LF_ENUM record.
type EnumLeaf struct {
	Count          uint16
	Property       uint16
	UnderlyingType uint32
	FieldList      uint32
	Name           string
	UniqueName     string
}

// ParseEnum parses an LF_ENUM record body.
func ParseEnum(data []byte) (*EnumLeaf, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("enum record too small: %d bytes", len(data))
	}
	e := &EnumLeaf{
		Count:          binary.LittleEndian.Uint16(data),
		Property:       binary.LittleEndian.Uint16(data[2:]),
		UnderlyingType: binary.LittleEndian.Uint32(data[4:]),
		FieldList:      binary.LittleEndian.Uint32(data[8:]),
	}
	var n int
	e.Name, n = streams.ParseString(data[12:])
	if e.Property&PropertyHasUnique != 0 {
		e.UniqueName, _ = streams.ParseString(data[12+n:])
	}
	return e, nil
}

// IsForwardRef reports whether the record only declares the enum.
func (e *EnumLeaf) IsForwardRef() bool { return e.Property&PropertyForwardRef != 0 }

// ProcedureLeaf is an LF_PROCEDURE record.
type ProcedureLeaf struct {
	ReturnType uint32
	CallConv   uint8
	Attrs      uint8
	ParamCount uint16
	ArgList    uint32
}

// ParseProcedure parses an LF_PROCEDURE record body.
func ParseProcedure(data []byte) (*ProcedureLeaf, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("procedure record too small: %d bytes", len(data))
	}
	return &ProcedureLeaf{
		ReturnType: binary.LittleEndian.Uint32(data),
		CallConv:   data[4],
		Attrs:      data[5],
		ParamCount: binary.LittleEndian.Uint16(data[6:]),
		ArgList:    binary.LittleEndian.Uint32(data[8:]),
	}, nil
}

// MemberFunctionLeaf is an LF_MFUNCTION record. ThisType is zero for static
// member functions.
type MemberFunctionLeaf struct {
	ReturnType uint32
	ClassType  uint32
	ThisType   uint32
	CallConv   uint8
	Attrs      uint8
	ParamCount uint16
	ArgList    uint32
	ThisAdjust int32
}

// ParseMemberFunction parses an LF_MFUNCTION record body.
func ParseMemberFunction(data []byte) (*MemberFunctionLeaf, error) {
	if len(data) < 24 {
		return nil, fmt.Errorf("member function record too small: %d bytes", len(data))
	}
	return &MemberFunctionLeaf{
		ReturnType: binary.LittleEndian.Uint32(data),
		ClassType:  binary.LittleEndian.Uint32(data[4:]),
		ThisType:   binary.LittleEndian.Uint32(data[8:]),
		CallConv:   data[12],
		Attrs:      data[13],
		ParamCount: binary.LittleEndian.Uint16(data[14:]),
		ArgList:    binary.LittleEndian.Uint32(data[16:]),
		ThisAdjust: int32(binary.LittleEndian.Uint32(data[20:])),
	}, nil
}

// ParseArgList parses an LF_ARGLIST record body into its type indices.
func ParseArgList(data []byte) ([]uint32, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("argument list too small: %d bytes", len(data))
	}
	count := binary.LittleEndian.Uint32(data)
	if uint64(count)*4 > uint64(len(data)-4) {
		return nil, fmt.Errorf("argument list count %d exceeds record", count)
	}
	args := make([]uint32, count)
	for i := range args {
		args[i] = binary.LittleEndian.Uint32(data[4+i*4:])
	}
	return args, nil
}

// BitfieldLeaf is an LF_BITFIELD record.
type BitfieldLeaf struct {
	Type     uint32
	Length   uint8
	Position uint8
}

// ParseBitfield parses an LF_BITFIELD record body.
func ParseBitfield(data []byte) (*BitfieldLeaf, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("bitfield record too small: %d bytes", len(data))
	}
	return &BitfieldLeaf{
		Type:     binary.LittleEndian.Uint32(data),
		Length:   data[4],
		Position: data[5],
	}, nil
}

// FuncIDLeaf is an LF_FUNC_ID or LF_MFUNC_ID record from the IPI stream.
// Scope is the enclosing scope id for LF_FUNC_ID and the parent class type
// for LF_MFUNC_ID.
type FuncIDLeaf struct {
	Scope uint32
	Type  uint32
	Name  string
}

// ParseFuncID parses an LF_FUNC_ID or LF_MFUNC_ID record body.
func ParseFuncID(data []byte) (*FuncIDLeaf, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("function id record too small: %d bytes", len(data))
	}
	f := &FuncIDLeaf{
		Scope: binary.LittleEndian.Uint32(data),
		Type:  binary.LittleEndian.Uint32(data[4:]),
	}
	f.Name, _ = streams.ParseString(data[8:])
	return f, nil
}

// ParseStringID parses an LF_STRING_ID record body and returns its string.
func ParseStringID(data []byte) (string, error) {
	if len(data) < 4 {
		return "", fmt.Errorf("string id record too small: %d bytes", len(data))
	}
	s, _ := streams.ParseString(data[4:])
	return s, nil
}

// UDTSourceLineLeaf is an LF_UDT_SRC_LINE or LF_UDT_MOD_SRC_LINE record.
// For LF_UDT_SRC_LINE, SourceFile is an IPI string id; for the module form
// it is an offset into the /names table.
type UDTSourceLineLeaf struct {
	Type       uint32
	SourceFile uint32
	Line       uint32
	Module     uint16
}

// ParseUDTSourceLine parses either UDT source line record body.
func ParseUDTSourceLine(data []byte) (*UDTSourceLineLeaf, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("UDT source line record too small: %d bytes", len(data))
	}
	l := &UDTSourceLineLeaf{
		Type:       binary.LittleEndian.Uint32(data),
		SourceFile: binary.LittleEndian.Uint32(data[4:]),
		Line:       binary.LittleEndian.Uint32(data[8:]),
	}
	if len(data) >= 14 {
		l.Module = binary.LittleEndian.Uint16(data[12:])
	}
	return l, nil
}
