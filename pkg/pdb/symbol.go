package pdb

import "fmt"

// Symbol is a node of the symbol graph exposed by a Session. The accessors
// mirror the DIA symbol properties; an accessor that does not apply to a
// symbol's tag returns the zero value.
type Symbol interface {
	// ID is stable for the lifetime of the session.
	ID() uint32
	Tag() SymTag
	Name() string
	// Type returns the symbol's type, or nil when it has none.
	Type() Symbol
	SourceFile() string
	Line() uint32
	// Length is the size in bytes of a type, or the code length of a
	// function.
	Length() uint64
	// Count is the element count of an array type.
	Count() uint32
	BaseType() BasicType
	LocationType() LocationType
	// Offset is the this-relative offset of a member or base class.
	Offset() int64
	// VirtualAddress is the RVA of a function or static data symbol.
	VirtualAddress() uint64
	// Value is the literal of a constant such as an enumerator.
	Value() Variant
	IsStatic() bool
	IsConst() bool
	IsVirtual() bool
	IsPure() bool
	IsVirtualBaseClass() bool
	// Children lists the direct children with the given tag. SymTagNull
	// lists every child.
	Children(tag SymTag) ([]Symbol, error)
}

// SymTag classifies a symbol (DIA SymTagEnum numbering).
type SymTag uint32

const (
	SymTagNull            SymTag = 0
	SymTagExe             SymTag = 1
	SymTagCompiland       SymTag = 2
	SymTagFunction        SymTag = 5
	SymTagBlock           SymTag = 6
	SymTagData            SymTag = 7
	SymTagPublicSymbol    SymTag = 10
	SymTagUDT             SymTag = 11
	SymTagEnum            SymTag = 12
	SymTagFunctionType    SymTag = 13
	SymTagPointerType     SymTag = 14
	SymTagArrayType       SymTag = 15
	SymTagBaseType        SymTag = 16
	SymTagTypedef         SymTag = 17
	SymTagBaseClass       SymTag = 18
	SymTagFriend          SymTag = 19
	SymTagFunctionArgType SymTag = 20
	SymTagVTableShape     SymTag = 24
	SymTagVTable          SymTag = 25
)

var symTagNames = map[SymTag]string{
	SymTagNull:            "Null",
	SymTagExe:             "Exe",
	SymTagCompiland:       "Compiland",
	SymTagFunction:        "Function",
	SymTagBlock:           "Block",
	SymTagData:            "Data",
	SymTagPublicSymbol:    "PublicSymbol",
	SymTagUDT:             "UDT",
	SymTagEnum:            "Enum",
	SymTagFunctionType:    "FunctionType",
	SymTagPointerType:     "PointerType",
	SymTagArrayType:       "ArrayType",
	SymTagBaseType:        "BaseType",
	SymTagTypedef:         "Typedef",
	SymTagBaseClass:       "BaseClass",
	SymTagFriend:          "Friend",
	SymTagFunctionArgType: "FunctionArgType",
	SymTagVTableShape:     "VTableShape",
	SymTagVTable:          "VTable",
}

func (t SymTag) String() string {
	if name, ok := symTagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("SymTag(%d)", uint32(t))
}

// BasicType is the kind of a base type symbol (DIA BasicType numbering).
type BasicType uint32

const (
	BasicTypeNone    BasicType = 0
	BasicTypeVoid    BasicType = 1
	BasicTypeChar    BasicType = 2
	BasicTypeWChar   BasicType = 3
	BasicTypeInt     BasicType = 6
	BasicTypeUInt    BasicType = 7
	BasicTypeFloat   BasicType = 8
	BasicTypeBool    BasicType = 10
	BasicTypeLong    BasicType = 13
	BasicTypeULong   BasicType = 14
	BasicTypeHresult BasicType = 31
	BasicTypeChar16  BasicType = 32
	BasicTypeChar32  BasicType = 33
	BasicTypeChar8   BasicType = 34
)

// LocationType says where a data symbol lives (DIA LocationType numbering).
type LocationType uint32

const (
	LocIsNull     LocationType = 0
	LocIsStatic   LocationType = 1
	LocIsTLS      LocationType = 2
	LocIsRegRel   LocationType = 3
	LocIsThisRel  LocationType = 4
	LocIsBitField LocationType = 6
	LocIsConstant LocationType = 10
)

// VariantKind is the representation held by a Variant.
type VariantKind int

const (
	VariantEmpty VariantKind = iota
	VariantInt32
	VariantUint32
	VariantInt64
	VariantUint64
	VariantFloat
	VariantOther
)

// Variant is a literal value carried by a constant symbol. Only the integer
// kinds carry a usable value; VariantFloat and VariantOther record that a
// literal exists in a representation this package does not decode.
type Variant struct {
	Kind VariantKind
	bits uint64
}

// NewInt32 returns a signed 32-bit variant.
func NewInt32(v int32) Variant { return Variant{Kind: VariantInt32, bits: uint64(int64(v))} }

// NewUint32 returns an unsigned 32-bit variant.
func NewUint32(v uint32) Variant { return Variant{Kind: VariantUint32, bits: uint64(v)} }

// NewInt64 returns a signed 64-bit variant.
func NewInt64(v int64) Variant { return Variant{Kind: VariantInt64, bits: uint64(v)} }

// NewUint64 returns an unsigned 64-bit variant.
func NewUint64(v uint64) Variant { return Variant{Kind: VariantUint64, bits: v} }

// Int32 returns the value of a VariantInt32.
func (v Variant) Int32() int32 { return int32(v.bits) }

// Uint32 returns the value of a VariantUint32.
func (v Variant) Uint32() uint32 { return uint32(v.bits) }

// Int64 returns the value of a VariantInt64.
func (v Variant) Int64() int64 { return int64(v.bits) }

// Uint64 returns the value of a VariantUint64.
func (v Variant) Uint64() uint64 { return v.bits }
