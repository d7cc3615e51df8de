package pdbtest

import (
	"bytes"
	"encoding/binary"

	"github.com/jtang613/pdbtojson/pkg/pdb/codeview"
	"github.com/jtang613/pdbtojson/pkg/pdb/streams"
)

// TypeStream accumulates TPI or IPI records.
type TypeStream struct {
	records [][]byte
}

// Add appends a record and returns its type index.
func (t *TypeStream) Add(kind uint16, body []byte) uint32 {
	rec := &Writer{}
	rec.U16(uint16(len(body) + 2)).U16(kind).Raw(body)
	t.records = append(t.records, rec.Bytes())
	return streams.TypeIndexBegin + uint32(len(t.records)-1)
}

// Next returns the index the next Add will return.
func (t *TypeStream) Next() uint32 {
	return streams.TypeIndexBegin + uint32(len(t.records))
}

// Bytes encodes the stream with a V80 header.
func (t *TypeStream) Bytes() []byte {
	var records []byte
	for _, r := range t.records {
		records = append(records, r...)
	}
	header := streams.TPIHeader{
		Version:            streams.TPIStreamVersionV80,
		HeaderSize:         56,
		TypeIndexBegin:     streams.TypeIndexBegin,
		TypeIndexEnd:       t.Next(),
		TypeRecordBytes:    uint32(len(records)),
		HashStreamIndex:    streams.NilStreamIndex,
		HashAuxStreamIndex: streams.NilStreamIndex,
		HashKeySize:        4,
		NumHashBuckets:     0x3FFFF,
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, &header)
	buf.Write(records)
	return buf.Bytes()
}

// Pointer64 attributes: a near 64-bit pointer with its size field set.
const Pointer64 = codeview.PointerKindNear64 | 8<<13

func Pointer(referent, attrs uint32) []byte {
	return (&Writer{}).U32(referent).U32(attrs).Bytes()
}

func Modifier(t uint32, flags uint16) []byte {
	return (&Writer{}).U32(t).U16(flags).U16(0).Bytes()
}

func ArgList(args ...uint32) []byte {
	w := (&Writer{}).U32(uint32(len(args)))
	for _, a := range args {
		w.U32(a)
	}
	return w.Bytes()
}

func Procedure(ret, argList uint32, params uint16) []byte {
	return (&Writer{}).U32(ret).U8(0).U8(0).U16(params).U32(argList).Bytes()
}

// MemberFunction encodes an LF_MFUNCTION. A zero this type makes the
// function static.
func MemberFunction(ret, class, this, argList uint32, params uint16) []byte {
	return (&Writer{}).U32(ret).U32(class).U32(this).U8(0).U8(0).U16(params).U32(argList).U32(0).Bytes()
}

// Class encodes an LF_CLASS, LF_STRUCTURE or LF_INTERFACE body. The unique
// name is written when prop carries PropertyHasUnique.
func Class(count, prop uint16, fieldList uint32, size uint64, name, unique string) []byte {
	w := (&Writer{}).U16(count).U16(prop).U32(fieldList).U32(0).U32(0).Raw(Numeric(size)).Str(name)
	if prop&codeview.PropertyHasUnique != 0 {
		w.Str(unique)
	}
	return w.Bytes()
}

func Union(count, prop uint16, fieldList uint32, size uint64, name string) []byte {
	return (&Writer{}).U16(count).U16(prop).U32(fieldList).Raw(Numeric(size)).Str(name).Bytes()
}

func Enum(count, prop uint16, underlying, fieldList uint32, name, unique string) []byte {
	w := (&Writer{}).U16(count).U16(prop).U32(underlying).U32(fieldList).Str(name)
	if prop&codeview.PropertyHasUnique != 0 {
		w.Str(unique)
	}
	return w.Bytes()
}

func Array(elem, index uint32, size uint64) []byte {
	return (&Writer{}).U32(elem).U32(index).Raw(Numeric(size)).Str("").Bytes()
}

func Bitfield(t uint32, length, position uint8) []byte {
	return (&Writer{}).U32(t).U8(length).U8(position).Bytes()
}

// MethodListEntry is one overload of an LF_METHODLIST.
type MethodListEntry struct {
	Attrs        uint16
	Type         uint32
	VTableOffset uint32
}

func MethodList(entries ...MethodListEntry) []byte {
	w := &Writer{}
	for _, e := range entries {
		w.U16(e.Attrs).U16(0).U32(e.Type)
		if codeview.FieldAttributes(e.Attrs).IsIntro() {
			w.U32(e.VTableOffset)
		}
	}
	return w.Bytes()
}

// Field attribute helpers: public access with a method property.
const (
	Public        = 3
	PublicVirtual = Public | codeview.MethodVirtual<<2
	PublicIntro   = Public | codeview.MethodIntro<<2
	PublicPure    = Public | codeview.MethodPureIntro<<2
	PublicStatic  = Public | codeview.MethodStatic<<2
)

// FieldList builds an LF_FIELDLIST body. Members are padded to four bytes
// with LF_PAD bytes the way compilers emit them.
type FieldList struct {
	w Writer
}

func (f *FieldList) pad() {
	for rem := (4 - f.w.Len()%4) % 4; rem > 0; rem-- {
		f.w.U8(0xF0 | uint8(rem))
	}
}

func (f *FieldList) BaseClass(attrs uint16, t uint32, offset uint64) *FieldList {
	f.w.U16(streams.LF_BCLASS).U16(attrs).U32(t).Raw(Numeric(offset))
	f.pad()
	return f
}

func (f *FieldList) VirtualBaseClass(leaf, attrs uint16, t, vbptr uint32, vbpOffset, vbIndex uint64) *FieldList {
	f.w.U16(leaf).U16(attrs).U32(t).U32(vbptr).Raw(Numeric(vbpOffset)).Raw(Numeric(vbIndex))
	f.pad()
	return f
}

func (f *FieldList) Member(attrs uint16, t uint32, offset uint64, name string) *FieldList {
	f.w.U16(streams.LF_MEMBER).U16(attrs).U32(t).Raw(Numeric(offset)).Str(name)
	f.pad()
	return f
}

func (f *FieldList) StaticMember(attrs uint16, t uint32, name string) *FieldList {
	f.w.U16(streams.LF_STMEMBER).U16(attrs).U32(t).Str(name)
	f.pad()
	return f
}

// OneMethod writes vtableOffset only for intro methods.
func (f *FieldList) OneMethod(attrs uint16, t, vtableOffset uint32, name string) *FieldList {
	f.w.U16(streams.LF_ONEMETHOD).U16(attrs).U32(t)
	if codeview.FieldAttributes(attrs).IsIntro() {
		f.w.U32(vtableOffset)
	}
	f.w.Str(name)
	f.pad()
	return f
}

func (f *FieldList) Method(count uint16, methodList uint32, name string) *FieldList {
	f.w.U16(streams.LF_METHOD).U16(count).U32(methodList).Str(name)
	f.pad()
	return f
}

// Enumerate writes an enumerator whose value is an encoded numeric leaf.
func (f *FieldList) Enumerate(value []byte, name string) *FieldList {
	f.w.U16(streams.LF_ENUMERATE).U16(Public).Raw(value).Str(name)
	f.pad()
	return f
}

func (f *FieldList) NestType(t uint32, name string) *FieldList {
	f.w.U16(streams.LF_NESTTYPE).U16(0).U32(t).Str(name)
	f.pad()
	return f
}

func (f *FieldList) VFuncTab(t uint32) *FieldList {
	f.w.U16(streams.LF_VFUNCTAB).U16(0).U32(t)
	return f
}

// Index continues the list in another LF_FIELDLIST record.
func (f *FieldList) Index(t uint32) *FieldList {
	f.w.U16(streams.LF_INDEX).U16(0).U32(t)
	return f
}

func (f *FieldList) Bytes() []byte { return f.w.Bytes() }

func FuncID(scope, t uint32, name string) []byte {
	return (&Writer{}).U32(scope).U32(t).Str(name).Bytes()
}

func StringID(s string) []byte {
	return (&Writer{}).U32(0).Str(s).Bytes()
}

// UDTSourceLine encodes an LF_UDT_SRC_LINE whose file is an LF_STRING_ID.
func UDTSourceLine(t, fileID, line uint32) []byte {
	return (&Writer{}).U32(t).U32(fileID).U32(line).Bytes()
}

// UDTModSourceLine encodes an LF_UDT_MOD_SRC_LINE whose file is a /names
// offset.
func UDTModSourceLine(t, nameOffset, line uint32, module uint16) []byte {
	return (&Writer{}).U32(t).U32(nameOffset).U32(line).U16(module).U16(0).Bytes()
}
