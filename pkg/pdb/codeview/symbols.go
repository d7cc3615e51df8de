// Package codeview decodes CodeView symbol records and type leaves.
package codeview

import (
	"encoding/binary"
	"fmt"

	"github.com/jtang613/pdbtojson/pkg/pdb/streams"
)

// Symbol record kinds (cvinfo.h numbering).
const (
	S_END            = 0x0006
	S_THUNK32        = 0x1102
	S_BLOCK32        = 0x1103
	S_WITH32         = 0x1104
	S_LABEL32        = 0x1105
	S_CONSTANT       = 0x1107
	S_UDT            = 0x1108
	S_LDATA32        = 0x110c
	S_GDATA32        = 0x110d
	S_PUB32          = 0x110e
	S_LPROC32        = 0x110f
	S_GPROC32        = 0x1110
	S_REGREL32       = 0x1111
	S_LTHREAD32      = 0x1112
	S_GTHREAD32      = 0x1113
	S_COMPILE2       = 0x1116
	S_OBJNAME        = 0x1101
	S_PROCREF        = 0x1125
	S_DATAREF        = 0x1126
	S_LPROCREF       = 0x1127
	S_SEPCODE        = 0x1132
	S_COMPILE3       = 0x113c
	S_LOCAL          = 0x113e
	S_LPROC32_ID     = 0x1146
	S_GPROC32_ID     = 0x1147
	S_BUILDINFO      = 0x114c
	S_INLINESITE     = 0x114d
	S_INLINESITE_END = 0x114e
	S_PROC_ID_END    = 0x114f
	S_LPROC32_DPC    = 0x1155
	S_LPROC32_DPC_ID = 0x1156
	S_INLINESITE2    = 0x115d
)

// SymbolRecord is one framed symbol record. Offset is the position of the
// record's length field within the symbol substream, which is how parent and
// end pointers refer to records.
type SymbolRecord struct {
	Offset uint32
	Kind   uint16
	Data   []byte // record body after the kind field
}

// ProcSym is a procedure symbol (S_GPROC32, S_LPROC32 and the _ID forms).
type ProcSym struct {
	Parent    uint32
	End       uint32
	Next      uint32
	Length    uint32 // code length in bytes
	DbgStart  uint32
	DbgEnd    uint32
	TypeIndex uint32 // LF_PROCEDURE/LF_MFUNCTION, or an IPI id for _ID kinds
	Offset    uint32
	Segment   uint16
	Flags     uint8
	Name      string
}

// DataSym is a data symbol (S_GDATA32, S_LDATA32, S_GTHREAD32, S_LTHREAD32).
type DataSym struct {
	TypeIndex uint32
	Offset    uint32
	Segment   uint16
	Name      string
}

// UDTSym names a type (S_UDT).
type UDTSym struct {
	TypeIndex uint32
	Name      string
}

// PubSym is a public symbol (S_PUB32).
type PubSym struct {
	Flags   uint32
	Offset  uint32
	Segment uint16
	Name    string
}

// Public symbol flags.
const (
	PubFlagCode     = 0x1
	PubFlagFunction = 0x2
	PubFlagManaged  = 0x4
	PubFlagMSIL     = 0x8
)

// ParseSymbols frames the records of a symbol substream. The data must not
// include the module signature. Parsing stops at the first malformed length;
// records decoded up to that point are returned together with the error.
func ParseSymbols(data []byte) ([]SymbolRecord, error) {
	var records []SymbolRecord
	offset := 0

	for offset+4 <= len(data) {
		recLen := int(binary.LittleEndian.Uint16(data[offset:]))
		if recLen < 2 || offset+2+recLen > len(data) {
			return records, fmt.Errorf("symbol record at offset %d has invalid length %d", offset, recLen)
		}

		body := data[offset+2 : offset+2+recLen]
		records = append(records, SymbolRecord{
			Offset: uint32(offset),
			Kind:   binary.LittleEndian.Uint16(body),
			Data:   body[2:],
		})
		offset += 2 + recLen
	}

	return records, nil
}

// procSymFixedSize is the size of a ProcSym before its name.
const procSymFixedSize = 35

// ParseProcSym parses a procedure symbol record.
func ParseProcSym(data []byte) (*ProcSym, error) {
	if len(data) < procSymFixedSize {
		return nil, fmt.Errorf("proc symbol data too small: %d bytes", len(data))
	}

	proc := &ProcSym{
		Parent:    binary.LittleEndian.Uint32(data[0:]),
		End:       binary.LittleEndian.Uint32(data[4:]),
		Next:      binary.LittleEndian.Uint32(data[8:]),
		Length:    binary.LittleEndian.Uint32(data[12:]),
		DbgStart:  binary.LittleEndian.Uint32(data[16:]),
		DbgEnd:    binary.LittleEndian.Uint32(data[20:]),
		TypeIndex: binary.LittleEndian.Uint32(data[24:]),
		Offset:    binary.LittleEndian.Uint32(data[28:]),
		Segment:   binary.LittleEndian.Uint16(data[32:]),
		Flags:     data[34],
	}
	proc.Name, _ = streams.ParseString(data[procSymFixedSize:])
	return proc, nil
}

// ParseDataSym parses a data or thread-local data symbol record.
func ParseDataSym(data []byte) (*DataSym, error) {
	if len(data) < 10 {
		return nil, fmt.Errorf("data symbol data too small: %d bytes", len(data))
	}

	sym := &DataSym{
		TypeIndex: binary.LittleEndian.Uint32(data[0:]),
		Offset:    binary.LittleEndian.Uint32(data[4:]),
		Segment:   binary.LittleEndian.Uint16(data[8:]),
	}
	sym.Name, _ = streams.ParseString(data[10:])
	return sym, nil
}

// ParseUDTSym parses an S_UDT record.
func ParseUDTSym(data []byte) (*UDTSym, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("UDT symbol data too small: %d bytes", len(data))
	}

	udt := &UDTSym{TypeIndex: binary.LittleEndian.Uint32(data)}
	udt.Name, _ = streams.ParseString(data[4:])
	return udt, nil
}

// ParsePubSym parses an S_PUB32 record.
func ParsePubSym(data []byte) (*PubSym, error) {
	if len(data) < 10 {
		return nil, fmt.Errorf("public symbol data too small: %d bytes", len(data))
	}

	pub := &PubSym{
		Flags:   binary.LittleEndian.Uint32(data[0:]),
		Offset:  binary.LittleEndian.Uint32(data[4:]),
		Segment: binary.LittleEndian.Uint16(data[8:]),
	}
	pub.Name, _ = streams.ParseString(data[10:])
	return pub, nil
}

// IsProcSymbol reports whether kind is a procedure symbol.
func IsProcSymbol(kind uint16) bool {
	switch kind {
	case S_GPROC32, S_LPROC32, S_GPROC32_ID, S_LPROC32_ID,
		S_LPROC32_DPC, S_LPROC32_DPC_ID:
		return true
	}
	return false
}

// IsIDProcSymbol reports whether a procedure's type index refers to the IPI
// stream rather than TPI.
func IsIDProcSymbol(kind uint16) bool {
	return kind == S_GPROC32_ID || kind == S_LPROC32_ID || kind == S_LPROC32_DPC_ID
}

// IsDataSymbol reports whether kind is a data symbol.
func IsDataSymbol(kind uint16) bool {
	switch kind {
	case S_GDATA32, S_LDATA32, S_GTHREAD32, S_LTHREAD32:
		return true
	}
	return false
}

// IsGlobalSymbol reports whether the symbol has external linkage.
func IsGlobalSymbol(kind uint16) bool {
	switch kind {
	case S_GPROC32, S_GPROC32_ID, S_GDATA32, S_GTHREAD32, S_PUB32:
		return true
	}
	return false
}

// OpensScope reports whether kind starts a nested scope that a matching
// scope end closes.
func OpensScope(kind uint16) bool {
	switch kind {
	case S_GPROC32, S_LPROC32, S_GPROC32_ID, S_LPROC32_ID,
		S_LPROC32_DPC, S_LPROC32_DPC_ID,
		S_THUNK32, S_BLOCK32, S_WITH32, S_SEPCODE,
		S_INLINESITE, S_INLINESITE2:
		return true
	}
	return false
}

// ClosesScope reports whether kind ends a nested scope.
func ClosesScope(kind uint16) bool {
	return kind == S_END || kind == S_PROC_ID_END || kind == S_INLINESITE_END
}

// SymbolKindName returns the name for a symbol kind constant.
func SymbolKindName(kind uint16) string {
	switch kind {
	case S_END:
		return "S_END"
	case S_GPROC32:
		return "S_GPROC32"
	case S_LPROC32:
		return "S_LPROC32"
	case S_GPROC32_ID:
		return "S_GPROC32_ID"
	case S_LPROC32_ID:
		return "S_LPROC32_ID"
	case S_GDATA32:
		return "S_GDATA32"
	case S_LDATA32:
		return "S_LDATA32"
	case S_GTHREAD32:
		return "S_GTHREAD32"
	case S_LTHREAD32:
		return "S_LTHREAD32"
	case S_PUB32:
		return "S_PUB32"
	case S_UDT:
		return "S_UDT"
	case S_CONSTANT:
		return "S_CONSTANT"
	case S_PROCREF:
		return "S_PROCREF"
	case S_LPROCREF:
		return "S_LPROCREF"
	case S_DATAREF:
		return "S_DATAREF"
	case S_OBJNAME:
		return "S_OBJNAME"
	case S_COMPILE2:
		return "S_COMPILE2"
	case S_COMPILE3:
		return "S_COMPILE3"
	case S_BLOCK32:
		return "S_BLOCK32"
	case S_THUNK32:
		return "S_THUNK32"
	case S_LOCAL:
		return "S_LOCAL"
	case S_BUILDINFO:
		return "S_BUILDINFO"
	case S_INLINESITE:
		return "S_INLINESITE"
	case S_INLINESITE_END:
		return "S_INLINESITE_END"
	case S_PROC_ID_END:
		return "S_PROC_ID_END"
	default:
		return fmt.Sprintf("S_0x%04x", kind)
	}
}
