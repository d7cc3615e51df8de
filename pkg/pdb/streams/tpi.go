package streams

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// TPI and IPI stream versions.
const (
	TPIStreamVersion40  = 19950410
	TPIStreamVersion41  = 19951122
	TPIStreamVersion50  = 19961031
	TPIStreamVersionV70 = 19990903
	TPIStreamVersionV80 = 20040203
)

// TypeIndexBegin is the first non-builtin type index.
const TypeIndexBegin = 0x1000

// TPIHeader is the header shared by the TPI and IPI streams.
type TPIHeader struct {
	Version                 uint32
	HeaderSize              uint32
	TypeIndexBegin          uint32
	TypeIndexEnd            uint32
	TypeRecordBytes         uint32
	HashStreamIndex         uint16
	HashAuxStreamIndex      uint16
	HashKeySize             uint32
	NumHashBuckets          uint32
	HashValueBufferOffset   int32
	HashValueBufferLength   uint32
	IndexOffsetBufferOffset int32
	IndexOffsetBufferLength uint32
	HashAdjBufferOffset     int32
	HashAdjBufferLength     uint32
}

// TypeStream is a parsed TPI or IPI stream: an ordered table of records
// addressed by type index.
type TypeStream struct {
	Header  TPIHeader
	Records []TypeRecord
}

// TypeRecord is a single leaf record.
type TypeRecord struct {
	Index uint32
	Kind  uint16
	Data  []byte // record body after the kind field
}

// ReadTypeStream parses a TPI or IPI stream from raw bytes.
func ReadTypeStream(data []byte) (*TypeStream, error) {
	r := bytes.NewReader(data)

	var header TPIHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read type stream header: %w", err)
	}
	if header.Version != TPIStreamVersionV80 && header.Version != TPIStreamVersionV70 {
		return nil, fmt.Errorf("unsupported type stream version: %d", header.Version)
	}
	if header.TypeIndexEnd < header.TypeIndexBegin {
		return nil, fmt.Errorf("invalid type index range [0x%x, 0x%x)", header.TypeIndexBegin, header.TypeIndexEnd)
	}

	if _, err := r.Seek(int64(header.HeaderSize), io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to skip type stream header: %w", err)
	}
	recordData := make([]byte, header.TypeRecordBytes)
	if _, err := io.ReadFull(r, recordData); err != nil {
		return nil, fmt.Errorf("failed to read type records: %w", err)
	}

	ts := &TypeStream{
		Header:  header,
		Records: make([]TypeRecord, 0, header.TypeIndexEnd-header.TypeIndexBegin),
	}

	offset := 0
	for index := header.TypeIndexBegin; index < header.TypeIndexEnd; index++ {
		if offset+4 > len(recordData) {
			return nil, fmt.Errorf("type record 0x%x truncated at offset %d", index, offset)
		}
		recLen := int(binary.LittleEndian.Uint16(recordData[offset:]))
		if recLen < 2 || offset+2+recLen > len(recordData) {
			return nil, fmt.Errorf("type record 0x%x has invalid length %d", index, recLen)
		}

		body := recordData[offset+2 : offset+2+recLen]
		ts.Records = append(ts.Records, TypeRecord{
			Index: index,
			Kind:  binary.LittleEndian.Uint16(body),
			Data:  body[2:],
		})
		offset += 2 + recLen
	}

	return ts, nil
}

// Get returns the record for a type index, or nil when out of range.
func (t *TypeStream) Get(index uint32) *TypeRecord {
	if index < t.Header.TypeIndexBegin || index >= t.Header.TypeIndexBegin+uint32(len(t.Records)) {
		return nil
	}
	return &t.Records[index-t.Header.TypeIndexBegin]
}

// NumTypes returns the number of records.
func (t *TypeStream) NumTypes() int {
	return len(t.Records)
}

// Type record leaves (cvinfo.h numbering).
const (
	LF_VTSHAPE   = 0x000a
	LF_MODIFIER  = 0x1001
	LF_POINTER   = 0x1002
	LF_PROCEDURE = 0x1008
	LF_MFUNCTION = 0x1009

	LF_ARGLIST    = 0x1201
	LF_FIELDLIST  = 0x1203
	LF_BITFIELD   = 0x1205
	LF_METHODLIST = 0x1206

	LF_BCLASS    = 0x1400
	LF_VBCLASS   = 0x1401
	LF_IVBCLASS  = 0x1402
	LF_INDEX     = 0x1404
	LF_VFUNCTAB  = 0x1409
	LF_FRIENDCLS = 0x140a
	LF_VFUNCOFF  = 0x140c

	LF_ENUMERATE    = 0x1502
	LF_ARRAY        = 0x1503
	LF_CLASS        = 0x1504
	LF_STRUCTURE    = 0x1505
	LF_UNION        = 0x1506
	LF_ENUM         = 0x1507
	LF_FRIENDFCN    = 0x150c
	LF_MEMBER       = 0x150d
	LF_STMEMBER     = 0x150e
	LF_METHOD       = 0x150f
	LF_NESTTYPE     = 0x1510
	LF_ONEMETHOD    = 0x1511
	LF_NESTTYPEEX   = 0x1512
	LF_MEMBERMODIFY = 0x1513
	LF_INTERFACE    = 0x1519

	LF_FUNC_ID          = 0x1601
	LF_MFUNC_ID         = 0x1602
	LF_BUILDINFO        = 0x1603
	LF_SUBSTR_LIST      = 0x1604
	LF_STRING_ID        = 0x1605
	LF_UDT_SRC_LINE     = 0x1606
	LF_UDT_MOD_SRC_LINE = 0x1607
)

// Builtin type index layout: bits 0-7 kind, bits 8-11 pointer mode.
const (
	TM_DIRECT  = 0
	TM_NPTR    = 1
	TM_FPTR    = 2
	TM_HPTR    = 3
	TM_NPTR32  = 4
	TM_FPTR32  = 5
	TM_NPTR64  = 6
	TM_NPTR128 = 7
)

// Builtin type kinds.
const (
	T_NOTYPE  = 0x0000
	T_VOID    = 0x0003
	T_HRESULT = 0x0008
	T_CHAR    = 0x0010
	T_SHORT   = 0x0011
	T_LONG    = 0x0012
	T_QUAD    = 0x0013
	T_OCT     = 0x0014
	T_UCHAR   = 0x0020
	T_USHORT  = 0x0021
	T_ULONG   = 0x0022
	T_UQUAD   = 0x0023
	T_UOCT    = 0x0024
	T_BOOL08  = 0x0030
	T_BOOL16  = 0x0031
	T_BOOL32  = 0x0032
	T_BOOL64  = 0x0033
	T_REAL32  = 0x0040
	T_REAL64  = 0x0041
	T_REAL80  = 0x0042
	T_REAL128 = 0x0043
	T_REAL16  = 0x0046
	T_INT1    = 0x0068
	T_UINT1   = 0x0069
	T_RCHAR   = 0x0070
	T_WCHAR   = 0x0071
	T_INT2    = 0x0072
	T_UINT2   = 0x0073
	T_INT4    = 0x0074
	T_UINT4   = 0x0075
	T_INT8    = 0x0076
	T_UINT8   = 0x0077
	T_INT16   = 0x0078
	T_UINT16  = 0x0079
	T_CHAR16  = 0x007a
	T_CHAR32  = 0x007b
	T_CHAR8   = 0x007c
)

// SplitBuiltin splits a builtin type index into its kind and pointer mode.
func SplitBuiltin(index uint32) (kind, mode uint32) {
	return index & 0xFF, (index >> 8) & 0xF
}

// LeafKindName returns the name for a LF_* constant.
func LeafKindName(kind uint16) string {
	switch kind {
	case LF_MODIFIER:
		return "LF_MODIFIER"
	case LF_POINTER:
		return "LF_POINTER"
	case LF_ARRAY:
		return "LF_ARRAY"
	case LF_CLASS:
		return "LF_CLASS"
	case LF_STRUCTURE:
		return "LF_STRUCTURE"
	case LF_UNION:
		return "LF_UNION"
	case LF_ENUM:
		return "LF_ENUM"
	case LF_INTERFACE:
		return "LF_INTERFACE"
	case LF_PROCEDURE:
		return "LF_PROCEDURE"
	case LF_MFUNCTION:
		return "LF_MFUNCTION"
	case LF_ARGLIST:
		return "LF_ARGLIST"
	case LF_FIELDLIST:
		return "LF_FIELDLIST"
	case LF_BITFIELD:
		return "LF_BITFIELD"
	case LF_METHODLIST:
		return "LF_METHODLIST"
	case LF_VTSHAPE:
		return "LF_VTSHAPE"
	case LF_BCLASS:
		return "LF_BCLASS"
	case LF_VBCLASS:
		return "LF_VBCLASS"
	case LF_IVBCLASS:
		return "LF_IVBCLASS"
	case LF_INDEX:
		return "LF_INDEX"
	case LF_VFUNCTAB:
		return "LF_VFUNCTAB"
	case LF_ENUMERATE:
		return "LF_ENUMERATE"
	case LF_MEMBER:
		return "LF_MEMBER"
	case LF_STMEMBER:
		return "LF_STMEMBER"
	case LF_METHOD:
		return "LF_METHOD"
	case LF_ONEMETHOD:
		return "LF_ONEMETHOD"
	case LF_NESTTYPE:
		return "LF_NESTTYPE"
	case LF_FUNC_ID:
		return "LF_FUNC_ID"
	case LF_MFUNC_ID:
		return "LF_MFUNC_ID"
	case LF_BUILDINFO:
		return "LF_BUILDINFO"
	case LF_STRING_ID:
		return "LF_STRING_ID"
	case LF_UDT_SRC_LINE:
		return "LF_UDT_SRC_LINE"
	case LF_UDT_MOD_SRC_LINE:
		return "LF_UDT_MOD_SRC_LINE"
	default:
		return fmt.Sprintf("LF_0x%04x", kind)
	}
}
