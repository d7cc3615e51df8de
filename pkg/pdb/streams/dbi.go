package streams

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// DBI stream versions.
const (
	DBIStreamVersionVC41 = 930803
	DBIStreamVersionV50  = 19960307
	DBIStreamVersionV60  = 19970606
	DBIStreamVersionV70  = 19990903
	DBIStreamVersionV110 = 20091201
)

// Machine types.
const (
	MachineUnknown = 0x0000
	MachineI386    = 0x014c
	MachineIA64    = 0x0200
	MachineAMD64   = 0x8664
	MachineARM     = 0x01c0
	MachineARM64   = 0xAA64
)

// NilStreamIndex marks an absent stream reference.
const NilStreamIndex = 0xFFFF

// DBIHeaderSize is the encoded size of DBIHeader.
const DBIHeaderSize = 64

// DBIHeader is the fixed header of the DBI stream.
type DBIHeader struct {
	VersionSignature        int32 // always -1
	VersionHeader           uint32
	Age                     uint32
	GlobalStreamIndex       uint16
	BuildNumber             uint16
	PublicStreamIndex       uint16
	PdbDllVersion           uint16
	SymRecordStream         uint16
	PdbDllRbld              uint16
	ModInfoSize             int32
	SectionContributionSize int32
	SectionMapSize          int32
	SourceInfoSize          int32
	TypeServerMapSize       int32
	MFCTypeServerIndex      uint32
	OptionalDbgHeaderSize   int32
	ECSubstreamSize         int32
	Flags                   uint16
	Machine                 uint16
	Padding                 uint32
}

// Indices into the optional debug header.
const (
	DbgHeaderFPO = iota
	DbgHeaderException
	DbgHeaderFixup
	DbgHeaderOmapToSrc
	DbgHeaderOmapFromSrc
	DbgHeaderSectionHdr
	DbgHeaderTokenRidMap
	DbgHeaderXdata
	DbgHeaderPdata
	DbgHeaderNewFPO
	DbgHeaderSectionHdrOrig
)

// DBIStream is the parsed DBI stream.
type DBIStream struct {
	Header     DBIHeader
	Modules    []ModuleInfo
	DbgStreams []uint16 // optional debug header, indexed by DbgHeader*
}

// ModuleInfo describes one compiland.
type ModuleInfo struct {
	Flags                uint16
	ModuleSymStream      uint16
	SymByteSize          uint32
	C11ByteSize          uint32
	C13ByteSize          uint32
	SourceFileCount      uint16
	SourceFileNameIndex  uint32
	PdbFilePathNameIndex uint32
	ModuleName           string
	ObjFileName          string
}

// moduleInfoFixedSize is the size of a module record before its two names.
const moduleInfoFixedSize = 64

// ReadDBIStream parses the DBI stream.
func ReadDBIStream(data []byte) (*DBIStream, error) {
	if len(data) < DBIHeaderSize {
		return nil, fmt.Errorf("DBI stream too small: %d bytes", len(data))
	}

	var header DBIHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read DBI header: %w", err)
	}
	if header.VersionSignature != -1 {
		return nil, fmt.Errorf("invalid DBI version signature: %d", header.VersionSignature)
	}

	dbi := &DBIStream{Header: header}

	sizes := []int32{
		header.ModInfoSize,
		header.SectionContributionSize,
		header.SectionMapSize,
		header.SourceInfoSize,
		header.TypeServerMapSize,
		header.ECSubstreamSize,
		header.OptionalDbgHeaderSize,
	}
	substreams := make([][]byte, len(sizes))
	offset := DBIHeaderSize
	for i, size := range sizes {
		if size < 0 || offset+int(size) > len(data) {
			return nil, fmt.Errorf("DBI substream %d out of bounds (offset %d, size %d)", i, offset, size)
		}
		substreams[i] = data[offset : offset+int(size)]
		offset += int(size)
	}

	modules, err := parseModuleInfo(substreams[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse module info: %w", err)
	}
	dbi.Modules = modules

	dbg := substreams[6]
	dbi.DbgStreams = make([]uint16, len(dbg)/2)
	for i := range dbi.DbgStreams {
		dbi.DbgStreams[i] = binary.LittleEndian.Uint16(dbg[i*2:])
	}

	return dbi, nil
}

// DbgStream returns the stream index stored at slot i of the optional debug
// header, or NilStreamIndex when the slot is absent.
func (d *DBIStream) DbgStream(i int) uint16 {
	if i < 0 || i >= len(d.DbgStreams) {
		return NilStreamIndex
	}
	return d.DbgStreams[i]
}

func parseModuleInfo(data []byte) ([]ModuleInfo, error) {
	var modules []ModuleInfo
	offset := 0

	for offset < len(data) {
		if offset+moduleInfoFixedSize > len(data) {
			return modules, fmt.Errorf("module record at offset %d truncated", offset)
		}
		rec := data[offset:]

		// Skip Unused1 (4) and the embedded section contribution (28).
		mod := ModuleInfo{
			Flags:                binary.LittleEndian.Uint16(rec[32:]),
			ModuleSymStream:      binary.LittleEndian.Uint16(rec[34:]),
			SymByteSize:          binary.LittleEndian.Uint32(rec[36:]),
			C11ByteSize:          binary.LittleEndian.Uint32(rec[40:]),
			C13ByteSize:          binary.LittleEndian.Uint32(rec[44:]),
			SourceFileCount:      binary.LittleEndian.Uint16(rec[48:]),
			SourceFileNameIndex:  binary.LittleEndian.Uint32(rec[56:]),
			PdbFilePathNameIndex: binary.LittleEndian.Uint32(rec[60:]),
		}
		offset += moduleInfoFixedSize

		var n int
		mod.ModuleName, n = ParseString(data[offset:])
		offset += n
		mod.ObjFileName, n = ParseString(data[offset:])
		offset += n

		offset = (offset + 3) &^ 3
		modules = append(modules, mod)
	}

	return modules, nil
}

// HasSymbols reports whether the module has a symbol stream.
func (m *ModuleInfo) HasSymbols() bool {
	return m.ModuleSymStream != NilStreamIndex && m.SymByteSize > 0
}

// MachineTypeName returns the human-readable name for a machine type.
func MachineTypeName(machine uint16) string {
	switch machine {
	case MachineI386:
		return "x86"
	case MachineAMD64:
		return "x64"
	case MachineARM:
		return "ARM"
	case MachineARM64:
		return "ARM64"
	case MachineIA64:
		return "IA64"
	default:
		return fmt.Sprintf("0x%04x", machine)
	}
}

// SectionHeaderSize is the size of an IMAGE_SECTION_HEADER.
const SectionHeaderSize = 40

// SectionHeader is a PE section header copied into the PDB.
type SectionHeader struct {
	Name            string
	VirtualSize     uint32
	VirtualAddress  uint32
	SizeOfRawData   uint32
	Characteristics uint32
}

// ReadSectionHeaders parses the section header debug stream.
func ReadSectionHeaders(data []byte) ([]SectionHeader, error) {
	if len(data)%SectionHeaderSize != 0 {
		return nil, fmt.Errorf("section header stream size %d is not a multiple of %d", len(data), SectionHeaderSize)
	}

	headers := make([]SectionHeader, 0, len(data)/SectionHeaderSize)
	for off := 0; off < len(data); off += SectionHeaderSize {
		rec := data[off : off+SectionHeaderSize]
		name, _ := ParseString(rec[:8])
		headers = append(headers, SectionHeader{
			Name:            name,
			VirtualSize:     binary.LittleEndian.Uint32(rec[8:]),
			VirtualAddress:  binary.LittleEndian.Uint32(rec[12:]),
			SizeOfRawData:   binary.LittleEndian.Uint32(rec[16:]),
			Characteristics: binary.LittleEndian.Uint32(rec[36:]),
		})
	}
	return headers, nil
}
