package pdbtest

import (
	"bytes"
	"encoding/binary"

	"github.com/jtang613/pdbtojson/pkg/pdb/streams"
)

// Module is one DBI module record.
type Module struct {
	Name        string
	ObjName     string
	SymStream   uint16
	SymByteSize uint32
	C13ByteSize uint32
}

// DBI describes a DBI stream.
type DBI struct {
	Machine         uint16
	SymRecordStream uint16
	Modules         []Module
	// SectionHeaderStream is written to the optional debug header when
	// non-zero.
	SectionHeaderStream uint16
}

func (d DBI) Bytes() []byte {
	mods := &Writer{}
	for _, m := range d.Modules {
		mods.U32(0)
		mods.Raw(make([]byte, 28)) // section contribution
		mods.U16(0).U16(m.SymStream)
		mods.U32(m.SymByteSize).U32(0).U32(m.C13ByteSize)
		mods.U16(0).U16(0).U32(0).U32(0).U32(0)
		mods.Str(m.Name).Str(m.ObjName).Align(4)
	}

	dbg := &Writer{}
	if d.SectionHeaderStream != 0 {
		for i := 0; i <= streams.DbgHeaderSectionHdrOrig; i++ {
			if i == streams.DbgHeaderSectionHdr {
				dbg.U16(d.SectionHeaderStream)
			} else {
				dbg.U16(streams.NilStreamIndex)
			}
		}
	}

	symRecords := d.SymRecordStream
	if symRecords == 0 {
		symRecords = streams.NilStreamIndex
	}
	header := streams.DBIHeader{
		VersionSignature:      -1,
		VersionHeader:         streams.DBIStreamVersionV70,
		Age:                   1,
		GlobalStreamIndex:     streams.NilStreamIndex,
		PublicStreamIndex:     streams.NilStreamIndex,
		SymRecordStream:       symRecords,
		ModInfoSize:           int32(mods.Len()),
		OptionalDbgHeaderSize: int32(dbg.Len()),
		Machine:               d.Machine,
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, &header)
	buf.Write(mods.Bytes())
	buf.Write(dbg.Bytes())
	return buf.Bytes()
}

// ModuleStream joins a module's symbols and C13 block behind the C13
// signature. SymByteSize of the module record is len(symbols)+4.
func ModuleStream(symbols, c13 []byte) []byte {
	return (&Writer{}).U32(streams.CVSignatureC13).Raw(symbols).Raw(c13).Bytes()
}

// Section is a PE section header.
type Section struct {
	Name           string
	VirtualAddress uint32
	VirtualSize    uint32
}

func SectionHeaders(sections ...Section) []byte {
	w := &Writer{}
	for _, s := range sections {
		name := make([]byte, 8)
		copy(name, s.Name)
		w.Raw(name).U32(s.VirtualSize).U32(s.VirtualAddress)
		w.U32(s.VirtualSize).U32(0).U32(0).U32(0).U16(0).U16(0).U32(0x60000020)
	}
	return w.Bytes()
}

// PDBInfo encodes the PDB info stream with a named stream map holding only
// /names, or nothing when namesStream is zero.
func PDBInfo(guid [16]byte, age uint32, namesStream uint32) []byte {
	w := &Writer{}
	w.U32(streams.PDBStreamVersionVC70).U32(0x5F000000).U32(age).Raw(guid[:])
	if namesStream == 0 {
		w.U32(0).U32(0).U32(0).U32(0).U32(0)
		return w.Bytes()
	}
	name := streams.NamesStreamName
	w.U32(uint32(len(name) + 1)).Str(name)
	// One bucket, present, holding (offset 0, namesStream). No buckets are
	// deleted and no feature codes follow.
	w.U32(1).U32(1)
	w.U32(1).U32(1)
	w.U32(0)
	w.U32(0).U32(namesStream)
	w.U32(0)
	return w.Bytes()
}

// Names builds the /names string table. Offset zero is the empty string.
type Names struct {
	buf []byte
}

// Add stores s and returns its offset.
func (n *Names) Add(s string) uint32 {
	if len(n.buf) == 0 {
		n.buf = []byte{0}
	}
	off := uint32(len(n.buf))
	n.buf = append(n.buf, s...)
	n.buf = append(n.buf, 0)
	return off
}

func (n *Names) Bytes() []byte {
	if len(n.buf) == 0 {
		n.buf = []byte{0}
	}
	w := &Writer{}
	w.U32(streams.NameTableSignature).U32(1).U32(uint32(len(n.buf))).Raw(n.buf)
	w.Align(4).U32(0).U32(0)
	return w.Bytes()
}

// LineBlock is the line table of one contiguous code range.
type LineBlock struct {
	Segment    uint16
	Offset     uint32
	Size       uint32
	NameOffset uint32 // /names offset of the source file
	Lines      []Line
}

// Line maps an offset within the block to a line number.
type Line struct {
	Offset uint32
	Number uint32
}

// C13Lines encodes a file checksum subsection and one lines subsection per
// block.
func C13Lines(blocks ...LineBlock) []byte {
	checksums := &Writer{}
	fileIDs := make(map[uint32]uint32)
	for _, b := range blocks {
		if _, ok := fileIDs[b.NameOffset]; ok {
			continue
		}
		fileIDs[b.NameOffset] = uint32(checksums.Len())
		checksums.U32(b.NameOffset).U8(0).U8(0).Align(4)
	}

	w := &Writer{}
	subsection := func(kind uint32, body []byte) {
		w.U32(kind).U32(uint32(len(body))).Raw(body).Align(4)
	}
	subsection(streams.DebugSFileChecksums, checksums.Bytes())
	for _, b := range blocks {
		body := &Writer{}
		body.U32(b.Offset).U16(b.Segment).U16(0).U32(b.Size)
		body.U32(fileIDs[b.NameOffset]).U32(uint32(len(b.Lines))).U32(uint32(12 + 8*len(b.Lines)))
		for _, l := range b.Lines {
			body.U32(l.Offset).U32(l.Number | 0x80000000)
		}
		subsection(streams.DebugSLines, body.Bytes())
	}
	return w.Bytes()
}
