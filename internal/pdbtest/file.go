package pdbtest

import (
	"github.com/jtang613/pdbtojson/pkg/pdb/streams"
)

// Stream layout used by File.
const (
	StreamNames         = 5
	StreamSections      = 6
	StreamGlobals       = 7
	StreamFirstModule   = 8
	DefaultBlockSize    = 512
	DefaultSectionStart = 0x1000
)

// File describes a complete PDB. Nil parts are left out of the file.
type File struct {
	GUID      [16]byte
	Age       uint32
	Machine   uint16
	BlockSize uint32

	TPI      *TypeStream
	IPI      *TypeStream
	Names    *Names
	Sections []Section
	Globals  *SymbolStream
	Modules  []ModuleSource
}

// ModuleSource is the content of one compiland.
type ModuleSource struct {
	Name    string
	Symbols *SymbolStream
	C13     []byte
}

// Bytes encodes f as an MSF container.
func (f *File) Bytes() []byte {
	blockSize := f.BlockSize
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	tpi := f.TPI
	if tpi == nil {
		tpi = &TypeStream{}
	}

	list := make([][]byte, StreamFirstModule+len(f.Modules))
	list[0] = []byte{}

	var namesStream uint32
	if f.Names != nil {
		namesStream = StreamNames
		list[StreamNames] = f.Names.Bytes()
	}
	list[1] = PDBInfo(f.GUID, f.Age, namesStream)
	list[2] = tpi.Bytes()
	if f.IPI != nil {
		list[4] = f.IPI.Bytes()
	}

	dbi := DBI{Machine: f.Machine}
	if len(f.Sections) > 0 {
		dbi.SectionHeaderStream = StreamSections
		list[StreamSections] = SectionHeaders(f.Sections...)
	}
	if f.Globals != nil {
		dbi.SymRecordStream = StreamGlobals
		list[StreamGlobals] = f.Globals.Bytes()
	}
	for i, m := range f.Modules {
		mod := Module{Name: m.Name, ObjName: m.Name, SymStream: streams.NilStreamIndex}
		if m.Symbols != nil || m.C13 != nil {
			var symbols []byte
			if m.Symbols != nil {
				symbols = m.Symbols.Bytes()
			}
			mod.SymStream = uint16(StreamFirstModule + i)
			mod.SymByteSize = uint32(len(symbols) + 4)
			mod.C13ByteSize = uint32(len(m.C13))
			list[StreamFirstModule+i] = ModuleStream(symbols, m.C13)
		}
		dbi.Modules = append(dbi.Modules, mod)
	}
	list[3] = dbi.Bytes()

	return BuildMSF(blockSize, list)
}
