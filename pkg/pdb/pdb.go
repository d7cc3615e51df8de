package pdb

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/jtang613/pdbtojson/pkg/pdb/codeview"
	"github.com/jtang613/pdbtojson/pkg/pdb/msf"
	"github.com/jtang613/pdbtojson/pkg/pdb/streams"
)

// Fixed stream indices.
const (
	StreamPDB = 1
	StreamTPI = 2
	StreamDBI = 3
	StreamIPI = 4
)

// ErrLoad wraps every failure that prevents a session from opening.
var ErrLoad = errors.New("failed to load PDB")

// Session is an opened PDB file. A Session is not safe for concurrent use.
type Session struct {
	msf      *msf.MSF
	name     string
	info     *streams.PDBInfo
	dbi      *streams.DBIStream
	tpi      *streams.TypeStream
	ipi      *streams.TypeStream
	names    *streams.NameTable
	sections []streams.SectionHeader
	globals  []codeview.SymbolRecord
	modules  []*module

	warnings []error

	types    map[uint32]*node
	building map[uint32]bool
	nextID   uint32

	udtByUnique map[string]uint32
	udtByName   map[string]uint32
	udtLines    map[uint32]sourceLine
	procList    []procEntry
	dataList    []dataEntry
	procs       map[string][]procEntry
	data        map[string]uint64

	global *node
}

type module struct {
	info    *streams.ModuleInfo
	symbols []codeview.SymbolRecord
	lines   *streams.ModuleLines
}

type sourceLine struct {
	file string
	line uint32
}

// Open opens the PDB file at path.
func Open(path string) (*Session, error) {
	m, err := msf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	s, err := newSession(m, filepath.Base(path))
	if err != nil {
		m.Close()
		return nil, err
	}
	return s, nil
}

// NewSession opens a PDB held by r. Closing the session does not close r.
func NewSession(r io.ReaderAt) (*Session, error) {
	m, err := msf.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return newSession(m, "")
}

func newSession(m *msf.MSF, name string) (*Session, error) {
	s := &Session{
		msf:       m,
		name:      name,
		types:       make(map[uint32]*node),
		building:    make(map[uint32]bool),
		nextID:      1 << 31,
		udtByUnique: make(map[string]uint32),
		udtByName:   make(map[string]uint32),
		udtLines:    make(map[uint32]sourceLine),
	}

	if err := s.loadRequired(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	s.loadOptional()
	s.indexTypes()
	s.indexSymbols()
	return s, nil
}

// loadRequired reads the streams without which no symbol can be produced.
func (s *Session) loadRequired() error {
	if s.msf.NumStreams() <= StreamDBI {
		return fmt.Errorf("file has %d streams, need at least %d", s.msf.NumStreams(), StreamDBI+1)
	}

	reader, err := s.msf.StreamReader(StreamPDB)
	if err != nil {
		return fmt.Errorf("failed to open PDB info stream: %w", err)
	}
	if s.info, err = streams.ReadPDBInfo(reader); err != nil {
		return err
	}

	data, err := s.msf.ReadStream(StreamTPI)
	if err != nil {
		return fmt.Errorf("failed to read TPI stream: %w", err)
	}
	if s.tpi, err = streams.ReadTypeStream(data); err != nil {
		return fmt.Errorf("failed to parse TPI stream: %w", err)
	}

	data, err = s.msf.ReadStream(StreamDBI)
	if err != nil {
		return fmt.Errorf("failed to read DBI stream: %w", err)
	}
	if s.dbi, err = streams.ReadDBIStream(data); err != nil {
		return fmt.Errorf("failed to parse DBI stream: %w", err)
	}
	return nil
}

// loadOptional reads the streams that only enrich symbols. Failures are kept
// as warnings and the affected data is left out.
func (s *Session) loadOptional() {
	if s.msf.NumStreams() > StreamIPI {
		if data, err := s.msf.ReadStream(StreamIPI); err != nil {
			s.warn("failed to read IPI stream: %w", err)
		} else if len(data) > 0 {
			if s.ipi, err = streams.ReadTypeStream(data); err != nil {
				s.warn("failed to parse IPI stream: %w", err)
			}
		}
	}

	if idx, ok := s.info.NamedStreams[streams.NamesStreamName]; ok {
		if data, err := s.msf.ReadStream(int(idx)); err != nil {
			s.warn("failed to read names stream: %w", err)
		} else if s.names, err = streams.ReadNameTable(data); err != nil {
			s.warn("failed to parse names stream: %w", err)
		}
	}

	if idx := s.dbi.DbgStream(streams.DbgHeaderSectionHdr); idx != streams.NilStreamIndex {
		if data, err := s.msf.ReadStream(int(idx)); err != nil {
			s.warn("failed to read section headers: %w", err)
		} else if s.sections, err = streams.ReadSectionHeaders(data); err != nil {
			s.warn("failed to parse section headers: %w", err)
		}
	}

	if idx := s.dbi.Header.SymRecordStream; idx != streams.NilStreamIndex {
		if data, err := s.msf.ReadStream(int(idx)); err != nil {
			s.warn("failed to read global symbols: %w", err)
		} else {
			s.globals, err = codeview.ParseSymbols(data)
			if err != nil {
				s.warn("global symbols: %w", err)
			}
		}
	}

	for i := range s.dbi.Modules {
		mod := &module{info: &s.dbi.Modules[i]}
		s.modules = append(s.modules, mod)
		if mod.info.ModuleSymStream == streams.NilStreamIndex {
			continue
		}
		if err := s.loadModule(mod); err != nil {
			s.warn("module %q: %w", mod.info.ModuleName, err)
		}
	}
}

func (s *Session) loadModule(mod *module) error {
	data, err := s.msf.ReadStream(int(mod.info.ModuleSymStream))
	if err != nil {
		return err
	}
	ms, err := streams.SplitModuleStream(data, mod.info)
	if err != nil {
		return err
	}

	var symErr, lineErr error
	mod.symbols, symErr = codeview.ParseSymbols(ms.Symbols)
	// A damaged line table only costs source locations.
	if mod.lines, lineErr = streams.ReadC13Lines(ms.C13); lineErr != nil {
		lineErr = fmt.Errorf("failed to decode line table: %w", lineErr)
	}
	return errors.Join(symErr, lineErr)
}

func (s *Session) warn(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Errorf(format, args...))
}

// Warnings returns the non-fatal problems met while loading. Symbols that
// depend on the affected streams are missing or lack source information.
func (s *Session) Warnings() []error {
	return s.warnings
}

// Close releases the underlying file.
func (s *Session) Close() error {
	return s.msf.Close()
}

// Info returns a summary of the file.
func (s *Session) Info() *Info {
	return &Info{
		GUID:    s.info.GUIDString(),
		Age:     s.info.Age,
		Version: s.info.Version,
		Machine: streams.MachineTypeName(s.dbi.Header.Machine),
		Streams: s.msf.NumStreams(),
		Modules: len(s.dbi.Modules),
		Types:   s.tpi.NumTypes(),
	}
}

// Sections returns the PE sections recorded in the file.
func (s *Session) Sections() []SectionInfo {
	out := make([]SectionInfo, 0, len(s.sections))
	for i, sec := range s.sections {
		out = append(out, SectionInfo{
			Index:   uint16(i + 1),
			Name:    sec.Name,
			Address: sec.VirtualAddress,
			Length:  sec.VirtualSize,
		})
	}
	return out
}

// GlobalScope returns the root of the symbol graph.
func (s *Session) GlobalScope() (Symbol, error) {
	if s.global == nil {
		s.global = &node{s: s, id: s.newID(), tag: SymTagExe, name: s.name}
		s.global.setChildren(s.globalChildren)
	}
	return s.global, nil
}

func (s *Session) newID() uint32 {
	id := s.nextID
	s.nextID++
	return id
}

// rva converts a section-relative address. It returns 0 when the section is
// unknown.
func (s *Session) rva(seg uint16, off uint32) uint64 {
	if seg == 0 || int(seg) > len(s.sections) {
		return 0
	}
	return uint64(s.sections[seg-1].VirtualAddress) + uint64(off)
}
