package pdb

import (
	"fmt"
	"strings"

	"github.com/jtang613/pdbtojson/pkg/pdb/codeview"
	"github.com/jtang613/pdbtojson/pkg/pdb/streams"
)

// procEntry is a procedure found in a module symbol stream, with its type
// normalized to a TPI index.
type procEntry struct {
	kind      uint16
	name      string
	typeIndex uint32
	seg       uint16
	off       uint32
	rva       uint64
	length    uint64
	file      string
	line      uint32
}

type dataEntry struct {
	kind      uint16
	name      string
	typeIndex uint32
	seg       uint16
	off       uint32
	rva       uint64
}

// indexTypes records where each named type is defined and where its source
// declaration lives.
func (s *Session) indexTypes() {
	for i := range s.tpi.Records {
		if unique, name, ok := udtKeys(&s.tpi.Records[i]); ok {
			s.rememberDefinition(unique, name, s.tpi.Records[i].Index)
		}
	}

	if s.ipi == nil {
		return
	}
	for _, rec := range s.ipi.Records {
		if rec.Kind != streams.LF_UDT_SRC_LINE && rec.Kind != streams.LF_UDT_MOD_SRC_LINE {
			continue
		}
		l, err := codeview.ParseUDTSourceLine(rec.Data)
		if err != nil {
			continue
		}
		if _, ok := s.udtLines[l.Type]; ok {
			continue
		}
		var file string
		if rec.Kind == streams.LF_UDT_SRC_LINE {
			file = s.stringID(l.SourceFile)
		} else {
			file = s.names.Get(l.SourceFile)
		}
		s.udtLines[l.Type] = sourceLine{file: file, line: l.Line}
	}
}

// udtKeys returns the unique and display names of a class, union or enum
// definition. Forward references and other records report false.
func udtKeys(rec *streams.TypeRecord) (unique, name string, ok bool) {
	switch rec.Kind {
	case streams.LF_CLASS, streams.LF_STRUCTURE, streams.LF_INTERFACE, streams.LF_UNION:
		c, err := codeview.ParseClass(rec.Kind, rec.Data)
		if err != nil || c.IsForwardRef() {
			return "", "", false
		}
		return c.UniqueName, c.Name, true
	case streams.LF_ENUM:
		e, err := codeview.ParseEnum(rec.Data)
		if err != nil || e.IsForwardRef() {
			return "", "", false
		}
		return e.UniqueName, e.Name, true
	}
	return "", "", false
}

// rememberDefinition indexes a definition by unique name and by display
// name. The first definition seen for a key wins.
func (s *Session) rememberDefinition(unique, name string, index uint32) {
	if _, ok := s.udtByUnique[unique]; unique != "" && !ok {
		s.udtByUnique[unique] = index
	}
	if _, ok := s.udtByName[name]; name != "" && !ok {
		s.udtByName[name] = index
	}
}

// isCanonicalDefinition reports whether rec is the record its keys resolve
// to. Types that share a display name but differ in unique name are all
// canonical.
func (s *Session) isCanonicalDefinition(rec *streams.TypeRecord) bool {
	unique, name, ok := udtKeys(rec)
	if !ok {
		return false
	}
	def, found := s.definition(unique, name)
	return found && def == rec.Index
}

// stringID returns the text of an LF_STRING_ID record in the IPI stream.
func (s *Session) stringID(id uint32) string {
	if s.ipi == nil {
		return ""
	}
	rec := s.ipi.Get(id)
	if rec == nil || rec.Kind != streams.LF_STRING_ID {
		return ""
	}
	str, _ := codeview.ParseStringID(rec.Data)
	return str
}

// funcIDType maps an LF_FUNC_ID or LF_MFUNC_ID to the TPI type it names.
func (s *Session) funcIDType(id uint32) uint32 {
	if s.ipi == nil {
		return 0
	}
	rec := s.ipi.Get(id)
	if rec == nil || (rec.Kind != streams.LF_FUNC_ID && rec.Kind != streams.LF_MFUNC_ID) {
		return 0
	}
	f, err := codeview.ParseFuncID(rec.Data)
	if err != nil {
		return 0
	}
	return f.Type
}

// moduleSymbols walks the file-scope symbols of every module, calling fn with
// the nesting depth of each record.
func (s *Session) moduleSymbols(fn func(mod *module, rec *codeview.SymbolRecord, depth int)) {
	for _, mod := range s.modules {
		depth := 0
		for i := range mod.symbols {
			rec := &mod.symbols[i]
			if codeview.ClosesScope(rec.Kind) && depth > 0 {
				depth--
			}
			fn(mod, rec, depth)
			if codeview.OpensScope(rec.Kind) {
				depth++
			}
		}
	}
}

func (s *Session) procEntries() []procEntry {
	var out []procEntry
	s.moduleSymbols(func(mod *module, rec *codeview.SymbolRecord, _ int) {
		if !codeview.IsProcSymbol(rec.Kind) {
			return
		}
		p, err := codeview.ParseProcSym(rec.Data)
		if err != nil {
			s.warn("module %q: %w", mod.info.ModuleName, err)
			return
		}

		e := procEntry{
			kind:      rec.Kind,
			name:      p.Name,
			typeIndex: p.TypeIndex,
			seg:       p.Segment,
			off:       p.Offset,
			rva:       s.rva(p.Segment, p.Offset),
			length:    uint64(p.Length),
		}
		if strings.HasPrefix(e.name, "?") {
			e.name = Undecorate(e.name)
		}
		if codeview.IsIDProcSymbol(rec.Kind) {
			e.typeIndex = s.funcIDType(p.TypeIndex)
		}
		if nameOff, line, ok := mod.lines.Lookup(p.Segment, p.Offset); ok {
			e.file = s.names.Get(nameOff)
			e.line = line
		}
		out = append(out, e)
	})
	return out
}

func (s *Session) dataEntries() []dataEntry {
	var out []dataEntry
	add := func(rec *codeview.SymbolRecord) {
		d, err := codeview.ParseDataSym(rec.Data)
		if err != nil {
			s.warn("data symbol: %w", err)
			return
		}
		out = append(out, dataEntry{
			kind:      rec.Kind,
			name:      d.Name,
			typeIndex: d.TypeIndex,
			seg:       d.Segment,
			off:       d.Offset,
			rva:       s.rva(d.Segment, d.Offset),
		})
	}

	for i := range s.globals {
		if codeview.IsDataSymbol(s.globals[i].Kind) {
			add(&s.globals[i])
		}
	}
	s.moduleSymbols(func(_ *module, rec *codeview.SymbolRecord, depth int) {
		if depth == 0 && codeview.IsDataSymbol(rec.Kind) {
			add(rec)
		}
	})
	return out
}

// indexSymbols builds the name lookups used to give members their addresses.
func (s *Session) indexSymbols() {
	s.procList = s.procEntries()
	s.dataList = s.dataEntries()

	s.procs = make(map[string][]procEntry)
	for _, p := range s.procList {
		s.procs[p.name] = append(s.procs[p.name], p)
	}
	s.data = make(map[string]uint64)
	for _, d := range s.dataList {
		if _, ok := s.data[d.name]; !ok {
			s.data[d.name] = d.rva
		}
	}
}

// findProc returns the procedure implementing a qualified function name. When
// overloads exist the type must match.
func (s *Session) findProc(name string, typeIndex uint32) (procEntry, bool) {
	entries := s.procs[name]
	for _, e := range entries {
		if e.typeIndex == typeIndex {
			return e, true
		}
	}
	if len(entries) == 1 {
		return entries[0], true
	}
	return procEntry{}, false
}

func (s *Session) dataAddress(name string) uint64 {
	return s.data[name]
}

// isMemberName reports whether a qualified name belongs to a known class.
func (s *Session) isMemberName(name string) bool {
	i := strings.LastIndex(name, "::")
	if i <= 0 {
		return false
	}
	_, ok := s.udtByName[name[:i]]
	return ok
}

// globalChildren lists the direct children of the global scope: compilands,
// user-defined types and enums, typedefs, functions, data and publics.
func (s *Session) globalChildren() ([]Symbol, error) {
	var out []Symbol

	for _, mod := range s.modules {
		out = append(out, &node{s: s, id: s.newID(), tag: SymTagCompiland, name: mod.info.ModuleName})
	}

	for _, rec := range s.tpi.Records {
		if !isUDTLeaf(rec.Kind) {
			continue
		}
		if !s.isCanonicalDefinition(&rec) {
			continue // forward reference or duplicate definition
		}
		n := s.typeNode(rec.Index)
		if n == nil || n.name == "" {
			continue
		}
		out = append(out, n)
	}

	out = append(out, s.typedefNodes()...)

	seen := make(map[uint64]bool)
	for _, p := range s.procList {
		key := uint64(p.seg)<<32 | uint64(p.off)
		if seen[key] {
			continue
		}
		seen[key] = true
		if rec := s.tpi.Get(p.typeIndex); rec != nil && rec.Kind == streams.LF_MFUNCTION {
			continue // listed under its class
		}
		n := &node{
			s:      s,
			id:     s.newID(),
			tag:    SymTagFunction,
			name:   p.name,
			static: !codeview.IsGlobalSymbol(p.kind),
			va:     p.rva,
			length: p.length,
			file:   p.file,
			line:   p.line,
		}
		if p.typeIndex != 0 {
			n.setType(p.typeIndex)
		}
		typeIndex := p.typeIndex
		n.setChildren(func() ([]Symbol, error) { return s.signatureArgs(typeIndex) })
		out = append(out, n)
	}

	seenData := make(map[string]bool)
	for _, d := range s.dataList {
		key := fmt.Sprintf("%d:%d:%s", d.seg, d.off, d.name)
		if seenData[key] || s.isMemberName(d.name) {
			continue
		}
		seenData[key] = true
		n := &node{s: s, id: s.newID(), tag: SymTagData, name: d.name, loc: LocIsStatic, static: true, va: d.rva}
		if d.kind == codeview.S_GTHREAD32 || d.kind == codeview.S_LTHREAD32 {
			n.loc = LocIsTLS
			n.static = false
		}
		n.setType(d.typeIndex)
		n.constant = s.isConstType(d.typeIndex)
		out = append(out, n)
	}

	for i := range s.globals {
		if s.globals[i].Kind != codeview.S_PUB32 {
			continue
		}
		p, err := codeview.ParsePubSym(s.globals[i].Data)
		if err != nil {
			continue
		}
		out = append(out, &node{s: s, id: s.newID(), tag: SymTagPublicSymbol, name: p.Name, va: s.rva(p.Segment, p.Offset)})
	}

	return out, nil
}

func isUDTLeaf(kind uint16) bool {
	switch kind {
	case streams.LF_CLASS, streams.LF_STRUCTURE, streams.LF_INTERFACE, streams.LF_UNION, streams.LF_ENUM:
		return true
	}
	return false
}

// typedefNodes turns S_UDT records into typedef symbols. Records that only
// name a class or enum after itself are not typedefs.
func (s *Session) typedefNodes() []Symbol {
	var out []Symbol
	seen := make(map[string]bool)
	add := func(rec *codeview.SymbolRecord) {
		u, err := codeview.ParseUDTSym(rec.Data)
		if err != nil || u.Name == "" || seen[u.Name] {
			return
		}
		seen[u.Name] = true
		if target := s.typeNode(u.TypeIndex); target != nil &&
			(target.tag == SymTagUDT || target.tag == SymTagEnum) && target.name == u.Name {
			return
		}
		n := &node{s: s, id: s.newID(), tag: SymTagTypedef, name: u.Name}
		n.setType(u.TypeIndex)
		out = append(out, n)
	}

	for i := range s.globals {
		if s.globals[i].Kind == codeview.S_UDT {
			add(&s.globals[i])
		}
	}
	s.moduleSymbols(func(_ *module, rec *codeview.SymbolRecord, depth int) {
		if depth == 0 && rec.Kind == codeview.S_UDT {
			add(rec)
		}
	})
	return out
}
