package dump

import (
	"errors"

	"github.com/jtang613/pdbtojson/pkg/pdb"
)

// fakeSymbol is an in-memory pdb.Symbol.
type fakeSymbol struct {
	id          uint32
	tag         pdb.SymTag
	name        string
	typ         *fakeSymbol
	file        string
	line        uint32
	length      uint64
	count       uint32
	baseType    pdb.BasicType
	loc         pdb.LocationType
	offset      int64
	va          uint64
	value       pdb.Variant
	static      bool
	constant    bool
	virtual     bool
	pure        bool
	virtualBase bool
	kids        []*fakeSymbol
	kidsErr     error

	// queries counts Children calls per tag.
	queries map[pdb.SymTag]int
}

var errChildren = errors.New("children unavailable")

func (f *fakeSymbol) ID() uint32 { return f.id }
func (f *fakeSymbol) Tag() pdb.SymTag { return f.tag }
func (f *fakeSymbol) Name() string { return f.name }

func (f *fakeSymbol) Type() pdb.Symbol {
	if f.typ == nil {
		return nil
	}
	return f.typ
}

func (f *fakeSymbol) SourceFile() string { return f.file }
func (f *fakeSymbol) Line() uint32 { return f.line }
func (f *fakeSymbol) Length() uint64 { return f.length }
func (f *fakeSymbol) Count() uint32 { return f.count }
func (f *fakeSymbol) BaseType() pdb.BasicType { return f.baseType }
func (f *fakeSymbol) LocationType() pdb.LocationType { return f.loc }
func (f *fakeSymbol) Offset() int64 { return f.offset }
func (f *fakeSymbol) VirtualAddress() uint64 { return f.va }
func (f *fakeSymbol) Value() pdb.Variant { return f.value }
func (f *fakeSymbol) IsStatic() bool { return f.static }
func (f *fakeSymbol) IsConst() bool { return f.constant }
func (f *fakeSymbol) IsVirtual() bool { return f.virtual }
func (f *fakeSymbol) IsPure() bool { return f.pure }
func (f *fakeSymbol) IsVirtualBaseClass() bool { return f.virtualBase }

func (f *fakeSymbol) Children(tag pdb.SymTag) ([]pdb.Symbol, error) {
	if f.queries == nil {
		f.queries = make(map[pdb.SymTag]int)
	}
	f.queries[tag]++
	if f.kidsErr != nil {
		return nil, f.kidsErr
	}
	var out []pdb.Symbol
	for _, k := range f.kids {
		if tag == pdb.SymTagNull || k.tag == tag {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeSymbol) totalQueries() int {
	n := 0
	for _, c := range f.queries {
		n += c
	}
	return n
}

func baseType(id uint32, kind pdb.BasicType, length uint64) *fakeSymbol {
	return &fakeSymbol{id: id, tag: pdb.SymTagBaseType, baseType: kind, length: length}
}

func pointerTo(id uint32, target *fakeSymbol) *fakeSymbol {
	return &fakeSymbol{id: id, tag: pdb.SymTagPointerType, typ: target, length: 8}
}

func global(kids ...*fakeSymbol) *fakeSymbol {
	return &fakeSymbol{id: 1, tag: pdb.SymTagExe, kids: kids}
}
