package pdb

// node is the Symbol implementation shared by every tag. Types are referenced
// by index and materialized on first use so building one symbol never walks
// the whole type graph.
type node struct {
	s *Session

	id        uint32
	tag       SymTag
	name      string
	typeIndex uint32
	hasType   bool

	file string
	line uint32

	length   uint64
	count    uint32
	baseType BasicType
	loc      LocationType
	offset   int64
	va       uint64
	value    Variant

	static      bool
	constant    bool
	virtual     bool
	pure        bool
	virtualBase bool

	kids *children
}

// children memoizes a child list. Copies of a node made for modifiers share
// it, so the same children keep the same ids.
type children struct {
	load  func() ([]Symbol, error)
	done  bool
	items []Symbol
	err   error
}

func (c *children) get() ([]Symbol, error) {
	if !c.done {
		c.items, c.err = c.load()
		c.load = nil
		c.done = true
	}
	return c.items, c.err
}

func (n *node) ID() uint32                 { return n.id }
func (n *node) Tag() SymTag                { return n.tag }
func (n *node) Name() string               { return n.name }
func (n *node) SourceFile() string         { return n.file }
func (n *node) Line() uint32               { return n.line }
func (n *node) Length() uint64             { return n.length }
func (n *node) Count() uint32              { return n.count }
func (n *node) BaseType() BasicType        { return n.baseType }
func (n *node) LocationType() LocationType { return n.loc }
func (n *node) Offset() int64              { return n.offset }
func (n *node) VirtualAddress() uint64     { return n.va }
func (n *node) Value() Variant             { return n.value }
func (n *node) IsStatic() bool             { return n.static }
func (n *node) IsConst() bool              { return n.constant }
func (n *node) IsVirtual() bool            { return n.virtual }
func (n *node) IsPure() bool               { return n.pure }
func (n *node) IsVirtualBaseClass() bool   { return n.virtualBase }

func (n *node) Type() Symbol {
	if !n.hasType {
		return nil
	}
	return n.s.typeSymbol(n.typeIndex)
}

func (n *node) Children(tag SymTag) ([]Symbol, error) {
	if n.kids == nil {
		return nil, nil
	}
	all, err := n.kids.get()
	if err != nil {
		return nil, err
	}
	if tag == SymTagNull {
		return all, nil
	}
	var out []Symbol
	for _, c := range all {
		if c.Tag() == tag {
			out = append(out, c)
		}
	}
	return out, nil
}

func (n *node) setType(index uint32) {
	n.typeIndex = index
	n.hasType = true
}

func (n *node) setChildren(load func() ([]Symbol, error)) {
	n.kids = &children{load: load}
}
