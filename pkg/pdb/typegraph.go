package pdb

import (
	"fmt"

	"github.com/jtang613/pdbtojson/pkg/pdb/codeview"
	"github.com/jtang613/pdbtojson/pkg/pdb/streams"
)

type builtin struct {
	kind   BasicType
	length uint64
}

var builtins = map[uint32]builtin{
	streams.T_VOID:    {BasicTypeVoid, 0},
	streams.T_HRESULT: {BasicTypeHresult, 4},
	streams.T_CHAR:    {BasicTypeChar, 1},
	streams.T_RCHAR:   {BasicTypeChar, 1},
	streams.T_UCHAR:   {BasicTypeUInt, 1},
	streams.T_WCHAR:   {BasicTypeWChar, 2},
	streams.T_CHAR8:   {BasicTypeChar8, 1},
	streams.T_CHAR16:  {BasicTypeChar16, 2},
	streams.T_CHAR32:  {BasicTypeChar32, 4},
	streams.T_SHORT:   {BasicTypeInt, 2},
	streams.T_USHORT:  {BasicTypeUInt, 2},
	streams.T_LONG:    {BasicTypeLong, 4},
	streams.T_ULONG:   {BasicTypeULong, 4},
	streams.T_QUAD:    {BasicTypeInt, 8},
	streams.T_UQUAD:   {BasicTypeUInt, 8},
	streams.T_OCT:     {BasicTypeInt, 16},
	streams.T_UOCT:    {BasicTypeUInt, 16},
	streams.T_INT1:    {BasicTypeInt, 1},
	streams.T_UINT1:   {BasicTypeUInt, 1},
	streams.T_INT2:    {BasicTypeInt, 2},
	streams.T_UINT2:   {BasicTypeUInt, 2},
	streams.T_INT4:    {BasicTypeInt, 4},
	streams.T_UINT4:   {BasicTypeUInt, 4},
	streams.T_INT8:    {BasicTypeInt, 8},
	streams.T_UINT8:   {BasicTypeUInt, 8},
	streams.T_INT16:   {BasicTypeInt, 16},
	streams.T_UINT16:  {BasicTypeUInt, 16},
	streams.T_BOOL08:  {BasicTypeBool, 1},
	streams.T_BOOL16:  {BasicTypeBool, 2},
	streams.T_BOOL32:  {BasicTypeBool, 4},
	streams.T_BOOL64:  {BasicTypeBool, 8},
	streams.T_REAL16:  {BasicTypeFloat, 2},
	streams.T_REAL32:  {BasicTypeFloat, 4},
	streams.T_REAL64:  {BasicTypeFloat, 8},
	streams.T_REAL80:  {BasicTypeFloat, 10},
	streams.T_REAL128: {BasicTypeFloat, 16},
}

// typeSymbol returns the symbol for a type index, or a nil interface when the
// index names no type.
func (s *Session) typeSymbol(index uint32) Symbol {
	if n := s.typeNode(index); n != nil {
		return n
	}
	return nil
}

// typeNode builds and memoizes the node for a type index. An index that is
// already being built yields nil, which cuts modifier and forward reference
// cycles in corrupt files.
func (s *Session) typeNode(index uint32) *node {
	if n, ok := s.types[index]; ok {
		return n
	}
	if s.building[index] {
		return nil
	}
	s.building[index] = true
	defer delete(s.building, index)

	var n *node
	if index < streams.TypeIndexBegin {
		n = s.builtinNode(index)
	} else if rec := s.tpi.Get(index); rec != nil {
		n = s.recordNode(rec)
	}
	s.types[index] = n
	return n
}

func (s *Session) builtinNode(index uint32) *node {
	kind, mode := streams.SplitBuiltin(index)
	if kind == streams.T_NOTYPE {
		return nil
	}
	if mode != streams.TM_DIRECT {
		n := &node{s: s, id: index, tag: SymTagPointerType, length: 4}
		switch mode {
		case streams.TM_NPTR64:
			n.length = 8
		case streams.TM_NPTR128:
			n.length = 16
		}
		n.setType(kind)
		return n
	}

	bt, ok := builtins[kind]
	if !ok {
		return &node{s: s, id: index, tag: SymTagBaseType, baseType: BasicTypeNone}
	}
	return &node{s: s, id: index, tag: SymTagBaseType, baseType: bt.kind, length: bt.length}
}

func (s *Session) recordNode(rec *streams.TypeRecord) *node {
	switch rec.Kind {
	case streams.LF_POINTER:
		p, err := codeview.ParsePointer(rec.Data)
		if err != nil {
			return nil
		}
		n := &node{s: s, id: rec.Index, tag: SymTagPointerType, length: p.Size(), constant: p.IsConst()}
		n.setType(p.Referent)
		return n

	case streams.LF_MODIFIER:
		m, err := codeview.ParseModifier(rec.Data)
		if err != nil {
			return nil
		}
		base := s.typeNode(m.Type)
		if base == nil {
			return nil
		}
		n := *base
		n.id = rec.Index
		n.constant = base.constant || m.IsConst()
		return &n

	case streams.LF_BITFIELD:
		b, err := codeview.ParseBitfield(rec.Data)
		if err != nil {
			return nil
		}
		return s.typeNode(b.Type)

	case streams.LF_ARRAY:
		a, err := codeview.ParseArray(rec.Data)
		if err != nil {
			return nil
		}
		n := &node{s: s, id: rec.Index, tag: SymTagArrayType, name: a.Name, length: a.Size}
		n.setType(a.ElementType)
		if elem := s.typeNode(a.ElementType); elem != nil && elem.length > 0 {
			n.count = uint32(a.Size / elem.length)
		}
		return n

	case streams.LF_CLASS, streams.LF_STRUCTURE, streams.LF_INTERFACE, streams.LF_UNION:
		c, err := codeview.ParseClass(rec.Kind, rec.Data)
		if err != nil {
			return nil
		}
		if c.IsForwardRef() {
			if def, ok := s.definition(c.UniqueName, c.Name); ok && def != rec.Index {
				return s.typeNode(def)
			}
			return &node{s: s, id: rec.Index, tag: SymTagUDT, name: c.Name}
		}
		n := &node{s: s, id: rec.Index, tag: SymTagUDT, name: c.Name, length: c.Size}
		s.applySourceLine(n)
		n.setChildren(func() ([]Symbol, error) { return s.udtChildren(c) })
		return n

	case streams.LF_ENUM:
		e, err := codeview.ParseEnum(rec.Data)
		if err != nil {
			return nil
		}
		if e.IsForwardRef() {
			if def, ok := s.definition(e.UniqueName, e.Name); ok && def != rec.Index {
				return s.typeNode(def)
			}
		}
		n := &node{s: s, id: rec.Index, tag: SymTagEnum, name: e.Name}
		n.setType(e.UnderlyingType)
		if u := s.typeNode(e.UnderlyingType); u != nil {
			n.length = u.length
		}
		s.applySourceLine(n)
		n.setChildren(func() ([]Symbol, error) { return s.enumerators(e.FieldList) })
		return n

	case streams.LF_PROCEDURE:
		p, err := codeview.ParseProcedure(rec.Data)
		if err != nil {
			return nil
		}
		n := &node{s: s, id: rec.Index, tag: SymTagFunctionType}
		n.setType(p.ReturnType)
		n.setChildren(func() ([]Symbol, error) { return s.argumentNodes(p.ArgList) })
		return n

	case streams.LF_MFUNCTION:
		mf, err := codeview.ParseMemberFunction(rec.Data)
		if err != nil {
			return nil
		}
		n := &node{s: s, id: rec.Index, tag: SymTagFunctionType, static: mf.ThisType == 0}
		n.constant = s.isConstThis(mf.ThisType)
		n.setType(mf.ReturnType)
		n.setChildren(func() ([]Symbol, error) { return s.argumentNodes(mf.ArgList) })
		return n
	}

	return nil
}

// definition finds the complete record for a forward reference. A decorated
// unique name is authoritative; the display name is only used without one.
func (s *Session) definition(unique, name string) (uint32, bool) {
	if unique != "" {
		idx, ok := s.udtByUnique[unique]
		return idx, ok
	}
	idx, ok := s.udtByName[name]
	return idx, ok
}

func (s *Session) applySourceLine(n *node) {
	if loc, ok := s.udtLines[n.id]; ok {
		n.file = loc.file
		n.line = loc.line
	}
}

// isConstThis reports whether a member function's this pointer points to a
// const object, which is how const member functions are encoded.
func (s *Session) isConstThis(thisType uint32) bool {
	if thisType == 0 {
		return false
	}
	ptr := s.typeNode(thisType)
	if ptr == nil || ptr.tag != SymTagPointerType {
		return false
	}
	pointee := s.typeNode(ptr.typeIndex)
	return pointee != nil && pointee.constant
}

func (s *Session) argumentNodes(argList uint32) ([]Symbol, error) {
	rec := s.tpi.Get(argList)
	if rec == nil || rec.Kind != streams.LF_ARGLIST {
		return nil, fmt.Errorf("type 0x%x is not an argument list", argList)
	}
	args, err := codeview.ParseArgList(rec.Data)
	if err != nil {
		return nil, err
	}

	out := make([]Symbol, 0, len(args))
	for _, arg := range args {
		// A trailing T_NOTYPE marks a variadic function.
		if arg == streams.T_NOTYPE {
			continue
		}
		n := &node{s: s, id: s.newID(), tag: SymTagFunctionArgType}
		n.setType(arg)
		out = append(out, n)
	}
	return out, nil
}

// fieldList collects the members of a field list and its continuations.
func (s *Session) fieldList(index uint32) ([]codeview.Field, error) {
	var out []codeview.Field
	seen := make(map[uint32]bool)
	for index != 0 && !seen[index] {
		seen[index] = true
		rec := s.tpi.Get(index)
		if rec == nil || rec.Kind != streams.LF_FIELDLIST {
			return out, fmt.Errorf("type 0x%x is not a field list", index)
		}
		fields, err := codeview.ParseFieldList(rec.Data)
		if err != nil {
			return out, err
		}

		index = 0
		for _, f := range fields {
			if f.Leaf == streams.LF_INDEX {
				index = f.Type
				continue
			}
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Session) udtChildren(c *codeview.ClassLeaf) ([]Symbol, error) {
	fields, err := s.fieldList(c.FieldList)
	if err != nil {
		return nil, fmt.Errorf("members of %s: %w", c.Name, err)
	}

	var out []Symbol
	for _, f := range fields {
		switch f.Leaf {
		case streams.LF_BCLASS, streams.LF_VBCLASS:
			n := &node{s: s, id: s.newID(), tag: SymTagBaseClass, virtualBase: f.Leaf == streams.LF_VBCLASS}
			n.setType(f.Type)
			if base := s.typeNode(f.Type); base != nil {
				n.name = base.name
				n.length = base.length
			}
			if !n.virtualBase {
				n.offset = int64(f.Offset)
			}
			out = append(out, n)

		case streams.LF_MEMBER:
			n := &node{s: s, id: s.newID(), tag: SymTagData, name: f.Name, loc: LocIsThisRel, offset: int64(f.Offset)}
			n.setType(f.Type)
			if rec := s.tpi.Get(f.Type); rec != nil && rec.Kind == streams.LF_BITFIELD {
				n.loc = LocIsBitField
			}
			n.constant = s.isConstType(f.Type)
			out = append(out, n)

		case streams.LF_STMEMBER:
			n := &node{s: s, id: s.newID(), tag: SymTagData, name: f.Name, loc: LocIsStatic, static: true}
			n.setType(f.Type)
			n.constant = s.isConstType(f.Type)
			n.va = s.dataAddress(c.Name + "::" + f.Name)
			out = append(out, n)

		case streams.LF_ONEMETHOD:
			out = append(out, s.methodNode(c.Name, f.Name, f.Attrs, f.Type))

		case streams.LF_METHOD:
			rec := s.tpi.Get(f.Type)
			if rec == nil || rec.Kind != streams.LF_METHODLIST {
				return out, fmt.Errorf("overloads of %s::%s: type 0x%x is not a method list", c.Name, f.Name, f.Type)
			}
			entries, err := codeview.ParseMethodList(rec.Data)
			if err != nil {
				return out, fmt.Errorf("overloads of %s::%s: %w", c.Name, f.Name, err)
			}
			for _, e := range entries {
				out = append(out, s.methodNode(c.Name, f.Name, e.Attrs, e.Type))
			}
		}
	}
	return out, nil
}

func (s *Session) methodNode(class, name string, attrs codeview.FieldAttributes, typeIndex uint32) *node {
	n := &node{
		s:       s,
		id:      s.newID(),
		tag:     SymTagFunction,
		name:    name,
		virtual: attrs.IsVirtual(),
		pure:    attrs.IsPureVirtual(),
		static:  attrs.IsStatic(),
	}
	n.setType(typeIndex)
	if ft := s.typeNode(typeIndex); ft != nil {
		n.constant = ft.constant
	}
	if p, ok := s.findProc(class+"::"+name, typeIndex); ok {
		n.va = p.rva
		n.length = p.length
		n.file = p.file
		n.line = p.line
	}
	n.setChildren(func() ([]Symbol, error) { return s.signatureArgs(typeIndex) })
	return n
}

// signatureArgs returns fresh argument nodes for the function type at index.
func (s *Session) signatureArgs(index uint32) ([]Symbol, error) {
	ft := s.typeNode(index)
	if ft == nil || ft.tag != SymTagFunctionType {
		return nil, nil
	}
	return ft.Children(SymTagFunctionArgType)
}

func (s *Session) isConstType(index uint32) bool {
	n := s.typeNode(index)
	return n != nil && n.constant
}

func (s *Session) enumerators(fieldList uint32) ([]Symbol, error) {
	fields, err := s.fieldList(fieldList)
	if err != nil {
		return nil, err
	}
	var out []Symbol
	for _, f := range fields {
		if f.Leaf != streams.LF_ENUMERATE {
			continue
		}
		out = append(out, &node{
			s:        s,
			id:       s.newID(),
			tag:      SymTagData,
			name:     f.Name,
			loc:      LocIsConstant,
			constant: true,
			value:    variantOf(f.Value),
		})
	}
	return out, nil
}

// variantOf widens a numeric leaf to the smallest integer variant that holds
// it. Unsigned 16-bit values widen to Uint32.
func variantOf(n streams.Numeric) Variant {
	switch n.Kind {
	case streams.NumericImmediate, streams.NumericChar, streams.NumericShort, streams.NumericLong:
		return NewInt32(int32(n.Int64()))
	case streams.NumericUShort, streams.NumericULong:
		return NewUint32(uint32(n.Uint64()))
	case streams.NumericQuad:
		return NewInt64(n.Int64())
	case streams.NumericUQuad:
		return NewUint64(n.Uint64())
	case streams.NumericReal32, streams.NumericReal48, streams.NumericReal64,
		streams.NumericReal80, streams.NumericReal128:
		return Variant{Kind: VariantFloat}
	}
	return Variant{Kind: VariantOther}
}
