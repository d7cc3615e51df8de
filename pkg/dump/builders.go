package dump

import (
	"github.com/jtang613/pdbtojson/internal/logging"
	"github.com/jtang613/pdbtojson/pkg/pdb"
)

// children lists the children of sym with the given tag. A failed query is
// logged and yields no children.
func children(sym pdb.Symbol, tag pdb.SymTag) []pdb.Symbol {
	kids, err := sym.Children(tag)
	if err != nil {
		logging.Debugf("failed to list %s children of %q: %v", tag, sym.Name(), err)
		return nil
	}
	return kids
}

// buildClass returns false when the class is rejected by the filter. The
// filter runs before any child is listed.
func (d *Dumper) buildClass(sym pdb.Symbol) (ClassInfo, bool) {
	info := ClassInfo{
		Name: sym.Name(),
		Size: sym.Length(),
	}
	if file := sym.SourceFile(); file != "" {
		if !d.filter.Accepts(file) {
			return ClassInfo{}, false
		}
		info.SourceFile = file
	}
	info.LineNumber = sym.Line()

	bases := children(sym, pdb.SymTagBaseClass)
	info.BaseClasses = make([]BaseClassInfo, 0, len(bases))
	for _, b := range bases {
		info.BaseClasses = append(info.BaseClasses, BaseClassInfo{
			IsVirtual: b.IsVirtualBaseClass(),
			Name:      b.Name(),
			Offset:    b.Offset(),
		})
	}

	fields := children(sym, pdb.SymTagData)
	info.Fields = make([]FieldInfo, 0, len(fields))
	for _, f := range fields {
		info.Fields = append(info.Fields, FieldInfo{
			IsConst:       f.IsConst(),
			IsStatic:      f.LocationType() == pdb.LocIsStatic,
			Name:          f.Name(),
			Offset:        f.Offset(),
			Type:          d.resolver.Resolve(f.Type()),
			VirtualOffset: f.VirtualAddress(),
		})
	}

	methods := children(sym, pdb.SymTagFunction)
	info.Methods = make([]MethodInfo, 0, len(methods))
	virtualIndex := 0
	for _, m := range methods {
		method := MethodInfo{
			IsConst:       m.IsConst(),
			IsPureVirtual: m.IsPure(),
			IsStatic:      m.IsStatic(),
			IsVirtual:     m.IsVirtual(),
			Name:          m.Name(),
			Parameters:    d.parameters(m),
			VirtualOffset: m.VirtualAddress(),
		}
		if method.IsVirtual {
			index := virtualIndex
			method.VirtualMethodIndex = &index
			virtualIndex++
		}
		info.Methods = append(info.Methods, method)
	}

	return info, true
}

func (d *Dumper) buildEnum(sym pdb.Symbol) (EnumInfo, bool) {
	info := EnumInfo{
		Name:           sym.Name(),
		UnderlyingType: d.resolver.Resolve(sym.Type()),
	}
	if file := sym.SourceFile(); file != "" {
		if !d.filter.Accepts(file) {
			return EnumInfo{}, false
		}
		info.SourceFile = file
	}
	info.LineNumber = sym.Line()

	values := children(sym, pdb.SymTagData)
	info.Values = make([]EnumValueInfo, 0, len(values))
	for _, v := range values {
		info.Values = append(info.Values, EnumValueInfo{
			Name:  v.Name(),
			Value: literal(v.Value()),
		})
	}
	return info, true
}

// literal decodes the integer representations an enumerator may use. Any
// other representation has no value.
func literal(v pdb.Variant) any {
	switch v.Kind {
	case pdb.VariantInt32:
		return v.Int32()
	case pdb.VariantUint32:
		return v.Uint32()
	case pdb.VariantInt64:
		return v.Int64()
	case pdb.VariantUint64:
		return v.Uint64()
	}
	return nil
}

// buildTypedef never filters.
func (d *Dumper) buildTypedef(sym pdb.Symbol) TypedefInfo {
	return TypedefInfo{
		Name:           sym.Name(),
		UnderlyingType: d.resolver.Resolve(sym.Type()),
	}
}

func (d *Dumper) buildFunction(sym pdb.Symbol) (FunctionInfo, bool) {
	info := FunctionInfo{
		IsConst:  sym.IsConst(),
		IsStatic: sym.IsStatic(),
		Name:     sym.Name(),
	}
	if file := sym.SourceFile(); file != "" {
		if !d.filter.Accepts(file) {
			return FunctionInfo{}, false
		}
		info.SourceFile = file
	}
	info.LineNumber = sym.Line()
	info.VirtualOffset = sym.VirtualAddress()
	info.Parameters = d.parameters(sym)
	return info, true
}

func (d *Dumper) buildGlobalVariable(sym pdb.Symbol) (GlobalVariableInfo, bool) {
	info := GlobalVariableInfo{
		IsConst:  sym.IsConst(),
		IsStatic: sym.LocationType() == pdb.LocIsStatic,
		Name:     sym.Name(),
		Type:     d.resolver.Resolve(sym.Type()),
	}
	if file := sym.SourceFile(); file != "" {
		if !d.filter.Accepts(file) {
			return GlobalVariableInfo{}, false
		}
		info.SourceFile = file
	}
	info.LineNumber = sym.Line()
	info.VirtualOffset = sym.VirtualAddress()
	return info, true
}

// parameters lists the argument types of a function. Names are not recorded.
func (d *Dumper) parameters(fn pdb.Symbol) []ParameterInfo {
	args := children(fn, pdb.SymTagFunctionArgType)
	params := make([]ParameterInfo, 0, len(args))
	for _, a := range args {
		params = append(params, ParameterInfo{Type: d.resolver.Resolve(a.Type())})
	}
	return params
}
