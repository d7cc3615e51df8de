package dump

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtang613/pdbtojson/pkg/pdb"
)

// pointScenario builds a class Point declared in src/point.h with two int
// fields and a virtual Draw method, and a function Main with no file.
func pointScenario() (*fakeSymbol, *fakeSymbol, *fakeSymbol) {
	i32 := baseType(100, pdb.BasicTypeInt, 4)
	point := &fakeSymbol{
		id:     101,
		tag:    pdb.SymTagUDT,
		name:   "Point",
		file:   "src/point.h",
		line:   3,
		length: 16,
		kids: []*fakeSymbol{
			{id: 102, tag: pdb.SymTagData, name: "x", typ: i32, loc: pdb.LocIsThisRel, offset: 8},
			{id: 103, tag: pdb.SymTagData, name: "y", typ: i32, loc: pdb.LocIsThisRel, offset: 12},
			{id: 104, tag: pdb.SymTagFunction, name: "Draw", virtual: true, va: 0x1010},
		},
	}
	main := &fakeSymbol{id: 105, tag: pdb.SymTagFunction, name: "Main", va: 0x1000}
	return global(point, main), point, main
}

func TestDumpPointScenario(t *testing.T) {
	g, _, _ := pointScenario()

	doc, err := New(WithFilter(NewFilter("src/", nil))).Dump(g)
	require.NoError(t, err)

	require.Len(t, doc.Classes, 1)
	point := doc.Classes[0]
	assert.Equal(t, "Point", point.Name)
	assert.Equal(t, uint64(16), point.Size)
	assert.Equal(t, "src/point.h", point.SourceFile)
	assert.Equal(t, uint32(3), point.LineNumber)
	assert.Empty(t, point.BaseClasses)

	require.Len(t, point.Fields, 2)
	assert.Equal(t, FieldInfo{Name: "x", Type: "int32_t", Offset: 8}, point.Fields[0])
	assert.Equal(t, FieldInfo{Name: "y", Type: "int32_t", Offset: 12}, point.Fields[1])

	require.Len(t, point.Methods, 1)
	draw := point.Methods[0]
	assert.Equal(t, "Draw", draw.Name)
	assert.True(t, draw.IsVirtual)
	require.NotNil(t, draw.VirtualMethodIndex)
	assert.Equal(t, 0, *draw.VirtualMethodIndex)
	assert.Equal(t, uint64(0x1010), draw.VirtualOffset)
	assert.Empty(t, draw.Parameters)

	require.Len(t, doc.GlobalFunctions, 1)
	assert.Equal(t, "Main", doc.GlobalFunctions[0].Name)
	assert.Equal(t, "", doc.GlobalFunctions[0].SourceFile)
	assert.Empty(t, doc.GlobalFunctions[0].Parameters)

	assert.Empty(t, doc.Enums)
	assert.Empty(t, doc.GlobalVariables)
	assert.Empty(t, doc.Typedefs)
	assert.Equal(t, Stats{Visited: 2}, doc.Stats)
}

func TestDumpFilterShortCircuitsClass(t *testing.T) {
	g, point, main := pointScenario()

	doc, err := New(WithFilter(NewFilter("include/", nil))).Dump(g)
	require.NoError(t, err)

	assert.Empty(t, doc.Classes)
	assert.Zero(t, point.totalQueries(), "children listed for a filtered class")
	require.Len(t, doc.GlobalFunctions, 1)
	assert.Equal(t, main.name, doc.GlobalFunctions[0].Name)
	assert.Equal(t, 1, doc.Stats.Filtered)
}

func TestDumpClassQueriesEachChildSet(t *testing.T) {
	g, point, _ := pointScenario()

	_, err := New().Dump(g)
	require.NoError(t, err)

	assert.Equal(t, 1, point.queries[pdb.SymTagBaseClass])
	assert.Equal(t, 1, point.queries[pdb.SymTagData])
	assert.Equal(t, 1, point.queries[pdb.SymTagFunction])
}

func TestDumpVirtualMethodIndices(t *testing.T) {
	methods := []*fakeSymbol{
		{id: 201, tag: pdb.SymTagFunction, name: "ctor"},
		{id: 202, tag: pdb.SymTagFunction, name: "Area", virtual: true, pure: true},
		{id: 203, tag: pdb.SymTagFunction, name: "Helper", static: true},
		{id: 204, tag: pdb.SymTagFunction, name: "Draw", virtual: true},
		{id: 205, tag: pdb.SymTagFunction, name: "Name", constant: true},
		{id: 206, tag: pdb.SymTagFunction, name: "dtor", virtual: true},
	}
	shape := &fakeSymbol{id: 200, tag: pdb.SymTagUDT, name: "Shape", kids: methods}

	doc, err := New().Dump(global(shape))
	require.NoError(t, err)
	require.Len(t, doc.Classes, 1)

	last := -1
	var virtual []string
	for _, m := range doc.Classes[0].Methods {
		if !m.IsVirtual {
			assert.Nil(t, m.VirtualMethodIndex, m.Name)
			continue
		}
		require.NotNil(t, m.VirtualMethodIndex, m.Name)
		assert.Greater(t, *m.VirtualMethodIndex, last)
		last = *m.VirtualMethodIndex
		virtual = append(virtual, m.Name)
	}
	assert.Equal(t, []string{"Area", "Draw", "dtor"}, virtual)
	assert.Equal(t, 2, last)

	m := doc.Classes[0].Methods
	assert.True(t, m[1].IsPureVirtual)
	assert.True(t, m[2].IsStatic)
	assert.True(t, m[4].IsConst)
}

func TestDumpBaseClassesAndStaticFields(t *testing.T) {
	i32 := baseType(300, pdb.BasicTypeInt, 4)
	derived := &fakeSymbol{
		id:     301,
		tag:    pdb.SymTagUDT,
		name:   "Derived",
		length: 24,
		kids: []*fakeSymbol{
			{id: 302, tag: pdb.SymTagBaseClass, name: "Base", offset: 0},
			{id: 303, tag: pdb.SymTagBaseClass, name: "Mixin", virtualBase: true},
			{id: 304, tag: pdb.SymTagData, name: "count", typ: i32, loc: pdb.LocIsStatic, va: 0x3000, constant: true},
		},
	}

	doc, err := New().Dump(global(derived))
	require.NoError(t, err)
	require.Len(t, doc.Classes, 1)

	c := doc.Classes[0]
	assert.Equal(t, []BaseClassInfo{{Name: "Base"}, {Name: "Mixin", IsVirtual: true}}, c.BaseClasses)
	assert.Equal(t, []FieldInfo{{Name: "count", Type: "int32_t", IsStatic: true, IsConst: true, VirtualOffset: 0x3000}}, c.Fields)
	assert.Empty(t, c.Methods)
}

func TestDumpNestedFailureLeavesEmptyCollection(t *testing.T) {
	broken := &fakeSymbol{id: 400, tag: pdb.SymTagUDT, name: "Broken", kidsErr: errChildren}
	fn := &fakeSymbol{id: 401, tag: pdb.SymTagFunction, name: "f", kidsErr: errChildren}
	enum := &fakeSymbol{id: 402, tag: pdb.SymTagEnum, name: "E", kidsErr: errChildren}

	doc, err := New().Dump(global(broken, fn, enum))
	require.NoError(t, err)

	require.Len(t, doc.Classes, 1)
	assert.NotNil(t, doc.Classes[0].BaseClasses)
	assert.Empty(t, doc.Classes[0].BaseClasses)
	assert.Empty(t, doc.Classes[0].Fields)
	assert.Empty(t, doc.Classes[0].Methods)

	require.Len(t, doc.GlobalFunctions, 1)
	assert.NotNil(t, doc.GlobalFunctions[0].Parameters)

	require.Len(t, doc.Enums, 1)
	assert.NotNil(t, doc.Enums[0].Values)
	assert.Empty(t, doc.Enums[0].Values)
}

func TestDumpEnumerationFailure(t *testing.T) {
	g := &fakeSymbol{id: 1, tag: pdb.SymTagExe, kidsErr: errChildren}

	doc, err := New().Dump(g)
	assert.Nil(t, doc)
	assert.True(t, errors.Is(err, ErrEnumeration))
	assert.True(t, errors.Is(err, errChildren))
}

func TestDumpEnumValues(t *testing.T) {
	i32 := baseType(500, pdb.BasicTypeInt, 4)
	enum := &fakeSymbol{
		id:   501,
		tag:  pdb.SymTagEnum,
		name: "Big",
		typ:  i32,
		file: "src/big.h",
		kids: []*fakeSymbol{
			{id: 502, tag: pdb.SymTagData, name: "MinusOne", value: pdb.NewInt64(-1)},
			{id: 503, tag: pdb.SymTagData, name: "Small", value: pdb.NewInt32(-7)},
			{id: 504, tag: pdb.SymTagData, name: "Flag", value: pdb.NewUint32(0x80000000)},
			{id: 505, tag: pdb.SymTagData, name: "Huge", value: pdb.NewUint64(1 << 63)},
			{id: 506, tag: pdb.SymTagData, name: "Odd", value: pdb.Variant{Kind: pdb.VariantFloat}},
			{id: 507, tag: pdb.SymTagData, name: "Missing"},
		},
	}

	doc, err := New().Dump(global(enum))
	require.NoError(t, err)
	require.Len(t, doc.Enums, 1)

	e := doc.Enums[0]
	assert.Equal(t, "Big", e.Name)
	assert.Equal(t, "int32_t", e.UnderlyingType)
	assert.Equal(t, "src/big.h", e.SourceFile)
	assert.Equal(t, []EnumValueInfo{
		{Name: "MinusOne", Value: int64(-1)},
		{Name: "Small", Value: int32(-7)},
		{Name: "Flag", Value: uint32(0x80000000)},
		{Name: "Huge", Value: uint64(1 << 63)},
		{Name: "Odd", Value: nil},
		{Name: "Missing", Value: nil},
	}, e.Values)
}

func TestDumpEnumFiltered(t *testing.T) {
	enum := &fakeSymbol{id: 600, tag: pdb.SymTagEnum, name: "E", file: "lib/e.h"}

	doc, err := New(WithFilter(NewFilter("src/", nil))).Dump(global(enum))
	require.NoError(t, err)
	assert.Empty(t, doc.Enums)
	assert.Zero(t, enum.totalQueries())
}

func TestDumpTypedefsAreNeverFiltered(t *testing.T) {
	void := baseType(700, pdb.BasicTypeVoid, 0)
	td := &fakeSymbol{id: 701, tag: pdb.SymTagTypedef, name: "HANDLE", typ: pointerTo(702, void), file: "lib/windows.h"}

	doc, err := New(WithFilter(NewFilter("src/", []string{"*.h"}))).Dump(global(td))
	require.NoError(t, err)
	assert.Equal(t, []TypedefInfo{{Name: "HANDLE", UnderlyingType: "void*"}}, doc.Typedefs)
}

func TestDumpFunctionsAndVariables(t *testing.T) {
	i32 := baseType(800, pdb.BasicTypeInt, 4)
	char := baseType(801, pdb.BasicTypeChar, 1)
	argv := pointerTo(803, pointerTo(802, char))

	mainFn := &fakeSymbol{
		id:   810,
		tag:  pdb.SymTagFunction,
		name: "main",
		file: "src/main.cpp",
		line: 10,
		va:   0x1000,
		kids: []*fakeSymbol{
			{id: 811, tag: pdb.SymTagFunctionArgType, typ: i32},
			{id: 812, tag: pdb.SymTagFunctionArgType, typ: argv},
		},
	}
	helper := &fakeSymbol{id: 813, tag: pdb.SymTagFunction, name: "helper", static: true, file: "lib/helper.cpp", line: 4}
	counter := &fakeSymbol{id: 820, tag: pdb.SymTagData, name: "g_counter", typ: i32, loc: pdb.LocIsStatic, va: 0x4000}
	tls := &fakeSymbol{id: 821, tag: pdb.SymTagData, name: "t_state", typ: i32, loc: pdb.LocIsTLS, constant: true}
	compiland := &fakeSymbol{id: 830, tag: pdb.SymTagCompiland, name: "main.obj"}

	var progress [][2]int
	d := New(
		WithFilter(NewFilter("src/", nil)),
		WithProgress(func(processed, total int) {
			progress = append(progress, [2]int{processed, total})
		}),
	)
	doc, err := d.Dump(global(compiland, mainFn, helper, counter, tls))
	require.NoError(t, err)

	assert.Equal(t, []FunctionInfo{{
		Name:          "main",
		SourceFile:    "src/main.cpp",
		LineNumber:    10,
		VirtualOffset: 0x1000,
		Parameters:    []ParameterInfo{{Type: "int32_t"}, {Type: "char**"}},
	}}, doc.GlobalFunctions)
	assert.Equal(t, []GlobalVariableInfo{
		{Name: "g_counter", Type: "int32_t", IsStatic: true, VirtualOffset: 0x4000},
		{Name: "t_state", Type: "int32_t", IsConst: true},
	}, doc.GlobalVariables)

	assert.Equal(t, [][2]int{{1, 5}, {2, 5}, {3, 5}, {4, 5}, {5, 5}}, progress)
	assert.Equal(t, Stats{Visited: 5, Skipped: 1, Filtered: 1}, doc.Stats)
}

func TestDumpKeepsProviderOrder(t *testing.T) {
	var kids []*fakeSymbol
	names := []string{"Zeta", "Alpha", "Mid"}
	for i, name := range names {
		kids = append(kids, &fakeSymbol{id: uint32(900 + i), tag: pdb.SymTagUDT, name: name})
	}

	doc, err := New().Dump(global(kids...))
	require.NoError(t, err)

	var got []string
	for _, c := range doc.Classes {
		got = append(got, c.Name)
	}
	assert.Equal(t, names, got)
}

func TestDumpSharesResolver(t *testing.T) {
	i32 := baseType(1000, pdb.BasicTypeInt, 4)
	v := &fakeSymbol{id: 1001, tag: pdb.SymTagData, name: "v", typ: pointerTo(1002, i32)}
	r := NewResolver()

	d := New(WithResolver(r))
	_, err := d.Dump(global(v))
	require.NoError(t, err)

	assert.Same(t, r, d.Resolver())
	assert.Equal(t, 2, r.Len())
}

func TestWriteJSON(t *testing.T) {
	doc := NewDocument()
	doc.Typedefs = append(doc.Typedefs, TypedefInfo{Name: "IntVec", UnderlyingType: "std::vector<int>"})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc))

	want := `{
  "Classes": [],
  "Enums": [],
  "GlobalFunctions": [],
  "GlobalVariables": [],
  "Typedefs": [
    {
      "Name": "IntVec",
      "UnderlyingType": "std::vector<int>"
    }
  ]
}
`
	assert.Equal(t, want, buf.String())
}

func TestWriteJSONScenario(t *testing.T) {
	g, _, _ := pointScenario()
	doc, err := New(WithFilter(NewFilter("src/", nil))).Dump(g)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc))

	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 5)

	point := decoded["Classes"][0]
	assert.Equal(t, "src/point.h", point["SourceFile"])
	assert.Equal(t, float64(3), point["LineNumber"])

	field := point["Fields"].([]any)[0].(map[string]any)
	assert.Contains(t, field, "VirtualOffset")

	method := point["Methods"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(0), method["VirtualMethodIndex"])

	mainFn := decoded["GlobalFunctions"][0]
	assert.NotContains(t, mainFn, "SourceFile")
	assert.NotContains(t, mainFn, "LineNumber")
	assert.NotContains(t, mainFn, "Type")
	assert.Equal(t, []any{}, mainFn["Parameters"])
}

func TestWriteJSONEnumNull(t *testing.T) {
	doc := NewDocument()
	doc.Enums = append(doc.Enums, EnumInfo{
		Name:           "E",
		UnderlyingType: "int32_t",
		Values:         []EnumValueInfo{{Name: "A", Value: int64(-1)}, {Name: "B"}},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc))
	assert.Contains(t, buf.String(), `"Value": -1`)
	assert.Contains(t, buf.String(), `"Value": null`)
}
