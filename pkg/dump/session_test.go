package dump

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtang613/pdbtojson/internal/pdbtest"
	"github.com/jtang613/pdbtojson/pkg/pdb"
)

func dumpSample(t *testing.T, opts ...Option) *Document {
	t.Helper()
	s, err := pdb.NewSession(bytes.NewReader(pdbtest.Sample()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	g, err := s.GlobalScope()
	require.NoError(t, err)
	doc, err := New(opts...).Dump(g)
	require.NoError(t, err)
	return doc
}

func TestDumpSession(t *testing.T) {
	doc := dumpSample(t)

	assert.Equal(t, Stats{Visited: 15, Skipped: 5}, doc.Stats)

	require.Len(t, doc.Classes, 2)
	base, widget := doc.Classes[0], doc.Classes[1]
	assert.Equal(t, "Base", base.Name)
	assert.Empty(t, base.SourceFile)
	assert.Equal(t, []FieldInfo{{Name: "id", Type: "int32_t"}}, base.Fields)

	assert.Equal(t, "Widget", widget.Name)
	assert.Equal(t, uint64(24), widget.Size)
	assert.Equal(t, pdbtest.SampleWidgetHeader, widget.SourceFile)
	assert.Equal(t, uint32(12), widget.LineNumber)
	assert.Equal(t, []BaseClassInfo{{Name: "Base"}}, widget.BaseClasses)
	assert.Equal(t, []FieldInfo{
		{Name: "width", Type: "int32_t", Offset: 4},
		{IsConst: true, Name: "kMax", Type: "int32_t", Offset: 8},
		{Name: "parent", Type: "Widget*", Offset: 16},
		{IsStatic: true, Name: "instances", Type: "int32_t", VirtualOffset: 0x3010},
	}, widget.Fields)

	zero := 0
	assert.Equal(t, []MethodInfo{
		{IsVirtual: true, Name: "Draw", Parameters: []ParameterInfo{}, VirtualMethodIndex: &zero, VirtualOffset: 0x1080},
		{IsConst: true, Name: "Size", Parameters: []ParameterInfo{}, VirtualOffset: 0x1040},
		{IsStatic: true, Name: "Count", Parameters: []ParameterInfo{}},
		{Name: "Resize", Parameters: []ParameterInfo{{Type: "int32_t"}}, VirtualOffset: 0x1000},
		{Name: "Resize", Parameters: []ParameterInfo{{Type: "int32_t"}, {Type: "int32_t"}}, VirtualOffset: 0x10C0},
	}, widget.Methods)

	require.Len(t, doc.Enums, 1)
	assert.Equal(t, EnumInfo{
		LineNumber:     3,
		Name:           "Color",
		SourceFile:     pdbtest.SampleColorHeader,
		UnderlyingType: "int32_t",
		Values: []EnumValueInfo{
			{Name: "Red", Value: int32(0)},
			{Name: "Green", Value: int32(1)},
			{Name: "All", Value: int64(-1)},
			{Name: "Weird", Value: nil},
		},
	}, doc.Enums[0])

	assert.Equal(t, []TypedefInfo{
		{Name: "DWORD", UnderlyingType: "unsigned long"},
		{Name: "PWIDGET", UnderlyingType: "Widget*"},
	}, doc.Typedefs)

	assert.Equal(t, []FunctionInfo{
		{
			LineNumber: 5, Name: "main", Parameters: []ParameterInfo{{Type: "int32_t"}},
			SourceFile: pdbtest.SampleMainSource, VirtualOffset: 0x1100,
		},
		{
			IsStatic: true, LineNumber: 50, Name: "helper", Parameters: []ParameterInfo{},
			SourceFile: pdbtest.SampleMainSource, VirtualOffset: 0x1200,
		},
	}, doc.GlobalFunctions)

	assert.Equal(t, []GlobalVariableInfo{
		{IsStatic: true, Name: "g_table", Type: "int32_t[10]", VirtualOffset: 0x3020},
		{Name: "t_counter", Type: "int32_t", VirtualOffset: 0x3040},
		{IsConst: true, IsStatic: true, Name: "s_limit", Type: "int32_t", VirtualOffset: 0x3060},
	}, doc.GlobalVariables)
}

func TestDumpSessionWithFilter(t *testing.T) {
	doc := dumpSample(t, WithFilter(NewFilter(`C:\src\`, []string{"color.h"})))

	// Color is excluded by pattern; everything else lives under the prefix
	// or has no file.
	assert.Equal(t, 1, doc.Stats.Filtered)
	assert.Empty(t, doc.Enums)
	assert.Len(t, doc.Classes, 2)
	assert.Len(t, doc.GlobalFunctions, 2)

	doc = dumpSample(t, WithFilter(NewFilter(`C:\src\widget`, nil)))
	assert.Equal(t, 3, doc.Stats.Filtered)
	assert.Equal(t, []string{"Base", "Widget"}, []string{doc.Classes[0].Name, doc.Classes[1].Name})
	assert.Empty(t, doc.GlobalFunctions)
	assert.Len(t, doc.GlobalVariables, 3)
	assert.Len(t, doc.Typedefs, 2)
}
