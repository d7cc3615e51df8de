package pdbtest

import (
	"github.com/jtang613/pdbtojson/pkg/pdb/codeview"
	"github.com/jtang613/pdbtojson/pkg/pdb/streams"
)

// SampleGUID identifies the file built by Sample.
var SampleGUID = [16]byte{0x78, 0x56, 0x34, 0x12, 0xBC, 0x9A, 0xF0, 0xDE, 1, 2, 3, 4, 5, 6, 7, 8}

// Source files named by Sample.
const (
	SampleWidgetHeader = `C:\src\widget.h`
	SampleWidgetSource = `C:\src\widget.cpp`
	SampleMainSource   = `C:\src\main.cpp`
	SampleColorHeader  = `C:\src\color.h`
)

// Sample returns an x64 PDB holding:
//
//	struct Base { int id; };                       // no source line
//	class Widget : public Base {                   // widget.h:12, 24 bytes
//	    int width; const int kMax; Widget* parent;
//	    static int instances;
//	    virtual void Draw(); int Size() const; static int Count();
//	    void Resize(int); void Resize(int, int);
//	};
//	enum Color { Red, Green, All = -1LL, Weird = 1.5f }; // color.h:3
//	typedef unsigned long DWORD;
//	typedef Widget* PWIDGET;
//	int main(int);                                 // main.cpp:5
//	static void helper();                          // main.cpp:50
//	int g_table[10];
//	thread_local int t_counter;
//	static const int s_limit;
//
// Widget's methods other than Count are defined in widget.cpp.
func Sample() []byte {
	tpi := &TypeStream{}
	ipi := &TypeStream{}
	names := &Names{}

	widgetFwd := tpi.Add(streams.LF_CLASS, Class(0, codeview.PropertyForwardRef|codeview.PropertyHasUnique, 0, 0, "Widget", ".?AVWidget@@"))
	thisPtr := tpi.Add(streams.LF_POINTER, Pointer(widgetFwd, Pointer64))
	constWidget := tpi.Add(streams.LF_MODIFIER, Modifier(widgetFwd, codeview.ModifierConst))
	constThisPtr := tpi.Add(streams.LF_POINTER, Pointer(constWidget, Pointer64))
	constInt := tpi.Add(streams.LF_MODIFIER, Modifier(streams.T_INT4, codeview.ModifierConst))

	noArgs := tpi.Add(streams.LF_ARGLIST, ArgList())
	intArgs := tpi.Add(streams.LF_ARGLIST, ArgList(streams.T_INT4))
	twoInts := tpi.Add(streams.LF_ARGLIST, ArgList(streams.T_INT4, streams.T_INT4))

	drawType := tpi.Add(streams.LF_MFUNCTION, MemberFunction(streams.T_VOID, widgetFwd, thisPtr, noArgs, 0))
	sizeType := tpi.Add(streams.LF_MFUNCTION, MemberFunction(streams.T_INT4, widgetFwd, constThisPtr, noArgs, 0))
	countType := tpi.Add(streams.LF_MFUNCTION, MemberFunction(streams.T_INT4, widgetFwd, 0, noArgs, 0))
	resizeOne := tpi.Add(streams.LF_MFUNCTION, MemberFunction(streams.T_VOID, widgetFwd, thisPtr, intArgs, 1))
	resizeTwo := tpi.Add(streams.LF_MFUNCTION, MemberFunction(streams.T_VOID, widgetFwd, thisPtr, twoInts, 2))
	resizeList := tpi.Add(streams.LF_METHODLIST, MethodList(
		MethodListEntry{Attrs: Public, Type: resizeOne},
		MethodListEntry{Attrs: Public, Type: resizeTwo},
	))

	baseFields := tpi.Add(streams.LF_FIELDLIST, (&FieldList{}).Member(Public, streams.T_INT4, 0, "id").Bytes())
	base := tpi.Add(streams.LF_STRUCTURE, Class(1, codeview.PropertyHasUnique, baseFields, 4, "Base", ".?AUBase@@"))

	widgetFields := tpi.Add(streams.LF_FIELDLIST, (&FieldList{}).
		BaseClass(Public, base, 0).
		Member(Public, streams.T_INT4, 4, "width").
		Member(Public, constInt, 8, "kMax").
		Member(Public, thisPtr, 16, "parent").
		StaticMember(Public, streams.T_INT4, "instances").
		OneMethod(PublicIntro, drawType, 0, "Draw").
		OneMethod(Public, sizeType, 0, "Size").
		OneMethod(PublicStatic, countType, 0, "Count").
		Method(2, resizeList, "Resize").
		Bytes())
	widget := tpi.Add(streams.LF_CLASS, Class(9, codeview.PropertyHasUnique, widgetFields, 24, "Widget", ".?AVWidget@@"))

	colorFields := tpi.Add(streams.LF_FIELDLIST, (&FieldList{}).
		Enumerate(Numeric(0), "Red").
		Enumerate(Numeric(1), "Green").
		Enumerate(Quad(-1), "All").
		Enumerate(Real32(1.5), "Weird").
		Bytes())
	color := tpi.Add(streams.LF_ENUM, Enum(4, codeview.PropertyHasUnique, streams.T_INT4, colorFields, "Color", ".?AW4Color@@"))

	mainType := tpi.Add(streams.LF_PROCEDURE, Procedure(streams.T_INT4, intArgs, 1))
	helperType := tpi.Add(streams.LF_PROCEDURE, Procedure(streams.T_VOID, noArgs, 0))
	table := tpi.Add(streams.LF_ARRAY, Array(streams.T_INT4, streams.T_ULONG, 40))

	widgetHeader := ipi.Add(streams.LF_STRING_ID, StringID(SampleWidgetHeader))
	ipi.Add(streams.LF_UDT_SRC_LINE, UDTSourceLine(widget, widgetHeader, 12))
	ipi.Add(streams.LF_UDT_MOD_SRC_LINE, UDTModSourceLine(color, names.Add(SampleColorHeader), 3, 1))
	mainID := ipi.Add(streams.LF_FUNC_ID, FuncID(0, mainType, "main"))

	widgetSource := names.Add(SampleWidgetSource)
	mainSource := names.Add(SampleMainSource)

	globals := &SymbolStream{}
	globals.Add(codeview.S_GDATA32, Data(streams.T_INT4, 0x10, 2, "Widget::instances"))
	globals.Add(codeview.S_GDATA32, Data(table, 0x20, 2, "g_table"))
	globals.Add(codeview.S_GTHREAD32, Data(streams.T_INT4, 0x40, 2, "t_counter"))
	globals.Add(codeview.S_UDT, UDT(streams.T_ULONG, "DWORD"))
	globals.Add(codeview.S_UDT, UDT(widget, "Widget"))
	globals.Add(codeview.S_UDT, UDT(thisPtr, "PWIDGET"))
	globals.Add(codeview.S_PUB32, Pub(codeview.PubFlagFunction, 0x100, 1, "main"))
	globals.Add(codeview.S_PUB32, Pub(codeview.PubFlagFunction, 0x0, 1, "?Resize@Widget@@QEAAXH@Z"))

	widgetSyms := &SymbolStream{}
	widgetSyms.AddProc(codeview.S_GPROC32, Proc(0x20, resizeOne, 0x00, 1, "Widget::Resize"))
	widgetSyms.AddProc(codeview.S_GPROC32, Proc(0x20, sizeType, 0x40, 1, "Widget::Size"))
	widgetSyms.AddProc(codeview.S_GPROC32, Proc(0x20, drawType, 0x80, 1, "Widget::Draw"))
	widgetSyms.AddProc(codeview.S_GPROC32, Proc(0x20, resizeTwo, 0xC0, 1, "Widget::Resize"))
	widgetLines := C13Lines(LineBlock{
		Segment: 1, Offset: 0, Size: 0x100, NameOffset: widgetSource,
		Lines: []Line{{0x00, 10}, {0x40, 20}, {0x80, 30}, {0xC0, 40}},
	})

	mainSyms := &SymbolStream{}
	mainSyms.AddProc(codeview.S_GPROC32_ID, Proc(0x30, mainID, 0x100, 1, "main"))
	mainSyms.AddProc(codeview.S_LPROC32, Proc(0x10, helperType, 0x200, 1, "helper"))
	mainSyms.Add(codeview.S_LDATA32, Data(constInt, 0x60, 2, "s_limit"))
	mainLines := C13Lines(
		LineBlock{Segment: 1, Offset: 0x100, Size: 0x30, NameOffset: mainSource, Lines: []Line{{0, 5}}},
		LineBlock{Segment: 1, Offset: 0x200, Size: 0x10, NameOffset: mainSource, Lines: []Line{{0, 50}}},
	)

	f := &File{
		GUID:    SampleGUID,
		Age:     2,
		Machine: streams.MachineAMD64,
		TPI:     tpi,
		IPI:     ipi,
		Names:   names,
		Sections: []Section{
			{Name: ".text", VirtualAddress: 0x1000, VirtualSize: 0x1000},
			{Name: ".data", VirtualAddress: 0x3000, VirtualSize: 0x100},
		},
		Globals: globals,
		Modules: []ModuleSource{
			{Name: `C:\obj\widget.obj`, Symbols: widgetSyms, C13: widgetLines},
			{Name: `C:\obj\main.obj`, Symbols: mainSyms, C13: mainLines},
			{Name: "* Linker *"},
		},
	}
	return f.Bytes()
}
