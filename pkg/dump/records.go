package dump

// Record fields are declared in key order so the encoded objects list their
// keys alphabetically.

// ClassInfo describes a class, struct, union or interface.
type ClassInfo struct {
	BaseClasses []BaseClassInfo `json:"BaseClasses"`
	Fields      []FieldInfo     `json:"Fields"`
	LineNumber  uint32          `json:"LineNumber,omitempty"`
	Methods     []MethodInfo    `json:"Methods"`
	Name        string          `json:"Name"`
	Size        uint64          `json:"Size"`
	SourceFile  string          `json:"SourceFile,omitempty"`
}

type BaseClassInfo struct {
	IsVirtual bool   `json:"IsVirtual"`
	Name      string `json:"Name"`
	Offset    int64  `json:"Offset"`
}

// FieldInfo is a data member. VirtualOffset is non-zero only for static
// members with storage.
type FieldInfo struct {
	IsConst       bool   `json:"IsConst"`
	IsStatic      bool   `json:"IsStatic"`
	Name          string `json:"Name"`
	Offset        int64  `json:"Offset"`
	Type          string `json:"Type"`
	VirtualOffset uint64 `json:"VirtualOffset"`
}

// MethodInfo is a member function. VirtualMethodIndex counts the virtual
// methods of the class in the order they are listed; it approximates the
// vtable slot and is not read from the binary.
type MethodInfo struct {
	IsConst            bool            `json:"IsConst"`
	IsPureVirtual      bool            `json:"IsPureVirtual"`
	IsStatic           bool            `json:"IsStatic"`
	IsVirtual          bool            `json:"IsVirtual"`
	Name               string          `json:"Name"`
	Parameters         []ParameterInfo `json:"Parameters"`
	VirtualMethodIndex *int            `json:"VirtualMethodIndex,omitempty"`
	VirtualOffset      uint64          `json:"VirtualOffset"`
}

type ParameterInfo struct {
	Type string `json:"Type"`
}

type EnumInfo struct {
	LineNumber     uint32          `json:"LineNumber,omitempty"`
	Name           string          `json:"Name"`
	SourceFile     string          `json:"SourceFile,omitempty"`
	UnderlyingType string          `json:"UnderlyingType"`
	Values         []EnumValueInfo `json:"Values"`
}

// EnumValueInfo is an enumerator. Value holds an int32, uint32, int64 or
// uint64, or nil when the literal is in another representation.
type EnumValueInfo struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

type TypedefInfo struct {
	Name           string `json:"Name"`
	UnderlyingType string `json:"UnderlyingType"`
}

type FunctionInfo struct {
	IsConst       bool            `json:"IsConst"`
	IsStatic      bool            `json:"IsStatic"`
	LineNumber    uint32          `json:"LineNumber,omitempty"`
	Name          string          `json:"Name"`
	Parameters    []ParameterInfo `json:"Parameters"`
	SourceFile    string          `json:"SourceFile,omitempty"`
	VirtualOffset uint64          `json:"VirtualOffset"`
}

type GlobalVariableInfo struct {
	IsConst       bool   `json:"IsConst"`
	IsStatic      bool   `json:"IsStatic"`
	LineNumber    uint32 `json:"LineNumber,omitempty"`
	Name          string `json:"Name"`
	SourceFile    string `json:"SourceFile,omitempty"`
	Type          string `json:"Type"`
	VirtualOffset uint64 `json:"VirtualOffset"`
}
