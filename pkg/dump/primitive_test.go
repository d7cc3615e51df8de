package dump

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jtang613/pdbtojson/pkg/pdb"
)

func TestPrimitiveName(t *testing.T) {
	tests := []struct {
		kind   pdb.BasicType
		length uint64
		want   string
	}{
		{pdb.BasicTypeVoid, 0, "void"},
		{pdb.BasicTypeChar, 1, "char"},
		{pdb.BasicTypeWChar, 2, "wchar_t"},
		{pdb.BasicTypeBool, 1, "bool"},
		{pdb.BasicTypeLong, 4, "long"},
		{pdb.BasicTypeULong, 4, "unsigned long"},
		{pdb.BasicTypeInt, 1, "int8_t"},
		{pdb.BasicTypeInt, 2, "int16_t"},
		{pdb.BasicTypeInt, 4, "int32_t"},
		{pdb.BasicTypeInt, 8, "int64_t"},
		{pdb.BasicTypeInt, 16, "int"},
		{pdb.BasicTypeUInt, 1, "uint8_t"},
		{pdb.BasicTypeUInt, 2, "uint16_t"},
		{pdb.BasicTypeUInt, 4, "uint32_t"},
		{pdb.BasicTypeUInt, 8, "uint64_t"},
		{pdb.BasicTypeUInt, 3, "unsigned int"},
		{pdb.BasicTypeFloat, 4, "float"},
		{pdb.BasicTypeFloat, 8, "double"},
		{pdb.BasicTypeFloat, 10, "long double"},
		{pdb.BasicTypeFloat, 2, "float"},
		{pdb.BasicTypeHresult, 4, "unknown"},
		{pdb.BasicTypeChar16, 2, "unknown"},
		{pdb.BasicTypeNone, 0, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PrimitiveName(tt.kind, tt.length), "kind %d length %d", tt.kind, tt.length)
	}
}
