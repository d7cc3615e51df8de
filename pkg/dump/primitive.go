package dump

import "github.com/jtang613/pdbtojson/pkg/pdb"

// PrimitiveName returns the display name of a base type of the given kind
// and byte length. Kinds outside the table name as "unknown".
func PrimitiveName(kind pdb.BasicType, length uint64) string {
	switch kind {
	case pdb.BasicTypeVoid:
		return "void"
	case pdb.BasicTypeChar:
		return "char"
	case pdb.BasicTypeWChar:
		return "wchar_t"
	case pdb.BasicTypeInt:
		switch length {
		case 1:
			return "int8_t"
		case 2:
			return "int16_t"
		case 4:
			return "int32_t"
		case 8:
			return "int64_t"
		}
		return "int"
	case pdb.BasicTypeUInt:
		switch length {
		case 1:
			return "uint8_t"
		case 2:
			return "uint16_t"
		case 4:
			return "uint32_t"
		case 8:
			return "uint64_t"
		}
		return "unsigned int"
	case pdb.BasicTypeFloat:
		switch length {
		case 8:
			return "double"
		case 10:
			return "long double"
		}
		return "float"
	case pdb.BasicTypeBool:
		return "bool"
	case pdb.BasicTypeLong:
		return "long"
	case pdb.BasicTypeULong:
		return "unsigned long"
	}
	return "unknown"
}
