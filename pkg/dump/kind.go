package dump

import "github.com/jtang613/pdbtojson/pkg/pdb"

// Kind is the category a top-level symbol is dumped under.
type Kind int

const (
	// KindOther symbols are not dumped.
	KindOther Kind = iota
	KindComposite
	KindEnumeration
	KindFunction
	KindData
	KindTypedef
)

func (k Kind) String() string {
	switch k {
	case KindOther:
		return "other"
	case KindComposite:
		return "composite"
	case KindEnumeration:
		return "enumeration"
	case KindFunction:
		return "function"
	case KindData:
		return "data"
	case KindTypedef:
		return "typedef"
	}
	return "invalid"
}

// Classify maps a symbol tag to its kind.
func Classify(tag pdb.SymTag) Kind {
	switch tag {
	case pdb.SymTagUDT:
		return KindComposite
	case pdb.SymTagEnum:
		return KindEnumeration
	case pdb.SymTagFunction:
		return KindFunction
	case pdb.SymTagData:
		return KindData
	case pdb.SymTagTypedef:
		return KindTypedef
	default:
		return KindOther
	}
}
