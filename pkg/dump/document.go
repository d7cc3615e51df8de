package dump

import (
	"encoding/json"
	"fmt"
	"io"
)

// Document is the output of a dump. Collections are never nil so they encode
// as arrays.
type Document struct {
	Classes         []ClassInfo          `json:"Classes"`
	Enums           []EnumInfo           `json:"Enums"`
	GlobalFunctions []FunctionInfo       `json:"GlobalFunctions"`
	GlobalVariables []GlobalVariableInfo `json:"GlobalVariables"`
	Typedefs        []TypedefInfo        `json:"Typedefs"`

	Stats Stats `json:"-"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Classes:         []ClassInfo{},
		Enums:           []EnumInfo{},
		GlobalFunctions: []FunctionInfo{},
		GlobalVariables: []GlobalVariableInfo{},
		Typedefs:        []TypedefInfo{},
	}
}

// WriteJSON encodes doc to w with two-space indentation. HTML characters are
// written as is, so template names keep their angle brackets.
func WriteJSON(w io.Writer, doc *Document) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return nil
}
