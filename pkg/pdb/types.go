// Package pdb reads Microsoft PDB files and exposes their contents as a
// read-only graph of symbols in the style of the DIA SDK.
package pdb

// Info summarizes an opened PDB file.
type Info struct {
	GUID    string `json:"guid"`
	Age     uint32 `json:"age"`
	Version uint32 `json:"version"`
	Machine string `json:"machine"`
	Streams int    `json:"streams"`
	Modules int    `json:"modules"`
	Types   int    `json:"types"`
}

// SectionInfo describes a PE section copied into the PDB.
type SectionInfo struct {
	Index   uint16 `json:"index"` // 1-based section index
	Name    string `json:"name,omitempty"`
	Address uint32 `json:"address"`
	Length  uint32 `json:"length"`
}
