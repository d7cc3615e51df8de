package streams

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Module stream signatures.
const (
	CVSignatureC13 = 4
)

// C13 debug subsection kinds.
const (
	DebugSLines         = 0xF2
	DebugSFileChecksums = 0xF4

	// The high bit marks a subsection the linker asked readers to skip.
	debugSIgnore = 0x80000000
)

// ModuleStream is a module symbol stream split into its parts.
type ModuleStream struct {
	Symbols []byte // symbol records, after the signature
	C13     []byte // C13 line information subsections
}

// SplitModuleStream splits the raw contents of a module's symbol stream using
// the sizes recorded in its module info.
func SplitModuleStream(data []byte, mod *ModuleInfo) (*ModuleStream, error) {
	symEnd := uint64(mod.SymByteSize)
	c13Start := symEnd + uint64(mod.C11ByteSize)
	c13End := c13Start + uint64(mod.C13ByteSize)
	if c13End > uint64(len(data)) {
		return nil, fmt.Errorf("module %q stream is %d bytes, expected at least %d", mod.ModuleName, len(data), c13End)
	}

	ms := &ModuleStream{C13: data[c13Start:c13End]}
	if symEnd >= 4 {
		if sig := binary.LittleEndian.Uint32(data); sig != CVSignatureC13 {
			return nil, fmt.Errorf("module %q has unsupported symbol signature %d", mod.ModuleName, sig)
		}
		ms.Symbols = data[4:symEnd]
	}
	return ms, nil
}

// LineEntry maps the start of a code range to a source line.
type LineEntry struct {
	Segment    uint16
	Offset     uint32 // section-relative start
	BlockStart uint32 // section-relative start of the enclosing block
	Length     uint32 // length of the enclosing block
	Line       uint32
	File       uint32 // name table offset of the source file
}

// ModuleLines is the decoded line table of one module.
type ModuleLines struct {
	entries []LineEntry // sorted by (Segment, Offset)
}

// ReadC13Lines decodes the line and file checksum subsections of a module's
// C13 block.
func ReadC13Lines(data []byte) (*ModuleLines, error) {
	type block struct {
		seg      uint16
		codeOff  uint32
		codeSize uint32
		fileID   uint32
		lines    []uint32 // (offset, line) pairs
	}

	var (
		blocks    []block
		checksums []byte
	)

	for off := 0; off+8 <= len(data); {
		kind := binary.LittleEndian.Uint32(data[off:])
		size := int(binary.LittleEndian.Uint32(data[off+4:]))
		off += 8
		if size < 0 || off+size > len(data) {
			return nil, fmt.Errorf("C13 subsection 0x%x at offset %d overruns block", kind, off-8)
		}
		body := data[off : off+size]
		off = (off + size + 3) &^ 3

		if kind&debugSIgnore != 0 {
			continue
		}
		switch kind {
		case DebugSFileChecksums:
			checksums = body
		case DebugSLines:
			if len(body) < 12 {
				return nil, fmt.Errorf("C13 lines subsection too small: %d bytes", len(body))
			}
			codeOff := binary.LittleEndian.Uint32(body)
			seg := binary.LittleEndian.Uint16(body[4:])
			codeSize := binary.LittleEndian.Uint32(body[8:])

			for p := 12; p+12 <= len(body); {
				fileID := binary.LittleEndian.Uint32(body[p:])
				numLines := int(binary.LittleEndian.Uint32(body[p+4:]))
				blockSize := int(binary.LittleEndian.Uint32(body[p+8:]))
				if blockSize < 12 || p+blockSize > len(body) || 12+numLines*8 > blockSize {
					return nil, fmt.Errorf("C13 line block at offset %d is malformed", p)
				}
				b := block{seg: seg, codeOff: codeOff, codeSize: codeSize, fileID: fileID}
				for i := 0; i < numLines; i++ {
					rec := body[p+12+i*8:]
					b.lines = append(b.lines,
						binary.LittleEndian.Uint32(rec),
						binary.LittleEndian.Uint32(rec[4:])&0x00FFFFFF)
				}
				blocks = append(blocks, b)
				// blockSize also covers column records when present.
				p += blockSize
			}
		}
	}

	ml := &ModuleLines{}
	for _, b := range blocks {
		file, err := checksumFileName(checksums, b.fileID)
		if err != nil {
			return nil, err
		}
		for i := 0; i+1 < len(b.lines); i += 2 {
			ml.entries = append(ml.entries, LineEntry{
				Segment:    b.seg,
				Offset:     b.codeOff + b.lines[i],
				BlockStart: b.codeOff,
				Length:     b.codeSize,
				Line:       b.lines[i+1],
				File:       file,
			})
		}
	}
	sort.SliceStable(ml.entries, func(i, j int) bool {
		a, b := ml.entries[i], ml.entries[j]
		if a.Segment != b.Segment {
			return a.Segment < b.Segment
		}
		return a.Offset < b.Offset
	})
	return ml, nil
}

// checksumFileName reads the name offset of the checksum entry at fileID,
// which is a byte offset into the checksum subsection.
func checksumFileName(checksums []byte, fileID uint32) (uint32, error) {
	if uint64(fileID)+4 > uint64(len(checksums)) {
		return 0, fmt.Errorf("file checksum offset %d out of range", fileID)
	}
	return binary.LittleEndian.Uint32(checksums[fileID:]), nil
}

// Lookup returns the source file name offset and line of the last entry at or
// before (seg, off) in the same segment. Addresses outside the entry's code
// block have no line.
func (m *ModuleLines) Lookup(seg uint16, off uint32) (file, line uint32, ok bool) {
	if m == nil {
		return 0, 0, false
	}
	i := sort.Search(len(m.entries), func(i int) bool {
		e := m.entries[i]
		return e.Segment > seg || (e.Segment == seg && e.Offset > off)
	})
	if i == 0 {
		return 0, 0, false
	}
	e := m.entries[i-1]
	if e.Segment != seg || off < e.BlockStart || uint64(off) >= uint64(e.BlockStart)+uint64(e.Length) {
		return 0, 0, false
	}
	return e.File, e.Line, true
}

// Len returns the number of line entries.
func (m *ModuleLines) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}
