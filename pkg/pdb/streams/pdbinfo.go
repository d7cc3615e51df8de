// Package streams provides parsers for the fixed and named PDB streams.
package streams

import (
	"encoding/binary"
	"fmt"
	"io"
)

// PDB info stream versions.
const (
	PDBStreamVersionVC2     = 19941610
	PDBStreamVersionVC4     = 19950623
	PDBStreamVersionVC41    = 19950814
	PDBStreamVersionVC50    = 19960307
	PDBStreamVersionVC98    = 19970604
	PDBStreamVersionVC70Dep = 19990604
	PDBStreamVersionVC70    = 20000404
	PDBStreamVersionVC80    = 20030901
	PDBStreamVersionVC110   = 20091201
	PDBStreamVersionVC140   = 20140508
)

// NamesStreamName is the named stream holding the global string table.
const NamesStreamName = "/names"

// PDBInfo is the PDB info stream (stream 1).
type PDBInfo struct {
	Version      uint32
	Signature    uint32 // creation timestamp
	Age          uint32
	GUID         [16]byte
	NamedStreams map[string]uint32
}

// PDBInfoHeader is the fixed header at the start of the PDB info stream.
type PDBInfoHeader struct {
	Version   uint32
	Signature uint32
	Age       uint32
	GUID      [16]byte
}

// ReadPDBInfo parses the PDB info stream. A truncated named stream map is
// tolerated: the header alone is enough to identify the file.
func ReadPDBInfo(r io.Reader) (*PDBInfo, error) {
	var header PDBInfoHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read PDB info header: %w", err)
	}

	info := &PDBInfo{
		Version:      header.Version,
		Signature:    header.Signature,
		Age:          header.Age,
		GUID:         header.GUID,
		NamedStreams: make(map[string]uint32),
	}

	// Named stream map: string buffer, then a serialized hash table of
	// (string offset, stream index) pairs.
	var strBufSize uint32
	if err := binary.Read(r, binary.LittleEndian, &strBufSize); err != nil {
		return info, nil
	}
	strBuf := make([]byte, strBufSize)
	if _, err := io.ReadFull(r, strBuf); err != nil {
		return info, nil
	}

	var table struct {
		Size     uint32
		Capacity uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &table); err != nil {
		return info, nil
	}

	present, err := readBitVector(r)
	if err != nil {
		return info, nil
	}
	if _, err := readBitVector(r); err != nil { // deleted buckets
		return info, nil
	}

	for i := uint32(0); i < table.Capacity; i++ {
		if !isBitSet(present, i) {
			continue
		}
		var entry struct {
			KeyOffset   uint32
			StreamIndex uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
			break
		}
		if entry.KeyOffset < strBufSize {
			name, _ := ParseString(strBuf[entry.KeyOffset:])
			info.NamedStreams[name] = entry.StreamIndex
		}
	}

	return info, nil
}

// GUIDString returns the GUID in the form symbol servers use.
func (p *PDBInfo) GUIDString() string {
	return fmt.Sprintf("%08X%04X%04X%02X%02X%02X%02X%02X%02X%02X%02X",
		binary.LittleEndian.Uint32(p.GUID[0:4]),
		binary.LittleEndian.Uint16(p.GUID[4:6]),
		binary.LittleEndian.Uint16(p.GUID[6:8]),
		p.GUID[8], p.GUID[9], p.GUID[10], p.GUID[11],
		p.GUID[12], p.GUID[13], p.GUID[14], p.GUID[15])
}

func readBitVector(r io.Reader) ([]uint32, error) {
	var words uint32
	if err := binary.Read(r, binary.LittleEndian, &words); err != nil {
		return nil, err
	}
	vec := make([]uint32, words)
	if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func isBitSet(words []uint32, n uint32) bool {
	word := n / 32
	if word >= uint32(len(words)) {
		return false
	}
	return words[word]&(1<<(n%32)) != 0
}

// NameTableSignature opens the /names stream.
const NameTableSignature = 0xEFFEEFFE

// NameTable is the global string table referenced by offset from C13 file
// checksums and LF_UDT_MOD_SRC_LINE records.
type NameTable struct {
	buf []byte
}

// ReadNameTable parses the /names stream.
func ReadNameTable(data []byte) (*NameTable, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("names stream too small: %d bytes", len(data))
	}
	if sig := binary.LittleEndian.Uint32(data); sig != NameTableSignature {
		return nil, fmt.Errorf("invalid names stream signature: 0x%08x", sig)
	}
	size := binary.LittleEndian.Uint32(data[8:])
	if uint64(size) > uint64(len(data)-12) {
		return nil, fmt.Errorf("names buffer size %d exceeds stream", size)
	}
	return &NameTable{buf: data[12 : 12+size]}, nil
}

// Get returns the string at offset, or "" when out of range.
func (t *NameTable) Get(offset uint32) string {
	if t == nil || uint64(offset) >= uint64(len(t.buf)) {
		return ""
	}
	s, _ := ParseString(t.buf[offset:])
	return s
}
