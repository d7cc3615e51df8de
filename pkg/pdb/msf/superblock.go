// Package msf implements parsing for Microsoft's Multi-Stream Format (MSF)
// container that wraps every PDB file.
package msf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"
)

// Magic is the MSF 7.00 signature found at offset zero.
var Magic = []byte("Microsoft C/C++ MSF 7.00\r\n\x1aDS\x00\x00\x00")

// ErrBadMagic is returned when the file does not start with Magic.
var ErrBadMagic = errors.New("invalid MSF magic: not a PDB file")

// SuperBlock is the header at the beginning of an MSF file.
type SuperBlock struct {
	Magic             [32]byte
	BlockSize         uint32 // 512, 1024, 2048 or 4096
	FreeBlockMapBlock uint32 // 1 or 2
	NumBlocks         uint32
	NumDirectoryBytes uint32
	Unknown           uint32
	BlockMapAddr      uint32 // block holding the directory block map
}

// SuperBlockSize is the encoded size of SuperBlock.
const SuperBlockSize = 56

// ValidBlockSizes are the block sizes MSF writers emit.
var ValidBlockSizes = []uint32{512, 1024, 2048, 4096}

// ReadSuperBlock reads and validates a SuperBlock.
func ReadSuperBlock(r io.Reader) (*SuperBlock, error) {
	var sb SuperBlock
	if err := binary.Read(r, binary.LittleEndian, &sb); err != nil {
		return nil, fmt.Errorf("failed to read superblock fields: %w", err)
	}

	if !bytes.Equal(sb.Magic[:], Magic) {
		return nil, ErrBadMagic
	}
	if !slices.Contains(ValidBlockSizes, sb.BlockSize) {
		return nil, fmt.Errorf("invalid block size: %d", sb.BlockSize)
	}
	if sb.FreeBlockMapBlock != 1 && sb.FreeBlockMapBlock != 2 {
		return nil, fmt.Errorf("invalid FreeBlockMapBlock: %d (must be 1 or 2)", sb.FreeBlockMapBlock)
	}

	return &sb, nil
}

// NumDirectoryBlocks returns the number of blocks holding the stream directory.
func (sb *SuperBlock) NumDirectoryBlocks() uint32 {
	return (sb.NumDirectoryBytes + sb.BlockSize - 1) / sb.BlockSize
}

// FileSize returns the expected file size based on block count.
func (sb *SuperBlock) FileSize() int64 {
	return int64(sb.NumBlocks) * int64(sb.BlockSize)
}
