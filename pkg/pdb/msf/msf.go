package msf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// nilStreamSize marks an unused or deleted stream in the directory.
const nilStreamSize = 0xFFFFFFFF

// MSF represents an opened MSF (Multi-Stream Format) container.
type MSF struct {
	r          io.ReaderAt
	closer     io.Closer
	superBlock *SuperBlock
	directory  *StreamDirectory
	streams    []*Stream
}

// Open opens an MSF file on disk and parses its structure.
func Open(path string) (*MSF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	m, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	m.closer = f
	return m, nil
}

// NewReader parses an MSF container from r. The caller keeps ownership of r.
func NewReader(r io.ReaderAt) (*MSF, error) {
	m := &MSF{r: r}

	sb, err := ReadSuperBlock(io.NewSectionReader(r, 0, SuperBlockSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read superblock: %w", err)
	}
	m.superBlock = sb

	if err := m.readStreamDirectory(); err != nil {
		return nil, fmt.Errorf("failed to read stream directory: %w", err)
	}

	m.buildStreams()
	return m, nil
}

// Close releases the underlying file when the container was opened by path.
func (m *MSF) Close() error {
	if m.closer != nil {
		return m.closer.Close()
	}
	return nil
}

// SuperBlock returns the MSF SuperBlock.
func (m *MSF) SuperBlock() *SuperBlock {
	return m.superBlock
}

// NumStreams returns the number of streams in the file.
func (m *MSF) NumStreams() int {
	return int(m.directory.NumStreams)
}

// Stream returns the stream at the given index.
func (m *MSF) Stream(index int) (*Stream, error) {
	if index < 0 || index >= len(m.streams) {
		return nil, fmt.Errorf("stream index %d out of range [0, %d)", index, len(m.streams))
	}
	return m.streams[index], nil
}

// ReadStream returns the full contents of the stream at index. Empty and
// unused streams yield a nil slice and no error.
func (m *MSF) ReadStream(index int) ([]byte, error) {
	s, err := m.Stream(index)
	if err != nil {
		return nil, err
	}
	if s.Size() == 0 {
		return nil, nil
	}
	return s.ReadAll()
}

// StreamReader returns a reader for the stream at the given index.
func (m *MSF) StreamReader(index int) (*StreamReader, error) {
	s, err := m.Stream(index)
	if err != nil {
		return nil, err
	}
	return NewStreamReader(s), nil
}

// BlockSize returns the block size used by this MSF file.
func (m *MSF) BlockSize() uint32 {
	return m.superBlock.BlockSize
}

func (m *MSF) readAt(p []byte, off int64) (int, error) {
	return m.r.ReadAt(p, off)
}

// readStreamDirectory reads the block map and then the directory blocks it
// points at.
func (m *MSF) readStreamDirectory() error {
	blockSize := int64(m.superBlock.BlockSize)
	numDirBlocks := m.superBlock.NumDirectoryBlocks()

	blockMap := make([]uint32, numDirBlocks)
	mapReader := io.NewSectionReader(m.r, int64(m.superBlock.BlockMapAddr)*blockSize, int64(numDirBlocks)*4)
	if err := binary.Read(mapReader, binary.LittleEndian, blockMap); err != nil {
		return fmt.Errorf("failed to read block map: %w", err)
	}

	dirData := make([]byte, m.superBlock.NumDirectoryBytes)
	read := 0
	for _, blockIdx := range blockMap {
		n := int(blockSize)
		if read+n > len(dirData) {
			n = len(dirData) - read
		}
		if _, err := m.r.ReadAt(dirData[read:read+n], int64(blockIdx)*blockSize); err != nil {
			return fmt.Errorf("failed to read directory block %d: %w", blockIdx, err)
		}
		read += n
	}

	return m.parseStreamDirectory(dirData)
}

// parseStreamDirectory decodes stream sizes followed by each stream's block
// list.
func (m *MSF) parseStreamDirectory(data []byte) error {
	r := bytes.NewReader(data)

	var numStreams uint32
	if err := binary.Read(r, binary.LittleEndian, &numStreams); err != nil {
		return fmt.Errorf("failed to read NumStreams: %w", err)
	}
	if uint64(numStreams)*4 > uint64(r.Len()) {
		return fmt.Errorf("stream count %d exceeds directory size", numStreams)
	}

	sizes := make([]uint32, numStreams)
	if err := binary.Read(r, binary.LittleEndian, sizes); err != nil {
		return fmt.Errorf("failed to read stream sizes: %w", err)
	}

	blockSize := m.superBlock.BlockSize
	blocks := make([][]uint32, numStreams)
	for i, size := range sizes {
		if size == nilStreamSize {
			continue
		}
		n := (size + blockSize - 1) / blockSize
		if uint64(n)*4 > uint64(r.Len()) {
			return fmt.Errorf("block list for stream %d exceeds directory size", i)
		}
		list := make([]uint32, n)
		if err := binary.Read(r, binary.LittleEndian, list); err != nil {
			return fmt.Errorf("failed to read block list for stream %d: %w", i, err)
		}
		blocks[i] = list
	}

	m.directory = &StreamDirectory{
		NumStreams:   numStreams,
		StreamSizes:  sizes,
		StreamBlocks: blocks,
	}
	return nil
}

func (m *MSF) buildStreams() {
	m.streams = make([]*Stream, m.directory.NumStreams)
	for i, size := range m.directory.StreamSizes {
		if size == nilStreamSize {
			m.streams[i] = &Stream{msf: m}
			continue
		}
		m.streams[i] = &Stream{
			msf:    m,
			size:   size,
			blocks: m.directory.StreamBlocks[i],
		}
	}
}
